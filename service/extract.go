package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/priceloka/backend/model"
	"github.com/priceloka/backend/pkg/logger"
)

// Extractor orchestrates the normalizer, the OCR engine and the merchant
// matcher into the dual-pass extraction pipeline.
type Extractor struct {
	imaging      *ImagingService
	engine       Engine
	matcher      *MerchantMatcher
	fallbackPass bool
}

func NewExtractor(imaging *ImagingService, engine Engine, matcher *MerchantMatcher, fallbackPass bool) *Extractor {
	return &Extractor{
		imaging:      imaging,
		engine:       engine,
		matcher:      matcher,
		fallbackPass: fallbackPass,
	}
}

// Extract runs the full pipeline on raw image bytes: normalize, crop the
// header, run the character-constrained passes concurrently, then match
// the merchant. Passes are independent; results are combined only after
// all complete, and any single pass failure fails the whole request.
func (e *Extractor) Extract(ctx context.Context, data []byte) (*model.ExtractionReport, error) {
	img, err := e.imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	binary := e.imaging.Normalize(img)
	defer binary.Close()

	header := e.imaging.CropHeader(binary)
	defer header.Close()

	var alphabetic, numeric, fallback string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := e.engine.Recognize(gctx, header, RestrictionAlphabetic)
		if err != nil {
			return fmt.Errorf("alphabetic pass: %w", err)
		}
		alphabetic = text
		return nil
	})
	g.Go(func() error {
		text, err := e.engine.Recognize(gctx, binary, RestrictionNumeric)
		if err != nil {
			return fmt.Errorf("numeric pass: %w", err)
		}
		numeric = text
		return nil
	})
	if e.fallbackPass {
		g.Go(func() error {
			text, err := e.engine.Recognize(gctx, header, RestrictionNone)
			if err != nil {
				return fmt.Errorf("fallback pass: %w", err)
			}
			fallback = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merchant := e.matcher.Match(alphabetic)
	if merchant == model.MerchantUnknown && fallback != "" {
		merchant = e.matcher.Match(fallback)
	}

	logger.Debug(ctx, "extraction complete",
		"merchant", merchant,
		"alphabetic_len", len(alphabetic),
		"numeric_len", len(numeric),
	)

	return &model.ExtractionReport{
		Alphabetic: alphabetic,
		Numeric:    numeric,
		Fallback:   fallback,
		Merchant:   merchant,
		Combined:   strings.TrimSpace(alphabetic) + "\n" + strings.TrimSpace(numeric),
	}, nil
}

// ExtractPlain runs a single unrestricted pass over the normalized image.
// Serves the legacy single-pass endpoint.
func (e *Extractor) ExtractPlain(ctx context.Context, data []byte) (string, error) {
	img, err := e.imaging.Decode(data)
	if err != nil {
		return "", err
	}
	defer img.Close()

	binary := e.imaging.Normalize(img)
	defer binary.Close()

	return e.engine.Recognize(ctx, binary, RestrictionNone)
}

// EngineAvailable reports whether the recognition engine is usable.
func (e *Extractor) EngineAvailable() bool {
	return e.engine.Available()
}
