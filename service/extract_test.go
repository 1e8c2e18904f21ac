package service

import (
	"context"
	"errors"
	"testing"

	"gocv.io/x/gocv"

	"github.com/priceloka/backend/config"
	"github.com/priceloka/backend/model"
)

// fakeEngine returns canned text per restriction.
type fakeEngine struct {
	texts map[Restriction]string
	errs  map[Restriction]error
	calls []Restriction
}

func (e *fakeEngine) Recognize(_ context.Context, _ gocv.Mat, restriction Restriction) (string, error) {
	e.calls = append(e.calls, restriction)
	if err := e.errs[restriction]; err != nil {
		return "", err
	}
	return e.texts[restriction], nil
}

func (e *fakeEngine) Available() bool { return true }

func encodedTestImage(t *testing.T) []byte {
	t.Helper()

	img := gradientMat(t, 40, 60)
	defer img.Close()

	encoded, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	defer encoded.Close()

	data := make([]byte, len(encoded.GetBytes()))
	copy(data, encoded.GetBytes())
	return data
}

func newTestExtractor(engine Engine, fallbackPass bool) *Extractor {
	return NewExtractor(
		newTestImaging(0.25),
		engine,
		newTestMatcher(0.6),
		fallbackPass,
	)
}

func TestExtractComposesReport(t *testing.T) {
	engine := &fakeEngine{texts: map[Restriction]string{
		RestrictionAlphabetic: "TESCO EXTRA\nWELCOME",
		RestrictionNumeric:    "12.50\n3.20",
	}}
	extractor := newTestExtractor(engine, false)

	report, err := extractor.Extract(context.Background(), encodedTestImage(t))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if report.Alphabetic != "TESCO EXTRA\nWELCOME" {
		t.Errorf("Unexpected alphabetic text: %q", report.Alphabetic)
	}
	if report.Numeric != "12.50\n3.20" {
		t.Errorf("Unexpected numeric text: %q", report.Numeric)
	}
	if report.Fallback != "" {
		t.Errorf("Expected no fallback text, got %q", report.Fallback)
	}
	if report.Combined != "TESCO EXTRA\nWELCOME\n12.50\n3.20" {
		t.Errorf("Unexpected combined text: %q", report.Combined)
	}
	if len(engine.calls) != 2 {
		t.Errorf("Expected 2 passes, got %d", len(engine.calls))
	}
}

func TestExtractMatchesMerchant(t *testing.T) {
	engine := &fakeEngine{texts: map[Restriction]string{
		RestrictionAlphabetic: "MYD1N MALL",
		RestrictionNumeric:    "9.90",
	}}
	extractor := newTestExtractor(engine, false)

	report, err := extractor.Extract(context.Background(), encodedTestImage(t))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if report.Merchant != "MYDIN" {
		t.Errorf("Expected MYDIN, got %s", report.Merchant)
	}
}

func TestExtractFallbackUsedWhenAlphabeticMisses(t *testing.T) {
	engine := &fakeEngine{texts: map[Restriction]string{
		RestrictionAlphabetic: "GIBBERISH",
		RestrictionNumeric:    "4.50",
		RestrictionNone:       "99 SPEEDMART",
	}}
	extractor := newTestExtractor(engine, true)

	report, err := extractor.Extract(context.Background(), encodedTestImage(t))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if report.Merchant != "99 SPEEDMART" {
		t.Errorf("Expected fallback to yield 99 SPEEDMART, got %s", report.Merchant)
	}
	if len(engine.calls) != 3 {
		t.Errorf("Expected 3 passes with fallback enabled, got %d", len(engine.calls))
	}
}

func TestExtractFallbackNotConsultedOnMatch(t *testing.T) {
	engine := &fakeEngine{texts: map[Restriction]string{
		RestrictionAlphabetic: "AEON BIG",
		RestrictionNumeric:    "15.00",
		RestrictionNone:       "WATSONS", // would win if consulted
	}}
	extractor := newTestExtractor(engine, true)

	report, err := extractor.Extract(context.Background(), encodedTestImage(t))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if report.Merchant != "AEON BIG" {
		t.Errorf("Expected alphabetic match AEON BIG to stand, got %s", report.Merchant)
	}
}

func TestExtractSinglePassFailureFailsRequest(t *testing.T) {
	engineErr := errors.New("engine exploded")
	engine := &fakeEngine{
		texts: map[Restriction]string{RestrictionAlphabetic: "TESCO"},
		errs:  map[Restriction]error{RestrictionNumeric: engineErr},
	}
	extractor := newTestExtractor(engine, false)

	if _, err := extractor.Extract(context.Background(), encodedTestImage(t)); !errors.Is(err, engineErr) {
		t.Errorf("Expected pass failure to surface, got %v", err)
	}
}

func TestExtractInvalidImage(t *testing.T) {
	extractor := newTestExtractor(&fakeEngine{}, false)

	if _, err := extractor.Extract(context.Background(), []byte("junk")); err == nil {
		t.Error("Expected error for undecodable image")
	}
}

func TestExtractPlain(t *testing.T) {
	engine := &fakeEngine{texts: map[Restriction]string{
		RestrictionNone: "FULL RECEIPT TEXT",
	}}
	extractor := newTestExtractor(engine, false)

	text, err := extractor.ExtractPlain(context.Background(), encodedTestImage(t))
	if err != nil {
		t.Fatalf("ExtractPlain failed: %v", err)
	}
	if text != "FULL RECEIPT TEXT" {
		t.Errorf("Unexpected text: %q", text)
	}
	if len(engine.calls) != 1 || engine.calls[0] != RestrictionNone {
		t.Errorf("Expected a single unrestricted pass, got %v", engine.calls)
	}
}

func TestExtractUnknownMerchant(t *testing.T) {
	engine := &fakeEngine{texts: map[Restriction]string{
		RestrictionAlphabetic: "RANDOM TEXT",
		RestrictionNumeric:    "1.00",
	}}
	extractor := newTestExtractor(engine, false)

	report, err := extractor.Extract(context.Background(), encodedTestImage(t))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if report.Merchant != model.MerchantUnknown {
		t.Errorf("Expected unknown merchant, got %s", report.Merchant)
	}
}
