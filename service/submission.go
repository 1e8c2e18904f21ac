package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/priceloka/backend/config"
	"github.com/priceloka/backend/model"
	"github.com/priceloka/backend/pkg/logger"
	"github.com/priceloka/backend/pkg/metrics"
)

// ErrInvalidBatch marks batch-level validation failures: missing required
// fields or a batch in which no item survived per-item validation.
var ErrInvalidBatch = errors.New("invalid submission batch")

// SubmissionService validates inbound batches and persists accepted
// observations.
type SubmissionService struct {
	store           SubmissionStore
	regionRequired  bool
	countryRequired bool
}

func NewSubmissionService(store SubmissionStore, cfg *config.SubmissionsConfig) *SubmissionService {
	return &SubmissionService{
		store:           store,
		regionRequired:  cfg.RegionRequired,
		countryRequired: cfg.CountryRequired,
	}
}

// Accept validates one batch and appends each surviving item as an
// immutable Submission. It returns the points awarded, which is the number
// of accepted items. Items failing per-item validation are skipped
// silently; a batch in which none survive is rejected outright.
func (s *SubmissionService) Accept(ctx context.Context, batch *model.SubmissionBatch) (int, error) {
	contributor := batch.ContributorID()
	if contributor == "" {
		return 0, fmt.Errorf("%w: missing contributor identifier", ErrInvalidBatch)
	}

	town := strings.TrimSpace(batch.Town)
	if town == "" {
		return 0, fmt.Errorf("%w: missing town", ErrInvalidBatch)
	}

	region := strings.TrimSpace(batch.Region)
	if s.regionRequired && region == "" {
		return 0, fmt.Errorf("%w: missing region", ErrInvalidBatch)
	}

	country := strings.ToUpper(strings.TrimSpace(batch.Country))
	if s.countryRequired && country == "" {
		return 0, fmt.Errorf("%w: missing country", ErrInvalidBatch)
	}

	if batch.Timestamp <= 0 {
		return 0, fmt.Errorf("%w: timestamp must be a positive integer", ErrInvalidBatch)
	}

	receivedAt := time.Now()
	accepted := 0

	for _, item := range batch.Items {
		code := item.ResolvedCode()
		name := item.ResolvedName()
		quality := item.ResolvedQuality()

		if code == "" || name == "" || quality == "" {
			metrics.SubmissionsRejected.Inc()
			continue
		}

		sub := model.Submission{
			ID:          uuid.New().String(),
			Contributor: contributor,
			Town:        town,
			Region:      region,
			Country:     country,
			ClientTime:  batch.Timestamp,
			ReceivedAt:  receivedAt,
			Code:        code,
			Name:        name,
			Quality:     quality,
		}
		if err := s.store.Append(ctx, sub); err != nil {
			return accepted, fmt.Errorf("failed to store submission: %w", err)
		}

		metrics.SubmissionsAccepted.Inc()
		accepted++
	}

	if accepted == 0 {
		return 0, fmt.Errorf("%w: no valid items", ErrInvalidBatch)
	}

	logger.Info(ctx, "submission batch accepted",
		"contributor", contributor,
		"town", town,
		"items", len(batch.Items),
		"points", accepted,
	)

	return accepted, nil
}
