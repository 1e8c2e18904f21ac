package service

import (
	"context"
	"math/rand"
	"sort"

	"github.com/priceloka/backend/config"
	"github.com/priceloka/backend/model"
)

const contributorPrefixLen = 8

// HistoryService serves the most recent price observations for a product
// code, with a freshness flag on the single newest record.
type HistoryService struct {
	store SubmissionStore
	limit int
	box   config.HistoryConfig
}

func NewHistoryService(store SubmissionStore, cfg *config.HistoryConfig) *HistoryService {
	return &HistoryService{
		store: store,
		limit: cfg.Limit,
		box:   *cfg,
	}
}

// Recent returns up to the limit most recent observations for code,
// newest first. Exactly one record, the one with the maximum client
// timestamp in the result set, is flagged fresh. An unknown code yields
// an empty list, not an error.
func (s *HistoryService) Recent(ctx context.Context, code string) ([]model.PriceObservation, error) {
	subs, err := s.store.ByProduct(ctx, code)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].ClientTime > subs[j].ClientTime
	})
	if len(subs) > s.limit {
		subs = subs[:s.limit]
	}

	views := make([]model.PriceObservation, 0, len(subs))
	for i, sub := range subs {
		contributor := sub.Contributor
		if len([]rune(contributor)) > contributorPrefixLen {
			contributor = string([]rune(contributor)[:contributorPrefixLen])
		}

		views = append(views, model.PriceObservation{
			Contributor: contributor,
			Price:       model.PriceNotAvailable,
			Date:        sub.ReceivedAt.Format("02 Jan 2006"),
			Lat:         s.jitter(s.box.MinLat, s.box.MaxLat),
			Lng:         s.jitter(s.box.MinLng, s.box.MaxLng),
			Fresh:       i == 0,
		})
	}
	return views, nil
}

// jitter draws a coordinate component inside the configured bounding box.
// A privacy stand-in for real geocoding, drawn independently per record.
func (s *HistoryService) jitter(min, max float64) float64 {
	return min + rand.Float64()*(max-min)
}
