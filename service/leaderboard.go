package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/priceloka/backend/config"
	"github.com/priceloka/backend/model"
)

// LeaderboardService ranks contributing locations by submission count over
// a trailing window. Rows are recomputed on every query, never cached.
type LeaderboardService struct {
	store  SubmissionStore
	window time.Duration
	limit  int
}

func NewLeaderboardService(store SubmissionStore, cfg *config.LeaderboardConfig) *LeaderboardService {
	return &LeaderboardService{
		store:  store,
		window: time.Duration(cfg.WindowDays) * 24 * time.Hour,
		limit:  cfg.Limit,
	}
}

type locationKey struct {
	town    string
	region  string
	country string
}

// Rows aggregates submissions within the trailing window, grouped by
// (town, region, country), sorted by count descending and capped.
// Records missing any geographic tag are silently excluded; a malformed
// stored record never fails the query.
func (s *LeaderboardService) Rows(ctx context.Context) ([]model.LeaderboardRow, error) {
	since := time.Now().Add(-s.window).UnixMilli()
	subs, err := s.store.SubmittedSince(ctx, since)
	if err != nil {
		return nil, err
	}

	counts := make(map[locationKey]int)
	var order []locationKey

	for _, sub := range subs {
		key := locationKey{
			town:    strings.TrimSpace(sub.Town),
			region:  strings.TrimSpace(sub.Region),
			country: strings.ToUpper(strings.TrimSpace(sub.Country)),
		}
		if key.town == "" || key.region == "" || key.country == "" {
			continue
		}

		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	rows := make([]model.LeaderboardRow, 0, len(order))
	for _, key := range order {
		rows = append(rows, model.LeaderboardRow{
			Town:        key.town,
			Region:      key.region,
			Country:     key.country,
			CountryCode: model.CountryCode(key.country),
			Count:       counts[key],
		})
	}

	// Ties keep group-creation order.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})

	if len(rows) > s.limit {
		rows = rows[:s.limit]
	}
	return rows, nil
}
