package service

import (
	"context"
	"sync"

	"github.com/priceloka/backend/model"
)

// SubmissionStore is the append-and-scan contract the aggregation
// algorithms depend on. No updates, no deletes.
type SubmissionStore interface {
	// Append persists one accepted submission. Appends are atomic with
	// respect to concurrent scans.
	Append(ctx context.Context, sub model.Submission) error
	// SubmittedSince returns submissions whose client timestamp is at or
	// after since (milliseconds since epoch).
	SubmittedSince(ctx context.Context, since int64) ([]model.Submission, error)
	// ByProduct returns submissions matching the product code exactly.
	ByProduct(ctx context.Context, code string) ([]model.Submission, error)
}

// MemoryStore is an in-memory SubmissionStore for prototyping and tests.
// Production deployments use the Postgres store for retention across
// restarts.
type MemoryStore struct {
	mu   sync.RWMutex
	subs []model.Submission
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, sub model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, sub)
	return nil
}

func (s *MemoryStore) SubmittedSince(_ context.Context, since int64) ([]model.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Submission
	for _, sub := range s.subs {
		if sub.ClientTime >= since {
			result = append(result, sub)
		}
	}
	return result, nil
}

func (s *MemoryStore) ByProduct(_ context.Context, code string) ([]model.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Submission
	for _, sub := range s.subs {
		if sub.Code == code {
			result = append(result, sub)
		}
	}
	return result, nil
}

// Count returns the number of stored submissions.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
