package service

import (
	"context"
	"errors"
	"testing"

	"github.com/priceloka/backend/config"
	"github.com/priceloka/backend/model"
)

func validBatch() *model.SubmissionBatch {
	return &model.SubmissionBatch{
		Contributor: "contributor-123",
		Town:        "Kota Kinabalu",
		Region:      "Sabah",
		Country:     "Malaysia",
		Timestamp:   1700000000000,
		Items: []model.SubmissionItem{
			{Code: "9556001001234", Name: "Milo 1kg", Quality: "receipt"},
			{Code: "9556001005678", Name: "Maggi Curry 5x79g", Quality: "shelf"},
		},
	}
}

func TestAcceptBatch(t *testing.T) {
	store := NewMemoryStore()
	svc := NewSubmissionService(store, &config.SubmissionsConfig{})

	points, err := svc.Accept(context.Background(), validBatch())
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if points != 2 {
		t.Errorf("Expected 2 points, got %d", points)
	}
	if store.Count() != 2 {
		t.Errorf("Expected 2 stored submissions, got %d", store.Count())
	}

	subs, _ := store.ByProduct(context.Background(), "9556001001234")
	if len(subs) != 1 {
		t.Fatalf("Expected 1 submission for code, got %d", len(subs))
	}
	if subs[0].Country != "MALAYSIA" {
		t.Errorf("Expected uppercased country MALAYSIA, got %s", subs[0].Country)
	}
	if subs[0].ReceivedAt.IsZero() {
		t.Error("Expected server receipt time to be set")
	}
	if subs[0].ClientTime != 1700000000000 {
		t.Errorf("Expected batch timestamp applied, got %d", subs[0].ClientTime)
	}
}

func TestAcceptPartialBatch(t *testing.T) {
	store := NewMemoryStore()
	svc := NewSubmissionService(store, &config.SubmissionsConfig{})

	batch := validBatch()
	batch.Items = append(batch.Items,
		model.SubmissionItem{Code: "123", Name: "", Quality: "receipt"},  // missing name
		model.SubmissionItem{Code: "", Name: "Thing", Quality: "shelf"},  // missing code
		model.SubmissionItem{Code: "456", Name: "Other", Quality: "  "},  // blank quality
	)

	points, err := svc.Accept(context.Background(), batch)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if points != 2 {
		t.Errorf("Expected only the 2 valid items to score, got %d", points)
	}
	if store.Count() != 2 {
		t.Errorf("Expected 2 stored submissions, got %d", store.Count())
	}
}

func TestAcceptAllInvalidItems(t *testing.T) {
	store := NewMemoryStore()
	svc := NewSubmissionService(store, &config.SubmissionsConfig{})

	batch := validBatch()
	batch.Items = []model.SubmissionItem{
		{Code: "", Name: "", Quality: ""},
		{Code: "123", Name: "Thing", Quality: ""},
	}

	points, err := svc.Accept(context.Background(), batch)
	if !errors.Is(err, ErrInvalidBatch) {
		t.Errorf("Expected ErrInvalidBatch, got %v", err)
	}
	if points != 0 {
		t.Errorf("Expected 0 points, got %d", points)
	}
	if store.Count() != 0 {
		t.Errorf("Expected empty store, got %d records", store.Count())
	}
}

func TestAcceptItemAliases(t *testing.T) {
	store := NewMemoryStore()
	svc := NewSubmissionService(store, &config.SubmissionsConfig{})

	batch := validBatch()
	batch.Contributor = ""
	batch.UUID = "legacy-uuid-1"
	batch.Items = []model.SubmissionItem{
		{Barcode: "789", ProductName: "Alias Product", DataQuality: "receipt"},
	}

	points, err := svc.Accept(context.Background(), batch)
	if err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if points != 1 {
		t.Errorf("Expected 1 point, got %d", points)
	}

	subs, _ := store.ByProduct(context.Background(), "789")
	if len(subs) != 1 {
		t.Fatalf("Expected aliased item to be stored")
	}
	if subs[0].Contributor != "legacy-uuid-1" {
		t.Errorf("Expected uuid alias contributor, got %s", subs[0].Contributor)
	}
	if subs[0].Name != "Alias Product" {
		t.Errorf("Expected aliased name, got %s", subs[0].Name)
	}
}

func TestAcceptBatchValidation(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.SubmissionsConfig
		mutate func(*model.SubmissionBatch)
	}{
		{
			name:   "missing contributor",
			mutate: func(b *model.SubmissionBatch) { b.Contributor = ""; b.UUID = "" },
		},
		{
			name:   "missing town",
			mutate: func(b *model.SubmissionBatch) { b.Town = "   " },
		},
		{
			name:   "zero timestamp",
			mutate: func(b *model.SubmissionBatch) { b.Timestamp = 0 },
		},
		{
			name:   "negative timestamp",
			mutate: func(b *model.SubmissionBatch) { b.Timestamp = -5 },
		},
		{
			name:   "missing region when required",
			cfg:    config.SubmissionsConfig{RegionRequired: true},
			mutate: func(b *model.SubmissionBatch) { b.Region = "" },
		},
		{
			name:   "missing country when required",
			cfg:    config.SubmissionsConfig{CountryRequired: true},
			mutate: func(b *model.SubmissionBatch) { b.Country = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			svc := NewSubmissionService(store, &tt.cfg)

			batch := validBatch()
			tt.mutate(batch)

			if _, err := svc.Accept(context.Background(), batch); !errors.Is(err, ErrInvalidBatch) {
				t.Errorf("Expected ErrInvalidBatch, got %v", err)
			}
			if store.Count() != 0 {
				t.Errorf("Expected nothing stored on rejection, got %d", store.Count())
			}
		})
	}
}

func TestAcceptOptionalGeoFields(t *testing.T) {
	store := NewMemoryStore()
	svc := NewSubmissionService(store, &config.SubmissionsConfig{})

	batch := validBatch()
	batch.Region = ""
	batch.Country = ""

	points, err := svc.Accept(context.Background(), batch)
	if err != nil {
		t.Fatalf("Accept with optional geo fields failed: %v", err)
	}
	if points != 2 {
		t.Errorf("Expected 2 points, got %d", points)
	}
}
