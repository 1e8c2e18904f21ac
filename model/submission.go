package model

import (
	"strings"
	"time"
)

// Submission is one accepted price observation. Records are immutable after
// creation and are never deleted.
type Submission struct {
	ID          string    `json:"id"`
	Contributor string    `json:"contributor"`
	Town        string    `json:"town"`
	Region      string    `json:"region"`
	Country     string    `json:"country"` // uppercased
	ClientTime  int64     `json:"client_time"` // milliseconds since epoch, client-supplied
	ReceivedAt  time.Time `json:"received_at"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Quality     string    `json:"quality"`
}

// SubmissionBatch is the inbound batch request body. Several deployed client
// versions disagree on key names, so each field keeps its legacy alias.
type SubmissionBatch struct {
	Contributor string           `json:"contributor"`
	UUID        string           `json:"uuid"` // legacy alias for contributor
	Town        string           `json:"town"`
	Region      string           `json:"region"`
	Country     string           `json:"country"`
	Timestamp   int64            `json:"timestamp"` // milliseconds since epoch
	Items       []SubmissionItem `json:"items"`
}

// SubmissionItem is one price observation inside a batch.
type SubmissionItem struct {
	Code        string `json:"code"`
	Barcode     string `json:"barcode"` // legacy alias for code
	Name        string `json:"name"`
	ProductName string `json:"product_name"` // legacy alias for name
	Quality     string `json:"quality"`
	DataQuality string `json:"data_quality"` // legacy alias for quality
}

// ContributorID resolves the contributor identifier aliases.
func (b *SubmissionBatch) ContributorID() string {
	if v := strings.TrimSpace(b.Contributor); v != "" {
		return v
	}
	return strings.TrimSpace(b.UUID)
}

// ResolvedCode resolves the product code aliases.
func (i *SubmissionItem) ResolvedCode() string {
	if v := strings.TrimSpace(i.Code); v != "" {
		return v
	}
	return strings.TrimSpace(i.Barcode)
}

// ResolvedName resolves the product name aliases.
func (i *SubmissionItem) ResolvedName() string {
	if v := strings.TrimSpace(i.Name); v != "" {
		return v
	}
	return strings.TrimSpace(i.ProductName)
}

// ResolvedQuality resolves the data-quality tag aliases.
func (i *SubmissionItem) ResolvedQuality() string {
	if v := strings.TrimSpace(i.Quality); v != "" {
		return v
	}
	return strings.TrimSpace(i.DataQuality)
}

// LeaderboardRow is a derived aggregation row, recomputed on every query.
type LeaderboardRow struct {
	Town        string `json:"town"`
	Region      string `json:"region"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	Count       int    `json:"count"`
}

// CountryCode projects a country name onto a two-letter lowercase display
// code from its first two characters. Not a real ISO-3166 lookup; replace
// this function with a table when one is needed.
func CountryCode(country string) string {
	runes := []rune(strings.TrimSpace(country))
	if len(runes) < 2 {
		return strings.ToLower(string(runes))
	}
	return strings.ToLower(string(runes[:2]))
}

// PriceObservation is a per-query projection of one Submission for the
// price-history view.
type PriceObservation struct {
	Contributor string  `json:"contributor"` // truncated prefix
	Price       string  `json:"price"`
	Date        string  `json:"date"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Fresh       bool    `json:"fresh"`
}

// PriceNotAvailable is the sentinel price shown when the upstream data
// model carries no price field.
const PriceNotAvailable = "N/A"
