package model

// ExtractionReport aggregates the text fields produced by one receipt
// extraction request. Returned to the caller, never persisted.
type ExtractionReport struct {
	Alphabetic string `json:"alphabetic"`
	Numeric    string `json:"numeric"`
	Fallback   string `json:"fallback,omitempty"`
	Merchant   string `json:"merchant"`
	Combined   string `json:"combined"`
}

// MerchantUnknown is reported when no header line clears the similarity
// cutoff against the registry.
const MerchantUnknown = "unknown"
