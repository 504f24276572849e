package scan

import (
	"context"
	"errors"
)

// ErrUpstream marks failures of the external analysis service. Callers can
// retry these; anything else is a problem with the request itself.
var ErrUpstream = errors.New("scan analysis unavailable")

// Attributes describes a scanned item as detected from its photo. All fields
// are free text and editable by the user before valuation.
type Attributes struct {
	Brand     string `json:"brand"`
	Category  string `json:"category"`
	Size      string `json:"size"`
	Condition string `json:"condition"`
	Color     string `json:"color"`
}

// Usage contains token usage and cost information for a vision call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// Analyzer can analyze an item photo and detect its attributes.
type Analyzer interface {
	// AnalyzeImage takes image data and returns the detected attributes.
	AnalyzeImage(ctx context.Context, imageData []byte, mimeType string) (*Attributes, error)
}
