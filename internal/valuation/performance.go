package valuation

import "fmt"

// Performance classification buckets against the originally predicted range.
const (
	AboveRange  = "Above predicted range"
	BelowRange  = "Below predicted range"
	WithinRange = "Within predicted range"
)

// Performance compares a realized sale against the original prediction.
// Derived on demand, never stored.
type Performance struct {
	RealizedRoi    float64 `json:"realizedRoi"`
	RealizedProfit float64 `json:"realizedProfit"`
	Classification string  `json:"classification"`
}

// ComparePerformance computes realized ROI/profit for a sold item and
// classifies the sale price against the predicted resale range recorded at
// valuation time. The snapshot range is used as-is: this is retrospective and
// must not trigger a re-valuation.
func ComparePerformance(purchasePrice, soldPrice float64, snapshot Result) (Performance, error) {
	if !isFinite(purchasePrice) || purchasePrice <= 0 {
		return Performance{}, fmt.Errorf("purchase price must be finite and positive, got %v", purchasePrice)
	}
	if !isFinite(soldPrice) || soldPrice <= 0 {
		return Performance{}, fmt.Errorf("sold price must be finite and positive, got %v", soldPrice)
	}

	classification := WithinRange
	switch {
	case soldPrice > snapshot.ExpectedResaleMax:
		classification = AboveRange
	case soldPrice < snapshot.ExpectedResaleMin:
		classification = BelowRange
	}

	return Performance{
		RealizedRoi:    roundToCents(soldPrice / purchasePrice),
		RealizedProfit: roundToCents(soldPrice - purchasePrice),
		Classification: classification,
	}, nil
}
