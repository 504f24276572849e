package valuation

import (
	"fmt"
	"math"
)

// Marketplace is the marketplace whose fee structure the user sells on.
type Marketplace string

const (
	MarketplaceEbay     Marketplace = "eBay"
	MarketplacePoshmark Marketplace = "Poshmark"
	MarketplaceOther    Marketplace = "Other"
)

// Valid reports whether m is a known marketplace.
func (m Marketplace) Valid() bool {
	switch m {
	case MarketplaceEbay, MarketplacePoshmark, MarketplaceOther:
		return true
	}
	return false
}

// Settings holds the user-configurable decision policy: fee and shipping
// assumptions plus the ROI/profit thresholds a purchase has to clear.
type Settings struct {
	PrimaryMarketplace Marketplace `json:"primaryMarketplace"`
	FeePercent         float64     `json:"feePercent"`
	AvgShippingCost    float64     `json:"avgShippingCost"`
	TargetRoi          float64     `json:"targetRoi"`
	MinimumProfit      float64     `json:"minimumProfit"`
}

// DefaultSettings returns the out-of-the-box policy.
func DefaultSettings() Settings {
	return Settings{
		PrimaryMarketplace: MarketplaceEbay,
		FeePercent:         15,
		AvgShippingCost:    5.5,
		TargetRoi:          2.5,
		MinimumProfit:      10,
	}
}

// Validate checks the settings invariants: all numeric fields finite and
// non-negative, target ROI strictly positive.
func (s Settings) Validate() error {
	if !s.PrimaryMarketplace.Valid() {
		return fmt.Errorf("unknown marketplace: %q", s.PrimaryMarketplace)
	}
	if !isFinite(s.FeePercent) || s.FeePercent < 0 {
		return fmt.Errorf("fee percent must be finite and non-negative, got %v", s.FeePercent)
	}
	if !isFinite(s.AvgShippingCost) || s.AvgShippingCost < 0 {
		return fmt.Errorf("shipping cost must be finite and non-negative, got %v", s.AvgShippingCost)
	}
	if !isFinite(s.TargetRoi) || s.TargetRoi <= 0 {
		return fmt.Errorf("target ROI must be finite and positive, got %v", s.TargetRoi)
	}
	if !isFinite(s.MinimumProfit) || s.MinimumProfit < 0 {
		return fmt.Errorf("minimum profit must be finite and non-negative, got %v", s.MinimumProfit)
	}
	return nil
}

// Sanitize returns s if valid, otherwise the defaults. Used when loading
// persisted settings that may be malformed: valuation must keep working.
func (s Settings) Sanitize() Settings {
	if err := s.Validate(); err != nil {
		return DefaultSettings()
	}
	return s
}

// Summary is a human-readable recap of the assumptions behind a verdict.
// Identical settings always produce an identical string.
func (s Settings) Summary() string {
	return fmt.Sprintf("Using: %s · Fees %g%% · Shipping $%.2f · Min ROI %gx",
		s.PrimaryMarketplace, s.FeePercent, s.AvgShippingCost, s.TargetRoi)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
