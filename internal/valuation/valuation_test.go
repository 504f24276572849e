package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velli/flipscout/internal/comps"
)

func testSettings() Settings {
	return Settings{
		PrimaryMarketplace: MarketplaceEbay,
		FeePercent:         15,
		AvgShippingCost:    5.5,
		TargetRoi:          2.5,
		MinimumProfit:      10,
	}
}

// Two very similar comps at $45 and $55 give a weighted mean of $50 and a
// population std deviation of $5, i.e. a $45-$55 range.
func rangeComps() []comps.Comp {
	return []comps.Comp{
		{ID: "c1", SoldPrice: 45, Similarity: comps.VerySimilar},
		{ID: "c2", SoldPrice: 55, Similarity: comps.VerySimilar},
	}
}

func TestComputeBuyScenario(t *testing.T) {
	got, err := Compute(20, testSettings(), rangeComps())
	require.NoError(t, err)

	assert.Equal(t, 45.0, got.ExpectedResaleMin)
	assert.Equal(t, 55.0, got.ExpectedResaleMax)
	// avg $50, fees $7.50, shipping $5.50 -> net $17.00, roi 2.5
	assert.Equal(t, 17.0, got.NetProfit)
	assert.Equal(t, 2.5, got.Roi)
	assert.Equal(t, VerdictBuy, got.Verdict)
}

func TestComputePassScenario(t *testing.T) {
	got, err := Compute(30, testSettings(), rangeComps())
	require.NoError(t, err)

	assert.Equal(t, 45.0, got.ExpectedResaleMin)
	assert.Equal(t, 55.0, got.ExpectedResaleMax)
	assert.Equal(t, 7.0, got.NetProfit)
	assert.Equal(t, 1.67, got.Roi)
	assert.Equal(t, VerdictPass, got.Verdict)
}

func TestComputeEmptyCompsFloorAnchored(t *testing.T) {
	got, err := Compute(20, testSettings(), nil)
	require.NoError(t, err)

	// floor = 20*1.15 + 5.50 = 28.50; min = 28.50*1.05 = 29.925 -> 30.00
	// max = 29.925*1.10 = 32.9175 -> 33.00
	assert.Equal(t, 30.0, got.ExpectedResaleMin)
	assert.Equal(t, 33.0, got.ExpectedResaleMax)
	assert.Equal(t, ConfidenceLow, got.Confidence)
	assert.Equal(t, "90+ days", got.TimeToSell)
}

func TestComputeInvalidInputs(t *testing.T) {
	s := testSettings()

	_, err := Compute(0, s, nil)
	assert.Error(t, err)
	_, err = Compute(-5, s, nil)
	assert.Error(t, err)

	bad := s
	bad.TargetRoi = 0
	_, err = Compute(20, bad, nil)
	assert.Error(t, err)
}

func TestComputeDeterministic(t *testing.T) {
	first, err := Compute(24.99, testSettings(), rangeComps())
	require.NoError(t, err)
	second, err := Compute(24.99, testSettings(), rangeComps())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// The range may never imply a guaranteed loss: the top of the range stays at
// or above purchase + fees + shipping.
func TestComputeRangeInvariants(t *testing.T) {
	prices := []float64{1, 4.2, 10, 25, 99.99, 400}
	compSets := [][]comps.Comp{
		nil,
		rangeComps(),
		{{ID: "c1", SoldPrice: 8, Similarity: comps.LooseMatch}},
		{
			{ID: "c1", SoldPrice: 20, Similarity: comps.VerySimilar},
			{ID: "c2", SoldPrice: 30, Similarity: comps.Similar},
			{ID: "c3", SoldPrice: 22, Similarity: comps.LooseMatch},
			{ID: "c4", SoldPrice: 28, Similarity: comps.VerySimilar},
		},
	}

	s := testSettings()
	for _, price := range prices {
		for _, cs := range compSets {
			got, err := Compute(price, s, cs)
			require.NoError(t, err)

			floor := price*(1+s.FeePercent/100) + s.AvgShippingCost
			assert.LessOrEqual(t, got.ExpectedResaleMin, got.ExpectedResaleMax,
				"min <= max for price %v", price)
			assert.GreaterOrEqual(t, got.ExpectedResaleMax, floor,
				"max >= floor for price %v", price)
		}
	}
}

func TestDecideVerdictBoundaries(t *testing.T) {
	s := testSettings()

	tests := map[string]struct {
		roi       float64
		netProfit float64
		want      Verdict
	}{
		"exactly at target thresholds":  {roi: 2.5, netProfit: 10, want: VerdictBuy},
		"above both thresholds":         {roi: 3.0, netProfit: 25, want: VerdictBuy},
		"exactly at maybe band":         {roi: 2.0, netProfit: 7, want: VerdictMaybe},
		"roi ok but profit below maybe": {roi: 2.5, netProfit: 6.99, want: VerdictPass},
		"profit ok but roi below maybe": {roi: 1.99, netProfit: 50, want: VerdictPass},
		"buy roi with maybe profit":     {roi: 2.5, netProfit: 9, want: VerdictMaybe},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, decideVerdict(tc.roi, tc.netProfit, s))
		})
	}
}

func TestDeriveConfidence(t *testing.T) {
	vs := comps.Comp{Similarity: comps.VerySimilar}
	si := comps.Comp{Similarity: comps.Similar}
	lo := comps.Comp{Similarity: comps.LooseMatch}

	tests := map[string]struct {
		comps []comps.Comp
		want  Confidence
	}{
		"no comps":               {nil, ConfidenceLow},
		"single loose match":     {[]comps.Comp{lo}, ConfidenceLow},
		"two very similar":       {[]comps.Comp{vs, vs}, ConfidenceMedium},
		"four with very similar": {[]comps.Comp{vs, vs, si, lo}, ConfidenceHigh},
		"four loose matches":     {[]comps.Comp{lo, lo, lo, lo}, ConfidenceLow},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, deriveConfidence(tc.comps))
		})
	}
}

func TestDeriveTimeToSell(t *testing.T) {
	vs := comps.Comp{Similarity: comps.VerySimilar}
	lo := comps.Comp{Similarity: comps.LooseMatch}

	assert.Equal(t, "7-14 days", deriveTimeToSell([]comps.Comp{vs, vs, vs, vs}))
	assert.Equal(t, "30-60 days", deriveTimeToSell([]comps.Comp{vs, lo}))
	assert.Equal(t, "90+ days", deriveTimeToSell(nil))
}

func TestSummaryIdempotent(t *testing.T) {
	s := testSettings()
	assert.Equal(t, "Using: eBay · Fees 15% · Shipping $5.50 · Min ROI 2.5x", s.Summary())
	assert.Equal(t, s.Summary(), s.Summary())
}
