package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotResult() Result {
	return Result{
		Verdict:           VerdictBuy,
		ExpectedResaleMin: 45,
		ExpectedResaleMax: 55,
	}
}

func TestComparePerformance(t *testing.T) {
	tests := map[string]struct {
		soldPrice  float64
		wantClass  string
		wantProfit float64
		wantRoi    float64
	}{
		"above range":           {soldPrice: 60, wantClass: AboveRange, wantProfit: 40, wantRoi: 3},
		"below range":           {soldPrice: 40, wantClass: BelowRange, wantProfit: 20, wantRoi: 2},
		"within range":          {soldPrice: 50, wantClass: WithinRange, wantProfit: 30, wantRoi: 2.5},
		"at min edge inclusive": {soldPrice: 45, wantClass: WithinRange, wantProfit: 25, wantRoi: 2.25},
		"at max edge inclusive": {soldPrice: 55, wantClass: WithinRange, wantProfit: 35, wantRoi: 2.75},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ComparePerformance(20, tc.soldPrice, snapshotResult())
			require.NoError(t, err)
			assert.Equal(t, tc.wantClass, got.Classification)
			assert.Equal(t, tc.wantProfit, got.RealizedProfit)
			assert.Equal(t, tc.wantRoi, got.RealizedRoi)
		})
	}
}

func TestComparePerformanceInvalidInputs(t *testing.T) {
	_, err := ComparePerformance(0, 50, snapshotResult())
	assert.Error(t, err)
	_, err = ComparePerformance(20, 0, snapshotResult())
	assert.Error(t, err)
	_, err = ComparePerformance(20, -1, snapshotResult())
	assert.Error(t, err)
}
