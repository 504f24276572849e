package valuation

import (
	"fmt"
	"math"

	"github.com/velli/flipscout/internal/comps"
)

// Verdict is the buy/pass recommendation for a sourcing decision.
type Verdict string

const (
	VerdictBuy   Verdict = "BUY"
	VerdictMaybe Verdict = "MAYBE"
	VerdictPass  Verdict = "PASS"
)

// Confidence is a qualitative strength indicator of the comp evidence.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Result is the output of a valuation: the verdict plus everything needed to
// explain it. Immutable once produced; saved items store a snapshot copy, so
// later settings changes never alter recorded verdicts.
type Result struct {
	Verdict            Verdict      `json:"verdict"`
	ExpectedResaleMin  float64      `json:"expectedResaleMin"`
	ExpectedResaleMax  float64      `json:"expectedResaleMax"`
	NetProfit          float64      `json:"netProfit"`
	Roi                float64      `json:"roi"`
	Confidence         Confidence   `json:"confidence"`
	TimeToSell         string       `json:"timeToSell"`
	Comps              []comps.Comp `json:"comps"`
	AssumptionsSummary string       `json:"assumptionsSummary"`
}

// Compute produces a valuation for buying an item at purchasePrice, given the
// user's settings and comparable sold listings. Pure function of its inputs:
// the same price, settings and comp set always yield the same result.
//
// The resale range derives from the comp price distribution. A floor of
// purchase + fees + shipping (plus a small margin) keeps even pessimistic
// ranges from implying a guaranteed loss.
func Compute(purchasePrice float64, s Settings, cs []comps.Comp) (Result, error) {
	if !isFinite(purchasePrice) || purchasePrice <= 0 {
		return Result{}, fmt.Errorf("purchase price must be finite and positive, got %v", purchasePrice)
	}
	if err := s.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid settings: %w", err)
	}

	rawMin, rawMax := resaleRange(cs)

	minFloor := purchasePrice*(1+s.FeePercent/100) + s.AvgShippingCost

	expectedResaleMin := math.Max(rawMin, minFloor*1.05) // small margin on top
	expectedResaleMax := math.Max(rawMax, expectedResaleMin*1.1)

	// Round to human-friendly prices
	expectedResaleMin = roundToHalfDollar(expectedResaleMin)
	expectedResaleMax = roundToHalfDollar(expectedResaleMax)

	avgResale := (expectedResaleMin + expectedResaleMax) / 2
	fees := avgResale * (s.FeePercent / 100)
	netProfit := avgResale - purchasePrice - fees - s.AvgShippingCost
	roi := avgResale / purchasePrice

	return Result{
		Verdict:            decideVerdict(roi, netProfit, s),
		ExpectedResaleMin:  expectedResaleMin,
		ExpectedResaleMax:  expectedResaleMax,
		NetProfit:          roundToCents(netProfit),
		Roi:                roundToCents(roi),
		Confidence:         deriveConfidence(cs),
		TimeToSell:         deriveTimeToSell(cs),
		Comps:              cs,
		AssumptionsSummary: s.Summary(),
	}, nil
}

// resaleRange estimates a raw resale range from the comp sale prices:
// similarity-weighted mean plus/minus the population standard deviation.
// With no comps both bounds are zero, which leaves the floor in charge.
func resaleRange(cs []comps.Comp) (rawMin, rawMax float64) {
	if len(cs) == 0 {
		return 0, 0
	}

	var weightedSum, weightTotal float64
	for _, c := range cs {
		w := similarityWeight(c.Similarity)
		weightedSum += c.SoldPrice * w
		weightTotal += w
	}
	mean := weightedSum / weightTotal

	var variance float64
	for _, c := range cs {
		d := c.SoldPrice - mean
		variance += d * d
	}
	spread := math.Sqrt(variance / float64(len(cs)))
	if spread == 0 {
		// Single price point: assume a modest spread around it
		spread = mean * 0.1
	}

	return mean - spread, mean + spread
}

func similarityWeight(s comps.Similarity) float64 {
	switch s {
	case comps.VerySimilar:
		return 3
	case comps.Similar:
		return 2
	default:
		return 1
	}
}

// decideVerdict applies the threshold policy. Ordered, first match wins,
// thresholds inclusive. The MAYBE band relaxes the ROI threshold to 80% and
// the profit threshold to 70%.
func decideVerdict(roi, netProfit float64, s Settings) Verdict {
	switch {
	case roi >= s.TargetRoi && netProfit >= s.MinimumProfit:
		return VerdictBuy
	case roi >= s.TargetRoi*0.8 && netProfit >= s.MinimumProfit*0.7:
		return VerdictMaybe
	default:
		return VerdictPass
	}
}

// evidenceScore sums similarity weights over the comp set. Used for both
// confidence and time-to-sell: more and closer comps means stronger evidence
// and a faster-moving item.
func evidenceScore(cs []comps.Comp) float64 {
	var score float64
	for _, c := range cs {
		score += similarityWeight(c.Similarity)
	}
	return score
}

func deriveConfidence(cs []comps.Comp) Confidence {
	if len(cs) == 0 {
		return ConfidenceLow
	}

	var verySimilar int
	for _, c := range cs {
		if c.Similarity == comps.VerySimilar {
			verySimilar++
		}
	}

	switch {
	case len(cs) >= 4 && verySimilar >= 2:
		return ConfidenceHigh
	case evidenceScore(cs) >= 5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func deriveTimeToSell(cs []comps.Comp) string {
	score := evidenceScore(cs)
	switch {
	case score >= 10:
		return "7-14 days"
	case score >= 7:
		return "15-30 days"
	case score >= 4:
		return "30-60 days"
	case score >= 2:
		return "60-90 days"
	default:
		return "90+ days"
	}
}

// roundToHalfDollar rounds to the nearest $0.50 for nicer numbers.
func roundToHalfDollar(v float64) float64 {
	return math.Round(v*2) / 2
}

func roundToCents(v float64) float64 {
	return math.Round(v*100) / 100
}
