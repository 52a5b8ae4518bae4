package strategy

import (
	"fmt"

	"RegimeSentinel/internal/model"
)

// Open interest trend labels.
const (
	OIStrongIncrease = "STRONG_INCREASE"
	OIIncrease       = "INCREASE"
	OIStable         = "STABLE"
	OIDecrease       = "DECREASE"
	OIStrongDecrease = "STRONG_DECREASE"
)

// FundingAdjustment maps a funding rate to a BUY strength adjustment.
// Crowded longs (high positive funding) penalise buying; negative funding favours it.
func FundingAdjustment(rate float64) int {
	switch {
	case rate > 0.015:
		return -15
	case rate > 0.01:
		return -10
	case rate > 0.005:
		return -5
	case rate >= -0.005:
		return 0
	case rate >= -0.01:
		return 5
	case rate >= -0.015:
		return 10
	default:
		return 15
	}
}

// OpenInterestTrend buckets an open interest change percent.
func OpenInterestTrend(changePct float64) string {
	switch {
	case changePct > 15:
		return OIStrongIncrease
	case changePct > 5:
		return OIIncrease
	case changePct < -15:
		return OIStrongDecrease
	case changePct < -5:
		return OIDecrease
	default:
		return OIStable
	}
}

// OpenInterestAdjustment rewards fresh capital behind a move and penalises an unwind.
func OpenInterestAdjustment(changePct float64) int {
	switch OpenInterestTrend(changePct) {
	case OIStrongIncrease:
		return 10
	case OIIncrease:
		return 5
	case OIStrongDecrease:
		return -10
	case OIDecrease:
		return -5
	default:
		return 0
	}
}

// sentimentAdjustment returns the clamped total adjustment for an actionable signal.
// HOLD and missing data both yield zero.
func sentimentAdjustment(action model.Action, data model.SentimentData, maxAdj float64) (int, []string) {
	if action != model.ActionBuy && action != model.ActionSell {
		return 0, nil
	}
	var total int
	var reasons []string
	if data.FundingRate != nil {
		adj := FundingAdjustment(*data.FundingRate)
		if action == model.ActionSell {
			adj = -adj
		}
		if adj != 0 {
			total += adj
			reasons = append(reasons, fmt.Sprintf("funding rate %.4f%% (%+d)", *data.FundingRate*100, adj))
		}
	}
	if data.OIChangePct != nil {
		if adj := OpenInterestAdjustment(*data.OIChangePct); adj != 0 {
			total += adj
			reasons = append(reasons, fmt.Sprintf("open interest %s %+.1f%% (%+d)",
				OpenInterestTrend(*data.OIChangePct), *data.OIChangePct, adj))
		}
	}
	limit := int(maxAdj)
	if total > limit {
		total = limit
	}
	if total < -limit {
		total = -limit
	}
	return total, reasons
}
