package strategy

import (
	"math"

	"RegimeSentinel/internal/config"
	"RegimeSentinel/internal/model"
)

// PlanPercentages picks the stop/target pair for a regime. Non-zero symbol
// overrides take precedence over the regime table.
func PlanPercentages(regime model.Regime, plans config.PlanConfig, sc *config.SymbolConfig) (stopPct, targetPct float64) {
	if regime.IsTrending() {
		stopPct, targetPct = plans.TrendStopLossPct, plans.TrendTakeProfitPct
	} else {
		stopPct, targetPct = plans.RangeStopLossPct, plans.RangeTakeProfitPct
	}
	if sc != nil {
		if sc.StopLossPct > 0 {
			stopPct = sc.StopLossPct
		}
		if sc.TakeProfitPct > 0 {
			targetPct = sc.TakeProfitPct
		}
	}
	return stopPct, targetPct
}

// BuildPlan derives entry, stop and target from the final action. HOLD gets an empty plan.
// SELL is planned as a short.
func BuildPlan(price float64, action model.Action, regime model.Regime, plans config.PlanConfig, sc *config.SymbolConfig) model.TradingPlan {
	if action != model.ActionBuy && action != model.ActionSell {
		return model.TradingPlan{}
	}
	stopPct, targetPct := PlanPercentages(regime, plans, sc)

	var stop, target float64
	if action == model.ActionBuy {
		stop = price * (1 - stopPct)
		target = price * (1 + targetPct)
	} else {
		stop = price * (1 + stopPct)
		target = price * (1 - targetPct)
	}
	rr := RiskReward(price, stop, target)

	return model.TradingPlan{
		EntryPrice:      &price,
		StopLossPrice:   &stop,
		TakeProfitPrice: &target,
		StopLossPct:     &stopPct,
		TakeProfitPct:   &targetPct,
		RiskRewardRatio: &rr,
	}
}

// RiskReward returns |target - entry| / |entry - stop|, or 0 when there is no risk.
func RiskReward(entry, stop, target float64) float64 {
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return 0
	}
	return math.Abs(target-entry) / risk
}
