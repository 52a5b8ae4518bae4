package strategy

import (
	"fmt"
	"math"

	"RegimeSentinel/internal/calculator"
	"RegimeSentinel/internal/config"
	"RegimeSentinel/internal/model"
)

// DivergenceMarker prefixes every divergence penalty reason. The symbol filter looks for it.
const DivergenceMarker = "volume divergence"

// divergencePenalty reports whether the latest close sets a new extreme over the
// lookback window in the given direction while OBV fails to confirm it.
func divergencePenalty(history []model.IndicatorSnapshot, dir model.Action, cfg config.DivergenceConfig) (float64, string, bool) {
	n := len(history) - 1
	if n < 1 {
		return 0, "", false
	}
	start := n - cfg.Lookback
	if start < 0 {
		start = 0
	}
	window := history[start:n]
	closes := make([]float64, len(window))
	obvs := make([]float64, len(window))
	for i, s := range window {
		closes[i] = s.Close
		obvs[i] = s.OBV
	}
	highClose, lowClose, err := calculator.WindowRange(closes)
	if err != nil {
		return 0, "", false
	}
	highOBV, lowOBV, _ := calculator.WindowRange(obvs)
	cur := history[n]

	var gapPct float64
	var extreme string
	switch dir {
	case model.ActionBuy:
		if cur.Close <= highClose || cur.OBV >= highOBV {
			return 0, "", false
		}
		gapPct = relativeGap(highOBV-cur.OBV, highOBV)
		extreme = "high"
	case model.ActionSell:
		if cur.Close >= lowClose || cur.OBV <= lowOBV {
			return 0, "", false
		}
		gapPct = relativeGap(cur.OBV-lowOBV, lowOBV)
		extreme = "low"
	default:
		return 0, "", false
	}

	penalty, grade := penaltyFor(gapPct, cfg)
	reason := fmt.Sprintf("%s: price at %d-bar %s not confirmed by OBV (gap %.1f%%, %s, -%.0f)",
		DivergenceMarker, len(window), extreme, gapPct, grade, penalty)
	return penalty, reason, true
}

func relativeGap(diff, ref float64) float64 {
	if ref == 0 {
		return 0
	}
	return diff / math.Abs(ref) * 100
}

func penaltyFor(gapPct float64, cfg config.DivergenceConfig) (float64, string) {
	if cfg.Mode != config.DivergenceGraded {
		return cfg.FixedPenalty, "fixed"
	}
	switch {
	case gapPct > cfg.SevereGapPct:
		return cfg.SeverePenalty, "severe"
	case gapPct > cfg.ModerateGapPct:
		return cfg.ModeratePenalty, "moderate"
	case gapPct > cfg.MildGapPct:
		return cfg.MildPenalty, "mild"
	default:
		return cfg.WeakPenalty, "weak"
	}
}
