package strategy

import (
	"fmt"
	"math"

	"RegimeSentinel/internal/model"
)

// tally accumulates point contributions for one direction.
type tally struct {
	points  float64
	reasons []string
}

func (t *tally) add(points float64, format string, args ...any) {
	t.points += points
	t.reasons = append(t.reasons, fmt.Sprintf(format, args...))
}

// decision is what a generator returns before sentiment, filtering and planning.
type decision struct {
	action   model.Action
	strength int
	reasons  []string
}

func hold(reasons ...string) decision {
	return decision{action: model.ActionHold, reasons: reasons}
}

// clampStrength rounds down and bounds a raw score to [0,100].
func clampStrength(raw float64) int {
	if math.IsNaN(raw) || raw <= 0 {
		return 0
	}
	if raw >= 100 {
		return 100
	}
	return int(raw)
}

// resolve evaluates the buy branch first and only falls through to sell when buy
// did not clear the threshold. Neither clearing yields HOLD carrying both branches' evidence.
func resolve(buy, sell func() tally, threshold float64) decision {
	b := buy()
	if b.points >= threshold {
		return decision{action: model.ActionBuy, strength: clampStrength(b.points), reasons: b.reasons}
	}
	s := sell()
	if s.points >= threshold {
		return decision{action: model.ActionSell, strength: clampStrength(s.points), reasons: s.reasons}
	}
	reasons := append(append([]string{}, b.reasons...), s.reasons...)
	reasons = append(reasons, fmt.Sprintf("no direction cleared threshold %.0f (buy %.0f, sell %.0f)",
		threshold, b.points, s.points))
	return decision{
		action:   model.ActionHold,
		strength: clampStrength(math.Max(b.points, s.points)),
		reasons:  reasons,
	}
}

func crossedAbove(prevA, prevB, a, b float64) bool { return prevA <= prevB && a > b }
func crossedBelow(prevA, prevB, a, b float64) bool { return prevA >= prevB && a < b }
