package strategy

import (
	"fmt"
	"strings"

	"RegimeSentinel/internal/config"
	"RegimeSentinel/internal/model"
)

// HasDivergence reports whether any reason carries the divergence marker.
func HasDivergence(reasons []string) bool {
	for _, r := range reasons {
		if strings.HasPrefix(r, DivergenceMarker) {
			return true
		}
	}
	return false
}

// ApplySymbolFilter downgrades a weak actionable signal to HOLD using the symbol's floors.
// Reasons are only ever appended; strength is left as scored.
func ApplySymbolFilter(sig *model.Signal, sc config.SymbolConfig) {
	if !sig.IsActionable() {
		return
	}
	strength := float64(sig.Strength)
	switch {
	case sc.FilterDivergenceEnabled && HasDivergence(sig.Reasons) && strength < sc.MinSignalWithDivergence:
		sig.Reasons = append(sig.Reasons, fmt.Sprintf("divergence risk too high: %s strength %d below %.0f",
			sig.Action, sig.Strength, sc.MinSignalWithDivergence))
		sig.Action = model.ActionHold
	case strength < sc.MinSignalStrength:
		sig.Reasons = append(sig.Reasons, fmt.Sprintf("signal strength insufficient: %s strength %d below %.0f",
			sig.Action, sig.Strength, sc.MinSignalStrength))
		sig.Action = model.ActionHold
	}
}
