package strategy

import (
	"RegimeSentinel/internal/config"
	"RegimeSentinel/internal/model"
)

// Classify maps the latest snapshot to a regime. Checks run in a fixed order and
// the first match wins; NEUTRAL is the fallback.
func Classify(snap model.IndicatorSnapshot, cfg config.RegimeConfig) model.Regime {
	adx, bbw, bbwMA := snap.ADX, snap.BBW, snap.BBWMA
	switch {
	case adx > cfg.TrendThreshold && bbw > cfg.HighVolThreshold:
		return model.RegimeStrongTrend
	case adx > cfg.WeakTrendThreshold && bbw > bbwMA:
		return model.RegimeTrend
	case adx < cfg.RangeThreshold && bbw < bbwMA:
		return model.RegimeRange
	case bbw < cfg.SqueezeThreshold:
		return model.RegimeSqueeze
	default:
		return model.RegimeNeutral
	}
}
