package strategy

import (
	"math"

	"RegimeSentinel/internal/model"
)

// trendFollowing scores crossover, continuation and volume-flow evidence for
// STRONG_TREND and TREND regimes.
func trendFollowing(e *Engine, symbol string, history []model.IndicatorSnapshot) decision {
	cur := history[len(history)-1]
	prev := history[len(history)-2]
	cfg := e.cfg.Trend
	w := cfg.Weights
	ind := e.cfg.Indicators

	adxThreshold := cfg.ADXThreshold
	if sc, ok := e.cfg.Symbol(symbol); ok && sc.ADXThreshold > 0 {
		adxThreshold = sc.ADXThreshold
	}
	spread := 0.0
	if cur.EMASlow != 0 {
		spread = math.Abs(cur.EMAFast-cur.EMASlow) / cur.EMASlow * 100
	}
	volumeSurge := cur.VolumeMA > 0 && cur.Volume > cur.VolumeMA*cfg.VolumeMultiplier

	adxPoints := func(t *tally, dominant bool) {
		if !dominant || cur.ADX <= adxThreshold {
			return
		}
		t.add(w.ADXTrending, "ADX %.1f above %.0f", cur.ADX, adxThreshold)
		if cur.ADX > adxThreshold+cfg.StrongADXMargin {
			t.add(w.ADXStrong, "ADX %.1f shows a strong trend", cur.ADX)
		}
	}

	buy := func() tally {
		var t tally
		if crossedAbove(prev.EMAFast, prev.EMASlow, cur.EMAFast, cur.EMASlow) {
			t.add(w.EMACross, "EMA%d crossed above EMA%d", ind.EMAFast, ind.EMASlow)
		}
		if crossedAbove(prev.MACD, prev.MACDSignal, cur.MACD, cur.MACDSignal) {
			t.add(w.MACDCross, "MACD crossed above signal line")
		}
		if cur.Close > cur.EMASlow && cur.EMAFast > cur.EMASlow {
			t.add(w.InTrend, "price above EMA%d in an uptrend", ind.EMASlow)
			if spread > cfg.SpreadPct {
				t.add(w.StrongSpread, "EMA spread %.2f%% widening", spread)
			}
		}
		adxPoints(&t, cur.PlusDI > cur.MinusDI)
		if volumeSurge && cur.Close > prev.Close {
			t.add(w.VolumeConfirm, "volume %.1fx average on an up bar", cur.Volume/cur.VolumeMA)
		}
		if cur.OBV > cur.OBVMA {
			t.add(w.OBVFlow, "OBV above its average")
		}
		if penalty, reason, ok := divergencePenalty(history, model.ActionBuy, e.cfg.Divergence); ok {
			t.add(-penalty, "%s", reason)
		}
		return t
	}

	sell := func() tally {
		var t tally
		if crossedBelow(prev.EMAFast, prev.EMASlow, cur.EMAFast, cur.EMASlow) {
			t.add(w.EMACross, "EMA%d crossed below EMA%d", ind.EMAFast, ind.EMASlow)
		}
		if crossedBelow(prev.MACD, prev.MACDSignal, cur.MACD, cur.MACDSignal) {
			t.add(w.MACDCross, "MACD crossed below signal line")
		}
		if cur.Close < cur.EMASlow && cur.EMAFast < cur.EMASlow {
			t.add(w.InTrend, "price below EMA%d in a downtrend", ind.EMASlow)
			if spread > cfg.SpreadPct {
				t.add(w.StrongSpread, "EMA spread %.2f%% widening", spread)
			}
		}
		adxPoints(&t, cur.MinusDI > cur.PlusDI)
		if volumeSurge && cur.Close < prev.Close {
			t.add(w.VolumeConfirm, "volume %.1fx average on a down bar", cur.Volume/cur.VolumeMA)
		}
		if cur.OBV < cur.OBVMA {
			t.add(w.OBVFlow, "OBV below its average")
		}
		if penalty, reason, ok := divergencePenalty(history, model.ActionSell, e.cfg.Divergence); ok {
			t.add(-penalty, "%s", reason)
		}
		return t
	}

	return resolve(buy, sell, cfg.Threshold)
}
