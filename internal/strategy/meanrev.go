package strategy

import (
	"RegimeSentinel/internal/calculator"
	"RegimeSentinel/internal/model"
)

// meanReversion scores oscillator extremity and band position for the RANGE regime.
func meanReversion(e *Engine, _ string, history []model.IndicatorSnapshot) decision {
	cur := history[len(history)-1]
	prev := history[len(history)-2]
	cfg := e.cfg.MeanReversion
	pos := calculator.BandPosition(cur.Close, cur.BBUpper, cur.BBLower)

	buy := func() tally {
		var t tally
		if cur.RSI < cfg.RSIOversold {
			t.add((cfg.RSIOversold-cur.RSI)*cfg.RSIMultiplier, "RSI %.1f below oversold %.0f", cur.RSI, cfg.RSIOversold)
		}
		if pos < cfg.BandZone {
			t.add((cfg.BandZone-pos)/cfg.BandZone*cfg.BandWeight, "price at %.0f%% of Bollinger band", pos*100)
		}
		if !cfg.DisableKDJ {
			if crossedAbove(prev.K, prev.D, cur.K, cur.D) {
				t.add(cfg.KDJCrossBonus, "KDJ golden cross")
			}
			if cur.K < cfg.KDJOversold {
				t.add(cfg.KDJZoneBonus, "KDJ K %.1f in oversold zone", cur.K)
			}
		}
		return t
	}

	sell := func() tally {
		var t tally
		if cur.RSI > cfg.RSIOverbought {
			t.add((cur.RSI-cfg.RSIOverbought)*cfg.RSIMultiplier, "RSI %.1f above overbought %.0f", cur.RSI, cfg.RSIOverbought)
		}
		if mirror := 1 - pos; mirror < cfg.BandZone {
			t.add((cfg.BandZone-mirror)/cfg.BandZone*cfg.BandWeight, "price at %.0f%% of Bollinger band", pos*100)
		}
		if !cfg.DisableKDJ {
			if crossedBelow(prev.K, prev.D, cur.K, cur.D) {
				t.add(cfg.KDJCrossBonus, "KDJ death cross")
			}
			if cur.K > cfg.KDJOverbought {
				t.add(cfg.KDJZoneBonus, "KDJ K %.1f in overbought zone", cur.K)
			}
		}
		return t
	}

	return resolve(buy, sell, cfg.Threshold)
}

func awaitBreakout(_ *Engine, _ string, _ []model.IndicatorSnapshot) decision {
	return hold("volatility squeeze, awaiting breakout")
}

func stayFlat(_ *Engine, _ string, _ []model.IndicatorSnapshot) decision {
	return hold("no clear market regime")
}
