package calculator

import "RegimeSentinel/internal/model"

// KDJResult holds the stochastic K, D and J lines.
type KDJResult struct {
	K []float64
	D []float64
	J []float64
}

// KDJSeries computes a slow stochastic with EMA smoothing and J = 3K - 2D.
func KDJSeries(bars []model.Bar, period, smoothK, smoothD int) KDJResult {
	n := len(bars)
	rsv := make([]float64, n)
	for i := range bars {
		start := i - period + 1
		if start < 0 {
			start = 0
		}
		hh, ll := bars[start].High, bars[start].Low
		for j := start + 1; j <= i; j++ {
			if bars[j].High > hh {
				hh = bars[j].High
			}
			if bars[j].Low < ll {
				ll = bars[j].Low
			}
		}
		if hh > ll {
			rsv[i] = (bars[i].Close - ll) / (hh - ll) * 100
		} else {
			rsv[i] = 50
		}
	}
	k := EMASeries(rsv, smoothK)
	d := EMASeries(k, smoothD)
	j := make([]float64, n)
	for i := range j {
		j[i] = 3*k[i] - 2*d[i]
	}
	return KDJResult{K: k, D: d, J: j}
}
