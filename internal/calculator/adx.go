package calculator

import (
	"math"

	"RegimeSentinel/internal/model"
)

// ADXResult holds the directional movement series.
type ADXResult struct {
	ADX     []float64
	PlusDI  []float64
	MinusDI []float64
}

// TrueRangeSeries returns the true range of every bar. The first bar uses high - low.
func TrueRangeSeries(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		if i == 0 {
			out[i] = b.High - b.Low
			continue
		}
		prevClose := bars[i-1].Close
		out[i] = math.Max(b.High-b.Low, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
	}
	return out
}

// ATRSeries returns the Wilder-smoothed average true range.
func ATRSeries(bars []model.Bar, period int) []float64 {
	return wilderSeries(TrueRangeSeries(bars), period)
}

// ADXSeries computes Wilder's ADX with +DI and -DI.
// Bars without any range give zero directional values instead of NaN.
func ADXSeries(bars []model.Bar, period int) ADXResult {
	n := len(bars)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := bars[i].High - bars[i-1].High
		down := bars[i-1].Low - bars[i].Low
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	tr := wilderSeries(TrueRangeSeries(bars), period)
	sPlus := wilderSeries(plusDM, period)
	sMinus := wilderSeries(minusDM, period)

	res := ADXResult{
		PlusDI:  make([]float64, n),
		MinusDI: make([]float64, n),
	}
	dx := make([]float64, n)
	for i := 0; i < n; i++ {
		if tr[i] > 0 {
			res.PlusDI[i] = 100 * sPlus[i] / tr[i]
			res.MinusDI[i] = 100 * sMinus[i] / tr[i]
		}
		if sum := res.PlusDI[i] + res.MinusDI[i]; sum > 0 {
			dx[i] = 100 * math.Abs(res.PlusDI[i]-res.MinusDI[i]) / sum
		}
	}
	res.ADX = wilderSeries(dx, period)
	return res
}
