package calculator

import "math"

// BollingerResult holds band series and the band width in percent of the middle band.
type BollingerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
	Width  []float64
}

// BollingerSeries computes bands from a rolling SMA and population standard deviation.
func BollingerSeries(closes []float64, period int, numStd float64) BollingerResult {
	n := len(closes)
	res := BollingerResult{
		Upper:  make([]float64, n),
		Middle: SMASeries(closes, period),
		Lower:  make([]float64, n),
		Width:  make([]float64, n),
	}
	if period <= 0 {
		return res
	}
	for i := 0; i < n; i++ {
		start := i - period + 1
		if start < 0 {
			start = 0
		}
		mid := res.Middle[i]
		variance := 0.0
		for j := start; j <= i; j++ {
			d := closes[j] - mid
			variance += d * d
		}
		std := math.Sqrt(variance / float64(i-start+1))
		res.Upper[i] = mid + numStd*std
		res.Lower[i] = mid - numStd*std
		if mid != 0 {
			res.Width[i] = (res.Upper[i] - res.Lower[i]) / mid * 100
		}
	}
	return res
}

// BandPosition returns where price sits between lower (0.0) and upper (1.0).
// A zero-width band returns 0.5; positions outside the band are clamped.
func BandPosition(price, upper, lower float64) float64 {
	if upper <= lower {
		return 0.5
	}
	pos := (price - lower) / (upper - lower)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos
}
