package calculator

import "RegimeSentinel/internal/model"

// OBVSeries computes on-balance volume starting from the first bar's volume.
func OBVSeries(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		if i == 0 {
			out[i] = b.Volume
			continue
		}
		switch prev := bars[i-1].Close; {
		case b.Close > prev:
			out[i] = out[i-1] + b.Volume
		case b.Close < prev:
			out[i] = out[i-1] - b.Volume
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// WindowRange returns the highest and lowest value of a window.
func WindowRange(values []float64) (high, low float64, err error) {
	if len(values) == 0 {
		return 0, 0, ErrInsufficientData
	}
	high, low = values[0], values[0]
	for _, v := range values[1:] {
		if v > high {
			high = v
		}
		if v < low {
			low = v
		}
	}
	return high, low, nil
}
