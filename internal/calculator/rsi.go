package calculator

import "RegimeSentinel/internal/model"

// CalculateRSI computes the Wilder-smoothed RSI of the latest bar.
// Returns 50.0 if data is insufficient.
func CalculateRSI(bars []model.Bar, period int) (float64, error) {
	if period <= 0 {
		return 0, ErrInvalidPeriod
	}
	if len(bars) < period+1 {
		return 50.0, nil // default when data insufficient
	}
	series := RSISeries(extractCloses(bars), period)
	return series[len(series)-1], nil
}

// RSISeries computes Wilder RSI for every index. The first period changes are
// averaged simply, later ones use Wilder smoothing.
func RSISeries(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	if len(closes) == 0 || period <= 0 {
		return out
	}
	out[0] = 50
	var avgGain, avgLoss, sumGain, sumLoss float64
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		if i <= period {
			sumGain += gain
			sumLoss += loss
			avgGain = sumGain / float64(i)
			avgLoss = sumLoss / float64(i)
		} else {
			avgGain = (avgGain*float64(period-1) + gain) / float64(period)
			avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		}
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgGain == 0 && avgLoss == 0 {
		return 50.0 // no movement at all
	}
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
