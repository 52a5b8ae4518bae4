package calculator

// MACDResult holds the three MACD series.
type MACDResult struct {
	MACD   []float64
	Signal []float64
	Hist   []float64
}

// MACDSeries computes MACD = EMA(fast) - EMA(slow), its signal EMA and histogram.
func MACDSeries(closes []float64, fast, slow, signal int) MACDResult {
	fastEMA := EMASeries(closes, fast)
	slowEMA := EMASeries(closes, slow)
	macd := make([]float64, len(closes))
	for i := range closes {
		macd[i] = fastEMA[i] - slowEMA[i]
	}
	sig := EMASeries(macd, signal)
	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = macd[i] - sig[i]
	}
	return MACDResult{MACD: macd, Signal: sig, Hist: hist}
}
