package calculator

import (
	"fmt"

	"RegimeSentinel/internal/model"
)

// Params holds the indicator periods used by the snapshot builder.
type Params struct {
	EMAFast    int
	EMASlow    int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	RSI        int
	ADX        int
	ATR        int
	BBPeriod   int
	BBStdDev   float64
	BBWMA      int
	OBVMA      int
	VolumeMA   int
	KDJ        int
	KDJSmoothK int
	KDJSmoothD int
	Warmup     int
}

// DefaultParams returns the standard periods with a 200-bar warm-up.
func DefaultParams() Params {
	return Params{
		EMAFast: 50, EMASlow: 200,
		MACDFast: 12, MACDSlow: 26, MACDSignal: 9,
		RSI: 14, ADX: 14, ATR: 14,
		BBPeriod: 20, BBStdDev: 2, BBWMA: 20,
		OBVMA: 20, VolumeMA: 20,
		KDJ: 9, KDJSmoothK: 3, KDJSmoothD: 3,
		Warmup: 200,
	}
}

func (p Params) validate() error {
	periods := map[string]int{
		"ema_fast": p.EMAFast, "ema_slow": p.EMASlow,
		"macd_fast": p.MACDFast, "macd_slow": p.MACDSlow, "macd_signal": p.MACDSignal,
		"rsi": p.RSI, "adx": p.ADX, "atr": p.ATR,
		"bb_period": p.BBPeriod, "bbw_ma": p.BBWMA,
		"obv_ma": p.OBVMA, "volume_ma": p.VolumeMA,
		"kdj": p.KDJ, "kdj_smooth_k": p.KDJSmoothK, "kdj_smooth_d": p.KDJSmoothD,
		"warmup": p.Warmup,
	}
	for name, v := range periods {
		if v <= 0 {
			return fmt.Errorf("%s: %w", name, ErrInvalidPeriod)
		}
	}
	return nil
}

// BuildSnapshots computes one snapshot per bar from bar index Warmup-1 onwards.
// Every series is causal, so the snapshot of bar i depends only on bars[:i+1].
func BuildSnapshots(bars []model.Bar, p Params) ([]model.IndicatorSnapshot, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if len(bars) < p.Warmup {
		return nil, fmt.Errorf("%w: have %d bars, need %d", ErrInsufficientData, len(bars), p.Warmup)
	}

	closes := extractCloses(bars)
	volumes := extractVolumes(bars)

	emaFast := EMASeries(closes, p.EMAFast)
	emaSlow := EMASeries(closes, p.EMASlow)
	macd := MACDSeries(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	rsi := RSISeries(closes, p.RSI)
	adx := ADXSeries(bars, p.ADX)
	atr := ATRSeries(bars, p.ATR)
	bb := BollingerSeries(closes, p.BBPeriod, p.BBStdDev)
	bbwMA := SMASeries(bb.Width, p.BBWMA)
	obv := OBVSeries(bars)
	obvMA := SMASeries(obv, p.OBVMA)
	volMA := SMASeries(volumes, p.VolumeMA)
	kdj := KDJSeries(bars, p.KDJ, p.KDJSmoothK, p.KDJSmoothD)

	start := p.Warmup - 1
	snaps := make([]model.IndicatorSnapshot, 0, len(bars)-start)
	for i := start; i < len(bars); i++ {
		b := bars[i]
		snaps = append(snaps, model.IndicatorSnapshot{
			Time: b.Time, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume,

			EMAFast: emaFast[i], EMASlow: emaSlow[i],

			MACD: macd.MACD[i], MACDSignal: macd.Signal[i], MACDHist: macd.Hist[i],

			RSI: rsi[i], ADX: adx.ADX[i], PlusDI: adx.PlusDI[i], MinusDI: adx.MinusDI[i],

			BBUpper: bb.Upper[i], BBMiddle: bb.Middle[i], BBLower: bb.Lower[i],
			BBW: bb.Width[i], BBWMA: bbwMA[i],

			ATR: atr[i], OBV: obv[i], OBVMA: obvMA[i], VolumeMA: volMA[i],

			K: kdj.K[i], D: kdj.D[i], J: kdj.J[i],
		})
	}
	return snaps, nil
}
