package model

import "time"

// IndicatorSnapshot holds every indicator value computed for one bar.
type IndicatorSnapshot struct {
	Time   time.Time `json:"timestamp"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"price"`
	Volume float64   `json:"volume"`

	EMAFast float64 `json:"ema_fast"`
	EMASlow float64 `json:"ema_slow"`

	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	MACDHist   float64 `json:"macd_hist"`

	RSI     float64 `json:"rsi"`
	ADX     float64 `json:"adx"`
	PlusDI  float64 `json:"plus_di"`
	MinusDI float64 `json:"minus_di"`

	BBUpper  float64 `json:"bb_upper"`
	BBMiddle float64 `json:"bb_middle"`
	BBLower  float64 `json:"bb_lower"`
	BBW      float64 `json:"bbw"` // percent of middle band
	BBWMA    float64 `json:"bbw_ma"`

	ATR      float64 `json:"atr"`
	OBV      float64 `json:"obv"`
	OBVMA    float64 `json:"obv_ma"`
	VolumeMA float64 `json:"volume_ma"`

	K float64 `json:"kdj_k"`
	D float64 `json:"kdj_d"`
	J float64 `json:"kdj_j"`
}
