package model

import "time"

// Bar represents a single OHLCV candlestick.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// BarSeries holds raw bar data for one symbol and timeframe.
type BarSeries struct {
	Symbol    string
	Timeframe string
	Bars      []Bar
	FetchedAt time.Time
}

// Last returns the most recent bar, or false for an empty series.
func (s *BarSeries) Last() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}
