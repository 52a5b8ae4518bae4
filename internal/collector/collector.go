package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"RegimeSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  map[string][]model.Bar // per symbol; generated when absent
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, symbol, timeframe string, limit int) ([]model.Bar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if bars, ok := m.Bars[symbol]; ok {
		out := append([]model.Bar(nil), bars...)
		return normalize(out, limit), nil
	}
	step, err := ParseTimeframe(timeframe)
	if err != nil {
		step = time.Hour
	}
	return generateMockBars(m.Price, limit, step, time.Now()), nil
}

func (m *MockFetcher) FetchCurrentPrice(_ context.Context, symbol string) (float64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	if bars := m.Bars[symbol]; len(bars) > 0 && m.Price == 0 {
		return bars[len(bars)-1].Close, nil
	}
	return m.Price, nil
}

func generateMockBars(basePrice float64, count int, step time.Duration, end time.Time) []model.Bar {
	end = end.Truncate(step)
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.Bar{
			Time:   end.Add(-time.Duration(count-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector fetches closed bars for the configured timeframe.
type Collector struct {
	Fetcher   Fetcher
	Timeframe string
	Limit     int
	now       func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, timeframe string, limit int) *Collector {
	return &Collector{Fetcher: fetcher, Timeframe: timeframe, Limit: limit, now: time.Now}
}

// Collect returns the latest closed bars of symbol. A trailing bar whose
// period has not ended yet is dropped, so callers only ever see final bars.
func (c *Collector) Collect(ctx context.Context, symbol string) (model.BarSeries, error) {
	step, err := ParseTimeframe(c.Timeframe)
	if err != nil {
		return model.BarSeries{}, err
	}
	bars, err := c.Fetcher.FetchBars(ctx, symbol, c.Timeframe, c.Limit+1)
	if err != nil {
		return model.BarSeries{}, fmt.Errorf("fetch bars: %w", err)
	}

	now := c.now()
	if n := len(bars); n > 0 && bars[n-1].Time.Add(step).After(now) {
		log.Debug().Str("symbol", symbol).Time("bar", bars[n-1].Time).Msg("dropping unfinished bar")
		bars = bars[:n-1]
	}
	if c.Limit > 0 && len(bars) > c.Limit {
		bars = bars[len(bars)-c.Limit:]
	}
	return model.BarSeries{
		Symbol:    symbol,
		Timeframe: c.Timeframe,
		Bars:      bars,
		FetchedAt: now,
	}, nil
}

// CurrentPrice is the live price used for display between closed bars.
func (c *Collector) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	price, err := c.Fetcher.FetchCurrentPrice(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("fetch current price: %w", err)
	}
	return price, nil
}
