package collector

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"RegimeSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol, timeframe string, limit int) ([]model.Bar, error)
	FetchCurrentPrice(ctx context.Context, symbol string) (float64, error)
	Name() string
}

// ParseTimeframe converts a timeframe such as "15m", "1h", "4h", "1d" or "1w" to a duration.
func ParseTimeframe(tf string) (time.Duration, error) {
	if len(tf) < 2 {
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	n, err := strconv.Atoi(tf[:len(tf)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	var unit time.Duration
	switch tf[len(tf)-1] {
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	case 'd':
		unit = 24 * time.Hour
	case 'w':
		unit = 7 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	return time.Duration(n) * unit, nil
}

// normalize sorts bars chronologically, keeps the last copy of duplicate
// timestamps and trims the result to the newest limit bars.
func normalize(bars []model.Bar, limit int) []model.Bar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// resample merges consecutive bars into buckets of the given width.
// Bucket times come from time.Truncate.
func resample(bars []model.Bar, width time.Duration) []model.Bar {
	if len(bars) == 0 {
		return nil
	}
	var out []model.Bar
	var cur model.Bar
	var curKey time.Time
	for i, b := range bars {
		key := b.Time.Truncate(width)
		if i == 0 || !key.Equal(curKey) {
			if i > 0 {
				out = append(out, cur)
			}
			cur = model.Bar{Time: key, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
			curKey = key
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	return append(out, cur)
}

// fileSymbol turns "BTC/USDT" into "BTC_USDT" for file names.
func fileSymbol(symbol string) string {
	return strings.NewReplacer("/", "_", ":", "_", " ", "").Replace(symbol)
}
