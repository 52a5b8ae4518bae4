package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"RegimeSentinel/internal/model"
)

var csvColumns = []string{"timestamp", "open", "high", "low", "close", "volume"}

// CSVFetcher reads historical bars from files under Dir. For symbol BTC/USDT
// and timeframe 1h it tries BTC_USDT_1h.csv, then BTC_USDT.csv.
type CSVFetcher struct {
	Dir string
}

func NewCSVFetcher(dir string) *CSVFetcher { return &CSVFetcher{Dir: dir} }

func (f *CSVFetcher) Name() string { return "csv" }

func (f *CSVFetcher) FetchBars(_ context.Context, symbol, timeframe string, limit int) ([]model.Bar, error) {
	path, err := f.locate(symbol, timeframe)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	bars, err := ReadBarsCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return normalize(bars, limit), nil
}

// FetchCurrentPrice returns the close of the newest bar on file.
func (f *CSVFetcher) FetchCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	bars, err := f.FetchBars(ctx, symbol, "", 1)
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("csv: no bars for %s", symbol)
	}
	return bars[0].Close, nil
}

func (f *CSVFetcher) locate(symbol, timeframe string) (string, error) {
	base := fileSymbol(symbol)
	var candidates []string
	if timeframe != "" {
		candidates = append(candidates, filepath.Join(f.Dir, base+"_"+timeframe+".csv"))
	}
	candidates = append(candidates, filepath.Join(f.Dir, base+".csv"))
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("csv: no data file for %s in %s", symbol, f.Dir)
}

// ReadBarsCSV parses bars from CSV with a header naming at least the columns
// timestamp, open, high, low, close and volume, in any order.
// Timestamps may be Unix seconds, Unix milliseconds, RFC 3339 or "2006-01-02 15:04:05".
func ReadBarsCSV(r io.Reader) ([]model.Bar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cols := make([]int, len(csvColumns))
	for i, name := range csvColumns {
		pos, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		cols[i] = pos
	}

	var bars []model.Bar
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ts, err := parseTimestamp(rec[cols[0]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		var vals [5]float64
		for i := range vals {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[cols[i+1]]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, csvColumns[i+1], err)
			}
			vals[i] = v
		}
		bars = append(bars, model.Bar{
			Time: ts, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: vals[4],
		})
	}
	return bars, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
