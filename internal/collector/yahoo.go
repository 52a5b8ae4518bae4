package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"RegimeSentinel/internal/model"
)

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
// Pairs quoted in USDT are read from the matching USD ticker.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		BaseURL: "https://query1.finance.yahoo.com",
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		SymbolMap: map[string]string{},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	base, quote, ok := strings.Cut(symbol, "/")
	if !ok {
		return symbol
	}
	if quote == "USDT" || quote == "USDC" {
		quote = "USD"
	}
	return base + "-" + quote
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func valueAt(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

// yahooInterval maps a timeframe to a native chart interval. Timeframes Yahoo
// does not serve natively are built by resampling the returned interval.
func yahooInterval(timeframe string) (interval string, resampleTo time.Duration, err error) {
	switch timeframe {
	case "1m", "5m", "15m", "30m", "1d":
		return timeframe, 0, nil
	case "1h":
		return "60m", 0, nil
	case "1w":
		return "1wk", 0, nil
	}
	d, err := ParseTimeframe(timeframe)
	if err != nil {
		return "", 0, err
	}
	if d%time.Hour == 0 && d < 24*time.Hour {
		return "60m", d, nil
	}
	return "", 0, fmt.Errorf("yahoo: unsupported timeframe %q", timeframe)
}

// yahooRange picks the smallest chart range covering span.
func yahooRange(span time.Duration) string {
	day := 24 * time.Hour
	switch {
	case span <= 5*day:
		return "5d"
	case span <= 30*day:
		return "1mo"
	case span <= 90*day:
		return "3mo"
	case span <= 180*day:
		return "6mo"
	case span <= 365*day:
		return "1y"
	default:
		return "2y"
	}
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol, interval, rng string) ([]model.Bar, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no data returned")
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		c := valueAt(quote.Close, i)
		if c == 0 {
			continue // null bar
		}
		bars = append(bars, model.Bar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   valueAt(quote.Open, i),
			High:   valueAt(quote.High, i),
			Low:    valueAt(quote.Low, i),
			Close:  c,
			Volume: valueAt(quote.Volume, i),
		})
	}
	return normalize(bars, 0), nil
}

func (f *YahooFetcher) FetchBars(ctx context.Context, symbol, timeframe string, limit int) ([]model.Bar, error) {
	interval, width, err := yahooInterval(timeframe)
	if err != nil {
		return nil, err
	}
	d, err := ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}
	bars, err := f.fetchChart(ctx, symbol, interval, yahooRange(d*time.Duration(limit)))
	if err != nil {
		return nil, err
	}
	if width > 0 {
		bars = resample(bars, width)
	}
	return normalize(bars, limit), nil
}

func (f *YahooFetcher) FetchCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	bars, err := f.fetchChart(ctx, symbol, "1m", "1d")
	if err != nil {
		return 0, err
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("yahoo: no price data")
	}
	return bars[len(bars)-1].Close, nil
}
