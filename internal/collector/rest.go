package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"RegimeSentinel/internal/model"
)

// RESTFetcher implements Fetcher against a generic bars REST API:
//
//	GET {base}/api/v1/bars?symbol=BTC/USDT&timeframe=1h&limit=300
//	GET {base}/api/v1/quote?symbol=BTC/USDT
type RESTFetcher struct {
	BaseURL    string
	APIKey     string
	Client     *http.Client
	MaxRetries uint64
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &RESTFetcher{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		MaxRetries: 3,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape of one bar. Timestamp is Unix seconds.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (f *RESTFetcher) FetchBars(ctx context.Context, symbol, timeframe string, limit int) ([]model.Bar, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("timeframe", timeframe)
	q.Set("limit", fmt.Sprint(limit))

	var raw []restBar
	if err := f.getJSON(ctx, "/api/v1/bars?"+q.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	bars := make([]model.Bar, len(raw))
	for i, rb := range raw {
		bars[i] = model.Bar{
			Time:   time.Unix(rb.Timestamp, 0).UTC(),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		}
	}
	return normalize(bars, limit), nil
}

func (f *RESTFetcher) FetchCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	var result struct {
		Price float64 `json:"price"`
	}
	if err := f.getJSON(ctx, "/api/v1/quote?symbol="+url.QueryEscape(symbol), &result); err != nil {
		return 0, fmt.Errorf("fetch current price: %w", err)
	}
	return result.Price, nil
}

// getJSON retries transport errors, 5xx and 429 responses with exponential backoff.
func (f *RESTFetcher) getJSON(ctx context.Context, path string, out any) error {
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+path, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if f.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+f.APIKey)
		}
		resp, err := f.Client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body)))
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode: %w", err))
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxElapsedTime = time.Minute
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, f.MaxRetries), ctx))
}
