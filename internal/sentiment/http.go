package sentiment

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

// Fetcher reads fresh sentiment for one symbol.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) (model.SentimentData, error)
}

// HTTPFetcher reads funding rate and open interest change from a JSON endpoint:
// GET {base}/api/v1/sentiment?symbol=BTC/USDT -> {"funding_rate":0.0001,"oi_change_pct":3.2}
type HTTPFetcher struct {
	BaseURL    string
	Client     *http.Client
	MaxRetries uint64
}

// NewHTTPFetcher creates a fetcher with optional proxy support.
func NewHTTPFetcher(baseURL, proxyURL string, timeout time.Duration, maxRetries uint64) *HTTPFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &HTTPFetcher{
		BaseURL:    baseURL,
		MaxRetries: maxRetries,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, symbol string) (model.SentimentData, error) {
	endpoint := fmt.Sprintf("%s/api/v1/sentiment?symbol=%s", f.BaseURL, url.QueryEscape(symbol))

	var data model.SentimentData
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := f.Client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch sentiment: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("fetch sentiment: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("fetch sentiment: status %d, body: %s", resp.StatusCode, string(body)))
		}
		var decoded model.SentimentData
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return backoff.Permanent(fmt.Errorf("decode sentiment: %w", err))
		}
		data = decoded
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, f.MaxRetries), ctx)); err != nil {
		return model.SentimentData{}, err
	}
	data.FetchedAt = time.Now()
	return data, nil
}
