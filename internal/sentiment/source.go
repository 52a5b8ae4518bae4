package sentiment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"RegimeSentinel/internal/metrics"
	"RegimeSentinel/internal/model"
)

// CachedSource serves sentiment from a TTL cache and never blocks the signal
// pipeline on the upstream. A miss returns empty data and refreshes in the background.
type CachedSource struct {
	Fetcher Fetcher
	Cache   Cache
	TTL     time.Duration
	Timeout time.Duration
	Metrics *metrics.Recorder

	mu       sync.Mutex
	inflight map[string]bool
	wg       sync.WaitGroup
}

// NewCachedSource creates a CachedSource.
func NewCachedSource(fetcher Fetcher, cache Cache, ttl time.Duration, m *metrics.Recorder) *CachedSource {
	return &CachedSource{
		Fetcher:  fetcher,
		Cache:    cache,
		TTL:      ttl,
		Timeout:  15 * time.Second,
		Metrics:  m,
		inflight: make(map[string]bool),
	}
}

// Sentiment returns cached data or empty data. Errors are logged and counted, never returned.
func (s *CachedSource) Sentiment(ctx context.Context, symbol string) model.SentimentData {
	data, err := s.Cache.Get(ctx, symbol)
	if err == nil {
		return data
	}
	if errors.Is(err, ErrCacheMiss) {
		s.Metrics.RecordSentimentFallback(symbol, "miss")
	} else {
		log.Warn().Err(err).Msgf("sentiment cache read failed for %s, no adjustment", symbol)
		s.Metrics.RecordSentimentFallback(symbol, "cache_error")
	}
	s.refreshAsync(ctx, symbol)
	return model.SentimentData{}
}

// Refresh fetches fresh data synchronously and stores it in the cache.
func (s *CachedSource) Refresh(ctx context.Context, symbol string) error {
	data, err := s.Fetcher.Fetch(ctx, symbol)
	if err != nil {
		s.Metrics.RecordSentimentFallback(symbol, "upstream_error")
		return err
	}
	return s.Cache.Set(ctx, symbol, data, s.TTL)
}

// Warm fetches only when the cache holds nothing fresh for symbol. The upstream
// call is bounded by Timeout.
func (s *CachedSource) Warm(ctx context.Context, symbol string) error {
	if _, err := s.Cache.Get(ctx, symbol); err == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	return s.Refresh(ctx, symbol)
}

// Wait blocks until background refreshes have finished.
func (s *CachedSource) Wait() { s.wg.Wait() }

func (s *CachedSource) refreshAsync(ctx context.Context, symbol string) {
	s.mu.Lock()
	if s.inflight[symbol] {
		s.mu.Unlock()
		return
	}
	s.inflight[symbol] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inflight, symbol)
			s.mu.Unlock()
		}()
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.Timeout)
		defer cancel()
		if err := s.Refresh(refreshCtx, symbol); err != nil {
			log.Warn().Err(err).Msgf("sentiment refresh failed for %s", symbol)
		}
	}()
}
