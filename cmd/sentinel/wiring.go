package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"RegimeSentinel/internal/collector"
	"RegimeSentinel/internal/config"
	"RegimeSentinel/internal/metrics"
	"RegimeSentinel/internal/recorder"
	"RegimeSentinel/internal/sentiment"
)

func newFetcher(c *config.Config) collector.Fetcher {
	ds := c.DataSource
	var f collector.Fetcher
	switch ds.Provider {
	case "rest":
		f = collector.NewRESTFetcher(ds.BaseURL, ds.APIKey, c.Proxy)
	case "yahoo":
		f = collector.NewYahooFetcher(c.Proxy)
	case "mock":
		f = &collector.MockFetcher{Price: 100}
	default:
		f = collector.NewCSVFetcher(ds.Dir)
	}
	log.Info().Str("provider", f.Name()).Msg("data source ready")
	return f
}

// newRecorder falls back to a no-op recorder when SQLite cannot be opened.
func newRecorder(c *config.Config) recorder.Recorder {
	if c.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	r, err := recorder.NewSQLiteRecorder(c.Database.SQLitePath)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return r
}

// newSentiment returns nil when no sentiment endpoint is configured.
func newSentiment(ctx context.Context, c *config.Config, m *metrics.Recorder) (*sentiment.CachedSource, func()) {
	s := c.Sentiment
	if s.BaseURL == "" || c.Strategy.Sentiment.Disabled {
		return nil, func() {}
	}
	var cache sentiment.Cache = sentiment.NewMemoryCache()
	closer := func() {}
	if s.RedisAddr != "" {
		rc, err := sentiment.NewRedisCache(ctx, s.RedisAddr, s.RedisDB)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-process sentiment cache")
		} else {
			cache = rc
			closer = func() { rc.Close() }
		}
	}
	src := sentiment.NewCachedSource(sentiment.NewHTTPFetcher(s.BaseURL, c.Proxy, s.Timeout, s.MaxRetries), cache, s.TTL, m)
	src.Timeout = s.Timeout
	return src, func() {
		src.Wait()
		closer()
	}
}

func newMetrics() (*metrics.Recorder, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return metrics.New(reg), reg
}

// serveMetrics exposes /metrics until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// plain strips the HTML markup used for Telegram.
func plain(s string) string {
	return strings.NewReplacer("<b>", "", "</b>", "", "&lt;", "<", "&gt;", ">", "&amp;", "&", "&#34;", "\"", "&#39;", "'").Replace(s)
}
