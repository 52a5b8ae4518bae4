package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes pipeline and backtest metrics to Prometheus.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	signals           *prometheus.CounterVec
	sentimentFallback *prometheus.CounterVec
	lastPrice         *prometheus.GaugeVec
	backtestTrades    *prometheus.CounterVec
	backtestReturn    *prometheus.GaugeVec
	latency           *prometheus.HistogramVec
}

// New creates a Recorder registered on reg. Pass prometheus.DefaultRegisterer to serve
// through promhttp.Handler.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		signals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regime_sentinel_signals_total",
				Help: "Signals emitted by the strategy pipeline",
			},
			[]string{"symbol", "action", "regime"},
		),
		sentimentFallback: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regime_sentinel_sentiment_fallback_total",
				Help: "Sentiment reads that degraded to no adjustment",
			},
			[]string{"symbol", "reason"},
		),
		lastPrice: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "regime_sentinel_last_price",
				Help: "Last displayed price for a symbol",
			},
			[]string{"symbol"},
		),
		backtestTrades: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regime_sentinel_backtest_trades_total",
				Help: "Trades executed by backtest runs",
			},
			[]string{"symbol", "type"},
		),
		backtestReturn: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "regime_sentinel_backtest_return_pct",
				Help: "Total return percent of the latest backtest run",
			},
			[]string{"symbol"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "regime_sentinel_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSignal counts one emitted signal.
func (r *Recorder) RecordSignal(symbol, action, regime string) {
	if r == nil {
		return
	}
	r.signals.WithLabelValues(symbol, action, regime).Inc()
}

// RecordSentimentFallback counts a sentiment read that produced no data.
func (r *Recorder) RecordSentimentFallback(symbol, reason string) {
	if r == nil {
		return
	}
	r.sentimentFallback.WithLabelValues(symbol, reason).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	if r == nil {
		return
	}
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordTrade counts one backtest trade.
func (r *Recorder) RecordTrade(symbol, tradeType string) {
	if r == nil {
		return
	}
	r.backtestTrades.WithLabelValues(symbol, tradeType).Inc()
}

// RecordBacktestReturn records the total return of a finished run.
func (r *Recorder) RecordBacktestReturn(symbol string, pct float64) {
	if r == nil {
		return
	}
	r.backtestReturn.WithLabelValues(symbol).Set(pct)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	if r == nil {
		return
	}
	r.latency.WithLabelValues(op).Observe(seconds)
}
