// Package monitor evaluates the signal pipeline once per closed bar on a cron schedule.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"RegimeSentinel/internal/metrics"
	"RegimeSentinel/internal/model"
	"RegimeSentinel/internal/notifier"
	"RegimeSentinel/internal/recorder"
)

// BarSource supplies closed bars and the live price.
type BarSource interface {
	Collect(ctx context.Context, symbol string) (model.BarSeries, error)
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// SignalEngine evaluates the newest bar of a series.
type SignalEngine interface {
	EvaluateBars(ctx context.Context, symbol string, bars []model.Bar) (model.Signal, error)
}

// SentimentWarmer fills the sentiment cache before a bar is evaluated.
// It must return early when the cache is already fresh.
type SentimentWarmer interface {
	Warm(ctx context.Context, symbol string) error
}

const defaultSentimentWait = 3 * time.Second

// Monitor manages the cron task and per-symbol state.
type Monitor struct {
	Symbols   []string
	Bars      BarSource
	Engine    SignalEngine
	Sentiment SentimentWarmer // optional
	Store     *Store
	Notifier  notifier.Notifier
	Recorder  recorder.Recorder
	Metrics   *metrics.Recorder // optional

	// SentimentWait caps how long a tick waits on sentiment per symbol.
	SentimentWait time.Duration

	cron *cron.Cron
	mu   sync.Mutex
}

// New creates a Monitor. Sentiment and Metrics may be set on the returned value.
func New(symbols []string, bars BarSource, engine SignalEngine, store *Store, n notifier.Notifier, rec recorder.Recorder) *Monitor {
	return &Monitor{
		Symbols:       symbols,
		Bars:          bars,
		Engine:        engine,
		Store:         store,
		Notifier:      n,
		Recorder:      rec,
		SentimentWait: defaultSentimentWait,
		cron:          cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}
}

// Run registers the tick on the cron schedule spec and blocks until ctx is cancelled.
// One tick runs immediately so a restart does not wait for the first schedule.
func (m *Monitor) Run(ctx context.Context, spec string) error {
	if _, err := m.cron.AddFunc(spec, func() { m.Tick(ctx) }); err != nil {
		return fmt.Errorf("register monitor task: %w", err)
	}
	m.Tick(ctx)
	m.cron.Start()
	log.Info().Str("cron", spec).Strs("symbols", m.Symbols).Msg("monitor started")

	<-ctx.Done()
	<-m.cron.Stop().Done()
	log.Info().Msg("monitor stopped")
	return nil
}

// Tick checks every symbol once.
func (m *Monitor) Tick(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, symbol := range m.Symbols {
		if ctx.Err() != nil {
			return
		}
		if err := m.checkSymbol(ctx, symbol); err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("monitor check failed")
		}
	}
}

// checkSymbol evaluates the newest closed bar if it has not been processed yet.
// Otherwise only the displayed price is refreshed.
func (m *Monitor) checkSymbol(ctx context.Context, symbol string) error {
	series, err := m.Bars.Collect(ctx, symbol)
	if err != nil {
		return err
	}
	last, ok := series.Last()
	if !ok {
		return fmt.Errorf("no closed bars")
	}

	prev, seen := m.Store.Get(symbol)
	if seen && !last.Time.After(prev.LastBarTime) {
		price, err := m.Bars.CurrentPrice(ctx, symbol)
		if err != nil {
			return err
		}
		m.Metrics.RecordLastPrice(symbol, price)
		return m.Store.UpdatePrice(symbol, price)
	}

	if m.Sentiment != nil {
		m.warmSentiment(ctx, symbol)
	}

	sig, err := m.Engine.EvaluateBars(ctx, symbol, series.Bars)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	m.Metrics.RecordLastPrice(symbol, last.Close)
	log.Info().
		Str("symbol", symbol).
		Time("bar", last.Time).
		Str("action", string(sig.Action)).
		Int("strength", sig.Strength).
		Str("regime", string(sig.Regime)).
		Msg("closed bar evaluated")

	if err := m.Recorder.RecordSignal(&recorder.SignalEvent{Signal: sig, Source: "monitor", At: time.Now()}); err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("record signal")
	}

	changed := (seen && sig.Action != prev.LastAction) || (!seen && sig.IsActionable())
	if changed {
		if err := m.Notifier.Notify(ctx, notifier.FormatSignal(sig)); err != nil {
			log.Error().Err(err).Str("symbol", symbol).Msg("send notification")
		}
	}

	return m.Store.Put(symbol, model.SymbolState{
		LastBarTime:  last.Time,
		LastAction:   sig.Action,
		LastStrength: sig.Strength,
		LastPrice:    last.Close,
	})
}

// warmSentiment never fails the tick: a slow or failing upstream means the
// bar is scored without adjustment.
func (m *Monitor) warmSentiment(ctx context.Context, symbol string) {
	wait := m.SentimentWait
	if wait <= 0 {
		wait = defaultSentimentWait
	}
	wctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := m.Sentiment.Warm(wctx, symbol); err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("sentiment unavailable, continuing without it")
	}
}

const usage = "Commands:\n• /signal &lt;SYMBOL&gt; latest closed-bar signal\n• /status monitor state"

// HandleCommand processes a user command and returns a reply.
// /signal evaluates on demand and does not touch the stored state.
func (m *Monitor) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return usage
	}
	switch strings.ToLower(fields[0]) {
	case "/status":
		return notifier.FormatStatus(m.Store.Snapshot())
	case "/signal":
		symbol := ""
		if len(fields) > 1 {
			symbol = m.resolveSymbol(fields[1])
		} else if len(m.Symbols) > 0 {
			symbol = m.Symbols[0]
		}
		if symbol == "" {
			if len(fields) < 2 {
				return usage
			}
			return fmt.Sprintf("Unknown symbol %q", fields[1])
		}
		series, err := m.Bars.Collect(ctx, symbol)
		if err != nil {
			return fmt.Sprintf("❌ %s: %v", symbol, err)
		}
		sig, err := m.Engine.EvaluateBars(ctx, symbol, series.Bars)
		if err != nil {
			return fmt.Sprintf("❌ %s: %v", symbol, err)
		}
		return notifier.FormatSignal(sig)
	default:
		return usage
	}
}

// resolveSymbol matches "btc", "BTC/USDT" or "BTCUSDT" against the configured symbols.
func (m *Monitor) resolveSymbol(arg string) string {
	want := strings.ToUpper(strings.ReplaceAll(arg, "/", ""))
	for _, s := range m.Symbols {
		plain := strings.ToUpper(strings.ReplaceAll(s, "/", ""))
		base, _, _ := strings.Cut(strings.ToUpper(s), "/")
		if want == plain || want == base {
			return s
		}
	}
	return ""
}
