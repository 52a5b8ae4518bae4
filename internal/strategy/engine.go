package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"RegimeSentinel/internal/calculator"
	"RegimeSentinel/internal/config"
	"RegimeSentinel/internal/metrics"
	"RegimeSentinel/internal/model"
)

// SentimentSource supplies optional funding and open interest data.
// Implementations absorb their own failures and return empty data instead.
type SentimentSource interface {
	Sentiment(ctx context.Context, symbol string) model.SentimentData
}

type generator func(e *Engine, symbol string, history []model.IndicatorSnapshot) decision

// strategyTable maps every regime to its signal generator.
var strategyTable = map[model.Regime]generator{
	model.RegimeStrongTrend: trendFollowing,
	model.RegimeTrend:       trendFollowing,
	model.RegimeRange:       meanReversion,
	model.RegimeSqueeze:     awaitBreakout,
	model.RegimeNeutral:     stayFlat,
}

// Engine runs the full signal pipeline: classify, generate, adjust, filter, plan.
// It holds no per-call state, so identical input yields an identical Signal.
type Engine struct {
	cfg       config.StrategyConfig
	sentiment SentimentSource
	metrics   *metrics.Recorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithSentiment enables the sentiment adjustment layer.
func WithSentiment(src SentimentSource) Option {
	return func(e *Engine) { e.sentiment = src }
}

// WithMetrics records every emitted signal.
func WithMetrics(m *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an Engine for one strategy configuration.
func NewEngine(cfg config.StrategyConfig, opts ...Option) *Engine {
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the strategy configuration the engine was built with.
func (e *Engine) Config() config.StrategyConfig { return e.cfg }

// MinBars returns the number of bars needed before the first signal:
// the warm-up window plus one bar of crossover context.
func (e *Engine) MinBars() int { return e.cfg.Indicators.Warmup + 1 }

// EvaluateBars builds snapshots from raw bars and evaluates the latest one.
// Too few bars yields a HOLD signal rather than an error.
func (e *Engine) EvaluateBars(ctx context.Context, symbol string, bars []model.Bar) (model.Signal, error) {
	if len(bars) < e.MinBars() {
		return insufficientHistory(symbol, bars, len(bars), e.MinBars()), nil
	}
	snaps, err := calculator.BuildSnapshots(bars, e.cfg.Indicators.Params())
	if err != nil {
		if errors.Is(err, calculator.ErrInsufficientData) {
			return insufficientHistory(symbol, bars, len(bars), e.MinBars()), nil
		}
		return model.Signal{}, fmt.Errorf("build snapshots: %w", err)
	}
	return e.Evaluate(ctx, symbol, snaps), nil
}

// Evaluate runs the pipeline on the last snapshot of history. The previous
// snapshots provide crossover and divergence context.
func (e *Engine) Evaluate(ctx context.Context, symbol string, history []model.IndicatorSnapshot) model.Signal {
	start := time.Now()
	if len(history) < 2 {
		sig := model.Signal{
			Symbol:  symbol,
			Action:  model.ActionHold,
			Regime:  model.RegimeNeutral,
			Reasons: []string{fmt.Sprintf("insufficient history: have %d snapshots, need 2", len(history))},
		}
		if len(history) == 1 {
			sig.Market = history[0]
		}
		return sig
	}

	cur := history[len(history)-1]
	regime := Classify(cur, e.cfg.Regime)
	d := strategyTable[regime](e, symbol, history)

	sig := model.Signal{
		Symbol:   symbol,
		Action:   d.action,
		Strength: d.strength,
		Reasons:  d.reasons,
		Regime:   regime,
		Market:   cur,
	}

	if sig.IsActionable() && e.sentiment != nil && !e.cfg.Sentiment.Disabled {
		adj, reasons := sentimentAdjustment(sig.Action, e.sentiment.Sentiment(ctx, symbol), e.cfg.Sentiment.MaxAdjustment)
		sig.Strength = clampStrength(float64(sig.Strength + adj))
		sig.Reasons = append(sig.Reasons, reasons...)
	}

	var symCfg *config.SymbolConfig
	if sc, ok := e.cfg.Symbol(symbol); ok {
		symCfg = &sc
		ApplySymbolFilter(&sig, sc)
	}

	sig.Plan = BuildPlan(cur.Close, sig.Action, regime, e.cfg.Plans, symCfg)

	e.metrics.RecordSignal(symbol, string(sig.Action), string(regime))
	e.metrics.RecordLatency("evaluate", time.Since(start).Seconds())
	return sig
}

func insufficientHistory(symbol string, bars []model.Bar, have, need int) model.Signal {
	sig := model.Signal{
		Symbol:  symbol,
		Action:  model.ActionHold,
		Regime:  model.RegimeNeutral,
		Reasons: []string{fmt.Sprintf("insufficient history: have %d bars, need %d", have, need)},
	}
	if len(bars) > 0 {
		last := bars[len(bars)-1]
		sig.Market = model.IndicatorSnapshot{
			Time: last.Time, Open: last.Open, High: last.High, Low: last.Low, Close: last.Close, Volume: last.Volume,
		}
	}
	return sig
}
