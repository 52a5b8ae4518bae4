// Package backtest replays historical bars through the signal engine
// against a long-only simulated account.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"RegimeSentinel/internal/calculator"
	"RegimeSentinel/internal/config"
	"RegimeSentinel/internal/metrics"
	"RegimeSentinel/internal/model"
)

// ErrInsufficientHistory is returned when the series cannot cover the warm-up window.
var ErrInsufficientHistory = errors.New("insufficient history for backtest")

// SignalSource evaluates the latest snapshot of a history window.
type SignalSource interface {
	Evaluate(ctx context.Context, symbol string, history []model.IndicatorSnapshot) model.Signal
}

// Result is the outcome of one run.
type Result struct {
	RunID       string
	Symbol      string
	Start       time.Time
	End         time.Time
	Trades      []model.Trade
	Equity      []model.EquityPoint
	Performance Performance
}

// Runner drives one symbol's bars through a SignalSource.
type Runner struct {
	Source  SignalSource
	Params  calculator.Params
	Account config.BacktestConfig
	Sink    TradeSink         // optional, receives trades as they happen
	Metrics *metrics.Recorder // optional
}

// NewRunner builds a Runner using the indicator parameters of cfg.
func NewRunner(src SignalSource, cfg config.StrategyConfig, account config.BacktestConfig) *Runner {
	return &Runner{Source: src, Params: cfg.Indicators.Params(), Account: account}
}

// Run replays bars from index Warmup to the end. Signals for bar k see
// only snapshots up to k. Any open position is liquidated on the last bar.
func (r *Runner) Run(ctx context.Context, symbol string, bars []model.Bar) (*Result, error) {
	need := r.Params.Warmup + 1
	if len(bars) < need {
		return nil, fmt.Errorf("%w: %s has %d bars, need at least %d", ErrInsufficientHistory, symbol, len(bars), need)
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return nil, fmt.Errorf("%s: bar %d at %s is not after %s", symbol, i, bars[i].Time, bars[i-1].Time)
		}
	}

	snaps, err := calculator.BuildSnapshots(bars, r.Params)
	if err != nil {
		return nil, fmt.Errorf("%s: build snapshots: %w", symbol, err)
	}

	started := time.Now()
	acct := NewAccount(r.Account, r.Sink)
	last := len(snaps) - 1
	for k := 1; k <= last; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap := snaps[k]
		sig := r.Source.Evaluate(ctx, symbol, snaps[:k+1])

		before := len(acct.Trades())
		if err := acct.Process(snap.Time, snap.Close, sig); err != nil {
			return nil, fmt.Errorf("%s: bar %s: %w", symbol, snap.Time.Format(time.RFC3339), err)
		}
		if k == last {
			if err := acct.Liquidate(snap.Time, snap.Close); err != nil {
				return nil, fmt.Errorf("%s: liquidate: %w", symbol, err)
			}
		}
		for _, t := range acct.Trades()[before:] {
			r.Metrics.RecordTrade(symbol, string(t.Type))
		}
		acct.Mark(snap.Time, snap.Close)
	}

	res := &Result{
		RunID:  uuid.NewString(),
		Symbol: symbol,
		Start:  snaps[1].Time,
		End:    snaps[last].Time,
		Trades: acct.Trades(),
		Equity: acct.EquityCurve(),
	}
	res.Performance = ComputePerformance(r.Account.InitialCapital, res.Equity, res.Trades)
	// Annualise over every loaded bar, warm-up included.
	res.Performance.AnnualReturnPct = annualReturnPct(res.Performance.TotalReturnPct, bars[0].Time, bars[len(bars)-1].Time)
	r.Metrics.RecordBacktestReturn(symbol, res.Performance.TotalReturnPct)
	r.Metrics.RecordLatency("backtest", time.Since(started).Seconds())

	log.Info().
		Str("run_id", res.RunID).
		Str("symbol", symbol).
		Int("bars", last).
		Int("trades", res.Performance.TotalTrades).
		Float64("return_pct", res.Performance.TotalReturnPct).
		Msg("backtest finished")
	return res, nil
}
