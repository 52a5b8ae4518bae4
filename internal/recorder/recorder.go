package recorder

import (
	"time"

	"RegimeSentinel/internal/backtest"
	"RegimeSentinel/internal/model"
)

// SignalEvent is one computed signal and where it came from.
type SignalEvent struct {
	Signal model.Signal
	Source string // "monitor" or "cli"
	At     time.Time
}

// SignalRow is a stored signal as read back for reports.
type SignalRow struct {
	Symbol   string
	BarTime  time.Time
	Action   model.Action
	Strength int
	Regime   model.Regime
	Price    float64
	Reasons  string
	Source   string
}

// Recorder persists signals and backtest runs for later analysis.
type Recorder interface {
	RecordSignal(evt *SignalEvent) error
	RecordBacktest(res *backtest.Result) error
	Close() error
}
