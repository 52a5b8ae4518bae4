package backtest

import (
	"fmt"
	"math"
	"time"

	"RegimeSentinel/internal/config"
	"RegimeSentinel/internal/model"
)

// Exit reasons written to the ledger for protective closes.
const (
	ReasonStopLoss    = "stop loss"
	ReasonTakeProfit  = "take profit"
	ReasonLiquidation = "forced liquidation at backtest end"
)

// State is the position state of an Account.
type State string

const (
	StateFlat State = "FLAT"
	StateLong State = "LONG"
)

// TradeSink receives every ledger entry as soon as it is appended.
type TradeSink interface {
	WriteTrade(t model.Trade) error
}

// Account is the long-only simulated account of one backtest run.
// It moves between FLAT and LONG at most once per processed bar.
type Account struct {
	cfg    config.BacktestConfig
	cash   float64
	pos    *model.Position
	trades []model.Trade
	equity []model.EquityPoint
	sink   TradeSink
}

// NewAccount opens a FLAT account holding the configured initial capital.
func NewAccount(cfg config.BacktestConfig, sink TradeSink) *Account {
	return &Account{cfg: cfg, cash: cfg.InitialCapital, sink: sink}
}

func (a *Account) State() State {
	if a.pos != nil {
		return StateLong
	}
	return StateFlat
}

func (a *Account) Cash() float64 { return a.cash }

// Position returns the open position, if any.
func (a *Account) Position() (model.Position, bool) {
	if a.pos == nil {
		return model.Position{}, false
	}
	return *a.pos, true
}

func (a *Account) Trades() []model.Trade            { return a.trades }
func (a *Account) EquityCurve() []model.EquityPoint { return a.equity }

// Equity values the account at price.
func (a *Account) Equity(price float64) float64 {
	if a.pos == nil {
		return a.cash
	}
	return a.cash + a.pos.Size*price
}

// Process applies one closed bar. Stop loss and take profit are checked
// before the signal; a bar that exits on them ignores its signal.
func (a *Account) Process(ts time.Time, price float64, sig model.Signal) error {
	if err := checkPrice(price); err != nil {
		return err
	}

	if a.pos != nil {
		if reason, ok := a.protectiveExit(price); ok {
			return a.sell(ts, price, 0, []string{
				reason,
				fmt.Sprintf("close %.4f vs entry %.4f", price, a.pos.EntryPrice),
			})
		}
	}

	switch sig.Action {
	case model.ActionBuy:
		if a.pos == nil {
			return a.buy(ts, price, sig)
		}
	case model.ActionSell:
		if a.pos != nil {
			return a.sell(ts, price, sig.Strength, sig.Reasons)
		}
	}
	return nil
}

// Liquidate closes any open position at price.
func (a *Account) Liquidate(ts time.Time, price float64) error {
	if a.pos == nil {
		return nil
	}
	if err := checkPrice(price); err != nil {
		return err
	}
	return a.sell(ts, price, 0, []string{ReasonLiquidation})
}

// Mark appends an equity point for the processed bar.
func (a *Account) Mark(ts time.Time, price float64) {
	a.equity = append(a.equity, model.EquityPoint{Time: ts, Equity: a.Equity(price), Price: price})
}

func (a *Account) protectiveExit(price float64) (string, bool) {
	if a.pos.StopLoss > 0 && price <= a.pos.StopLoss {
		return ReasonStopLoss, true
	}
	if a.pos.TakeProfit > 0 && price >= a.pos.TakeProfit {
		return ReasonTakeProfit, true
	}
	return "", false
}

func (a *Account) buy(ts time.Time, price float64, sig model.Signal) error {
	capital := a.cash * a.cfg.PositionSizePct
	if capital <= 0 {
		return nil
	}
	commission := capital * a.cfg.Commission
	size := (capital - commission) / price

	pos := &model.Position{
		Size:       size,
		EntryPrice: price,
		OpenedAt:   ts,
		CostBasis:  size * price,
	}
	if sig.Plan.StopLossPrice != nil {
		pos.StopLoss = *sig.Plan.StopLossPrice
	}
	if sig.Plan.TakeProfitPrice != nil {
		pos.TakeProfit = *sig.Plan.TakeProfitPrice
	}

	a.cash -= capital
	a.pos = pos
	return a.record(model.Trade{
		Type:           model.TradeBuy,
		Time:           ts,
		Price:          price,
		Size:           size,
		Cost:           capital,
		Commission:     commission,
		SignalStrength: sig.Strength,
		Reasons:        append([]string(nil), sig.Reasons...),
	})
}

// sell closes the position. Value is the net proceeds and profit is measured
// against size × entry price, so the entry commission is not part of it.
func (a *Account) sell(ts time.Time, price float64, strength int, reasons []string) error {
	pos := a.pos
	value := pos.Size * price
	commission := value * a.cfg.Commission
	net := value - commission

	a.cash += net
	a.pos = nil
	return a.record(model.Trade{
		Type:           model.TradeSell,
		Time:           ts,
		Price:          price,
		Size:           pos.Size,
		Value:          net,
		Commission:     commission,
		Profit:         net - pos.CostBasis,
		ProfitPct:      (price - pos.EntryPrice) / pos.EntryPrice * 100,
		SignalStrength: strength,
		Reasons:        append([]string(nil), reasons...),
	})
}

func (a *Account) record(t model.Trade) error {
	a.trades = append(a.trades, t)
	if a.sink == nil {
		return nil
	}
	if err := a.sink.WriteTrade(t); err != nil {
		return fmt.Errorf("write trade: %w", err)
	}
	return nil
}

func checkPrice(price float64) error {
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("invalid close price %v", price)
	}
	return nil
}
