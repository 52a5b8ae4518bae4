package model

import "time"

// TradeType is the side of a ledger entry.
type TradeType string

const (
	TradeBuy  TradeType = "BUY"
	TradeSell TradeType = "SELL"
)

// Position is the single open long position of a backtest run.
type Position struct {
	Size       float64
	EntryPrice float64
	OpenedAt   time.Time
	CostBasis  float64 // size × entry price, entry commission excluded
	StopLoss   float64 // 0 when the entry signal had no plan
	TakeProfit float64
}

// Trade is one append-only ledger entry.
type Trade struct {
	Type           TradeType
	Time           time.Time
	Price          float64
	Size           float64
	Cost           float64 // BUY only
	Value          float64 // SELL only, net of commission
	Commission     float64
	Profit         float64 // SELL only
	ProfitPct      float64 // SELL only
	SignalStrength int
	Reasons        []string
}

// EquityPoint is the account value after one processed bar.
type EquityPoint struct {
	Time   time.Time
	Equity float64
	Price  float64
}
