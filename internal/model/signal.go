package model

// Regime is the qualitative market state of the latest snapshot.
type Regime string

const (
	RegimeStrongTrend Regime = "STRONG_TREND"
	RegimeTrend       Regime = "TREND"
	RegimeRange       Regime = "RANGE"
	RegimeSqueeze     Regime = "SQUEEZE"
	RegimeNeutral     Regime = "NEUTRAL"
)

// Regimes lists every regime in classification order.
var Regimes = []Regime{RegimeStrongTrend, RegimeTrend, RegimeRange, RegimeSqueeze, RegimeNeutral}

// IsTrending reports whether the regime is served by trend following.
func (r Regime) IsTrending() bool {
	return r == RegimeStrongTrend || r == RegimeTrend
}

// Action is the directional decision of a signal.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// TradingPlan is the entry/stop/target triple attached to an actionable signal.
// Every pointer is nil when the signal is HOLD.
type TradingPlan struct {
	EntryPrice      *float64 `json:"entry_price"`
	StopLossPrice   *float64 `json:"stop_loss_price"`
	TakeProfitPrice *float64 `json:"take_profit_price"`
	StopLossPct     *float64 `json:"stop_loss_pct"`
	TakeProfitPct   *float64 `json:"take_profit_pct"`
	RiskRewardRatio *float64 `json:"risk_reward_ratio"`
}

// IsEmpty reports whether the plan carries no prices.
func (p TradingPlan) IsEmpty() bool {
	return p.EntryPrice == nil && p.StopLossPrice == nil && p.TakeProfitPrice == nil &&
		p.StopLossPct == nil && p.TakeProfitPct == nil && p.RiskRewardRatio == nil
}

// Signal is the final output of the strategy pipeline for one bar.
type Signal struct {
	Symbol   string            `json:"symbol,omitempty"`
	Action   Action            `json:"action"`
	Strength int               `json:"strength"`
	Reasons  []string          `json:"reasons"`
	Regime   Regime            `json:"market_regime"`
	Market   IndicatorSnapshot `json:"market_data"`
	Plan     TradingPlan       `json:"trading_plan"`
}

// Price returns the close of the bar the signal was computed on.
func (s *Signal) Price() float64 { return s.Market.Close }

// IsActionable reports whether the signal asks for a position change.
func (s *Signal) IsActionable() bool {
	return s.Action == ActionBuy || s.Action == ActionSell
}
