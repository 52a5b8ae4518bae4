package backtest

import (
	"math"
	"sort"
	"time"

	"RegimeSentinel/internal/model"
)

// Performance summarizes one finished run.
type Performance struct {
	InitialCapital  float64
	FinalEquity     float64
	TotalReturn     float64
	TotalReturnPct  float64
	AnnualReturnPct float64
	MaxDrawdownPct  float64
	TotalTrades     int
	Wins            int
	Losses          int
	WinRatePct      float64
	ProfitFactor    float64
	SharpeRatio     float64
}

// ComputePerformance derives run metrics from the equity curve and ledger.
// A closed trade with zero profit counts as a loss. Profit factor is +Inf
// when there are winning trades and no losing amount, and 0 with no trades.
func ComputePerformance(initial float64, equity []model.EquityPoint, trades []model.Trade) Performance {
	p := Performance{InitialCapital: initial, FinalEquity: initial}
	if len(equity) > 0 {
		p.FinalEquity = equity[len(equity)-1].Equity
	}
	p.TotalReturn = p.FinalEquity - initial
	if initial > 0 {
		p.TotalReturnPct = p.TotalReturn / initial * 100
	}

	if len(equity) > 1 {
		p.AnnualReturnPct = annualReturnPct(p.TotalReturnPct, equity[0].Time, equity[len(equity)-1].Time)
	} else {
		p.AnnualReturnPct = p.TotalReturnPct
	}
	p.MaxDrawdownPct = maxDrawdownPct(equity)

	var grossWin, grossLoss float64
	for _, t := range trades {
		if t.Type != model.TradeSell {
			continue
		}
		p.TotalTrades++
		if t.Profit > 0 {
			p.Wins++
			grossWin += t.Profit
		} else {
			p.Losses++
			grossLoss -= t.Profit
		}
	}
	if p.TotalTrades > 0 {
		p.WinRatePct = float64(p.Wins) / float64(p.TotalTrades) * 100
	}
	switch {
	case grossLoss > 0:
		p.ProfitFactor = grossWin / grossLoss
	case grossWin > 0:
		p.ProfitFactor = math.Inf(1)
	}

	p.SharpeRatio = sharpe(equity)
	return p
}

// annualReturnPct spreads totalPct over the whole days between from and to,
// counting a span shorter than a day as one year.
func annualReturnPct(totalPct float64, from, to time.Time) float64 {
	years := 1.0
	if days := int(to.Sub(from).Hours() / 24); days > 0 {
		years = float64(days) / 365
	}
	return totalPct / years
}

// maxDrawdownPct returns the deepest peak-to-trough fall as a non-positive percent.
func maxDrawdownPct(equity []model.EquityPoint) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0].Equity
	var dd float64
	for _, pt := range equity {
		if pt.Equity > peak {
			peak = pt.Equity
		}
		if peak <= 0 {
			continue
		}
		if d := (pt.Equity - peak) / peak * 100; d < dd {
			dd = d
		}
	}
	return dd
}

// sharpe annualizes per-bar returns using the median bar spacing.
func sharpe(equity []model.EquityPoint) float64 {
	if len(equity) < 3 {
		return 0
	}
	returns := make([]float64, 0, len(equity)-1)
	gaps := make([]time.Duration, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev <= 0 {
			continue
		}
		returns = append(returns, equity[i].Equity/prev-1)
		gaps = append(gaps, equity[i].Time.Sub(equity[i-1].Time))
	}
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	std := math.Sqrt(variance / float64(len(returns)-1))
	if std == 0 {
		return 0
	}

	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	step := gaps[len(gaps)/2]
	if step <= 0 {
		return 0
	}
	perYear := float64(365*24*time.Hour) / float64(step)
	return mean / std * math.Sqrt(perYear)
}
