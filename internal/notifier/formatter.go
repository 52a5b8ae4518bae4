package notifier

import (
	"fmt"
	"html"
	"math"
	"sort"
	"strings"
	"time"

	"RegimeSentinel/internal/backtest"
	"RegimeSentinel/internal/model"
)

func actionIcon(a model.Action) string {
	switch a {
	case model.ActionBuy:
		return "🟢"
	case model.ActionSell:
		return "🔴"
	default:
		return "⚪"
	}
}

// FormatSignal formats one signal into a Telegram message.
func FormatSignal(sig model.Signal) string {
	var b strings.Builder
	m := sig.Market

	b.WriteString(fmt.Sprintf("%s <b>%s %s</b> | strength %d\n", actionIcon(sig.Action), html.EscapeString(sig.Symbol), sig.Action, sig.Strength))
	b.WriteString(fmt.Sprintf("Bar: %s\n", m.Time.UTC().Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Regime: %s\n", sig.Regime))
	b.WriteString(fmt.Sprintf("Price: %.4f\n\n", m.Close))

	b.WriteString(fmt.Sprintf("RSI %.1f | ADX %.1f | BBW %.2f%%\n", m.RSI, m.ADX, m.BBW))
	b.WriteString(fmt.Sprintf("EMA fast %.2f | EMA slow %.2f\n", m.EMAFast, m.EMASlow))

	if !sig.Plan.IsEmpty() {
		b.WriteString("\n🎯 <b>Plan:</b>\n")
		if p := sig.Plan.EntryPrice; p != nil {
			b.WriteString(fmt.Sprintf("  Entry: %.4f\n", *p))
		}
		if p := sig.Plan.StopLossPrice; p != nil {
			b.WriteString(fmt.Sprintf("  Stop: %.4f (%.1f%%)\n", *p, deref(sig.Plan.StopLossPct)*100))
		}
		if p := sig.Plan.TakeProfitPrice; p != nil {
			b.WriteString(fmt.Sprintf("  Target: %.4f (%.1f%%)\n", *p, deref(sig.Plan.TakeProfitPct)*100))
		}
		if p := sig.Plan.RiskRewardRatio; p != nil {
			b.WriteString(fmt.Sprintf("  R/R: %.2f\n", *p))
		}
	}

	if len(sig.Reasons) > 0 {
		b.WriteString("\n📋 <b>Reasons:</b>\n")
		for _, r := range sig.Reasons {
			b.WriteString("  • " + html.EscapeString(r) + "\n")
		}
	}
	return b.String()
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// FormatProfitFactor renders +Inf as "∞".
func FormatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "∞"
	}
	return fmt.Sprintf("%.2f", pf)
}

// FormatBacktestReport summarizes one backtest run.
func FormatBacktestReport(res *backtest.Result) string {
	var b strings.Builder
	p := res.Performance
	b.WriteString(fmt.Sprintf("📊 <b>Backtest %s</b>\n", html.EscapeString(res.Symbol)))
	b.WriteString(fmt.Sprintf("Run: %s\n", res.RunID))
	b.WriteString(fmt.Sprintf("Period: %s → %s\n\n", res.Start.UTC().Format("2006-01-02"), res.End.UTC().Format("2006-01-02")))

	b.WriteString(fmt.Sprintf("Capital: %.2f → %.2f\n", p.InitialCapital, p.FinalEquity))
	b.WriteString(fmt.Sprintf("Return: %+.2f%% (annual %+.2f%%)\n", p.TotalReturnPct, p.AnnualReturnPct))
	b.WriteString(fmt.Sprintf("Max drawdown: %.2f%%\n", p.MaxDrawdownPct))
	b.WriteString(fmt.Sprintf("Trades: %d (W %d / L %d, win rate %.1f%%)\n", p.TotalTrades, p.Wins, p.Losses, p.WinRatePct))
	b.WriteString(fmt.Sprintf("Profit factor: %s\n", FormatProfitFactor(p.ProfitFactor)))
	b.WriteString(fmt.Sprintf("Sharpe: %.2f\n", p.SharpeRatio))
	return b.String()
}

// FormatStatus lists the monitor's last known state per symbol.
func FormatStatus(state model.MonitorState) string {
	var b strings.Builder
	b.WriteString("📦 <b>Monitor status</b>\n\n")
	if len(state.Symbols) == 0 {
		b.WriteString("No bars processed yet.\n")
		return b.String()
	}
	symbols := make([]string, 0, len(state.Symbols))
	for s := range state.Symbols {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	for _, s := range symbols {
		st := state.Symbols[s]
		b.WriteString(fmt.Sprintf("%s %s: %s (%d) @ %.4f, bar %s\n",
			actionIcon(st.LastAction), html.EscapeString(s), st.LastAction, st.LastStrength, st.LastPrice,
			st.LastBarTime.UTC().Format("2006-01-02 15:04")))
	}
	if !state.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("\nUpdated: %s\n", state.UpdatedAt.UTC().Format(time.RFC3339)))
	}
	return b.String()
}
