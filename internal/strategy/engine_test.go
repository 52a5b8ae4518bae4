package strategy

import (
	"context"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"RegimeSentinel/internal/calculator"
	"RegimeSentinel/internal/config"
	"RegimeSentinel/internal/model"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func baseSnap(i int) model.IndicatorSnapshot {
	return model.IndicatorSnapshot{
		Time:  t0.Add(time.Duration(i) * time.Hour),
		Close: 100, Open: 100, High: 100.5, Low: 99.5,
		Volume: 1000, VolumeMA: 1000,
		EMAFast: 100, EMASlow: 100,
		RSI: 50, ADX: 20, PlusDI: 20, MinusDI: 20,
		BBUpper: 102, BBMiddle: 100, BBLower: 98, BBW: 4, BBWMA: 4,
		OBV: 9000, OBVMA: 9000,
		K: 50, D: 50,
	}
}

// breakoutHistory returns 20 quiet snapshots followed by a bar where the fast EMA
// crosses the slow one and the close sets a new 20-bar high. obv controls whether
// volume flow confirms the breakout (prior OBV high is 10000).
func breakoutHistory(obv float64) []model.IndicatorSnapshot {
	hist := make([]model.IndicatorSnapshot, 21)
	for i := 0; i < 20; i++ {
		hist[i] = baseSnap(i)
	}
	hist[5].OBV = 10000
	hist[19].EMAFast, hist[19].EMASlow = 101.0, 101.1

	cur := baseSnap(20)
	cur.Close = 101
	cur.EMAFast, cur.EMASlow = 101.2, 101.1
	cur.ADX, cur.BBW, cur.BBWMA = 26, 5, 4
	cur.OBV, cur.OBVMA = obv, 9600
	hist[20] = cur
	return hist
}

func flatBars(n int, price float64) []model.Bar {
	bars := make([]model.Bar, n)
	for i := range bars {
		bars[i] = model.Bar{
			Time: t0.Add(time.Duration(i) * time.Hour),
			Open: price, High: price + 0.5, Low: price - 0.5, Close: price, Volume: 1000,
		}
	}
	return bars
}

func wavyBars(n int) []model.Bar {
	bars := make([]model.Bar, n)
	for i := range bars {
		c := 100 + 8*math.Sin(float64(i)/9) + 3*math.Sin(float64(i)/2.3) + float64(i)*0.03
		bars[i] = model.Bar{
			Time: t0.Add(time.Duration(i) * time.Hour),
			Open: c - 0.2, High: c + 1, Low: c - 1, Close: c,
			Volume: 1000 + 400*math.Cos(float64(i)/3),
		}
	}
	return bars
}

func hasReason(reasons []string, substr string) bool {
	for _, r := range reasons {
		if strings.Contains(r, substr) {
			return true
		}
	}
	return false
}

type stubSentiment struct {
	data  model.SentimentData
	calls int
}

func (s *stubSentiment) Sentiment(_ context.Context, _ string) model.SentimentData {
	s.calls++
	return s.data
}

func ptr(v float64) *float64 { return &v }

// ---------------------------------------------------------------------------
// Regime classification
// ---------------------------------------------------------------------------

func TestClassify_AllBoundaries(t *testing.T) {
	cfg := config.DefaultStrategy().Regime
	tests := []struct {
		adx, bbw, bbwMA float64
		want            model.Regime
	}{
		{35, 2.0, 1.0, model.RegimeStrongTrend},
		{35, 1.0, 0.5, model.RegimeTrend},
		{30, 2.0, 1.0, model.RegimeTrend},
		{26, 0.9, 1.0, model.RegimeNeutral},
		{10, 0.8, 1.0, model.RegimeRange},
		{10, 0.4, 0.3, model.RegimeSqueeze},
		{20, 0.3, 0.5, model.RegimeSqueeze},
		{20, 1.0, 0.9, model.RegimeNeutral},
		{18, 0.8, 1.0, model.RegimeNeutral},
	}
	for _, tt := range tests {
		snap := model.IndicatorSnapshot{ADX: tt.adx, BBW: tt.bbw, BBWMA: tt.bbwMA}
		if got := Classify(snap, cfg); got != tt.want {
			t.Errorf("adx=%.0f bbw=%.2f bbw_ma=%.2f: expected %s, got %s", tt.adx, tt.bbw, tt.bbwMA, tt.want, got)
		}
	}
}

func TestClassify_TotalFunction(t *testing.T) {
	cfg := config.DefaultStrategy().Regime
	valid := map[model.Regime]bool{}
	for _, r := range model.Regimes {
		valid[r] = true
	}
	values := []float64{math.NaN(), math.Inf(-1), -1, 0, 0.25, 0.5, 1, 1.2, 2, 18, 25, 30, 60, 100, math.Inf(1)}
	for _, adx := range values {
		for _, bbw := range values {
			for _, ma := range values {
				got := Classify(model.IndicatorSnapshot{ADX: adx, BBW: bbw, BBWMA: ma}, cfg)
				if !valid[got] {
					t.Fatalf("adx=%v bbw=%v ma=%v: unknown regime %q", adx, bbw, ma, got)
				}
			}
		}
	}
}

func TestStrategyTable_CoversEveryRegime(t *testing.T) {
	for _, r := range model.Regimes {
		if strategyTable[r] == nil {
			t.Errorf("regime %s has no generator", r)
		}
	}
}

// ---------------------------------------------------------------------------
// Trend following
// ---------------------------------------------------------------------------

func TestTrendFollowing_ConfirmedBreakoutBuys(t *testing.T) {
	e := NewEngine(config.DefaultStrategy())
	d := trendFollowing(e, "TEST", breakoutHistory(10500))
	if d.action != model.ActionBuy {
		t.Fatalf("expected BUY, got %s (%v)", d.action, d.reasons)
	}
	if d.strength != 65 {
		t.Errorf("expected strength 65 (cross 50 + OBV 15), got %d", d.strength)
	}
	if HasDivergence(d.reasons) {
		t.Errorf("unexpected divergence reason: %v", d.reasons)
	}
}

func TestTrendFollowing_DivergencePenaltyHolds(t *testing.T) {
	e := NewEngine(config.DefaultStrategy())
	d := trendFollowing(e, "TEST", breakoutHistory(9500))
	if d.action != model.ActionHold {
		t.Fatalf("expected HOLD, got %s with strength %d", d.action, d.strength)
	}
	if !HasDivergence(d.reasons) {
		t.Fatalf("expected divergence reason, got %v", d.reasons)
	}
	if d.strength != 20 {
		t.Errorf("expected strength 20 (cross 50 - penalty 30), got %d", d.strength)
	}
}

func TestTrendFollowing_GradedDivergence(t *testing.T) {
	cfg := config.DefaultStrategy()
	cfg.Divergence.Mode = config.DivergenceGraded
	e := NewEngine(cfg)

	tests := []struct {
		obv     float64
		grade   string
		penalty int
	}{
		{8500, "severe", 35},   // 15% gap
		{9400, "moderate", 25}, // 6% gap
		{9700, "mild", 15},     // 3% gap
		{9900, "weak", 8},      // 1% gap
	}
	for _, tt := range tests {
		hist := breakoutHistory(tt.obv)
		hist[20].OBVMA = 0 // isolate the penalty from OBV flow points
		d := trendFollowing(e, "TEST", hist)
		if !hasReason(d.reasons, tt.grade) {
			t.Errorf("obv=%.0f: expected %s grade in %v", tt.obv, tt.grade, d.reasons)
		}
		if want := 50 + 15 - tt.penalty; d.action == model.ActionBuy && d.strength != want {
			t.Errorf("obv=%.0f: expected strength %d, got %d", tt.obv, want, d.strength)
		}
	}
}

func TestTrendFollowing_BuyEvaluatedBeforeSell(t *testing.T) {
	hist := breakoutHistory(8000)
	cur := &hist[20]
	cur.Close = 100 // no new high, so no divergence
	cur.EMAFast, cur.EMASlow = 100.3, 100.2
	hist[19].EMAFast, hist[19].EMASlow = 100.1, 100.2
	hist[19].MACD, hist[19].MACDSignal = 0.1, 0.05
	cur.MACD, cur.MACDSignal = 0.0, 0.05

	e := NewEngine(config.DefaultStrategy())
	d := trendFollowing(e, "TEST", hist)
	if d.action != model.ActionBuy {
		t.Fatalf("expected BUY from the first branch, got %s (%v)", d.action, d.reasons)
	}
	if d.strength != 50 {
		t.Errorf("expected strength 50, got %d", d.strength)
	}
	if hasReason(d.reasons, "MACD crossed below") {
		t.Errorf("sell evidence must not leak into a BUY: %v", d.reasons)
	}
}

func TestTrendFollowing_DeathCrossSells(t *testing.T) {
	hist := breakoutHistory(9000)
	cur := &hist[20]
	cur.Close = 99.8
	hist[19].EMAFast, hist[19].EMASlow = 100.2, 100.1
	cur.EMAFast, cur.EMASlow = 100.0, 100.1
	cur.OBV, cur.OBVMA = 9000, 9000

	e := NewEngine(config.DefaultStrategy())
	d := trendFollowing(e, "TEST", hist)
	if d.action != model.ActionSell {
		t.Fatalf("expected SELL, got %s (%v)", d.action, d.reasons)
	}
	if !hasReason(d.reasons, "crossed below") {
		t.Errorf("expected cross reason, got %v", d.reasons)
	}
}

// ---------------------------------------------------------------------------
// Mean reversion
// ---------------------------------------------------------------------------

func TestMeanReversion_OversoldBuys(t *testing.T) {
	prev, cur := baseSnap(0), baseSnap(1)
	prev.K, prev.D = 10, 12
	cur.RSI, cur.Close = 20, 97.5
	cur.K, cur.D = 15, 14

	e := NewEngine(config.DefaultStrategy())
	d := meanReversion(e, "TEST", []model.IndicatorSnapshot{prev, cur})
	if d.action != model.ActionBuy {
		t.Fatalf("expected BUY, got %s (%v)", d.action, d.reasons)
	}
	// RSI (30-20)*2 + band 20 + KDJ cross 20 + KDJ zone 10
	if d.strength != 70 {
		t.Errorf("expected strength 70, got %d", d.strength)
	}
}

func TestMeanReversion_OverboughtSells(t *testing.T) {
	prev, cur := baseSnap(0), baseSnap(1)
	prev.K, prev.D = 90, 88
	cur.RSI, cur.Close = 80, 102.5
	cur.K, cur.D = 85, 86

	e := NewEngine(config.DefaultStrategy())
	d := meanReversion(e, "TEST", []model.IndicatorSnapshot{prev, cur})
	if d.action != model.ActionSell {
		t.Fatalf("expected SELL, got %s (%v)", d.action, d.reasons)
	}
	if d.strength != 70 {
		t.Errorf("expected strength 70, got %d", d.strength)
	}
}

func TestMeanReversion_MildExtremesHold(t *testing.T) {
	prev, cur := baseSnap(0), baseSnap(1)
	cur.RSI = 28
	cur.Close = 98.6 // 15% of the band

	e := NewEngine(config.DefaultStrategy())
	d := meanReversion(e, "TEST", []model.IndicatorSnapshot{prev, cur})
	if d.action != model.ActionHold {
		t.Fatalf("expected HOLD, got %s with %d", d.action, d.strength)
	}
	if d.strength >= 30 {
		t.Errorf("expected strength below threshold, got %d", d.strength)
	}
}

func TestMeanReversion_KDJDisabled(t *testing.T) {
	prev, cur := baseSnap(0), baseSnap(1)
	prev.K, prev.D = 10, 12
	cur.K, cur.D = 15, 14
	cfg := config.DefaultStrategy()
	cfg.MeanReversion.DisableKDJ = true

	d := meanReversion(NewEngine(cfg), "TEST", []model.IndicatorSnapshot{prev, cur})
	if hasReason(d.reasons, "KDJ") {
		t.Errorf("expected no KDJ evidence, got %v", d.reasons)
	}
}

// ---------------------------------------------------------------------------
// Sentiment
// ---------------------------------------------------------------------------

func TestFundingAdjustment_AllBuckets(t *testing.T) {
	tests := []struct {
		rate float64
		want int
	}{
		{0.02, -15},
		{0.015, -10},
		{0.012, -10},
		{0.01, -5},
		{0.006, -5},
		{0.005, 0},
		{0, 0},
		{-0.005, 0},
		{-0.006, 5},
		{-0.01, 5},
		{-0.012, 10},
		{-0.015, 10},
		{-0.02, 15},
	}
	for _, tt := range tests {
		if got := FundingAdjustment(tt.rate); got != tt.want {
			t.Errorf("rate %.3f: expected %d, got %d", tt.rate, tt.want, got)
		}
	}
}

func TestOpenInterestAdjustment_AllBuckets(t *testing.T) {
	tests := []struct {
		pct   float64
		trend string
		want  int
	}{
		{20, OIStrongIncrease, 10},
		{15, OIIncrease, 5},
		{6, OIIncrease, 5},
		{5, OIStable, 0},
		{-5, OIStable, 0},
		{-6, OIDecrease, -5},
		{-15, OIDecrease, -5},
		{-16, OIStrongDecrease, -10},
	}
	for _, tt := range tests {
		if got := OpenInterestTrend(tt.pct); got != tt.trend {
			t.Errorf("pct %.0f: expected %s, got %s", tt.pct, tt.trend, got)
		}
		if got := OpenInterestAdjustment(tt.pct); got != tt.want {
			t.Errorf("pct %.0f: expected %d, got %d", tt.pct, tt.want, got)
		}
	}
}

func TestSentimentAdjustment_Clamped(t *testing.T) {
	data := model.SentimentData{FundingRate: ptr(0.02), OIChangePct: ptr(-20)}
	adj, reasons := sentimentAdjustment(model.ActionBuy, data, 20)
	if adj != -20 {
		t.Errorf("expected clamp to -20, got %d", adj)
	}
	if len(reasons) != 2 {
		t.Errorf("expected 2 reasons, got %v", reasons)
	}

	adj, _ = sentimentAdjustment(model.ActionSell, model.SentimentData{FundingRate: ptr(0.02)}, 20)
	if adj != 15 {
		t.Errorf("expected crowded longs to support SELL by 15, got %d", adj)
	}
}

func TestSentimentAdjustment_MissingDataIsNoop(t *testing.T) {
	adj, reasons := sentimentAdjustment(model.ActionBuy, model.SentimentData{}, 20)
	if adj != 0 || len(reasons) != 0 {
		t.Errorf("expected no adjustment, got %d %v", adj, reasons)
	}
	adj, _ = sentimentAdjustment(model.ActionHold, model.SentimentData{FundingRate: ptr(-0.03)}, 20)
	if adj != 0 {
		t.Errorf("HOLD must not be adjusted, got %d", adj)
	}
}

// ---------------------------------------------------------------------------
// Symbol filter
// ---------------------------------------------------------------------------

func TestApplySymbolFilter_InsufficientStrength(t *testing.T) {
	sig := model.Signal{Action: model.ActionBuy, Strength: 55, Reasons: []string{"EMA50 crossed above EMA200"}}
	ApplySymbolFilter(&sig, config.SymbolConfig{MinSignalStrength: 60})

	if sig.Action != model.ActionHold {
		t.Fatalf("expected HOLD, got %s", sig.Action)
	}
	if !hasReason(sig.Reasons, "signal strength insufficient") {
		t.Errorf("expected insufficient strength reason, got %v", sig.Reasons)
	}
	if sig.Reasons[0] != "EMA50 crossed above EMA200" || len(sig.Reasons) != 2 {
		t.Errorf("original reasons must be kept, got %v", sig.Reasons)
	}
	if sig.Strength != 55 {
		t.Errorf("strength must be left as scored, got %d", sig.Strength)
	}
}

func TestApplySymbolFilter_DivergenceRisk(t *testing.T) {
	sc := config.SymbolConfig{MinSignalStrength: 55, FilterDivergenceEnabled: true, MinSignalWithDivergence: 80}
	sig := model.Signal{
		Action:   model.ActionBuy,
		Strength: 70,
		Reasons:  []string{DivergenceMarker + ": price at 20-bar high not confirmed by OBV"},
	}
	ApplySymbolFilter(&sig, sc)
	if sig.Action != model.ActionHold || !hasReason(sig.Reasons, "divergence risk too high") {
		t.Fatalf("expected divergence HOLD, got %s %v", sig.Action, sig.Reasons)
	}

	sc.FilterDivergenceEnabled = false
	sig = model.Signal{Action: model.ActionBuy, Strength: 70, Reasons: []string{DivergenceMarker + ": x"}}
	ApplySymbolFilter(&sig, sc)
	if sig.Action != model.ActionBuy {
		t.Errorf("disabled divergence filter should pass a 70 signal, got %s", sig.Action)
	}
}

func TestApplySymbolFilter_PassThrough(t *testing.T) {
	sig := model.Signal{Action: model.ActionSell, Strength: 80, Reasons: []string{"a"}}
	ApplySymbolFilter(&sig, config.SymbolConfig{MinSignalStrength: 60})
	if sig.Action != model.ActionSell || len(sig.Reasons) != 1 {
		t.Errorf("expected unchanged SELL, got %s %v", sig.Action, sig.Reasons)
	}

	hold := model.Signal{Action: model.ActionHold, Strength: 10}
	ApplySymbolFilter(&hold, config.SymbolConfig{MinSignalStrength: 60})
	if len(hold.Reasons) != 0 {
		t.Errorf("HOLD should not gain filter reasons, got %v", hold.Reasons)
	}
}

// ---------------------------------------------------------------------------
// Trading plan
// ---------------------------------------------------------------------------

func TestBuildPlan_BuyInTrend(t *testing.T) {
	plans := config.DefaultStrategy().Plans
	p := BuildPlan(100, model.ActionBuy, model.RegimeTrend, plans, nil)
	if p.IsEmpty() {
		t.Fatal("expected a populated plan")
	}
	if !approx(*p.StopLossPrice, 96.5) || !approx(*p.TakeProfitPrice, 107) {
		t.Errorf("unexpected prices: stop=%.4f target=%.4f", *p.StopLossPrice, *p.TakeProfitPrice)
	}
	if !approx(*p.RiskRewardRatio, 2) {
		t.Errorf("expected RR 2, got %.4f", *p.RiskRewardRatio)
	}
}

func TestBuildPlan_SellInRangeIsShort(t *testing.T) {
	plans := config.DefaultStrategy().Plans
	p := BuildPlan(100, model.ActionSell, model.RegimeRange, plans, nil)
	if !approx(*p.StopLossPrice, 102) || !approx(*p.TakeProfitPrice, 97) {
		t.Errorf("unexpected prices: stop=%.4f target=%.4f", *p.StopLossPrice, *p.TakeProfitPrice)
	}
	if !approx(*p.RiskRewardRatio, 1.5) {
		t.Errorf("expected RR 1.5, got %.4f", *p.RiskRewardRatio)
	}
}

func TestBuildPlan_HoldIsEmpty(t *testing.T) {
	p := BuildPlan(100, model.ActionHold, model.RegimeTrend, config.DefaultStrategy().Plans, nil)
	if !p.IsEmpty() {
		t.Errorf("expected empty plan for HOLD, got %+v", p)
	}
}

func TestBuildPlan_SymbolOverride(t *testing.T) {
	sc := &config.SymbolConfig{StopLossPct: 0.04, TakeProfitPct: 0.08}
	p := BuildPlan(50, model.ActionBuy, model.RegimeRange, config.DefaultStrategy().Plans, sc)
	if *p.StopLossPct != 0.04 || *p.TakeProfitPct != 0.08 {
		t.Errorf("expected symbol override, got %.3f/%.3f", *p.StopLossPct, *p.TakeProfitPct)
	}
}

func TestRiskReward_ZeroRisk(t *testing.T) {
	if got := RiskReward(100, 100, 110); got != 0 {
		t.Errorf("expected 0 for zero risk, got %.4f", got)
	}
}

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

func TestEvaluate_DivergenceScenarioHolds(t *testing.T) {
	e := NewEngine(config.DefaultStrategy())
	sig := e.Evaluate(context.Background(), "TEST", breakoutHistory(9500))
	if sig.Regime != model.RegimeTrend {
		t.Fatalf("expected TREND regime, got %s", sig.Regime)
	}
	if sig.Action != model.ActionHold {
		t.Fatalf("expected HOLD, got %s", sig.Action)
	}
	if !HasDivergence(sig.Reasons) {
		t.Errorf("expected divergence reason, got %v", sig.Reasons)
	}
	if sig.Strength >= int(config.DefaultStrategy().Trend.Threshold) {
		t.Errorf("expected strength below threshold, got %d", sig.Strength)
	}
	if !sig.Plan.IsEmpty() {
		t.Error("HOLD must carry an empty plan")
	}
}

func TestEvaluate_SymbolFilterDowngrades(t *testing.T) {
	cfg := config.DefaultStrategy()
	cfg.Symbols = map[string]config.SymbolConfig{"BTC/USDT": {MinSignalStrength: 70}}
	e := NewEngine(cfg)

	sig := e.Evaluate(context.Background(), "BTC/USDT", breakoutHistory(10500))
	if sig.Action != model.ActionHold || sig.Strength != 65 {
		t.Fatalf("expected filtered HOLD at 65, got %s at %d", sig.Action, sig.Strength)
	}
	if !sig.Plan.IsEmpty() {
		t.Error("filtered signal must carry an empty plan")
	}

	other := e.Evaluate(context.Background(), "ETH/USDT", breakoutHistory(10500))
	if other.Action != model.ActionBuy {
		t.Errorf("unconfigured symbol should not be filtered, got %s", other.Action)
	}
}

func TestEvaluate_SentimentAdjustsActionOnly(t *testing.T) {
	src := &stubSentiment{data: model.SentimentData{FundingRate: ptr(-0.02)}}
	e := NewEngine(config.DefaultStrategy(), WithSentiment(src))

	sig := e.Evaluate(context.Background(), "TEST", breakoutHistory(10500))
	if sig.Action != model.ActionBuy || sig.Strength != 80 {
		t.Fatalf("expected BUY at 65+15, got %s at %d", sig.Action, sig.Strength)
	}
	if !hasReason(sig.Reasons, "funding rate") {
		t.Errorf("expected funding reason, got %v", sig.Reasons)
	}

	calls := src.calls
	held := e.Evaluate(context.Background(), "TEST", breakoutHistory(9500))
	if held.Action != model.ActionHold {
		t.Fatalf("sentiment must never flip HOLD, got %s", held.Action)
	}
	if src.calls != calls {
		t.Error("sentiment should not be read for HOLD")
	}
}

func TestEvaluate_InsufficientHistory(t *testing.T) {
	e := NewEngine(config.DefaultStrategy())
	sig, err := e.EvaluateBars(context.Background(), "TEST", flatBars(150, 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Action != model.ActionHold || !hasReason(sig.Reasons, "insufficient history") {
		t.Errorf("expected insufficient history HOLD, got %s %v", sig.Action, sig.Reasons)
	}
	if sig.Price() != 100 {
		t.Errorf("expected last price to be reported, got %.2f", sig.Price())
	}
}

func TestEvaluate_FlatSeriesHoldsEveryBar(t *testing.T) {
	bars := flatBars(300, 100)

	t.Run("squeeze disabled", func(t *testing.T) {
		cfg := config.DefaultStrategy()
		// Constant closes collapse the bands to zero width, which would read as a squeeze.
		cfg.Regime.SqueezeThreshold = 0
		e := NewEngine(cfg)
		snaps, err := calculator.BuildSnapshots(bars, cfg.Indicators.Params())
		if err != nil {
			t.Fatalf("build snapshots: %v", err)
		}
		for i := 2; i <= len(snaps); i++ {
			sig := e.Evaluate(context.Background(), "FLAT", snaps[:i])
			if sig.Regime != model.RegimeRange && sig.Regime != model.RegimeNeutral {
				t.Fatalf("bar %d: expected RANGE or NEUTRAL, got %s", i, sig.Regime)
			}
			if sig.Action != model.ActionHold {
				t.Fatalf("bar %d: expected HOLD, got %s", i, sig.Action)
			}
			if sig.Market.RSI != 50 {
				t.Fatalf("bar %d: expected RSI pinned at 50, got %.2f", i, sig.Market.RSI)
			}
		}
	})

	t.Run("defaults", func(t *testing.T) {
		cfg := config.DefaultStrategy()
		e := NewEngine(cfg)
		snaps, err := calculator.BuildSnapshots(bars, cfg.Indicators.Params())
		if err != nil {
			t.Fatalf("build snapshots: %v", err)
		}
		for i := 2; i <= len(snaps); i++ {
			if sig := e.Evaluate(context.Background(), "FLAT", snaps[:i]); sig.Action != model.ActionHold {
				t.Fatalf("bar %d: expected HOLD, got %s", i, sig.Action)
			}
		}
	})
}

func TestEvaluate_Idempotent(t *testing.T) {
	e := NewEngine(config.DefaultStrategy())
	bars := wavyBars(320)
	first, err := e.EvaluateBars(context.Background(), "WAVE", bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := e.EvaluateBars(context.Background(), "WAVE", bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical signals, got\n%+v\n%+v", first, second)
	}
}

func TestEvaluate_StrengthBoundsAndPlanNullity(t *testing.T) {
	cfg := config.DefaultStrategy()
	src := &stubSentiment{data: model.SentimentData{FundingRate: ptr(-0.05), OIChangePct: ptr(30)}}
	e := NewEngine(cfg, WithSentiment(src))
	snaps, err := calculator.BuildSnapshots(wavyBars(600), cfg.Indicators.Params())
	if err != nil {
		t.Fatalf("build snapshots: %v", err)
	}
	for i := 2; i <= len(snaps); i++ {
		sig := e.Evaluate(context.Background(), "WAVE", snaps[:i])
		if sig.Strength < 0 || sig.Strength > 100 {
			t.Fatalf("bar %d: strength %d out of range", i, sig.Strength)
		}
		if (sig.Action == model.ActionHold) != sig.Plan.IsEmpty() {
			t.Fatalf("bar %d: action %s with empty plan = %v", i, sig.Action, sig.Plan.IsEmpty())
		}
	}
}
