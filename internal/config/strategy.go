package config

import (
	"fmt"

	"github.com/creasty/defaults"

	"RegimeSentinel/internal/calculator"
)

// StrategyConfig is the single source of thresholds for one run.
// It is passed by value into the strategy engine.
type StrategyConfig struct {
	Indicators    IndicatorConfig         `yaml:"indicators"`
	Regime        RegimeConfig            `yaml:"regime"`
	Trend         TrendConfig             `yaml:"trend"`
	MeanReversion MeanReversionConfig     `yaml:"mean_reversion"`
	Divergence    DivergenceConfig        `yaml:"divergence"`
	Plans         PlanConfig              `yaml:"plans"`
	Sentiment     SentimentRuleConfig     `yaml:"sentiment"`
	Symbols       map[string]SymbolConfig `yaml:"symbols" validate:"dive"`
}

// IndicatorConfig holds indicator periods and the warm-up window.
type IndicatorConfig struct {
	EMAFast    int     `yaml:"ema_fast" default:"50" validate:"gt=0"`
	EMASlow    int     `yaml:"ema_slow" default:"200" validate:"gt=0"`
	MACDFast   int     `yaml:"macd_fast" default:"12" validate:"gt=0"`
	MACDSlow   int     `yaml:"macd_slow" default:"26" validate:"gt=0"`
	MACDSignal int     `yaml:"macd_signal" default:"9" validate:"gt=0"`
	RSI        int     `yaml:"rsi" default:"14" validate:"gt=0"`
	ADX        int     `yaml:"adx" default:"14" validate:"gt=0"`
	ATR        int     `yaml:"atr" default:"14" validate:"gt=0"`
	BBPeriod   int     `yaml:"bb_period" default:"20" validate:"gt=0"`
	BBStdDev   float64 `yaml:"bb_std_dev" default:"2" validate:"gt=0"`
	BBWMA      int     `yaml:"bbw_ma" default:"20" validate:"gt=0"`
	OBVMA      int     `yaml:"obv_ma" default:"20" validate:"gt=0"`
	VolumeMA   int     `yaml:"volume_ma" default:"20" validate:"gt=0"`
	KDJ        int     `yaml:"kdj" default:"9" validate:"gt=0"`
	KDJSmoothK int     `yaml:"kdj_smooth_k" default:"3" validate:"gt=0"`
	KDJSmoothD int     `yaml:"kdj_smooth_d" default:"3" validate:"gt=0"`
	Warmup     int     `yaml:"warmup" default:"200" validate:"gt=1"`
}

// Params converts the config into calculator periods.
func (c IndicatorConfig) Params() calculator.Params {
	return calculator.Params{
		EMAFast: c.EMAFast, EMASlow: c.EMASlow,
		MACDFast: c.MACDFast, MACDSlow: c.MACDSlow, MACDSignal: c.MACDSignal,
		RSI: c.RSI, ADX: c.ADX, ATR: c.ATR,
		BBPeriod: c.BBPeriod, BBStdDev: c.BBStdDev, BBWMA: c.BBWMA,
		OBVMA: c.OBVMA, VolumeMA: c.VolumeMA,
		KDJ: c.KDJ, KDJSmoothK: c.KDJSmoothK, KDJSmoothD: c.KDJSmoothD,
		Warmup: c.Warmup,
	}
}

// RegimeConfig holds the classifier thresholds. BBW values are percent of the middle band.
type RegimeConfig struct {
	TrendThreshold     float64 `yaml:"trend_threshold" default:"30"`
	WeakTrendThreshold float64 `yaml:"weak_trend_threshold" default:"25"`
	RangeThreshold     float64 `yaml:"range_threshold" default:"18"`
	HighVolThreshold   float64 `yaml:"high_vol_threshold" default:"1.2"`
	SqueezeThreshold   float64 `yaml:"squeeze_threshold" default:"0.5"`
}

// TrendWeights are the point values of each piece of trend evidence.
type TrendWeights struct {
	EMACross      float64 `yaml:"ema_cross" default:"50"`
	MACDCross     float64 `yaml:"macd_cross" default:"40"`
	InTrend       float64 `yaml:"in_trend" default:"20"`
	StrongSpread  float64 `yaml:"strong_spread" default:"10"`
	ADXTrending   float64 `yaml:"adx_trending" default:"10"`
	ADXStrong     float64 `yaml:"adx_strong" default:"5"`
	VolumeConfirm float64 `yaml:"volume_confirm" default:"15"`
	OBVFlow       float64 `yaml:"obv_flow" default:"15"`
}

// TrendConfig configures the trend-following generator.
type TrendConfig struct {
	Threshold        float64      `yaml:"threshold" default:"40" validate:"gt=0,lte=100"`
	ADXThreshold     float64      `yaml:"adx_threshold" default:"25" validate:"gte=0"`
	StrongADXMargin  float64      `yaml:"strong_adx_margin" default:"10" validate:"gte=0"`
	SpreadPct        float64      `yaml:"spread_pct" default:"1.0" validate:"gte=0"`
	VolumeMultiplier float64      `yaml:"volume_multiplier" default:"1.5" validate:"gt=0"`
	Weights          TrendWeights `yaml:"weights"`
}

// MeanReversionConfig configures the mean-reversion generator.
type MeanReversionConfig struct {
	Threshold     float64 `yaml:"threshold" default:"30" validate:"gt=0,lte=100"`
	RSIOversold   float64 `yaml:"rsi_oversold" default:"30" validate:"gt=0,lt=100"`
	RSIOverbought float64 `yaml:"rsi_overbought" default:"70" validate:"gt=0,lt=100"`
	RSIMultiplier float64 `yaml:"rsi_multiplier" default:"2" validate:"gte=0"`
	BandZone      float64 `yaml:"band_zone" default:"0.2" validate:"gt=0,lt=0.5"`
	BandWeight    float64 `yaml:"band_weight" default:"20" validate:"gte=0"`
	DisableKDJ    bool    `yaml:"disable_kdj"`
	KDJCrossBonus float64 `yaml:"kdj_cross_bonus" default:"20" validate:"gte=0"`
	KDJZoneBonus  float64 `yaml:"kdj_zone_bonus" default:"10" validate:"gte=0"`
	KDJOversold   float64 `yaml:"kdj_oversold" default:"20"`
	KDJOverbought float64 `yaml:"kdj_overbought" default:"80"`
}

// Divergence penalty modes.
const (
	DivergenceFixed  = "fixed"
	DivergenceGraded = "graded"
)

// DivergenceConfig configures the volume-flow divergence penalty.
type DivergenceConfig struct {
	Mode            string  `yaml:"mode" default:"fixed" validate:"oneof=fixed graded"`
	Lookback        int     `yaml:"lookback" default:"20" validate:"gt=0"`
	FixedPenalty    float64 `yaml:"fixed_penalty" default:"30" validate:"gte=0"`
	SeverePenalty   float64 `yaml:"severe_penalty" default:"35" validate:"gte=0"`
	ModeratePenalty float64 `yaml:"moderate_penalty" default:"25" validate:"gte=0"`
	MildPenalty     float64 `yaml:"mild_penalty" default:"15" validate:"gte=0"`
	WeakPenalty     float64 `yaml:"weak_penalty" default:"8" validate:"gte=0"`
	SevereGapPct    float64 `yaml:"severe_gap_pct" default:"10"`
	ModerateGapPct  float64 `yaml:"moderate_gap_pct" default:"5"`
	MildGapPct      float64 `yaml:"mild_gap_pct" default:"2"`
}

// PlanConfig is the regime-dependent stop/target percentage table.
type PlanConfig struct {
	TrendStopLossPct   float64 `yaml:"trend_stop_loss_pct" default:"0.035" validate:"gt=0,lt=1"`
	TrendTakeProfitPct float64 `yaml:"trend_take_profit_pct" default:"0.07" validate:"gt=0,lt=1"`
	RangeStopLossPct   float64 `yaml:"range_stop_loss_pct" default:"0.02" validate:"gt=0,lt=1"`
	RangeTakeProfitPct float64 `yaml:"range_take_profit_pct" default:"0.03" validate:"gt=0,lt=1"`
}

// SentimentRuleConfig configures the funding/open-interest adjustment.
type SentimentRuleConfig struct {
	Disabled      bool    `yaml:"disabled"`
	MaxAdjustment float64 `yaml:"max_adjustment" default:"20" validate:"gte=0,lte=100"`
}

// SymbolConfig is the per-symbol filter and plan override. Zero pct values keep the regime table.
type SymbolConfig struct {
	MinSignalStrength       float64 `yaml:"min_signal_strength" validate:"gte=0,lte=100"`
	StopLossPct             float64 `yaml:"stop_loss_pct" validate:"gte=0,lt=1"`
	TakeProfitPct           float64 `yaml:"take_profit_pct" validate:"gte=0,lt=1"`
	ADXThreshold            float64 `yaml:"adx_threshold" validate:"gte=0"`
	FilterDivergenceEnabled bool    `yaml:"filter_divergence_enabled"`
	MinSignalWithDivergence float64 `yaml:"min_signal_with_divergence" validate:"gte=0,lte=100"`
}

// DefaultStrategy returns a StrategyConfig with every default applied.
func DefaultStrategy() StrategyConfig {
	var s StrategyConfig
	if err := defaults.Set(&s); err != nil {
		panic(fmt.Sprintf("strategy defaults: %v", err))
	}
	return s
}

// Validate checks cross-field constraints that struct tags cannot express.
func (s *StrategyConfig) Validate() error {
	r := s.Regime
	if !(r.TrendThreshold > r.WeakTrendThreshold && r.WeakTrendThreshold > r.RangeThreshold) {
		return fmt.Errorf("regime thresholds must satisfy trend (%.1f) > weak_trend (%.1f) > range (%.1f)",
			r.TrendThreshold, r.WeakTrendThreshold, r.RangeThreshold)
	}
	ind := s.Indicators
	for name, period := range map[string]int{"ema_slow": ind.EMASlow, "ema_fast": ind.EMAFast, "macd_slow": ind.MACDSlow} {
		if ind.Warmup < period {
			return fmt.Errorf("indicators.warmup (%d) must be at least %s (%d)", ind.Warmup, name, period)
		}
	}
	if ind.EMAFast >= ind.EMASlow {
		return fmt.Errorf("indicators.ema_fast must be shorter than ema_slow")
	}
	if s.MeanReversion.RSIOversold >= s.MeanReversion.RSIOverbought {
		return fmt.Errorf("mean_reversion.rsi_oversold must be below rsi_overbought")
	}
	for sym, sc := range s.Symbols {
		if sc.FilterDivergenceEnabled && sc.MinSignalWithDivergence < sc.MinSignalStrength {
			return fmt.Errorf("symbols.%s.min_signal_with_divergence must not be below min_signal_strength", sym)
		}
	}
	return nil
}

// Symbol returns the per-symbol config and whether one exists.
func (s *StrategyConfig) Symbol(symbol string) (SymbolConfig, bool) {
	sc, ok := s.Symbols[symbol]
	return sc, ok
}
