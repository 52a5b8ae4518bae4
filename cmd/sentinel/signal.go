package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"RegimeSentinel/internal/collector"
	"RegimeSentinel/internal/notifier"
	"RegimeSentinel/internal/recorder"
	"RegimeSentinel/internal/strategy"
)

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Evaluate the latest closed bar for one symbol",
	RunE:  runSignal,
}

func init() {
	signalCmd.Flags().String("symbol", "BTC/USDT", "symbol to evaluate")
	signalCmd.Flags().Bool("json", false, "print the signal as JSON")
	signalCmd.Flags().Bool("notify", false, "also send the signal to Telegram")
}

func runSignal(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	symbol, _ := cmd.Flags().GetString("symbol")
	asJSON, _ := cmd.Flags().GetBool("json")
	notify, _ := cmd.Flags().GetBool("notify")

	m, _ := newMetrics()
	src, closeSentiment := newSentiment(ctx, cfg, m)
	defer closeSentiment()

	opts := []strategy.Option{strategy.WithMetrics(m)}
	if src != nil {
		if err := src.Warm(ctx, symbol); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("sentiment refresh failed")
		}
		opts = append(opts, strategy.WithSentiment(src))
	}
	engine := strategy.NewEngine(cfg.Strategy, opts...)

	col := collector.NewCollector(newFetcher(cfg), cfg.DataSource.Timeframe, cfg.Monitor.BarLimit)
	series, err := col.Collect(ctx, symbol)
	if err != nil {
		return err
	}
	sig, err := engine.EvaluateBars(ctx, symbol, series.Bars)
	if err != nil {
		return err
	}

	rec := newRecorder(cfg)
	defer rec.Close()
	if err := rec.RecordSignal(&recorder.SignalEvent{Signal: sig, Source: "cli", At: time.Now()}); err != nil {
		log.Error().Err(err).Msg("record signal")
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sig); err != nil {
			return err
		}
	} else {
		fmt.Println(plain(notifier.FormatSignal(sig)))
	}

	if notify {
		if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "" {
			return fmt.Errorf("--notify needs telegram.bot_token and telegram.chat_id")
		}
		tg := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		return tg.Notify(ctx, notifier.FormatSignal(sig))
	}
	return nil
}
