package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"RegimeSentinel/internal/collector"
	"RegimeSentinel/internal/monitor"
	"RegimeSentinel/internal/notifier"
	"RegimeSentinel/internal/strategy"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Evaluate every symbol once per closed bar and push changes",
	RunE:  runMonitor,
}

func init() {
	monitorCmd.Flags().String("symbols", "", "comma-separated symbols (default: data_source.symbols)")
	monitorCmd.Flags().String("cron", "", "schedule override, six fields with seconds")
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	symbols := cfg.DataSource.Symbols
	if s, _ := cmd.Flags().GetString("symbols"); s != "" {
		symbols = splitSymbols(s)
	}
	if len(symbols) == 0 {
		symbols = []string{"BTC/USDT"}
	}
	spec := cfg.Monitor.Cron
	if s, _ := cmd.Flags().GetString("cron"); s != "" {
		spec = s
	}

	m, reg := newMetrics()
	serveMetrics(ctx, cfg.Metrics.Addr, reg)

	src, closeSentiment := newSentiment(ctx, cfg, m)
	defer closeSentiment()
	opts := []strategy.Option{strategy.WithMetrics(m)}
	if src != nil {
		opts = append(opts, strategy.WithSentiment(src))
	}
	engine := strategy.NewEngine(cfg.Strategy, opts...)

	store, err := monitor.NewStore(cfg.Monitor.StateFile)
	if err != nil {
		return err
	}
	rec := newRecorder(cfg)
	defer rec.Close()

	var (
		n  notifier.Notifier = notifier.LogNotifier{}
		tg *notifier.TelegramNotifier
	)
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		tg = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = tg
	} else {
		log.Warn().Msg("telegram not configured, signals go to the log")
	}

	col := collector.NewCollector(newFetcher(cfg), cfg.DataSource.Timeframe, cfg.Monitor.BarLimit)
	mon := monitor.New(symbols, col, engine, store, n, rec)
	mon.Metrics = m
	if src != nil {
		mon.Sentiment = src
	}

	if tg != nil {
		go tg.StartPolling(ctx, mon.HandleCommand)
	}

	return mon.Run(ctx, spec)
}
