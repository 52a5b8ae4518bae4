package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"RegimeSentinel/internal/backtest"
	"RegimeSentinel/internal/notifier"
	"RegimeSentinel/internal/strategy"
)

const defaultRemoteBars = 1000

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay historical bars through the strategy",
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().String("symbols", "", "comma-separated symbols (default: data_source.symbols)")
	backtestCmd.Flags().String("data-dir", "", "CSV data directory override")
	backtestCmd.Flags().String("export", "", "directory for trade and equity CSV files")
	backtestCmd.Flags().Int("limit", 0, "bars to load per symbol (0 = whole CSV file, 1000 for remote providers)")
	backtestCmd.Flags().Int("parallel", 4, "symbols to run concurrently")
}

func runBacktest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	if dir, _ := flags.GetString("data-dir"); dir != "" {
		cfg.DataSource.Dir = dir
	}
	symbols := cfg.DataSource.Symbols
	if s, _ := flags.GetString("symbols"); s != "" {
		symbols = splitSymbols(s)
	}
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols: pass --symbols or set data_source.symbols")
	}
	limit, _ := flags.GetInt("limit")
	if limit <= 0 && cfg.DataSource.Provider != "csv" {
		limit = defaultRemoteBars
	}
	parallel, _ := flags.GetInt("parallel")
	exportDir, _ := flags.GetString("export")
	if exportDir != "" {
		if err := os.MkdirAll(exportDir, 0o755); err != nil {
			return err
		}
	}

	m, _ := newMetrics()
	rec := newRecorder(cfg)
	defer rec.Close()

	fetcher := newFetcher(cfg)
	jobs := make([]backtest.Job, 0, len(symbols))
	for _, symbol := range symbols {
		bars, err := fetcher.FetchBars(ctx, symbol, cfg.DataSource.Timeframe, limit)
		if err != nil {
			return fmt.Errorf("load %s: %w", symbol, err)
		}
		log.Info().Str("symbol", symbol).Int("bars", len(bars)).Msg("bars loaded")
		jobs = append(jobs, backtest.Job{Symbol: symbol, Bars: bars})
	}

	// Backtests run without live sentiment so results are reproducible.
	engine := strategy.NewEngine(cfg.Strategy, strategy.WithMetrics(m))

	var (
		mu     sync.Mutex
		ledger []*os.File
	)
	defer func() {
		for _, f := range ledger {
			f.Close()
		}
	}()

	results, err := backtest.RunAll(ctx, jobs, parallel, func(job backtest.Job) (*backtest.Runner, error) {
		r := backtest.NewRunner(engine, cfg.Strategy, cfg.Backtest)
		r.Metrics = m
		if exportDir == "" {
			return r, nil
		}
		f, err := os.Create(exportBase(exportDir, job.Symbol) + "_trades.csv")
		if err != nil {
			return nil, err
		}
		mu.Lock()
		ledger = append(ledger, f)
		mu.Unlock()
		sink, err := backtest.NewCSVLedger(f)
		if err != nil {
			return nil, fmt.Errorf("trade ledger %s: %w", job.Symbol, err)
		}
		r.Sink = sink
		return r, nil
	})
	if err != nil {
		return err
	}

	for _, res := range results {
		fmt.Println(plain(notifier.FormatBacktestReport(res)))
		if err := rec.RecordBacktest(res); err != nil {
			log.Error().Err(err).Str("run_id", res.RunID).Msg("record backtest")
		}
		if exportDir != "" {
			if err := exportEquity(exportDir, res); err != nil {
				return err
			}
		}
	}
	return nil
}

func exportBase(dir, symbol string) string {
	return filepath.Join(dir, strings.ReplaceAll(symbol, "/", "_"))
}

// exportEquity writes the equity curve next to the streamed trade ledger.
func exportEquity(dir string, res *backtest.Result) error {
	f, err := os.Create(exportBase(dir, res.Symbol) + "_equity.csv")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := backtest.WriteEquityCSV(f, res.Equity); err != nil {
		return fmt.Errorf("write equity: %w", err)
	}
	log.Info().Str("symbol", res.Symbol).Str("dir", dir).Int("trades", len(res.Trades)).Msg("backtest exported")
	return nil
}
