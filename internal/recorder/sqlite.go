package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"RegimeSentinel/internal/backtest"
	"RegimeSentinel/internal/model"
)

// SQLiteRecorder persists signals and backtest runs to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the monitor writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at INTEGER NOT NULL,
			bar_time    INTEGER NOT NULL,
			symbol      TEXT NOT NULL,
			action      TEXT NOT NULL,
			strength    INTEGER,
			regime      TEXT,
			price       REAL,
			rsi         REAL,
			adx         REAL,
			bbw         REAL,
			stop_loss   REAL,
			take_profit REAL,
			reasons     TEXT,
			source      TEXT,
			market_json TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_symbol_bar ON signals(symbol, bar_time)`,

		`CREATE TABLE IF NOT EXISTS backtest_runs (
			run_id            TEXT PRIMARY KEY,
			recorded_at       INTEGER NOT NULL,
			symbol            TEXT NOT NULL,
			start_time        INTEGER,
			end_time          INTEGER,
			initial_capital   REAL,
			final_equity      REAL,
			total_return_pct  REAL,
			annual_return_pct REAL,
			max_drawdown_pct  REAL,
			total_trades      INTEGER,
			wins              INTEGER,
			losses            INTEGER,
			win_rate_pct      REAL,
			profit_factor     REAL,
			sharpe_ratio      REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol ON backtest_runs(symbol)`,

		`CREATE TABLE IF NOT EXISTS backtest_trades (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id          TEXT NOT NULL REFERENCES backtest_runs(run_id),
			seq             INTEGER NOT NULL,
			type            TEXT NOT NULL,
			timestamp       INTEGER NOT NULL,
			price           REAL,
			size            REAL,
			cost            REAL,
			value           REAL,
			commission      REAL,
			profit          REAL,
			profit_pct      REAL,
			signal_strength INTEGER,
			reasons         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_run ON backtest_trades(run_id, seq)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func optional(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

// finite stores +Inf profit factors as NULL.
func finite(v float64) sql.NullFloat64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func (r *SQLiteRecorder) RecordSignal(evt *SignalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sig := evt.Signal
	m := sig.Market
	market, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode market data: %w", err)
	}
	at := evt.At
	if at.IsZero() {
		at = time.Now()
	}

	_, err = r.db.Exec(`INSERT INTO signals
		(recorded_at, bar_time, symbol, action, strength, regime, price, rsi, adx, bbw,
		 stop_loss, take_profit, reasons, source, market_json)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		at.Unix(), m.Time.Unix(), sig.Symbol, string(sig.Action), sig.Strength, string(sig.Regime),
		m.Close, m.RSI, m.ADX, m.BBW,
		optional(sig.Plan.StopLossPrice), optional(sig.Plan.TakeProfitPrice),
		strings.Join(sig.Reasons, "; "), evt.Source, string(market),
	)
	return err
}

// RecordBacktest stores the run summary and its full ledger in one transaction.
func (r *SQLiteRecorder) RecordBacktest(res *backtest.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	p := res.Performance
	if _, err := tx.Exec(`INSERT INTO backtest_runs
		(run_id, recorded_at, symbol, start_time, end_time, initial_capital, final_equity,
		 total_return_pct, annual_return_pct, max_drawdown_pct, total_trades, wins, losses,
		 win_rate_pct, profit_factor, sharpe_ratio)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		res.RunID, time.Now().Unix(), res.Symbol, res.Start.Unix(), res.End.Unix(),
		p.InitialCapital, p.FinalEquity, p.TotalReturnPct, p.AnnualReturnPct, p.MaxDrawdownPct,
		p.TotalTrades, p.Wins, p.Losses, p.WinRatePct, finite(p.ProfitFactor), p.SharpeRatio,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO backtest_trades
		(run_id, seq, type, timestamp, price, size, cost, value, commission, profit, profit_pct,
		 signal_strength, reasons)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, t := range res.Trades {
		if _, err := stmt.Exec(res.RunID, i, string(t.Type), t.Time.Unix(), t.Price, t.Size,
			t.Cost, t.Value, t.Commission, t.Profit, t.ProfitPct, t.SignalStrength,
			strings.Join(t.Reasons, "; ")); err != nil {
			return fmt.Errorf("insert trade %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// RecentSignals returns the newest stored signals for symbol, newest first.
func (r *SQLiteRecorder) RecentSignals(symbol string, limit int) ([]SignalRow, error) {
	rows, err := r.db.Query(`SELECT symbol, bar_time, action, strength, regime, price, reasons, source
		FROM signals WHERE symbol = ? ORDER BY bar_time DESC, id DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SignalRow
	for rows.Next() {
		var (
			row     SignalRow
			barTime int64
			action  string
			regime  string
		)
		if err := rows.Scan(&row.Symbol, &barTime, &action, &row.Strength, &regime, &row.Price, &row.Reasons, &row.Source); err != nil {
			return nil, err
		}
		row.BarTime = time.Unix(barTime, 0).UTC()
		row.Action = model.Action(action)
		row.Regime = model.Regime(regime)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
