package backtest

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"RegimeSentinel/internal/model"
)

var tradeHeader = []string{
	"type", "timestamp", "price", "size", "cost", "value",
	"commission", "profit", "profit_pct", "signal_strength", "reasons",
}

// CSVLedger is a TradeSink that flushes every row, so a failed run
// still leaves the trades written up to the failure.
type CSVLedger struct {
	mu sync.Mutex
	w  *csv.Writer
}

// NewCSVLedger writes the header and returns the ledger.
func NewCSVLedger(w io.Writer) (*CSVLedger, error) {
	l := &CSVLedger{w: csv.NewWriter(w)}
	if err := l.w.Write(tradeHeader); err != nil {
		return nil, err
	}
	l.w.Flush()
	return l, l.w.Error()
}

func (l *CSVLedger) WriteTrade(t model.Trade) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.w.Write(tradeRow(t)); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

// WriteTradesCSV writes a complete ledger.
func WriteTradesCSV(w io.Writer, trades []model.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tradeHeader); err != nil {
		return err
	}
	for _, t := range trades {
		if err := cw.Write(tradeRow(t)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEquityCSV writes the equity curve as timestamp,equity,price rows.
func WriteEquityCSV(w io.Writer, equity []model.EquityPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "equity", "price"}); err != nil {
		return err
	}
	for _, p := range equity {
		if err := cw.Write([]string{p.Time.UTC().Format(time.RFC3339), ftoa(p.Equity), ftoa(p.Price)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// tradeRow leaves SELL-only columns empty on BUY rows and the cost empty on SELL rows.
func tradeRow(t model.Trade) []string {
	row := []string{
		string(t.Type),
		t.Time.UTC().Format(time.RFC3339),
		ftoa(t.Price),
		ftoa(t.Size),
		"", "",
		ftoa(t.Commission),
		"", "",
		strconv.Itoa(t.SignalStrength),
		strings.Join(t.Reasons, "; "),
	}
	if t.Type == model.TradeBuy {
		row[4] = ftoa(t.Cost)
	} else {
		row[5] = ftoa(t.Value)
		row[7] = ftoa(t.Profit)
		row[8] = ftoa(t.ProfitPct)
	}
	return row
}

func ftoa(x float64) string { return strconv.FormatFloat(x, 'f', 8, 64) }
