package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"RegimeSentinel/internal/backtest"
	"RegimeSentinel/internal/model"
)

func ptr(v float64) *float64 { return &v }

func TestFormatSignal_WithPlan(t *testing.T) {
	sig := model.Signal{
		Symbol:   "BTC/USDT",
		Action:   model.ActionBuy,
		Strength: 65,
		Regime:   model.RegimeTrend,
		Reasons:  []string{"EMA50 crossed above EMA200", "RSI < 30"},
		Market:   model.IndicatorSnapshot{Time: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), Close: 100},
		Plan: model.TradingPlan{
			EntryPrice:      ptr(100),
			StopLossPrice:   ptr(96.5),
			TakeProfitPrice: ptr(107),
			StopLossPct:     ptr(0.035),
			TakeProfitPct:   ptr(0.07),
			RiskRewardRatio: ptr(2),
		},
	}
	msg := FormatSignal(sig)
	for _, want := range []string{"BTC/USDT BUY", "strength 65", "TREND", "2024-05-01 08:00", "Stop: 96.5000 (3.5%)", "R/R: 2.00", "RSI &lt; 30"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatSignal_HoldHasNoPlan(t *testing.T) {
	msg := FormatSignal(model.Signal{Symbol: "ETH/USDT", Action: model.ActionHold, Regime: model.RegimeNeutral})
	if strings.Contains(msg, "Plan") {
		t.Errorf("HOLD message has a plan:\n%s", msg)
	}
}

func TestFormatBacktestReport_InfiniteProfitFactor(t *testing.T) {
	res := &backtest.Result{
		RunID:  "abc",
		Symbol: "SOL/USDT",
		Performance: backtest.Performance{
			InitialCapital: 10000, FinalEquity: 10500, TotalReturnPct: 5,
			TotalTrades: 2, Wins: 2, WinRatePct: 100, ProfitFactor: math.Inf(1),
		},
	}
	msg := FormatBacktestReport(res)
	if !strings.Contains(msg, "Profit factor: ∞") || !strings.Contains(msg, "+5.00%") {
		t.Errorf("report:\n%s", msg)
	}
	if got := FormatProfitFactor(1.5); got != "1.50" {
		t.Errorf("FormatProfitFactor(1.5) = %q", got)
	}
}

func TestFormatStatus(t *testing.T) {
	if msg := FormatStatus(model.MonitorState{}); !strings.Contains(msg, "No bars processed") {
		t.Errorf("empty status:\n%s", msg)
	}
	state := model.MonitorState{Symbols: map[string]model.SymbolState{
		"ETH/USDT": {LastAction: model.ActionSell, LastStrength: 40, LastPrice: 3000},
		"BTC/USDT": {LastAction: model.ActionBuy, LastStrength: 70, LastPrice: 60000},
	}}
	msg := FormatStatus(state)
	if strings.Index(msg, "BTC/USDT") > strings.Index(msg, "ETH/USDT") {
		t.Errorf("symbols not sorted:\n%s", msg)
	}
}

func TestTelegramNotifier_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	if err := n.Notify(context.Background(), "hello"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got["chat_id"] != "42" || got["text"] != "hello" || got["parse_mode"] != "HTML" {
		t.Errorf("payload = %v", got)
	}
}

func TestTelegramNotifier_SendWithRetryExhausts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	err := n.SendWithRetry(context.Background(), "hi", 0)
	if err == nil || !strings.Contains(err.Error(), "status 502") {
		t.Fatalf("err = %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestTelegramNotifier_PollingRepliesToCommands(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var polls int32
	replies := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if atomic.AddInt32(&polls, 1) == 1 {
				fmt.Fprint(w, `{"ok":true,"result":[{"update_id":7,"message":{"text":" /status "}},{"update_id":8}]}`)
				return
			}
			if r.URL.Query().Get("offset") != "9" {
				t.Errorf("offset = %s, want 9", r.URL.Query().Get("offset"))
			}
			fmt.Fprint(w, `{"ok":true,"result":[]}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			replies <- body["text"]
			cancel()
			fmt.Fprint(w, `{"ok":true}`)
		}
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL

	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(_ context.Context, cmd string) string { return "got " + cmd })
		close(done)
	}()

	select {
	case reply := <-replies:
		if reply != "got /status" {
			t.Errorf("reply = %q", reply)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop after cancel")
	}
}

func TestLogNotifier(t *testing.T) {
	if err := (LogNotifier{}).Notify(context.Background(), "x"); err != nil {
		t.Error(err)
	}
}
