package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_CountsSignals(t *testing.T) {
	r := New(prometheus.NewRegistry())
	r.RecordSignal("BTC/USDT", "BUY", "TREND")
	r.RecordSignal("BTC/USDT", "BUY", "TREND")
	r.RecordSignal("BTC/USDT", "HOLD", "RANGE")

	if got := testutil.ToFloat64(r.signals.WithLabelValues("BTC/USDT", "BUY", "TREND")); got != 2 {
		t.Errorf("expected 2 BUY signals, got %.0f", got)
	}
	if got := testutil.ToFloat64(r.signals.WithLabelValues("BTC/USDT", "HOLD", "RANGE")); got != 1 {
		t.Errorf("expected 1 HOLD signal, got %.0f", got)
	}
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	r.RecordSignal("X", "BUY", "TREND")
	r.RecordSentimentFallback("X", "error")
	r.RecordLastPrice("X", 1)
	r.RecordTrade("X", "BUY")
	r.RecordBacktestReturn("X", 1)
	r.RecordLatency("op", 0.1)
}
