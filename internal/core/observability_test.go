package core

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if rec.Name() == "" {
		t.Fatalf("expected generated expvar name")
	}
	ctx := context.Background()
	rec.Observe(ctx, "trade_fish", true, 20*time.Millisecond)
	rec.Observe(ctx, "trade_fish", true, 30*time.Millisecond)
	rec.Observe(ctx, "trade_fish", false, 5*time.Millisecond)
	rec.Observe(ctx, "catch_fish", true, time.Millisecond)

	snap := rec.Snapshot()
	if got := snap.Results["trade_fish"]["success"]; got != 2 {
		t.Fatalf("trade_fish success = %d, want 2", got)
	}
	if got := snap.Results["trade_fish"]["error"]; got != 1 {
		t.Fatalf("trade_fish error = %d, want 1", got)
	}
	if got := snap.DurationsMS["trade_fish"]; got != 55 {
		t.Fatalf("trade_fish duration total = %v, want 55", got)
	}
	if got := snap.Results["catch_fish"]["success"]; got != 1 {
		t.Fatalf("catch_fish success = %d, want 1", got)
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	ctx := context.Background()
	rec.Observe(ctx, "trade_fish", true, 10*time.Millisecond)
	rec.Observe(ctx, "trade_fish", false, 10*time.Millisecond)

	if got := testutil.ToFloat64(rec.results.WithLabelValues("trade_fish", "success")); got != 1 {
		t.Fatalf("success counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.results.WithLabelValues("trade_fish", "error")); got != 1 {
		t.Fatalf("error counter = %v, want 1", got)
	}

	// Double registration of the same collectors must fail loudly.
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}
