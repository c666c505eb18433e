package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Verify both sinks satisfy the interface.
var (
	_ Sink = (*PrometheusSink)(nil)
	_ Sink = (*NoopSink)(nil)
)

func gatherNames(t *testing.T, reg *prometheus.Registry) map[string]bool {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	return names
}

func TestPrometheusSink_RegistersAllMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPrometheusSink(reg)

	// Touch every series so vectors materialize.
	sink.TickStarted()
	sink.TickCompleted(time.Second, errors.New("boom"))
	sink.RunStarted("scheduled")
	sink.RunCompleted("scheduled", time.Second)
	sink.FetchCompleted(OutcomeSuccess, 100*time.Millisecond)
	sink.NotifyAttemptCompleted(StatusClass2xx, 50*time.Millisecond)
	sink.NotifyOutcome(OutcomeSuccess)

	names := gatherNames(t, reg)
	want := []string{
		"ganalytics_scheduler_ticks_total",
		"ganalytics_scheduler_tick_errors_total",
		"ganalytics_scheduler_tick_duration_seconds",
		"ganalytics_runs_total",
		"ganalytics_run_duration_seconds",
		"ganalytics_fetch_total",
		"ganalytics_fetch_duration_seconds",
		"ganalytics_notify_attempts_total",
		"ganalytics_notify_outcomes_total",
		"ganalytics_notify_duration_seconds",
	}
	for _, name := range want {
		if !names[name] {
			t.Errorf("metric %s not registered", name)
		}
	}
}

func TestPrometheusSink_TickErrorCounted(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPrometheusSink(reg)

	sink.TickCompleted(time.Second, nil)
	sink.TickCompleted(time.Second, errors.New("boom"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "ganalytics_scheduler_tick_errors_total" {
			got := mf.GetMetric()[0].GetCounter().GetValue()
			if got != 1 {
				t.Errorf("tick_errors_total = %v, want 1", got)
			}
			return
		}
	}
	t.Fatal("tick_errors_total not found")
}

func TestPrometheusSink_DoubleRegistrationDoesNotPanic(t *testing.T) {
	reg := prometheus.NewRegistry()

	// Second sink against the same registry collides on every name; the
	// sink logs and continues rather than panicking.
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("double registration panicked: %v", r)
		}
	}()
	NewPrometheusSink(reg)
	NewPrometheusSink(reg)
}

func TestNoopSink_AllMethodsSafe(t *testing.T) {
	sink := NewNoopSink()

	sink.TickStarted()
	sink.TickCompleted(time.Second, errors.New("boom"))
	sink.RunStarted("manual")
	sink.RunCompleted("manual", time.Second)
	sink.FetchCompleted(OutcomeError, time.Second)
	sink.NotifyAttemptCompleted(StatusClass5xx, time.Second)
	sink.NotifyOutcome(OutcomeFailed)
}

func TestOutcomeConstants(t *testing.T) {
	for _, tc := range []struct{ got, want string }{
		{OutcomeSuccess, "success"},
		{OutcomeFailed, "failed"},
		{OutcomeSkipped, "skipped"},
		{OutcomeError, "error"},
	} {
		if tc.got != tc.want {
			t.Errorf("outcome constant = %q, want %q", tc.got, tc.want)
		}
	}
	if !strings.HasPrefix(StatusClass2xx, "2") {
		t.Errorf("unexpected StatusClass2xx %q", StatusClass2xx)
	}
}
