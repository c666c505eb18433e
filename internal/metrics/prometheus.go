package metrics

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink implements Sink using the Prometheus client library.
// All methods are non-blocking and fire-and-forget.
// Registration errors are logged but never propagated.
type PrometheusSink struct {
	// Scheduler metrics
	ticksTotal      prometheus.Counter
	tickErrorsTotal prometheus.Counter
	tickDuration    prometheus.Histogram

	// Runner metrics
	runsTotal     *prometheus.CounterVec
	runDuration   prometheus.Histogram
	fetchTotal    *prometheus.CounterVec
	fetchDuration prometheus.Histogram

	// Notifier metrics
	notifyAttemptsTotal *prometheus.CounterVec
	notifyOutcomesTotal *prometheus.CounterVec
	notifyDuration      prometheus.Histogram
}

// NewPrometheusSink creates a new Prometheus metrics sink.
// If registration fails, it logs a warning and returns a functional sink.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	s := &PrometheusSink{}
	s.initSchedulerMetrics(reg)
	s.initRunnerMetrics(reg)
	s.initNotifierMetrics(reg)
	return s
}

func (s *PrometheusSink) initSchedulerMetrics(reg prometheus.Registerer) {
	s.ticksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ganalytics_scheduler_ticks_total",
		Help: "Total number of scheduler ticks fired.",
	})
	s.tickErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ganalytics_scheduler_tick_errors_total",
		Help: "Total number of scheduler tick errors.",
	})
	s.tickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ganalytics_scheduler_tick_duration_seconds",
		Help:    "Duration of each scheduled job run in seconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	s.register(reg, s.ticksTotal, "ganalytics_scheduler_ticks_total")
	s.register(reg, s.tickErrorsTotal, "ganalytics_scheduler_tick_errors_total")
	s.register(reg, s.tickDuration, "ganalytics_scheduler_tick_duration_seconds")
}

func (s *PrometheusSink) initRunnerMetrics(reg prometheus.Registerer) {
	s.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ganalytics_runs_total",
		Help: "Total number of job runs by trigger source.",
	}, []string{"source"})

	s.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ganalytics_run_duration_seconds",
		Help:    "Duration of a full fetch-then-notify cycle in seconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	s.fetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ganalytics_fetch_total",
		Help: "Total number of analytics fetches by outcome.",
	}, []string{"outcome"})

	s.fetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ganalytics_fetch_duration_seconds",
		Help:    "Analytics API request latency in seconds.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	s.register(reg, s.runsTotal, "ganalytics_runs_total")
	s.register(reg, s.runDuration, "ganalytics_run_duration_seconds")
	s.register(reg, s.fetchTotal, "ganalytics_fetch_total")
	s.register(reg, s.fetchDuration, "ganalytics_fetch_duration_seconds")
}

func (s *PrometheusSink) initNotifierMetrics(reg prometheus.Registerer) {
	s.notifyAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ganalytics_notify_attempts_total",
		Help: "Total number of webhook POST attempts by status class.",
	}, []string{"status_class"})

	s.notifyOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ganalytics_notify_outcomes_total",
		Help: "Total number of notify outcomes (success, failed, skipped).",
	}, []string{"outcome"})

	s.notifyDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ganalytics_notify_duration_seconds",
		Help:    "Webhook request latency in seconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	s.register(reg, s.notifyAttemptsTotal, "ganalytics_notify_attempts_total")
	s.register(reg, s.notifyOutcomesTotal, "ganalytics_notify_outcomes_total")
	s.register(reg, s.notifyDuration, "ganalytics_notify_duration_seconds")
}

// register attempts to register a collector, logging any errors without propagating them.
func (s *PrometheusSink) register(reg prometheus.Registerer, c prometheus.Collector, name string) {
	if err := reg.Register(c); err != nil {
		log.Printf("metrics: failed to register %s: %v", name, err)
	}
}

// Scheduler metrics implementation

func (s *PrometheusSink) TickStarted() {
	s.ticksTotal.Inc()
}

func (s *PrometheusSink) TickCompleted(duration time.Duration, err error) {
	s.tickDuration.Observe(duration.Seconds())
	if err != nil {
		s.tickErrorsTotal.Inc()
	}
}

// Runner metrics implementation

func (s *PrometheusSink) RunStarted(source string) {
	s.runsTotal.WithLabelValues(source).Inc()
}

func (s *PrometheusSink) RunCompleted(source string, duration time.Duration) {
	s.runDuration.Observe(duration.Seconds())
}

func (s *PrometheusSink) FetchCompleted(outcome string, duration time.Duration) {
	s.fetchTotal.WithLabelValues(outcome).Inc()
	s.fetchDuration.Observe(duration.Seconds())
}

// Notifier metrics implementation

func (s *PrometheusSink) NotifyAttemptCompleted(statusClass string, duration time.Duration) {
	s.notifyAttemptsTotal.WithLabelValues(statusClass).Inc()
	s.notifyDuration.Observe(duration.Seconds())
}

func (s *PrometheusSink) NotifyOutcome(outcome string) {
	s.notifyOutcomesTotal.WithLabelValues(outcome).Inc()
}
