package runner

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mtt80/meteorite.io-ganalytics/internal/domain"
	"github.com/mtt80/meteorite.io-ganalytics/internal/metrics"
)

// fetchErrorPrefix makes fetch failures chat-visible: the error text is
// posted to the channel instead of being dropped.
const fetchErrorPrefix = "Error fetching analytics data: "

type Fetcher interface {
	Fetch(ctx context.Context) (domain.Report, error)
}

// Notifier posts a digest. Implementations absorb their own failures; the
// result exists for logging only and never changes control flow here.
type Notifier interface {
	Notify(ctx context.Context, message string) domain.DeliveryResult
}

// RunLog records run outcomes as a best-effort side-effect.
type RunLog interface {
	Record(ctx context.Context, event domain.RunEvent, outcome string) error
}

// MetricsSink defines the interface for recording runner metrics.
// All methods must be non-blocking and fire-and-forget.
type MetricsSink interface {
	RunStarted(source string)
	RunCompleted(source string, duration time.Duration)
	FetchCompleted(outcome string, duration time.Duration)
}

// Runner composes Fetcher and Notifier into one unit of work: one run is
// one fetch-then-notify cycle. It keeps no state between runs and is safe
// for concurrent invocation; a manual trigger racing a scheduled tick just
// produces two independent posts.
type Runner struct {
	fetcher  Fetcher
	notifier Notifier
	metrics  MetricsSink // optional, nil = disabled
	runlog   RunLog      // optional, nil = disabled
	clock    func() time.Time
}

func New(fetcher Fetcher, notifier Notifier) *Runner {
	return &Runner{
		fetcher:  fetcher,
		notifier: notifier,
		clock:    time.Now,
	}
}

// WithMetrics attaches a metrics sink to the runner.
func (r *Runner) WithMetrics(sink MetricsSink) *Runner {
	r.metrics = sink
	return r
}

// WithRunLog attaches a run-log sink to the runner.
func (r *Runner) WithRunLog(sink RunLog) *Runner {
	r.runlog = sink
	return r
}

// Run executes one fetch-then-notify cycle. The notifier is invoked
// unconditionally: on fetch failure the digest carries the error text, so
// the channel always hears something. Callers cannot observe success or
// failure except via logs.
func (r *Runner) Run(ctx context.Context, source domain.RunSource) {
	start := r.clock().UTC()
	event := domain.RunEvent{ID: uuid.New(), Source: source, StartedAt: start}

	log.Printf("runner: run=%s started (source=%s)", event.ID, source)
	if r.metrics != nil {
		r.metrics.RunStarted(string(source))
	}

	digest, outcome := r.buildDigest(ctx)
	delivery := r.notifier.Notify(ctx, digest)
	r.writeRunLog(ctx, event, outcome)

	duration := r.clock().UTC().Sub(start)
	if r.metrics != nil {
		r.metrics.RunCompleted(string(source), duration)
	}
	log.Printf("runner: run=%s finished (source=%s, outcome=%s, delivered=%t, duration=%s)",
		event.ID, source, outcome, delivery.IsSuccess(), duration)
}

// buildDigest fetches the report and renders it. A fetch error is folded
// into a non-empty, human-readable digest rather than returned; the run
// always proceeds to the notify step.
func (r *Runner) buildDigest(ctx context.Context) (digest, outcome string) {
	fetchStart := time.Now()
	report, err := r.fetcher.Fetch(ctx)
	fetchDuration := time.Since(fetchStart)

	if err != nil {
		log.Printf("runner: fetch error: %v", err)
		if r.metrics != nil {
			r.metrics.FetchCompleted(metrics.OutcomeError, fetchDuration)
		}
		return fetchErrorPrefix + err.Error(), domain.RunOutcomeFetchError
	}

	if r.metrics != nil {
		r.metrics.FetchCompleted(metrics.OutcomeSuccess, fetchDuration)
	}
	return report.Digest(), domain.RunOutcomeSuccess
}

func (r *Runner) writeRunLog(ctx context.Context, event domain.RunEvent, outcome string) {
	if r.runlog == nil {
		return
	}
	if err := r.runlog.Record(ctx, event, outcome); err != nil {
		log.Printf("runner: run log write failed: %v", err)
	}
}
