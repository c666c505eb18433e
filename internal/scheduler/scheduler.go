package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/mtt80/meteorite.io-ganalytics/internal/domain"
)

// JobRunner executes one report cycle. Failures are absorbed inside the
// runner; the scheduler never sees them.
type JobRunner interface {
	Run(ctx context.Context, source domain.RunSource)
}

// Schedule yields the next fire time after a given instant. Used for the
// optional cron mode.
type Schedule interface {
	Next(after time.Time) time.Time
}

// MetricsSink defines the interface for recording scheduler metrics.
// All methods must be non-blocking and fire-and-forget.
type MetricsSink interface {
	TickStarted()
	TickCompleted(duration time.Duration, err error)
}

type Config struct {
	// Interval between report runs. Ignored when Schedule is set.
	Interval time.Duration

	// Schedule switches the scheduler to cron mode. Optional.
	Schedule Schedule
}

// Scheduler drives the report runner: one run immediately on start, then
// one per interval tick (or per cron fire time) until the context ends.
type Scheduler struct {
	config  Config
	runner  JobRunner
	metrics MetricsSink // optional, nil = disabled
	clock   func() time.Time
}

func New(config Config, runner JobRunner) *Scheduler {
	return &Scheduler{
		config: config,
		runner: runner,
		clock:  time.Now,
	}
}

// WithMetrics attaches a metrics sink to the scheduler.
func (s *Scheduler) WithMetrics(sink MetricsSink) *Scheduler {
	s.metrics = sink
	return s
}

// Run blocks until ctx is cancelled and returns ctx.Err(). The first run
// fires immediately so a fresh deployment posts a report without waiting
// out the interval.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.config.Schedule != nil {
		log.Println("scheduler: started, mode=cron")
	} else {
		log.Printf("scheduler: started, interval=%s", s.config.Interval)
	}

	s.tick(ctx)

	if s.config.Schedule != nil {
		return s.runCron(ctx)
	}
	return s.runInterval(ctx)
}

func (s *Scheduler) runInterval(ctx context.Context) error {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: stopped")
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) runCron(ctx context.Context) error {
	for {
		now := s.clock().UTC()
		next := s.config.Schedule.Next(now)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			log.Println("scheduler: stopped")
			return ctx.Err()
		case <-timer.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.TickStarted()
	}

	s.runner.Run(ctx, domain.RunSourceScheduled)

	if s.metrics != nil {
		s.metrics.TickCompleted(time.Since(start), nil)
	}
}
