package runlog

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mtt80/meteorite.io-ganalytics/internal/domain"
)

const (
	keyPrefix  = "ganalytics:runs"
	lastRunKey = "ganalytics:last_run"
)

// RedisSink keeps a lightweight operational trail of job runs: one counter
// per (outcome, day) plus the timestamp of the most recent run. It is a
// best-effort side channel; the job itself stores nothing.
type RedisSink struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisSink(client *redis.Client, retention time.Duration) *RedisSink {
	return &RedisSink{client: client, retention: retention}
}

func (s *RedisSink) Record(ctx context.Context, event domain.RunEvent, outcome string) error {
	day := event.StartedAt.UTC().Format("20060102")
	key := fmt.Sprintf("%s:%s:%s", keyPrefix, outcome, day)

	pipe := s.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.retention)
	pipe.Set(ctx, lastRunKey, event.StartedAt.UTC().Format(time.RFC3339), s.retention)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}
