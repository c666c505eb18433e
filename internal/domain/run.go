package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunSource identifies what started a job run.
type RunSource string

const (
	RunSourceScheduled RunSource = "scheduled"
	RunSourceManual    RunSource = "manual"
)

// Run outcomes. A run that fetched and posted a digest is a success even if
// the webhook rejected it; delivery failures are visible only in logs.
const (
	RunOutcomeSuccess    = "success"
	RunOutcomeFetchError = "fetch_error"
)

// RunEvent records that one fetch-then-notify cycle started.
type RunEvent struct {
	ID        uuid.UUID
	Source    RunSource
	StartedAt time.Time
}
