package domain

import (
	"net/http"
	"time"
)

// DeliveryResult describes one webhook notify call. It exists for logs,
// metrics and tests; callers never branch on it, because delivery failures
// are absorbed by the notifier and not escalated.
type DeliveryResult struct {
	Skipped    bool
	StatusCode int
	Err        error
	Duration   time.Duration
}

// IsSuccess reports whether the webhook accepted the message.
// Discord answers an incoming webhook with 204 No Content; nothing else counts.
func (r DeliveryResult) IsSuccess() bool {
	return !r.Skipped && r.Err == nil && r.StatusCode == http.StatusNoContent
}
