package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/mtt80/meteorite.io-ganalytics/internal/domain"
	"github.com/mtt80/meteorite.io-ganalytics/internal/metrics"
)

// MetricsSink defines the interface for recording notifier metrics.
// All methods must be non-blocking and fire-and-forget.
type MetricsSink interface {
	NotifyAttemptCompleted(statusClass string, duration time.Duration)
	NotifyOutcome(outcome string)
}

type payload struct {
	Content string `json:"content"`
}

// maxResponseBodySize bounds how much of a failure response is logged.
const maxResponseBodySize = 4 << 10

// Discord posts digest messages to a Discord incoming webhook.
// It is stateless and safe for concurrent use.
type Discord struct {
	webhookURL string
	client     *http.Client
	timeout    time.Duration
	metrics    MetricsSink // optional, nil = disabled
}

func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		client:     &http.Client{},
		timeout:    15 * time.Second,
	}
}

// WithTimeout sets the per-notify timeout.
func (d *Discord) WithTimeout(t time.Duration) *Discord {
	if t > 0 {
		d.timeout = t
	}
	return d
}

// WithMetrics attaches a metrics sink to the notifier.
func (d *Discord) WithMetrics(sink MetricsSink) *Discord {
	d.metrics = sink
	return d
}

// WithHTTPClient replaces the HTTP client. Used by tests.
func (d *Discord) WithHTTPClient(c *http.Client) *Discord {
	d.client = c
	return d
}

// Notify posts the message to the webhook. An empty message is skipped
// silently with no network call. All failures (bad status, transport error)
// are logged and absorbed here; there is no retry and no escalation.
func (d *Discord) Notify(ctx context.Context, message string) domain.DeliveryResult {
	if message == "" {
		if d.metrics != nil {
			d.metrics.NotifyOutcome(metrics.OutcomeSkipped)
		}
		return domain.DeliveryResult{Skipped: true}
	}

	result := d.post(ctx, message)

	if d.metrics != nil {
		d.metrics.NotifyAttemptCompleted(metrics.ClassifyStatus(result.StatusCode, result.Err), result.Duration)
		if result.IsSuccess() {
			d.metrics.NotifyOutcome(metrics.OutcomeSuccess)
		} else {
			d.metrics.NotifyOutcome(metrics.OutcomeFailed)
		}
	}

	return result
}

func (d *Discord) post(ctx context.Context, message string) domain.DeliveryResult {
	start := time.Now()

	body, err := json.Marshal(payload{Content: message})
	if err != nil {
		log.Printf("notifier: marshal error: %v", err)
		return domain.DeliveryResult{Err: fmt.Errorf("marshal: %w", err), Duration: time.Since(start)}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		log.Printf("notifier: create request error: %v", err)
		return domain.DeliveryResult{Err: fmt.Errorf("create request: %w", err), Duration: time.Since(start)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(httpReq)
	if err != nil {
		log.Printf("notifier: send error: %v", err)
		return domain.DeliveryResult{Err: fmt.Errorf("send: %w", err), Duration: time.Since(start)}
	}
	defer resp.Body.Close()

	result := domain.DeliveryResult{StatusCode: resp.StatusCode, Duration: time.Since(start)}

	if result.IsSuccess() {
		log.Printf("notifier: message delivered (status=%d)", resp.StatusCode)
	} else {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
		log.Printf("notifier: delivery failed status=%d body=%s", resp.StatusCode, respBody)
	}

	return result
}
