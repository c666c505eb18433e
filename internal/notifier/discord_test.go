package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestDiscord_Notify_EmptyMessageSkips(t *testing.T) {
	var calls int
	var mu sync.Mutex

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	d := NewDiscord(server.URL)
	result := d.Notify(context.Background(), "")

	if !result.Skipped {
		t.Error("empty message should be skipped")
	}
	if result.Err != nil {
		t.Errorf("skip should carry no error, got %v", result.Err)
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Errorf("empty message made %d network calls, want 0", calls)
	}
}

func TestDiscord_Notify_Success204(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	d := NewDiscord(server.URL)
	result := d.Notify(context.Background(), "hello")

	if !result.IsSuccess() {
		t.Errorf("204 should be success, got %+v", result)
	}
	if result.Duration <= 0 {
		t.Error("duration should be positive")
	}
}

func TestDiscord_Notify_OnlyNoContentIsSuccess(t *testing.T) {
	// 200 from a webhook is not the success signal; only 204 is.
	tests := []int{200, 400, 401, 404, 429, 500, 503}

	for _, status := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		d := NewDiscord(server.URL)
		result := d.Notify(context.Background(), "hello")
		server.Close()

		if result.IsSuccess() {
			t.Errorf("status %d should not be success", status)
		}
		if result.Err != nil {
			t.Errorf("status %d should not set Err (no escalation), got %v", status, result.Err)
		}
		if result.StatusCode != status {
			t.Errorf("StatusCode = %d, want %d", result.StatusCode, status)
		}
	}
}

func TestDiscord_Notify_RequestBody(t *testing.T) {
	var gotBody []byte
	var gotContentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	message := "🌍 GA4 Analytics Report:\nUS: 120 users\nDE: 45 users\n"
	d := NewDiscord(server.URL)
	d.Notify(context.Background(), message)

	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}

	var p payload
	if err := json.Unmarshal(gotBody, &p); err != nil {
		t.Fatalf("failed to unmarshal body: %v", err)
	}
	if p.Content != message {
		t.Errorf("content = %q, want %q", p.Content, message)
	}
}

func TestDiscord_Notify_TransportErrorAbsorbed(t *testing.T) {
	d := NewDiscord("http://localhost:1").WithTimeout(time.Second)
	result := d.Notify(context.Background(), "hello")

	if result.Err == nil {
		t.Error("expected transport error recorded in result")
	}
	if result.IsSuccess() {
		t.Error("transport error should not be success")
	}
	// The call itself must return normally; reaching this line is the test.
}

type recordingSink struct {
	mu       sync.Mutex
	attempts []string
	outcomes []string
}

func (s *recordingSink) NotifyAttemptCompleted(statusClass string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, statusClass)
}

func (s *recordingSink) NotifyOutcome(outcome string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, outcome)
}

func TestDiscord_Notify_MetricsOutcomes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sink := &recordingSink{}
	d := NewDiscord(server.URL).WithMetrics(sink)

	d.Notify(context.Background(), "hello")
	d.Notify(context.Background(), "")

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.attempts) != 1 || sink.attempts[0] != "2xx" {
		t.Errorf("attempts = %v, want [2xx]", sink.attempts)
	}
	if len(sink.outcomes) != 2 || sink.outcomes[0] != "success" || sink.outcomes[1] != "skipped" {
		t.Errorf("outcomes = %v, want [success skipped]", sink.outcomes)
	}
}

func TestDiscord_Notify_FailureOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	sink := &recordingSink{}
	d := NewDiscord(server.URL).WithMetrics(sink)
	d.Notify(context.Background(), "hello")

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.outcomes) != 1 || sink.outcomes[0] != "failed" {
		t.Errorf("outcomes = %v, want [failed]", sink.outcomes)
	}
}
