package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mtt80/meteorite.io-ganalytics/internal/domain"
)

type mockRunner struct {
	mu      sync.Mutex
	sources []domain.RunSource
}

func (m *mockRunner) Run(ctx context.Context, source domain.RunSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = append(m.sources, source)
}

func (m *mockRunner) calls() []domain.RunSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.RunSource(nil), m.sources...)
}

func TestHandler_Liveness(t *testing.T) {
	runner := &mockRunner{}
	handler := NewHandler(runner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "GA4 Analytics Reporter is running.\n" {
		t.Errorf("body = %q, want liveness text", got)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q, want text/plain", ct)
	}
	if len(runner.calls()) != 0 {
		t.Error("liveness must not trigger a report run")
	}
}

func TestHandler_Trigger(t *testing.T) {
	runner := &mockRunner{}
	handler := NewHandler(runner)

	req := httptest.NewRequest(http.MethodGet, "/trigger", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "Triggered!" {
		t.Errorf("body = %q, want %q", got, "Triggered!")
	}

	calls := runner.calls()
	if len(calls) != 1 {
		t.Fatalf("runner called %d times, want 1", len(calls))
	}
	if calls[0] != domain.RunSourceManual {
		t.Errorf("run source = %q, want %q", calls[0], domain.RunSourceManual)
	}
}

func TestHandler_TriggerRunsSynchronously(t *testing.T) {
	// The runner must complete before the response is written; a caller that
	// sees "Triggered!" knows the run already happened.
	var ranBeforeResponse bool
	runner := &orderCheckingRunner{flag: &ranBeforeResponse}
	handler := NewHandler(runner)

	req := httptest.NewRequest(http.MethodGet, "/trigger", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !ranBeforeResponse {
		t.Error("runner did not complete before the response")
	}
}

type orderCheckingRunner struct {
	flag *bool
}

func (r *orderCheckingRunner) Run(ctx context.Context, source domain.RunSource) {
	*r.flag = true
}

func TestHandler_Health(t *testing.T) {
	handler := NewHandler(&mockRunner{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status field = %q, want ok", resp.Status)
	}
}

func TestHandler_Routing(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"unknown path", http.MethodGet, "/nope", http.StatusNotFound},
		{"post to liveness", http.MethodPost, "/", http.StatusNotFound},
		{"post to trigger", http.MethodPost, "/trigger", http.StatusNotFound},
		{"delete health", http.MethodDelete, "/health", http.StatusNotFound},
		{"trigger subpath", http.MethodGet, "/trigger/now", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockRunner{}
			handler := NewHandler(runner)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if len(runner.calls()) != 0 {
				t.Error("rejected request must not trigger a run")
			}

			var resp ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if resp.Error == "" {
				t.Error("error body must carry a message")
			}
		})
	}
}
