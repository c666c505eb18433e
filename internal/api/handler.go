package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/mtt80/meteorite.io-ganalytics/internal/domain"
)

const (
	livenessBody = "GA4 Analytics Reporter is running.\n"
	triggerBody  = "Triggered!"
)

// TriggerRunner executes one report cycle on demand. Failures are absorbed
// inside the runner, so a trigger always succeeds from the caller's view.
type TriggerRunner interface {
	Run(ctx context.Context, source domain.RunSource)
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status string `json:"status"`
}

type Handler struct {
	runner TriggerRunner
}

func NewHandler(runner TriggerRunner) *Handler {
	return &Handler{runner: runner}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case path == "/" && r.Method == http.MethodGet:
		h.liveness(w, r)

	case path == "/trigger" && r.Method == http.MethodGet:
		h.trigger(w, r)

	case path == "/health" && r.Method == http.MethodGet:
		h.health(w, r)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) liveness(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, livenessBody)
}

// trigger runs a report cycle synchronously and always answers 200. The
// report outcome is deliberately invisible here; it lands in the Discord
// channel and the logs.
func (h *Handler) trigger(w http.ResponseWriter, r *http.Request) {
	log.Println("api: manual trigger")
	h.runner.Run(r.Context(), domain.RunSourceManual)
	writeText(w, http.StatusOK, triggerBody)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		log.Printf("api: write error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: json encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
