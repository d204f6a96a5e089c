// Package api contains the HTTP handlers for the campaign editor service
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"campaign-editor/backend/internal/logging"
	"campaign-editor/backend/internal/services"
)

// Version is reported by the health check.
const Version = "1.0.0"

// Pinger checks a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler contains HTTP handlers for the campaign editor REST API
type Handler struct {
	sessions *services.SessionService
	store    Pinger
	logger   *logging.Logger
}

// NewHandler creates a new Handler with required dependencies. store may be
// nil when no database is configured.
func NewHandler(sessions *services.SessionService, store Pinger, logger *logging.Logger) *Handler {
	return &Handler{sessions: sessions, store: store, logger: logger}
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
	Service      string    `json:"service"`
	Version      string    `json:"version"`
	OpenSessions int       `json:"openSessions"`
	Store        string    `json:"store,omitempty"`
}

// HandleHealth returns the service status. It answers 503 only when the
// configured database cannot be reached.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Service:   "campaign-editor",
		Version:   Version,
	}
	if h.sessions != nil {
		status.OpenSessions = h.sessions.Len()
	}

	code := http.StatusOK
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		status.Store = "ok"
		if err := h.store.Ping(ctx); err != nil {
			h.logger.Warn("health check: store unreachable", "error", err)
			status.Status = "degraded"
			status.Store = "unreachable"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, status)
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encoding failure cannot change the answer.
	_ = json.NewEncoder(w).Encode(data)
}

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
	// Errors maps invalid form fields to their message.
	Errors map[string]string `json:"errors,omitempty"`
}
