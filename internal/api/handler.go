// Package api provides the bot's HTTP health endpoints.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/assisterr/bug-report-bot/internal/journal"
	"github.com/assisterr/bug-report-bot/internal/session"
)

const healthCheckTimeout = 5 * time.Second

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Identity is the bot account the process is running as.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// HealthHandler reports liveness of the bot and its local journal.
type HealthHandler struct {
	journal  journal.Repository
	sessions *session.Store
	identity Identity
}

// NewHealthHandler creates a new health handler. journal may be nil when
// local recording is disabled.
func NewHealthHandler(j journal.Repository, sessions *session.Store, identity Identity) *HealthHandler {
	return &HealthHandler{journal: j, sessions: sessions, identity: identity}
}

// Health returns the health status of the bot and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := map[string]interface{}{
		"status": "healthy",
		"checks": map[string]string{"bot": "ok"},
	}
	statusCode := http.StatusOK

	if h.journal != nil {
		if err := h.journal.Ping(ctx); err != nil {
			slog.Error("Health check failed", "error", err)
			status["status"] = "degraded"
			status["checks"].(map[string]string)["journal"] = "unreachable"
			statusCode = http.StatusServiceUnavailable
		} else {
			status["checks"].(map[string]string)["journal"] = "ok"
		}
	}

	JSON(w, statusCode, status)
}

// Details adds the bot identity and conversation load to the health view.
func (h *HealthHandler) Details(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"bot":             h.identity,
		"active_sessions": h.sessions.Len(),
	})
}

// RegisterHealth registers the health check routes.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/health/details", h.Details)
}
