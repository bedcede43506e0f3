package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"nexa-hq/neurongate/pkg/quota"
	"nexa-hq/neurongate/pkg/session"
	"nexa-hq/neurongate/pkg/telemetry/logging"
)

// UsageHandler serves GET /v1/usage: a read-only projection of the
// caller's quota state. It never mutates counters or refreshes the
// session TTL, so polling it is free.
type UsageHandler struct {
	sessions *session.Manager
	engine   *quota.Engine
	now      func() time.Time
	logger   *slog.Logger
}

// NewUsageHandler creates the usage handler.
func NewUsageHandler(sessions *session.Manager, engine *quota.Engine, now func() time.Time, logger *slog.Logger) *UsageHandler {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UsageHandler{
		sessions: sessions,
		engine:   engine,
		now:      now,
		logger:   logger.With("component", "usage"),
	}
}

// ServeHTTP implements http.Handler.
func (h *UsageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}

	id := r.Header.Get(SessionIDHeader)
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "X-Session-ID header is required")
		return
	}

	rec, err := h.sessions.Load(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context(), h.logger).Error("session load failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "temporary server problem, please retry")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "session_not_found", "unknown or expired session")
		return
	}

	writeJSON(w, http.StatusOK, quota.Report(rec, h.engine.Policy(), h.now()))
}
