package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nexa-hq/neurongate/pkg/kvstore"
)

// readinessProbeTimeout bounds each dependency probe.
const readinessProbeTimeout = 5 * time.Second

// HealthChecker is implemented by dependencies that can report their own
// health, such as the inference client.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves GET /healthz: process liveness only.
type HealthHandler struct{}

// NewHealthHandler creates the liveness handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// ServeHTTP implements http.Handler.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler serves GET /readyz: the gateway is ready when the
// key-value store answers and the model endpoint (if it exposes a health
// check) is reachable.
type ReadyHandler struct {
	store    kvstore.Store
	upstream HealthChecker
	logger   *slog.Logger
}

// NewReadyHandler creates the readiness handler. upstream may be nil when
// the generator exposes no health check.
func NewReadyHandler(store kvstore.Store, upstream HealthChecker, logger *slog.Logger) *ReadyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadyHandler{
		store:    store,
		upstream: upstream,
		logger:   logger.With("component", "ready"),
	}
}

// ServeHTTP implements http.Handler.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessProbeTimeout)
	defer cancel()

	checks := map[string]string{}
	ready := true

	// A read on a never-written key exercises the backend without
	// mutating anything.
	if _, _, err := h.store.Get(ctx, "readyz:probe"); err != nil {
		h.logger.Warn("store probe failed", "error", err)
		checks["store"] = "unavailable"
		ready = false
	} else {
		checks["store"] = "ok"
	}

	if h.upstream != nil {
		if err := h.upstream.HealthCheck(ctx); err != nil {
			h.logger.Warn("upstream probe failed", "error", err)
			checks["inference"] = "unavailable"
			ready = false
		} else {
			checks["inference"] = "ok"
		}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, checks)
}
