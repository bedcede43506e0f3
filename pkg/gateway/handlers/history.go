package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"nexa-hq/neurongate/pkg/history"
	"nexa-hq/neurongate/pkg/telemetry/logging"
)

// defaultHistoryPageSize is the page size when the query names none.
const defaultHistoryPageSize = 50

// HistoryHandler serves GET /v1/history: a paginated, chronological view
// of the session's transcript.
type HistoryHandler struct {
	history *history.Store
	logger  *slog.Logger
}

// NewHistoryHandler creates the history handler.
func NewHistoryHandler(hist *history.Store, logger *slog.Logger) *HistoryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryHandler{
		history: hist,
		logger:  logger.With("component", "history"),
	}
}

// ServeHTTP implements http.Handler.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}

	id := r.Header.Get(SessionIDHeader)
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "X-Session-ID header is required")
		return
	}

	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", defaultHistoryPageSize)

	msgs, total, err := h.history.Page(r.Context(), id, offset, limit)
	if err != nil {
		logging.FromContext(r.Context(), h.logger).Error("transcript read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "temporary server problem, please retry")
		return
	}

	items := make([]historyItem, len(msgs))
	for i, m := range msgs {
		items[i] = historyItem{Role: m.Role, Content: m.Content, At: m.At}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{
		SessionID: id,
		Messages:  items,
		Total:     total,
		Offset:    offset,
	})
}

// queryInt parses a non-negative integer query parameter with a fallback.
func queryInt(r *http.Request, name string, fallback int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
