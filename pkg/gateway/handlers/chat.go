package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nexa-hq/neurongate/pkg/history"
	"nexa-hq/neurongate/pkg/inference"
	"nexa-hq/neurongate/pkg/kvstore"
	"nexa-hq/neurongate/pkg/quota"
	"nexa-hq/neurongate/pkg/session"
	"nexa-hq/neurongate/pkg/telemetry/logging"
	"nexa-hq/neurongate/pkg/telemetry/metrics"
)

// maxChatBodyBytes bounds the request body to keep prompt sizes sane.
const maxChatBodyBytes = 1 << 20 // 1 MiB

// ChatHandler serves POST /v1/chat.
//
// The request lifecycle is fixed:
//
//  1. resolve or create the session from X-Session-ID;
//  2. run the admission evaluation (hourly requests, daily requests,
//     daily units, in that order; first failure wins);
//  3. on admission, touch the session and call the model;
//  4. charge the actual unit cost to the session after the call returns;
//  5. append the exchange to the transcript.
//
// A store failure at any step fails the request with 500; it is never
// reported as a rate-limit denial.
type ChatHandler struct {
	sessions  *session.Manager
	engine    *quota.Engine
	history   *history.Store
	generator inference.Generator
	collector *metrics.Collector

	defaultModel string
	maxTokens    int
	now          func() time.Time
	logger       *slog.Logger
}

// ChatHandlerConfig configures the chat handler.
type ChatHandlerConfig struct {
	// DefaultModel is used when the request names no model.
	DefaultModel string

	// MaxTokens caps the completion length when the request sets none.
	MaxTokens int

	// History is the transcript store. Nil disables transcripts.
	History *history.Store

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time

	// Logger is the structured logger. Defaults to slog.Default.
	Logger *slog.Logger
}

// NewChatHandler creates the chat handler.
func NewChatHandler(sessions *session.Manager, engine *quota.Engine, generator inference.Generator, collector *metrics.Collector, cfg ChatHandlerConfig) *ChatHandler {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "base"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ChatHandler{
		sessions:     sessions,
		engine:       engine,
		history:      cfg.History,
		generator:    generator,
		collector:    collector,
		defaultModel: cfg.DefaultModel,
		maxTokens:    cfg.MaxTokens,
		now:          cfg.Now,
		logger:       cfg.Logger.With("component", "chat"),
	}
}

// ServeHTTP implements http.Handler.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req ChatRequest
	body := http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx, h.logger)

	// Resolve or create the session. A missing, expired, or unreadable
	// record all land on the creation path.
	rec, err := h.sessions.Load(ctx, r.Header.Get(SessionIDHeader))
	if err != nil {
		h.storeFailure(w, logger, "session load failed", err)
		return
	}
	if rec == nil {
		rec, err = h.sessions.Create(ctx)
		if err != nil {
			h.storeFailure(w, logger, "session create failed", err)
			return
		}
		h.collector.RecordSessionCreated()
	}

	ctx = logging.WithSessionID(ctx, rec.ID)
	logger = logger.With("session_id", rec.ID)
	w.Header().Set(SessionIDHeader, rec.ID)

	// Admission. Store failures are fatal and distinct from denials.
	decision, err := h.engine.Evaluate(ctx, rec)
	if err != nil {
		h.storeFailure(w, logger, "admission evaluation failed", err)
		return
	}
	if !decision.Admitted {
		h.collector.RecordAdmission(false, string(decision.Reason))
		h.writeDenial(w, logger, decision)
		return
	}
	h.collector.RecordAdmission(true, "")

	if err := h.sessions.Touch(ctx, rec); err != nil {
		h.storeFailure(w, logger, "session touch failed", err)
		return
	}

	model := req.Model
	if model == "" {
		model = h.defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = h.maxTokens
	}

	start := time.Now()
	result, err := h.generator.Generate(ctx, &inference.Request{
		Model:     model,
		Prompt:    req.Message,
		MaxTokens: maxTokens,
	})
	if err != nil {
		infErr := inference.AsError(err, model)
		h.collector.RecordInference(model, string(infErr.Kind), time.Since(start))
		h.writeInferenceFailure(w, logger, infErr)
		return
	}
	h.collector.RecordInference(model, "ok", time.Since(start))

	// Charge the actual cost. The admission check only verified headroom;
	// the call may push the accumulator past the budget, which the next
	// admission will catch.
	if err := h.sessions.AddUnits(ctx, rec, result.UnitsUsed); err != nil {
		h.storeFailure(w, logger, "unit charge failed", err)
		return
	}
	h.collector.RecordUnits(model, result.UnitsUsed)

	if h.history != nil {
		at := h.now()
		err := h.history.Append(ctx, rec.ID,
			history.Message{Role: "user", Content: req.Message, At: at},
			history.Message{Role: "assistant", Content: result.Text, At: at},
		)
		if err != nil {
			// The reply was generated and charged; losing a transcript
			// entry must not fail the exchange.
			logger.Warn("transcript append failed", "error", err)
		}
	}

	policy := h.engine.Policy()
	remaining := policy.UnitsPerDay - rec.UnitsUsedToday(h.now())
	if remaining < 0 {
		remaining = 0
	}

	logger.Info("chat completed",
		"model", model,
		"units_used", result.UnitsUsed,
		"units_remaining", remaining,
	)

	writeJSON(w, http.StatusOK, ChatResponse{
		Reply:               result.Text,
		Model:               model,
		SessionID:           rec.ID,
		UnitsUsedThisCall:   result.UnitsUsed,
		UnitsRemainingToday: remaining,
	})
}

// writeDenial writes a 429 with the machine-readable reason and the
// retry-after hint both in the body and the standard header.
func (h *ChatHandler) writeDenial(w http.ResponseWriter, logger *slog.Logger, d *quota.Decision) {
	seconds := int64(math.Ceil(d.RetryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}

	logger.Info("request denied",
		"reason", string(d.Reason),
		"retry_after_seconds", seconds,
	)

	w.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
	writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: ErrorDetail{
		Type:              "rate_limited",
		Message:           denialMessage(d.Reason),
		Reason:            string(d.Reason),
		RetryAfterSeconds: seconds,
	}})
}

// writeInferenceFailure maps a classified inference error to a gateway
// response. No units were charged.
func (h *ChatHandler) writeInferenceFailure(w http.ResponseWriter, logger *slog.Logger, infErr *inference.Error) {
	logger.Error("inference call failed",
		"kind", string(infErr.Kind),
		"model", infErr.Model,
		"status_code", infErr.StatusCode,
		"error", infErr.Message,
	)

	status := http.StatusBadGateway
	if infErr.Kind == inference.KindTimeout {
		status = http.StatusGatewayTimeout
	}
	writeError(w, status, "inference_failed", "the model endpoint could not complete the request")
}

// storeFailure writes the 500 reserved for store unavailability and other
// internal faults.
func (h *ChatHandler) storeFailure(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	if errors.Is(err, kvstore.ErrUnavailable) {
		h.collector.RecordStoreError("chat")
	}
	writeError(w, http.StatusInternalServerError, "internal_error", "temporary server problem, please retry")
}

// denialMessage returns the human-readable text for a denial reason.
func denialMessage(reason quota.Reason) string {
	switch reason {
	case quota.ReasonHourlyRequests:
		return "hourly request limit reached"
	case quota.ReasonDailyRequests:
		return "daily request limit reached"
	case quota.ReasonDailyUnits:
		return "daily neuron budget exhausted"
	default:
		return "rate limit reached"
	}
}
