package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"nexa-hq/neurongate/pkg/telemetry/logging"
)

// RequestIDHeader is the header carrying the request correlation ID.
const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware ensures every request carries a correlation ID. A
// client-supplied X-Request-ID is honored; otherwise a fresh UUID is
// generated. The ID is stored in the request context and echoed on the
// response.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := logging.WithRequestID(r.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
