package api

import (
	"net/http"
	"strconv"
	"time"

	"records-api/internal/auth"
	"records-api/observability"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// HeaderRequestID carries the request correlation id in both directions
const HeaderRequestID = "X-Request-ID"

// responseWriter wraps http.ResponseWriter to capture status code and response size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	responseSize int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK, // default status code
	}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.responseSize += size
	return size, err
}

// RequestID echoes the caller's X-Request-ID or generates a new one, and
// stores it in the request context for log enrichment
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set(HeaderRequestID, requestID)
		ctx := observability.ContextWithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger logs one line per request once the response is written
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := newResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		observability.WithContext(r.Context()).Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
			"bytes", wrapped.responseSize,
			"remote_addr", r.RemoteAddr,
		)
	})
}

// MetricsMiddleware records HTTP metrics for each request
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap the response writer to capture status code and size
		wrapped := newResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		// Unmatched paths share one label so scanners cannot blow up cardinality
		routePattern := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			routePattern = rctx.RoutePattern()
		}

		metrics := observability.GetMetrics()
		statusCode := strconv.Itoa(wrapped.statusCode)
		metrics.RecordHTTPRequest(r.Method, routePattern, statusCode, time.Since(start), wrapped.responseSize)
	})
}

// RequireAPIKey rejects requests whose credentials the guard does not accept
// and stores the caller identity in the request context otherwise
func RequireAPIKey(guard *auth.Guard) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := guard.Authenticate(r.Header)
			if err != nil {
				reason := auth.Reason(err)
				observability.GetMetrics().RecordAuthFailure(reason)
				observability.WithContext(r.Context()).Warn("authentication failed",
					"reason", reason,
					"path", r.URL.Path,
				)
				writeError(w, r, err)
				return
			}

			observability.WithIdentity(identity).Debug("authenticated request",
				"path", r.URL.Path,
				"request_id", observability.RequestIDFromContext(r.Context()),
			)
			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
