package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/anisearchapp/anisearch-bot/internal/http/response"
	"github.com/anisearchapp/anisearch-bot/internal/id"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const contextKeyRequestID contextKey = "request_id"

// requestIDHeader carries the correlation id back to the caller.
const requestIDHeader = "X-Request-ID"

// requestID tags every request with a correlation id, reusing the caller's
// when one is supplied.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" {
			generated, err := id.Generate(id.PrefixRequest)
			if err != nil {
				s.logger.Warn("request id generation failed", "error", err)
			}
			reqID = generated
		}

		w.Header().Set(requestIDHeader, reqID)
		ctx := context.WithValue(r.Context(), contextKeyRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger logs one line per request through the server's slog logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			"request_id", getRequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

// recoverer turns a handler panic into a 500 envelope.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("panic serving request",
					"request_id", getRequestID(r.Context()),
					"path", r.URL.Path,
					"panic", rec,
				)
				response.InternalError(w, "internal server error", s.logger)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// getRequestID extracts the correlation id from request context.
// Returns empty string if not available.
func getRequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}
