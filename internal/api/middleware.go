package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"taxdesk/internal/logger"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// requestLogger logs every request through zerolog and stores a request
// scoped logger in the request context.
func requestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			log := logger.WithRequestID(middleware.GetReqID(r.Context()))
			r = r.WithContext(log.WithContext(r.Context()))

			next.ServeHTTP(ww, r)

			log.Info().
				Str("component", "http").
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("Request handled")
		})
	}
}

// recoverer answers a panicking handler with the internal_error envelope.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log := logger.FromContext(r.Context(), "api")
			log.Debug().Bytes("stack", debug.Stack()).Msg("Handler panicked")
			writeInternalError(w, r, fmt.Errorf("panic: %v", rec))
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{
		Error:            code,
		ErrorDescription: description,
	})
}

// writeInternalError logs err with the request logger and hides it from the client.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), "api")
	log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	writeJSONError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
}
