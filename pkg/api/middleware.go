package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/cuemby/storefront/pkg/metrics"
	"github.com/go-chi/chi/v5/middleware"
)

// statusRecorder captures the response status for logging, metrics, and
// rate-limit refunds
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger emits one structured log line per request
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("remote", clientIP(r)).
			Msg("request")
	})
}

// requestMetrics records request counts and latency per method
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.NewTimer()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		metrics.APIRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(recorder.status)).Inc()
		timer.ObserveDurationVec(metrics.APIRequestDuration, r.Method)
	})
}

// recoverer converts panics into the 500 envelope. Outside production the
// response carries the panic message and stack; in production it carries
// a fixed message and nothing else.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			stack := string(debug.Stack())
			s.logger.Error().
				Str("path", r.URL.Path).
				Str("panic", fmt.Sprintf("%v", rec)).
				Str("stack", stack).
				Msg("panic recovered in request handler")

			apiErr := NewError(http.StatusInternalServerError, CodeInternalServerError,
				"An unexpected error occurred")
			if !s.production {
				apiErr.Message = fmt.Sprintf("%v", rec)
				apiErr.Stack = stack
			}
			writeError(w, apiErr)
		}()

		next.ServeHTTP(w, r)
	})
}
