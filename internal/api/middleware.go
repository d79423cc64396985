package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/observability"
)

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WithLogger adds a request-scoped logger derived from base to the context and
// logs the outcome of every request.
func WithLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := base.With().
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Str("remote_addr", r.RemoteAddr).
				Logger()

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(logger.WithContext(r.Context())))

			logger.Debug().
				Int("status", rec.status).
				Dur("elapsed", time.Since(start)).
				Msg("request handled")
		})
	}
}

// CORS allows cross-origin calls from origin.
func CORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Metrics records request counts and latency per matched route template.
// Routes without a path template report their name. Requests no route
// matched are labeled "unmatched".
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			} else if name := current.GetName(); name != "" {
				route = name
			}
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		observability.ObserveRequest(route, r.Method, rec.status, time.Since(start))
	})
}

// NewRouter assembles the API routes, optional static assets and the metrics middleware.
func NewRouter(handler *Handler, staticDir string) *mux.Router {
	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	if staticDir != "" {
		RegisterStatic(r, staticDir)
	}
	r.Use(Metrics)
	return r
}
