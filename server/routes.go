package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	if s.metrics != nil {
		r.Use(s.metrics.middleware)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.mountACP(r)

	if s.opts.APIPrefix != "" {
		r.Route(s.opts.APIPrefix, s.mountACP)
	}

	return r
}

func (s *Server) mountACP(r chi.Router) {
	r.Get("/ping", s.handlePing)

	r.Get("/agents", s.handleListAgents)
	r.Get("/agents/{name}", s.handleGetAgent)

	r.Post("/runs", s.handleCreateRun)
	r.Get("/runs/live", s.handleRunLive)
	r.Get("/runs/{run_id}", s.handleGetRun)
	r.Get("/runs/{run_id}/events", s.handleGetRunEvents)
	r.Post("/runs/{run_id}/cancel", s.handleCancelRun)

	r.Get("/sessions/{session_id}/runs", s.handleListSessionRuns)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
