// Package server exposes an engine over the ACP REST protocol.
//
// Routes are served by a chi router behind rs/cors. Runs can be executed
// synchronously, detached (async) or streamed as server-sent events; a
// websocket endpoint streams runs as JSON frames. Request and run metrics
// are exported for Prometheus on /metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/Shivvam/agent-communication-protocol/core"
	"github.com/Shivvam/agent-communication-protocol/engine"
	"github.com/Shivvam/agent-communication-protocol/logging"
)

// Options configures a Server.
type Options struct {
	Host string
	Port int
	// AllowedOrigins lists CORS origins; "*" allows any.
	AllowedOrigins []string
	// APIPrefix additionally mounts every route below this prefix.
	APIPrefix string
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
	// ReadHeaderTimeout bounds reading request headers.
	ReadHeaderTimeout time.Duration
	// Metrics enables /metrics when set. Defaults to a fresh Metrics.
	Metrics *Metrics
	// DisableMetrics turns off request metrics and /metrics.
	DisableMetrics bool
	Logger         logging.Logger
}

// Server is the HTTP transport of an engine.
type Server struct {
	engine   core.Engine
	opts     Options
	logger   logging.Logger
	metrics  *Metrics
	upgrader websocket.Upgrader
	handler  http.Handler
}

// New creates a Server for eng. When eng is an *engine.Engine its run
// lifecycle feeds the metrics.
func New(eng core.Engine, optFns ...func(o *Options)) *Server {
	opts := Options{
		Host:              "0.0.0.0",
		Port:              8000,
		AllowedOrigins:    []string{"*"},
		APIPrefix:         "/api",
		ShutdownTimeout:   10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		engine: eng,
		opts:   opts,
		logger: opts.Logger,
	}

	if !opts.DisableMetrics {
		s.metrics = opts.Metrics

		if s.metrics == nil {
			var active func() int
			if e, ok := eng.(*engine.Engine); ok {
				active = e.ActiveRuns
			}

			s.metrics = NewMetrics(active)
		}

		if e, ok := eng.(*engine.Engine); ok {
			e.Callbacks().RegisterCallback(s.metrics.Callbacks()...)
		}
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	c := cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	s.handler = c.Handler(s.routes())

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Metrics returns the server metrics, nil when disabled.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: s.opts.ReadHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("ACP server listening", "addr", srv.Addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()

		s.logger.Info("ACP server shutting down")

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, o := range s.opts.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}

	return false
}
