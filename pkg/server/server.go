// Package server exposes a session over HTTP so a browser front end can
// drive it.
//
// Routes:
//
//	GET    /health
//	GET    /metrics                      Prometheus text format
//	GET    /api/graph                    current view (?visible=true drops hidden entries)
//	POST   /api/events                   any gesture as a session event
//	POST   /api/nodes/{id}/select
//	POST   /api/nodes/{id}/toggle
//	POST   /api/nodes/{id}/children      {"label": "..."}
//	PUT    /api/nodes/{id}/label         {"label": "..."}
//	DELETE /api/nodes/{id}
//	GET    /api/snapshot                 ?format=yaml for YAML
//	PUT    /api/snapshot                 replace the graph (YAML when Content-Type says so)
//	POST   /api/save                     write the session's snapshot file
//	GET    /api/render.{format}          svg, png or dot of the visible map
//
// Errors are JSON objects {"error": {"code": ..., "message": ...}} with the
// status chosen by [StatusFor].
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tschomay/mindweb/pkg/pipeline"
	"github.com/tschomay/mindweb/pkg/session"
)

// Server serves one session.
type Server struct {
	sess     *session.Session
	runner   *pipeline.Runner
	logger   *log.Logger
	gatherer prometheus.Gatherer
	rankDir  string
}

// Option configures a Server.
type Option func(*Server)

// WithRunner sets the render pipeline. Without one, renders are not cached.
func WithRunner(r *pipeline.Runner) Option {
	return func(s *Server) {
		if r != nil {
			s.runner = r
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGatherer enables /metrics backed by g.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithRankDir sets the default layout direction of rendered maps.
func WithRankDir(dir string) Option {
	return func(s *Server) { s.rankDir = dir }
}

// New creates a server for sess.
func New(sess *session.Session, opts ...Option) *Server {
	s := &Server{sess: sess, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.health)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.graph)
		r.Post("/events", s.event)

		r.Route("/nodes/{id}", func(r chi.Router) {
			r.Post("/select", s.nodeEvent(session.EventSelect))
			r.Post("/toggle", s.nodeEvent(session.EventToggle))
			r.Post("/children", s.addChild)
			r.Put("/label", s.relabel)
			r.Delete("/", s.nodeEvent(session.EventRemove))
		})

		r.Get("/snapshot", s.getSnapshot)
		r.Put("/snapshot", s.putSnapshot)
		r.Post("/save", s.save)
		r.Get("/render.{format}", s.render)
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("serving mind map", "addr", addr, "session", s.sess.ID())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
