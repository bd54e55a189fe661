// Package server exposes a laid-out assembly graph over HTTP.
//
// The server is read-only: it serves one graph handle and its layout, both
// computed before the server starts. Windows are cut per request and never
// cached.
//
//	GET /health
//	GET /api/graph
//	GET /api/graph/export
//	GET /api/nodes/{id}
//	GET /api/nodes/{id}/segment
//	GET /api/window?center=&radius=&format=json|dot|svg&detailed=
//	GET /api/genomes
//	GET /api/genomes/{ref}/path
//	GET /metrics
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/pangraph/pkg/graph"
	"github.com/matzehuels/pangraph/pkg/layout"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "127.0.0.1:8080"

const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	// Logger receives request logs. Nil discards them.
	Logger *log.Logger

	// Gatherer backs /metrics. Nil uses the default Prometheus registry.
	Gatherer prometheus.Gatherer
}

// Server serves one graph and its layout.
type Server struct {
	handle   *graph.Handle
	layout   *layout.Layout
	logger   *log.Logger
	gatherer prometheus.Gatherer
}

// New creates a server for h laid out as l. Both must stay unchanged while
// the server runs.
func New(h *graph.Handle, l *layout.Layout, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		handle:   h,
		layout:   l,
		logger:   opts.Logger,
		gatherer: opts.Gatherer,
	}
}

// Handler builds the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(instrument)

	r.Get("/health", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.getGraph)
		r.Get("/graph/export", s.exportGraph)
		r.Get("/nodes/{id}", s.getNode)
		r.Get("/nodes/{id}/segment", s.getSegment)
		r.Get("/window", s.getWindow)
		r.Get("/genomes", s.listGenomes)
		r.Get("/genomes/{ref}/path", s.getPath)
	})

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. ready, if non-nil, receives the bound address once listening.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(addr string)) error {
	if addr == "" {
		addr = DefaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if ready != nil {
		ready(ln.Addr().String())
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}
