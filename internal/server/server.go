package server

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"git.home.luguber.info/inful/youmu/internal/catalog"
	"git.home.luguber.info/inful/youmu/internal/orchestrator"
	"git.home.luguber.info/inful/youmu/internal/request"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Documenter builds and publishes docs below docsRoot.
type Documenter interface {
	Document(ctx context.Context, req request.PackageRequest, docsRoot string) (orchestrator.Result, error)
}

// Catalog lists what has been published.
type Catalog interface {
	List(ctx context.Context) ([]catalog.Entry, error)
	Versions(ctx context.Context, name string) ([]catalog.Entry, error)
}

// Queue reports how many builds are waiting for the gate.
type Queue interface {
	Waiting() int
}

// Options configures a Server. Documenter is required; the rest may be nil.
type Options struct {
	Host     string
	Port     int
	DocsPath string

	Documenter Documenter
	Catalog    Catalog
	Queue      Queue
	Metrics    http.Handler
	Logger     *slog.Logger
}

// Server is the HTTP gateway.
type Server struct {
	opts   Options
	router *chi.Mux
	server *http.Server
	logger *slog.Logger
}

// New creates a server listening on opts.Host:opts.Port once started.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{opts: opts, router: chi.NewRouter(), logger: logger}
	s.setupRoutes()

	// No write timeout: POST /gendocs holds the response until the build ends.
	s.server = &http.Server{
		Addr:              net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(recoverer(s.logger))

	s.router.Get("/", s.handleIndex)
	s.router.Post("/gendocs", s.handleGenDocs)
	s.router.Get("/docs/{crate}", s.handleCrate)
	s.router.Get("/docs/{crate}/{version}", s.handleVersionRoot)
	s.router.Get("/docs/{crate}/{version}/*", s.handleDocFile)
	s.router.Get("/health", s.handleHealth)
	if s.opts.Metrics != nil {
		s.router.Handle("/metrics", s.opts.Metrics)
	}
}

// Addr is the configured listen address.
func (s *Server) Addr() string { return s.server.Addr }

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens and serves until Shutdown. It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("HTTP gateway listening", slog.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Serve serves on an existing listener.
func (s *Server) Serve(l net.Listener) error {
	return s.server.Serve(l)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
