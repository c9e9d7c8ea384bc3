// Package server exposes the converter over HTTP.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	pagesnap "github.com/alnah/go-pagesnap"
)

// DefaultMaxBodyBytes caps request bodies when Config.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 10 << 20

// Config holds per-server defaults applied to every request.
// Query parameters override Page, TargetID and Mode.
type Config struct {
	MaxBodyBytes int64
	Page         *pagesnap.PageSettings
	TargetID     string
	Mode         pagesnap.Mode
}

// Server is the HTTP API for rendering documents to PDF.
type Server struct {
	router   chi.Router
	renderer Renderer
	log      *slog.Logger
	cfg      Config
}

// NewServer creates and configures the HTTP server.
func NewServer(r Renderer, log *slog.Logger, cfg Config) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{
		renderer: r,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/render", s.handleRender)
		r.Post("/render/markdown", s.handleMarkdown)
		r.Post("/render/certificate", s.handleCertificate)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
