package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/docbuild/internal/config"
	"github.com/dgallion1/docbuild/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP preview and build API for one documentation root.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	log          *slog.Logger
	cfg          config.Config

	root   string
	outDir string
}

// NewServer creates and configures the HTTP server. Builds write to outDir
// when it is set and the request asks for it.
func NewServer(orch *pipeline.Orchestrator, root, outDir string, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		log:          log,
		cfg:          cfg,
		root:         root,
		outDir:       outDir,
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

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Get("/site", s.handleSiteRedirect)
	r.Get("/site/*", s.handleSite)

	// Authenticated when an API key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Get("/api/report", s.handleReport)
		r.Post("/api/builds", s.handleCreateBuild)
		r.Get("/api/builds/{buildID}", s.handleBuildStatus)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
