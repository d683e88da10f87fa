// Package server exposes normalized webform schemas over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-webform/pkg/orchestrator"
)

// HeaderUserID carries the authenticated account id.
const HeaderUserID = "X-User-ID"

// Config holds server configuration.
type Config struct {
	Addr         string
	Orchestrator *orchestrator.Orchestrator
	// Quiet disables request logging.
	Quiet bool
}

// Server routes schema requests to the orchestrator.
type Server struct {
	orch   *orchestrator.Orchestrator
	doc    *openapi3.T
	router chi.Router
}

// New builds the router and checks it against the embedded OpenAPI document.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Orchestrator == nil {
		return nil, errors.New("server: orchestrator is required")
	}
	doc, err := LoadOpenAPI(ctx)
	if err != nil {
		return nil, err
	}

	s := &Server{orch: cfg.Orchestrator, doc: doc}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if !cfg.Quiet {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/openapi.json", s.openAPI)
	r.Get("/webforms", s.listWebforms)
	r.Get("/webforms/{id}", s.getWebformSchema)

	if err := checkRoutes(doc, r); err != nil {
		return nil, err
	}
	s.router = r
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	s, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("starting server on %s (%d forms registered)", addr, len(cfg.Orchestrator.Forms()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

func (s *Server) openAPI(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.doc)
}

func (s *Server) listWebforms(w http.ResponseWriter, _ *http.Request) {
	ids := s.orch.Forms()
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"webforms": ids})
}

func (s *Server) getWebformSchema(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	payload, err := s.orch.Generate(r.Context(), orchestrator.Request{
		FormID:  id,
		Account: accountFromRequest(r),
		Locale:  localeFromRequest(r),
	})
	if err != nil {
		writeOrchestratorError(w, err)
		return
	}
	writeRawJSON(w, http.StatusOK, payload)
}
