// Package server exposes the project collection and table rendering over
// HTTP for deployments that want the markdown regenerated on demand rather
// than committed.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	apperrors "github.com/projmd/projmd/pkg/errors"
	"github.com/projmd/projmd/pkg/integrations"
	"github.com/projmd/projmd/pkg/project"
	"github.com/projmd/projmd/pkg/table"
)

// Server serves project queries and rendered tables.
type Server struct {
	projects []project.Project
	svc      *integrations.Service
	logger   *log.Logger
	defaults table.Options
}

// New creates a Server over a read-only project collection. The defaults
// act as the baseline table options; requests may override individual
// options via query parameters.
func New(projects []project.Project, svc *integrations.Service, logger *log.Logger, defaults table.Options) *Server {
	return &Server{projects: projects, svc: svc, logger: logger, defaults: defaults}
}

// Router builds the HTTP route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/projects", s.handleProjects)
	r.Get("/api/projects/{id}", s.handleProject)
	r.Get("/api/projects/{id}/related", s.handleRelated)
	r.Get("/api/table", s.handleTable)

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	results := s.projects

	q := r.URL.Query()
	if cat := q.Get("category"); cat != "" {
		results = project.ByCategory(results, project.Category(cat))
	}
	if status := q.Get("status"); status != "" {
		results = project.ByStatus(results, project.Status(status))
	}
	if tag := q.Get("tag"); tag != "" {
		results = project.ByTag(results, tag)
	}
	if tech := q.Get("tech"); tech != "" {
		results = project.ByTech(results, tech)
	}
	if q.Get("oss") == "true" {
		results = project.OpenSource(results)
	}

	if results == nil {
		results = []project.Project{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	p := project.ByID(s.projects, chi.URLParam(r, "id"))
	if p == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if project.ByID(s.projects, id) == nil {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}

	count := 3
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		count = n
	}

	related := project.Related(s.projects, id, count)
	if related == nil {
		related = []project.Project{}
	}
	writeJSON(w, http.StatusOK, related)
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	params := table.Params{Options: s.defaults}

	q := r.URL.Query()
	if raw := q.Get("categories"); raw != "" {
		for _, cat := range strings.Split(raw, ",") {
			params.Categories = append(params.Categories, project.Category(strings.TrimSpace(cat)))
		}
	} else {
		params.Categories = project.Categories
	}
	if v, ok := boolParam(q.Get("stars")); ok {
		params.Stars = v
	}
	if v, ok := boolParam(q.Get("autoVersion")); ok {
		params.AutoVersion = v
	}
	if v, ok := boolParam(q.Get("status")); ok {
		params.ShowStatus = v
	}
	if sortBy := q.Get("sortBy"); sortBy != "" {
		params.SortBy = project.SortKey(sortBy)
	}
	if dir := q.Get("sortDirection"); dir != "" {
		params.SortDirection = project.SortDirection(dir)
	}

	// Avoid handing Generate a typed-nil fetcher when serving without one.
	var fetcher table.MetadataFetcher
	if s.svc != nil {
		fetcher = s.svc
	}

	markdown, err := table.Generate(r.Context(), s.projects, params, fetcher)
	if err != nil {
		status := http.StatusInternalServerError
		switch apperrors.GetCode(err) {
		case apperrors.ErrCodeInvalidCategory, apperrors.ErrCodeInvalidInput:
			status = http.StatusBadRequest
		case apperrors.ErrCodeInvalidProject:
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, apperrors.UserMessage(err))
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(markdown))
}

func boolParam(raw string) (value, ok bool) {
	switch raw {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
