// Package api exposes the runtime over REST: the worker catalog, the
// default environment's workers, projects and their apps, and the
// callback registries of both. Handlers are thin adapters over the
// managers; every domain rule lives below this package.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/5g-empower/empower-core/container"
	"github.com/5g-empower/empower-core/errors"
	"github.com/5g-empower/empower-core/manager"
	"github.com/5g-empower/empower-core/metric"
)

// Server wires the REST surface to the managers
type Server struct {
	env      *manager.EnvManager
	projects *manager.ProjectsManager
	catalog  *container.Catalog
	metrics  *metric.Metrics
	logger   *slog.Logger
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics attaches the metrics registry and enables /metrics
func WithMetrics(metrics *metric.Metrics) Option {
	return func(s *Server) {
		s.metrics = metrics
	}
}

// NewServer creates the REST server
func NewServer(env *manager.EnvManager, projects *manager.ProjectsManager, catalog *container.Catalog, opts ...Option) *Server {
	s := &Server{
		env:      env,
		projects: projects,
		catalog:  catalog,
		logger:   slog.Default().With("component", "api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/catalog", s.handleCatalog)

	// environment workers
	mux.HandleFunc("GET /api/v1/workers", s.handleListWorkers)
	mux.HandleFunc("POST /api/v1/workers", s.handleCreateWorker)
	mux.HandleFunc("GET /api/v1/workers/{service_id}", s.handleGetWorker)
	mux.HandleFunc("PUT /api/v1/workers/{service_id}", s.handleUpdateWorker)
	mux.HandleFunc("DELETE /api/v1/workers/{service_id}", s.handleDeleteWorker)
	mux.HandleFunc("GET /api/v1/workers/{service_id}/callbacks", s.handleListWorkerCallbacks)
	mux.HandleFunc("POST /api/v1/workers/{service_id}/callbacks", s.handleAddWorkerCallback)
	mux.HandleFunc("GET /api/v1/workers/{service_id}/callbacks/{name}", s.handleGetWorkerCallback)
	mux.HandleFunc("DELETE /api/v1/workers/{service_id}/callbacks/{name}", s.handleDeleteWorkerCallback)

	// projects and their apps
	mux.HandleFunc("GET /api/v1/projects", s.handleListProjects)
	mux.HandleFunc("POST /api/v1/projects", s.handleCreateProject)
	mux.HandleFunc("DELETE /api/v1/projects", s.handleDeleteAllProjects)
	mux.HandleFunc("GET /api/v1/projects/{project_id}", s.handleGetProject)
	mux.HandleFunc("PUT /api/v1/projects/{project_id}", s.handleUpdateProject)
	mux.HandleFunc("DELETE /api/v1/projects/{project_id}", s.handleDeleteProject)
	mux.HandleFunc("GET /api/v1/projects/{project_id}/apps", s.handleListApps)
	mux.HandleFunc("POST /api/v1/projects/{project_id}/apps", s.handleCreateApp)
	mux.HandleFunc("GET /api/v1/projects/{project_id}/apps/{service_id}", s.handleGetApp)
	mux.HandleFunc("PUT /api/v1/projects/{project_id}/apps/{service_id}", s.handleUpdateApp)
	mux.HandleFunc("DELETE /api/v1/projects/{project_id}/apps/{service_id}", s.handleDeleteApp)
	mux.HandleFunc("GET /api/v1/projects/{project_id}/apps/{service_id}/callbacks", s.handleListAppCallbacks)
	mux.HandleFunc("POST /api/v1/projects/{project_id}/apps/{service_id}/callbacks", s.handleAddAppCallback)
	mux.HandleFunc("GET /api/v1/projects/{project_id}/apps/{service_id}/callbacks/{name}", s.handleGetAppCallback)
	mux.HandleFunc("DELETE /api/v1/projects/{project_id}/apps/{service_id}/callbacks/{name}", s.handleDeleteAppCallback)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return mux
}

// handleCatalog lists every loadable service type with its manifest
func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.catalog.Manifests())
}

// envContainer returns the default environment
func (s *Server) envContainer() (*container.Container, error) {
	env := s.env.Env()
	if env == nil {
		return nil, fmt.Errorf("environment not started")
	}
	return env, nil
}

// projectContainer resolves the project named in the request path
func (s *Server) projectContainer(r *http.Request) (*container.Container, error) {
	projectID, err := uuid.Parse(r.PathValue("project_id"))
	if err != nil {
		return nil, errors.WrapValidation(
			fmt.Errorf("%w: malformed project id", errors.ErrInvalidParameterValue),
			"Server", "projectContainer", "path parsing")
	}
	return s.projects.Project(projectID)
}

// statusFor maps the error taxonomy to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.IsValidation(err):
		return http.StatusBadRequest
	case errors.IsLookup(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encoding failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
