package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/5g-empower/empower-core/container"
	"github.com/5g-empower/empower-core/errors"
	"github.com/5g-empower/empower-core/service"
)

// containerResolver locates the container a request addresses: the
// default environment for worker routes, a project for app routes
type containerResolver func(r *http.Request) (*container.Container, error)

type createServiceRequest struct {
	Name   string          `json:"name"`
	Params json.RawMessage `json:"params,omitempty"`
}

type updateServiceRequest struct {
	Params map[string]any `json:"params"`
}

// worker routes operate on the default environment

func (s *Server) handleListWorkers(w http.ResponseWriter, r *http.Request) {
	s.listServices(w, r, func(*http.Request) (*container.Container, error) { return s.envContainer() })
}

func (s *Server) handleCreateWorker(w http.ResponseWriter, r *http.Request) {
	s.createService(w, r, func(*http.Request) (*container.Container, error) { return s.envContainer() },
		"/api/v1/workers")
}

func (s *Server) handleGetWorker(w http.ResponseWriter, r *http.Request) {
	s.getService(w, r, func(*http.Request) (*container.Container, error) { return s.envContainer() })
}

func (s *Server) handleUpdateWorker(w http.ResponseWriter, r *http.Request) {
	s.updateService(w, r, func(*http.Request) (*container.Container, error) { return s.envContainer() })
}

func (s *Server) handleDeleteWorker(w http.ResponseWriter, r *http.Request) {
	s.deleteService(w, r, func(*http.Request) (*container.Container, error) { return s.envContainer() })
}

// app routes operate on the project named in the path

func (s *Server) handleListApps(w http.ResponseWriter, r *http.Request) {
	s.listServices(w, r, s.projectContainer)
}

func (s *Server) handleCreateApp(w http.ResponseWriter, r *http.Request) {
	s.createService(w, r, s.projectContainer,
		fmt.Sprintf("/api/v1/projects/%s/apps", r.PathValue("project_id")))
}

func (s *Server) handleGetApp(w http.ResponseWriter, r *http.Request) {
	s.getService(w, r, s.projectContainer)
}

func (s *Server) handleUpdateApp(w http.ResponseWriter, r *http.Request) {
	s.updateService(w, r, s.projectContainer)
}

func (s *Server) handleDeleteApp(w http.ResponseWriter, r *http.Request) {
	s.deleteService(w, r, s.projectContainer)
}

// shared service handlers

func (s *Server) listServices(w http.ResponseWriter, r *http.Request, resolve containerResolver) {
	c, err := resolve(r)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	records := make(map[string]service.Record)
	for id, svc := range c.Services() {
		records[id.String()] = svc.Record()
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) createService(w http.ResponseWriter, r *http.Request, resolve containerResolver, location string) {
	c, err := resolve(r)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	var req createServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("malformed request body: %w", err))
		return
	}

	entry, ok := s.catalog.Resolve(req.Name)
	if !ok {
		err := fmt.Errorf("%w: %q", errors.ErrServiceTypeNotFound, req.Name)
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	// schema check first so malformed documents fail before the typed
	// validation in the container runs
	if err := entry.Manifest.ValidateDocument(req.Params); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	var params map[string]any
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("malformed params: %w", err))
			return
		}
	}

	svc, err := c.CreateService(r.Context(), req.Name, uuid.New(), params)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("%s/%s", location, svc.ID()))
	s.writeJSON(w, http.StatusCreated, svc.Record())
}

func (s *Server) getService(w http.ResponseWriter, r *http.Request, resolve containerResolver) {
	svc, err := s.resolveService(r, resolve)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, svc.Record())
}

func (s *Server) updateService(w http.ResponseWriter, r *http.Request, resolve containerResolver) {
	svc, err := s.resolveService(r, resolve)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	var req updateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("malformed request body: %w", err))
		return
	}

	// validate the whole map before mutating, so one rejected parameter
	// cannot leave a partially applied update behind
	man := svc.Manifest()
	current := svc.Params()
	for name, value := range req.Params {
		if _, err := man.Validate(name, value, current); err != nil {
			s.writeError(w, statusFor(err), err)
			return
		}
	}

	for name, value := range req.Params {
		if err := svc.SetParam(r.Context(), name, value); err != nil {
			s.writeError(w, statusFor(err), err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteService(w http.ResponseWriter, r *http.Request, resolve containerResolver) {
	c, err := resolve(r)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	serviceID, err := uuid.Parse(r.PathValue("service_id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("malformed service id"))
		return
	}

	if err := c.RemoveService(r.Context(), serviceID); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resolveService(r *http.Request, resolve containerResolver) (service.Service, error) {
	c, err := resolve(r)
	if err != nil {
		return nil, err
	}

	serviceID, err := uuid.Parse(r.PathValue("service_id"))
	if err != nil {
		return nil, errors.WrapValidation(
			fmt.Errorf("%w: malformed service id", errors.ErrInvalidParameterValue),
			"Server", "resolveService", "path parsing")
	}
	return c.Service(serviceID)
}
