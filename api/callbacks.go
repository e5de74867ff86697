package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/5g-empower/empower-core/container"
	"github.com/5g-empower/empower-core/errors"
	"github.com/5g-empower/empower-core/service"
)

type addCallbackRequest struct {
	Name   string       `json:"name"`
	Kind   service.Kind `json:"callback_type"`
	Target string       `json:"callback"`
}

func (s *Server) handleListWorkerCallbacks(w http.ResponseWriter, r *http.Request) {
	s.listCallbacks(w, r, func(*http.Request) (*container.Container, error) { return s.envContainer() })
}

func (s *Server) handleAddWorkerCallback(w http.ResponseWriter, r *http.Request) {
	s.addCallback(w, r, func(*http.Request) (*container.Container, error) { return s.envContainer() })
}

func (s *Server) handleGetWorkerCallback(w http.ResponseWriter, r *http.Request) {
	s.getCallback(w, r, func(*http.Request) (*container.Container, error) { return s.envContainer() })
}

func (s *Server) handleDeleteWorkerCallback(w http.ResponseWriter, r *http.Request) {
	s.deleteCallback(w, r, func(*http.Request) (*container.Container, error) { return s.envContainer() })
}

func (s *Server) handleListAppCallbacks(w http.ResponseWriter, r *http.Request) {
	s.listCallbacks(w, r, s.projectContainer)
}

func (s *Server) handleAddAppCallback(w http.ResponseWriter, r *http.Request) {
	s.addCallback(w, r, s.projectContainer)
}

func (s *Server) handleGetAppCallback(w http.ResponseWriter, r *http.Request) {
	s.getCallback(w, r, s.projectContainer)
}

func (s *Server) handleDeleteAppCallback(w http.ResponseWriter, r *http.Request) {
	s.deleteCallback(w, r, s.projectContainer)
}

func (s *Server) listCallbacks(w http.ResponseWriter, r *http.Request, resolve containerResolver) {
	svc, err := s.resolveService(r, resolve)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, svc.Callbacks())
}

// addCallback registers a remote callback. Native handles cannot arrive
// over the wire: a native registration with a string target fails the
// invocability check below.
func (s *Server) addCallback(w http.ResponseWriter, r *http.Request, resolve containerResolver) {
	svc, err := s.resolveService(r, resolve)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	var req addCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("malformed request body: %w", err))
		return
	}

	if err := svc.AddCallback(r.Context(), req.Name, req.Kind, req.Target); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	cb, _ := svc.Callback(req.Name)
	// the request path is the callback collection of this service
	w.Header().Set("Location", fmt.Sprintf("%s/%s", r.URL.Path, req.Name))
	s.writeJSON(w, http.StatusCreated, cb)
}

func (s *Server) getCallback(w http.ResponseWriter, r *http.Request, resolve containerResolver) {
	svc, err := s.resolveService(r, resolve)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	cb, ok := svc.Callback(r.PathValue("name"))
	if !ok {
		err := fmt.Errorf("%w: %q", errors.ErrCallbackNotFound, r.PathValue("name"))
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cb)
}

func (s *Server) deleteCallback(w http.ResponseWriter, r *http.Request, resolve containerResolver) {
	svc, err := s.resolveService(r, resolve)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	if err := svc.RemoveCallback(r.Context(), r.PathValue("name")); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
