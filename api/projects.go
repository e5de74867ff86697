package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/5g-empower/empower-core/container"
)

type createProjectRequest struct {
	ProjectID string `json:"project_id,omitempty"`
	Desc      string `json:"desc,omitempty"`
	Owner     string `json:"owner"`
}

type updateProjectRequest struct {
	Desc string `json:"desc"`
}

func (s *Server) handleListProjects(w http.ResponseWriter, _ *http.Request) {
	views := make(map[string]container.View)
	for id, project := range s.projects.Projects() {
		views[id.String()] = project.ViewDoc()
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("malformed request body: %w", err))
		return
	}

	projectID := uuid.New()
	if req.ProjectID != "" {
		var err error
		if projectID, err = uuid.Parse(req.ProjectID); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("malformed project id"))
			return
		}
	}

	project, err := s.projects.Create(r.Context(), projectID, req.Desc, req.Owner)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/projects/%s", project.ID()))
	s.writeJSON(w, http.StatusCreated, project.ViewDoc())
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.projectContainer(r)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, project.ViewDoc())
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.PathValue("project_id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("malformed project id"))
		return
	}

	var req updateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("malformed request body: %w", err))
		return
	}

	if _, err := s.projects.Update(r.Context(), projectID, req.Desc); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.PathValue("project_id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("malformed project id"))
		return
	}

	if err := s.projects.Remove(r.Context(), projectID); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAllProjects(w http.ResponseWriter, r *http.Request) {
	if err := s.projects.RemoveAll(r.Context()); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
