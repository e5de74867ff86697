package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/5g-empower/empower-core/container"
	"github.com/5g-empower/empower-core/errors"
	"github.com/5g-empower/empower-core/service"
	"github.com/5g-empower/empower-core/storage"
)

// ProjectsManager owns the project collection. Projects are containers
// with an owner account; creating one validates the owner against the
// accounts collaborator.
type ProjectsManager struct {
	catalog  *container.Catalog
	store    storage.Store
	deps     *service.Dependencies
	accounts Accounts
	logger   *slog.Logger

	mu       sync.RWMutex
	projects map[uuid.UUID]*container.Container
}

// NewProjectsManager creates a projects manager. The catalog lists the
// app types projects can instantiate.
func NewProjectsManager(catalog *container.Catalog, store storage.Store, accounts Accounts, deps *service.Dependencies) *ProjectsManager {
	if deps == nil {
		deps = &service.Dependencies{}
	}
	deps.Normalize()

	return &ProjectsManager{
		catalog:  catalog,
		store:    store,
		deps:     deps,
		accounts: accounts,
		logger:   deps.Logger.With("manager", "projects"),
		projects: make(map[uuid.UUID]*container.Container),
	}
}

// Start restores every durable project and starts its apps
func (m *ProjectsManager) Start(ctx context.Context) error {
	metas, err := loadMetas(ctx, m.store, container.KindProject)
	if err != nil {
		return errors.Wrap(err, "ProjectsManager", "Start", "load project records")
	}

	for _, meta := range metas {
		project := container.New(container.KindProject, meta.ContainerID, m.catalog, m.store, m.deps,
			container.WithDesc(meta.Desc), container.WithOwner(meta.Owner))
		if err := project.LoadServices(ctx); err != nil {
			return errors.Wrap(err, "ProjectsManager", "Start", "load apps")
		}

		m.mu.Lock()
		m.projects[meta.ContainerID] = project
		m.mu.Unlock()

		project.StartServices(ctx)
	}

	m.logger.Info("projects restored", "count", len(metas))
	return nil
}

// Stop stops the apps of every project, saving their durable state
func (m *ProjectsManager) Stop(ctx context.Context) {
	for _, project := range m.Projects() {
		project.StopServices(ctx)
	}
}

// Create defines a new project owned by a known account
func (m *ProjectsManager) Create(ctx context.Context, projectID uuid.UUID, desc, owner string) (*container.Container, error) {
	m.mu.RLock()
	_, exists := m.projects[projectID]
	m.mu.RUnlock()
	if exists {
		return nil, errors.WrapValidation(
			fmt.Errorf("%w: %s", errors.ErrProjectExists, projectID),
			"ProjectsManager", "Create", "identity check")
	}

	if m.accounts == nil || !m.accounts.Exists(owner) {
		return nil, errors.WrapLookup(
			fmt.Errorf("%w: %q", errors.ErrAccountNotFound, owner),
			"ProjectsManager", "Create", "owner check")
	}

	project := container.New(container.KindProject, projectID, m.catalog, m.store, m.deps,
		container.WithDesc(desc), container.WithOwner(owner))
	if err := project.SaveMeta(ctx); err != nil {
		return nil, errors.Wrap(err, "ProjectsManager", "Create", "persist project")
	}

	m.mu.Lock()
	m.projects[projectID] = project
	m.mu.Unlock()

	m.logger.Info("project created",
		"project_id", projectID.String(), "owner", owner)
	return project, nil
}

// Update changes a project's description and persists it
func (m *ProjectsManager) Update(ctx context.Context, projectID uuid.UUID, desc string) (*container.Container, error) {
	project, err := m.Project(projectID)
	if err != nil {
		return nil, err
	}

	project.SetDesc(desc)
	if err := project.SaveMeta(ctx); err != nil {
		return nil, errors.Wrap(err, "ProjectsManager", "Update", "persist project")
	}
	return project, nil
}

// Remove tears a project down: every app is stopped before its record
// is deleted, then the project record itself goes.
func (m *ProjectsManager) Remove(ctx context.Context, projectID uuid.UUID) error {
	project, err := m.Project(projectID)
	if err != nil {
		return err
	}

	if err := project.Teardown(ctx); err != nil {
		return errors.Wrap(err, "ProjectsManager", "Remove", "teardown project")
	}

	m.mu.Lock()
	delete(m.projects, projectID)
	m.mu.Unlock()

	m.logger.Info("project removed", "project_id", projectID.String())
	return nil
}

// RemoveAll tears down every project
func (m *ProjectsManager) RemoveAll(ctx context.Context) error {
	for id := range m.Projects() {
		if err := m.Remove(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Project returns a project by identity
func (m *ProjectsManager) Project(projectID uuid.UUID) (*container.Container, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	project, ok := m.projects[projectID]
	if !ok {
		return nil, errors.WrapLookup(
			fmt.Errorf("%w: %s", errors.ErrProjectNotFound, projectID),
			"ProjectsManager", "Project", "project lookup")
	}
	return project, nil
}

// Projects returns a copy of the project set
func (m *ProjectsManager) Projects() map[uuid.UUID]*container.Container {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[uuid.UUID]*container.Container, len(m.projects))
	for id, project := range m.projects {
		out[id] = project
	}
	return out
}
