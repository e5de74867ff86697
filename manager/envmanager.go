package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/5g-empower/empower-core/container"
	"github.com/5g-empower/empower-core/errors"
	"github.com/5g-empower/empower-core/service"
	"github.com/5g-empower/empower-core/storage"
)

// EnvManager owns the default environment, the singleton container that
// hosts workers. Start adopts the durable environment when one exists
// and bootstraps a fresh one otherwise.
type EnvManager struct {
	catalog *container.Catalog
	store   storage.Store
	deps    *service.Dependencies
	logger  *slog.Logger

	mu  sync.RWMutex
	env *container.Container
}

// NewEnvManager creates an environment manager. The catalog lists the
// worker types the environment can instantiate.
func NewEnvManager(catalog *container.Catalog, store storage.Store, deps *service.Dependencies) *EnvManager {
	if deps == nil {
		deps = &service.Dependencies{}
	}
	deps.Normalize()

	return &EnvManager{
		catalog: catalog,
		store:   store,
		deps:    deps,
		logger:  deps.Logger.With("manager", "env"),
	}
}

// Start brings up the default environment. When a durable environment
// record exists its identity and services are restored; otherwise a new
// environment is created and persisted. Restored services are started.
func (m *EnvManager) Start(ctx context.Context) error {
	metas, err := loadMetas(ctx, m.store, container.KindEnv)
	if err != nil {
		return errors.Wrap(err, "EnvManager", "Start", "load environment records")
	}

	var env *container.Container
	switch {
	case len(metas) == 0:
		env = container.New(container.KindEnv, uuid.New(), m.catalog, m.store, m.deps)
		if err := env.SaveMeta(ctx); err != nil {
			return errors.Wrap(err, "EnvManager", "Start", "persist environment")
		}
		m.logger.Info("default environment created", "env_id", env.ID().String())
	default:
		meta := metas[0]
		env = container.New(container.KindEnv, meta.ContainerID, m.catalog, m.store, m.deps,
			container.WithDesc(meta.Desc))
		if err := env.LoadServices(ctx); err != nil {
			return errors.Wrap(err, "EnvManager", "Start", "load workers")
		}
		m.logger.Info("default environment restored",
			"env_id", env.ID().String(), "workers", len(env.Services()))
	}

	m.mu.Lock()
	m.env = env
	m.mu.Unlock()

	env.StartServices(ctx)
	return nil
}

// Stop stops every worker, saving each one's durable state
func (m *EnvManager) Stop(ctx context.Context) {
	env := m.Env()
	if env != nil {
		env.StopServices(ctx)
	}
}

// Env returns the default environment, nil before Start
func (m *EnvManager) Env() *container.Container {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.env
}

// loadMetas reads every durable container record of one kind, in key
// order
func loadMetas(ctx context.Context, store storage.Store, kind string) ([]container.Meta, error) {
	if store == nil {
		return nil, nil
	}

	keys, err := store.List(ctx, kind+".")
	if err != nil {
		return nil, err
	}

	var metas []container.Meta
	for _, key := range keys {
		if !strings.HasSuffix(key, ".meta") {
			continue
		}
		data, err := store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", key, err)
		}
		var meta container.Meta
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		metas = append(metas, meta)
	}
	return metas, nil
}
