package container

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/5g-empower/empower-core/errors"
	"github.com/5g-empower/empower-core/service"
	"github.com/5g-empower/empower-core/storage"
)

// Container kinds, used as the leading segment of storage keys
const (
	KindEnv     = "env"
	KindProject = "prj"
)

// Meta is the durable representation of the container itself
type Meta struct {
	ContainerID uuid.UUID `json:"project_id"`
	Desc        string    `json:"desc,omitempty"`
	Owner       string    `json:"owner,omitempty"`
}

// View is the JSON representation returned by the REST surface
type View struct {
	ContainerID uuid.UUID                 `json:"project_id"`
	Desc        string                    `json:"desc,omitempty"`
	Owner       string                    `json:"owner,omitempty"`
	Services    map[string]service.Record `json:"services"`
}

// Option configures a Container
type Option func(*Container)

// WithDesc sets the human readable description
func WithDesc(desc string) Option {
	return func(c *Container) {
		c.desc = desc
	}
}

// WithOwner sets the owning account username
func WithOwner(owner string) Option {
	return func(c *Container) {
		c.owner = owner
	}
}

// Container owns a set of services and their durable records. The
// service map is exclusively owned: no two containers share a service
// instance, and only the container's own create/remove operations mutate
// the map.
type Container struct {
	id      uuid.UUID
	kind    string
	catalog *Catalog
	store   storage.Store
	deps    *service.Dependencies
	logger  *slog.Logger

	mu       sync.RWMutex
	desc     string
	owner    string
	services map[uuid.UUID]service.Service
}

// New creates a container of the given kind. store may be nil in tests,
// in which case persistence is skipped.
func New(kind string, id uuid.UUID, catalog *Catalog, store storage.Store, deps *service.Dependencies, opts ...Option) *Container {
	if deps == nil {
		deps = &service.Dependencies{}
	}
	deps.Normalize()

	c := &Container{
		id:       id,
		kind:     kind,
		catalog:  catalog,
		store:    store,
		deps:     deps,
		logger:   deps.Logger.With("container", kind, "container_id", id.String()),
		services: make(map[uuid.UUID]service.Service),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the container identity
func (c *Container) ID() uuid.UUID {
	return c.id
}

// Kind returns the container kind
func (c *Container) Kind() string {
	return c.kind
}

// Desc returns the description
func (c *Container) Desc() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.desc
}

// SetDesc updates the description; the caller persists via SaveMeta
func (c *Container) SetDesc(desc string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.desc = desc
}

// Owner returns the owning account username
func (c *Container) Owner() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.owner
}

// ContainerID implements service.Context
func (c *Container) ContainerID() uuid.UUID {
	return c.id
}

// SaveServiceState implements service.Context: it durably writes the
// service's current record. Issued synchronously so a save requested
// before stop returns has taken effect when the caller resumes.
func (c *Container) SaveServiceState(ctx context.Context, serviceID uuid.UUID) error {
	c.mu.RLock()
	svc, ok := c.services[serviceID]
	c.mu.RUnlock()

	if !ok {
		return errors.WrapLookup(
			fmt.Errorf("%w: %s", errors.ErrServiceNotFound, serviceID),
			"Container", "SaveServiceState", "service lookup")
	}
	if c.store == nil {
		return nil
	}

	record := svc.DurableRecord()
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "Container", "SaveServiceState", "encode record")
	}
	if err := c.store.Put(ctx, c.serviceKey(serviceID), data); err != nil {
		return errors.Wrap(err, "Container", "SaveServiceState", "put record")
	}
	if c.deps.Metrics != nil {
		c.deps.Metrics.RecordDurableSave(c.kind)
	}
	return nil
}

// RegisterService implements service.Context: it returns a running
// service of the given type and parameters, reusing an existing instance
// when one matches, spawning a new one otherwise.
func (c *Container) RegisterService(ctx context.Context, typeName string, params map[string]any) (service.Service, error) {
	entry, ok := c.catalog.Resolve(typeName)
	if !ok {
		return nil, errors.WrapLookup(
			fmt.Errorf("%w: %q", errors.ErrServiceTypeNotFound, typeName),
			"Container", "RegisterService", "catalog lookup")
	}

	accepted, err := entry.Manifest.ValidateAll(params, nil)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	for _, svc := range c.services {
		if svc.TypeName() == typeName && reflect.DeepEqual(svc.Params(), accepted) {
			c.mu.RUnlock()
			return svc, nil
		}
	}
	c.mu.RUnlock()

	return c.CreateService(ctx, typeName, uuid.New(), params)
}

// UnregisterService implements service.Context
func (c *Container) UnregisterService(ctx context.Context, serviceID uuid.UUID) error {
	return c.RemoveService(ctx, serviceID)
}

// CreateService instantiates a catalog entry with validated parameters,
// registers it under its identity, persists its record and starts it.
// Validation or factory errors abort cleanly with no partial
// registration.
func (c *Container) CreateService(ctx context.Context, typeName string, serviceID uuid.UUID, params map[string]any) (service.Service, error) {
	entry, ok := c.catalog.Resolve(typeName)
	if !ok {
		return nil, errors.WrapLookup(
			fmt.Errorf("%w: %q", errors.ErrServiceTypeNotFound, typeName),
			"Container", "CreateService", "catalog lookup")
	}

	accepted, err := entry.Manifest.ValidateAll(params, nil)
	if err != nil {
		return nil, err
	}

	product, err := entry.Factory(c, serviceID, accepted, c.deps)
	if err != nil {
		return nil, errors.Wrap(err, "Container", "CreateService", "factory call")
	}

	svc, ok := product.(service.Service)
	if !ok || svc == nil || svc.ID() != serviceID {
		return nil, errors.WrapValidation(
			fmt.Errorf("%w: %q", errors.ErrInvalidServiceImplementation, typeName),
			"Container", "CreateService", "capability check")
	}

	c.mu.Lock()
	c.services[serviceID] = svc
	c.mu.Unlock()

	if err := c.SaveServiceState(ctx, serviceID); err != nil {
		c.mu.Lock()
		delete(c.services, serviceID)
		c.mu.Unlock()
		return nil, err
	}

	if err := svc.Start(ctx); err != nil {
		c.mu.Lock()
		delete(c.services, serviceID)
		c.mu.Unlock()
		if c.store != nil {
			_ = c.store.Delete(ctx, c.serviceKey(serviceID))
		}
		return nil, errors.Wrap(err, "Container", "CreateService", "start service")
	}

	c.logger.Info("service created", "type", typeName, "service_id", serviceID.String())
	return svc, nil
}

// RemoveService stops a service, deletes its durable record and drops it
// from the service map, in that order. Stop-before-delete is mandatory:
// a dangling timer must never reference a deleted record.
func (c *Container) RemoveService(ctx context.Context, serviceID uuid.UUID) error {
	c.mu.RLock()
	svc, ok := c.services[serviceID]
	c.mu.RUnlock()

	if !ok {
		return errors.WrapLookup(
			fmt.Errorf("%w: %s", errors.ErrServiceNotFound, serviceID),
			"Container", "RemoveService", "service lookup")
	}

	if err := svc.Stop(ctx); err != nil {
		c.logger.Error("final save failed while removing service",
			"service_id", serviceID.String(), "error", err)
	}

	if c.store != nil {
		if err := c.store.Delete(ctx, c.serviceKey(serviceID)); err != nil {
			return errors.Wrap(err, "Container", "RemoveService", "delete record")
		}
	}

	c.mu.Lock()
	delete(c.services, serviceID)
	c.mu.Unlock()

	c.logger.Info("service removed", "service_id", serviceID.String())
	return nil
}

// Service returns an owned service by identity
func (c *Container) Service(serviceID uuid.UUID) (service.Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	svc, ok := c.services[serviceID]
	if !ok {
		return nil, errors.WrapLookup(
			fmt.Errorf("%w: %s", errors.ErrServiceNotFound, serviceID),
			"Container", "Service", "service lookup")
	}
	return svc, nil
}

// Services returns a copy of the owned service set
func (c *Container) Services() map[uuid.UUID]service.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[uuid.UUID]service.Service, len(c.services))
	for id, svc := range c.services {
		out[id] = svc
	}
	return out
}

// StartServices starts every owned service. Individual start failures
// are logged and do not abort the remaining services.
func (c *Container) StartServices(ctx context.Context) {
	for id, svc := range c.Services() {
		if err := svc.Start(ctx); err != nil {
			c.logger.Error("service start failed", "service_id", id.String(), "error", err)
		}
	}
}

// StopServices stops every owned service, saving each one's state
func (c *Container) StopServices(ctx context.Context) {
	for id, svc := range c.Services() {
		if err := svc.Stop(ctx); err != nil {
			c.logger.Error("service stop failed", "service_id", id.String(), "error", err)
		}
	}
}

// LoadServices rebuilds the in-memory service set from durable records.
// Loaded services are not started; the owner calls StartServices once
// loading completes.
func (c *Container) LoadServices(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	keys, err := c.store.List(ctx, c.servicePrefix())
	if err != nil {
		return errors.Wrap(err, "Container", "LoadServices", "list records")
	}

	for _, key := range keys {
		data, err := c.store.Get(ctx, key)
		if err != nil {
			return errors.Wrap(err, "Container", "LoadServices", "get record")
		}

		var record service.Record
		if err := json.Unmarshal(data, &record); err != nil {
			c.logger.Error("skipping corrupt service record", "key", key, "error", err)
			continue
		}

		if err := c.restoreService(record); err != nil {
			c.logger.Error("skipping unloadable service record",
				"key", key, "type", record.Name, "error", err)
		}
	}
	return nil
}

// restoreService reinstantiates one persisted record
func (c *Container) restoreService(record service.Record) error {
	entry, ok := c.catalog.Resolve(record.Name)
	if !ok {
		return fmt.Errorf("%w: %q", errors.ErrServiceTypeNotFound, record.Name)
	}

	accepted, err := entry.Manifest.ValidateAll(record.Params, nil)
	if err != nil {
		return err
	}

	product, err := entry.Factory(c, record.ServiceID, accepted, c.deps)
	if err != nil {
		return err
	}

	svc, ok := product.(service.Service)
	if !ok || svc == nil {
		return fmt.Errorf("%w: %q", errors.ErrInvalidServiceImplementation, record.Name)
	}

	if restorable, ok := product.(interface {
		RestoreCallbacks(map[string]service.Callback)
	}); ok {
		restorable.RestoreCallbacks(record.Callbacks)
	}

	c.mu.Lock()
	c.services[record.ServiceID] = svc
	c.mu.Unlock()
	return nil
}

// SaveMeta durably persists the container's own record
func (c *Container) SaveMeta(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	data, err := json.Marshal(Meta{ContainerID: c.id, Desc: c.Desc(), Owner: c.Owner()})
	if err != nil {
		return errors.Wrap(err, "Container", "SaveMeta", "encode meta")
	}
	if err := c.store.Put(ctx, c.metaKey(), data); err != nil {
		return errors.Wrap(err, "Container", "SaveMeta", "put meta")
	}
	return nil
}

// Teardown removes every owned service (stopping each first) and then
// deletes the container's durable record. After Teardown returns no
// timer of any formerly owned service can fire.
func (c *Container) Teardown(ctx context.Context) error {
	for id := range c.Services() {
		if err := c.RemoveService(ctx, id); err != nil {
			return err
		}
	}

	if c.store != nil {
		if err := c.store.Delete(ctx, c.metaKey()); err != nil {
			return errors.Wrap(err, "Container", "Teardown", "delete meta")
		}
	}
	return nil
}

// ViewDoc returns the REST representation of the container
func (c *Container) ViewDoc() View {
	view := View{
		ContainerID: c.id,
		Desc:        c.Desc(),
		Owner:       c.Owner(),
		Services:    make(map[string]service.Record),
	}
	for id, svc := range c.Services() {
		view.Services[id.String()] = svc.Record()
	}
	return view
}

func (c *Container) metaKey() string {
	return fmt.Sprintf("%s.%s.meta", c.kind, c.id)
}

func (c *Container) servicePrefix() string {
	return fmt.Sprintf("%s.%s.svc.", c.kind, c.id)
}

func (c *Container) serviceKey(serviceID uuid.UUID) string {
	return c.servicePrefix() + serviceID.String()
}
