// Package service implements the core service unit of the runtime: a
// named, independently configurable component with typed parameters
// validated against a manifest, an optional periodic loop, and a registry
// of named callbacks for in-process or remote notification.
package service

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/5g-empower/empower-core/manifest"
	"github.com/5g-empower/empower-core/metric"
	"github.com/5g-empower/empower-core/scheduler"
)

// State represents the current lifecycle state of a service
type State int

const (
	// StateCreated indicates the service was created but not started
	StateCreated State = iota
	// StateIdle indicates the service started with no periodic loop
	StateIdle
	// StateRunning indicates the periodic loop is active
	StateRunning
	// StateStopped indicates the service was stopped
	StateStopped
)

// String returns a string representation of the service state
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Context is the lifecycle context a container supplies to each service
// it owns. It mediates durable persistence and sibling service
// registration. A service created without a context (tests, ad-hoc use)
// skips persistence.
type Context interface {
	// ContainerID returns the owning container's identity
	ContainerID() uuid.UUID

	// SaveServiceState durably persists the service's current record
	SaveServiceState(ctx context.Context, serviceID uuid.UUID) error

	// RegisterService returns a running service of the given type with
	// the given parameters, spawning one if none matches
	RegisterService(ctx context.Context, typeName string, params map[string]any) (Service, error)

	// UnregisterService removes a service from the container
	UnregisterService(ctx context.Context, serviceID uuid.UUID) error
}

// Service is the capability contract every hosted service satisfies.
// Container creation rejects factory products that do not implement it.
type Service interface {
	ID() uuid.UUID
	TypeName() string
	Manifest() manifest.Manifest
	State() State

	Params() map[string]any
	SetParam(ctx context.Context, name string, value any) error
	Every() int

	AddCallback(ctx context.Context, name string, kind Kind, target any) error
	RemoveCallback(ctx context.Context, name string) error
	InvokeCallback(ctx context.Context, name string, payload any)
	Callback(name string) (Callback, bool)
	Callbacks() map[string]Callback

	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	Record() Record
	DurableRecord() Record
}

// Dependencies carries the collaborators injected into services
type Dependencies struct {
	Logger     *slog.Logger
	Scheduler  scheduler.Scheduler
	Metrics    *metric.Metrics
	HTTPClient *http.Client
}

// Normalize fills unset dependencies with production defaults
func (d *Dependencies) Normalize() {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Scheduler == nil {
		d.Scheduler = scheduler.NewTicker(d.Logger)
	}
	if d.HTTPClient == nil {
		d.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
}

// TickFunc is one execution of a service's periodic loop body
type TickFunc func(ctx context.Context) error

// Option is a functional option for configuring Base
type Option func(*Base)

// WithTick sets the periodic loop body
func WithTick(tick TickFunc) Option {
	return func(b *Base) {
		b.tick = tick
	}
}

// Base provides the service contract for concrete service types to embed.
// All mutation of parameters and callbacks is serialized with tick
// execution through the base mutex, so a tick never observes a callback
// map mid-mutation.
type Base struct {
	id       uuid.UUID
	typeName string
	man      manifest.Manifest
	lctx     Context
	deps     *Dependencies
	logger   *slog.Logger

	mu        sync.Mutex
	state     State
	params    map[string]any
	callbacks map[string]Callback
	handle    scheduler.Handle
	tick      TickFunc
}

// NewBase creates a service base. The manifest must already be
// normalized; parameters are applied separately after validation.
func NewBase(typeName string, id uuid.UUID, man manifest.Manifest, lctx Context, deps *Dependencies, opts ...Option) *Base {
	if deps == nil {
		deps = &Dependencies{}
	}
	deps.Normalize()

	b := &Base{
		id:        id,
		typeName:  typeName,
		man:       man,
		lctx:      lctx,
		deps:      deps,
		logger:    deps.Logger.With("service", typeName, "service_id", id.String()),
		state:     StateCreated,
		params:    make(map[string]any),
		callbacks: make(map[string]Callback),
		tick:      nil,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.tick == nil {
		b.tick = b.emptyLoop
	}
	return b
}

// ID returns the service identity
func (b *Base) ID() uuid.UUID {
	return b.id
}

// TypeName returns the catalog-assigned service type name
func (b *Base) TypeName() string {
	return b.typeName
}

// Manifest returns the service type's parameter manifest
func (b *Base) Manifest() manifest.Manifest {
	return b.man
}

// State returns the current lifecycle state
func (b *Base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Logger returns the service's structured logger
func (b *Base) Logger() *slog.Logger {
	return b.logger
}

// Params returns a copy of the service's current parameter values
func (b *Base) Params() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paramsLocked()
}

func (b *Base) paramsLocked() map[string]any {
	out := make(map[string]any, len(b.params))
	for name, value := range b.params {
		out[name] = value
	}
	return out
}

// Param returns a single parameter value
func (b *Base) Param(name string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	value, ok := b.params[name]
	return value, ok
}

// ApplyParams installs an already-validated parameter set. Used by the
// container at creation and restore time; every external write goes
// through SetParam instead.
func (b *Base) ApplyParams(params map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for name, value := range params {
		b.params[name] = value
	}
}

// SetParam validates one parameter write against the manifest and stores
// the accepted value. Setting the loop period of a running service stops
// and restarts the loop so the new period takes effect immediately; no
// tick from the old period fires after SetParam returns.
func (b *Base) SetParam(ctx context.Context, name string, value any) error {
	b.mu.Lock()
	current := b.paramsLocked()
	b.mu.Unlock()

	accepted, err := b.man.Validate(name, value, current)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.params[name] = accepted
	restart := name == manifest.EveryParam && b.state == StateRunning
	b.mu.Unlock()

	if restart {
		if err := b.Stop(ctx); err != nil {
			return err
		}
		return b.Start(ctx)
	}
	return nil
}

// Every returns the loop period in milliseconds, -1 when disabled
func (b *Base) Every() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.everyLocked()
}

func (b *Base) everyLocked() int {
	if value, ok := b.params[manifest.EveryParam]; ok {
		if every, ok := value.(int); ok {
			return every
		}
	}
	return manifest.EveryDisabled
}

// Start starts the periodic loop. With the loop disabled the service
// transitions to idle and no timer is allocated. Starting a running
// service is idempotent: no second timer is created.
func (b *Base) Start(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateRunning {
		return nil
	}

	every := b.everyLocked()
	if every == manifest.EveryDisabled {
		b.setStateLocked(StateIdle)
		b.logger.Info("service started without loop")
		return nil
	}

	period := time.Duration(every) * time.Millisecond
	b.handle = b.deps.Scheduler.Every(period, b.runTick)
	b.setStateLocked(StateRunning)
	b.logger.Info("service loop started", "every_ms", every)
	return nil
}

// Stop durably saves the service state, then cancels the periodic loop
// when one is active. The save happens on every call, so stopping an
// idle or already-stopped service is a harmless save-only operation.
func (b *Base) Stop(ctx context.Context) error {
	saveErr := b.saveState(ctx)

	b.mu.Lock()
	handle := b.handle
	b.handle = nil
	b.setStateLocked(StateStopped)
	b.mu.Unlock()

	if handle != nil {
		// waits for an in-flight tick, so no tick fires after this
		// returns; a tick stopping its own service returns immediately
		handle.Stop()
		b.logger.Info("service loop stopped")
	}
	return saveErr
}

// runTick executes one serialized loop tick. Failures are logged and
// never stop the timer.
func (b *Base) runTick() {
	b.mu.Lock()
	tick := b.tick
	b.mu.Unlock()

	start := time.Now()
	err := tick(context.Background())
	if err != nil {
		b.logger.Error("loop tick failed", "error", err)
	}
	if b.deps.Metrics != nil {
		b.deps.Metrics.RecordTick(b.typeName, time.Since(start), err)
	}
}

// emptyLoop is the default loop body
func (b *Base) emptyLoop(_ context.Context) error {
	b.logger.Info("empty loop")
	return nil
}

// saveState persists the current record through the lifecycle context
func (b *Base) saveState(ctx context.Context) error {
	if b.lctx == nil {
		return nil
	}
	return b.lctx.SaveServiceState(ctx, b.id)
}

func (b *Base) setStateLocked(state State) {
	b.state = state
	if b.deps.Metrics != nil {
		b.deps.Metrics.RecordServiceState(b.typeName, int(state))
	}
}

// String returns the service type name
func (b *Base) String() string {
	return b.typeName
}
