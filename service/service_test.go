package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/5g-empower/empower-core/errors"
	"github.com/5g-empower/empower-core/manifest"
	"github.com/5g-empower/empower-core/scheduler"
)

// mockLifecycleContext counts durable saves issued by the service
type mockLifecycleContext struct {
	mu    sync.Mutex
	saves int
	fail  error
	id    uuid.UUID
}

func (m *mockLifecycleContext) ContainerID() uuid.UUID { return m.id }

func (m *mockLifecycleContext) SaveServiceState(_ context.Context, _ uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.saves++
	return nil
}

func (m *mockLifecycleContext) RegisterService(_ context.Context, _ string, _ map[string]any) (Service, error) {
	return nil, nil
}

func (m *mockLifecycleContext) UnregisterService(_ context.Context, _ uuid.UUID) error {
	return nil
}

func (m *mockLifecycleContext) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func testServiceManifest() manifest.Manifest {
	return manifest.Manifest{
		Params: map[string]manifest.ParamSpec{
			"message": {Type: manifest.TypeString, Default: "hello"},
			"network": {Type: manifest.TypeSSID, Static: true},
		},
		Callbacks: []string{"default", "alert"},
	}.Normalize()
}

func newTestService(t *testing.T, opts ...Option) (*Base, *mockLifecycleContext, *scheduler.Fake) {
	t.Helper()

	lctx := &mockLifecycleContext{id: uuid.New()}
	sched := scheduler.NewFake()
	deps := &Dependencies{Scheduler: sched}

	b := NewBase("empower.workers.test", uuid.New(), testServiceManifest(), lctx, deps, opts...)

	params, err := b.Manifest().ValidateAll(nil, nil)
	require.NoError(t, err)
	b.ApplyParams(params)
	return b, lctx, sched
}

func TestStartWithoutLoop(t *testing.T) {
	b, _, sched := newTestService(t)
	ctx := context.Background()

	require.NoError(t, b.Start(ctx))
	assert.Equal(t, StateIdle, b.State())
	assert.Equal(t, 0, sched.Active(), "no timer with every == -1")
}

func TestStartRunningIdempotent(t *testing.T) {
	b, _, sched := newTestService(t)
	ctx := context.Background()

	require.NoError(t, b.SetParam(ctx, "every", 100))
	require.NoError(t, b.Start(ctx))
	assert.Equal(t, StateRunning, b.State())
	assert.Equal(t, 1, sched.Active())

	// double start must not allocate a second timer
	require.NoError(t, b.Start(ctx))
	assert.Equal(t, 1, sched.Active())
}

func TestStopSavesEveryTime(t *testing.T) {
	b, lctx, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, b.Start(ctx))
	require.NoError(t, b.Stop(ctx))
	require.NoError(t, b.Stop(ctx))

	// one durable save per stop call, state-wise a no-op
	assert.Equal(t, 2, lctx.Saves())
	assert.Equal(t, StateStopped, b.State())
}

func TestStopCancelsTimer(t *testing.T) {
	b, _, sched := newTestService(t)
	ctx := context.Background()

	require.NoError(t, b.SetParam(ctx, "every", 50))
	require.NoError(t, b.Start(ctx))
	require.Equal(t, 1, sched.Active())

	require.NoError(t, b.Stop(ctx))
	assert.Equal(t, 0, sched.Active())
	assert.Equal(t, StateStopped, b.State())
}

func TestStopFromOwnTick(t *testing.T) {
	lctx := &mockLifecycleContext{id: uuid.New()}
	deps := &Dependencies{Scheduler: scheduler.NewTicker(nil)}

	// a loop body that decides to shut its own service down, the way a
	// worker does when it unregisters itself mid-tick
	stopped := make(chan error, 1)
	var b *Base
	b = NewBase("empower.workers.test", uuid.New(), testServiceManifest(), lctx, deps,
		WithTick(func(ctx context.Context) error {
			stopped <- b.Stop(ctx)
			return nil
		}))

	params, err := b.Manifest().ValidateAll(map[string]any{"every": 2}, nil)
	require.NoError(t, err)
	b.ApplyParams(params)
	require.NoError(t, b.Start(context.Background()))

	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stop from inside the loop tick never returned")
	}
	assert.Equal(t, StateStopped, b.State())
}

func TestSetEveryRestartsLoop(t *testing.T) {
	b, lctx, sched := newTestService(t)
	ctx := context.Background()

	require.NoError(t, b.SetParam(ctx, "every", 100))
	require.NoError(t, b.Start(ctx))
	require.Equal(t, []time.Duration{100 * time.Millisecond}, sched.Periods())
	savesBefore := lctx.Saves()

	require.NoError(t, b.SetParam(ctx, "every", 250))

	// the old timer is gone and the new period is scheduled from now
	assert.Equal(t, []time.Duration{250 * time.Millisecond}, sched.Periods())
	assert.Equal(t, StateRunning, b.State())
	assert.Equal(t, savesBefore+1, lctx.Saves(), "restart goes through stop, which saves")
	assert.Equal(t, 250, b.Every())
}

func TestSetEveryWhileIdleDoesNotStart(t *testing.T) {
	b, _, sched := newTestService(t)
	ctx := context.Background()

	require.NoError(t, b.Start(ctx))
	require.Equal(t, StateIdle, b.State())

	require.NoError(t, b.SetParam(ctx, "every", 100))
	assert.Equal(t, 0, sched.Active())
	assert.Equal(t, StateIdle, b.State())
}

func TestTickFailureDoesNotStopLoop(t *testing.T) {
	var ticks int
	b, _, sched := newTestService(t, WithTick(func(_ context.Context) error {
		ticks++
		return fmt.Errorf("tick %d failed", ticks)
	}))
	ctx := context.Background()

	require.NoError(t, b.SetParam(ctx, "every", 10))
	require.NoError(t, b.Start(ctx))

	sched.Fire()
	sched.Fire()
	assert.Equal(t, 2, ticks, "failed ticks must not cancel the timer")
	assert.Equal(t, StateRunning, b.State())
}

func TestSetParamValidation(t *testing.T) {
	b, _, _ := newTestService(t)
	ctx := context.Background()

	err := b.SetParam(ctx, "bogus", "x")
	assert.ErrorIs(t, err, errors.ErrUnknownParameter)

	err = b.SetParam(ctx, "every", "soon")
	assert.ErrorIs(t, err, errors.ErrInvalidParameterValue)

	require.NoError(t, b.SetParam(ctx, "message", "updated"))
	value, ok := b.Param("message")
	require.True(t, ok)
	assert.Equal(t, "updated", value)
}

func TestSetParamStatic(t *testing.T) {
	b, _, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, b.SetParam(ctx, "network", "guest"))
	err := b.SetParam(ctx, "network", "other")
	assert.ErrorIs(t, err, errors.ErrImmutableParameter)
}

func TestDefaultLoopBody(t *testing.T) {
	b, _, sched := newTestService(t)
	ctx := context.Background()

	require.NoError(t, b.SetParam(ctx, "every", 10))
	require.NoError(t, b.Start(ctx))

	// the empty loop must be callable without panicking
	sched.Fire()
}

func TestStopReportsSaveFailure(t *testing.T) {
	b, lctx, sched := newTestService(t)
	ctx := context.Background()

	require.NoError(t, b.SetParam(ctx, "every", 10))
	require.NoError(t, b.Start(ctx))

	lctx.fail = fmt.Errorf("store unavailable")
	err := b.Stop(ctx)
	assert.Error(t, err)

	// the timer is still cancelled so no tick leaks past stop
	assert.Equal(t, 0, sched.Active())
}

func TestStringForm(t *testing.T) {
	b, _, _ := newTestService(t)
	assert.Equal(t, "empower.workers.test", b.String())
	assert.Equal(t, "empower.workers.test", fmt.Sprintf("%s", b))
}
