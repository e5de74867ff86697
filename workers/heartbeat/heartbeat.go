// Package heartbeat is a minimal periodic worker: every loop iteration
// it fires the default callback with a beat counter. It doubles as the
// reference for writing new worker types.
package heartbeat

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/5g-empower/empower-core/container"
	"github.com/5g-empower/empower-core/manifest"
	"github.com/5g-empower/empower-core/service"
)

// TypeName identifies this worker in the catalog
const TypeName = "empower.workers.heartbeat"

// Manifest declares the worker parameters and callbacks
func Manifest() manifest.Manifest {
	return manifest.Manifest{
		Label: "Heartbeat worker",
		Params: map[string]manifest.ParamSpec{
			"message": {
				Type:        manifest.TypeString,
				Default:     "alive",
				Description: "Text attached to every beat",
			},
		},
		Callbacks: []string{"default"},
	}
}

// Worker emits a beat on every loop iteration
type Worker struct {
	*service.Base

	mu    sync.Mutex
	beats uint64
}

// New creates a heartbeat worker with validated parameters
func New(lctx service.Context, id uuid.UUID, params map[string]any, deps *service.Dependencies) *Worker {
	w := &Worker{}
	w.Base = service.NewBase(TypeName, id, Manifest().Normalize(), lctx, deps,
		service.WithTick(w.tick))
	w.ApplyParams(params)
	return w
}

// Beats returns the number of completed loop iterations
func (w *Worker) Beats() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.beats
}

func (w *Worker) tick(ctx context.Context) error {
	w.mu.Lock()
	w.beats++
	beats := w.beats
	w.mu.Unlock()

	message, _ := w.Param("message")
	w.InvokeCallback(ctx, "default", map[string]any{
		"message": message,
		"beats":   beats,
	})
	return nil
}

// Register adds the worker type to a catalog
func Register(cat *container.Catalog) error {
	return cat.Register(TypeName, Manifest(),
		func(lctx service.Context, id uuid.UUID, params map[string]any, deps *service.Dependencies) (any, error) {
			return New(lctx, id, params, deps), nil
		})
}
