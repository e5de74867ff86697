// Package container implements the grouping entities that own services:
// environments and projects. A container instantiates services from
// catalog entries with validated parameters, persists their records, and
// tears them down with a stop-before-delete discipline.
package container

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/5g-empower/empower-core/manifest"
	"github.com/5g-empower/empower-core/service"
)

// Factory creates a service instance of one catalog type. The container
// passes itself as the lifecycle context; params are already validated
// against the entry manifest. The product must satisfy service.Service,
// which the container enforces at creation.
type Factory func(lctx service.Context, id uuid.UUID, params map[string]any, deps *service.Dependencies) (any, error)

// Entry is one loadable service type
type Entry struct {
	TypeName string
	Manifest manifest.Manifest
	Factory  Factory
}

// Catalog maps service type names to their manifest and factory. It
// replaces namespace scanning with explicit registration: the runtime
// registers its service types at bootstrap.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]Entry)}
}

// Register adds a service type to the catalog. The manifest is
// normalized once here so every later validation sees the implicit loop
// period parameter.
func (c *Catalog) Register(typeName string, man manifest.Manifest, factory Factory) error {
	if typeName == "" {
		return fmt.Errorf("catalog: type name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("catalog: factory cannot be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[typeName]; exists {
		return fmt.Errorf("catalog: type %s already registered", typeName)
	}

	c.entries[typeName] = Entry{
		TypeName: typeName,
		Manifest: man.Normalize(),
		Factory:  factory,
	}
	return nil
}

// Resolve returns the entry for a service type name
func (c *Catalog) Resolve(typeName string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[typeName]
	return entry, ok
}

// Manifests returns the manifest of every registered type
func (c *Catalog) Manifests() map[string]manifest.Manifest {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]manifest.Manifest, len(c.entries))
	for name, entry := range c.entries {
		out[name] = entry.Manifest
	}
	return out
}

// Types returns all registered type names in sorted order
func (c *Catalog) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
