// Package memstore provides an in-memory storage.Store used by tests and
// by the runtime's "memory" persistence mode.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/5g-empower/empower-core/errors"
)

// Store is a thread-safe in-memory key-value store
type Store struct {
	mu      sync.RWMutex
	records map[string][]byte

	// write counters, exposed for tests asserting durable-save behavior
	puts    int
	deletes int
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{records: make(map[string][]byte)}
}

// Put implements storage.Store
func (s *Store) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(data))
	copy(cp, data)
	s.records[key] = cp
	s.puts++
	return nil
}

// Get implements storage.Store
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.records[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errors.ErrKeyNotFound, key)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List implements storage.Store
func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.records))
	for key := range s.records {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete implements storage.Store
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	s.deletes++
	return nil
}

// Puts returns the number of Put calls observed
func (s *Store) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}

// Deletes returns the number of Delete calls observed
func (s *Store) Deletes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deletes
}
