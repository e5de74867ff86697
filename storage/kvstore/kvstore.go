// Package kvstore provides a storage.Store backed by a NATS JetStream
// key-value bucket. Records survive process restarts; a bucket holds one
// runtime's container and service documents.
package kvstore

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/5g-empower/empower-core/errors"
)

// Store persists records in a JetStream KV bucket
type Store struct {
	bucket jetstream.KeyValue
}

// New wraps an existing KV bucket
func New(bucket jetstream.KeyValue) *Store {
	return &Store{bucket: bucket}
}

// Put implements storage.Store
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if _, err := s.bucket.Put(ctx, key, data); err != nil {
		return fmt.Errorf("kv put %s: %w", key, err)
	}
	return nil
}

// Get implements storage.Store
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := s.bucket.Get(ctx, key)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %q", errors.ErrKeyNotFound, key)
		}
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}
	return entry.Value(), nil
}

// List implements storage.Store
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	lister, err := s.bucket.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("kv list: %w", err)
	}

	var keys []string
	for key := range lister.Keys() {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete implements storage.Store
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Delete(ctx, key); err != nil {
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return nil
		}
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}
