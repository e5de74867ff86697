// Package storage provides the pluggable persistence backend used for
// durable container and service records.
package storage

import "context"

// Store is the durable record store contract. Keys are dot-separated
// hierarchical paths ("env.<id>.svc.<id>"), values are JSON documents.
//
// The runtime treats a Store as synchronous-but-fast local persistence: a
// Put issued before a service stop returns must have taken effect before
// the process is considered cleanly stopped. Remote backends must be
// wrapped so they do not stall the callers.
//
// Implementations must be safe for concurrent use:
//   - memstore.Store: in-memory map, used in tests and dev mode
//   - kvstore.Store: NATS JetStream key-value bucket
type Store interface {
	// Put creates or overwrites the record at key
	Put(ctx context.Context, key string, data []byte) error

	// Get retrieves the record at key. A missing key surfaces as
	// errors.ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns all keys with the given prefix in lexicographic order.
	// An empty prefix lists every key.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the record at key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error
}
