package service

import (
	"github.com/google/uuid"
)

// Record is the serializable projection of a service: the shape written
// to durable storage and returned by the REST surface. The loop period
// lives inside Params under the "every" key.
type Record struct {
	ServiceID uuid.UUID           `json:"service_id"`
	Name      string              `json:"name"`
	Params    map[string]any      `json:"params"`
	Callbacks map[string]Callback `json:"callbacks"`
}

// Record returns the live representation of the service, including
// NATIVE callback entries (without their in-process handles).
func (b *Base) Record() Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	callbacks := make(map[string]Callback, len(b.callbacks))
	for name, cb := range b.callbacks {
		cb.fn = nil
		callbacks[name] = cb
	}

	return Record{
		ServiceID: b.id,
		Name:      b.typeName,
		Params:    b.paramsLocked(),
		Callbacks: callbacks,
	}
}

// DurableRecord returns the representation written to durable storage.
// NATIVE callbacks are never persisted, so only REST entries survive.
func (b *Base) DurableRecord() Record {
	record := b.Record()

	durable := make(map[string]Callback, len(record.Callbacks))
	for name, cb := range record.Callbacks {
		if cb.Kind == KindRest {
			durable[name] = cb
		}
	}
	record.Callbacks = durable
	return record
}
