package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/5g-empower/empower-core/errors"
)

// Kind is the delivery kind of a callback
type Kind string

const (
	// KindNative is an in-process invocable, never persisted
	KindNative Kind = "native"
	// KindRest is a durable webhook target delivered over HTTP POST
	KindRest Kind = "rest"
)

// ValidKind reports whether k belongs to the closed kind set
func ValidKind(k Kind) bool {
	return k == KindNative || k == KindRest
}

// NativeFunc is the in-process callback handle signature. The argument is
// the invocation payload, or the invoking service when no payload was
// supplied. In the no-payload case the argument is the Service view of
// the embedded base, not the concrete type embedding it; a handle that
// needs the concrete type should close over it instead of asserting.
type NativeFunc func(arg any)

// Callback is one entry of a service's callback registry
type Callback struct {
	Name   string `json:"name"`
	Kind   Kind   `json:"callback_type"`
	Target string `json:"callback,omitempty"`

	fn NativeFunc
}

// AddCallback registers a callback under a name declared in the service
// manifest. NATIVE targets must be a NativeFunc (or compatible func) and
// are held only in memory. REST targets are normalized to canonical URL
// form and the service state is durably saved before the call returns.
func (b *Base) AddCallback(ctx context.Context, name string, kind Kind, target any) error {
	if !b.man.DeclaresCallback(name) {
		return errors.WrapValidation(
			fmt.Errorf("%w: %q", errors.ErrCallbackNotDeclared, name),
			"Service", "AddCallback", "manifest check")
	}
	if !ValidKind(kind) {
		return errors.WrapValidation(
			fmt.Errorf("%w: %q", errors.ErrInvalidCallbackKind, kind),
			"Service", "AddCallback", "kind check")
	}

	switch kind {
	case KindNative:
		fn, err := asNativeFunc(target)
		if err != nil {
			return err
		}
		b.mu.Lock()
		b.callbacks[name] = Callback{Name: name, Kind: KindNative, fn: fn}
		b.mu.Unlock()
		return nil

	case KindRest:
		normalized, err := normalizeTarget(target)
		if err != nil {
			return err
		}
		b.mu.Lock()
		b.callbacks[name] = Callback{Name: name, Kind: KindRest, Target: normalized}
		b.mu.Unlock()
		// a crash after registration must not lose the callback
		return b.saveState(ctx)
	}

	return errors.WrapValidation(
		fmt.Errorf("%w: %q", errors.ErrInvalidCallbackKind, kind),
		"Service", "AddCallback", "kind check")
}

// RemoveCallback deletes a registered callback and durably saves the
// service state so the persisted callback set stays consistent.
func (b *Base) RemoveCallback(ctx context.Context, name string) error {
	b.mu.Lock()
	_, ok := b.callbacks[name]
	if ok {
		delete(b.callbacks, name)
	}
	b.mu.Unlock()

	if !ok {
		return errors.WrapLookup(
			fmt.Errorf("%w: %q", errors.ErrCallbackNotFound, name),
			"Service", "RemoveCallback", "registry lookup")
	}
	return b.saveState(ctx)
}

// Callback returns a registered callback by name
func (b *Base) Callback(name string) (Callback, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cb, ok := b.callbacks[name]
	return cb, ok
}

// Callbacks returns a copy of the callback registry
func (b *Base) Callbacks() map[string]Callback {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]Callback, len(b.callbacks))
	for name, cb := range b.callbacks {
		out[name] = cb
	}
	return out
}

// RestoreCallbacks reinstalls persisted callback entries when a container
// reloads a service record. Only REST entries are durable, so only REST
// entries are accepted here.
func (b *Base) RestoreCallbacks(callbacks map[string]Callback) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for name, cb := range callbacks {
		if cb.Kind != KindRest {
			continue
		}
		cb.Name = name
		b.callbacks[name] = cb
	}
}

// InvokeCallback triggers the named callback with the given payload, or
// with the service itself when payload is nil. Invoking an unregistered
// name is a no-op: callback absence is a normal condition. Delivery
// failures are caught and logged; they never reach the caller.
func (b *Base) InvokeCallback(ctx context.Context, name string, payload any) {
	b.mu.Lock()
	cb, ok := b.callbacks[name]
	b.mu.Unlock()

	if !ok {
		return
	}

	b.logger.Info("handling callback", "name", name, "callback_type", cb.Kind)

	switch cb.Kind {
	case KindNative:
		b.invokeNative(cb, payload)
	case KindRest:
		// dispatched off the caller's goroutine: remote delivery must not
		// block a loop tick
		go b.invokeRest(ctx, cb, payload)
	}
}

func (b *Base) invokeNative(cb Callback, payload any) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.WrapDispatch(
				fmt.Errorf("callback panicked: %v", r),
				"Service", "InvokeCallback", "native call")
			b.logger.Error("callback dispatch failed",
				"name", cb.Name, "callback_type", cb.Kind, "error", err)
			b.recordDispatch(cb.Kind, "error")
		}
	}()

	arg := payload
	if arg == nil {
		arg = Service(b)
	}
	cb.fn(arg)
	b.recordDispatch(cb.Kind, "ok")
}

func (b *Base) invokeRest(ctx context.Context, cb Callback, payload any) {
	body := payload
	if body == nil {
		body = b.Record()
	}

	serialized, err := json.Marshal(body)
	if err != nil {
		b.logDispatchError(cb, errors.WrapDispatch(err, "Service", "InvokeCallback", "serialize payload"))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cb.Target, bytes.NewReader(serialized))
	if err != nil {
		b.logDispatchError(cb, errors.WrapDispatch(err, "Service", "InvokeCallback", "build request"))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.deps.HTTPClient.Do(req)
	if err != nil {
		b.logDispatchError(cb, errors.WrapDispatch(err, "Service", "InvokeCallback", "POST"))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b.logDispatchError(cb, errors.WrapDispatch(
			fmt.Errorf("unexpected status %d", resp.StatusCode),
			"Service", "InvokeCallback", "POST"))
		return
	}

	b.logger.Info("POST delivered", "callback", cb.Target, "status", resp.StatusCode)
	b.recordDispatch(cb.Kind, "ok")
}

func (b *Base) logDispatchError(cb Callback, err error) {
	b.logger.Error("callback dispatch failed",
		"name", cb.Name, "callback_type", cb.Kind, "callback", cb.Target, "error", err)
	b.recordDispatch(cb.Kind, "error")
}

func (b *Base) recordDispatch(kind Kind, status string) {
	if b.deps.Metrics != nil {
		b.deps.Metrics.RecordCallbackDispatch(string(kind), status)
	}
}

// asNativeFunc checks that a NATIVE target is directly invocable
func asNativeFunc(target any) (NativeFunc, error) {
	switch fn := target.(type) {
	case NativeFunc:
		if fn != nil {
			return fn, nil
		}
	case func(any):
		if fn != nil {
			return fn, nil
		}
	}
	return nil, errors.WrapValidation(
		fmt.Errorf("%w: %T", errors.ErrCallbackNotInvocable, target),
		"Service", "AddCallback", "target check")
}

// normalizeTarget parses a REST target into canonical URL form. Targets
// without an http or https scheme and a host are rejected rather than
// silently stored unusable.
func normalizeTarget(target any) (string, error) {
	raw, ok := target.(string)
	if !ok {
		return "", errors.WrapValidation(
			fmt.Errorf("%w: expected URL string, got %T", errors.ErrInvalidCallbackTarget, target),
			"Service", "AddCallback", "target check")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", errors.WrapValidation(
			fmt.Errorf("%w: %v", errors.ErrInvalidCallbackTarget, err),
			"Service", "AddCallback", "target check")
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", errors.WrapValidation(
			fmt.Errorf("%w: %q", errors.ErrInvalidCallbackTarget, raw),
			"Service", "AddCallback", "target check")
	}
	return parsed.String(), nil
}
