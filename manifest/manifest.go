// Package manifest implements the declarative parameter manifest bound to
// each service type. A manifest names the parameters a service accepts,
// their declared types, defaults and mutability, and the callback names a
// service may register. Every parameter write is validated against the
// manifest, at creation and afterwards.
package manifest

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/5g-empower/empower-core/errors"
	"github.com/5g-empower/empower-core/netid"
)

// Declared parameter types. The set is closed: scalars plus the network
// identifier value types from the netid package. A ParamSpec with a
// non-empty Enum is a one-of enumerated type instead.
const (
	TypeString       = "str"
	TypeInt          = "int"
	TypeEtherAddress = "EtherAddress"
	TypeSSID         = "SSID"
	TypePLMNID       = "PLMNID"
	TypeIMSI         = "IMSI"
)

// EveryParam is the loop period parameter carried by every service
const EveryParam = "every"

// EveryDisabled disables the periodic loop
const EveryDisabled = -1

// ParamSpec declares a single accepted parameter
type ParamSpec struct {
	Type        string   `json:"type,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Mandatory   bool     `json:"mandatory"`
	Default     any      `json:"default,omitempty"`
	Static      bool     `json:"static,omitempty"`
	Description string   `json:"desc,omitempty"`
}

// Manifest is the static declaration of a service type's accepted
// parameters and declarable callback names. Manifest data is read-only
// shared state, loaded once at catalog registration.
type Manifest struct {
	Label     string               `json:"label,omitempty"`
	Params    map[string]ParamSpec `json:"params"`
	Callbacks []string             `json:"callbacks,omitempty"`
}

// Normalize returns a copy of the manifest with the implicit "every"
// parameter declared when the author omitted it. Called once at catalog
// registration so later validation never misses the loop period.
func (m Manifest) Normalize() Manifest {
	out := Manifest{
		Label:     m.Label,
		Params:    make(map[string]ParamSpec, len(m.Params)+1),
		Callbacks: slices.Clone(m.Callbacks),
	}
	for name, spec := range m.Params {
		out.Params[name] = spec
	}
	if _, ok := out.Params[EveryParam]; !ok {
		out.Params[EveryParam] = ParamSpec{
			Type:        TypeInt,
			Default:     EveryDisabled,
			Description: "loop period in ms (-1 to disable)",
		}
	}
	return out
}

// DeclaresCallback reports whether the manifest lists the callback name
func (m Manifest) DeclaresCallback(name string) bool {
	return slices.Contains(m.Callbacks, name)
}

// Validate checks a single parameter write against the manifest and
// returns the accepted value. current holds the values the service
// already stores, used to enforce static parameters.
func (m Manifest) Validate(name string, value any, current map[string]any) (any, error) {
	spec, ok := m.Params[name]
	if !ok {
		return nil, errors.WrapValidation(
			fmt.Errorf("%w: %q", errors.ErrUnknownParameter, name),
			"Manifest", "Validate", "parameter lookup")
	}

	if _, held := current[name]; held && spec.Static {
		return nil, errors.WrapValidation(
			fmt.Errorf("%w: %q", errors.ErrImmutableParameter, name),
			"Manifest", "Validate", "static check")
	}

	if isEmpty(value) {
		if spec.Mandatory {
			return nil, errors.WrapValidation(
				fmt.Errorf("%w: %q", errors.ErrMissingMandatoryParameter, name),
				"Manifest", "Validate", "mandatory check")
		}
		return spec.Default, nil
	}

	accepted, err := spec.coerce(name, value)
	if err != nil {
		return nil, errors.WrapValidation(err, "Manifest", "Validate", "type coercion")
	}
	return accepted, nil
}

// ValidateAll validates a full parameter map, applying declared defaults
// and rejecting undeclared or missing-mandatory parameters. Used at
// service creation; returns the complete accepted parameter set.
func (m Manifest) ValidateAll(supplied map[string]any, current map[string]any) (map[string]any, error) {
	accepted := make(map[string]any, len(m.Params))

	for name, value := range supplied {
		v, err := m.Validate(name, value, current)
		if err != nil {
			return nil, err
		}
		accepted[name] = v
	}

	for name, spec := range m.Params {
		if _, ok := accepted[name]; ok {
			continue
		}
		if _, ok := current[name]; ok {
			continue
		}
		if spec.Mandatory && spec.Default == nil {
			return nil, errors.WrapValidation(
				fmt.Errorf("%w: %q", errors.ErrMissingMandatoryParameter, name),
				"Manifest", "ValidateAll", "mandatory check")
		}
		if spec.Default != nil {
			accepted[name] = spec.Default
		}
	}

	return accepted, nil
}

// coerce casts value into the declared type
func (spec ParamSpec) coerce(name string, value any) (any, error) {
	// enumerated type: membership over the closed literal set
	if len(spec.Enum) > 0 {
		literal := fmt.Sprintf("%v", value)
		if slices.Contains(spec.Enum, literal) {
			return literal, nil
		}
		return nil, fmt.Errorf("%w for %q: valid %q got %q",
			errors.ErrInvalidParameterValue, name,
			strings.Join(spec.Enum, ","), literal)
	}

	switch spec.Type {
	case TypeString:
		return fmt.Sprintf("%v", value), nil
	case TypeInt:
		return coerceInt(name, value)
	case TypeEtherAddress:
		return coerceNetID(name, value, netid.ParseEtherAddress)
	case TypeSSID:
		return coerceNetID(name, value, netid.ParseSSID)
	case TypePLMNID:
		return coerceNetID(name, value, netid.ParsePLMNID)
	case TypeIMSI:
		return coerceNetID(name, value, netid.ParseIMSI)
	}

	// manifest authoring error: declared type outside the closed set
	return nil, fmt.Errorf("%w for %q: unsupported declared type %q",
		errors.ErrInvalidParameterValue, name, spec.Type)
}

func coerceInt(name string, value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w for %q: expected %q got %q",
				errors.ErrInvalidParameterValue, name, TypeInt, v)
		}
		return parsed, nil
	}
	return nil, fmt.Errorf("%w for %q: expected %q got %T",
		errors.ErrInvalidParameterValue, name, TypeInt, value)
}

func coerceNetID[T any](name string, value any, parse func(string) (T, error)) (any, error) {
	if typed, ok := value.(T); ok {
		return typed, nil
	}
	s, ok := value.(string)
	if !ok {
		s = fmt.Sprintf("%v", value)
	}
	typed, err := parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w for %q: %v", errors.ErrInvalidParameterValue, name, err)
	}
	return typed, nil
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return s == ""
	}
	return false
}
