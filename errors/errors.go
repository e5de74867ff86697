// Package errors provides standardized error handling for the empower-core
// runtime. It defines the error taxonomy shared by parameter validation,
// service lifecycle, callback dispatch and container orchestration, plus
// helpers for consistent wrapping and classification.
package errors

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorValidation represents errors due to invalid input or configuration.
	// These surface synchronously to the caller and map to client errors.
	ErrorValidation ErrorClass = iota
	// ErrorLookup represents not-found conditions on identities and names
	ErrorLookup
	// ErrorLifecycle represents invalid lifecycle transitions
	ErrorLifecycle
	// ErrorDispatch represents callback delivery failures. These are always
	// caught and logged at the dispatch site, never propagated.
	ErrorDispatch
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorValidation:
		return "validation"
	case ErrorLookup:
		return "lookup"
	case ErrorLifecycle:
		return "lifecycle"
	case ErrorDispatch:
		return "dispatch"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Parameter validation errors
	ErrUnknownParameter          = errors.New("unknown parameter")
	ErrMissingMandatoryParameter = errors.New("mandatory parameter cannot be null")
	ErrInvalidParameterValue     = errors.New("invalid parameter value")
	ErrImmutableParameter        = errors.New("parameter cannot be modified")

	// Callback registration errors
	ErrCallbackNotDeclared   = errors.New("callback not declared in manifest")
	ErrInvalidCallbackKind   = errors.New("invalid callback type")
	ErrCallbackNotInvocable  = errors.New("callback not callable")
	ErrInvalidCallbackTarget = errors.New("invalid callback target URL")

	// Lookup errors
	ErrServiceNotFound     = errors.New("service not found")
	ErrServiceTypeNotFound = errors.New("service type not found")
	ErrCallbackNotFound    = errors.New("callback not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrKeyNotFound         = errors.New("key not found")

	// Orchestration errors
	ErrInvalidServiceImplementation = errors.New("factory product does not satisfy the service contract")
	ErrProjectExists                = errors.New("project already defined")

	// Lifecycle errors
	ErrAlreadyStarted = errors.New("service already started")
	ErrNotStarted     = errors.New("service not started")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsValidation checks if an error belongs to the validation class
func IsValidation(err error) bool {
	return classIs(err, ErrorValidation) ||
		errors.Is(err, ErrUnknownParameter) ||
		errors.Is(err, ErrMissingMandatoryParameter) ||
		errors.Is(err, ErrInvalidParameterValue) ||
		errors.Is(err, ErrImmutableParameter) ||
		errors.Is(err, ErrCallbackNotDeclared) ||
		errors.Is(err, ErrInvalidCallbackKind) ||
		errors.Is(err, ErrCallbackNotInvocable) ||
		errors.Is(err, ErrInvalidCallbackTarget) ||
		errors.Is(err, ErrInvalidServiceImplementation) ||
		errors.Is(err, ErrProjectExists)
}

// IsLookup checks if an error is a not-found condition
func IsLookup(err error) bool {
	return classIs(err, ErrorLookup) ||
		errors.Is(err, ErrServiceNotFound) ||
		errors.Is(err, ErrServiceTypeNotFound) ||
		errors.Is(err, ErrCallbackNotFound) ||
		errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrKeyNotFound)
}

// IsLifecycle checks if an error is an invalid lifecycle transition
func IsLifecycle(err error) bool {
	return classIs(err, ErrorLifecycle) ||
		errors.Is(err, ErrAlreadyStarted) ||
		errors.Is(err, ErrNotStarted)
}

func classIs(err error, class ErrorClass) bool {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == class
	}
	return false
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}
	if IsValidation(err) {
		return ErrorValidation
	}
	if IsLookup(err) {
		return ErrorLookup
	}
	if IsLifecycle(err) {
		return ErrorLifecycle
	}
	return ErrorDispatch
}

// newClassified creates a new classified error
// This is an internal helper - use the Wrap* variants instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapValidation wraps an error as a validation failure with context
func WrapValidation(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorValidation, wrappedErr, component, method, wrappedErr.Error())
}

// WrapLookup wraps an error as a not-found condition with context
func WrapLookup(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorLookup, wrappedErr, component, method, wrappedErr.Error())
}

// WrapLifecycle wraps an error as a lifecycle violation with context
func WrapLifecycle(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorLifecycle, wrappedErr, component, method, wrappedErr.Error())
}

// WrapDispatch wraps an error as a callback delivery failure with context
func WrapDispatch(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorDispatch, wrappedErr, component, method, wrappedErr.Error())
}
