package di

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrEmptyKey is returned when a registration or resolution uses an empty key.
	ErrEmptyKey = errors.New("di: empty dependency key")

	// ErrNilRegistry is returned when a helper is given a nil *Registry.
	ErrNilRegistry = errors.New("di: nil registry")

	// ErrConstructorPanic is wrapped by ConstructError when a constructor panics.
	ErrConstructorPanic = errors.New("di: panic during construction")

	// ErrMaxDepthExceeded is returned when a resolution chain is deeper than
	// the limit configured with WithMaxDepth.
	ErrMaxDepthExceeded = errors.New("di: max resolution depth exceeded")

	// ErrArgIndex is returned by Arg when the index is outside the resolved arguments.
	ErrArgIndex = errors.New("di: argument index out of range")

	// ErrDefaultInitialized is returned by SetDefaultOptions once Default()
	// has already created the process-wide registry.
	ErrDefaultInitialized = errors.New("di: default registry already initialized")
)

// joinPath renders a resolution path as "a" -> "b" -> "c".
func joinPath(path []DependencyKey) string {
	parts := make([]string, len(path))
	for i, k := range path {
		parts[i] = strconv.Quote(string(k))
	}
	return strings.Join(parts, " -> ")
}

// DuplicateKeyError is returned by Register when the registry uses
// OverwriteError and the key is already registered.
type DuplicateKeyError struct{ Key DependencyKey }

// Error implements the error interface.
func (e DuplicateKeyError) Error() string {
	// Example: di: duplicate registration for key "db"
	return "di: duplicate registration for key " + strconv.Quote(string(e.Key))
}

// MissingRegistrationError is returned when a key has no registration.
//
// Path holds the keys being resolved when the miss happened, ending with Key.
// It has a single element when the missing key was requested directly.
type MissingRegistrationError struct {
	Key  DependencyKey
	Path []DependencyKey
}

// Error implements the error interface.
func (e MissingRegistrationError) Error() string {
	// Example: di: missing registration for key "db" (path "user" -> "db")
	msg := "di: missing registration for key " + strconv.Quote(string(e.Key))
	if len(e.Path) > 1 {
		msg += " (path " + joinPath(e.Path) + ")"
	}
	return msg
}

// CircularDependencyError is returned when resolution re-enters a key that is
// already on the current path. The last element of Path repeats an earlier one.
type CircularDependencyError struct{ Path []DependencyKey }

// Error implements the error interface.
func (e CircularDependencyError) Error() string {
	// Example: di: circular dependency "a" -> "b" -> "a"
	return "di: circular dependency " + joinPath(e.Path)
}

// WrongTypeDependencyError is returned when a resolved value is not of the
// requested type.
type WrongTypeDependencyError struct {
	// Key is the dependency key requested.
	Key DependencyKey

	// GotType is the dynamic type of the resolved value.
	GotType string
}

// Error implements the error interface.
func (e WrongTypeDependencyError) Error() string {
	// Example: di: dependency "db" has wrong type (*mypkg.Logger)
	return "di: dependency " + strconv.Quote(string(e.Key)) + " has wrong type (" + e.GotType + ")"
}

// NilConstructorError indicates a registration without a constructor.
type NilConstructorError struct{ Key DependencyKey }

// Error implements the error interface.
func (e NilConstructorError) Error() string {
	return "di: nil constructor for key " + strconv.Quote(string(e.Key))
}

// ConstructError wraps a failure returned (or panicked) by the constructor of Key.
type ConstructError struct {
	Key DependencyKey
	Err error
}

// Error implements the error interface.
func (e *ConstructError) Error() string {
	return "di: constructing " + strconv.Quote(string(e.Key)) + ": " + e.Err.Error()
}

// Unwrap returns the constructor error.
func (e *ConstructError) Unwrap() error { return e.Err }

// ErrNilTarget is returned when an injector is applied to a nil service
// or a service with a nil Val.
var ErrNilTarget = errors.New("di: nil target service")

// DuplicateInjectionError is returned when an injector binds a key that is
// already present in a Service's Deps bag.
type DuplicateInjectionError struct{ Key DependencyKey }

// Error implements the error interface.
func (e DuplicateInjectionError) Error() string {
	// Example: di: dependency "db" already injected
	return "di: dependency " + strconv.Quote(string(e.Key)) + " already injected"
}

// MissingDependencyError is returned by TryGetAs when the key is not in a
// Service's Deps bag.
type MissingDependencyError struct{ Key DependencyKey }

// Error implements the error interface.
func (e MissingDependencyError) Error() string {
	// Example: di: dependency "db" missing
	return "di: dependency " + strconv.Quote(string(e.Key)) + " missing"
}

// NilBindError indicates a nil bind function for a specific key.
type NilBindError struct{ Key DependencyKey }

// Error implements the error interface.
func (e NilBindError) Error() string {
	return "di: nil bind function for key " + strconv.Quote(string(e.Key))
}
