package di

import (
	"fmt"
	"strings"
)

// Lifetime controls how many instances the registry builds for a key.
type Lifetime int

const (
	// Transient builds a fresh instance (and fresh transient dependencies)
	// on every resolution. It is the default.
	Transient Lifetime = iota

	// Singleton builds the instance on first resolution and caches it on the
	// registration. Re-registering the key drops the cached instance.
	Singleton
)

// String returns the lower-case name used in config files.
func (l Lifetime) String() string {
	switch l {
	case Transient:
		return "transient"
	case Singleton:
		return "singleton"
	default:
		return "unknown"
	}
}

// ParseLifetime parses "transient" or "singleton" (case-insensitive).
// An empty string yields Transient.
func ParseLifetime(s string) (Lifetime, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "transient":
		return Transient, nil
	case "singleton":
		return Singleton, nil
	default:
		return Transient, fmt.Errorf("di: unknown lifetime %q", s)
	}
}

// UnmarshalText lets Lifetime be decoded from yaml and env values.
func (l *Lifetime) UnmarshalText(text []byte) error {
	v, err := ParseLifetime(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (l Lifetime) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// OverwritePolicy decides what Register does when the key already exists.
type OverwritePolicy int

const (
	// OverwriteReplace keeps the last registration for a key. It is the default.
	OverwriteReplace OverwritePolicy = iota

	// OverwriteError rejects the second registration with DuplicateKeyError.
	OverwriteError

	// OverwriteIgnore keeps the first registration. Later ones are dropped
	// without an error and logged at warn level.
	OverwriteIgnore
)

// String returns the lower-case name used in config files.
func (p OverwritePolicy) String() string {
	switch p {
	case OverwriteReplace:
		return "overwrite"
	case OverwriteError:
		return "error"
	case OverwriteIgnore:
		return "ignore"
	default:
		return "unknown"
	}
}

// ParseOverwritePolicy parses "overwrite", "error" or "ignore".
// An empty string yields OverwriteReplace.
func ParseOverwritePolicy(s string) (OverwritePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overwrite":
		return OverwriteReplace, nil
	case "error":
		return OverwriteError, nil
	case "ignore":
		return OverwriteIgnore, nil
	default:
		return OverwriteReplace, fmt.Errorf("di: overwrite policy must be one of: overwrite|error|ignore, got %q", s)
	}
}

// UnmarshalText lets OverwritePolicy be decoded from yaml and env values.
func (p *OverwritePolicy) UnmarshalText(text []byte) error {
	v, err := ParseOverwritePolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (p OverwritePolicy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }
