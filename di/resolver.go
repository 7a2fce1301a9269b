package di

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Resolver builds instances by key.
//
// *Registry implements Resolver; helpers such as ResolveAs accept the
// interface so tests can substitute their own.
type Resolver interface {
	Resolve(key DependencyKey) (any, error)
}

// resolved is one constructed instance together with the direct
// dependencies that were passed to its constructor.
type resolved struct {
	val  any
	deps []DependencyKey
	args []any
}

// Resolve constructs the instance registered under key.
//
// Dependencies are resolved depth-first in declaration order and passed to the
// constructor positionally. Transient registrations produce a new instance on
// every call; Singleton registrations are built once.
//
// It returns:
//   - MissingRegistrationError if key, or any transitive dependency, is not registered
//   - CircularDependencyError if a key is reached again while it is being resolved
//   - *ConstructError if a constructor returns an error or panics
func (r *Registry) Resolve(key DependencyKey) (any, error) {
	if r == nil {
		return nil, ErrNilRegistry
	}
	if key == "" {
		return nil, ErrEmptyKey
	}
	res, err := r.resolve(key, nil)
	if err != nil {
		return nil, err
	}
	return res.val, nil
}

// MustResolve is Resolve that panics on error.
func (r *Registry) MustResolve(key DependencyKey) any {
	v, err := r.Resolve(key)
	if err != nil {
		panic(err)
	}
	return v
}

func (r *Registry) resolve(key DependencyKey, path []DependencyKey) (resolved, error) {
	for _, seen := range path {
		if seen == key {
			return resolved{}, CircularDependencyError{Path: extendPath(path, key)}
		}
	}
	path = extendPath(path, key)

	if r.maxDepth > 0 && len(path) > r.maxDepth {
		return resolved{}, fmt.Errorf("%w (%d): %s", ErrMaxDepthExceeded, r.maxDepth, joinPath(path))
	}

	entry, ok := r.lookup(key)
	if !ok {
		return resolved{}, MissingRegistrationError{Key: key, Path: path}
	}
	if entry.lifetime == Singleton {
		return r.resolveSingleton(entry, path)
	}
	return r.construct(entry, path)
}

// resolveSingleton holds the entry lock while building. Lock acquisition
// follows dependency edges, and cycles are rejected before any lock is taken.
func (r *Registry) resolveSingleton(entry *registration, path []DependencyKey) (resolved, error) {
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.built {
		return resolved{val: entry.val, deps: entry.deps, args: entry.args}, nil
	}
	res, err := r.construct(entry, path)
	if err != nil {
		return resolved{}, err
	}
	entry.val, entry.args, entry.built = res.val, res.args, true
	return res, nil
}

func (r *Registry) construct(entry *registration, path []DependencyKey) (resolved, error) {
	args := make([]any, len(entry.deps))
	for i, dep := range entry.deps {
		res, err := r.resolve(dep, path)
		if err != nil {
			return resolved{}, err
		}
		args[i] = res.val
	}

	start := time.Now()
	val, err := callConstructor(entry.key, entry.ctor, args)
	if err != nil {
		r.log.Debug("di: construction failed",
			zap.String("key", string(entry.key)),
			zap.Error(err),
		)
		return resolved{}, err
	}
	r.log.Debug("di: constructed",
		zap.String("key", string(entry.key)),
		zap.Stringer("lifetime", entry.lifetime),
		zap.Int("deps", len(args)),
		zap.Duration("took", time.Since(start)),
	)
	return resolved{val: val, deps: entry.deps, args: args}, nil
}

// callConstructor runs ctor and converts panics into a *ConstructError.
func callConstructor(key DependencyKey, ctor Constructor, args []any) (val any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			val = nil
			err = &ConstructError{Key: key, Err: fmt.Errorf("%w: %v", ErrConstructorPanic, rec)}
		}
	}()

	v, err := ctor(args)
	if err != nil {
		return nil, &ConstructError{Key: key, Err: err}
	}
	return v, nil
}

// extendPath returns path+key without sharing path's backing array.
func extendPath(path []DependencyKey, key DependencyKey) []DependencyKey {
	out := make([]DependencyKey, len(path)+1)
	copy(out, path)
	out[len(path)] = key
	return out
}

// ResolveAs resolves key and asserts the result to T.
//
// A value of another type yields WrongTypeDependencyError.
//
//	db, err := di.ResolveAs[*DB](reg, "db")
func ResolveAs[T any](r Resolver, key DependencyKey) (T, error) {
	var zero T
	if r == nil {
		return zero, ErrNilRegistry
	}
	raw, err := r.Resolve(key)
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, WrongTypeDependencyError{Key: key, GotType: typeName(raw)}
	}
	return v, nil
}

// MustResolveAs is ResolveAs that panics on error.
func MustResolveAs[T any](r Resolver, key DependencyKey) T {
	v, err := ResolveAs[T](r, key)
	if err != nil {
		panic(err)
	}
	return v
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
