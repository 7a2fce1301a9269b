package di

import (
	"fmt"
	"slices"
)

// Args holds the resolved dependencies passed to a Marker constructor,
// in the order they were declared.
type Args struct {
	keys []DependencyKey
	vals []any
}

// Len returns the number of resolved dependencies.
func (a Args) Len() int { return len(a.vals) }

// Key returns the dependency key at position i.
func (a Args) Key(i int) DependencyKey {
	if i < 0 || i >= len(a.keys) {
		return ""
	}
	return a.keys[i]
}

// Arg returns the dependency at position i asserted to D.
func Arg[D any](a Args, i int) (D, error) {
	var zero D
	if i < 0 || i >= len(a.vals) {
		return zero, fmt.Errorf("%w: %d (have %d)", ErrArgIndex, i, len(a.vals))
	}
	d, ok := a.vals[i].(D)
	if !ok {
		return zero, WrongTypeDependencyError{Key: a.Key(i), GotType: typeName(a.vals[i])}
	}
	return d, nil
}

// Marker declares an injectable component: its key, its ordered dependency
// keys and how to build it. Nothing is recorded until Register is called,
// usually once from init() or the composition root.
//
//	di.Injectable[*UserService]("user").
//		DependsOn("db", "logger").
//		Construct(func(a di.Args) (*UserService, error) {
//			db, err := di.Arg[*DB](a, 0)
//			if err != nil {
//				return nil, err
//			}
//			log, err := di.Arg[*Logger](a, 1)
//			if err != nil {
//				return nil, err
//			}
//			return NewUserService(db, log), nil
//		}).
//		MustRegister(di.Default())
type Marker[T any] struct {
	key         DependencyKey
	deps        []DependencyKey
	lifetime    Lifetime
	hasLifetime bool
	build       func(Args) (T, error)
}

// Injectable starts a Marker for key.
func Injectable[T any](key DependencyKey) *Marker[T] {
	return &Marker[T]{key: key}
}

// DependsOn appends dependency keys. Their order is the order of Args.
func (m *Marker[T]) DependsOn(keys ...DependencyKey) *Marker[T] {
	m.deps = append(m.deps, keys...)
	return m
}

// Lifetime sets the lifetime. Without it the registry default applies.
func (m *Marker[T]) Lifetime(l Lifetime) *Marker[T] {
	m.lifetime = l
	m.hasLifetime = true
	return m
}

// Construct sets the function that builds T from its resolved dependencies.
func (m *Marker[T]) Construct(fn func(Args) (T, error)) *Marker[T] {
	m.build = fn
	return m
}

// Register records the marker in r.
func (m *Marker[T]) Register(r *Registry) error {
	if r == nil {
		return ErrNilRegistry
	}
	cfg := registerConfig{lifetime: r.defaultLifetime}
	if m.hasLifetime {
		cfg.lifetime = m.lifetime
	}
	cfg.deps = m.deps
	return r.add(m.key, m.constructor(), cfg)
}

// MustRegister is Register that panics on error.
func (m *Marker[T]) MustRegister(r *Registry) {
	if err := m.Register(r); err != nil {
		panic(err)
	}
}

func (m *Marker[T]) constructor() Constructor {
	if m.build == nil {
		return nil
	}
	build := m.build
	keys := slices.Clone(m.deps)
	return func(vals []any) (any, error) {
		return build(Args{keys: keys, vals: vals})
	}
}

// typedConfig applies opts for the RegisterN helpers. Dependencies always
// come from the helper's key parameters, so DependsOn options are dropped.
func typedConfig(r *Registry, deps []DependencyKey, opts []RegisterOption) registerConfig {
	cfg := registerConfig{lifetime: r.defaultLifetime}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	cfg.deps = deps
	return cfg
}

// Register0 registers a constructor without dependencies.
func Register0[T any](r *Registry, key DependencyKey, ctor func() (T, error), opts ...RegisterOption) error {
	if r == nil {
		return ErrNilRegistry
	}
	if ctor == nil {
		return NilConstructorError{Key: key}
	}
	return r.add(key, func([]any) (any, error) {
		return ctor()
	}, typedConfig(r, nil, opts))
}

// Register1 registers a constructor taking the dependency registered under a.
func Register1[T, A any](r *Registry, key, a DependencyKey, ctor func(A) (T, error), opts ...RegisterOption) error {
	if r == nil {
		return ErrNilRegistry
	}
	if ctor == nil {
		return NilConstructorError{Key: key}
	}
	deps := []DependencyKey{a}
	return r.add(key, func(vals []any) (any, error) {
		args := Args{keys: deps, vals: vals}
		va, err := Arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		return ctor(va)
	}, typedConfig(r, deps, opts))
}

// Register2 registers a constructor taking the dependencies registered under a and b.
func Register2[T, A, B any](r *Registry, key, a, b DependencyKey, ctor func(A, B) (T, error), opts ...RegisterOption) error {
	if r == nil {
		return ErrNilRegistry
	}
	if ctor == nil {
		return NilConstructorError{Key: key}
	}
	deps := []DependencyKey{a, b}
	return r.add(key, func(vals []any) (any, error) {
		args := Args{keys: deps, vals: vals}
		va, err := Arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		vb, err := Arg[B](args, 1)
		if err != nil {
			return nil, err
		}
		return ctor(va, vb)
	}, typedConfig(r, deps, opts))
}

// Register3 registers a constructor taking the dependencies registered under a, b and c.
func Register3[T, A, B, C any](r *Registry, key, a, b, c DependencyKey, ctor func(A, B, C) (T, error), opts ...RegisterOption) error {
	if r == nil {
		return ErrNilRegistry
	}
	if ctor == nil {
		return NilConstructorError{Key: key}
	}
	deps := []DependencyKey{a, b, c}
	return r.add(key, func(vals []any) (any, error) {
		args := Args{keys: deps, vals: vals}
		va, err := Arg[A](args, 0)
		if err != nil {
			return nil, err
		}
		vb, err := Arg[B](args, 1)
		if err != nil {
			return nil, err
		}
		vc, err := Arg[C](args, 2)
		if err != nil {
			return nil, err
		}
		return ctor(va, vb, vc)
	}, typedConfig(r, deps, opts))
}
