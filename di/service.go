package di

// Service is a resolved instance plus the dependencies it was built with.
//
// Val is the constructed value.
// Deps holds the direct dependency values keyed by DependencyKey, for
// introspection in tests and debugging. Injectors add to it.
//
// Typed retrieval is available via GetAs / TryGetAs / MustGetAs.
type Service[T any] struct {
	Key  DependencyKey
	Val  *T
	Deps map[DependencyKey]any
}

// Value returns the constructed value pointer.
func (s *Service[T]) Value() *T { return s.Val }

// ResolveService resolves key, expecting a *T, and records the direct
// dependencies that were passed to its constructor. Injectors run afterwards,
// in order, and resolution stops at the first injector error.
func ResolveService[T any](r *Registry, key DependencyKey, injectors ...Injector[T]) (*Service[T], error) {
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
	val, ok := res.val.(*T)
	if !ok || val == nil {
		return nil, WrongTypeDependencyError{Key: key, GotType: typeName(res.val)}
	}

	s := &Service[T]{Key: key, Val: val, Deps: make(map[DependencyKey]any, len(res.deps))}
	for i, dep := range res.deps {
		s.Deps[dep] = res.args[i]
	}
	return s.WithAll(injectors...)
}

// Injector mutates a resolved Service in place, typically to set an optional
// dependency through a setter.
type Injector[T any] func(*Service[T]) error

// With applies a single injector to the Service.
//
// If inj is nil, With is a no-op and returns (s, nil).
func (s *Service[T]) With(inj Injector[T]) (*Service[T], error) {
	if inj == nil {
		return s, nil
	}
	if err := inj(s); err != nil {
		return s, err
	}
	return s, nil
}

// WithAll applies multiple injectors in order.
//
// It stops at the first error and returns that error.
func (s *Service[T]) WithAll(injectors ...Injector[T]) (*Service[T], error) {
	for _, inj := range injectors {
		if _, err := s.With(inj); err != nil {
			return s, err
		}
	}
	return s, nil
}

// InjectFrom builds an Injector that resolves key from r and hands the value
// to bind. The value is recorded in Deps under key.
//
// This is the way to wire a cycle: register one side without the edge, then
// set it after both sides exist. With Singleton lifetimes both sides share
// the same instances.
//
// The returned injector fails if:
//   - the target service (or its Val) is nil (ErrNilTarget)
//   - bind is nil (NilBindError)
//   - key already exists in the target's Deps (DuplicateInjectionError)
//   - resolution fails, or the value is not a D
func InjectFrom[T any, D any](r Resolver, key DependencyKey, bind func(target *T, dep D)) Injector[T] {
	return func(s *Service[T]) error {
		if s == nil || s.Val == nil {
			return ErrNilTarget
		}
		if bind == nil {
			return NilBindError{Key: key}
		}
		if _, exists := s.Deps[key]; exists {
			return DuplicateInjectionError{Key: key}
		}

		d, err := ResolveAs[D](r, key)
		if err != nil {
			return err
		}
		if s.Deps == nil {
			s.Deps = make(map[DependencyKey]any)
		}
		s.Deps[key] = d
		bind(s.Val, d)
		return nil
	}
}

// Has reports whether a dependency exists for the key (regardless of type).
func (s *Service[T]) Has(key DependencyKey) bool {
	if s == nil || s.Deps == nil {
		return false
	}
	_, ok := s.Deps[key]
	return ok
}

// GetAny returns the raw stored dependency value without type assertions.
func (s *Service[T]) GetAny(key DependencyKey) (any, bool) {
	if s == nil || s.Deps == nil {
		return nil, false
	}
	v, ok := s.Deps[key]
	return v, ok
}

// GetAs returns the dependency typed as D.
//
// ok is false if the key is missing or the stored value is not a D.
func GetAs[T any, D any](s *Service[T], key DependencyKey) (D, bool) {
	var zero D
	raw, ok := s.GetAny(key)
	if !ok {
		return zero, false
	}
	d, ok := raw.(D)
	return d, ok
}

// TryGetAs returns the dependency typed as D.
//
// It returns:
//   - MissingDependencyError if the key is not present
//   - WrongTypeDependencyError if the key exists but is not a D
func TryGetAs[T any, D any](s *Service[T], key DependencyKey) (D, error) {
	var zero D
	raw, ok := s.GetAny(key)
	if !ok {
		return zero, MissingDependencyError{Key: key}
	}
	d, ok := raw.(D)
	if !ok {
		return zero, WrongTypeDependencyError{Key: key, GotType: typeName(raw)}
	}
	return d, nil
}

// MustGetAs returns the dependency typed as D or panics.
func MustGetAs[T any, D any](s *Service[T], key DependencyKey) D {
	d, err := TryGetAs[T, D](s, key)
	if err != nil {
		panic(err)
	}
	return d
}

// Clone returns a shallow copy of the Service.
//
// Val is shared. Deps is copied so further injection does not touch the original.
func (s *Service[T]) Clone() *Service[T] {
	if s == nil {
		return nil
	}
	cp := &Service[T]{Key: s.Key, Val: s.Val, Deps: make(map[DependencyKey]any, len(s.Deps))}
	for k, v := range s.Deps {
		cp.Deps[k] = v
	}
	return cp
}
