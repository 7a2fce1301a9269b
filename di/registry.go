package di

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// DependencyKey identifies a registration in a Registry.
//
// Keys are typically defined as package-level constants to avoid typos.
//
// Example:
//
//	const (
//	  KeyDB     di.DependencyKey = "db"
//	  KeyLogger di.DependencyKey = "logger"
//	)
type DependencyKey string

// Key converts a string into a DependencyKey.
func Key(name string) DependencyKey { return DependencyKey(name) }

// Constructor builds an instance from its resolved dependencies.
//
// args holds one value per declared dependency, in declaration order.
type Constructor func(args []any) (any, error)

// Registration is a read-only view of one entry in a Registry.
type Registration struct {
	Key      DependencyKey
	Deps     []DependencyKey
	Lifetime Lifetime
}

// registration is the stored entry. A Singleton caches its value here, so
// replacing the entry for a key also drops the cached instance.
type registration struct {
	key      DependencyKey
	deps     []DependencyKey
	lifetime Lifetime
	ctor     Constructor

	mu    sync.Mutex
	built bool
	val   any
	args  []any
}

// Registry maps keys to constructors and their ordered dependency keys.
//
// A Registry is safe for concurrent use. Entries are never removed; a later
// registration for the same key is handled according to the OverwritePolicy.
type Registry struct {
	mu      sync.RWMutex
	entries map[DependencyKey]*registration

	log             *zap.Logger
	policy          OverwritePolicy
	defaultLifetime Lifetime
	maxDepth        int
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[DependencyKey]*registration),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry

	defaultMu   sync.Mutex
	defaultOpts []Option
	defaultInit bool
)

// Default returns the process-wide registry, creating it on first use.
//
// Prefer passing an explicit *Registry through your composition root. Default
// exists for packages that register themselves from init().
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		defaultInit = true
		opts := defaultOpts
		defaultMu.Unlock()

		defaultReg = NewRegistry(opts...)
	})
	return defaultReg
}

// SetDefaultOptions configures the registry returned by Default. It must run
// before the first call to Default, otherwise ErrDefaultInitialized is returned.
func SetDefaultOptions(opts ...Option) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultInit {
		return ErrDefaultInitialized
	}
	defaultOpts = append(defaultOpts, opts...)
	return nil
}

// Register stores ctor under key.
//
// Dependencies are declared with DependsOn and are passed to ctor positionally.
// When key is already registered, the registry's OverwritePolicy applies:
// the new entry replaces the old one by default.
func (r *Registry) Register(key DependencyKey, ctor Constructor, opts ...RegisterOption) error {
	if r == nil {
		return ErrNilRegistry
	}
	cfg := registerConfig{lifetime: r.defaultLifetime}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return r.add(key, ctor, cfg)
}

func (r *Registry) add(key DependencyKey, ctor Constructor, cfg registerConfig) error {
	if key == "" {
		return ErrEmptyKey
	}
	if ctor == nil {
		return NilConstructorError{Key: key}
	}
	for _, dep := range cfg.deps {
		if dep == "" {
			return fmt.Errorf("%w in dependencies of %q", ErrEmptyKey, key)
		}
	}

	return r.put(&registration{
		key:      key,
		deps:     slices.Clone(cfg.deps),
		lifetime: cfg.lifetime,
		ctor:     ctor,
	})
}

// MustRegister is Register that panics on error. It is meant for init() and
// other bootstrap code where a bad registration should stop the program.
func (r *Registry) MustRegister(key DependencyKey, ctor Constructor, opts ...RegisterOption) {
	if err := r.Register(key, ctor, opts...); err != nil {
		panic(err)
	}
}

// Provide stores an already built value under key. It behaves like a
// Singleton registration with no dependencies.
func (r *Registry) Provide(key DependencyKey, val any) error {
	if r == nil {
		return ErrNilRegistry
	}
	if key == "" {
		return ErrEmptyKey
	}
	return r.put(&registration{
		key:      key,
		lifetime: Singleton,
		ctor:     func([]any) (any, error) { return val, nil },
		built:    true,
		val:      val,
	})
}

// MustProvide is Provide that panics on error.
func (r *Registry) MustProvide(key DependencyKey, val any) {
	if err := r.Provide(key, val); err != nil {
		panic(err)
	}
}

func (r *Registry) put(entry *registration) error {
	r.mu.Lock()
	_, exists := r.entries[entry.key]
	if exists {
		switch r.policy {
		case OverwriteError:
			r.mu.Unlock()
			return DuplicateKeyError{Key: entry.key}
		case OverwriteIgnore:
			r.mu.Unlock()
			r.log.Warn("di: duplicate registration ignored", zap.String("key", string(entry.key)))
			return nil
		}
	}
	r.entries[entry.key] = entry
	r.mu.Unlock()

	if exists {
		r.log.Debug("di: registration overwritten",
			zap.String("key", string(entry.key)),
			zap.Stringer("lifetime", entry.lifetime),
		)
		return nil
	}
	r.log.Debug("di: registered",
		zap.String("key", string(entry.key)),
		zap.Strings("deps", keyStrings(entry.deps)),
		zap.Stringer("lifetime", entry.lifetime),
	)
	return nil
}

// Has reports whether key is registered.
func (r *Registry) Has(key DependencyKey) bool {
	_, ok := r.lookup(key)
	return ok
}

// Len returns the number of registered keys.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Keys returns all registered keys in sorted order.
func (r *Registry) Keys() []DependencyKey {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	keys := make([]DependencyKey, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	slices.Sort(keys)
	return keys
}

// Lookup returns a copy of the registration stored under key.
func (r *Registry) Lookup(key DependencyKey) (Registration, bool) {
	e, ok := r.lookup(key)
	if !ok {
		return Registration{}, false
	}
	return Registration{Key: e.key, Deps: slices.Clone(e.deps), Lifetime: e.lifetime}, true
}

func (r *Registry) lookup(key DependencyKey) (*registration, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	e, ok := r.entries[key]
	r.mu.RUnlock()
	return e, ok
}

// snapshot copies the dependency table so graph walks run without holding the lock.
func (r *Registry) snapshot() map[DependencyKey][]DependencyKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[DependencyKey][]DependencyKey, len(r.entries))
	for k, e := range r.entries {
		out[k] = e.deps
	}
	return out
}

func keyStrings(keys []DependencyKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
