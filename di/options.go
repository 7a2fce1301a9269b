package di

import "go.uber.org/zap"

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registration and construction events.
// A nil logger is ignored.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithOverwritePolicy sets what Register does on key collisions.
func WithOverwritePolicy(p OverwritePolicy) Option {
	return func(r *Registry) { r.policy = p }
}

// WithDefaultLifetime sets the lifetime used when a registration does not pick one.
func WithDefaultLifetime(l Lifetime) Option {
	return func(r *Registry) { r.defaultLifetime = l }
}

// WithMaxDepth bounds the length of a resolution chain. Zero disables the check.
func WithMaxDepth(n int) Option {
	return func(r *Registry) {
		if n >= 0 {
			r.maxDepth = n
		}
	}
}

// RegisterOption configures a single registration.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	deps     []DependencyKey
	lifetime Lifetime
}

// DependsOn declares the ordered dependency keys. The resolved values are
// passed to the constructor in the same order. Calling it twice appends.
func DependsOn(keys ...DependencyKey) RegisterOption {
	return func(c *registerConfig) {
		c.deps = append(c.deps, keys...)
	}
}

// WithLifetime overrides the registry's default lifetime for one registration.
func WithLifetime(l Lifetime) RegisterOption {
	return func(c *registerConfig) { c.lifetime = l }
}
