// Package di provides a small, explicit dependency registry and resolver for Go.
//
// A Registry maps a DependencyKey to a constructor and the ordered list of keys
// the constructor needs. Resolve walks that list depth-first, builds every
// dependency, and calls the constructor with the results positionally.
//
// There is no reflection over constructor signatures. Dependencies are declared
// as data when registering:
//
//	reg := di.NewRegistry()
//	_ = di.Register0(reg, "db", NewDB)
//	_ = di.Register1(reg, "user", "db", NewUserService)
//
//	user, err := di.ResolveAs[*UserService](reg, "user")
//
// Registration styles
//
//   - Registry.Register: untyped Constructor plus DependsOn(keys...)
//   - Register0..Register3: typed constructors, dependency types checked at resolve time
//   - Injectable[T](key).DependsOn(...).Construct(...).Register(reg): builder form,
//     convenient from init() together with Default()
//   - Registry.Provide: an already built value
//   - cmd/digen: generate the registration code from a yaml descriptor
//
// Lifetimes
//
// Transient (default) builds a fresh instance, and fresh transient dependencies,
// on every resolution. Singleton builds once per registration.
//
// Errors
//
//   - MissingRegistrationError: a key (or a transitive dependency) is not registered
//   - CircularDependencyError: resolution reached a key already on its path
//   - DuplicateKeyError: re-registration under OverwriteError
//   - *ConstructError: a constructor returned an error or panicked
//   - WrongTypeDependencyError: a typed helper got a value of another type
//
// Validate checks the full table up front, so a composition root can fail fast
// before any constructor runs.
//
// Import
//
//	"github.com/sghaida/diregistry/di"
package di
