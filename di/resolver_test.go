package di_test

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/sghaida/diregistry/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// newShopRegistry registers db, logger, basket and user with typed constructors.
func newShopRegistry(t *testing.T, opts ...di.Option) *di.Registry {
	t.Helper()

	r := di.NewRegistry(opts...)
	require.NoError(t, di.Register0(r, "db", di.NewDB))
	require.NoError(t, di.Register0(r, "logger", di.NewLogger))
	require.NoError(t, di.Register2(r, "basket", "db", "logger", di.NewBasketService))
	require.NoError(t, di.Register3(r, "user", "db", "logger", "basket", di.NewUserService))
	return r
}

//
// -----------------------------------------------------------------------------
// Core resolution properties
// -----------------------------------------------------------------------------

// TestResolve_NoDependencies verifies a constructor with no deps is called with no arguments.
func TestResolve_NoDependencies(t *testing.T) {
	t.Parallel()

	var gotArgs []any
	r := di.NewRegistry()
	require.NoError(t, r.Register("db", func(args []any) (any, error) {
		gotArgs = args
		return &di.DB{DSN: "sqlite"}, nil
	}))

	v, err := r.Resolve("db")
	require.NoError(t, err)
	require.IsType(t, &di.DB{}, v)
	assert.Equal(t, "sqlite", v.(*di.DB).DSN)
	assert.Empty(t, gotArgs)
}

// TestResolve_InjectsDependency verifies that resolving A yields an A holding a B.
func TestResolve_InjectsDependency(t *testing.T) {
	t.Parallel()

	r := di.NewRegistry()
	require.NoError(t, r.Register("b", func([]any) (any, error) { return &di.DB{DSN: "b"}, nil }))
	require.NoError(t, r.Register("a", func(args []any) (any, error) {
		return &di.BasketService{DB: args[0].(*di.DB)}, nil
	}, di.DependsOn("b")))

	a, err := di.ResolveAs[*di.BasketService](r, "a")
	require.NoError(t, err)
	require.NotNil(t, a.DB)
	assert.Equal(t, "b", a.DB.DSN)
}

// TestResolve_PositionalOrder verifies args follow the declared dependency order.
func TestResolve_PositionalOrder(t *testing.T) {
	t.Parallel()

	r := di.NewRegistry()
	for _, k := range []string{"x", "y", "z"} {
		k := k
		require.NoError(t, r.Register(di.Key(k), func([]any) (any, error) { return k, nil }))
	}
	require.NoError(t, r.Register("joined", func(args []any) (any, error) {
		return fmt.Sprintf("%v %v %v", args...), nil
	}, di.DependsOn("z", "x", "y")))

	got, err := di.ResolveAs[string](r, "joined")
	require.NoError(t, err)
	assert.Equal(t, "z x y", got)
}

// TestResolve_TransientIsNotCached verifies two resolutions return distinct graphs.
func TestResolve_TransientIsNotCached(t *testing.T) {
	t.Parallel()

	r := newShopRegistry(t)

	u1, err := di.ResolveAs[*di.UserService](r, "user")
	require.NoError(t, err)
	u2, err := di.ResolveAs[*di.UserService](r, "user")
	require.NoError(t, err)

	assert.NotSame(t, u1, u2)
	assert.NotSame(t, u1.DB, u2.DB)
	assert.NotSame(t, u1.Basket, u2.Basket)

	// within one graph, each transient dependency is also built per edge
	assert.NotSame(t, u1.DB, u1.Basket.DB)
}

// TestResolve_SingletonIsShared verifies singletons are built once and shared across graphs.
func TestResolve_SingletonIsShared(t *testing.T) {
	t.Parallel()

	var builds int32
	r := di.NewRegistry()
	require.NoError(t, di.Register0(r, "db", func() (*di.DB, error) {
		atomic.AddInt32(&builds, 1)
		return &di.DB{}, nil
	}, di.WithLifetime(di.Singleton)))
	require.NoError(t, di.Register0(r, "logger", di.NewLogger))
	require.NoError(t, di.Register2(r, "basket", "db", "logger", di.NewBasketService))

	b1, err := di.ResolveAs[*di.BasketService](r, "basket")
	require.NoError(t, err)
	b2, err := di.ResolveAs[*di.BasketService](r, "basket")
	require.NoError(t, err)

	assert.NotSame(t, b1, b2)
	assert.Same(t, b1.DB, b2.DB)
	assert.NotSame(t, b1.Logger, b2.Logger)
	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
}

// TestResolve_SingletonFailureNotCached verifies a failed singleton build is retried.
func TestResolve_SingletonFailureNotCached(t *testing.T) {
	t.Parallel()

	var calls int32
	r := di.NewRegistry(di.WithDefaultLifetime(di.Singleton))
	require.NoError(t, r.Register("flaky", func([]any) (any, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, di.ErrBoom
		}
		return "ok", nil
	}))

	_, err := r.Resolve("flaky")
	require.ErrorIs(t, err, di.ErrBoom)

	v, err := r.Resolve("flaky")
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

//
// -----------------------------------------------------------------------------
// Failure modes
// -----------------------------------------------------------------------------

// TestResolve_Missing verifies unregistered keys fail with the resolution path.
func TestResolve_Missing(t *testing.T) {
	t.Parallel()

	r := di.NewRegistry()
	require.NoError(t, r.Register("user", func([]any) (any, error) { return &di.UserService{}, nil }, di.DependsOn("basket")))
	require.NoError(t, r.Register("basket", func([]any) (any, error) { return &di.BasketService{}, nil }, di.DependsOn("db")))

	cases := []struct {
		name     string
		key      di.DependencyKey
		wantKey  di.DependencyKey
		wantPath []di.DependencyKey
	}{
		{name: "direct", key: "nope", wantKey: "nope", wantPath: []di.DependencyKey{"nope"}},
		{name: "transitive", key: "user", wantKey: "db", wantPath: []di.DependencyKey{"user", "basket", "db"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			v, err := r.Resolve(tc.key)
			assert.Nil(t, v)

			var missing di.MissingRegistrationError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tc.wantKey, missing.Key)
			assert.Equal(t, tc.wantPath, missing.Path)
		})
	}
}

// TestResolve_Cycles verifies cycles fail deterministically instead of overflowing the stack.
func TestResolve_Cycles(t *testing.T) {
	t.Parallel()

	r := di.NewRegistry()
	require.NoError(t, r.Register("a", constAny("a"), di.DependsOn("b")))
	require.NoError(t, r.Register("b", constAny("b"), di.DependsOn("a")))
	require.NoError(t, r.Register("self", constAny("self"), di.DependsOn("self")))
	require.NoError(t, r.Register("x", constAny("x"), di.DependsOn("y")))
	require.NoError(t, r.Register("y", constAny("y"), di.DependsOn("z"), di.WithLifetime(di.Singleton)))
	require.NoError(t, r.Register("z", constAny("z"), di.DependsOn("x")))

	cases := []struct {
		key  di.DependencyKey
		want []di.DependencyKey
	}{
		{key: "a", want: []di.DependencyKey{"a", "b", "a"}},
		{key: "b", want: []di.DependencyKey{"b", "a", "b"}},
		{key: "self", want: []di.DependencyKey{"self", "self"}},
		{key: "x", want: []di.DependencyKey{"x", "y", "z", "x"}},
		{key: "y", want: []di.DependencyKey{"y", "z", "x", "y"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(string(tc.key), func(t *testing.T) {
			t.Parallel()

			for i := 0; i < 2; i++ {
				_, err := r.Resolve(tc.key)

				var cyc di.CircularDependencyError
				require.ErrorAs(t, err, &cyc)
				assert.Equal(t, tc.want, cyc.Path)
			}
		})
	}
}

// TestResolve_ConstructorErrorAndPanic verifies constructor failures are wrapped with the key.
func TestResolve_ConstructorErrorAndPanic(t *testing.T) {
	t.Parallel()

	r := di.NewRegistry()
	require.NoError(t, r.Register("fails", func([]any) (any, error) { return nil, di.ErrBoom }))
	require.NoError(t, r.Register("panics", func([]any) (any, error) { panic("kaboom") }))
	require.NoError(t, r.Register("parent", constAny("p"), di.DependsOn("fails")))

	_, err := r.Resolve("fails")
	var ce *di.ConstructError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, di.DependencyKey("fails"), ce.Key)
	assert.ErrorIs(t, err, di.ErrBoom)

	_, err = r.Resolve("panics")
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, di.DependencyKey("panics"), ce.Key)
	assert.ErrorIs(t, err, di.ErrConstructorPanic)
	assert.Contains(t, err.Error(), "kaboom")

	_, err = r.Resolve("parent")
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, di.DependencyKey("fails"), ce.Key, "the failing dependency is reported, not the parent")
}

// TestResolve_MaxDepth verifies the optional depth guard.
func TestResolve_MaxDepth(t *testing.T) {
	t.Parallel()

	r := di.NewRegistry(di.WithMaxDepth(2))
	require.NoError(t, r.Register("a", constAny("a"), di.DependsOn("b")))
	require.NoError(t, r.Register("b", constAny("b"), di.DependsOn("c")))
	require.NoError(t, r.Register("c", constAny("c")))

	_, err := r.Resolve("b")
	require.NoError(t, err)

	_, err = r.Resolve("a")
	require.ErrorIs(t, err, di.ErrMaxDepthExceeded)
	assert.Contains(t, err.Error(), `"a" -> "b" -> "c"`)
}

// TestResolve_Guards covers nil registry and empty key.
func TestResolve_Guards(t *testing.T) {
	t.Parallel()

	var nilReg *di.Registry
	_, err := nilReg.Resolve("a")
	require.ErrorIs(t, err, di.ErrNilRegistry)

	_, err = di.NewRegistry().Resolve("")
	require.ErrorIs(t, err, di.ErrEmptyKey)

	_, err = di.ResolveAs[int](nil, "a")
	require.ErrorIs(t, err, di.ErrNilRegistry)
}

// TestMustResolve verifies the panicking variants.
func TestMustResolve(t *testing.T) {
	t.Parallel()

	r := newShopRegistry(t)
	assert.NotNil(t, r.MustResolve("user"))
	assert.NotNil(t, di.MustResolveAs[*di.UserService](r, "user"))

	require.PanicsWithError(t, `di: missing registration for key "nope"`, func() {
		_ = r.MustResolve("nope")
	})
	require.Panics(t, func() {
		_ = di.MustResolveAs[*di.Logger](r, "db")
	})
}

// TestResolveAs_WrongType verifies the type assertion error carries the dynamic type.
func TestResolveAs_WrongType(t *testing.T) {
	t.Parallel()

	r := newShopRegistry(t)
	require.NoError(t, r.Provide("nil", nil))

	_, err := di.ResolveAs[*di.Logger](r, "db")
	var wt di.WrongTypeDependencyError
	require.ErrorAs(t, err, &wt)
	assert.Equal(t, di.DependencyKey("db"), wt.Key)
	assert.Equal(t, "*di.DB", wt.GotType)

	_, err = di.ResolveAs[*di.DB](r, "nil")
	require.ErrorAs(t, err, &wt)
	assert.Equal(t, "<nil>", wt.GotType)
}

// TestResolve_LogsConstruction verifies construction events reach the logger.
func TestResolve_LogsConstruction(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	r := newShopRegistry(t, di.WithLogger(zap.New(core)))
	require.NoError(t, r.Register("broken", func([]any) (any, error) { return nil, errors.New("nope") }))

	_, err := r.Resolve("basket")
	require.NoError(t, err)
	_, err = r.Resolve("broken")
	require.Error(t, err)

	built := logs.FilterMessage("di: constructed").All()
	require.Len(t, built, 3) // db, logger, basket
	assert.Equal(t, "basket", built[2].ContextMap()["key"])
	assert.Equal(t, int64(2), built[2].ContextMap()["deps"])

	assert.Equal(t, 1, logs.FilterMessage("di: construction failed").Len())
}

func constAny(v any) di.Constructor {
	return func([]any) (any, error) { return v, nil }
}
