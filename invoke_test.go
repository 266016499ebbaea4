package runwire

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/runwire/internal/ctxlog"
)

type appConfig struct {
	DSN   string
	Hosts []string
	Tags  map[string]string
}

// scopedConn is a test double for the acquire/release capability.
type scopedConn struct {
	tr         *trace
	name       string
	suppress   bool
	releaseErr error
	seenCause  error
	released   int
}

func (s *scopedConn) Acquire(ctx context.Context) (any, error) {
	s.tr.mark("acquire:" + s.name)
	return &dbHandle{DSN: s.name}, nil
}

func (s *scopedConn) Release(cause error) (bool, error) {
	s.tr.mark("release:" + s.name)
	s.seenCause = cause
	s.released++
	return s.suppress, s.releaseErr
}

func TestResolve_AttrAndItemChains(t *testing.T) {
	t.Parallel()

	tr := &trace{}
	r := New()
	require.NoError(t, r.Add(named("config", func() *appConfig {
		return &appConfig{
			DSN:   "postgres://",
			Hosts: []string{"alpha", "beta"},
			Tags:  map[string]string{"env": "prod"},
		}
	})))
	cfg := TypeOf[*appConfig]()
	require.NoError(t, r.Add(
		named("use", func(dsn, host, env string) {
			tr.mark("use")
			require.Equal(t, "postgres://", dsn)
			require.Equal(t, "beta", host)
			require.Equal(t, "prod", env)
		}),
		Attr(cfg, "DSN"),
		Item(Attr(cfg, "Hosts"), 1),
		Item(Attr(cfg, "Tags"), "env"),
	))

	require.NoError(t, r.Call(context.Background()))
	assert.Equal(t, []string{"use"}, tr.names)
}

func TestResolve_AttrOnStringKeyedMap(t *testing.T) {
	t.Parallel()

	tr := &trace{}
	r := New()
	point := Marker("settings")
	require.NoError(t, r.Add(named("use", func(v string) {
		tr.mark("got:" + v)
	}, Attr(point, "region"))))

	require.NoError(t, r.Call(context.Background(), Supply(point, map[string]any{"region": "eu-west-1"})))
	assert.Equal(t, []string{"got:eu-west-1"}, tr.names)
}

func TestResolve_AttrOnIncapableValue(t *testing.T) {
	t.Parallel()

	r := New()
	point := Marker("n")
	require.NoError(t, r.Add(named("use", func(v any) {}, Attr(point, "Field"))))

	err := r.Call(context.Background(), Supply(point, 42))

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Contains(t, err.Error(), "has no attributes")
}

func TestResolve_MissingItemKey(t *testing.T) {
	t.Parallel()

	r := New()
	point := Marker("tags")
	require.NoError(t, r.Add(named("use", func(v string) {}, Item(point, "absent"))))

	err := r.Call(context.Background(), Supply(point, map[string]string{"env": "dev"}))

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Contains(t, err.Error(), "no item")
}

func TestResolve_UnassignableValue(t *testing.T) {
	t.Parallel()

	r := New()
	point := Marker("n")
	require.NoError(t, r.Add(named("use", func(v int) {}, Require(point))))

	err := r.Call(context.Background(), Supply(point, "a string"))

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Contains(t, err.Error(), "not assignable")
}

func TestClassify_MappingDistributesPerKey(t *testing.T) {
	t.Parallel()

	tr := &trace{}
	r := New()
	t1 := Marker("T1")
	t2 := Marker("T2")

	require.NoError(t, r.Add(named("produce", func() map[Point]any {
		return map[Point]any{t1: "one", t2: 2}
	})))
	require.NoError(t, r.Add(named("use", func(a string, b int) {
		tr.mark("use")
		require.Equal(t, "one", a)
		require.Equal(t, 2, b)
	}, Require(t1), Require(t2))))

	require.NoError(t, r.Call(context.Background()))
	assert.Equal(t, []string{"use"}, tr.names)
}

func TestClassify_MultipleResultsStoreByRuntimeType(t *testing.T) {
	t.Parallel()

	tr := &trace{}
	r := New()
	require.NoError(t, r.Add(named("produce", func() (*dbHandle, *parsedArgs) {
		return &dbHandle{DSN: "x"}, &parsedArgs{Verbose: true}
	})))
	require.NoError(t, r.Add(named("use", func(db *dbHandle, args *parsedArgs) {
		tr.mark("use")
		require.Equal(t, "x", db.DSN)
		require.True(t, args.Verbose)
	})))

	require.NoError(t, r.Call(context.Background()))
	assert.Equal(t, []string{"use"}, tr.names)
}

func TestClassify_LaterProductionOverwrites(t *testing.T) {
	t.Parallel()

	tr := &trace{}
	r := New()
	point := Marker("value")
	require.NoError(t, r.AddReturning(named("one", func() string { return "one" }), []Point{point}))
	require.NoError(t, r.AddReturning(named("two", func() string { return "two" }), []Point{point}))
	require.NoError(t, r.Add(named("use", func(v string) { tr.mark("got:" + v) }, Last(point))))

	require.NoError(t, r.Call(context.Background()))
	assert.Equal(t, []string{"got:two"}, tr.names)
}

func TestReturns_OverridePairsWithResults(t *testing.T) {
	t.Parallel()

	tr := &trace{}
	r := New()
	db := Marker("db")
	args := Marker("args")

	require.NoError(t, r.AddReturning(named("produce", func() (*dbHandle, *parsedArgs) {
		return &dbHandle{DSN: "y"}, &parsedArgs{}
	}), []Point{db, args}))
	require.NoError(t, r.Add(named("use", func(d *dbHandle, a *parsedArgs) {
		tr.mark("use")
		require.Equal(t, "y", d.DSN)
	}, Require(db), Require(args))))

	require.NoError(t, r.Call(context.Background()))
	assert.Equal(t, []string{"use"}, tr.names)
}

func TestReturns_SliceResultPairsElementwise(t *testing.T) {
	t.Parallel()

	tr := &trace{}
	r := New()
	a := Marker("a")
	b := Marker("b")

	require.NoError(t, r.AddReturning(named("produce", func() []any {
		return []any{"one", 2}
	}), []Point{a, b}))
	require.NoError(t, r.Add(named("use", func(x string, y int) {
		tr.mark("use")
		require.Equal(t, "one", x)
		require.Equal(t, 2, y)
	}, Require(a), Require(b))))

	require.NoError(t, r.Call(context.Background()))
	assert.Equal(t, []string{"use"}, tr.names)
}

func TestReturns_SliceLengthMismatchFailsAtCall(t *testing.T) {
	t.Parallel()

	r := New()
	require.NoError(t, r.AddReturning(named("produce", func() []any {
		return []any{"only one"}
	}), []Point{Marker("a"), Marker("b")}))

	err := r.Call(context.Background())

	var arity *ReturnArityError
	require.ErrorAs(t, err, &arity)
	assert.Equal(t, 2, arity.Want)
	assert.Equal(t, 1, arity.Got)
}

func TestReturns_StaticMismatchFailsAtAdd(t *testing.T) {
	t.Parallel()

	r := New()
	err := r.AddReturning(named("produce", func() (string, int) {
		return "", 0
	}), []Point{Marker("only")})

	var arity *ReturnArityError
	require.ErrorAs(t, err, &arity)
	assert.Zero(t, r.Len())
}

func TestCall_CallableErrorPropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	tr := &trace{}
	r := New()
	require.NoError(t, r.Add(named("fail", func() (*dbHandle, error) { return nil, boom })))
	require.NoError(t, r.Add(named("never", func(*dbHandle) { tr.mark("never") })))

	err := r.Call(context.Background())

	require.ErrorIs(t, err, boom)
	assert.Empty(t, tr.names)
}

func TestCall_ContextCarriesRunLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := New(WithLogger(logger))

	require.NoError(t, r.Add(named("emit", func(ctx context.Context) {
		ctxlog.FromContext(ctx).Info("inside callable.")
	})))

	require.NoError(t, r.Call(context.Background()))

	// The record must land on the runner's logger, tagged with the run id.
	assert.Contains(t, buf.String(), "inside callable.")
	assert.Contains(t, buf.String(), "run=")
}

func TestCall_SeedsStoredUnderRuntimePoints(t *testing.T) {
	t.Parallel()

	tr := &trace{}
	r := New()
	require.NoError(t, r.Add(named("use", func(cfg *appConfig, n int) {
		tr.mark("use")
		require.Equal(t, "seeded", cfg.DSN)
		require.Equal(t, 7, n)
	})))

	require.NoError(t, r.Call(context.Background(), &appConfig{DSN: "seeded"}, 7))
	assert.Equal(t, []string{"use"}, tr.names)
}

func TestCall_NilSeedRejected(t *testing.T) {
	t.Parallel()

	r := New()
	err := r.Call(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "untyped nil")
}

func TestScoped_ReleasedInReverseOrderOnFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("job failed")
	tr := &trace{}
	outer := &scopedConn{tr: tr, name: "outer"}
	inner := &scopedConn{tr: tr, name: "inner"}

	r := New()
	require.NoError(t, r.AddReturning(named("openOuter", func() *scopedConn { return outer }), []Point{Marker("outer")}))
	require.NoError(t, r.AddReturning(named("openInner", func() *scopedConn { return inner }), []Point{Marker("inner")}))
	require.NoError(t, r.Add(named("job", func(d *dbHandle) error {
		tr.mark("job")
		return boom
	}, Require(Marker("inner")))))

	err := r.Call(context.Background())

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{
		"acquire:outer",
		"acquire:inner",
		"job",
		"release:inner",
		"release:outer",
	}, tr.names)
	assert.Equal(t, 1, inner.released)
	assert.Equal(t, 1, outer.released)
	require.ErrorIs(t, inner.seenCause, boom)
	require.ErrorIs(t, outer.seenCause, boom)
}

func TestScoped_SuppressionClearsErrorForLaterReleases(t *testing.T) {
	t.Parallel()

	boom := errors.New("job failed")
	tr := &trace{}
	outer := &scopedConn{tr: tr, name: "outer"}
	inner := &scopedConn{tr: tr, name: "inner", suppress: true}

	r := New()
	require.NoError(t, r.AddReturning(named("openOuter", func() *scopedConn { return outer }), []Point{Marker("outer")}))
	require.NoError(t, r.AddReturning(named("openInner", func() *scopedConn { return inner }), []Point{Marker("inner")}))
	require.NoError(t, r.Add(named("job", func(d *dbHandle) error { return boom }, Require(Marker("inner")))))

	err := r.Call(context.Background())

	require.NoError(t, err, "a suppressing release swallows the error")
	require.ErrorIs(t, inner.seenCause, boom)
	assert.NoError(t, outer.seenCause, "releases after a suppression see a clean state")
}

func TestScoped_ReleasedOnCleanCompletion(t *testing.T) {
	t.Parallel()

	tr := &trace{}
	conn := &scopedConn{tr: tr, name: "db"}
	r := New()
	require.NoError(t, r.Add(named("open", func() *scopedConn { return conn })))
	require.NoError(t, r.Add(named("use", func(d *dbHandle) {
		tr.mark("use:" + d.DSN)
	})))

	require.NoError(t, r.Call(context.Background()))
	assert.Equal(t, []string{"acquire:db", "use:db", "release:db"}, tr.names)
	assert.NoError(t, conn.seenCause)
}

func TestScoped_ReleaseErrorReplacesCause(t *testing.T) {
	t.Parallel()

	releaseBoom := errors.New("release failed")
	tr := &trace{}
	conn := &scopedConn{tr: tr, name: "db", releaseErr: releaseBoom}
	r := New()
	require.NoError(t, r.Add(named("open", func() *scopedConn { return conn })))

	err := r.Call(context.Background())
	require.ErrorIs(t, err, releaseBoom)
}

func TestCall_PanicStillReleasesScopedResources(t *testing.T) {
	t.Parallel()

	tr := &trace{}
	conn := &scopedConn{tr: tr, name: "db"}
	r := New()
	require.NoError(t, r.Add(named("open", func() *scopedConn { return conn })))
	require.NoError(t, r.Add(named("explode", func(d *dbHandle) { panic("kaboom") })))

	err := r.Call(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Equal(t, 1, conn.released)
}
