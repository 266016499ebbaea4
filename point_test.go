package runwire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pointTestConfig struct {
	DSN string
}

func TestMarker_InternedIdentity(t *testing.T) {
	t.Parallel()

	a := Marker("database.ready")
	b := Marker("database.ready")
	c := Marker("cache.ready")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	assert.True(t, a.IsMarker())
	assert.Equal(t, "database.ready", a.String())
}

func TestTypeOf_MatchesPointOf(t *testing.T) {
	t.Parallel()

	byType := TypeOf[*pointTestConfig]()
	byValue := PointOf(&pointTestConfig{DSN: "x"})

	require.Equal(t, byType, byValue)
	assert.False(t, byType.IsMarker())
	assert.Equal(t, "*runwire.pointTestConfig", byType.String())
}

func TestTypeOf_InterfaceType(t *testing.T) {
	t.Parallel()

	p := TypeOf[error]()
	require.False(t, p.IsZero())
	assert.Equal(t, "error", p.String())
}

func TestPointOf_NilIsZero(t *testing.T) {
	t.Parallel()

	p := PointOf(nil)
	assert.True(t, p.IsZero())
}

func TestRootPoint_NotReachableViaMarker(t *testing.T) {
	t.Parallel()

	// The sentinel for zero-requirement callables must not collide with any
	// marker a caller can mint.
	assert.NotEqual(t, rootPoint, Marker("<root>"))
	assert.Equal(t, "<root>", rootPoint.String())
}
