package manifest

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHCL_Smoke(t *testing.T) {
	t.Parallel()

	src, err := os.ReadFile("testdata/smoke.hcl")
	require.NoError(t, err)

	docs, err := ParseHCL("smoke.hcl", src)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "smoke", doc.Name)
	assert.Equal(t, []Var{
		{Name: "greeting", Value: "hello"},
		{Name: "verbose", Value: true},
	}, doc.Vars)
	require.Len(t, doc.Calls, 2)
	assert.Equal(t, Call{
		Handler:  "greeter",
		Alias:    "greet",
		Returns:  []string{"greeted"},
		Requires: []Require{{Point: "greeting"}},
	}, doc.Calls[0])
	assert.Equal(t, Call{
		Handler:  "auditor",
		Requires: []Require{{Point: "greeted", After: true}},
	}, doc.Calls[1])
}

func TestParseHCL_VarTypes(t *testing.T) {
	t.Parallel()

	src, err := os.ReadFile("testdata/vars.hcl")
	require.NoError(t, err)

	docs, err := ParseHCL("vars.hcl", src)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Equal(t, []Var{
		{Name: "flags", Value: []any{"a", "b"}},
		{Name: "limits", Value: map[string]any{"high": float64(9), "low": float64(1)}},
		{Name: "name", Value: "alpha"},
		{Name: "ratio", Value: 0.5},
		{Name: "retries", Value: float64(3)},
	}, docs[0].Vars)
}

func TestParseHCL_SyntaxError(t *testing.T) {
	t.Parallel()

	_, err := ParseHCL("broken.hcl", []byte(`pipeline "x" {`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.hcl")
}

func TestParseHCL_CallWithoutHandlerLabel(t *testing.T) {
	t.Parallel()

	src := []byte(`
pipeline "x" {
  call {
  }
}
`)
	_, err := ParseHCL("x.hcl", src)

	require.Error(t, err)
}
