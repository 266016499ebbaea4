package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/runwire"
)

// Load reads one manifest file, choosing the format by extension (.hcl,
// .yaml or .yml), and returns its pipeline documents.
func Load(path string) ([]*Document, error) {
	var parse func(string, []byte) ([]*Document, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		parse = ParseHCL
	case ".yaml", ".yml":
		parse = ParseYAML
	default:
		return nil, fmt.Errorf("%s: unsupported manifest extension (want .hcl, .yaml or .yml)", path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(path, src)
}

// Build assembles a runner from a document against the registry. It returns
// the runner plus the seed values from the document's vars, ready to pass to
// Call. Manifest require blocks and returns lists override each handler's
// declared specs; absent, the declarations apply verbatim.
func Build(reg *Registry, doc *Document, opts ...runwire.Option) (*runwire.Runner, []any, error) {
	runner := runwire.New(opts...)

	seeds := make([]any, 0, len(doc.Vars))
	for _, v := range doc.Vars {
		seeds = append(seeds, runwire.Supply(runwire.Marker(v.Name), v.Value))
	}

	for _, c := range doc.Calls {
		h, ok := reg.Lookup(c.Handler)
		if !ok {
			return nil, nil, fmt.Errorf("pipeline %q: unknown handler %q (registered: %s)",
				doc.Name, c.Handler, strings.Join(reg.Names(), ", "))
		}

		name := c.Alias
		if name == "" {
			name = c.Handler
		}
		callable := runwire.Callable{
			Name:     name,
			Fn:       h.Fn,
			Requires: h.Requires,
			Returns:  h.Returns,
		}

		var returns []runwire.Point
		if c.Returns != nil {
			returns = make([]runwire.Point, 0, len(c.Returns))
			for _, r := range c.Returns {
				returns = append(returns, runwire.Marker(r))
			}
		}

		var reqSpecs []any
		if c.Requires != nil {
			reqSpecs = make([]any, 0, len(c.Requires))
			for _, q := range c.Requires {
				spec, err := q.spec()
				if err != nil {
					return nil, nil, fmt.Errorf("pipeline %q, call %q: %w", doc.Name, name, err)
				}
				reqSpecs = append(reqSpecs, spec)
			}
		}

		if err := runner.AddReturning(callable, returns, reqSpecs...); err != nil {
			return nil, nil, fmt.Errorf("pipeline %q: %w", doc.Name, err)
		}
	}

	return runner, seeds, nil
}
