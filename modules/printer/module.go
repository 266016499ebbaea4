package printer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vk/runwire"
	"github.com/vk/runwire/manifest"
)

// Module implements the manifest.Module interface for this package.
type Module struct{}

// Render formats a resource value for display. Mappings print one sorted
// key per line so output stays stable across runs.
func Render(value any) string {
	switch v := value.(type) {
	case nil:
		return "(null)"
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, item := range v {
			m[k] = item
		}
		return renderMap(m)
	case map[string]any:
		return renderMap(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func renderMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString("\n")
		}
		if s, ok := m[k].(string); ok {
			fmt.Fprintf(&b, "%s = %q", k, s)
		} else {
			fmt.Fprintf(&b, "%s = %v", k, m[k])
		}
	}
	return b.String()
}

// Print renders the value resource and writes it to stdout. The rendered
// text is also produced as a resource, under "printed" by default.
func Print(value any) string {
	rendered := Render(value)
	fmt.Println(rendered)
	return rendered
}

// Register registers the handler with the registry.
func (m *Module) Register(r *manifest.Registry) {
	r.Register("printer", &manifest.Handler{
		Fn:       Print,
		Requires: []runwire.Requirement{runwire.Require(runwire.Marker("value"))},
		Returns:  []runwire.Point{runwire.Marker("printed")},
	})
}
