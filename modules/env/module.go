package env

import (
	"os"
	"strings"

	"github.com/vk/runwire"
	"github.com/vk/runwire/manifest"
)

// Module implements the manifest.Module interface for this package.
type Module struct{}

// Environ reads the process environment into a name-to-value map.
func Environ() map[string]string {
	envMap := make(map[string]string)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			envMap[pair[0]] = pair[1]
		}
	}
	return envMap
}

// Register registers the handler with the registry.
func (m *Module) Register(r *manifest.Registry) {
	r.Register("env", &manifest.Handler{
		Fn:      Environ,
		Returns: []runwire.Point{runwire.Marker("env")},
	})
}
