package workdir

import (
	"context"
	"log/slog"
	"os"

	"github.com/vk/runwire"
	"github.com/vk/runwire/internal/ctxlog"
	"github.com/vk/runwire/manifest"
)

// Module implements the manifest.Module interface for this package.
type Module struct{}

// Dir is a scoped temporary working directory. Acquire creates it and
// produces its path; Release removes it whatever the pipeline outcome.
type Dir struct {
	prefix string
	path   string
	logger *slog.Logger
}

// NewDir is the handler for the 'workdir' call.
func NewDir() *Dir {
	return &Dir{prefix: "runwire-"}
}

// Acquire creates the directory and returns its path.
func (d *Dir) Acquire(ctx context.Context) (any, error) {
	d.logger = ctxlog.FromContext(ctx)
	path, err := os.MkdirTemp("", d.prefix)
	if err != nil {
		return nil, err
	}
	d.path = path
	d.logger.Debug("workdir created.", "path", path)
	return path, nil
}

// Release removes the directory tree. It never suppresses a pipeline error;
// a removal failure during an already-failing run is logged, not raised, so
// the original error survives.
func (d *Dir) Release(cause error) (bool, error) {
	err := os.RemoveAll(d.path)
	if err != nil && cause != nil {
		logger := d.logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("workdir removal failed.", "path", d.path, "error", err)
		return false, nil
	}
	return false, err
}

// Register registers the handler with the registry.
func (m *Module) Register(r *manifest.Registry) {
	r.Register("workdir", &manifest.Handler{
		Fn:      NewDir,
		Returns: []runwire.Point{runwire.Marker("workdir")},
	})
}
