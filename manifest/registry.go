package manifest

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/runwire"
)

// Handler is the compiled Go side of a named manifest call: the function to
// wire plus its declared requirement specs and return points. Manifest
// require blocks and returns lists override the declarations per call.
type Handler struct {
	Fn       any
	Requires []runwire.Requirement
	Returns  []runwire.Point
}

// Module is implemented by packages that contribute handlers to a registry.
type Module interface {
	Register(r *Registry)
}

// Registry maps the handler names used in manifests to their compiled Go
// implementations. It is populated once at startup and read-only afterwards.
type Registry struct {
	handlers map[string]*Handler
}

// NewRegistry returns an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]*Handler)}
}

// Register adds a handler under its manifest name. Registering the same name
// twice is a wiring bug in the binary, so it panics.
func (r *Registry) Register(name string, h *Handler) {
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("handler with name '%s' already registered", name))
	}
	slog.Debug("Registering handler.", "name", name)
	r.handlers[name] = h
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (*Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Names lists the registered handler names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
