package manifest

import (
	"fmt"
	"strconv"

	"github.com/vk/runwire"
)

// Document is the format-agnostic model of one declared pipeline.
type Document struct {
	Name  string
	Vars  []Var
	Calls []Call
}

// Var is one seed value, stored under the marker point of the same name.
type Var struct {
	Name  string
	Value any
}

// Call is one pipeline step: a handler name plus optional overrides for the
// handler's declared requirements and return points.
type Call struct {
	Handler string
	// Alias names the step in plans and logs; defaults to the handler name.
	Alias string
	// Requires, when non-nil, fully replaces the handler's declared
	// requirement specs.
	Requires []Require
	// Returns, when non-nil, stores the handler's results under these
	// marker names.
	Returns []string
}

// Require is the manifest form of one requirement spec. Attrs are applied
// before Items; interleaved chains need the imperative API.
type Require struct {
	Point  string
	Name   string
	Period string
	After  bool
	Attrs  []string
	Items  []string
}

// spec translates the manifest form into a core requirement. Item keys that
// parse as integers index sequences; everything else keys mappings.
func (q Require) spec() (runwire.Requirement, error) {
	if q.Point == "" {
		return runwire.Requirement{}, fmt.Errorf("require block without a point")
	}
	spec := runwire.Require(runwire.Marker(q.Point))
	for _, attr := range q.Attrs {
		spec = runwire.Attr(spec, attr)
	}
	for _, item := range q.Items {
		if n, err := strconv.Atoi(item); err == nil {
			spec = runwire.Item(spec, n)
		} else {
			spec = runwire.Item(spec, item)
		}
	}
	switch q.Period {
	case "", "normal":
	case "first":
		spec = runwire.First(spec)
	case "last":
		spec = runwire.Last(spec)
	default:
		return runwire.Requirement{}, fmt.Errorf("invalid period %q on point %q: must be first, normal or last", q.Period, q.Point)
	}
	if q.After {
		spec = runwire.After(spec)
	}
	if q.Name != "" {
		spec = runwire.Named(q.Name, spec)
	}
	return spec, nil
}

func (d *Document) validate() error {
	if d.Name == "" {
		return fmt.Errorf("pipeline has no name")
	}
	for i, c := range d.Calls {
		if c.Handler == "" {
			return fmt.Errorf("pipeline %q: call %d has no handler", d.Name, i+1)
		}
	}
	return nil
}
