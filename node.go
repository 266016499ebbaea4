package runwire

import (
	"reflect"
	"strings"
)

// Callable bundles a function with its declared requirements and return
// points, so it can be registered by value without repeating the specs at
// every Add. Explicit requirements passed to Add fully replace Requires;
// the two are never merged.
type Callable struct {
	// Name overrides the name derived from the function, used in errors,
	// logs and debug output.
	Name string
	// Fn is the function to wire.
	Fn any
	// Requires are the declared requirement specs, positional first, then
	// named.
	Requires []Requirement
	// Returns optionally overrides the classification of Fn's results.
	Returns []Point
}

// node is one registered callable: the reflected function, its resolved
// requirement specs and the binding plan derived from its signature.
// Immutable once built, so clones and extended runners may share it.
type node struct {
	name string
	fn   reflect.Value

	wantsCtx    bool
	paramsIndex int          // input index of the trailing params struct pointer, -1 if none
	paramsType  reflect.Type // struct type behind paramsIndex
	positional  []int        // input indexes bound by positional requirements, in order

	requirements []Requirement
	returns      []Point

	hasErrOut  bool
	numResults int // outputs excluding the trailing error
}

func (n *node) String() string {
	var b strings.Builder
	b.WriteString(n.name)
	b.WriteString("(")
	for i, r := range n.requirements {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.String())
	}
	b.WriteString(")")
	if len(n.returns) > 0 {
		b.WriteString(" -> ")
		for i, p := range n.returns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.String())
		}
	}
	return b.String()
}
