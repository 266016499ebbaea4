package runwire

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// This file is the boundary between the scheduling core and callable
// introspection: the core consumes only the ordered requirement list and the
// binding plan built here, never the function's innards.

var (
	ctxType   = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType   = reflect.TypeOf((*error)(nil)).Elem()
	pointType = reflect.TypeOf(Point{})
)

// buildNode compiles a callable plus its specs into a node. explicitReqs
// non-nil means requirements were supplied imperatively and replace any
// declared ones. All spec/signature mismatches are reported here, before the
// node reaches the scheduler.
func buildNode(callable any, explicitReqs []Requirement, explicitReturns []Point) (*node, error) {
	name := ""
	requirements := explicitReqs
	returns := explicitReturns

	switch c := callable.(type) {
	case Callable:
		callable = c.Fn
		name = c.Name
		if requirements == nil {
			requirements = c.Requires
		}
		if returns == nil {
			returns = c.Returns
		}
	case *Callable:
		callable = c.Fn
		name = c.Name
		if requirements == nil {
			requirements = c.Requires
		}
		if returns == nil {
			returns = c.Returns
		}
	}

	fn := reflect.ValueOf(callable)
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("callable must be a function, got %T", callable)
	}
	if fn.IsNil() {
		return nil, fmt.Errorf("callable function is nil")
	}
	ft := fn.Type()
	if ft.IsVariadic() {
		return nil, fmt.Errorf("variadic callables are not supported")
	}
	if name == "" {
		name = funcName(fn)
	}

	n := &node{
		name:        name,
		fn:          fn,
		paramsIndex: -1,
		returns:     returns,
	}

	for _, r := range requirements {
		if err := r.validate(); err != nil {
			return nil, err
		}
	}

	// Signature scan: optional leading context, optional trailing params
	// struct when named requirements are in play, positional slots between.
	firstIn := 0
	if ft.NumIn() > 0 && ft.In(0) == ctxType {
		n.wantsCtx = true
		firstIn = 1
	}
	lastIn := ft.NumIn()

	named := 0
	for _, r := range requirements {
		if r.target != "" && !r.afterOnly {
			named++
		}
	}
	if named > 0 {
		if lastIn == firstIn {
			return nil, fmt.Errorf("named requirements given but signature has no parameters")
		}
		pt := ft.In(lastIn - 1)
		if pt.Kind() != reflect.Pointer || pt.Elem().Kind() != reflect.Struct {
			return nil, fmt.Errorf("named requirements given but last parameter is %s, not a struct pointer", pt)
		}
		n.paramsIndex = lastIn - 1
		n.paramsType = pt.Elem()
		lastIn--
	}
	for i := firstIn; i < lastIn; i++ {
		n.positional = append(n.positional, i)
	}

	if requirements == nil {
		// Nothing declared anywhere: derive one type-point requirement per
		// positional parameter.
		for _, i := range n.positional {
			requirements = append(requirements, Requirement{point: pointForType(ft.In(i))})
		}
	}
	n.requirements = requirements

	posWanted := 0
	for _, r := range requirements {
		if r.afterOnly {
			continue
		}
		if r.target == "" {
			posWanted++
		} else if _, ok := n.paramsType.FieldByName(r.target); !ok {
			return nil, fmt.Errorf("params struct %s has no field %q", n.paramsType, r.target)
		}
	}
	if posWanted != len(n.positional) {
		return nil, fmt.Errorf("%d positional requirements for %d parameters", posWanted, len(n.positional))
	}

	// Result shape. The trailing error output is the callable's own failure
	// channel, never a resource.
	n.numResults = ft.NumOut()
	if n.numResults > 0 && ft.Out(n.numResults-1) == errType {
		n.hasErrOut = true
		n.numResults--
	}
	for _, p := range returns {
		if p.IsZero() {
			return nil, fmt.Errorf("zero Point in return overrides")
		}
	}
	switch {
	case len(returns) == 0:
	case len(returns) == 1:
		if n.numResults != 1 {
			return nil, &ReturnArityError{Callable: name, Want: 1, Got: n.numResults}
		}
	default:
		if n.numResults == len(returns) {
			break
		}
		if n.numResults == 1 && sequenceKind(ft.Out(0)) {
			break // element count checked at call time
		}
		return nil, &ReturnArityError{Callable: name, Want: len(returns), Got: n.numResults}
	}

	return n, nil
}

// sequenceKind reports whether a single result of this type may carry the
// elements for a multi-point return override.
func sequenceKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice, reflect.Array, reflect.Interface:
		return true
	default:
		return false
	}
}

func funcName(fn reflect.Value) string {
	pc := runtime.FuncForPC(fn.Pointer())
	if pc == nil {
		return "<func>"
	}
	name := pc.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}
