package runwire

import (
	"fmt"
	"strings"
)

// Period is the intra-call-point ordering preference among callables that
// share a governing point.
type Period uint8

const (
	PeriodNormal Period = iota
	PeriodFirst
	PeriodLast
)

func (p Period) String() string {
	switch p {
	case PeriodFirst:
		return "first"
	case PeriodLast:
		return "last"
	default:
		return "normal"
	}
}

type opKind uint8

const (
	opAttr opKind = iota
	opItem
)

// accessOp is one step of a nested accessor chain: either a named attribute
// (struct field) or a keyed/indexed item.
type accessOp struct {
	kind opKind
	attr string
	key  any
}

func (op accessOp) String() string {
	if op.kind == opAttr {
		return "." + op.attr
	}
	return fmt.Sprintf("[%v]", op.key)
}

// Requirement describes how one parameter of a callable is bound: the point
// to look up, an optional accessor chain into the looked-up value, a
// scheduling period, and whether the requirement is ordering-only.
//
// Requirements are values; the modifier constructors below return new
// requirements and compose in any nesting order.
type Requirement struct {
	point     Point
	ops       []accessOp
	period    Period
	afterOnly bool
	target    string
	err       error
}

// asRequirement normalises a Point or Requirement. Anything else is carried
// as a malformed requirement and rejected when the callable is added.
func asRequirement(spec any) Requirement {
	switch v := spec.(type) {
	case Requirement:
		return v
	case Point:
		return Requirement{point: v}
	default:
		return Requirement{err: fmt.Errorf("%T is neither a Point nor a Requirement", spec)}
	}
}

// Require turns a Point into a plain Requirement with default scheduling.
func Require(spec any) Requirement {
	return asRequirement(spec)
}

// First schedules the callable at the front of its governing point when this
// is the callable's first requirement.
func First(spec any) Requirement {
	r := asRequirement(spec)
	r.period = PeriodFirst
	return r
}

// Last schedules the callable at the back of its governing point when this
// is the callable's first requirement.
func Last(spec any) Requirement {
	r := asRequirement(spec)
	r.period = PeriodLast
	return r
}

// After declares an ordering-only requirement: the callable runs after the
// point has been produced but receives no value for it. An After requirement
// always schedules as if it had the last period.
func After(spec any) Requirement {
	r := asRequirement(spec)
	r.afterOnly = true
	return r
}

// Attr appends named-attribute accessors to the requirement. Attributes are
// exported fields of a struct (or pointer to struct) resource.
func Attr(spec any, names ...string) Requirement {
	r := asRequirement(spec)
	ops := make([]accessOp, len(r.ops), len(r.ops)+len(names))
	copy(ops, r.ops)
	for _, name := range names {
		ops = append(ops, accessOp{kind: opAttr, attr: name})
	}
	r.ops = ops
	return r
}

// Item appends keyed or indexed accessors to the requirement. Keys apply to
// map resources; integer keys also index slices and arrays.
func Item(spec any, keys ...any) Requirement {
	r := asRequirement(spec)
	ops := make([]accessOp, len(r.ops), len(r.ops)+len(keys))
	copy(ops, r.ops)
	for _, key := range keys {
		ops = append(ops, accessOp{kind: opItem, key: key})
	}
	r.ops = ops
	return r
}

// Named binds the requirement to the named field of the callable's trailing
// parameter struct instead of to a positional parameter.
func Named(target string, spec any) Requirement {
	r := asRequirement(spec)
	r.target = target
	return r
}

// Point returns the point this requirement resolves against.
func (r Requirement) Point() Point { return r.point }

// Period returns the explicit scheduling period carried by the requirement.
func (r Requirement) Period() Period { return r.period }

// AfterOnly reports whether the requirement is ordering-only.
func (r Requirement) AfterOnly() bool { return r.afterOnly }

// Target returns the parameter-struct field this requirement binds to, or
// the empty string for positional requirements.
func (r Requirement) Target() string { return r.target }

func (r Requirement) String() string {
	var b strings.Builder
	if r.target != "" {
		b.WriteString(r.target)
		b.WriteString("=")
	}
	switch {
	case r.afterOnly:
		b.WriteString("after(")
	case r.period == PeriodFirst:
		b.WriteString("first(")
	case r.period == PeriodLast:
		b.WriteString("last(")
	}
	b.WriteString(r.point.String())
	for _, op := range r.ops {
		b.WriteString(op.String())
	}
	if r.afterOnly || r.period != PeriodNormal {
		b.WriteString(")")
	}
	return b.String()
}

// validate reports the first problem that makes the requirement unusable.
func (r Requirement) validate() error {
	if r.err != nil {
		return r.err
	}
	if r.point.IsZero() {
		return fmt.Errorf("requirement has no point")
	}
	for _, op := range r.ops {
		if op.kind == opAttr && op.attr == "" {
			return fmt.Errorf("attr accessor with empty name on %s", r.point)
		}
	}
	return nil
}
