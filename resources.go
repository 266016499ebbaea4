package runwire

import (
	"context"
	"fmt"
	"reflect"
)

// Scoped is the capability interface for resources with an explicit
// acquire/release lifecycle. When a callable's result implements Scoped, the
// runner acquires it in place, stores the acquired value as the produced
// resource, and releases it when the invocation ends, in reverse acquisition
// order.
//
// Release receives the error in flight, or nil on clean completion. It may
// suppress that error by returning true, in which case later releases see a
// clean state. A non-nil error from Release replaces the error in flight.
type Scoped interface {
	Acquire(ctx context.Context) (any, error)
	Release(cause error) (suppressed bool, err error)
}

// Seeded pairs a seed value with an explicit point, for cases where the
// value's runtime type is not the point it should be stored under.
type Seeded struct {
	Point Point
	Value any
}

// Supply builds a Seeded for Call.
func Supply(point Point, value any) Seeded {
	return Seeded{Point: point, Value: value}
}

// resources is the per-invocation store: point to latest value, plus the
// stack of open scoped resources in acquisition order. Created fresh for
// every Call and discarded with it.
type resources struct {
	values map[Point]any
	open   []Scoped
}

func newResources() *resources {
	return &resources{values: make(map[Point]any)}
}

// store records the latest value for a point, overwriting any earlier
// production within the same invocation.
func (c *resources) store(point Point, value any) {
	c.values[point] = value
}

// seed stores the initial values handed to Call. Plain values go under their
// runtime type point; Seeded values under their explicit point.
func (c *resources) seed(values []any) error {
	for _, v := range values {
		if s, ok := v.(Seeded); ok {
			if s.Point.IsZero() {
				return fmt.Errorf("seed value %v supplied with a zero point", s.Value)
			}
			c.store(s.Point, s.Value)
			continue
		}
		if v == nil {
			return fmt.Errorf("cannot seed an untyped nil value")
		}
		c.store(PointOf(v), v)
	}
	return nil
}

// resolve produces the value for one requirement of the named callable.
// Ordering-only requirements resolve just far enough to confirm the point
// was produced.
func (c *resources) resolve(req Requirement, callable string) (any, error) {
	value, ok := c.values[req.point]
	if !ok {
		return nil, &UnsatisfiedRequirementError{Point: req.point, Requirement: req, Callable: callable}
	}
	if req.afterOnly {
		return nil, nil
	}
	for _, op := range req.ops {
		next, reason := applyOp(value, op)
		if reason != "" {
			return nil, &ResolutionError{Requirement: req, Callable: callable, Reason: reason}
		}
		value = next
	}
	return value, nil
}

// applyOp applies one accessor step. It returns the extracted value, or a
// non-empty reason when the value cannot satisfy the accessor.
func applyOp(value any, op accessOp) (any, string) {
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Sprintf("nil value has no %s", op)
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil, fmt.Sprintf("nil value has no %s", op)
	}

	if op.kind == opAttr {
		switch rv.Kind() {
		case reflect.Struct:
			field := rv.FieldByName(op.attr)
			if !field.IsValid() || !field.CanInterface() {
				return nil, fmt.Sprintf("%s has no attribute %q", rv.Type(), op.attr)
			}
			return field.Interface(), ""
		case reflect.Map:
			// String-keyed mappings answer attribute access too, so manifest
			// vars decoded as maps chain the same way structs do.
			if rv.Type().Key().Kind() != reflect.String {
				return nil, fmt.Sprintf("%s value has no attributes", rv.Type())
			}
			item := rv.MapIndex(reflect.ValueOf(op.attr).Convert(rv.Type().Key()))
			if !item.IsValid() {
				return nil, fmt.Sprintf("%s has no attribute %q", rv.Type(), op.attr)
			}
			return item.Interface(), ""
		default:
			return nil, fmt.Sprintf("%s value has no attributes", rv.Type())
		}
	}

	switch rv.Kind() {
	case reflect.Map:
		key := reflect.ValueOf(op.key)
		if !key.IsValid() || !key.Type().AssignableTo(rv.Type().Key()) {
			return nil, fmt.Sprintf("key %v does not fit %s", op.key, rv.Type())
		}
		item := rv.MapIndex(key)
		if !item.IsValid() {
			return nil, fmt.Sprintf("%s has no item %v", rv.Type(), op.key)
		}
		return item.Interface(), ""
	case reflect.Slice, reflect.Array, reflect.String:
		i, ok := intKey(op.key)
		if !ok {
			return nil, fmt.Sprintf("%s must be indexed with an integer, got %T", rv.Type(), op.key)
		}
		if i < 0 || i >= rv.Len() {
			return nil, fmt.Sprintf("index %d out of range for %s of length %d", i, rv.Type(), rv.Len())
		}
		return rv.Index(i).Interface(), ""
	default:
		return nil, fmt.Sprintf("%s value has no items", rv.Type())
	}
}

func intKey(key any) (int, bool) {
	switch k := key.(type) {
	case int:
		return k, true
	case int64:
		return int(k), true
	case uint:
		return int(k), true
	default:
		return 0, false
	}
}
