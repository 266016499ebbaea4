package runwire

import (
	"reflect"
	"sync"
)

// Point identifies a class of resources inside a runner. It is either a type
// token, under which values are stored and looked up by their Go type, or a
// named marker created by Marker. Points are immutable; two points are the
// same resource if and only if they compare equal.
type Point struct {
	typ  reflect.Type
	name string
}

// rootToken is the type behind the sentinel point that governs callables
// with no requirements. It is unexported so no caller can produce it.
type rootToken struct{}

var rootPoint = Point{typ: reflect.TypeOf(rootToken{})}

// TypeOf returns the point for the type T.
func TypeOf[T any]() Point {
	return Point{typ: reflect.TypeOf((*T)(nil)).Elem()}
}

// PointOf returns the point for the runtime type of v.
// PointOf(nil) returns the zero Point, which matches nothing.
func PointOf(v any) Point {
	if v == nil {
		return Point{}
	}
	return Point{typ: reflect.TypeOf(v)}
}

func pointForType(t reflect.Type) Point {
	return Point{typ: t}
}

// markerTable interns named marker points so that Marker returns the same
// point for the same name for the lifetime of the process.
var markerTable = struct {
	mu     sync.Mutex
	byName map[string]Point
}{byName: make(map[string]Point)}

// Marker returns the named marker point, creating it on first use. Markers
// carry no payload of their own; they exist to be produced and waited on.
func Marker(name string) Point {
	markerTable.mu.Lock()
	defer markerTable.mu.Unlock()
	p, ok := markerTable.byName[name]
	if !ok {
		p = Point{name: name}
		markerTable.byName[name] = p
	}
	return p
}

// IsMarker reports whether p is a named marker rather than a type token.
func (p Point) IsMarker() bool {
	return p.name != ""
}

// IsZero reports whether p is the zero Point.
func (p Point) IsZero() bool {
	return p.typ == nil && p.name == ""
}

func (p Point) String() string {
	switch {
	case p == rootPoint:
		return "<root>"
	case p.name != "":
		return p.name
	case p.typ != nil:
		return p.typ.String()
	default:
		return "<zero point>"
	}
}
