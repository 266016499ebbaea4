// Package runwire wires independent callables into a single composite
// runner. Each invocation calls every registered callable exactly once,
// resolving the resources it declares needing, collecting the resources it
// produces, and releasing any scoped resources it opened, without the caller
// hand-ordering anything.
//
// Ordering is a deliberate heuristic, not a dependency-graph sort: a
// callable is placed at the call point of its first requirement, and a call
// point's position is fixed the moment that point is first referenced.
// Within a call point the first, normal and last periods order callables
// that share it. This gives intuitive results for linear pipelines while
// staying simple to audit and debug.
//
// Results are classified when a callable returns: return-point overrides
// take precedence, a map[Point]any distributes per key, multiple results
// store each value under its own runtime type, a returned marker records
// bare presence for After requirements, and any other single value is stored
// under its runtime type. A result implementing Scoped is acquired in place
// and released when the invocation ends, in reverse acquisition order, even
// on failure.
package runwire
