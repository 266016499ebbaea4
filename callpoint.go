package runwire

// callPoint holds the callables governed by one point, split into the three
// period buckets. Buckets are append-only; add order within a bucket is
// preserved.
type callPoint struct {
	first  []*node
	normal []*node
	last   []*node
}

func (cp *callPoint) add(period Period, n *node) {
	switch period {
	case PeriodFirst:
		cp.first = append(cp.first, n)
	case PeriodLast:
		cp.last = append(cp.last, n)
	default:
		cp.normal = append(cp.normal, n)
	}
}

func (cp *callPoint) clone() *callPoint {
	out := &callPoint{
		first:  make([]*node, len(cp.first)),
		normal: make([]*node, len(cp.normal)),
		last:   make([]*node, len(cp.last)),
	}
	copy(out.first, cp.first)
	copy(out.normal, cp.normal)
	copy(out.last, cp.last)
	return out
}

// schedule is the incremental ordering state: call points in the order their
// governing point was first referenced, plus a lookup for O(1) reuse.
//
// This is deliberately not a topological sort. A point's position in the
// final order is the moment it was first referenced across all adds, which
// gives intuitive results for linear pipelines and stays auditable. Only a
// callable's first requirement participates in placement.
type schedule struct {
	order  []Point
	points map[Point]*callPoint
	flat   []*node // cached flattening, nil when stale
}

func newSchedule() *schedule {
	return &schedule{points: make(map[Point]*callPoint)}
}

// governing returns the point and period that place a node: the point of its
// first requirement, or the root sentinel when it has none. An ordering-only
// first requirement always forces the last period, whatever explicit period
// it also carries.
func governing(n *node) (Point, Period) {
	if len(n.requirements) == 0 {
		return rootPoint, PeriodNormal
	}
	fr := n.requirements[0]
	if fr.afterOnly {
		return fr.point, PeriodLast
	}
	return fr.point, fr.period
}

// insert places the node and reports where it went.
func (s *schedule) insert(n *node) (Point, Period) {
	point, period := governing(n)
	cp, ok := s.points[point]
	if !ok {
		cp = &callPoint{}
		s.points[point] = cp
		s.order = append(s.order, point)
	}
	cp.add(period, n)
	s.flat = nil
	return point, period
}

// flatten yields the full call order for one invocation: call points in
// creation order, each contributing its first, normal and last buckets.
func (s *schedule) flatten() []*node {
	if s.flat != nil {
		return s.flat
	}
	var out []*node
	for _, point := range s.order {
		cp := s.points[point]
		out = append(out, cp.first...)
		out = append(out, cp.normal...)
		out = append(out, cp.last...)
	}
	if out == nil {
		out = []*node{}
	}
	s.flat = out
	return out
}

// clone returns an independent deep copy; nodes themselves are immutable and
// shared.
func (s *schedule) clone() *schedule {
	out := &schedule{
		order:  make([]Point, len(s.order)),
		points: make(map[Point]*callPoint, len(s.points)),
	}
	copy(out.order, s.order)
	for point, cp := range s.points {
		out.points[point] = cp.clone()
	}
	return out
}
