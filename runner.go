package runwire

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
)

// Runner wires independent callables into a single composite pipeline. Each
// Call invokes every registered callable exactly once, in the order decided
// by the call-point scheduler, resolving the resources each callable needs
// and collecting the resources it produces.
//
// Registration (Add, Extend) must not run concurrently with Call; a runner
// is single-writer, then sequentially invocable.
type Runner struct {
	sched     *schedule
	nodes     []*node
	observers []Observer
	logger    *slog.Logger
}

// Option configures a Runner at construction.
type Option func(*Runner)

// WithObserver registers an observer that receives a read-only snapshot
// after every add.
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observers = append(r.observers, o) }
}

// WithDebug renders one record per add to w, in the standard text format.
func WithDebug(w io.Writer) Option {
	return WithObserver(NewTextObserver(w))
}

// WithLogger sets the slog logger used for invocation records. Defaults to
// slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// New returns an empty runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		sched:  newSchedule(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add registers a callable. Each requirement is a Point, or a Point wrapped
// with First/Last/After/Attr/Item/Named. Explicit requirements fully replace
// the callable's declared ones; when neither is given, one type-point
// requirement per parameter is derived from the signature.
func (r *Runner) Add(callable any, requirements ...any) error {
	return r.register(callable, nil, requirements)
}

// AddReturning registers a callable whose results are stored under the given
// points instead of being classified by their runtime types.
func (r *Runner) AddReturning(callable any, returns []Point, requirements ...any) error {
	return r.register(callable, returns, requirements)
}

func (r *Runner) register(callable any, returns []Point, reqSpecs []any) error {
	var reqs []Requirement
	if len(reqSpecs) > 0 {
		reqs = make([]Requirement, 0, len(reqSpecs))
		for _, spec := range reqSpecs {
			reqs = append(reqs, asRequirement(spec))
		}
	}
	n, err := buildNode(callable, reqs, returns)
	if err != nil {
		return &RegistrationError{Callable: describeCallable(callable), Err: err}
	}
	r.addNode(n)
	return nil
}

// addNode places an already-built node; shared by register and Extend so
// imported nodes go through the same first-reference ordering rule.
func (r *Runner) addNode(n *node) {
	point, period := r.sched.insert(n)
	r.nodes = append(r.nodes, n)
	r.logger.Debug("callable added.",
		"callable", n.name,
		"point", point.String(),
		"period", period.String(),
	)
	if len(r.observers) == 0 {
		return
	}
	event := AddEvent{
		Node:            n.String(),
		GoverningPoint:  point,
		GoverningPeriod: period,
		Order:           r.Plan(),
	}
	for _, o := range r.observers {
		o.NodeAdded(event)
	}
}

// Extend adds each argument in turn: another runner contributes its nodes in
// their existing relative order, re-scheduled into this runner; anything
// else is added as a callable with declarative requirements only.
func (r *Runner) Extend(items ...any) error {
	for _, item := range items {
		if other, ok := item.(*Runner); ok {
			for _, n := range other.nodes {
				r.addNode(n)
			}
			continue
		}
		if err := r.Add(item); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a runner with an independent copy of the scheduler state and
// node list. Mutating the clone never affects the original. Observers and
// logger are carried over.
func (r *Runner) Clone() *Runner {
	return &Runner{
		sched:     r.sched.clone(),
		nodes:     append([]*node(nil), r.nodes...),
		observers: append([]Observer(nil), r.observers...),
		logger:    r.logger,
	}
}

// Combine returns a new runner formed by extending a fresh runner with each
// operand in turn. The operands are not mutated.
func Combine(runners ...*Runner) (*Runner, error) {
	out := New()
	for _, rn := range runners {
		if rn == nil {
			return nil, fmt.Errorf("combine: nil runner")
		}
		if err := out.Extend(rn); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Len returns the number of registered callables.
func (r *Runner) Len() int {
	return len(r.nodes)
}

// Plan renders the current flattened call order, one callable per entry.
func (r *Runner) Plan() []string {
	flat := r.sched.flatten()
	out := make([]string, len(flat))
	for i, n := range flat {
		out[i] = n.String()
	}
	return out
}

func describeCallable(callable any) string {
	switch c := callable.(type) {
	case Callable:
		if c.Name != "" {
			return c.Name
		}
		callable = c.Fn
	case *Callable:
		if c.Name != "" {
			return c.Name
		}
		callable = c.Fn
	}
	if fn := reflect.ValueOf(callable); fn.IsValid() && fn.Kind() == reflect.Func && !fn.IsNil() {
		return funcName(fn)
	}
	return fmt.Sprintf("%T", callable)
}
