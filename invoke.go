package runwire

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/google/uuid"

	"github.com/vk/runwire/internal/ctxlog"
)

// Call runs the pipeline once against a fresh resource context, optionally
// pre-populated with seed values. Plain seeds are stored under their runtime
// type points; use Supply for an explicit point.
//
// The first error from resolution, classification or a callable halts the
// remaining calls; open scoped resources are still released, in reverse
// acquisition order, and may suppress the error.
func (r *Runner) Call(ctx context.Context, seeds ...any) error {
	logger := r.logger.With("run", uuid.NewString())
	// Callables that take a context can read the run-scoped logger back out
	// with ctxlog.FromContext.
	ctx = ctxlog.WithLogger(ctx, logger)

	res := newResources()
	if err := res.seed(seeds); err != nil {
		return err
	}

	order := r.sched.flatten()
	logger.Debug("invocation started.", "callables", len(order))

	var cause error
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				cause = fmt.Errorf("callable panicked: %v", rec)
			}
		}()
		for _, n := range order {
			if cause = r.invoke(ctx, logger, res, n); cause != nil {
				return
			}
		}
	}()

	// Pending releases run whether or not an error is in flight. A release
	// that suppresses clears the error for the releases after it; a release
	// error replaces it.
	for i := len(res.open) - 1; i >= 0; i-- {
		suppressed, rerr := res.open[i].Release(cause)
		if suppressed {
			cause = nil
		}
		if rerr != nil {
			cause = rerr
		}
	}

	if cause != nil {
		logger.Debug("invocation failed.", "error", cause)
		return cause
	}
	logger.Debug("invocation finished.")
	return nil
}

// invoke resolves one node's arguments, calls it and classifies the result.
func (r *Runner) invoke(ctx context.Context, logger *slog.Logger, res *resources, n *node) error {
	ft := n.fn.Type()
	in := make([]reflect.Value, ft.NumIn())
	if n.wantsCtx {
		in[0] = reflect.ValueOf(ctx)
	}
	var params reflect.Value
	if n.paramsIndex >= 0 {
		params = reflect.New(n.paramsType)
		in[n.paramsIndex] = params
	}

	pos := 0
	for _, req := range n.requirements {
		value, err := res.resolve(req, n.name)
		if err != nil {
			return err
		}
		if req.afterOnly {
			continue
		}
		if req.target != "" {
			field := params.Elem().FieldByName(req.target)
			bound, reason := bindValue(value, field.Type())
			if reason != "" {
				return &ResolutionError{Requirement: req, Callable: n.name, Reason: reason}
			}
			field.Set(bound)
			continue
		}
		idx := n.positional[pos]
		pos++
		bound, reason := bindValue(value, ft.In(idx))
		if reason != "" {
			return &ResolutionError{Requirement: req, Callable: n.name, Reason: reason}
		}
		in[idx] = bound
	}

	logger.Debug("calling.", "callable", n.name)
	outs := n.fn.Call(in)

	if n.hasErrOut {
		if errOut := outs[len(outs)-1]; !errOut.IsNil() {
			return fmt.Errorf("call %s: %w", n.name, errOut.Interface().(error))
		}
		outs = outs[:len(outs)-1]
	}
	return r.classify(ctx, logger, res, n, outs)
}

// bindValue converts a resolved value to a reflect value assignable to the
// parameter type. A non-empty reason means the binding is impossible.
func bindValue(value any, t reflect.Type) (reflect.Value, string) {
	if value == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
			return reflect.Zero(t), ""
		default:
			return reflect.Value{}, fmt.Sprintf("nil value for %s parameter", t)
		}
	}
	rv := reflect.ValueOf(value)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Sprintf("%s is not assignable to %s", rv.Type(), t)
	}
	return rv, ""
}

// classify decides what a callable's results become available as (see the
// package documentation for the full rules).
func (r *Runner) classify(ctx context.Context, logger *slog.Logger, res *resources, n *node, outs []reflect.Value) error {
	values := make([]any, len(outs))
	for i, out := range outs {
		values[i] = out.Interface()
	}

	// A single result offering acquire/release is acquired in place; the
	// acquired value is what the pipeline produced.
	if len(values) == 1 {
		if sc, ok := values[0].(Scoped); ok {
			acquired, err := sc.Acquire(ctx)
			if err != nil {
				return fmt.Errorf("acquire %s: %w", n.name, err)
			}
			logger.Debug("scoped resource acquired.", "callable", n.name)
			res.open = append(res.open, sc)
			values[0] = acquired
		}
	}

	if len(n.returns) > 0 {
		return storeOverridden(res, n, values)
	}

	switch len(values) {
	case 0:
		return nil
	case 1:
		return storeClassified(res, values[0])
	default:
		// Multiple results: each stored under its own runtime type.
		for _, v := range values {
			if v == nil {
				continue
			}
			res.store(PointOf(v), v)
		}
		return nil
	}
}

// storeOverridden stores results under the node's declared return points.
func storeOverridden(res *resources, n *node, values []any) error {
	returns := n.returns
	if len(returns) == 1 {
		if values[0] != nil {
			res.store(returns[0], values[0])
		}
		return nil
	}
	if len(values) == 1 {
		// A single sequence result pairs elementwise with the points.
		rv := reflect.ValueOf(values[0])
		if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			return &ReturnArityError{Callable: n.name, Want: len(returns), Got: 1}
		}
		if rv.Len() != len(returns) {
			return &ReturnArityError{Callable: n.name, Want: len(returns), Got: rv.Len()}
		}
		values = make([]any, rv.Len())
		for i := range values {
			values[i] = rv.Index(i).Interface()
		}
	}
	for i, v := range values {
		if v == nil {
			continue
		}
		res.store(returns[i], v)
	}
	return nil
}

// storeClassified stores a single unoverridden result: mappings distribute
// per key, a returned marker records bare presence, nil produces nothing,
// and anything else goes under its own runtime type.
func storeClassified(res *resources, value any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case map[Point]any:
		for point, item := range v {
			if point.IsZero() {
				return fmt.Errorf("result mapping contains a zero point")
			}
			res.store(point, item)
		}
		return nil
	case Point:
		if v.IsMarker() {
			res.store(v, v)
			return nil
		}
		res.store(PointOf(v), v)
		return nil
	default:
		res.store(PointOf(v), v)
		return nil
	}
}
