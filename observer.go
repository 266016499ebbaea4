package runwire

import (
	"fmt"
	"io"
)

// AddEvent is the read-only snapshot delivered to observers after each add:
// the rendered node, where the scheduler placed it, and the full flattened
// call order at that moment.
type AddEvent struct {
	Node            string
	GoverningPoint  Point
	GoverningPeriod Period
	Order           []string
}

// Observer receives scheduling snapshots. The core does not depend on how,
// or whether, they are rendered.
type Observer interface {
	NodeAdded(event AddEvent)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(event AddEvent)

func (f ObserverFunc) NodeAdded(event AddEvent) { f(event) }

type textObserver struct {
	w io.Writer
}

// NewTextObserver returns an observer that renders one record per add to w.
func NewTextObserver(w io.Writer) Observer {
	return &textObserver{w: w}
}

func (t *textObserver) NodeAdded(event AddEvent) {
	fmt.Fprintf(t.w, "added %s at %s [%s]\n", event.Node, event.GoverningPoint, event.GoverningPeriod)
	for i, line := range event.Order {
		fmt.Fprintf(t.w, "%4d. %s\n", i+1, line)
	}
}

// RenderPlan writes a numbered call order, as produced by Runner.Plan.
func RenderPlan(w io.Writer, plan []string) {
	for i, line := range plan {
		fmt.Fprintf(w, "%4d. %s\n", i+1, line)
	}
}
