// Package reconcile keeps the set of on-screen annotations in step with the
// points visible in the current frame, issuing the fewest sink calls needed.
//
// Every point id goes through create, zero or more updates, then retire.
// Anything else is a bug in this package and panics with *InvariantError.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/snar-ar/overlay/pkg/core"
)

// Sink renders annotations. Calls are made synchronously from the frame
// that planned them.
type Sink interface {
	Create(id core.PointID, screenX, screenY float64, text string, textScale float64) core.AnnotationHandle
	Update(handle core.AnnotationHandle, screenX, screenY float64, text string, textScale float64)
	Retire(handle core.AnnotationHandle)
}

// InvariantError reports a broken lifecycle invariant. It is only ever
// raised through panic.
type InvariantError struct {
	Op      string
	PointID core.PointID
	Handle  core.AnnotationHandle
	Reason  string
}

func (e *InvariantError) Error() string {
	if e.Handle != "" {
		return fmt.Sprintf("annotation invariant violated: %s point %d (handle %s): %s", e.Op, e.PointID, e.Handle, e.Reason)
	}
	return fmt.Sprintf("annotation invariant violated: %s point %d: %s", e.Op, e.PointID, e.Reason)
}

func violate(op string, id core.PointID, h core.AnnotationHandle, reason string) {
	panic(&InvariantError{Op: op, PointID: id, Handle: h, Reason: reason})
}

// Update moves or restyles a live annotation in place.
type Update struct {
	Handle core.AnnotationHandle
	Point  core.ProjectedPoint
}

// Retire removes a live annotation.
type Retire struct {
	PointID core.PointID
	Handle  core.AnnotationHandle
}

// Plan is the set of sink operations that brings the live set in line with
// one frame's visible points.
type Plan struct {
	Creates   []core.ProjectedPoint
	Updates   []Update
	Retires   []Retire
	Unchanged int
}

// Empty reports whether the plan issues no sink calls.
func (p Plan) Empty() bool {
	return len(p.Creates) == 0 && len(p.Updates) == 0 && len(p.Retires) == 0
}

// Result counts what Apply did.
type Result struct {
	Created   int
	Updated   int
	Retired   int
	Unchanged int
	Live      int
}

type entry struct {
	handle core.AnnotationHandle
	last   core.ProjectedPoint
}

// Reconciler owns the live set: point id to annotation handle. It is not
// safe for concurrent use; the frame orchestrator serializes access.
type Reconciler struct {
	sink   Sink
	live   map[core.PointID]entry
	owners map[core.AnnotationHandle]core.PointID
}

// New returns an empty Reconciler issuing calls to sink.
func New(sink Sink) *Reconciler {
	return &Reconciler{
		sink:   sink,
		live:   make(map[core.PointID]entry),
		owners: make(map[core.AnnotationHandle]core.PointID),
	}
}

// Plan diffs visible against the live set without touching the sink.
// Points with Visible unset are treated as absent. A point id appearing
// twice in visible panics.
func (r *Reconciler) Plan(visible []core.ProjectedPoint) Plan {
	var plan Plan
	seen := make(map[core.PointID]struct{}, len(visible))

	for _, p := range visible {
		if !p.Visible {
			continue
		}
		if _, dup := seen[p.PointID]; dup {
			violate("plan", p.PointID, "", "point appears twice in one frame")
		}
		seen[p.PointID] = struct{}{}

		e, tracked := r.live[p.PointID]
		switch {
		case !tracked:
			plan.Creates = append(plan.Creates, p)
		case changed(e.last, p):
			plan.Updates = append(plan.Updates, Update{Handle: e.handle, Point: p})
		default:
			plan.Unchanged++
		}
	}

	for id, e := range r.live {
		if _, ok := seen[id]; !ok {
			plan.Retires = append(plan.Retires, Retire{PointID: id, Handle: e.handle})
		}
	}
	sort.Slice(plan.Retires, func(i, j int) bool {
		return plan.Retires[i].PointID < plan.Retires[j].PointID
	})

	return plan
}

// Apply executes plan against the sink, retiring first, and updates the
// live set. The plan must have been computed against the current live set.
func (r *Reconciler) Apply(plan Plan) Result {
	for _, op := range plan.Retires {
		r.retire(op.PointID, op.Handle)
	}

	for _, op := range plan.Updates {
		id := op.Point.PointID
		e, ok := r.live[id]
		if !ok {
			violate("update", id, op.Handle, "point is not live")
		}
		if e.handle != op.Handle {
			violate("update", id, op.Handle, fmt.Sprintf("point is live under handle %s", e.handle))
		}
		r.sink.Update(e.handle, op.Point.ScreenX, op.Point.ScreenY, op.Point.Text, op.Point.TextScale)
		r.live[id] = entry{handle: e.handle, last: op.Point}
	}

	for _, p := range plan.Creates {
		if e, ok := r.live[p.PointID]; ok {
			violate("create", p.PointID, e.handle, "point is already live")
		}
		h := r.sink.Create(p.PointID, p.ScreenX, p.ScreenY, p.Text, p.TextScale)
		if h == "" {
			violate("create", p.PointID, h, "sink returned an empty handle")
		}
		if owner, taken := r.owners[h]; taken {
			violate("create", p.PointID, h, fmt.Sprintf("handle already belongs to point %d", owner))
		}
		r.live[p.PointID] = entry{handle: h, last: p}
		r.owners[h] = p.PointID
	}

	return Result{
		Created:   len(plan.Creates),
		Updated:   len(plan.Updates),
		Retired:   len(plan.Retires),
		Unchanged: plan.Unchanged,
		Live:      len(r.live),
	}
}

// Reconcile plans and applies in one step.
func (r *Reconciler) Reconcile(visible []core.ProjectedPoint) Result {
	return r.Apply(r.Plan(visible))
}

// RetireAll retires every live annotation and returns how many there were.
func (r *Reconciler) RetireAll() int {
	return r.Apply(r.Plan(nil)).Retired
}

// Live returns a copy of the live set.
func (r *Reconciler) Live() map[core.PointID]core.AnnotationHandle {
	out := make(map[core.PointID]core.AnnotationHandle, len(r.live))
	for id, e := range r.live {
		out[id] = e.handle
	}
	return out
}

// Len returns the number of live annotations.
func (r *Reconciler) Len() int {
	return len(r.live)
}

func (r *Reconciler) retire(id core.PointID, h core.AnnotationHandle) {
	e, ok := r.live[id]
	if !ok {
		violate("retire", id, h, "point is not live")
	}
	if e.handle != h {
		violate("retire", id, h, fmt.Sprintf("point is live under handle %s", e.handle))
	}
	r.sink.Retire(h)
	delete(r.live, id)
	delete(r.owners, h)
}

func changed(prev, next core.ProjectedPoint) bool {
	return prev.ScreenX != next.ScreenX ||
		prev.ScreenY != next.ScreenY ||
		prev.Text != next.Text ||
		prev.TextScale != next.TextScale
}
