// Package memory is an in-process annotation sink. It keeps the current
// widgets and a bounded log of every call, which makes it the sink of
// choice for tests and one-shot CLI runs.
package memory

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/snar-ar/overlay/internal/queue"
	"github.com/snar-ar/overlay/pkg/core"
)

const opLogSize = 10_000

// Op kinds.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpRetire = "retire"
)

// Widget is an annotation as currently shown.
type Widget struct {
	Handle    core.AnnotationHandle
	PointID   core.PointID
	ScreenX   float64
	ScreenY   float64
	Text      string
	TextScale float64
}

// Op is one recorded sink call.
type Op struct {
	Kind   string
	Widget Widget
}

// Sink implements reconcile.Sink in memory. Safe for concurrent readers.
type Sink struct {
	mu      sync.RWMutex
	widgets map[core.AnnotationHandle]Widget
	ops     *queue.Queue[Op]
	// unknown counts updates and retires for handles it never issued
	unknown int
}

// New returns an empty Sink.
func New() *Sink {
	return &Sink{
		widgets: make(map[core.AnnotationHandle]Widget),
		ops:     queue.NewBounded[Op](opLogSize),
	}
}

func (s *Sink) Create(id core.PointID, x, y float64, text string, scale float64) core.AnnotationHandle {
	w := Widget{
		Handle:    core.AnnotationHandle(uuid.NewString()),
		PointID:   id,
		ScreenX:   x,
		ScreenY:   y,
		Text:      text,
		TextScale: scale,
	}
	s.mu.Lock()
	s.widgets[w.Handle] = w
	s.mu.Unlock()
	s.ops.Push(Op{Kind: OpCreate, Widget: w})
	return w.Handle
}

func (s *Sink) Update(h core.AnnotationHandle, x, y float64, text string, scale float64) {
	s.mu.Lock()
	w, ok := s.widgets[h]
	if !ok {
		s.unknown++
		s.mu.Unlock()
		s.ops.Push(Op{Kind: OpUpdate, Widget: Widget{Handle: h}})
		return
	}
	w.ScreenX, w.ScreenY, w.Text, w.TextScale = x, y, text, scale
	s.widgets[h] = w
	s.mu.Unlock()
	s.ops.Push(Op{Kind: OpUpdate, Widget: w})
}

func (s *Sink) Retire(h core.AnnotationHandle) {
	s.mu.Lock()
	w, ok := s.widgets[h]
	if ok {
		delete(s.widgets, h)
	} else {
		s.unknown++
		w = Widget{Handle: h}
	}
	s.mu.Unlock()
	s.ops.Push(Op{Kind: OpRetire, Widget: w})
}

// Widgets returns the live widgets ordered by point id.
func (s *Sink) Widgets() []Widget {
	s.mu.RLock()
	out := make([]Widget, 0, len(s.widgets))
	for _, w := range s.widgets {
		out = append(out, w)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].PointID < out[j].PointID })
	return out
}

// Widget returns the live widget for a handle.
func (s *Sink) Widget(h core.AnnotationHandle) (Widget, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.widgets[h]
	return w, ok
}

// Len returns the number of live widgets.
func (s *Sink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.widgets)
}

// Unknown returns how many calls referenced a handle this sink never issued
// or had already retired.
func (s *Sink) Unknown() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unknown
}

// Ops returns and clears the recorded operations.
func (s *Sink) Ops() []Op {
	return s.ops.Drain()
}

// Count returns how many recorded operations (not yet drained) have the given kind.
func (s *Sink) Count(kind string) int {
	n := 0
	for _, op := range s.ops.Snapshot() {
		if op.Kind == kind {
			n++
		}
	}
	return n
}
