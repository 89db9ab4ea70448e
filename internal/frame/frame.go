// Package frame drives one overlay frame: read the camera, place every
// nearby point of interest on screen, and reconcile the result with the
// annotations already shown.
//
// The orchestrator owns no goroutine or timer. The host calls ProcessFrame
// once per tick; a call that arrives while another is still running is
// dropped, never queued.
package frame

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/snar-ar/overlay/internal/geo"
	"github.com/snar-ar/overlay/internal/poi"
	"github.com/snar-ar/overlay/internal/projection"
	"github.com/snar-ar/overlay/internal/reconcile"
	"github.com/snar-ar/overlay/internal/resolver"
	"github.com/snar-ar/overlay/internal/style"
	"github.com/snar-ar/overlay/pkg/core"
)

// Tracker is the camera half of the tracking provider.
type Tracker interface {
	CurrentFrame() (core.CameraFrameState, error)
}

// Surface is the overlay view. Its size is read at the start of every frame.
type Surface interface {
	Viewport() core.Viewport
}

// SurfaceFunc adapts a function to the Surface interface.
type SurfaceFunc func() core.Viewport

// Viewport calls f.
func (f SurfaceFunc) Viewport() core.Viewport { return f() }

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// SkipReason says why a frame did no projection work.
type SkipReason string

const (
	SkipNone        SkipReason = ""
	SkipNoPoints    SkipReason = "no_points"
	SkipNotTracking SkipReason = "not_tracking"
	SkipNoFrame     SkipReason = "no_frame"
	SkipNoViewport  SkipReason = "no_viewport"
	SkipBusy        SkipReason = "busy"
	SkipPaused      SkipReason = "paused"
)

// Report summarizes one ProcessFrame call.
type Report struct {
	Frame      uint64
	Skipped    SkipReason
	Viewport   core.Viewport
	Candidates int
	Visible    int
	Unresolved int
	Culled     int
	Distant    int
	Result     reconcile.Result
	Duration   time.Duration
}

// Observer is called after every frame, skipped or not, on the frame's
// goroutine. It must not call back into the Orchestrator.
type Observer func(Report)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithObserver adds a per-frame report callback.
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) {
		o.observers = append(o.observers, fn)
	}
}

// Orchestrator runs the per-frame pipeline.
type Orchestrator struct {
	tracker    Tracker
	surface    Surface
	resolver   *resolver.Resolver
	mapper     *style.Mapper
	reconciler *reconcile.Reconciler
	logger     Logger
	observers  []Observer
	metrics    *metrics

	// mu serializes frames with Stop; ProcessFrame only ever TryLocks it
	mu     sync.Mutex
	points atomic.Pointer[poi.Set]
	paused atomic.Bool
	frames atomic.Uint64
}

// New wires an orchestrator. locator resolves geodetic points; it is
// usually the same provider as tracker.
func New(tracker Tracker, locator resolver.Tracker, surface Surface, sink reconcile.Sink, mapper *style.Mapper, opts ...Option) (*Orchestrator, error) {
	if tracker == nil || locator == nil || surface == nil || sink == nil || mapper == nil {
		return nil, errors.New("frame: tracker, locator, surface, sink and mapper are required")
	}
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	o := &Orchestrator{
		tracker:    tracker,
		surface:    surface,
		resolver:   resolver.New(locator),
		mapper:     mapper,
		reconciler: reconcile.New(sink),
		logger:     nopLogger{},
		metrics:    m,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// SetPoints publishes a loaded point set. It is safe to call from any
// goroutine; the next frame picks it up. Passing nil unloads the set.
func (o *Orchestrator) SetPoints(s *poi.Set) {
	o.points.Store(s)
}

// Points returns the current point set, or nil.
func (o *Orchestrator) Points() *poi.Set {
	return o.points.Load()
}

// LiveCount returns the number of annotations currently shown.
func (o *Orchestrator) LiveCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reconciler.Len()
}

// Live returns a copy of the live point id to handle mapping.
func (o *Orchestrator) Live() map[core.PointID]core.AnnotationHandle {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reconciler.Live()
}

// ProcessFrame runs one frame. Skips are reported, not returned as errors;
// the only error is a cancelled context.
func (o *Orchestrator) ProcessFrame(ctx context.Context) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	if !o.mu.TryLock() {
		return o.finish(ctx, Report{Skipped: SkipBusy}), nil
	}
	defer o.mu.Unlock()

	start := time.Now()
	r := Report{Frame: o.frames.Add(1)}

	if o.paused.Load() {
		r.Skipped = SkipPaused
		return o.finish(ctx, r), nil
	}

	set := o.points.Load()
	if set == nil {
		r.Skipped = SkipNoPoints
		return o.finish(ctx, r), nil
	}
	if set.Len() == 0 {
		// nothing to project; widgets from an earlier set still retire
		r.Result = o.reconciler.Reconcile(nil)
		r.Duration = time.Since(start)
		return o.finish(ctx, r), nil
	}

	state, err := o.tracker.CurrentFrame()
	if err != nil {
		o.logger.Debug("camera frame unavailable", "frame", r.Frame, "error", err)
		r.Skipped = SkipNoFrame
		return o.finish(ctx, r), nil
	}
	if !state.IsTracking() {
		r.Skipped = SkipNotTracking
		return o.finish(ctx, r), nil
	}

	r.Viewport = o.surface.Viewport()
	if r.Viewport.Width <= 0 || r.Viewport.Height <= 0 {
		r.Skipped = SkipNoViewport
		return o.finish(ctx, r), nil
	}

	candidates := set.Near(state.Camera.Coordinate(), o.mapper.Config().MaxVisibleDistance)
	r.Candidates = len(candidates)

	projected := o.project(state, r.Viewport, candidates, &r)
	visible := projected[:0]
	for _, p := range projected {
		if p.Visible {
			visible = append(visible, p)
		}
	}
	r.Visible = len(visible)

	r.Result = o.reconciler.Reconcile(visible)
	r.Duration = time.Since(start)
	return o.finish(ctx, r), nil
}

// Project computes a ProjectedPoint for every given point against one
// camera state without touching the live set. Points that cannot be
// resolved or fall outside the frustum come back with Visible unset.
func (o *Orchestrator) Project(state core.CameraFrameState, viewport core.Viewport, points []core.PointOfInterest) []core.ProjectedPoint {
	var r Report
	return o.project(state, viewport, points, &r)
}

func (o *Orchestrator) project(state core.CameraFrameState, viewport core.Viewport, points []core.PointOfInterest, r *Report) []core.ProjectedPoint {
	pf := projection.NewFrame(state.View, state.Projection, viewport)
	camera := state.Camera.Coordinate()

	out := make([]core.ProjectedPoint, 0, len(points))
	for _, p := range points {
		d := geo.Distance(camera, p.Coordinate)
		scale, inRange := o.mapper.Style(d)
		pp := core.ProjectedPoint{
			PointID:        p.ID,
			DistanceMeters: d,
			TextScale:      scale,
			Text:           style.Label(p, d),
		}

		pose, err := o.resolver.Resolve(p.Coordinate, state.Camera)
		if err != nil {
			if !errors.Is(err, resolver.ErrPoseUnavailable) {
				o.logger.Warn("failed to resolve point", "point", p.ID, "error", err)
			}
			r.Unresolved++
			out = append(out, pp)
			continue
		}

		screen, inFrustum := pf.Project(pose)
		pp.ScreenX, pp.ScreenY = screen.X, screen.Y
		pp.Visible = inFrustum && inRange
		switch {
		case !inFrustum:
			r.Culled++
		case !inRange:
			r.Distant++
		}
		out = append(out, pp)
	}
	return out
}

// Stop retires every live annotation and pauses the orchestrator until
// Resume. It waits for a running frame to finish.
func (o *Orchestrator) Stop() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused.Store(true)
	n := o.reconciler.RetireAll()
	if n > 0 {
		o.logger.Info("retired all annotations", "count", n)
	}
	return n
}

// Resume re-enables frame processing after Stop.
func (o *Orchestrator) Resume() {
	o.paused.Store(false)
}

// Paused reports whether Stop has been called without a matching Resume.
func (o *Orchestrator) Paused() bool {
	return o.paused.Load()
}

func (o *Orchestrator) finish(ctx context.Context, r Report) Report {
	o.metrics.record(ctx, r)
	for _, fn := range o.observers {
		fn(r)
	}
	if r.Skipped != SkipNone && r.Skipped != SkipBusy {
		o.logger.Debug("frame skipped", "frame", r.Frame, "reason", string(r.Skipped))
	}
	return r
}

func (r Report) String() string {
	if r.Skipped != SkipNone {
		return fmt.Sprintf("frame %d skipped: %s", r.Frame, r.Skipped)
	}
	return fmt.Sprintf("frame %d: %d candidates, %d visible, +%d ~%d -%d, %d live in %s",
		r.Frame, r.Candidates, r.Visible, r.Result.Created, r.Result.Updated, r.Result.Retired, r.Result.Live, r.Duration)
}
