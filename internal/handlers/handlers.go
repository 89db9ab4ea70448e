// Package handlers implements the host commands that drive a running
// overlay: frame ticks, surface and camera changes, pause and resume, and
// point set reloads.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/snar-ar/overlay/internal/dispatcher"
	"github.com/snar-ar/overlay/internal/frame"
	"github.com/snar-ar/overlay/internal/geo"
	"github.com/snar-ar/overlay/internal/poi"
	"github.com/snar-ar/overlay/pkg/core"
)

// Command names understood by Register.
const (
	CmdFrame    = "frame"
	CmdResize   = "resize"
	CmdPause    = "pause"
	CmdResume   = "resume"
	CmdHeading  = "heading"
	CmdMove     = "move"
	CmdWalk     = "walk"
	CmdTracking = "tracking"
	CmdReload   = "reload"
	CmdStatus   = "status"
)

// ErrBadArgs is returned when a command's arguments cannot be parsed.
var ErrBadArgs = errors.New("bad arguments")

// Camera is the part of a tracking provider the host can steer.
type Camera interface {
	Resize(core.Viewport)
	SetHeading(deg float64)
	MoveTo(core.GeodeticCoordinate)
	Walk(distance float64)
	SetTracking(camera, earth core.TrackingState)
}

// Loader loads a fresh point set.
type Loader func(ctx context.Context) (*poi.Set, error)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Orchestrator *frame.Orchestrator
	Camera       Camera
	Loader       Loader
	Logger       *slog.Logger
}

// Service provides the command handlers.
type Service struct {
	deps Dependencies
	ctx  context.Context

	mu   sync.Mutex
	last frame.Report
}

// NewService creates a handler service. ctx bounds frames and reloads.
func NewService(ctx context.Context, deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps, ctx: ctx}
}

// Register wires every command into d. Reloads run on their own queue so a
// slow source never stalls frames.
func (s *Service) Register(d *dispatcher.Dispatcher) {
	d.Register(CmdFrame, s.Frame)
	d.Register(CmdResize, s.Resize, dispatcher.Logged())
	d.Register(CmdPause, s.Pause, dispatcher.Logged())
	d.Register(CmdResume, s.Resume, dispatcher.Logged())
	d.Register(CmdHeading, s.Heading, dispatcher.Logged())
	d.Register(CmdMove, s.Move, dispatcher.Logged())
	d.Register(CmdWalk, s.Walk, dispatcher.Logged())
	d.Register(CmdTracking, s.Tracking, dispatcher.Logged())
	d.Register(CmdReload, s.Reload, dispatcher.Buffered(1), dispatcher.Logged())
	d.Register(CmdStatus, s.Status)
}

// Frame runs one frame and returns its report.
func (s *Service) Frame(e dispatcher.Event) (any, error) {
	r, err := s.deps.Orchestrator.ProcessFrame(s.ctx)
	if err != nil {
		return nil, err
	}
	if r.Skipped != frame.SkipBusy {
		s.mu.Lock()
		s.last = r
		s.mu.Unlock()
	}
	return r, nil
}

// Status returns the last completed frame report.
func (s *Service) Status(e dispatcher.Event) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, nil
}

// Resize takes "width height" in pixels.
func (s *Service) Resize(e dispatcher.Event) (any, error) {
	v, err := floats(e, 2, 2)
	if err != nil {
		return nil, err
	}
	if v[0] < 0 || v[1] < 0 {
		return nil, fmt.Errorf("%s: %w: negative size", e.Command, ErrBadArgs)
	}
	vp := core.Viewport{Width: v[0], Height: v[1]}
	s.deps.Camera.Resize(vp)
	return vp, nil
}

// Pause retires every annotation and stops frame processing.
func (s *Service) Pause(e dispatcher.Event) (any, error) {
	n := s.deps.Orchestrator.Stop()
	s.deps.Logger.Info("overlay paused", "retired", n)
	return n, nil
}

// Resume re-enables frame processing.
func (s *Service) Resume(e dispatcher.Event) (any, error) {
	s.deps.Orchestrator.Resume()
	return "resumed", nil
}

// Heading takes the compass heading in degrees.
func (s *Service) Heading(e dispatcher.Event) (any, error) {
	v, err := floats(e, 1, 1)
	if err != nil {
		return nil, err
	}
	s.deps.Camera.SetHeading(v[0])
	return v[0], nil
}

// Move takes "lat lon [alt]".
func (s *Service) Move(e dispatcher.Event) (any, error) {
	v, err := floats(e, 2, 3)
	if err != nil {
		return nil, err
	}
	c := core.GeodeticCoordinate{Latitude: v[0], Longitude: v[1]}
	if len(v) == 3 {
		c.Altitude = v[2]
	}
	if err := geo.Validate(c); err != nil {
		return nil, fmt.Errorf("%s: %w", e.Command, err)
	}
	s.deps.Camera.MoveTo(c)
	return c, nil
}

// Walk moves the camera along its heading by the given metres.
func (s *Service) Walk(e dispatcher.Event) (any, error) {
	v, err := floats(e, 1, 1)
	if err != nil {
		return nil, err
	}
	s.deps.Camera.Walk(v[0])
	return v[0], nil
}

// Tracking takes "camera [earth]" tracking states. A single state applies
// to both.
func (s *Service) Tracking(e dispatcher.Event) (any, error) {
	if len(e.Args) < 1 || len(e.Args) > 2 {
		return nil, fmt.Errorf("%s: %w: want 1 or 2 states", e.Command, ErrBadArgs)
	}
	camera, ok := core.ParseTrackingState(e.Args[0])
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", e.Command, ErrBadArgs, e.Args[0])
	}
	earth := camera
	if len(e.Args) == 2 {
		if earth, ok = core.ParseTrackingState(e.Args[1]); !ok {
			return nil, fmt.Errorf("%s: %w: %q", e.Command, ErrBadArgs, e.Args[1])
		}
	}
	s.deps.Camera.SetTracking(camera, earth)
	return []core.TrackingState{camera, earth}, nil
}

// Reload loads the point set again and publishes it. On failure the
// current set stays in place.
func (s *Service) Reload(e dispatcher.Event) (any, error) {
	if s.deps.Loader == nil {
		return nil, fmt.Errorf("%s: no point source configured", e.Command)
	}
	set, err := s.deps.Loader(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("reloading points: %w", err)
	}
	s.deps.Orchestrator.SetPoints(set)
	s.deps.Logger.Info("points reloaded", "count", set.Len(), "indexed", set.Indexed())
	return set.Len(), nil
}

func floats(e dispatcher.Event, minArgs, maxArgs int) ([]float64, error) {
	if len(e.Args) < minArgs || len(e.Args) > maxArgs {
		return nil, fmt.Errorf("%s: %w: want %d to %d numbers, got %d", e.Command, ErrBadArgs, minArgs, maxArgs, len(e.Args))
	}
	out := make([]float64, len(e.Args))
	for i, a := range e.Args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %q", e.Command, ErrBadArgs, a)
		}
		out[i] = v
	}
	return out, nil
}
