package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/snar-ar/overlay/internal/dispatcher"
	"github.com/snar-ar/overlay/internal/frame"
	"github.com/snar-ar/overlay/internal/geo"
	"github.com/snar-ar/overlay/internal/poi"
	"github.com/snar-ar/overlay/internal/sink/memory"
	"github.com/snar-ar/overlay/internal/style"
	"github.com/snar-ar/overlay/internal/tracking/sim"
	"github.com/snar-ar/overlay/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	d       *dispatcher.Dispatcher
	orch    *frame.Orchestrator
	tracker *sim.Tracker
	sink    *memory.Sink
}

func points(t *testing.T, n int) *poi.Set {
	t.Helper()
	var pts []core.PointOfInterest
	for i := 1; i <= n; i++ {
		pts = append(pts, core.PointOfInterest{
			ID:         core.PointID(i),
			Name:       "Hall",
			Coordinate: geo.Destination(core.GeodeticCoordinate{}, 0, float64(40*i)),
		})
	}
	set, err := poi.NewSet(pts, poi.WithIndex())
	require.NoError(t, err)
	return set
}

func newFixture(t *testing.T, loader Loader) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tracker := sim.New(sim.DefaultConfig())
	sink := memory.New()
	mapper, err := style.NewMapper(style.DefaultConfig())
	require.NoError(t, err)
	orch, err := frame.New(tracker, tracker, tracker, sink, mapper, frame.WithLogger(logger))
	require.NoError(t, err)

	d, err := dispatcher.New(logger)
	require.NoError(t, err)

	svc := NewService(context.Background(), Dependencies{
		Orchestrator: orch,
		Camera:       tracker,
		Loader:       loader,
		Logger:       logger,
	})
	svc.Register(d)
	t.Cleanup(d.Close)

	return &fixture{d: d, orch: orch, tracker: tracker, sink: sink}
}

func (f *fixture) run(t *testing.T, line string) (any, error) {
	t.Helper()
	return f.d.Dispatch(dispatcher.ParseLine(line))
}

func TestRegister_AllCommands(t *testing.T) {
	f := newFixture(t, nil)
	assert.Equal(t, []string{
		CmdFrame, CmdHeading, CmdMove, CmdPause, CmdReload,
		CmdResize, CmdResume, CmdStatus, CmdTracking, CmdWalk,
	}, f.d.Commands())
}

func TestFrame(t *testing.T) {
	f := newFixture(t, nil)
	f.orch.SetPoints(points(t, 2))

	got, err := f.run(t, "frame")
	require.NoError(t, err)
	r, ok := got.(frame.Report)
	require.True(t, ok)
	assert.Equal(t, 2, r.Result.Created)
	assert.Equal(t, 2, f.sink.Len())

	status, err := f.run(t, "status")
	require.NoError(t, err)
	assert.Equal(t, r, status)
}

func TestPauseResume(t *testing.T) {
	f := newFixture(t, nil)
	f.orch.SetPoints(points(t, 3))
	_, err := f.run(t, "frame")
	require.NoError(t, err)

	n, err := f.run(t, "pause")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 0, f.sink.Len())

	got, err := f.run(t, "frame")
	require.NoError(t, err)
	assert.Equal(t, frame.SkipPaused, got.(frame.Report).Skipped)

	_, err = f.run(t, "resume")
	require.NoError(t, err)
	_, err = f.run(t, "frame")
	require.NoError(t, err)
	assert.Equal(t, 3, f.sink.Len())
}

func TestHeadingTurnsAway(t *testing.T) {
	f := newFixture(t, nil)
	f.orch.SetPoints(points(t, 1))
	_, err := f.run(t, "frame")
	require.NoError(t, err)

	_, err = f.run(t, "heading 180")
	require.NoError(t, err)
	assert.Equal(t, 180.0, f.tracker.Heading())

	_, err = f.run(t, "frame")
	require.NoError(t, err)
	assert.Equal(t, 0, f.sink.Len())
}

func TestResize(t *testing.T) {
	f := newFixture(t, nil)

	vp, err := f.run(t, "resize 1080 1920")
	require.NoError(t, err)
	assert.Equal(t, core.Viewport{Width: 1080, Height: 1920}, vp)
	assert.Equal(t, core.Viewport{Width: 1080, Height: 1920}, f.tracker.Viewport())

	for _, line := range []string{"resize", "resize 10", "resize a b", "resize -1 10", "resize 1 2 3"} {
		_, err := f.run(t, line)
		assert.ErrorIs(t, err, ErrBadArgs, line)
	}
}

func TestMoveAndWalk(t *testing.T) {
	f := newFixture(t, nil)

	got, err := f.run(t, "move 10 20 5")
	require.NoError(t, err)
	assert.Equal(t, core.GeodeticCoordinate{Latitude: 10, Longitude: 20, Altitude: 5}, got)

	_, err = f.run(t, "move 95 0")
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)

	_, err = f.run(t, "walk ten")
	assert.ErrorIs(t, err, ErrBadArgs)

	_, err = f.run(t, "walk 100")
	require.NoError(t, err)
	state, err := f.tracker.CurrentFrame()
	require.NoError(t, err)
	assert.Greater(t, state.Camera.Latitude, 10.0)
}

func TestTracking(t *testing.T) {
	f := newFixture(t, nil)
	f.orch.SetPoints(points(t, 1))

	_, err := f.run(t, "tracking not_tracking")
	require.NoError(t, err)
	got, err := f.run(t, "frame")
	require.NoError(t, err)
	assert.Equal(t, frame.SkipNotTracking, got.(frame.Report).Skipped)

	_, err = f.run(t, "tracking tracking paused")
	require.NoError(t, err)
	got, err = f.run(t, "frame")
	require.NoError(t, err)
	assert.Equal(t, frame.SkipNotTracking, got.(frame.Report).Skipped)

	_, err = f.run(t, "tracking tracking")
	require.NoError(t, err)
	got, err = f.run(t, "frame")
	require.NoError(t, err)
	assert.Equal(t, frame.SkipNone, got.(frame.Report).Skipped)

	_, err = f.run(t, "tracking lost")
	assert.ErrorIs(t, err, ErrBadArgs)
}

func TestReload(t *testing.T) {
	set := points(t, 4)
	f := newFixture(t, func(ctx context.Context) (*poi.Set, error) {
		return set, nil
	})

	got, err := f.run(t, "reload")
	require.NoError(t, err)
	assert.Equal(t, "queued", got)

	f.d.Close()
	assert.Same(t, set, f.orch.Points())
}

func TestReload_FailureKeepsPoints(t *testing.T) {
	f := newFixture(t, func(ctx context.Context) (*poi.Set, error) {
		return nil, errors.New("disk gone")
	})
	current := points(t, 1)
	f.orch.SetPoints(current)

	_, err := f.run(t, "reload")
	require.NoError(t, err)

	f.d.Close()
	assert.Same(t, current, f.orch.Points())
}

func TestReload_NoLoader(t *testing.T) {
	svc := NewService(context.Background(), Dependencies{})
	_, err := svc.Reload(dispatcher.Event{Command: CmdReload})
	assert.Error(t, err)
}
