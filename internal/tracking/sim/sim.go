// Package sim is a host-side stand-in for an AR tracking provider. It
// anchors an East-Up-South local frame at a geodetic origin and places a
// pinhole camera in it at a geodetic position and compass heading.
//
// Local axes: X east, Y up, Z south. At heading 0 the camera looks down -Z,
// which is north.
package sim

import (
	"math"
	"sync"

	"github.com/snar-ar/overlay/internal/geo"
	"github.com/snar-ar/overlay/internal/projection"
	"github.com/snar-ar/overlay/internal/resolver"
	"github.com/snar-ar/overlay/pkg/core"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Config is the starting state of the simulated session.
type Config struct {
	Origin      core.GeodeticCoordinate `json:"origin" mapstructure:"origin"`
	Camera      core.GeodeticCoordinate `json:"camera" mapstructure:"camera"`
	Heading     float64                 `json:"heading" mapstructure:"heading"` // degrees clockwise from north
	FieldOfView float64                 `json:"fieldOfView" mapstructure:"fieldOfView"`
	Near        float64                 `json:"near" mapstructure:"near"`
	Far         float64                 `json:"far" mapstructure:"far"`
	Viewport    core.Viewport           `json:"viewport" mapstructure:"viewport"`
}

// DefaultConfig places the origin and camera at 0,0 facing north with a
// 60° vertical field of view and a 1000x1000 viewport.
func DefaultConfig() Config {
	return Config{
		FieldOfView: 60,
		Near:        0.1,
		Far:         100,
		Viewport:    core.Viewport{Width: 1000, Height: 1000},
	}
}

// Tracker implements frame.Tracker, frame.Surface and resolver.Tracker.
type Tracker struct {
	mu             sync.RWMutex
	origin         core.GeodeticCoordinate
	camera         core.GeodeticCoordinate
	heading        float64
	fov, near, far float64
	viewport       core.Viewport
	cameraTracking core.TrackingState
	earthTracking  core.TrackingState
}

// New starts a tracking session from cfg. Both tracking states start as Tracking.
func New(cfg Config) *Tracker {
	return &Tracker{
		origin:         cfg.Origin,
		camera:         cfg.Camera,
		heading:        cfg.Heading,
		fov:            cfg.FieldOfView,
		near:           cfg.Near,
		far:            cfg.Far,
		viewport:       cfg.Viewport,
		cameraTracking: core.Tracking,
		earthTracking:  core.Tracking,
	}
}

// CurrentFrame snapshots the camera.
func (t *Tracker) CurrentFrame() (core.CameraFrameState, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	aspect := 1.0
	if t.viewport.Height > 0 {
		aspect = t.viewport.Width / t.viewport.Height
	}
	return core.CameraFrameState{
		View:       viewMatrix(t.local(t.camera), t.heading),
		Projection: projection.Perspective(t.fov, aspect, t.near, t.far),
		Camera: core.GeospatialPose{
			Latitude:    t.camera.Latitude,
			Longitude:   t.camera.Longitude,
			Altitude:    t.camera.Altitude,
			EastUpSouth: headingQuaternion(t.heading),
		},
		CameraTracking: t.cameraTracking,
		EarthTracking:  t.earthTracking,
	}, nil
}

// LocalPoseFor places coord in the local frame with the camera's
// East-Up-South rotation. It fails while earth tracking is lost.
func (t *Tracker) LocalPoseFor(coord core.GeodeticCoordinate, camera core.GeospatialPose) (core.LocalPose, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.earthTracking != core.Tracking {
		return core.LocalPose{}, resolver.ErrPoseUnavailable
	}
	p := t.local(coord)
	return core.LocalPose{
		Translation: [3]float64{p.X, p.Y, p.Z},
		Rotation:    camera.EastUpSouth,
	}, nil
}

// Viewport returns the simulated surface size.
func (t *Tracker) Viewport() core.Viewport {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.viewport
}

// Resize changes the surface size; the projection aspect follows it.
func (t *Tracker) Resize(vp core.Viewport) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.viewport = vp
}

// SetHeading turns the camera. Degrees clockwise from north.
func (t *Tracker) SetHeading(deg float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.heading = math.Mod(math.Mod(deg, 360)+360, 360)
}

// Heading returns the camera heading in degrees.
func (t *Tracker) Heading() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.heading
}

// MoveTo relocates the camera. The local origin stays put.
func (t *Tracker) MoveTo(c core.GeodeticCoordinate) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.camera = c
}

// Walk moves the camera distance metres along its current heading.
func (t *Tracker) Walk(distance float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.camera = geo.Destination(t.camera, t.heading, distance)
}

// SetTracking overrides the reported tracking states.
func (t *Tracker) SetTracking(camera, earth core.TrackingState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cameraTracking = camera
	t.earthTracking = earth
}

// local converts a geodetic coordinate to East-Up-South metres from the origin.
func (t *Tracker) local(c core.GeodeticCoordinate) r3.Vec {
	east, north, up := geo.EastNorthUp(t.origin, c)
	return r3.Vec{X: east, Y: up, Z: -north}
}

func rotation(heading float64) r3.Rotation {
	// clockwise from above is a negative turn about +Y
	return r3.NewRotation(-heading*math.Pi/180, r3.Vec{Y: 1})
}

func headingQuaternion(heading float64) core.Quaternion {
	half := -heading * math.Pi / 360
	return core.Quaternion{Y: math.Sin(half), W: math.Cos(half)}
}

// viewMatrix is the inverse of the camera's rigid transform: rows are the
// rotated basis vectors, translation is -R^T * position.
func viewMatrix(pos r3.Vec, heading float64) core.Mat4 {
	rot := rotation(heading)
	rows := [3]r3.Vec{
		rot.Rotate(r3.Vec{X: 1}),
		rot.Rotate(r3.Vec{Y: 1}),
		rot.Rotate(r3.Vec{Z: 1}),
	}

	m := mat.NewDense(4, 4, nil)
	for r, row := range rows {
		m.SetRow(r, []float64{row.X, row.Y, row.Z, -r3.Dot(row, pos)})
	}
	m.Set(3, 3, 1)
	return projection.FromDense(m)
}
