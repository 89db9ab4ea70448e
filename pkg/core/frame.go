// pkg/core/frame.go
package core

import "strings"

// Mat4 is a 4x4 matrix stored column-major: element (row r, col c) lives at
// index c*4+r. This is the OpenGL / android.opengl.Matrix layout.
type Mat4 [16]float64

// At returns the element at row r, column c.
func (m Mat4) At(r, c int) float64 {
	return m[c*4+r]
}

// IdentityMat4 is the 4x4 identity matrix.
var IdentityMat4 = Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// TrackingState is the tracking quality reported by the tracking provider.
type TrackingState int

const (
	NotTracking TrackingState = iota
	Tracking
	Paused
	Stopped
)

func (s TrackingState) String() string {
	switch s {
	case Tracking:
		return "tracking"
	case NotTracking:
		return "not-tracking"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ParseTrackingState is the inverse of String. Underscores are accepted in
// place of hyphens.
func ParseTrackingState(s string) (TrackingState, bool) {
	switch strings.ReplaceAll(strings.ToLower(s), "_", "-") {
	case "tracking":
		return Tracking, true
	case "not-tracking":
		return NotTracking, true
	case "paused":
		return Paused, true
	case "stopped":
		return Stopped, true
	}
	return NotTracking, false
}

// CameraFrameState is the per-frame snapshot produced by the tracking provider.
// The engine only reads it.
type CameraFrameState struct {
	View           Mat4
	Projection     Mat4
	Camera         GeospatialPose
	CameraTracking TrackingState
	EarthTracking  TrackingState
}

// IsTracking reports whether both the camera and the geospatial subsystem are tracking.
func (f CameraFrameState) IsTracking() bool {
	return f.CameraTracking == Tracking && f.EarthTracking == Tracking
}

// Viewport is the overlay surface size in pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
