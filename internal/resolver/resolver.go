// Package resolver turns geodetic coordinates into poses in the tracking
// subsystem's local frame.
package resolver

import (
	"errors"
	"fmt"
	"math"

	"github.com/snar-ar/overlay/internal/geo"
	"github.com/snar-ar/overlay/pkg/core"
)

// ErrPoseUnavailable is returned when the tracker cannot place a coordinate
// this frame, typically during re-localization.
var ErrPoseUnavailable = errors.New("local pose unavailable")

// Tracker is the geospatial half of the tracking provider. LocalPoseFor
// returns the local pose of coord with its rotation set to the camera's
// East-Up-South orientation.
type Tracker interface {
	LocalPoseFor(coord core.GeodeticCoordinate, camera core.GeospatialPose) (core.LocalPose, error)
}

// TrackerFunc adapts a function to the Tracker interface.
type TrackerFunc func(coord core.GeodeticCoordinate, camera core.GeospatialPose) (core.LocalPose, error)

// LocalPoseFor calls f.
func (f TrackerFunc) LocalPoseFor(coord core.GeodeticCoordinate, camera core.GeospatialPose) (core.LocalPose, error) {
	return f(coord, camera)
}

// Resolver delegates to the tracker on every call. Poses are never cached
// because the camera moves every frame.
type Resolver struct {
	tracker Tracker
}

// New returns a Resolver backed by t.
func New(t Tracker) *Resolver {
	return &Resolver{tracker: t}
}

// Resolve returns the local pose of coord, oriented like the camera's
// East-Up-South rotation. Any failure means the point cannot be placed this
// frame; errors from the tracker are wrapped.
func (r *Resolver) Resolve(coord core.GeodeticCoordinate, camera core.GeospatialPose) (core.LocalPose, error) {
	if err := geo.Validate(coord); err != nil {
		return core.LocalPose{}, fmt.Errorf("resolve %v,%v: %w", coord.Latitude, coord.Longitude, err)
	}

	pose, err := r.tracker.LocalPoseFor(coord, camera)
	if err != nil {
		return core.LocalPose{}, fmt.Errorf("resolve %v,%v: %w", coord.Latitude, coord.Longitude, err)
	}
	for _, v := range pose.Translation {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.LocalPose{}, fmt.Errorf("resolve %v,%v: non-finite translation: %w", coord.Latitude, coord.Longitude, ErrPoseUnavailable)
		}
	}
	return pose, nil
}
