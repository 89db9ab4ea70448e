package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMat4_ColumnMajor(t *testing.T) {
	var m Mat4
	m[12] = 7 // column 3, row 0
	assert.Equal(t, 7.0, m.At(0, 3))
	assert.Equal(t, 1.0, IdentityMat4.At(2, 2))
	assert.Equal(t, 0.0, IdentityMat4.At(2, 3))
}

func TestTrackingState_RoundTrip(t *testing.T) {
	for _, s := range []TrackingState{NotTracking, Tracking, Paused, Stopped} {
		got, ok := ParseTrackingState(s.String())
		assert.True(t, ok, s.String())
		assert.Equal(t, s, got)
	}

	got, ok := ParseTrackingState("NOT_TRACKING")
	assert.True(t, ok)
	assert.Equal(t, NotTracking, got)

	_, ok = ParseTrackingState("lost")
	assert.False(t, ok)
}

func TestCameraFrameState_IsTracking(t *testing.T) {
	assert.True(t, CameraFrameState{CameraTracking: Tracking, EarthTracking: Tracking}.IsTracking())
	assert.False(t, CameraFrameState{CameraTracking: Tracking, EarthTracking: Paused}.IsTracking())
	assert.False(t, CameraFrameState{CameraTracking: NotTracking, EarthTracking: Tracking}.IsTracking())
	assert.False(t, CameraFrameState{}.IsTracking())
}
