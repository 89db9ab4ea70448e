// Package projection maps local-frame positions to viewport pixels.
//
// Matrices are column-major (element (r, c) at index c*4+r), the layout
// AR tracking providers hand out. They are converted to gonum dense
// matrices for the arithmetic so the row/column convention is handled in
// exactly one place.
package projection

import (
	"math"

	"github.com/snar-ar/overlay/pkg/core"
	"gonum.org/v1/gonum/mat"
)

// Screen is a pixel position. The origin is the top-left corner of the viewport.
type Screen struct {
	X float64
	Y float64
}

// Frame holds the view-projection product for one camera frame so it is
// computed once and reused for every point.
type Frame struct {
	viewProjection *mat.Dense
	viewport       core.Viewport
}

// NewFrame computes projection × view for the frame.
func NewFrame(view, projection core.Mat4, viewport core.Viewport) *Frame {
	var vp mat.Dense
	vp.Mul(Dense(projection), Dense(view))
	return &Frame{viewProjection: &vp, viewport: viewport}
}

// Clip returns the clip-space position (x, y, z, w) of a local pose.
func (f *Frame) Clip(pose core.LocalPose) [4]float64 {
	world := mat.NewVecDense(4, []float64{pose.Tx(), pose.Ty(), pose.Tz(), 1})
	var clip mat.VecDense
	clip.MulVec(f.viewProjection, world)
	return [4]float64{clip.AtVec(0), clip.AtVec(1), clip.AtVec(2), clip.AtVec(3)}
}

// Project maps a local pose to screen pixels. The second return value is
// false when the point is culled: behind the camera, degenerate (w <= 0) or
// outside the [-1, 1] NDC square. There is no near/far depth test.
func (f *Frame) Project(pose core.LocalPose) (Screen, bool) {
	clip := f.Clip(pose)
	w := clip[3]
	if !(w > 0) {
		return Screen{}, false
	}
	ndcX := clip[0] / w
	ndcY := clip[1] / w
	if !inUnitRange(ndcX) || !inUnitRange(ndcY) {
		return Screen{}, false
	}
	return ToScreen(ndcX, ndcY, f.viewport), true
}

// Project is the single-shot form of Frame.Project.
func Project(pose core.LocalPose, view, projection core.Mat4, viewport core.Viewport) (Screen, bool) {
	return NewFrame(view, projection, viewport).Project(pose)
}

// ToScreen converts normalized device coordinates to pixels, flipping Y so
// that NDC up is screen up.
func ToScreen(ndcX, ndcY float64, viewport core.Viewport) Screen {
	return Screen{
		X: (ndcX + 1) / 2 * viewport.Width,
		Y: (1 - ndcY) / 2 * viewport.Height,
	}
}

func inUnitRange(v float64) bool {
	return v >= -1 && v <= 1 && !math.IsNaN(v)
}
