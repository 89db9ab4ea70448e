package projection

import (
	"math"

	"github.com/snar-ar/overlay/pkg/core"
	"gonum.org/v1/gonum/mat"
)

// Dense converts a column-major Mat4 into a gonum matrix.
func Dense(m core.Mat4) *mat.Dense {
	d := mat.NewDense(4, 4, nil)
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			d.Set(r, c, m[c*4+r])
		}
	}
	return d
}

// FromDense converts a 4x4 gonum matrix back into column-major order.
func FromDense(d mat.Matrix) core.Mat4 {
	var m core.Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			m[c*4+r] = d.At(r, c)
		}
	}
	return m
}

// Perspective builds a right-handed perspective projection looking down -Z,
// equivalent to android.opengl.Matrix.perspectiveM. fovY is in degrees.
func Perspective(fovY, aspect, near, far float64) core.Mat4 {
	f := 1 / math.Tan(fovY*math.Pi/360)
	rangeReciprocal := 1 / (near - far)

	var m core.Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = (far + near) * rangeReciprocal
	m[11] = -1
	m[14] = 2 * far * near * rangeReciprocal
	return m
}
