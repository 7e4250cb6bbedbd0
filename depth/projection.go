package depth

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// PerspectiveZO builds a right-handed perspective projection with a
// zero-to-one depth range (near plane maps to 0, far plane to 1).
// fovy is in radians.
func PerspectiveZO(fovy, aspect, near, far float32) mgl32.Mat4 {
	f := float32(1 / math.Tan(float64(fovy)/2))
	var m mgl32.Mat4
	m.Set(0, 0, f/aspect)
	m.Set(1, 1, f)
	m.Set(2, 2, far/(near-far))
	m.Set(3, 2, -1)
	m.Set(2, 3, near*far/(near-far))
	return m
}

// PerspectiveLHZO builds a left-handed perspective projection with a
// zero-to-one depth range.
func PerspectiveLHZO(fovy, aspect, near, far float32) mgl32.Mat4 {
	f := float32(1 / math.Tan(float64(fovy)/2))
	var m mgl32.Mat4
	m.Set(0, 0, f/aspect)
	m.Set(1, 1, f)
	m.Set(2, 2, far/(far-near))
	m.Set(3, 2, 1)
	m.Set(2, 3, -near*far/(far-near))
	return m
}
