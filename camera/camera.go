// Package camera describes the viewpoint shared by the screen-space effects.
package camera

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/screenfx/depth"
)

// Camera is a view and a zero-to-one depth projection.
type Camera struct {
	View     mgl32.Mat4
	Proj     mgl32.Mat4
	Position mgl32.Vec3
}

// LookAt builds a right-handed camera at eye looking at center.
func LookAt(eye, center mgl32.Vec3, fovy, aspect, near, far float32) Camera {
	return Camera{
		View:     mgl32.LookAtV(eye, center, mgl32.Vec3{0, 1, 0}),
		Proj:     depth.PerspectiveZO(fovy, aspect, near, far),
		Position: eye,
	}
}

// ViewProj returns Proj * View.
func (c Camera) ViewProj() mgl32.Mat4 { return c.Proj.Mul4(c.View) }

// InvViewProj maps clip space back to world space.
func (c Camera) InvViewProj() mgl32.Mat4 { return c.ViewProj().Inv() }

// Depth returns the linearization parameters of the projection.
func (c Camera) Depth() depth.Params { return depth.FromProjection(c.Proj) }

// Right is the world-space right axis of the view.
func (c Camera) Right() mgl32.Vec3 {
	return mgl32.Vec3{c.View.At(0, 0), c.View.At(0, 1), c.View.At(0, 2)}
}

// Up is the world-space up axis of the view.
func (c Camera) Up() mgl32.Vec3 {
	return mgl32.Vec3{c.View.At(1, 0), c.View.At(1, 1), c.View.At(1, 2)}
}

// Forward is the world-space viewing direction.
func (c Camera) Forward() mgl32.Vec3 {
	return mgl32.Vec3{-c.View.At(2, 0), -c.View.At(2, 1), -c.View.At(2, 2)}
}

// Valid reports whether the projection can be linearized and inverted.
func (c Camera) Valid() bool {
	return c.Proj.At(2, 3) != 0 && c.ViewProj().Det() != 0
}
