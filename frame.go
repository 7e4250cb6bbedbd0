package screenfx

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/screenfx/camera"
	"github.com/gogpu/screenfx/clouds"
)

// Frame holds the host resources and camera for one Render call. Views
// that are nil skip the effects that read them.
type Frame struct {
	// Output is the color target every effect draws onto.
	Output hal.TextureView
	// Depth is the single-sampled scene depth, sampled by clouds, fog and
	// the depth views.
	Depth hal.TextureView
	// FarDepth is the far-scene depth when the host renders two depth
	// ranges.
	FarDepth hal.TextureView
	// DepthStencil is the host depth-stencil attachment for the stencil
	// views; StencilSamples is its sample count.
	DepthStencil   hal.TextureView
	StencilSamples uint32
	// StencilSampled is a stencil-aspect view of a multisampled
	// DepthStencil. Combined debug view over MSAA requires it; without it
	// only the depth layer is drawn.
	StencilSampled hal.TextureView

	Camera  camera.Camera
	FarProj mgl32.Mat4
	// FirstPerson is set when the viewer's own model shares Depth with a
	// separate projection.
	FirstPerson *clouds.FirstPerson

	SunDirection mgl32.Vec3
	SunColor     mgl32.Vec3
	// Time in seconds drives noise animation.
	Time float32

	Width  uint32
	Height uint32
}

// farProj returns FarProj, or the camera projection when it is unset.
func (f *Frame) farProj() mgl32.Mat4 {
	if f.FarProj == (mgl32.Mat4{}) {
		return f.Camera.Proj
	}
	return f.FarProj
}
