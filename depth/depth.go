// Package depth converts non-linear depth-buffer samples into view-space
// distance.
//
// Every effect that reads a depth buffer derives a [Params] pair from the
// projection that produced it and evaluates
//
//	linear = Mul / (Add - d)
//
// per sample. The pair is normalized so that Mul and Add share a sign, which
// makes the formula independent of matrix handedness.
package depth

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Params is the (mul, add) pair for one depth source.
type Params struct {
	Mul float32
	Add float32
}

// FromProjection extracts linearization parameters from a zero-to-one depth
// projection matrix. Mul is the negated z-translation term and Add the z-scale
// term; Add is negated when the two disagree in sign.
func FromProjection(proj mgl32.Mat4) Params {
	p := Params{
		Mul: -proj.At(2, 3),
		Add: proj.At(2, 2),
	}
	if p.Mul*p.Add < 0 {
		p.Add = -p.Add
	}
	return p
}

// Linearize returns the view distance for raw depth d.
func (p Params) Linearize(d float32) float32 {
	return p.Mul / (p.Add - d)
}

// Raw is the inverse of Linearize: the depth-buffer value at view distance z.
func (p Params) Raw(z float32) float32 {
	if z == 0 {
		return float32(math.Inf(1))
	}
	return p.Add - p.Mul/z
}

// Vec2 packs the pair for upload as a shader constant.
func (p Params) Vec2() mgl32.Vec2 { return mgl32.Vec2{p.Mul, p.Add} }

// Pair holds parameters for the near-scene and far-scene depth sources.
// The two buffers may come from projections with different clip planes, so
// each is derived independently.
type Pair struct {
	Near Params
	Far  Params
}

// NewPair derives parameters for both depth sources.
func NewPair(nearProj, farProj mgl32.Mat4) Pair {
	return Pair{Near: FromProjection(nearProj), Far: FromProjection(farProj)}
}

// Vec4 packs near and far parameters as (near.mul, near.add, far.mul, far.add).
func (p Pair) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{p.Near.Mul, p.Near.Add, p.Far.Mul, p.Far.Add}
}

// Closest linearizes one sample from each source and returns the nearer
// distance. A sample at or beyond the clear value (1.0) is treated as empty.
func (p Pair) Closest(nearRaw, farRaw float32) float32 {
	n := float32(math.Inf(1))
	if nearRaw < 1 {
		n = p.Near.Linearize(nearRaw)
	}
	if farRaw < 1 {
		if f := p.Far.Linearize(farRaw); f < n {
			return f
		}
	}
	return n
}
