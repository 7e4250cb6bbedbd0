package depth

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func relErr(got, want float32) float64 {
	return math.Abs(float64(got-want)) / math.Abs(float64(want))
}

func TestLinearizeReproducesClipPlanes(t *testing.T) {
	tests := []struct {
		name      string
		near, far float32
		build     func(fovy, aspect, near, far float32) mgl32.Mat4
	}{
		{"rh small", 0.1, 100, PerspectiveZO},
		{"rh game", 0.5, 2000, PerspectiveZO},
		{"rh farscene", 50, 80000, PerspectiveZO},
		{"lh small", 0.1, 100, PerspectiveLHZO},
		{"lh game", 1, 5000, PerspectiveLHZO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromProjection(tt.build(mgl32.DegToRad(60), 16.0/9.0, tt.near, tt.far))
			if p.Mul*p.Add < 0 {
				t.Fatalf("mul and add disagree in sign: %+v", p)
			}
			if got := p.Linearize(0); relErr(got, tt.near) > 1e-3 {
				t.Errorf("Linearize(0) = %v, want %v", got, tt.near)
			}
			if got := p.Linearize(1); relErr(got, tt.far) > 1e-3 {
				t.Errorf("Linearize(1) = %v, want %v", got, tt.far)
			}
		})
	}
}

func TestLinearizeMatchesProjectedPoint(t *testing.T) {
	proj := PerspectiveZO(mgl32.DegToRad(70), 1.5, 0.25, 1000)
	p := FromProjection(proj)
	for _, dist := range []float32{0.5, 3, 42, 250, 900} {
		clip := proj.Mul4x1(mgl32.Vec4{0, 0, -dist, 1})
		d := clip.Z() / clip.W()
		if got := p.Linearize(d); relErr(got, dist) > 1e-3 {
			t.Errorf("distance %v: Linearize(%v) = %v", dist, d, got)
		}
	}
}

func TestSignNormalization(t *testing.T) {
	var m mgl32.Mat4
	m.Set(2, 2, -1.001)
	m.Set(2, 3, -0.1001)
	p := FromProjection(m)
	if p.Mul <= 0 || p.Add <= 0 {
		t.Errorf("expected both positive after normalization, got %+v", p)
	}
}

func TestRawInvertsLinearize(t *testing.T) {
	p := FromProjection(PerspectiveZO(mgl32.DegToRad(60), 1, 1, 500))
	for _, z := range []float32{1, 10, 100, 499} {
		if got := p.Linearize(p.Raw(z)); relErr(got, z) > 1e-3 {
			t.Errorf("round trip %v -> %v", z, got)
		}
	}
}

func TestPairClosest(t *testing.T) {
	pair := NewPair(
		PerspectiveZO(mgl32.DegToRad(60), 1, 0.1, 100),
		PerspectiveZO(mgl32.DegToRad(60), 1, 50, 50000),
	)
	nearRaw := pair.Near.Raw(20)
	farRaw := pair.Far.Raw(800)

	if got := pair.Closest(nearRaw, farRaw); relErr(got, 20) > 1e-3 {
		t.Errorf("Closest = %v, want 20", got)
	}
	if got := pair.Closest(1, farRaw); relErr(got, 800) > 1e-3 {
		t.Errorf("Closest with empty near = %v, want 800", got)
	}
	if got := pair.Closest(1, 1); !math.IsInf(float64(got), 1) {
		t.Errorf("Closest of two empty samples = %v, want +Inf", got)
	}

	v := pair.Vec4()
	if v[0] != pair.Near.Mul || v[3] != pair.Far.Add {
		t.Errorf("Vec4 packing wrong: %v", v)
	}
}
