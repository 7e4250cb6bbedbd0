package debugviz

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func near(a, b mgl32.Vec4) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > 1e-5 {
			return false
		}
	}
	return true
}

func TestValueColorPalette(t *testing.T) {
	tests := []struct {
		ref  int
		want mgl32.Vec4
	}{
		{1, mgl32.Vec4{1, 0.2, 0.2, 0.7}},
		{3, mgl32.Vec4{0.2, 0.4, 1, 0.7}},
		{8, mgl32.Vec4{0.6, 0.2, 1, 0.7}},
	}
	for _, tt := range tests {
		if got := ValueColor(tt.ref, 1); !near(got, tt.want) {
			t.Errorf("ValueColor(%d) = %v, want %v", tt.ref, got, tt.want)
		}
	}
}

func TestValueColorBeyondPalette(t *testing.T) {
	for _, ref := range []int{9, 13, 32} {
		hue := float64(ref%8) / 8
		want := mgl32.Vec4{
			float32(0.5 + 0.5*math.Sin(hue*6.28318)),
			float32(0.5 + 0.5*math.Sin((hue+0.333)*6.28318)),
			float32(0.5 + 0.5*math.Sin((hue+0.666)*6.28318)),
			0.7 * 0.6,
		}
		if got := ValueColor(ref, 0.6); !near(got, want) {
			t.Errorf("ValueColor(%d) = %v, want %v", ref, got, want)
		}
	}
}

func TestOverlayAlphaScaling(t *testing.T) {
	if got := BitColor(6, 0.6); !near(got, mgl32.Vec4{1, 0.5, 0, 0.3}) {
		t.Errorf("BitColor(6) = %v", got)
	}
	if got := NonzeroColor(false, 0.6); !near(got, mgl32.Vec4{1, 0.3, 0.3, 0.36}) {
		t.Errorf("NonzeroColor = %v", got)
	}
	if got := NonzeroColor(true, 0.6); !near(got, mgl32.Vec4{0, 1, 1, 0.3}) {
		t.Errorf("NonzeroColor(always) = %v", got)
	}
	if got := ValueColor(0, 1); got != (mgl32.Vec4{}) {
		t.Errorf("ValueColor(0) = %v, want transparent", got)
	}
	if got := BitColor(8, 1); got != (mgl32.Vec4{}) {
		t.Errorf("BitColor(8) = %v, want transparent", got)
	}
}
