package clouds

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestGenerateCloudFieldDeterministic(t *testing.T) {
	a := GenerateCloudField(50, 450, 4000, 42)
	b := GenerateCloudField(50, 450, 4000, 42)
	if len(a) != 50 {
		t.Fatalf("len = %d, want 50", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("volume %d differs between runs", i)
		}
	}
	c := GenerateCloudField(50, 450, 4000, 7)
	same := 0
	for i := range a {
		if a[i] == c[i] {
			same++
		}
	}
	if same == len(a) {
		t.Error("different seeds produced the same field")
	}
}

func TestGenerateCloudFieldRanges(t *testing.T) {
	for i, v := range GenerateCloudField(200, 450, 4000, 42) {
		if v.Position[1] < 450 || v.Position[1] > 600 {
			t.Errorf("volume %d altitude %v", i, v.Position[1])
		}
		if v.ClusterCount < 5 || v.ParticlesPerCluster < 5 || v.ParticlesPerCluster > 11 {
			t.Errorf("volume %d counts %d x %d", i, v.ClusterCount, v.ParticlesPerCluster)
		}
		if v.Density < 0.5 || v.Density > 1.2 {
			t.Errorf("volume %d density %v", i, v.Density)
		}
	}
	if GenerateCloudField(0, 450, 4000, 42) != nil {
		t.Error("zero count should yield no volumes")
	}
}

func TestParamsNormalized(t *testing.T) {
	p := Params{
		SizeMin:     50,
		SizeMax:     10,
		GlobalAlpha: 4,
		Volumes:     []Volume{DefaultVolume()},
	}
	n := p.Normalized()
	if n.SizeMax != 50 {
		t.Errorf("SizeMax = %v, want 50", n.SizeMax)
	}
	if n.GlobalAlpha != 1 || n.DepthSoftness <= 0 || n.UpsampleSharpness != 0.1 {
		t.Errorf("normalized = %+v", n)
	}
	n.Volumes[0].Position = mgl32.Vec3{1, 2, 3}
	if p.Volumes[0].Position == n.Volumes[0].Position {
		t.Error("Normalized shares the volume slice")
	}
}

func TestParticleCount(t *testing.T) {
	p := Params{Volumes: []Volume{DefaultVolume(), {ClusterCount: -3, ParticlesPerCluster: 4}}}
	if got := p.ParticleCount(); got != 48 {
		t.Errorf("ParticleCount = %d, want 48", got)
	}
	if DefaultParams().ParticleCount() == 0 {
		t.Error("default field is empty")
	}
}
