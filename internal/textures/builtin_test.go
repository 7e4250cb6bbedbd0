package textures

import "testing"

func TestNoiseImageDeterministic(t *testing.T) {
	a := NoiseImage(42, 8, 64)
	b := NoiseImage(42, 8, 64)
	c := NoiseImage(43, 8, 64)

	if a.Bounds().Dx() != 64 {
		t.Fatalf("unexpected size %v", a.Bounds())
	}
	same := true
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatal("same seed produced different noise")
		}
		if a.Pix[i] != c.Pix[i] {
			same = false
		}
	}
	if same {
		t.Error("different seeds produced identical noise")
	}
}

func TestParticleImageFalloff(t *testing.T) {
	img := ParticleImage(64)
	center := img.GrayAt(32, 32).Y
	corner := img.GrayAt(0, 0).Y
	if center < 200 {
		t.Errorf("center too dark: %d", center)
	}
	if corner != 0 {
		t.Errorf("corner should be transparent, got %d", corner)
	}
}
