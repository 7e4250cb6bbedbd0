// Package clouds renders billboard cloud particles at reduced resolution and
// upsamples them to the frame with a depth-aware filter.
//
// Particles are generated on the CPU from ellipsoid volumes. The renderer
// draws them into a quarter-resolution target, then resolves that target
// against the full-resolution scene depth so cloud edges stay sharp where
// they meet geometry. When transparency layers are available the upsample
// writes into them instead of blending directly.
package clouds

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
)

// Volume is an ellipsoid that spawns particle clusters.
type Volume struct {
	Position mgl32.Vec3
	// Scale holds the ellipsoid radii.
	Scale               mgl32.Vec3
	Density             float32
	ClusterCount        int
	ParticlesPerCluster int
}

// DefaultVolume returns a single mid-size volume 500 units up.
func DefaultVolume() Volume {
	return Volume{
		Position:            mgl32.Vec3{0, 500, 0},
		Scale:               mgl32.Vec3{200, 50, 200},
		Density:             1,
		ClusterCount:        8,
		ParticlesPerCluster: 6,
	}
}

// Particles is the number of particles the volume contributes.
func (v Volume) Particles() int {
	return max(v.ClusterCount, 0) * max(v.ParticlesPerCluster, 0)
}

// Params controls particle generation, shading and the upsample.
type Params struct {
	Enabled bool

	SizeMin       float32
	SizeMax       float32
	ClusterRadius float32

	ColorBright  colorful.Color
	ColorDark    colorful.Color
	ColorAmbient colorful.Color

	NoiseScale          float32
	NoiseAnimationSpeed float32

	SunIntensity     float32
	AmbientIntensity float32
	GlobalAlpha      float32
	// DepthSoftness is the distance over which particles fade into the
	// geometry behind them.
	DepthSoftness float32

	// ResolutionScale is recorded for hosts; the low-resolution target is
	// always a quarter of the frame in each axis.
	ResolutionScale   float32
	UpsampleSharpness float32

	WindDirection mgl32.Vec2
	WindSpeed     float32

	Volumes []Volume
}

// Cloud field defaults.
const (
	defaultFieldVolumes  = 50
	defaultFieldAltitude = 450
	defaultFieldSpread   = 4000
	defaultFieldSeed     = 42
)

// DefaultParams returns enabled clouds over a generated 50-volume field.
func DefaultParams() Params {
	return Params{
		Enabled:             true,
		SizeMin:             100,
		SizeMax:             280,
		ClusterRadius:       70,
		ColorBright:         colorful.Color{R: 1, G: 0.98, B: 0.94},
		ColorDark:           colorful.Color{R: 0.45, G: 0.5, B: 0.6},
		ColorAmbient:        colorful.Color{R: 0.65, G: 0.72, B: 0.85},
		NoiseScale:          1,
		NoiseAnimationSpeed: 0.006,
		SunIntensity:        1.5,
		AmbientIntensity:    0.3,
		GlobalAlpha:         0.95,
		DepthSoftness:       50,
		ResolutionScale:     0.25,
		UpsampleSharpness:   0.1,
		WindDirection:       mgl32.Vec2{1, 0.3},
		WindSpeed:           8,
		Volumes:             GenerateCloudField(defaultFieldVolumes, defaultFieldAltitude, defaultFieldSpread, defaultFieldSeed),
	}
}

// Normalized repairs out-of-range fields. Volumes are copied.
func (p Params) Normalized() Params {
	p.SizeMin = max(p.SizeMin, 0)
	if p.SizeMax < p.SizeMin {
		p.SizeMax = p.SizeMin
	}
	p.ClusterRadius = max(p.ClusterRadius, 0)
	p.GlobalAlpha = min(max(p.GlobalAlpha, 0), 1)
	if p.DepthSoftness <= 0 {
		p.DepthSoftness = 1
	}
	if p.UpsampleSharpness <= 0 {
		p.UpsampleSharpness = 0.1
	}
	p.ColorBright = p.ColorBright.Clamped()
	p.ColorDark = p.ColorDark.Clamped()
	p.ColorAmbient = p.ColorAmbient.Clamped()
	p.Volumes = append([]Volume(nil), p.Volumes...)
	return p
}

// ParticleCount is the uncapped number of particles the volumes describe.
func (p Params) ParticleCount() int {
	n := 0
	for _, v := range p.Volumes {
		n += v.Particles()
	}
	return n
}

// GenerateCloudField scatters count volumes over a disk of radius spread at
// the given base altitude. About a third of the volumes cluster around an
// earlier one. The same seed always yields the same field.
func GenerateCloudField(count int, altitude, spread float32, seed uint64) []Volume {
	if count <= 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	unit := func() float32 { return rng.Float32() }

	vols := make([]Volume, 0, count)
	for range count {
		var v Volume
		angle := unit() * 2 * math.Pi
		r := float32(math.Sqrt(float64(unit()))) * spread

		if unit() > 0.7 && len(vols) > 0 {
			near := vols[int(unit()*float32(len(vols)))%len(vols)]
			v.Position[0] = near.Position[0] + (unit()-0.5)*400
			v.Position[2] = near.Position[2] + (unit()-0.5)*400
		} else {
			v.Position[0] = float32(math.Cos(float64(angle))) * r
			v.Position[2] = float32(math.Sin(float64(angle))) * r
		}

		// Flat bases: heights bunch up near the altitude.
		h := unit()
		v.Position[1] = altitude + h*h*150

		size := 0.4 + unit()*unit()*1.8
		v.Scale = mgl32.Vec3{
			180*size + unit()*150,
			40*size + unit()*50,
			180*size + unit()*150,
		}
		v.Density = 0.5 + unit()*0.7
		v.ClusterCount = 5 + int(size*8)
		v.ParticlesPerCluster = 5 + int(unit()*6)
		vols = append(vols, v)
	}
	return vols
}
