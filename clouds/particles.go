package clouds

import (
	"encoding/binary"
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
)

// Generation limits.
const (
	MaxParticles = 80000
	// ParticleSeed seeds every particle stream, so equal params give equal
	// particles.
	ParticleSeed = 12345
	// ParticleStride is the byte size of one GPUParticle.
	ParticleStride = 48
)

// GPUParticle matches the Particle struct in clouds.wgsl.
type GPUParticle struct {
	Position    mgl32.Vec3
	Size        float32
	Color       mgl32.Vec3
	Alpha       float32
	Rotation    float32
	NoiseOffset float32
	Density     float32
	_           float32
}

// Generate expands the volumes of p into particles, at most MaxParticles.
//
// For every cluster the stream yields u, v and r for the cluster center
// inside the volume ellipsoid; then, for every particle, the x, y and z
// offsets followed by size, alpha, rotation, noise offset and density.
func Generate(p Params) []GPUParticle {
	total := min(p.ParticleCount(), MaxParticles)
	if total == 0 {
		return nil
	}
	out := make([]GPUParticle, 0, total)

	rng := rand.New(rand.NewPCG(ParticleSeed, ParticleSeed))
	unit := func() float32 { return rng.Float32() }
	signed := func() float32 { return rng.Float32()*2 - 1 }

	for _, vol := range p.Volumes {
		for c := 0; c < vol.ClusterCount && len(out) < MaxParticles; c++ {
			u, v := unit(), unit()
			theta := 2 * math.Pi * float64(u)
			phi := math.Acos(float64(2*v - 1))
			r := math.Cbrt(float64(unit()))
			sphere := mgl32.Vec3{
				float32(r * math.Sin(phi) * math.Cos(theta)),
				float32(r * math.Sin(phi) * math.Sin(theta)),
				float32(r * math.Cos(phi)),
			}
			center := vol.Position.Add(mgl32.Vec3{
				sphere[0] * vol.Scale[0],
				sphere[1] * vol.Scale[1],
				sphere[2] * vol.Scale[2],
			})

			for i := 0; i < vol.ParticlesPerCluster && len(out) < MaxParticles; i++ {
				offset := mgl32.Vec3{
					signed() * p.ClusterRadius,
					signed() * p.ClusterRadius * 0.5,
					signed() * p.ClusterRadius,
				}
				out = append(out, GPUParticle{
					Position:    center.Add(offset),
					Size:        p.SizeMin + unit()*(p.SizeMax-p.SizeMin),
					Color:       mgl32.Vec3{1, 1, 1},
					Alpha:       0.5 + unit()*0.5,
					Rotation:    unit() * 2 * math.Pi,
					NoiseOffset: unit(),
					Density:     vol.Density * (0.7 + unit()*0.6),
				})
			}
		}
	}
	return out
}

// AppendBytes appends the little-endian GPU layout of ps to dst.
func AppendBytes(dst []byte, ps []GPUParticle) []byte {
	f := func(v float32) {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	for _, q := range ps {
		f(q.Position[0])
		f(q.Position[1])
		f(q.Position[2])
		f(q.Size)
		f(q.Color[0])
		f(q.Color[1])
		f(q.Color[2])
		f(q.Alpha)
		f(q.Rotation)
		f(q.NoiseOffset)
		f(q.Density)
		f(0)
	}
	return dst
}

// rebuildEpsilon is the change in size range or cluster radius that forces
// regeneration.
const rebuildEpsilon = 1.0

// Tracker keeps the particles for the last params and regenerates them only
// when the volumes or the generation ranges change.
type Tracker struct {
	params    Params
	particles []GPUParticle
	built     bool
	dirty     bool
}

// Update adopts p and reports whether the particles were regenerated.
func (t *Tracker) Update(p Params) bool {
	rebuild := !t.built || needsRebuild(t.params, p)
	t.params = p
	t.params.Volumes = append([]Volume(nil), p.Volumes...)
	if !rebuild {
		return false
	}
	t.particles = Generate(t.params)
	t.built = true
	t.dirty = true
	return true
}

// Particles returns the current particles.
func (t *Tracker) Particles() []GPUParticle { return t.particles }

// Params returns a copy of the params last passed to Update.
func (t *Tracker) Params() Params {
	p := t.params
	p.Volumes = append([]Volume(nil), p.Volumes...)
	return p
}

// TakeDirty reports whether the particles changed since the last call.
func (t *Tracker) TakeDirty() bool {
	d := t.dirty
	t.dirty = false
	return d
}

// MarkDirty forces the next TakeDirty to report a change.
func (t *Tracker) MarkDirty() { t.dirty = true }

func needsRebuild(old, p Params) bool {
	if len(old.Volumes) != len(p.Volumes) {
		return true
	}
	for i, a := range p.Volumes {
		b := old.Volumes[i]
		if a.ClusterCount != b.ClusterCount ||
			a.ParticlesPerCluster != b.ParticlesPerCluster ||
			a.Position != b.Position ||
			a.Scale != b.Scale {
			return true
		}
	}
	return absf(p.SizeMin-old.SizeMin) > rebuildEpsilon ||
		absf(p.SizeMax-old.SizeMax) > rebuildEpsilon ||
		absf(p.ClusterRadius-old.ClusterRadius) > rebuildEpsilon
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
