package clouds

import "github.com/go-gl/mathgl/mgl32"

// sunSimilarity is the dot product above which a new sun direction is
// treated as unchanged.
const sunSimilarity = 0.99

// SunCache holds the sun direction and color used for shading, and changes
// them only when the host's sun moves noticeably.
type SunCache struct {
	dir   mgl32.Vec3
	color mgl32.Vec3
	valid bool
}

// NewSunCache starts from a high morning sun.
func NewSunCache() *SunCache {
	return &SunCache{
		dir:   mgl32.Vec3{0.5, 0.8, 0.3}.Normalize(),
		color: mgl32.Vec3{1, 0.95, 0.9},
	}
}

// Update offers a new sun and reports whether the cached values changed.
// Directions shorter than 0.1 are ignored, as are colors shorter than 0.1.
func (s *SunCache) Update(dir, color mgl32.Vec3) bool {
	l := dir.Len()
	if l <= 0.1 {
		return false
	}
	n := dir.Mul(1 / l)
	if s.valid && n.Dot(s.dir) >= sunSimilarity {
		return false
	}
	s.dir = n
	if color.Len() > 0.1 {
		s.color = color
	}
	s.valid = true
	return true
}

// Direction returns the cached direction toward the sun.
func (s *SunCache) Direction() mgl32.Vec3 { return s.dir }

// Color returns the cached sun color.
func (s *SunCache) Color() mgl32.Vec3 { return s.color }
