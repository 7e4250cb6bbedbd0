package textures

import (
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"golang.org/x/image/draw"
)

// WhiteImage returns a 1×1 opaque white image.
func WhiteImage() image.Image {
	img := image.NewGray(image.Rect(0, 0, 1, 1))
	img.Pix[0] = 0xff
	return img
}

// NoiseImage returns tileable value noise: a cells×cells lattice of seeded
// random values smoothly interpolated to size×size.
func NoiseImage(seed uint64, cells, size int) *image.Gray {
	if cells < 2 {
		cells = 2
	}
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	lattice := image.NewGray(image.Rect(0, 0, cells+1, cells+1))
	for y := 0; y < cells; y++ {
		for x := 0; x < cells; x++ {
			lattice.SetGray(x, y, color.Gray{Y: uint8(64 + r.IntN(192))})
		}
	}
	// Duplicate the first row and column so the scaled result wraps.
	for i := 0; i <= cells; i++ {
		lattice.SetGray(cells, i, lattice.GrayAt(0, i%cells))
		lattice.SetGray(i, cells, lattice.GrayAt(i%cells, 0))
	}

	out := image.NewGray(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(out, out.Bounds(), lattice, lattice.Bounds(), draw.Src, nil)
	return out
}

// ParticleImage returns a soft round billboard mask of the given size.
// The falloff is computed on a coarse grid and upscaled bilinearly.
func ParticleImage(size int) *image.Gray {
	const coarse = 32
	src := image.NewGray(image.Rect(0, 0, coarse, coarse))
	for y := 0; y < coarse; y++ {
		for x := 0; x < coarse; x++ {
			dx := (float64(x)+0.5)/coarse*2 - 1
			dy := (float64(y)+0.5)/coarse*2 - 1
			d := math.Sqrt(dx*dx + dy*dy)
			v := 1 - d
			if v < 0 {
				v = 0
			}
			v = v * v * (3 - 2*v)
			src.SetGray(x, y, color.Gray{Y: uint8(math.Round(v * 255))})
		}
	}
	out := image.NewGray(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(out, out.Bounds(), src, src.Bounds(), draw.Src, nil)
	return out
}
