package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"

	"github.com/gogpu/screenfx/camera"
	"github.com/gogpu/screenfx/clouds"
)

// writePreview splats the particles into a quarter-resolution image,
// upsamples it against a synthetic hill silhouette and saves the result
// scaled to outWidth.
func writePreview(path string, particles []clouds.GPUParticle, cam camera.Camera, w, h, outWidth int) error {
	lw, lh := clouds.LowResSize(uint32(w), uint32(h))
	low := image.NewRGBA(image.Rect(0, 0, int(lw), int(lh)))
	splat(low, particles, cam)

	depth, hills := silhouette(w, h)
	full := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := clouds.NewUpsampler(0.1).Upsample(full, low, depth); err != nil {
		return err
	}

	frame := image.NewRGBA(full.Bounds())
	for y := 0; y < h; y++ {
		t := float64(y) / float64(h)
		sky := color.RGBA{R: uint8(90 + 80*t), G: uint8(140 + 60*t), B: 230, A: 255}
		for x := 0; x < w; x++ {
			if y >= hills[x] {
				frame.SetRGBA(x, y, color.RGBA{R: 60, G: 90, B: 55, A: 255})
			} else {
				frame.SetRGBA(x, y, sky)
			}
		}
	}
	draw.Draw(frame, frame.Bounds(), full, image.Point{}, draw.Over)

	outWidth = max(outWidth, 1)
	outHeight := max(outWidth*h/w, 1)
	out := image.NewRGBA(image.Rect(0, 0, outWidth, outHeight))
	draw.CatmullRom.Scale(out, out.Bounds(), frame, frame.Bounds(), draw.Src, nil)

	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, out); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// splat draws every particle as a soft premultiplied disc.
func splat(low *image.RGBA, particles []clouds.GPUParticle, cam camera.Camera) {
	lw, lh := low.Bounds().Dx(), low.Bounds().Dy()
	vp := cam.ViewProj()
	focal := cam.Proj.At(1, 1)
	for _, p := range particles {
		clip := vp.Mul4x1(p.Position.Vec4(1))
		if clip.W() <= 0 {
			continue
		}
		ndc := clip.Vec3().Mul(1 / clip.W())
		cx := (ndc.X()*0.5 + 0.5) * float32(lw)
		cy := (0.5 - ndc.Y()*0.5) * float32(lh)
		r := p.Size * focal / clip.W() * float32(lh) * 0.5
		if r < 0.5 || cx+r < 0 || cy+r < 0 || cx-r > float32(lw) || cy-r > float32(lh) {
			continue
		}
		alpha := p.Alpha * p.Density * 0.12
		for y := max(int(cy-r), 0); y < min(int(cy+r)+1, lh); y++ {
			for x := max(int(cx-r), 0); x < min(int(cx+r)+1, lw); x++ {
				d := mgl32.Vec2{float32(x) + 0.5 - cx, float32(y) + 0.5 - cy}.Len() / r
				if d >= 1 {
					continue
				}
				a := alpha * (1 - d*d)
				over(low, x, y, a)
			}
		}
	}
}

// over composites white with coverage a onto a premultiplied pixel.
func over(img *image.RGBA, x, y int, a float32) {
	i := img.PixOffset(x, y)
	px := img.Pix[i : i+4 : i+4]
	for k := range px {
		v := float32(px[k])/255*(1-a) + a
		px[k] = uint8(min(v, 1)*255 + 0.5)
	}
}

// silhouette returns a linear depth buffer for rolling hills in front of an
// empty sky, and the first hill row of every column.
func silhouette(w, h int) ([]float32, []int) {
	depth := make([]float32, w*h)
	hills := make([]int, w)
	for x := 0; x < w; x++ {
		fx := float64(x) / float64(w)
		top := float64(h) * (0.72 + 0.06*math.Sin(fx*9) + 0.03*math.Sin(fx*23+1))
		hills[x] = int(top)
		for y := 0; y < h; y++ {
			d := float32(20000)
			if y >= hills[x] {
				d = float32(300 + 1500*(1-float64(y-hills[x])/float64(h)))
			}
			depth[y*w+x] = d
		}
	}
	return depth, hills
}
