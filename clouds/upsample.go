package clouds

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// DepthThreshold is the relative depth difference above which the upsample
// stops blending and snaps to the nearest-depth neighbour.
const DepthThreshold = 0.01

// ErrSizeMismatch is returned when the depth slice does not cover the
// destination.
var ErrSizeMismatch = errors.New("clouds: upsample size mismatch")

// Upsampler is the CPU form of the depth-aware upsample in
// clouds_upsample.wgsl.
type Upsampler struct {
	DepthThreshold float32
	Sharpness      float32
}

// NewUpsampler returns an upsampler with the default edge threshold.
func NewUpsampler(sharpness float32) Upsampler {
	return Upsampler{DepthThreshold: DepthThreshold, Sharpness: sharpness}
}

// Upsample fills dst from the low-resolution image. depth holds the linear
// view distance of every dst pixel in row-major order.
func (u Upsampler) Upsample(dst, low *image.RGBA, depth []float32) error {
	fw, fh := dst.Bounds().Dx(), dst.Bounds().Dy()
	lw, lh := low.Bounds().Dx(), low.Bounds().Dy()
	if fw == 0 || fh == 0 || lw == 0 || lh == 0 {
		return fmt.Errorf("%w: empty image", ErrSizeMismatch)
	}
	if len(depth) != fw*fh {
		return fmt.Errorf("%w: %d depth samples for %dx%d", ErrSizeMismatch, len(depth), fw, fh)
	}

	// Guide depth of every low-res texel: the full-res sample under its center.
	guide := make([]float32, lw*lh)
	for ty := 0; ty < lh; ty++ {
		for tx := 0; tx < lw; tx++ {
			cx := clampi(int((float32(tx)+0.5)*float32(fw)/float32(lw)), 0, fw-1)
			cy := clampi(int((float32(ty)+0.5)*float32(fh)/float32(lh)), 0, fh-1)
			guide[ty*lw+tx] = depth[cy*fw+cx]
		}
	}

	sharp := float64(max(u.Sharpness, 0.0001))
	for y := 0; y < fh; y++ {
		for x := 0; x < fw; x++ {
			d := depth[y*fw+x]
			lpx := (float32(x)+0.5)/float32(fw)*float32(lw) - 0.5
			lpy := (float32(y)+0.5)/float32(fh)*float32(lh) - 0.5
			bx, by := floorf(lpx), floorf(lpy)
			fx, fy := lpx-float32(bx), lpy-float32(by)

			best, bestDiff := 0, float32(math.MaxFloat32)
			edge := false
			var sum [4]float32
			var wsum float32
			for i := 0; i < 4; i++ {
				ox, oy := i&1, i>>1
				tx := clampi(bx+ox, 0, lw-1)
				ty := clampi(by+oy, 0, lh-1)
				diff := absf(guide[ty*lw+tx]-d) / max(d, 0.0001)
				if diff > u.DepthThreshold {
					edge = true
				}
				if diff < bestDiff {
					bestDiff, best = diff, i
				}
				wx, wy := 1-fx, 1-fy
				if ox == 1 {
					wx = fx
				}
				if oy == 1 {
					wy = fy
				}
				w := wx * wy * float32(math.Exp(-float64(diff)/sharp))
				c := texel(low, tx, ty)
				for k := range sum {
					sum[k] += c[k] * w
				}
				wsum += w
			}

			var out [4]float32
			switch {
			case edge:
				tx := clampi(bx+(best&1), 0, lw-1)
				ty := clampi(by+(best>>1), 0, lh-1)
				out = texel(low, tx, ty)
			case wsum > 0:
				for k := range out {
					out[k] = sum[k] / wsum
				}
			}
			setTexel(dst, x, y, out)
		}
	}
	return nil
}

func texel(img *image.RGBA, x, y int) [4]float32 {
	b := img.Bounds()
	i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
	p := img.Pix[i : i+4 : i+4]
	return [4]float32{float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255, float32(p[3]) / 255}
}

func setTexel(img *image.RGBA, x, y int, c [4]float32) {
	b := img.Bounds()
	i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
	for k, v := range c {
		img.Pix[i+k] = uint8(min(max(v, 0), 1)*255 + 0.5)
	}
}

func floorf(v float32) int { return int(math.Floor(float64(v))) }

func clampi(v, lo, hi int) int { return min(max(v, lo), hi) }
