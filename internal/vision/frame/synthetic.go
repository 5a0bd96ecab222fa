package frame

import (
	"math/rand"

	"github.com/steadyframe/stabilise/internal/vision/motion"
)

// Synthetic generates a deterministic textured frame for tests and tools.
// The texture is smoothed white noise, which gives the feature detector
// dense, well-spread gradients to lock onto.
func Synthetic(width, height int, seed int64) *Frame {
	rng := rand.New(rand.NewSource(seed))
	noise := New(width, height)
	for i := range noise.Pix {
		noise.Pix[i] = uint8(rng.Intn(256))
	}

	// 3x3 box blur keeps enough structure for corners while suppressing
	// single-pixel flicker that block matching cannot track.
	out := New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sum, n := 0, 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					xx, yy := x+dx, y+dy
					if xx < 0 || yy < 0 || xx >= width || yy >= height {
						continue
					}
					sum += int(noise.Pix[yy*width+xx])
					n++
				}
			}
			out.Pix[y*width+x] = uint8(sum / n)
		}
	}
	return out
}

// SyntheticShifted returns base warped by a pure translation, for building
// frame pairs with a known ground-truth motion.
func SyntheticShifted(base *Frame, dx, dy float64) *Frame {
	t := motion.Identity()
	t.Translation.X = dx
	t.Translation.Y = dy
	return base.Warp(t)
}
