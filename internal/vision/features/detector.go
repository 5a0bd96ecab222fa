// Package features provides the vision primitives the frame tracker builds
// on: corner detection with grid-based suppression, and optical-flow style
// point matching between consecutive frames.
package features

import (
	"math"

	"github.com/steadyframe/stabilise/internal/vision/frame"
	"github.com/steadyframe/stabilise/internal/vision/spatial"
)

// Feature is a detected corner with its response strength.
type Feature struct {
	Point    spatial.Point
	Response float64
}

// DetectorSettings tunes corner detection.
type DetectorSettings struct {
	// Grid is the suppression grid resolution; at most one feature (the
	// strongest) is kept per grid cell, which spreads features across the
	// frame instead of clustering them on the sharpest texture.
	Grid spatial.GridSize

	// MinResponse is the minimum corner response (minimum eigenvalue of
	// the local structure tensor) for a pixel to be considered.
	MinResponse float64

	// Stride is the pixel sampling step. 2 halves the work per dimension
	// with little loss since suppression keeps one feature per cell anyway.
	Stride int

	// Margin is the border width (pixels) excluded from detection so that
	// matching windows around features stay inside the frame.
	Margin int
}

// DefaultDetectorSettings returns detection parameters suitable for
// standard video resolutions.
func DefaultDetectorSettings() DetectorSettings {
	return DetectorSettings{
		Grid:        spatial.GridSize{Cols: 32, Rows: 18},
		MinResponse: 40,
		Stride:      2,
		Margin:      12,
	}
}

// Detect finds corners in f within region, keeping the strongest response
// per suppression-grid cell. The returned order follows the grid's dense
// storage, not response strength.
func Detect(f *frame.Frame, region spatial.Rect, s DetectorSettings) []Feature {
	if s.Stride < 1 {
		s.Stride = 1
	}

	grid := spatial.NewSpatialMap[Feature](s.Grid, region)

	x0 := int(region.X) + s.Margin
	y0 := int(region.Y) + s.Margin
	x1 := int(region.X+region.W) - s.Margin
	y1 := int(region.Y+region.H) - s.Margin

	for y := y0; y < y1; y += s.Stride {
		for x := x0; x < x1; x += s.Stride {
			r := cornerResponse(f, x, y)
			if r < s.MinResponse {
				continue
			}
			p := spatial.Point{X: float64(x), Y: float64(y)}
			if !grid.WithinBounds(p) {
				continue
			}
			key := grid.KeyOf(p)
			if existing := grid.At(key); existing == nil || existing.Response < r {
				grid.PlaceAt(key, Feature{Point: p, Response: r})
			}
		}
	}

	entries := grid.Entries()
	out := make([]Feature, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out
}

// cornerResponse computes the minimum eigenvalue of the 3x3 structure
// tensor at (x, y), the Shi-Tomasi corner measure. Gradients are central
// differences.
func cornerResponse(f *frame.Frame, x, y int) float64 {
	var sxx, syy, sxy float64
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			xx, yy := x+dx, y+dy
			gx := float64(f.At(xx+1, yy)) - float64(f.At(xx-1, yy))
			gy := float64(f.At(xx, yy+1)) - float64(f.At(xx, yy-1))
			sxx += gx * gx
			syy += gy * gy
			sxy += gx * gy
		}
	}
	tr := sxx + syy
	det := math.Sqrt((sxx-syy)*(sxx-syy) + 4*sxy*sxy)
	return (tr - det) / 2 / 9 // normalise by window area
}
