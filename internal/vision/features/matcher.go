package features

import (
	"math"

	"github.com/steadyframe/stabilise/internal/vision/frame"
	"github.com/steadyframe/stabilise/internal/vision/spatial"
)

// MatchSettings tunes frame-to-frame point matching.
type MatchSettings struct {
	// WindowRadius is the half-width of the matching patch; the patch is
	// (2r+1) pixels square.
	WindowRadius int

	// SearchRadius bounds the per-frame displacement the matcher can
	// recover, in pixels.
	SearchRadius int

	// MaxError is the maximum mean absolute pixel difference for a match
	// to be accepted.
	MaxError float64
}

// DefaultMatchSettings returns matching parameters suitable for handheld
// shake at standard video resolutions.
func DefaultMatchSettings() MatchSettings {
	return MatchSettings{
		WindowRadius: 4,
		SearchRadius: 16,
		MaxError:     18,
	}
}

// Match tracks each point from prev into next by two-stage block matching:
// a coarse search at step 2 across the search radius, then a dense
// refinement around the coarse best, finished with sub-pixel parabola
// interpolation of the error surface.
//
// The returned slices are index-aligned with points; status[i] is false
// when the point could not be matched (patch off-frame or error above
// MaxError), in which case matched[i] is undefined.
func Match(prev, next *frame.Frame, points []spatial.Point, s MatchSettings) (matched []spatial.Point, status []bool) {
	matched = make([]spatial.Point, len(points))
	status = make([]bool, len(points))

	for i, p := range points {
		px, py := int(math.Round(p.X)), int(math.Round(p.Y))
		if !patchInside(prev, px, py, s.WindowRadius) {
			continue
		}

		// Coarse pass.
		bestDX, bestDY, bestErr := 0, 0, math.Inf(1)
		for dy := -s.SearchRadius; dy <= s.SearchRadius; dy += 2 {
			for dx := -s.SearchRadius; dx <= s.SearchRadius; dx += 2 {
				e := patchError(prev, next, px, py, dx, dy, s.WindowRadius, bestErr)
				if e < bestErr {
					bestDX, bestDY, bestErr = dx, dy, e
				}
			}
		}

		// Dense refinement around the coarse winner.
		cx, cy := bestDX, bestDY
		for dy := cy - 2; dy <= cy+2; dy++ {
			for dx := cx - 2; dx <= cx+2; dx++ {
				if dx == cx && dy == cy {
					continue
				}
				e := patchError(prev, next, px, py, dx, dy, s.WindowRadius, bestErr)
				if e < bestErr {
					bestDX, bestDY, bestErr = dx, dy, e
				}
			}
		}

		if math.IsInf(bestErr, 1) || bestErr > s.MaxError {
			continue
		}

		// Sub-pixel refinement fits a parabola through the error surface
		// along each axis independently.
		subX := parabolicOffset(
			patchError(prev, next, px, py, bestDX-1, bestDY, s.WindowRadius, math.Inf(1)),
			bestErr,
			patchError(prev, next, px, py, bestDX+1, bestDY, s.WindowRadius, math.Inf(1)),
		)
		subY := parabolicOffset(
			patchError(prev, next, px, py, bestDX, bestDY-1, s.WindowRadius, math.Inf(1)),
			bestErr,
			patchError(prev, next, px, py, bestDX, bestDY+1, s.WindowRadius, math.Inf(1)),
		)

		matched[i] = spatial.Point{
			X: p.X + float64(bestDX) + subX,
			Y: p.Y + float64(bestDY) + subY,
		}
		status[i] = true
	}
	return matched, status
}

// patchInside reports whether the full matching patch around (x, y) lies
// within f.
func patchInside(f *frame.Frame, x, y, radius int) bool {
	return x-radius >= 0 && y-radius >= 0 && x+radius < f.Width && y+radius < f.Height
}

// patchError returns the mean absolute difference between the patch around
// (x, y) in prev and the patch around (x+dx, y+dy) in next. It returns +Inf
// when the shifted patch leaves the frame, and aborts early once the
// running error can no longer beat cutoff.
func patchError(prev, next *frame.Frame, x, y, dx, dy, radius int, cutoff float64) float64 {
	if !patchInside(next, x+dx, y+dy, radius) {
		return math.Inf(1)
	}

	side := 2*radius + 1
	area := float64(side * side)
	limit := cutoff * area

	var sum float64
	for oy := -radius; oy <= radius; oy++ {
		for ox := -radius; ox <= radius; ox++ {
			d := float64(prev.At(x+ox, y+oy)) - float64(next.At(x+dx+ox, y+dy+oy))
			sum += math.Abs(d)
		}
		if sum > limit {
			return math.Inf(1)
		}
	}
	return sum / area
}

// parabolicOffset returns the sub-pixel offset in (-0.5, 0.5) of the
// parabola through errors at -1, 0 and +1. Degenerate (flat or infinite)
// neighbourhoods return 0.
func parabolicOffset(em, e0, ep float64) float64 {
	if math.IsInf(em, 1) || math.IsInf(ep, 1) {
		return 0
	}
	denom := em - 2*e0 + ep
	if denom <= 1e-12 {
		return 0
	}
	off := 0.5 * (em - ep) / denom
	if off > 0.5 {
		off = 0.5
	} else if off < -0.5 {
		off = -0.5
	}
	return off
}
