package motion

import "github.com/steadyframe/stabilise/internal/vision/spatial"

// Quad is the convex quadrilateral produced by transforming a rectangle.
// Corners are stored in winding order (top-left, top-right, bottom-right,
// bottom-left before transformation).
type Quad struct {
	Corners [4]spatial.Point
}

// TransformedRect maps the corners of r through t.
func TransformedRect(r spatial.Rect, t Transform) Quad {
	return Quad{Corners: [4]spatial.Point{
		t.Apply(spatial.Point{X: r.X, Y: r.Y}),
		t.Apply(spatial.Point{X: r.X + r.W, Y: r.Y}),
		t.Apply(spatial.Point{X: r.X + r.W, Y: r.Y + r.H}),
		t.Apply(spatial.Point{X: r.X, Y: r.Y + r.H}),
	}}
}

// Encloses reports whether every corner of r lies inside the quad. For a
// convex quad this is equivalent to r being fully contained.
func (q Quad) Encloses(r spatial.Rect) bool {
	corners := [4]spatial.Point{
		{X: r.X, Y: r.Y},
		{X: r.X + r.W, Y: r.Y},
		{X: r.X + r.W, Y: r.Y + r.H},
		{X: r.X, Y: r.Y + r.H},
	}
	for _, c := range corners {
		if !q.contains(c) {
			return false
		}
	}
	return true
}

// contains tests point-in-convex-polygon via cross products. The point must
// fall on the same side of every edge; points on an edge count as inside.
func (q Quad) contains(p spatial.Point) bool {
	sign := 0
	for i := 0; i < 4; i++ {
		a := q.Corners[i]
		b := q.Corners[(i+1)%4]
		cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
		switch {
		case cross > 0:
			if sign < 0 {
				return false
			}
			sign = 1
		case cross < 0:
			if sign > 0 {
				return false
			}
			sign = -1
		}
	}
	return true
}
