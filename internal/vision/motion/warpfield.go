package motion

import "github.com/steadyframe/stabilise/internal/vision/spatial"

// WarpField is a global transform plus, optionally, a coarse grid of local
// correction vectors for regions where global motion alone does not explain
// the tracked points. Offsets are indexed row-major by Resolution and are
// nil when only global motion is available.
type WarpField struct {
	Global     Transform
	Resolution spatial.GridSize
	Offsets    []spatial.Point
}

// NewWarpField returns a field carrying only a global transform.
func NewWarpField(global Transform) WarpField {
	return WarpField{Global: global}
}

// HasLocalMotion reports whether the field carries per-cell corrections.
func (w WarpField) HasLocalMotion() bool { return len(w.Offsets) > 0 }

// OffsetAt returns the local correction for the given cell, or the zero
// vector when the field has no local component or the key is out of range.
func (w WarpField) OffsetAt(k spatial.Key) spatial.Point {
	if len(w.Offsets) == 0 ||
		k.Col < 0 || k.Row < 0 || k.Col >= w.Resolution.Cols || k.Row >= w.Resolution.Rows {
		return spatial.Point{}
	}
	return w.Offsets[k.Row*w.Resolution.Cols+k.Col]
}
