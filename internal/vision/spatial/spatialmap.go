// Package spatial provides a uniform-grid spatial hash used to bin tracked
// feature points for localised motion estimation.
//
// The map stores at most one value per grid cell. Values live in a dense
// data array with no holes; a parallel link array maps each cell to its
// slot in the data array. Removal swaps the removed slot with the last
// slot and repairs the moved entry's link, keeping every mutation O(1)
// amortised at the cost of not preserving insertion order.
package spatial

import "fmt"

// emptyLink marks a grid cell with no stored value.
const emptyLink = -1

// Point is a position in source (pixel) coordinates.
type Point struct {
	X float64
	Y float64
}

// Add returns the componentwise sum of two points.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns the componentwise difference of two points.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns the point scaled by s.
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }

// Rect is an axis-aligned rectangle in source coordinates. The left/top
// edges are inclusive and the right/bottom edges are exclusive, matching
// zero-based pixel indexing.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Contains reports whether p lies within the rectangle's half-open bounds.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X < r.X+r.W && p.Y < r.Y+r.H
}

// Key identifies a grid cell by column and row.
type Key struct {
	Col int
	Row int
}

// GridSize is the resolution of the map in cells per dimension.
type GridSize struct {
	Cols int
	Rows int
}

// Entry is a stored (key, value) pair. The data array of a SpatialMap is a
// slice of entries with no holes.
type Entry[T any] struct {
	Key   Key
	Value T
}

// SpatialMap maps floating-point positions within a bounded input region to
// grid cells, each cell holding at most one value of type T.
//
// A SpatialMap is exclusively owned by a single tracking session and is not
// safe for concurrent use.
type SpatialMap[T any] struct {
	resolution GridSize
	region     Rect

	// Derived cell size: region extent divided by resolution.
	keyWidth  float64
	keyHeight float64

	// links has one slot per cell (row-major); each slot is either
	// emptyLink or an index into data.
	links []int
	data  []Entry[T]
}

// NewSpatialMap creates a map with the given resolution covering region.
// Panics if the geometry is invalid (see Rescale).
func NewSpatialMap[T any](resolution GridSize, region Rect) *SpatialMap[T] {
	m := &SpatialMap[T]{}
	m.Rescale(resolution, region)
	return m
}

// Rescale recomputes the grid geometry, preserving entries whose keys are
// still in range under the new resolution and dropping the rest. Cost is
// linear in the number of stored entries.
//
// The resolution must be at least 1x1 and the region must be at least as
// large as the resolution in each dimension, so that every cell covers at
// least one spatial unit.
func (m *SpatialMap[T]) Rescale(resolution GridSize, region Rect) {
	if resolution.Cols < 1 || resolution.Rows < 1 {
		panic(fmt.Sprintf("spatial: invalid resolution %dx%d", resolution.Cols, resolution.Rows))
	}
	if region.W < float64(resolution.Cols) || region.H < float64(resolution.Rows) {
		panic(fmt.Sprintf("spatial: region %.1fx%.1f smaller than resolution %dx%d",
			region.W, region.H, resolution.Cols, resolution.Rows))
	}

	m.resolution = resolution
	m.region = region
	m.keyWidth = region.W / float64(resolution.Cols)
	m.keyHeight = region.H / float64(resolution.Rows)

	m.links = make([]int, resolution.Cols*resolution.Rows)
	for i := range m.links {
		m.links[i] = emptyLink
	}

	// Re-insert surviving entries at their existing keys. Keys were unique
	// before the rescale so no collisions are possible here.
	kept := m.data[:0]
	for _, e := range m.data {
		if !m.KeyValid(e.Key) {
			continue
		}
		m.links[m.linkIndex(e.Key)] = len(kept)
		kept = append(kept, e)
	}
	m.data = kept
}

// Resolution returns the grid resolution.
func (m *SpatialMap[T]) Resolution() GridSize { return m.resolution }

// InputRegion returns the source-coordinate region the grid covers.
func (m *SpatialMap[T]) InputRegion() Rect { return m.region }

// KeySize returns the spatial extent of a single cell.
func (m *SpatialMap[T]) KeySize() (w, h float64) { return m.keyWidth, m.keyHeight }

// Size returns the number of stored values.
func (m *SpatialMap[T]) Size() int { return len(m.data) }

// Capacity returns the total number of grid cells.
func (m *SpatialMap[T]) Capacity() int { return m.resolution.Cols * m.resolution.Rows }

// IsEmpty reports whether the map holds no values.
func (m *SpatialMap[T]) IsEmpty() bool { return len(m.data) == 0 }

// KeyValid reports whether k addresses a cell within the resolution.
func (m *SpatialMap[T]) KeyValid(k Key) bool {
	return k.Col >= 0 && k.Row >= 0 && k.Col < m.resolution.Cols && k.Row < m.resolution.Rows
}

// WithinBounds reports whether p lies inside the input region.
func (m *SpatialMap[T]) WithinBounds(p Point) bool { return m.region.Contains(p) }

// KeyOf maps a position inside the input region to its cell key, truncating
// toward zero. Panics if p is outside the region.
func (m *SpatialMap[T]) KeyOf(p Point) Key {
	if !m.WithinBounds(p) {
		panic(fmt.Sprintf("spatial: position (%.2f, %.2f) outside region", p.X, p.Y))
	}
	return Key{
		Col: int((p.X - m.region.X) / m.keyWidth),
		Row: int((p.Y - m.region.Y) / m.keyHeight),
	}
}

func (m *SpatialMap[T]) linkIndex(k Key) int {
	return k.Row*m.resolution.Cols + k.Col
}

// PlaceAt stores value at the cell addressed by k, replacing any existing
// value in place. It returns a pointer to the stored value, valid until the
// next mutation of the map. Panics if k is invalid.
func (m *SpatialMap[T]) PlaceAt(k Key, value T) *T {
	if !m.KeyValid(k) {
		panic(fmt.Sprintf("spatial: invalid key (%d, %d)", k.Col, k.Row))
	}

	link := m.linkIndex(k)
	if idx := m.links[link]; idx != emptyLink {
		m.data[idx].Value = value
		return &m.data[idx].Value
	}

	m.links[link] = len(m.data)
	m.data = append(m.data, Entry[T]{Key: k, Value: value})
	return &m.data[len(m.data)-1].Value
}

// Place stores value at the cell containing p. Panics if p is out of bounds.
func (m *SpatialMap[T]) Place(p Point, value T) *T {
	return m.PlaceAt(m.KeyOf(p), value)
}

// TryPlace stores value at the cell containing p, reporting success. Unlike
// Place it tolerates out-of-bounds positions, for callers that cannot
// guarantee bounds up front.
func (m *SpatialMap[T]) TryPlace(p Point, value T) bool {
	if !m.WithinBounds(p) {
		return false
	}
	m.PlaceAt(m.KeyOf(p), value)
	return true
}

// Contains reports whether the cell addressed by k holds a value.
func (m *SpatialMap[T]) Contains(k Key) bool {
	return m.KeyValid(k) && m.links[m.linkIndex(k)] != emptyLink
}

// At returns a pointer to the value stored at k, or nil if the cell is
// empty or the key invalid. The pointer is valid until the next mutation.
func (m *SpatialMap[T]) At(k Key) *T {
	if !m.KeyValid(k) {
		return nil
	}
	idx := m.links[m.linkIndex(k)]
	if idx == emptyLink {
		return nil
	}
	return &m.data[idx].Value
}

// Obtain returns a pointer to the value stored at k, default-constructing
// one if the cell is empty. Panics if k is invalid.
func (m *SpatialMap[T]) Obtain(k Key) *T {
	if v := m.At(k); v != nil {
		return v
	}
	var zero T
	return m.PlaceAt(k, zero)
}

// Remove erases the value stored at k. The removed slot is overwritten with
// the last entry in the data array and that entry's cell link is repointed,
// so removal is O(1) but insertion order is not preserved. Panics if the
// cell is empty.
func (m *SpatialMap[T]) Remove(k Key) {
	if !m.Contains(k) {
		panic(fmt.Sprintf("spatial: remove of empty cell (%d, %d)", k.Col, k.Row))
	}

	idx := m.links[m.linkIndex(k)]
	last := len(m.data) - 1
	if idx != last {
		m.data[idx] = m.data[last]
		m.links[m.linkIndex(m.data[idx].Key)] = idx
	}
	m.data = m.data[:last]
	m.links[m.linkIndex(k)] = emptyLink
}

// TryRemove erases the value stored at k if present, reporting whether a
// value was removed.
func (m *SpatialMap[T]) TryRemove(k Key) bool {
	if !m.Contains(k) {
		return false
	}
	m.Remove(k)
	return true
}

// Clear drops all stored values, keeping the grid geometry.
func (m *SpatialMap[T]) Clear() {
	for i := range m.links {
		m.links[i] = emptyLink
	}
	m.data = m.data[:0]
}

// Entries exposes the dense data array directly. Order reflects past
// swap-removals, not insertion order. The slice is owned by the map and is
// invalidated by any mutation.
func (m *SpatialMap[T]) Entries() []Entry[T] { return m.data }
