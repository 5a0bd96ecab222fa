package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMap(t *testing.T) *SpatialMap[int] {
	t.Helper()
	return NewSpatialMap[int](GridSize{Cols: 8, Rows: 6}, Rect{W: 80, H: 60})
}

func TestSpatialMapGeometry(t *testing.T) {
	t.Parallel()

	t.Run("key size derives from region and resolution", func(t *testing.T) {
		t.Parallel()
		m := newTestMap(t)
		w, h := m.KeySize()
		assert.Equal(t, 10.0, w)
		assert.Equal(t, 10.0, h)
		assert.Equal(t, 48, m.Capacity())
	})

	t.Run("invalid geometry panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			NewSpatialMap[int](GridSize{Cols: 0, Rows: 4}, Rect{W: 10, H: 10})
		})
		assert.Panics(t, func() {
			// Region smaller than the resolution.
			NewSpatialMap[int](GridSize{Cols: 8, Rows: 6}, Rect{W: 4, H: 4})
		})
	})
}

func TestKeyOf(t *testing.T) {
	t.Parallel()
	m := newTestMap(t)

	t.Run("partitions the region into cells", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, Key{Col: 0, Row: 0}, m.KeyOf(Point{X: 0, Y: 0}))
		assert.Equal(t, Key{Col: 0, Row: 0}, m.KeyOf(Point{X: 9.99, Y: 9.99}))
		assert.Equal(t, Key{Col: 1, Row: 0}, m.KeyOf(Point{X: 10, Y: 0}))
		assert.Equal(t, Key{Col: 7, Row: 5}, m.KeyOf(Point{X: 79.9, Y: 59.9}))
	})

	t.Run("positions in the same cell share a key", func(t *testing.T) {
		t.Parallel()
		a := m.KeyOf(Point{X: 23.1, Y: 41.7})
		b := m.KeyOf(Point{X: 29.9, Y: 49.2})
		assert.Equal(t, a, b)
	})

	t.Run("right and bottom edges are exclusive", func(t *testing.T) {
		t.Parallel()
		assert.False(t, m.WithinBounds(Point{X: 80, Y: 30}))
		assert.False(t, m.WithinBounds(Point{X: 30, Y: 60}))
		assert.True(t, m.WithinBounds(Point{X: 79.999, Y: 59.999}))
		assert.Panics(t, func() { m.KeyOf(Point{X: 80, Y: 60}) })
	})
}

func TestPlaceAndRemove(t *testing.T) {
	t.Parallel()

	t.Run("size tracks successful inserts minus removes", func(t *testing.T) {
		t.Parallel()
		m := newTestMap(t)
		m.Place(Point{X: 5, Y: 5}, 1)
		m.Place(Point{X: 15, Y: 5}, 2)
		m.Place(Point{X: 25, Y: 5}, 3)
		require.Equal(t, 3, m.Size())

		m.Remove(Key{Col: 1, Row: 0})
		assert.Equal(t, 2, m.Size())
		assert.False(t, m.Contains(Key{Col: 1, Row: 0}))
		assert.True(t, m.Contains(Key{Col: 0, Row: 0}))
		assert.True(t, m.Contains(Key{Col: 2, Row: 0}))
	})

	t.Run("placing an occupied cell replaces in place", func(t *testing.T) {
		t.Parallel()
		m := newTestMap(t)
		m.Place(Point{X: 5, Y: 5}, 1)
		m.Place(Point{X: 7, Y: 3}, 9) // same cell
		require.Equal(t, 1, m.Size())
		assert.Equal(t, 9, *m.At(Key{Col: 0, Row: 0}))
	})

	t.Run("swap-remove repairs the moved entry's link", func(t *testing.T) {
		t.Parallel()
		m := newTestMap(t)
		m.PlaceAt(Key{Col: 0, Row: 0}, 10)
		m.PlaceAt(Key{Col: 3, Row: 2}, 20)
		m.PlaceAt(Key{Col: 7, Row: 5}, 30)

		// Removing the first entry moves the last entry into its slot.
		m.Remove(Key{Col: 0, Row: 0})
		require.Equal(t, 2, m.Size())
		assert.Equal(t, 30, *m.At(Key{Col: 7, Row: 5}))
		assert.Equal(t, 20, *m.At(Key{Col: 3, Row: 2}))

		// The repaired link must survive another removal.
		m.Remove(Key{Col: 7, Row: 5})
		assert.Equal(t, 20, *m.At(Key{Col: 3, Row: 2}))
		assert.Equal(t, 1, m.Size())
	})

	t.Run("removing the only entry empties the map", func(t *testing.T) {
		t.Parallel()
		m := newTestMap(t)
		m.Place(Point{X: 1, Y: 1}, 7)
		m.Remove(Key{Col: 0, Row: 0})
		assert.True(t, m.IsEmpty())
		assert.False(t, m.Contains(Key{Col: 0, Row: 0}))
	})

	t.Run("remove of an empty cell panics", func(t *testing.T) {
		t.Parallel()
		m := newTestMap(t)
		assert.Panics(t, func() { m.Remove(Key{Col: 2, Row: 2}) })
		assert.False(t, m.TryRemove(Key{Col: 2, Row: 2}))
	})

	t.Run("try place tolerates out-of-bounds positions", func(t *testing.T) {
		t.Parallel()
		m := newTestMap(t)
		assert.False(t, m.TryPlace(Point{X: -1, Y: 5}, 1))
		assert.True(t, m.TryPlace(Point{X: 5, Y: 5}, 1))
		assert.Equal(t, 1, m.Size())
	})
}

func TestObtain(t *testing.T) {
	t.Parallel()
	m := newTestMap(t)

	v := m.Obtain(Key{Col: 4, Row: 4})
	assert.Equal(t, 0, *v)
	*v = 42
	assert.Equal(t, 42, *m.At(Key{Col: 4, Row: 4}))
	assert.Same(t, m.At(Key{Col: 4, Row: 4}), m.Obtain(Key{Col: 4, Row: 4}))
}

func TestRescale(t *testing.T) {
	t.Parallel()

	t.Run("keeps entries whose keys stay in range", func(t *testing.T) {
		t.Parallel()
		m := newTestMap(t)
		m.PlaceAt(Key{Col: 1, Row: 1}, 11)
		m.PlaceAt(Key{Col: 7, Row: 5}, 75)

		m.Rescale(GridSize{Cols: 4, Rows: 3}, Rect{W: 80, H: 60})
		assert.Equal(t, 1, m.Size())
		require.True(t, m.Contains(Key{Col: 1, Row: 1}))
		assert.Equal(t, 11, *m.At(Key{Col: 1, Row: 1}))
		assert.False(t, m.Contains(Key{Col: 7, Row: 5}))
	})

	t.Run("recomputes key size", func(t *testing.T) {
		t.Parallel()
		m := newTestMap(t)
		m.Rescale(GridSize{Cols: 4, Rows: 3}, Rect{W: 80, H: 60})
		w, h := m.KeySize()
		assert.Equal(t, 20.0, w)
		assert.Equal(t, 20.0, h)
	})
}

func TestClearAndEntries(t *testing.T) {
	t.Parallel()
	m := newTestMap(t)
	m.PlaceAt(Key{Col: 0, Row: 0}, 1)
	m.PlaceAt(Key{Col: 1, Row: 0}, 2)
	assert.Len(t, m.Entries(), 2)

	m.Clear()
	assert.True(t, m.IsEmpty())
	assert.Empty(t, m.Entries())
	assert.False(t, m.Contains(Key{Col: 0, Row: 0}))
}
