package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistributionQuality(t *testing.T) {
	t.Parallel()

	t.Run("empty map reports perfect quality", func(t *testing.T) {
		t.Parallel()
		m := NewSpatialMap[int](GridSize{Cols: 16, Rows: 16}, Rect{W: 160, H: 160})
		assert.Equal(t, 1.0, m.DistributionQuality())
	})

	t.Run("even spread over all sectors is perfect", func(t *testing.T) {
		t.Parallel()
		m := NewSpatialMap[int](GridSize{Cols: 16, Rows: 16}, Rect{W: 160, H: 160})
		// One entry per 4x4 sector: sector (sc, sr) owns cells [4sc, 4sc+4).
		for sr := 0; sr < 4; sr++ {
			for sc := 0; sc < 4; sc++ {
				m.PlaceAt(Key{Col: sc * 4, Row: sr * 4}, 1)
			}
		}
		assert.Equal(t, 1.0, m.DistributionQuality())
	})

	t.Run("clustered entries score zero", func(t *testing.T) {
		t.Parallel()
		m := NewSpatialMap[int](GridSize{Cols: 16, Rows: 16}, Rect{W: 160, H: 160})
		// All 16 entries inside the top-left sector.
		for row := 0; row < 4; row++ {
			for col := 0; col < 4; col++ {
				m.PlaceAt(Key{Col: col, Row: row}, 1)
			}
		}
		assert.Equal(t, 0.0, m.DistributionQuality())
	})

	t.Run("partial clustering lands strictly between", func(t *testing.T) {
		t.Parallel()
		m := NewSpatialMap[int](GridSize{Cols: 16, Rows: 16}, Rect{W: 160, H: 160})
		// Half spread evenly, half piled into one sector.
		for sr := 0; sr < 4; sr++ {
			for sc := 0; sc < 4; sc++ {
				m.PlaceAt(Key{Col: sc * 4, Row: sr * 4}, 1)
			}
		}
		for row := 0; row < 4; row++ {
			for col := 1; col < 5; col++ {
				if m.KeyValid(Key{Col: col, Row: row}) && !m.Contains(Key{Col: col, Row: row}) {
					m.PlaceAt(Key{Col: col, Row: row}, 1)
				}
			}
		}
		q := m.DistributionQuality()
		assert.Greater(t, q, 0.0)
		assert.Less(t, q, 1.0)
	})

	t.Run("coarse resolutions fall back to load factor", func(t *testing.T) {
		t.Parallel()
		m := NewSpatialMap[int](GridSize{Cols: 4, Rows: 4}, Rect{W: 40, H: 40})
		m.PlaceAt(Key{Col: 0, Row: 0}, 1)
		m.PlaceAt(Key{Col: 1, Row: 1}, 1)
		m.PlaceAt(Key{Col: 2, Row: 2}, 1)
		m.PlaceAt(Key{Col: 3, Row: 3}, 1)
		assert.Equal(t, 0.25, m.DistributionQuality())
	})
}

func TestDistributionCentroid(t *testing.T) {
	t.Parallel()

	t.Run("empty map is the zero point", func(t *testing.T) {
		t.Parallel()
		m := NewSpatialMap[int](GridSize{Cols: 8, Rows: 8}, Rect{W: 80, H: 80})
		assert.Equal(t, Point{}, m.DistributionCentroid())
	})

	t.Run("mean of stored keys", func(t *testing.T) {
		t.Parallel()
		m := NewSpatialMap[int](GridSize{Cols: 8, Rows: 8}, Rect{W: 80, H: 80})
		m.PlaceAt(Key{Col: 0, Row: 0}, 1)
		m.PlaceAt(Key{Col: 4, Row: 2}, 1)
		c := m.DistributionCentroid()
		assert.Equal(t, 2.0, c.X)
		assert.Equal(t, 1.0, c.Y)
	})
}
