package spatial

// distributionSectors is the fixed coarse sector grid used by
// DistributionQuality. The map is partitioned into 4x4 sectors regardless
// of its actual resolution.
const distributionSectors = 4

// DistributionQuality returns a heuristic clustering signal in [0, 1] for
// the stored entries. 1.0 means the entries are spread evenly across a 4x4
// coarse sector grid; values approach 0 as entries pile into few sectors.
//
// When the map resolution is 4 or fewer cells in either dimension the
// sector partition is meaningless, so the simple load factor size/capacity
// is returned instead. An empty map always reports 1.0.
func (m *SpatialMap[T]) DistributionQuality() float64 {
	total := len(m.data)
	if total == 0 {
		return 1.0
	}

	if m.resolution.Cols <= distributionSectors || m.resolution.Rows <= distributionSectors {
		return float64(total) / float64(m.Capacity())
	}

	// Count entries per coarse sector.
	var counts [distributionSectors * distributionSectors]int
	sectorCols := m.resolution.Cols / distributionSectors
	sectorRows := m.resolution.Rows / distributionSectors
	for _, e := range m.data {
		col := e.Key.Col / sectorCols
		if col >= distributionSectors {
			col = distributionSectors - 1
		}
		row := e.Key.Row / sectorRows
		if row >= distributionSectors {
			row = distributionSectors - 1
		}
		counts[row*distributionSectors+col]++
	}

	// An even spread puts total/16 entries in each sector; anything beyond
	// that per sector counts as excess.
	ideal := total / (distributionSectors * distributionSectors)
	excess := 0
	for _, c := range counts {
		if c > ideal {
			excess += c - ideal
		}
	}

	worst := total - ideal
	if worst <= 0 {
		return 1.0
	}
	return 1.0 - float64(excess)/float64(worst)
}

// DistributionCentroid returns the arithmetic mean of all stored keys'
// positions, or the zero point for an empty map.
func (m *SpatialMap[T]) DistributionCentroid() Point {
	if len(m.data) == 0 {
		return Point{}
	}

	var sum Point
	for _, e := range m.data {
		sum.X += float64(e.Key.Col)
		sum.Y += float64(e.Key.Row)
	}
	n := float64(len(m.data))
	return Point{X: sum.X / n, Y: sum.Y / n}
}
