package monitor

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordedPlotter(n int) *TrajectoryPlotter {
	tp := NewTrajectoryPlotter()
	for i := 0; i < n; i++ {
		x := float64(i)
		tp.Record(PathSample{
			FrameIndex:      int64(i),
			RawX:            10 * math.Sin(x/4),
			RawY:            6 * math.Cos(x/5),
			SmoothedX:       8 * math.Sin(x/4),
			SmoothedY:       5 * math.Cos(x/5),
			TrackingQuality: 0.9,
			SceneStability:  0.8,
		})
	}
	return tp
}

func TestRecordAndSamples(t *testing.T) {
	t.Parallel()
	tp := recordedPlotter(5)
	samples := tp.Samples()
	require.Len(t, samples, 5)
	assert.Equal(t, int64(3), samples[3].FrameIndex)
}

func TestWritePlots(t *testing.T) {
	t.Parallel()

	t.Run("writes the three plot files", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, recordedPlotter(40).WritePlots(dir))
		for _, name := range []string{"trajectory_x.png", "trajectory_y.png", "quality.png"} {
			info, err := os.Stat(filepath.Join(dir, name))
			require.NoError(t, err, name)
			assert.Greater(t, info.Size(), int64(0), name)
		}
	})

	t.Run("no samples writes nothing", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, NewTrajectoryPlotter().WritePlots(dir))
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestWriteReport(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, recordedPlotter(25).WriteReport(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<html")
}
