package stabdb

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "stab.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInsertAndGetSession(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	s := &Session{
		Source:       "clip.raw",
		FrameWidth:   1280,
		FrameHeight:  720,
		SettingsJSON: json.RawMessage(`{"smoothing_radius":14}`),
	}
	require.NoError(t, db.InsertSession(s))
	assert.NotEmpty(t, s.SessionID, "an id must be generated")
	assert.NotZero(t, s.StartedUnixNanos, "a start time must be defaulted")

	got, err := db.GetSession(s.SessionID)
	require.NoError(t, err)
	assert.Equal(t, s.SessionID, got.SessionID)
	assert.Equal(t, "clip.raw", got.Source)
	assert.Equal(t, 1280, got.FrameWidth)
	assert.Equal(t, 720, got.FrameHeight)
	assert.JSONEq(t, `{"smoothing_radius":14}`, string(got.SettingsJSON))
}

func TestGetSessionMissing(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	_, err := db.GetSession("no-such-session")
	assert.Error(t, err)
}

func TestListSessionsOrder(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	older := &Session{Source: "a.raw", FrameWidth: 640, FrameHeight: 480, StartedUnixNanos: 1000}
	newer := &Session{Source: "b.raw", FrameWidth: 640, FrameHeight: 480, StartedUnixNanos: 2000}
	require.NoError(t, db.InsertSession(older))
	require.NoError(t, db.InsertSession(newer))

	got, err := db.ListSessions()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b.raw", got[0].Source)
	assert.Equal(t, "a.raw", got[1].Source)
}

func TestFrameMetrics(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	s := &Session{Source: "clip.raw", FrameWidth: 640, FrameHeight: 480}
	require.NoError(t, db.InsertSession(s))

	// Insert out of order; reads must come back in frame order.
	for _, idx := range []int64{2, 0, 1} {
		require.NoError(t, db.InsertFrameMetric(&FrameMetric{
			SessionID:       s.SessionID,
			FrameIndex:      idx,
			RawPathX:        float64(idx) * 2,
			RawPathY:        -float64(idx),
			SmoothedPathX:   float64(idx),
			SmoothedPathY:   -float64(idx) / 2,
			TrackingQuality: 0.9,
			SceneStability:  0.8,
			CorrectionPx:    float64(idx) * 1.5,
			Reduction:       0,
			ProcessNanos:    12345,
		}))
	}

	got, err := db.FrameMetrics(s.SessionID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, m := range got {
		assert.Equal(t, int64(i), m.FrameIndex)
		assert.Equal(t, s.SessionID, m.SessionID)
		assert.InDelta(t, float64(i)*1.5, m.CorrectionPx, 1e-9)
		assert.InDelta(t, float64(i)*2, m.RawPathX, 1e-9)
		assert.InDelta(t, float64(i), m.SmoothedPathX, 1e-9)
	}

	// Metrics are scoped per session.
	other, err := db.FrameMetrics("unknown")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestInsertFrameMetricRequiresSession(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	err := db.InsertFrameMetric(&FrameMetric{FrameIndex: 0})
	assert.Error(t, err)
}
