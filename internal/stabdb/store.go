package stabdb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session records one stabilisation run over a single stream.
type Session struct {
	SessionID        string          `json:"session_id"`
	Source           string          `json:"source"`
	FrameWidth       int             `json:"frame_width"`
	FrameHeight      int             `json:"frame_height"`
	SettingsJSON     json.RawMessage `json:"settings_json,omitempty"`
	StartedUnixNanos int64           `json:"started_unix_nanos"`
}

// FrameMetric is the per-output-frame diagnostic row.
type FrameMetric struct {
	SessionID       string  `json:"session_id"`
	FrameIndex      int64   `json:"frame_index"`
	RawPathX        float64 `json:"raw_path_x"`
	RawPathY        float64 `json:"raw_path_y"`
	SmoothedPathX   float64 `json:"smoothed_path_x"`
	SmoothedPathY   float64 `json:"smoothed_path_y"`
	TrackingQuality float64 `json:"tracking_quality"`
	SceneStability  float64 `json:"scene_stability"`
	CorrectionPx    float64 `json:"correction_px"`
	Reduction       float64 `json:"reduction"`
	ProcessNanos    int64   `json:"process_nanos"`
}

// InsertSession persists a session record. A UUID is generated when the
// SessionID is empty, and the start time defaults to now.
func (db *DB) InsertSession(s *Session) error {
	if s.SessionID == "" {
		s.SessionID = uuid.New().String()
	}
	if s.StartedUnixNanos == 0 {
		s.StartedUnixNanos = time.Now().UnixNano()
	}

	var settings interface{}
	if len(s.SettingsJSON) > 0 {
		settings = string(s.SettingsJSON)
	} else {
		settings = "{}"
	}

	return retryOnBusy(func() error {
		_, err := db.conn.Exec(`
			INSERT INTO stab_sessions (
				session_id, source, frame_width, frame_height,
				settings_json, started_unix_nanos
			) VALUES (?, ?, ?, ?, ?, ?)`,
			s.SessionID, s.Source, s.FrameWidth, s.FrameHeight,
			settings, s.StartedUnixNanos,
		)
		return err
	})
}

// InsertFrameMetric persists one per-frame metric row.
func (db *DB) InsertFrameMetric(m *FrameMetric) error {
	if m.SessionID == "" {
		return fmt.Errorf("stabdb: frame metric requires a session id")
	}
	return retryOnBusy(func() error {
		_, err := db.conn.Exec(`
			INSERT INTO stab_frame_metrics (
				session_id, frame_index, raw_path_x, raw_path_y,
				smoothed_path_x, smoothed_path_y, tracking_quality,
				scene_stability, correction_px, reduction, process_nanos
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.SessionID, m.FrameIndex, m.RawPathX, m.RawPathY,
			m.SmoothedPathX, m.SmoothedPathY, m.TrackingQuality,
			m.SceneStability, m.CorrectionPx, m.Reduction, m.ProcessNanos,
		)
		return err
	})
}

// GetSession fetches one session by id.
func (db *DB) GetSession(sessionID string) (*Session, error) {
	row := db.conn.QueryRow(`
		SELECT session_id, source, frame_width, frame_height,
		       settings_json, started_unix_nanos
		FROM stab_sessions WHERE session_id = ?`, sessionID)

	var s Session
	var settings string
	if err := row.Scan(&s.SessionID, &s.Source, &s.FrameWidth, &s.FrameHeight,
		&settings, &s.StartedUnixNanos); err != nil {
		return nil, fmt.Errorf("stabdb: session %s: %w", sessionID, err)
	}
	s.SettingsJSON = json.RawMessage(settings)
	return &s, nil
}

// ListSessions returns all sessions, most recent first.
func (db *DB) ListSessions() ([]Session, error) {
	rows, err := db.conn.Query(`
		SELECT session_id, source, frame_width, frame_height,
		       settings_json, started_unix_nanos
		FROM stab_sessions ORDER BY started_unix_nanos DESC`)
	if err != nil {
		return nil, fmt.Errorf("stabdb: list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		var settings string
		if err := rows.Scan(&s.SessionID, &s.Source, &s.FrameWidth, &s.FrameHeight,
			&settings, &s.StartedUnixNanos); err != nil {
			return nil, fmt.Errorf("stabdb: scan session: %w", err)
		}
		s.SettingsJSON = json.RawMessage(settings)
		out = append(out, s)
	}
	return out, rows.Err()
}

// FrameMetrics returns the metric rows for a session in frame order.
func (db *DB) FrameMetrics(sessionID string) ([]FrameMetric, error) {
	rows, err := db.conn.Query(`
		SELECT session_id, frame_index, raw_path_x, raw_path_y,
		       smoothed_path_x, smoothed_path_y, tracking_quality,
		       scene_stability, correction_px, reduction, process_nanos
		FROM stab_frame_metrics WHERE session_id = ? ORDER BY frame_index`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("stabdb: frame metrics for %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []FrameMetric
	for rows.Next() {
		var m FrameMetric
		if err := rows.Scan(&m.SessionID, &m.FrameIndex, &m.RawPathX, &m.RawPathY,
			&m.SmoothedPathX, &m.SmoothedPathY, &m.TrackingQuality,
			&m.SceneStability, &m.CorrectionPx, &m.Reduction, &m.ProcessNanos); err != nil {
			return nil, fmt.Errorf("stabdb: scan frame metric: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
