// Package config loads stabiliser tuning parameters from JSON files.
//
// All fields are pointer-typed so a partial config file only overrides the
// values it names; everything else keeps its built-in default. The same
// schema serves startup configuration and runtime re-tuning.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/steadyframe/stabilise/internal/stab"
	"github.com/steadyframe/stabilise/internal/vision/spatial"
)

// TuningConfig is the root tuning document.
type TuningConfig struct {
	// Smoothing params
	SmoothingRadius *int     `json:"smoothing_radius,omitempty"`
	CropProportion  *float64 `json:"crop_proportion,omitempty"`
	TestMode        *bool    `json:"test_mode,omitempty"`

	// Motion estimation params
	MotionResolutionCols *int     `json:"motion_resolution_cols,omitempty"`
	MotionResolutionRows *int     `json:"motion_resolution_rows,omitempty"`
	MinMotionQuality     *float64 `json:"min_motion_quality,omitempty"`
	MinMotionSamples     *int     `json:"min_motion_samples,omitempty"`
	MinTrackedPoints     *int     `json:"min_tracked_points,omitempty"`

	// Feature detector params
	DetectorGridCols     *int     `json:"detector_grid_cols,omitempty"`
	DetectorGridRows     *int     `json:"detector_grid_rows,omitempty"`
	DetectorMinResponse  *float64 `json:"detector_min_response,omitempty"`
	MatcherSearchRadius  *int     `json:"matcher_search_radius,omitempty"`
	MatcherWindowRadius  *int     `json:"matcher_window_radius,omitempty"`
	MatcherMaxError      *float64 `json:"matcher_max_error,omitempty"`
	ConsensusIterations  *int     `json:"consensus_iterations,omitempty"`
	ConsensusInlierDist  *float64 `json:"consensus_inlier_dist,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The path must
// carry a .json extension and the file must be under 1MB. Fields omitted
// from the JSON retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that set values are within their legal ranges. Range
// clamping for the smoothing radius and crop proportion happens later in
// stab.NewStabiliser; validation here only rejects nonsense.
func (c *TuningConfig) Validate() error {
	if c.SmoothingRadius != nil && *c.SmoothingRadius < 1 {
		return fmt.Errorf("smoothing_radius must be positive, got %d", *c.SmoothingRadius)
	}
	if c.CropProportion != nil && (*c.CropProportion <= 0 || *c.CropProportion >= 1) {
		return fmt.Errorf("crop_proportion must be in (0, 1), got %f", *c.CropProportion)
	}
	if c.MinMotionQuality != nil && (*c.MinMotionQuality < 0 || *c.MinMotionQuality > 1) {
		return fmt.Errorf("min_motion_quality must be between 0 and 1, got %f", *c.MinMotionQuality)
	}
	if c.MinMotionSamples != nil && *c.MinMotionSamples < 2 {
		return fmt.Errorf("min_motion_samples must be at least 2, got %d", *c.MinMotionSamples)
	}
	if c.MotionResolutionCols != nil && *c.MotionResolutionCols < 1 {
		return fmt.Errorf("motion_resolution_cols must be positive, got %d", *c.MotionResolutionCols)
	}
	if c.MotionResolutionRows != nil && *c.MotionResolutionRows < 1 {
		return fmt.Errorf("motion_resolution_rows must be positive, got %d", *c.MotionResolutionRows)
	}
	if c.ConsensusIterations != nil && *c.ConsensusIterations < 1 {
		return fmt.Errorf("consensus_iterations must be positive, got %d", *c.ConsensusIterations)
	}
	return nil
}

// Apply overlays the set fields onto a stabiliser Settings value and
// returns the result.
func (c *TuningConfig) Apply(s stab.Settings) stab.Settings {
	if c.SmoothingRadius != nil {
		s.SmoothingRadius = *c.SmoothingRadius
	}
	if c.CropProportion != nil {
		s.CropProportion = *c.CropProportion
	}
	if c.TestMode != nil {
		s.TestMode = *c.TestMode
	}

	if c.MotionResolutionCols != nil {
		s.Tracker.MotionResolution.Cols = *c.MotionResolutionCols
	}
	if c.MotionResolutionRows != nil {
		s.Tracker.MotionResolution.Rows = *c.MotionResolutionRows
	}
	if c.MinMotionQuality != nil {
		s.Tracker.MinMotionQuality = *c.MinMotionQuality
	}
	if c.MinMotionSamples != nil {
		s.Tracker.MinMotionSamples = *c.MinMotionSamples
	}
	if c.MinTrackedPoints != nil {
		s.Tracker.MinTrackedPoints = *c.MinTrackedPoints
	}

	if c.DetectorGridCols != nil || c.DetectorGridRows != nil {
		grid := s.Tracker.Detector.Grid
		if c.DetectorGridCols != nil {
			grid.Cols = *c.DetectorGridCols
		}
		if c.DetectorGridRows != nil {
			grid.Rows = *c.DetectorGridRows
		}
		s.Tracker.Detector.Grid = spatial.GridSize{Cols: grid.Cols, Rows: grid.Rows}
	}
	if c.DetectorMinResponse != nil {
		s.Tracker.Detector.MinResponse = *c.DetectorMinResponse
	}
	if c.MatcherSearchRadius != nil {
		s.Tracker.Matcher.SearchRadius = *c.MatcherSearchRadius
	}
	if c.MatcherWindowRadius != nil {
		s.Tracker.Matcher.WindowRadius = *c.MatcherWindowRadius
	}
	if c.MatcherMaxError != nil {
		s.Tracker.Matcher.MaxError = *c.MatcherMaxError
	}
	if c.ConsensusIterations != nil {
		s.Tracker.Consensus.Iterations = *c.ConsensusIterations
	}
	if c.ConsensusInlierDist != nil {
		s.Tracker.Consensus.InlierThreshold = *c.ConsensusInlierDist
	}

	return s
}
