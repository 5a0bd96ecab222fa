// Package monitor records per-frame stabilisation diagnostics and renders
// them as plots and HTML reports after a run. Nothing here sits on the
// per-frame hot path beyond appending a sample.
package monitor

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PathSample captures one output frame's raw and smoothed camera path
// position plus the quality metrics of the motion estimate behind it.
type PathSample struct {
	FrameIndex int64

	// Raw and smoothed accumulated displacement (translation component).
	RawX, RawY           float64
	SmoothedX, SmoothedY float64

	TrackingQuality float64
	SceneStability  float64
	Reduction       float64
}

// TrajectoryPlotter accumulates path samples over a run and writes PNG
// plots comparing the raw camera path against the smoothed output path.
type TrajectoryPlotter struct {
	samples []PathSample
}

// NewTrajectoryPlotter returns an empty plotter.
func NewTrajectoryPlotter() *TrajectoryPlotter {
	return &TrajectoryPlotter{}
}

// Record appends one sample. Call once per output frame.
func (tp *TrajectoryPlotter) Record(s PathSample) {
	tp.samples = append(tp.samples, s)
}

// Samples returns the recorded samples in frame order.
func (tp *TrajectoryPlotter) Samples() []PathSample { return tp.samples }

// WritePlots renders the accumulated samples into outputDir as
// trajectory_x.png, trajectory_y.png and quality.png. It is a no-op when
// no samples were recorded.
func (tp *TrajectoryPlotter) WritePlots(outputDir string) error {
	if len(tp.samples) == 0 {
		return nil
	}

	if err := tp.writeAxisPlot(outputDir, "trajectory_x.png", "Camera path (horizontal)",
		func(s PathSample) (float64, float64) { return s.RawX, s.SmoothedX }); err != nil {
		return err
	}
	if err := tp.writeAxisPlot(outputDir, "trajectory_y.png", "Camera path (vertical)",
		func(s PathSample) (float64, float64) { return s.RawY, s.SmoothedY }); err != nil {
		return err
	}
	return tp.writeQualityPlot(outputDir)
}

func (tp *TrajectoryPlotter) writeAxisPlot(outputDir, name, title string, pick func(PathSample) (raw, smoothed float64)) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "frame"
	p.Y.Label.Text = "displacement (px)"

	rawPts := make(plotter.XYs, 0, len(tp.samples))
	smoothPts := make(plotter.XYs, 0, len(tp.samples))
	for _, s := range tp.samples {
		raw, smoothed := pick(s)
		rawPts = append(rawPts, plotter.XY{X: float64(s.FrameIndex), Y: raw})
		smoothPts = append(smoothPts, plotter.XY{X: float64(s.FrameIndex), Y: smoothed})
	}

	rawLine, err := plotter.NewLine(rawPts)
	if err != nil {
		return fmt.Errorf("monitor: raw path line: %w", err)
	}
	rawLine.Width = vg.Points(1)

	smoothLine, err := plotter.NewLine(smoothPts)
	if err != nil {
		return fmt.Errorf("monitor: smoothed path line: %w", err)
	}
	smoothLine.Width = vg.Points(2)

	p.Add(rawLine, smoothLine)
	p.Legend.Add("raw", rawLine)
	p.Legend.Add("smoothed", smoothLine)

	out := filepath.Join(outputDir, name)
	if err := p.Save(14*vg.Inch, 6*vg.Inch, out); err != nil {
		return fmt.Errorf("monitor: save %s: %w", name, err)
	}
	return nil
}

func (tp *TrajectoryPlotter) writeQualityPlot(outputDir string) error {
	p := plot.New()
	p.Title.Text = "Tracking quality / scene stability"
	p.X.Label.Text = "frame"
	p.Y.Label.Text = "score"
	p.Y.Min, p.Y.Max = 0, 1

	qualityPts := make(plotter.XYs, 0, len(tp.samples))
	stabilityPts := make(plotter.XYs, 0, len(tp.samples))
	for _, s := range tp.samples {
		qualityPts = append(qualityPts, plotter.XY{X: float64(s.FrameIndex), Y: s.TrackingQuality})
		stabilityPts = append(stabilityPts, plotter.XY{X: float64(s.FrameIndex), Y: s.SceneStability})
	}

	qualityLine, err := plotter.NewLine(qualityPts)
	if err != nil {
		return fmt.Errorf("monitor: quality line: %w", err)
	}
	qualityLine.Width = vg.Points(1)

	stabilityLine, err := plotter.NewLine(stabilityPts)
	if err != nil {
		return fmt.Errorf("monitor: stability line: %w", err)
	}
	stabilityLine.Width = vg.Points(1)

	p.Add(qualityLine, stabilityLine)
	p.Legend.Add("quality", qualityLine)
	p.Legend.Add("stability", stabilityLine)

	out := filepath.Join(outputDir, "quality.png")
	if err := p.Save(14*vg.Inch, 6*vg.Inch, out); err != nil {
		return fmt.Errorf("monitor: save quality.png: %w", err)
	}
	return nil
}
