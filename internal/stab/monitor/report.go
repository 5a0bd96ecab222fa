package monitor

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteReport renders the recorded samples as a self-contained HTML page
// with interactive charts: raw-vs-smoothed path per axis and the per-frame
// quality metrics.
func (tp *TrajectoryPlotter) WriteReport(path string) error {
	if len(tp.samples) == 0 {
		return fmt.Errorf("monitor: no samples to report")
	}

	x := make([]string, len(tp.samples))
	rawX := make([]opts.LineData, len(tp.samples))
	smoothX := make([]opts.LineData, len(tp.samples))
	rawY := make([]opts.LineData, len(tp.samples))
	smoothY := make([]opts.LineData, len(tp.samples))
	quality := make([]opts.LineData, len(tp.samples))
	stability := make([]opts.LineData, len(tp.samples))
	reduction := make([]opts.LineData, len(tp.samples))
	for i, s := range tp.samples {
		x[i] = fmt.Sprintf("%d", s.FrameIndex)
		rawX[i] = opts.LineData{Value: s.RawX}
		smoothX[i] = opts.LineData{Value: s.SmoothedX}
		rawY[i] = opts.LineData{Value: s.RawY}
		smoothY[i] = opts.LineData{Value: s.SmoothedY}
		quality[i] = opts.LineData{Value: s.TrackingQuality}
		stability[i] = opts.LineData{Value: s.SceneStability}
		reduction[i] = opts.LineData{Value: s.Reduction}
	}

	horz := charts.NewLine()
	horz.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Camera path (horizontal)"}))
	horz.SetXAxis(x).
		AddSeries("raw", rawX).
		AddSeries("smoothed", smoothX)

	vert := charts.NewLine()
	vert.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Camera path (vertical)"}))
	vert.SetXAxis(x).
		AddSeries("raw", rawY).
		AddSeries("smoothed", smoothY)

	metrics := charts.NewLine()
	metrics.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Estimation quality"}))
	metrics.SetXAxis(x).
		AddSeries("tracking quality", quality).
		AddSeries("scene stability", stability).
		AddSeries("crop reduction", reduction)

	page := components.NewPage()
	page.AddCharts(horz, vert, metrics)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("monitor: create report: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("monitor: render report: %w", err)
	}
	return nil
}
