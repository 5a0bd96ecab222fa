// Command stabilise runs the stabilisation pipeline over a raw 8-bit
// grayscale frame stream (one frame after another, row-major, no headers)
// and writes the stabilised frames in the same format. Diagnostics can be
// recorded to a SQLite metrics database and rendered as plots or an HTML
// report.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/steadyframe/stabilise/internal/config"
	"github.com/steadyframe/stabilise/internal/stab"
	"github.com/steadyframe/stabilise/internal/stab/monitor"
	"github.com/steadyframe/stabilise/internal/stabdb"
	"github.com/steadyframe/stabilise/internal/version"
	"github.com/steadyframe/stabilise/internal/vision/frame"
)

var (
	showVersion = flag.Bool("version", false, "Print version information and exit")

	input      = flag.String("input", "-", "Input raw gray8 frame stream (- for stdin)")
	output     = flag.String("output", "", "Output raw gray8 frame stream (empty discards output)")
	width      = flag.Int("width", 0, "Frame width in pixels (required)")
	height     = flag.Int("height", 0, "Frame height in pixels (required)")
	radius     = flag.Int("radius", stab.SmoothingRadiusDefault, "Smoothing radius in frames (rounded to even)")
	crop       = flag.Float64("crop", stab.CropProportionDefault, "Crop proportion per dimension")
	testMode   = flag.Bool("test-mode", false, "Keep full frame size and leave the crop border visible")
	configPath = flag.String("config", "", "Optional tuning config JSON")
	dbPath     = flag.String("db", "", "Optional metrics database path")
	plotDir    = flag.String("plot-dir", "", "Optional directory for trajectory plots")
	reportPath = flag.String("report", "", "Optional HTML report path")
)

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Printf("stabilise %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}
	if *width <= 0 || *height <= 0 {
		log.Fatal("both -width and -height are required")
	}

	settings := stab.DefaultSettings()
	settings.SmoothingRadius = *radius
	settings.CropProportion = *crop
	settings.TestMode = *testMode
	if *configPath != "" {
		cfg, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		settings = cfg.Apply(settings)
	}

	in, err := openInput(*input)
	if err != nil {
		log.Fatalf("failed to open input: %v", err)
	}
	defer in.Close()

	var out io.Writer = io.Discard
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("failed to create output: %v", err)
		}
		defer f.Close()
		w := bufio.NewWriter(f)
		defer w.Flush()
		out = w
	}

	var db *stabdb.DB
	sessionID := ""
	if *dbPath != "" {
		db, err = stabdb.Open(*dbPath)
		if err != nil {
			log.Fatalf("failed to open metrics db: %v", err)
		}
		defer db.Close()

		settingsJSON, _ := json.Marshal(settings)
		session := &stabdb.Session{
			SessionID:    uuid.New().String(),
			Source:       *input,
			FrameWidth:   *width,
			FrameHeight:  *height,
			SettingsJSON: settingsJSON,
		}
		if err := db.InsertSession(session); err != nil {
			log.Fatalf("failed to record session: %v", err)
		}
		sessionID = session.SessionID
		log.Printf("recording metrics to %s (session %s)", *dbPath, sessionID)
	}

	session := stab.NewStabiliser(settings)
	plotter := monitor.NewTrajectoryPlotter()
	log.Printf("stabilising %dx%d stream, radius %d, frame delay %d",
		*width, *height, session.Settings().SmoothingRadius, session.FrameDelay())

	reader := bufio.NewReaderSize(in, *width**height)
	frameLen := *width * *height
	inputFrames, outputFrames := 0, 0

	for {
		pix := make([]uint8, frameLen)
		if _, err := io.ReadFull(reader, pix); err != nil {
			if err == io.EOF {
				break
			}
			if err == io.ErrUnexpectedEOF {
				log.Printf("discarding truncated trailing frame")
				break
			}
			log.Fatalf("read error: %v", err)
		}
		inputFrames++

		start := time.Now()
		result, ok := session.Process(frame.FromPix(*width, *height, pix))
		if !ok {
			continue
		}
		elapsed := time.Since(start)
		outputFrames++

		if _, err := out.Write(result.Frame.Pix); err != nil {
			log.Fatalf("write error: %v", err)
		}

		plotter.Record(monitor.PathSample{
			FrameIndex:      result.FrameIndex,
			RawX:            result.RawPath.X,
			RawY:            result.RawPath.Y,
			SmoothedX:       result.SmoothedPath.X,
			SmoothedY:       result.SmoothedPath.Y,
			TrackingQuality: result.TrackingQuality,
			SceneStability:  result.SceneStability,
			Reduction:       result.Reduction,
		})

		if db != nil {
			metric := &stabdb.FrameMetric{
				SessionID:       sessionID,
				FrameIndex:      result.FrameIndex,
				RawPathX:        result.RawPath.X,
				RawPathY:        result.RawPath.Y,
				SmoothedPathX:   result.SmoothedPath.X,
				SmoothedPathY:   result.SmoothedPath.Y,
				TrackingQuality: result.TrackingQuality,
				SceneStability:  result.SceneStability,
				CorrectionPx:    correctionMagnitude(result),
				Reduction:       result.Reduction,
				ProcessNanos:    elapsed.Nanoseconds(),
			}
			if err := db.InsertFrameMetric(metric); err != nil {
				log.Printf("failed to record frame metric: %v", err)
			}
		}
	}

	log.Printf("done: %d frames in, %d frames out (fixed delay %d)",
		inputFrames, outputFrames, session.FrameDelay())

	if *plotDir != "" {
		if err := os.MkdirAll(*plotDir, 0o755); err != nil {
			log.Fatalf("failed to create plot dir: %v", err)
		}
		if err := plotter.WritePlots(*plotDir); err != nil {
			log.Fatalf("failed to write plots: %v", err)
		}
		log.Printf("wrote trajectory plots to %s", *plotDir)
	}
	if *reportPath != "" && len(plotter.Samples()) > 0 {
		if err := plotter.WriteReport(*reportPath); err != nil {
			log.Fatalf("failed to write report: %v", err)
		}
		log.Printf("wrote report to %s", *reportPath)
	}
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// correctionMagnitude reduces the applied transform to a single trending
// number: the length of its translation component in pixels.
func correctionMagnitude(r *stab.Result) float64 {
	return math.Hypot(r.Transform.Translation.X, r.Transform.Translation.Y)
}
