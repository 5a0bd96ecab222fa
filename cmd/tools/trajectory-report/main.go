// Command trajectory-report renders plots and an HTML report from a
// metrics database recorded by cmd/stabilise.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/steadyframe/stabilise/internal/stab/monitor"
	"github.com/steadyframe/stabilise/internal/stabdb"
)

var (
	dbPath     = flag.String("db", "stabilise.db", "Metrics database path")
	sessionID  = flag.String("session", "", "Session to report (defaults to most recent)")
	plotDir    = flag.String("plot-dir", "", "Optional directory for PNG plots")
	reportPath = flag.String("out", "report.html", "HTML report output path")
)

func main() {
	flag.Parse()

	db, err := stabdb.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open metrics db: %v", err)
	}
	defer db.Close()

	id := *sessionID
	if id == "" {
		sessions, err := db.ListSessions()
		if err != nil {
			log.Fatalf("failed to list sessions: %v", err)
		}
		if len(sessions) == 0 {
			log.Fatal("no sessions recorded")
		}
		id = sessions[0].SessionID
	}

	metrics, err := db.FrameMetrics(id)
	if err != nil {
		log.Fatalf("failed to load frame metrics: %v", err)
	}
	if len(metrics) == 0 {
		log.Fatalf("session %s has no frame metrics", id)
	}

	plotter := monitor.NewTrajectoryPlotter()
	for _, m := range metrics {
		plotter.Record(monitor.PathSample{
			FrameIndex:      m.FrameIndex,
			RawX:            m.RawPathX,
			RawY:            m.RawPathY,
			SmoothedX:       m.SmoothedPathX,
			SmoothedY:       m.SmoothedPathY,
			TrackingQuality: m.TrackingQuality,
			SceneStability:  m.SceneStability,
			Reduction:       m.Reduction,
		})
	}

	if *plotDir != "" {
		if err := os.MkdirAll(*plotDir, 0o755); err != nil {
			log.Fatalf("failed to create plot dir: %v", err)
		}
		if err := plotter.WritePlots(*plotDir); err != nil {
			log.Fatalf("failed to write plots: %v", err)
		}
		log.Printf("wrote plots for session %s to %s", id, *plotDir)
	}

	if err := plotter.WriteReport(*reportPath); err != nil {
		log.Fatalf("failed to write report: %v", err)
	}
	log.Printf("wrote report for session %s to %s", id, *reportPath)
}
