// Package tracker estimates global and local camera motion between
// consecutive video frames from noisy, partially matched feature
// correspondences.
package tracker

import (
	"fmt"

	"github.com/steadyframe/stabilise/internal/vision/features"
	"github.com/steadyframe/stabilise/internal/vision/frame"
	"github.com/steadyframe/stabilise/internal/vision/motion"
	"github.com/steadyframe/stabilise/internal/vision/spatial"
)

// Settings configures a FrameTracker.
type Settings struct {
	Detector  features.DetectorSettings
	Matcher   features.MatchSettings
	Consensus motion.ConsensusParams

	// MotionResolution is the grid over which per-cell local motion
	// residuals are estimated.
	MotionResolution spatial.GridSize

	// MinMotionQuality is the minimum inlier fraction for a motion
	// estimate to be trusted.
	MinMotionQuality float64

	// MinMotionSamples is the minimum number of matched correspondences
	// for a motion estimate to be trusted.
	MinMotionSamples int

	// MinTrackedPoints triggers a feature refresh when the surviving
	// point set drops below this count.
	MinTrackedPoints int
}

// DefaultSettings returns tracker parameters matched to standard video
// resolutions.
func DefaultSettings() Settings {
	return Settings{
		Detector:         features.DefaultDetectorSettings(),
		Matcher:          features.DefaultMatchSettings(),
		Consensus:        motion.DefaultConsensusParams(),
		MotionResolution: spatial.GridSize{Cols: 2, Rows: 2},
		MinMotionQuality: 0.3,
		MinMotionSamples: 100,
		MinTrackedPoints: 150,
	}
}

// localAccum accumulates the residual vectors of inlier points within one
// motion-grid cell.
type localAccum struct {
	sum   spatial.Point
	count int
}

// FrameTracker turns consecutive frames into a robust global+local motion
// representation. A tracker is exclusively owned by one stabilisation
// session; it is not safe for concurrent use.
type FrameTracker struct {
	settings Settings

	initialized bool
	prev        *frame.Frame
	region      spatial.Rect

	trackedPoints []spatial.Point
	motionGrid    *spatial.SpatialMap[localAccum]

	trackingQuality float64
	sceneStability  float64
}

// New creates a FrameTracker with the given settings.
func New(settings Settings) *FrameTracker {
	if settings.MinMotionSamples < 2 {
		panic("tracker: MinMotionSamples must be at least 2")
	}
	return &FrameTracker{settings: settings}
}

// Restart discards the previous frame and all accumulated feature history,
// returning the tracker to its uninitialised state.
func (t *FrameTracker) Restart() {
	t.initialized = false
	t.prev = nil
	t.trackedPoints = t.trackedPoints[:0]
	t.trackingQuality = 0
	t.sceneStability = 0
}

// TrackingQuality returns the inlier fraction of the last successful
// estimate.
func (t *FrameTracker) TrackingQuality() float64 { return t.trackingQuality }

// SceneStability returns the motion-consistency score of the last
// successful estimate.
func (t *FrameTracker) SceneStability() float64 { return t.sceneStability }

// MotionResolution returns the local-motion grid resolution.
func (t *FrameTracker) MotionResolution() spatial.GridSize {
	return t.settings.MotionResolution
}

// TrackingRegion returns the region features are tracked over; the zero
// rect before the first frame is seen.
func (t *FrameTracker) TrackingRegion() spatial.Rect { return t.region }

// TrackingPoints returns the live feature point set, for diagnostics only.
// The slice is owned by the tracker and invalidated by the next Track call.
func (t *FrameTracker) TrackingPoints() []spatial.Point { return t.trackedPoints }

// Track advances the tracker with the next frame and estimates the motion
// from the previous frame to it.
//
// The first call after creation or Restart only primes the tracker and
// reports ok=false: there is no motion without a prior frame. Subsequent
// calls report ok=false when there is insufficient motion evidence (too few
// matches or low inlier quality), which is an expected, recoverable
// condition; callers should hold their previous correction.
//
// A nil frame or a frame whose size differs from the previous frame is a
// caller bug and panics.
func (t *FrameTracker) Track(next *frame.Frame) (motion.WarpField, bool) {
	if next == nil {
		panic("tracker: nil frame")
	}

	if !t.initialized {
		t.prime(next)
		return motion.WarpField{}, false
	}
	if !t.prev.SameSize(next) {
		panic(fmt.Sprintf("tracker: frame size changed %dx%d -> %dx%d",
			t.prev.Width, t.prev.Height, next.Width, next.Height))
	}

	// Refresh the feature set against the previous frame once it has
	// degraded below the retention threshold.
	if len(t.trackedPoints) < t.settings.MinTrackedPoints {
		t.detectPoints()
	}

	matched, status := features.Match(t.prev, next, t.trackedPoints, t.settings.Matcher)

	src := make([]spatial.Point, 0, len(t.trackedPoints))
	dst := make([]spatial.Point, 0, len(t.trackedPoints))
	for i, ok := range status {
		if ok {
			src = append(src, t.trackedPoints[i])
			dst = append(dst, matched[i])
		}
	}

	// Advance the frame state regardless of the estimation outcome so a
	// run of bad frames recovers as soon as the scene does.
	t.prev = next

	if len(src) < t.settings.MinMotionSamples {
		t.trackedPoints = t.trackedPoints[:0]
		return motion.WarpField{}, false
	}

	global, inliers, err := motion.EstimateRobust(src, dst, t.settings.Consensus)
	if err != nil {
		t.trackedPoints = t.trackedPoints[:0]
		return motion.WarpField{}, false
	}

	inlierCount := 0
	for _, in := range inliers {
		if in {
			inlierCount++
		}
	}
	quality := float64(inlierCount) / float64(len(src))

	if inlierCount < t.settings.MinMotionSamples || quality < t.settings.MinMotionQuality {
		t.trackedPoints = t.trackedPoints[:0]
		return motion.WarpField{}, false
	}

	t.trackingQuality = quality
	t.sceneStability = motion.ResidualStability(global, src, dst, inliers)

	field := t.estimateLocalMotions(global, src, dst, inliers)

	// Carry the matched inlier positions forward as the next frame's point
	// set; it degrades over time and triggers re-detection.
	live := t.trackedPoints[:0]
	for i, in := range inliers {
		if in {
			live = append(live, dst[i])
		}
	}
	t.trackedPoints = live

	return field, true
}

// prime stores the first frame and derives the tracking region.
func (t *FrameTracker) prime(first *frame.Frame) {
	t.prev = first
	t.region = first.Bounds()
	t.motionGrid = spatial.NewSpatialMap[localAccum](t.settings.MotionResolution, t.region)
	t.trackedPoints = t.trackedPoints[:0]
	t.initialized = true
}

// detectPoints refreshes the tracked point set from the previous frame.
func (t *FrameTracker) detectPoints() {
	feats := features.Detect(t.prev, t.region, t.settings.Detector)
	t.trackedPoints = t.trackedPoints[:0]
	for _, f := range feats {
		t.trackedPoints = append(t.trackedPoints, f.Point)
	}
}

// estimateLocalMotions partitions inlier correspondences over the motion
// grid and derives the per-cell residual: the mean of (matched minus globally
// predicted) for points in that cell. Cells with no inliers get the zero
// residual.
func (t *FrameTracker) estimateLocalMotions(global motion.Transform, src, dst []spatial.Point, inliers []bool) motion.WarpField {
	t.motionGrid.Clear()

	for i := range src {
		if !inliers[i] {
			continue
		}
		predicted := global.Apply(src[i])
		residual := dst[i].Sub(predicted)
		if !t.motionGrid.WithinBounds(src[i]) {
			continue
		}
		cell := t.motionGrid.Obtain(t.motionGrid.KeyOf(src[i]))
		cell.sum = cell.sum.Add(residual)
		cell.count++
	}

	res := t.settings.MotionResolution
	offsets := make([]spatial.Point, res.Cols*res.Rows)
	for _, e := range t.motionGrid.Entries() {
		if e.Value.count == 0 {
			continue
		}
		offsets[e.Key.Row*res.Cols+e.Key.Col] = e.Value.sum.Scale(1 / float64(e.Value.count))
	}

	return motion.WarpField{Global: global, Resolution: res, Offsets: offsets}
}
