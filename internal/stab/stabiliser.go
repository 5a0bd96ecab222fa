package stab

import (
	"fmt"

	"github.com/steadyframe/stabilise/internal/monitoring"
	"github.com/steadyframe/stabilise/internal/vision/frame"
	"github.com/steadyframe/stabilise/internal/vision/motion"
	"github.com/steadyframe/stabilise/internal/vision/spatial"
	"github.com/steadyframe/stabilise/internal/vision/tracker"
)

// Smoothing radius and crop bounds. The radius is the look-ahead/look-back
// half window in frames; the crop proportion is the total fraction of the
// frame conceded per dimension to hide warp borders.
const (
	SmoothingRadiusMin     = 2
	SmoothingRadiusMax     = 30
	SmoothingRadiusDefault = 14

	CropProportionMin     = 0.01
	CropProportionMax     = 0.25
	CropProportionDefault = 0.05

	// cropSearchIterations bounds the enclosure search; the final step
	// lands exactly on the identity transform.
	cropSearchIterations = 100
)

// RoundEven rounds n to the nearest even integer, rounding up on ties.
func RoundEven(n int) int {
	if n%2 != 0 {
		return n + 1
	}
	return n
}

// Settings configures a Stabiliser session.
type Settings struct {
	// SmoothingRadius R sizes the delay queue (R+2) and the smoothing
	// window (2R+1). It is rounded to even and clamped to
	// [SmoothingRadiusMin, SmoothingRadiusMax] by NewStabiliser.
	SmoothingRadius int

	// CropProportion is the total crop fraction per dimension, clamped to
	// [CropProportionMin, CropProportionMax].
	CropProportion float64

	// TestMode keeps the output at the full frame size so the crop border
	// remains visible for tuning.
	TestMode bool

	Tracker tracker.Settings
}

// DefaultSettings returns production-default stabiliser parameters.
func DefaultSettings() Settings {
	return Settings{
		SmoothingRadius: SmoothingRadiusDefault,
		CropProportion:  CropProportionDefault,
		Tracker:         tracker.DefaultSettings(),
	}
}

// Result is the finalized output for one frame once the pipeline's buffers
// are full.
type Result struct {
	// Frame is the oldest buffered frame warped by Transform.
	Frame *frame.Frame

	// Transform is the corrective warp actually applied, after the
	// crop-enclosure search.
	Transform motion.Transform

	// CropRegion is the centred crop rectangle inside the warped frame.
	CropRegion spatial.Rect

	// Output dimensions: the crop size, or the full frame in test mode.
	OutputWidth  int
	OutputHeight int

	// FrameIndex is the zero-based stream index of the input frame this
	// result corresponds to (the oldest queued frame).
	FrameIndex int64

	// Raw and smoothed accumulated camera path positions (translation
	// component) at this frame, for diagnostics and plotting.
	RawPath      spatial.Point
	SmoothedPath spatial.Point

	// Diagnostics from the motion estimate that produced this output's
	// velocity sample. They are delayed alongside the frame queue, so
	// they describe the emitted frame rather than the newest input.
	TrackingQuality float64
	SceneStability  float64

	// Reduction is the fraction by which the corrective transform was
	// pulled toward identity to keep the crop enclosed (0 = unreduced).
	Reduction float64
}

// frameDiagnostics snapshots the tracker's per-frame quality estimates so
// they can be delayed to match the frame they describe.
type frameDiagnostics struct {
	trackingQuality float64
	sceneStability  float64
}

// Stabiliser is a single-stream stabilisation session: per incoming frame
// it runs one track + smooth + crop-search pass, producing output delayed
// by the frame queue's window. All state is exclusively owned; concurrent
// streams each need their own Stabiliser.
type Stabiliser struct {
	settings Settings
	tracker  *tracker.FrameTracker

	radius      int
	queue       *SlidingBuffer[*frame.Frame]
	trajectory  *SlidingBuffer[motion.FrameVector]
	filter      *SlidingBuffer[float64]
	diagnostics *SlidingBuffer[frameDiagnostics]

	inputCount int64

	// Derived from the oldest queued frame each output pass.
	cropRegion   spatial.Rect
	outputWidth  int
	outputHeight int
}

// NewStabiliser creates a session with normalised settings: the smoothing
// radius is rounded to even and clamped, as is the crop proportion.
func NewStabiliser(settings Settings) *Stabiliser {
	settings.SmoothingRadius = clampInt(RoundEven(settings.SmoothingRadius),
		SmoothingRadiusMin, SmoothingRadiusMax)
	settings.CropProportion = clampFloat(settings.CropProportion,
		CropProportionMin, CropProportionMax)

	s := &Stabiliser{
		settings: settings,
		tracker:  tracker.New(settings.Tracker),
	}
	s.prepareBuffers(settings.SmoothingRadius)
	return s
}

// Settings returns the normalised session settings.
func (s *Stabiliser) Settings() Settings { return s.settings }

// FrameDelay returns the constant output latency in frames.
func (s *Stabiliser) FrameDelay() int { return s.queue.WindowSize() }

// OutputSize returns the output dimensions derived on the last output
// pass; zero before the first output.
func (s *Stabiliser) OutputSize() (w, h int) { return s.outputWidth, s.outputHeight }

// Ready reports whether both ring buffers are full and output is flowing.
// By construction the two buffers fill on the same advance.
func (s *Stabiliser) Ready() bool {
	if s.trajectory.Full() != s.queue.Full() {
		panic("stab: trajectory and frame queue desynchronised")
	}
	return s.trajectory.Full() && s.queue.Full()
}

// Reset aborts all accumulated state: both ring buffers and the tracker's
// feature history. Output resumes only after the buffers refill.
func (s *Stabiliser) Reset() {
	s.resetBuffers()
	s.tracker.Restart()
	s.inputCount = 0
}

// Process feeds one frame through the pipeline. Until the delay buffers
// fill, it returns ok=false; afterwards every call yields the stabilised
// form of the oldest queued frame. The frame is moved into the session and
// must not be mutated by the caller afterwards.
func (s *Stabiliser) Process(f *frame.Frame) (*Result, bool) {
	if f == nil {
		panic("stab: nil frame")
	}

	s.inputCount++
	s.queue.Advance(f)

	field, tracked := s.tracker.Track(f)
	velocity := motion.Identity()
	if tracked {
		velocity = field.Global
	} else if s.inputCount > 1 {
		// Expected, recoverable: hold the previous correction by treating
		// the camera as stationary for this frame.
		monitoring.Logf("stab: insufficient motion evidence at frame %d; holding correction", s.inputCount-1)
	}

	displacement := s.trajectory.Newest().Displacement.Add(velocity)
	s.trajectory.Advance(motion.FrameVector{Displacement: displacement, Velocity: velocity})
	s.diagnostics.Advance(frameDiagnostics{
		trackingQuality: s.tracker.TrackingQuality(),
		sceneStability:  s.tracker.SceneStability(),
	})

	if !s.Ready() {
		return nil, false
	}

	oldest := s.queue.Oldest()
	s.deriveOutputGeometry(oldest)

	// The smoothed displacement target is the Gaussian-weighted mean of
	// the centred window; the correction steers the centre frame from its
	// raw path position onto that target.
	centre := s.trajectory.Centre()
	smoothed := s.convolveTrajectory()
	correction := smoothed.Displacement.Sub(centre.Displacement)
	smoothWarp := centre.Velocity.Add(correction)

	applied, reduction := s.encloseCrop(oldest.Bounds(), smoothWarp)

	diag := s.diagnostics.Oldest()

	return &Result{
		Frame:           oldest.Warp(applied),
		Transform:       applied,
		CropRegion:      s.cropRegion,
		OutputWidth:     s.outputWidth,
		OutputHeight:    s.outputHeight,
		FrameIndex:      s.inputCount - int64(s.queue.WindowSize()),
		RawPath:         centre.Displacement.Translation,
		SmoothedPath:    smoothed.Displacement.Translation,
		TrackingQuality: diag.trackingQuality,
		SceneStability:  diag.sceneStability,
		Reduction:       reduction,
	}, true
}

// prepareBuffers sizes both ring buffers from the smoothing radius and
// regenerates the Gaussian kernel. Stabilisation needs a full-sized window
// over past AND future frames; the future half is obtained by delaying the
// stream through the half-sized frame queue, whose oldest element lines up
// with the centre of the trajectory window.
func (s *Stabiliser) prepareBuffers(radius int) {
	if radius < SmoothingRadiusMin || radius%2 != 0 {
		panic(fmt.Sprintf("stab: invalid smoothing radius %d", radius))
	}

	s.radius = radius
	queueSize := radius + 2
	windowSize := 2*radius + 1

	s.queue = NewSlidingBuffer[*frame.Frame](queueSize)
	s.trajectory = NewSlidingBuffer[motion.FrameVector](windowSize)

	// The window centre's velocity sample is estimated radius inputs after
	// the frame it belongs to, so a buffer of radius+1 entries makes the
	// oldest snapshot line up with the emitted frame.
	s.diagnostics = NewSlidingBuffer[frameDiagnostics](radius + 1)

	s.filter = NewSlidingBuffer[float64](windowSize)
	for _, w := range gaussianKernel(windowSize) {
		s.filter.Advance(w)
	}

	s.resetBuffers()
}

// resetBuffers clears both ring buffers and re-establishes their relative
// synchronisation. The tracker reports the motion from the previous frame
// to the current one, while the window centre must align with the motion
// from the queued frame to its successor, so the trajectory is seeded one
// element short of the queue's head. Each seed extends the previous one by
// an identity velocity, exactly as Process accumulates during live
// operation; keeping the displacement ramp linear through the seed region
// is what stops the windowed mean from diverging from the centre on the
// first outputs after a reset.
func (s *Stabiliser) resetBuffers() {
	if s.trajectory.WindowSize() <= s.queue.WindowSize() {
		panic("stab: trajectory window must exceed frame queue window")
	}

	s.queue.Clear()
	s.trajectory.Clear()
	s.diagnostics.Clear()

	s.trajectory.Advance(motion.IdentityVector())
	for s.trajectory.Len() < s.radius-1 {
		prev := s.trajectory.Newest()
		s.trajectory.Advance(motion.FrameVector{
			Displacement: prev.Displacement.Add(motion.Identity()),
			Velocity:     motion.Identity(),
		})
	}
}

// convolveTrajectory convolves the full trajectory window with the
// Gaussian kernel.
func (s *Stabiliser) convolveTrajectory() motion.FrameVector {
	var sum motion.FrameVector
	for i := 0; i < s.trajectory.Len(); i++ {
		sum = sum.Add(s.trajectory.At(i).Mul(s.filter.At(i)))
	}
	return sum
}

// deriveOutputGeometry computes the crop rectangle and output size for the
// frame about to be emitted.
func (s *Stabiliser) deriveOutputGeometry(f *frame.Frame) {
	horzCrop := int(float64(f.Width) * s.settings.CropProportion)
	vertCrop := int(float64(f.Height) * s.settings.CropProportion)

	s.cropRegion = spatial.Rect{
		X: float64(horzCrop / 2),
		Y: float64(vertCrop / 2),
		W: float64(f.Width - horzCrop),
		H: float64(f.Height - vertCrop),
	}

	if s.settings.TestMode {
		s.outputWidth, s.outputHeight = f.Width, f.Height
	} else {
		s.outputWidth = int(s.cropRegion.W)
		s.outputHeight = int(s.cropRegion.H)
	}
}

// encloseCrop reduces the magnitude of the corrective transform until the
// warped frame fully encloses the crop region, by iteratively lerping the
// transform back toward identity in fixed fractional steps. The final step
// is the identity transform itself, which trivially encloses any crop
// inside the unwarped frame, so the search always terminates with a safe
// warp. It returns the transform and the reduction fraction applied.
func (s *Stabiliser) encloseCrop(bounds spatial.Rect, t motion.Transform) (motion.Transform, float64) {
	identity := motion.Identity()
	step := 1.0 / float64(cropSearchIterations)

	reduced := t
	applied := 0.0
	warped := motion.TransformedRect(bounds, reduced)
	for i := 1; i <= cropSearchIterations && !warped.Encloses(s.cropRegion); i++ {
		applied = float64(i) * step
		reduced = motion.Lerp(t, identity, applied)
		warped = motion.TransformedRect(bounds, reduced)
	}
	return reduced, applied
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
