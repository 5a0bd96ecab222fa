package motion

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/steadyframe/stabilise/internal/vision/spatial"
)

// ConsensusParams tunes the RANSAC-style robust estimator.
type ConsensusParams struct {
	Iterations      int     // random minimal-sample draws
	InlierThreshold float64 // max reprojection distance (pixels) to count as inlier
	MinInliers      int     // below this the estimate is rejected outright
	Seed            int64   // deterministic sampling seed; 0 uses a fixed default
}

// DefaultConsensusParams returns estimator parameters suitable for feature
// tracks on typical video resolutions.
func DefaultConsensusParams() ConsensusParams {
	return ConsensusParams{
		Iterations:      64,
		InlierThreshold: 2.0,
		MinInliers:      4,
	}
}

// EstimateSimilarity fits a similarity transform mapping src[i] to dst[i] by
// linear least squares. At least two correspondences are required; the
// system degenerates when all source points coincide.
//
// The fit solves for (a, b, tx, ty) in
//
//	x' = a*x - b*y + tx
//	y' = b*x + a*y + ty
//
// via QR factorisation and converts back to component form.
func EstimateSimilarity(src, dst []spatial.Point) (Transform, error) {
	if len(src) != len(dst) {
		panic(fmt.Sprintf("motion: mismatched correspondence sets (%d vs %d)", len(src), len(dst)))
	}
	if len(src) < 2 {
		return Transform{}, fmt.Errorf("motion: need at least 2 correspondences, have %d", len(src))
	}

	a := mat.NewDense(2*len(src), 4, nil)
	b := mat.NewVecDense(2*len(src), nil)
	for i, p := range src {
		q := dst[i]
		a.SetRow(2*i, []float64{p.X, -p.Y, 1, 0})
		a.SetRow(2*i+1, []float64{p.Y, p.X, 0, 1})
		b.SetVec(2*i, q.X)
		b.SetVec(2*i+1, q.Y)
	}

	var qr mat.QR
	qr.Factorize(a)

	var x mat.VecDense
	if err := qr.SolveVecTo(&x, false, b); err != nil {
		return Transform{}, fmt.Errorf("motion: degenerate correspondence set: %w", err)
	}

	ca, cb := x.AtVec(0), x.AtVec(1)
	return Transform{
		Translation: spatial.Point{X: x.AtVec(2), Y: x.AtVec(3)},
		Rotation:    math.Atan2(cb, ca),
		Scale:       math.Hypot(ca, cb),
	}, nil
}

// similarityFromPair builds the similarity transform taking the segment
// (s0, s1) onto (d0, d1) in closed form. Returns false when the source
// points coincide.
func similarityFromPair(s0, s1, d0, d1 spatial.Point) (Transform, bool) {
	sv := s1.Sub(s0)
	dv := d1.Sub(d0)
	slen := math.Hypot(sv.X, sv.Y)
	if slen < 1e-9 {
		return Transform{}, false
	}

	t := Transform{
		Rotation: math.Atan2(dv.Y, dv.X) - math.Atan2(sv.Y, sv.X),
		Scale:    math.Hypot(dv.X, dv.Y) / slen,
	}
	moved := t.Apply(s0)
	t.Translation = d0.Sub(moved)
	return t, true
}

// EstimateRobust fits a global similarity transform from noisy, partially
// mismatched correspondences using random minimal-sample consensus. It
// returns the refined transform, a per-correspondence inlier flag slice,
// and an error when no model reaches params.MinInliers.
//
// The inlier flags let callers derive tracking quality (inlier fraction)
// and feed only consistent points into local motion estimation.
func EstimateRobust(src, dst []spatial.Point, params ConsensusParams) (Transform, []bool, error) {
	if len(src) != len(dst) {
		panic(fmt.Sprintf("motion: mismatched correspondence sets (%d vs %d)", len(src), len(dst)))
	}
	if params.Iterations <= 0 || params.InlierThreshold <= 0 {
		panic("motion: consensus params must be positive")
	}
	n := len(src)
	if n < 2 || n < params.MinInliers {
		return Transform{}, nil, fmt.Errorf("motion: too few correspondences (%d)", n)
	}

	seed := params.Seed
	if seed == 0 {
		seed = 1
	}
	rng := rand.New(rand.NewSource(seed))

	threshSq := params.InlierThreshold * params.InlierThreshold
	bestCount := 0
	bestInliers := make([]bool, n)
	inliers := make([]bool, n)

	for iter := 0; iter < params.Iterations; iter++ {
		i := rng.Intn(n)
		j := rng.Intn(n)
		if i == j {
			continue
		}
		model, ok := similarityFromPair(src[i], src[j], dst[i], dst[j])
		if !ok {
			continue
		}

		count := 0
		for k := range src {
			d := model.Apply(src[k]).Sub(dst[k])
			inliers[k] = d.X*d.X+d.Y*d.Y <= threshSq
			if inliers[k] {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			copy(bestInliers, inliers)
		}
	}

	if bestCount < params.MinInliers {
		return Transform{}, nil, fmt.Errorf("motion: consensus found only %d inliers (need %d)",
			bestCount, params.MinInliers)
	}

	// Refine on the full inlier set.
	inSrc := make([]spatial.Point, 0, bestCount)
	inDst := make([]spatial.Point, 0, bestCount)
	for k, in := range bestInliers {
		if in {
			inSrc = append(inSrc, src[k])
			inDst = append(inDst, dst[k])
		}
	}
	refined, err := EstimateSimilarity(inSrc, inDst)
	if err != nil {
		return Transform{}, nil, err
	}
	return refined, bestInliers, nil
}

// ResidualStability maps the spread of inlier reprojection residuals to a
// stability score in (0, 1]. Tight residuals (a rigid, well-explained
// scene) score near 1; widely spread residuals (parallax, independent
// motion) pull the score toward 0.
func ResidualStability(global Transform, src, dst []spatial.Point, inliers []bool) float64 {
	residuals := make([]float64, 0, len(src))
	for k := range src {
		if inliers != nil && !inliers[k] {
			continue
		}
		d := global.Apply(src[k]).Sub(dst[k])
		residuals = append(residuals, math.Hypot(d.X, d.Y))
	}
	if len(residuals) == 0 {
		return 0
	}

	mean, std := stat.MeanStdDev(residuals, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return 1.0 / (1.0 + mean + std)
}
