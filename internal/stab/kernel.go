package stab

import "math"

// gaussianKernel returns a normalised Gaussian low-pass kernel of the given
// length with sigma = size/6, so roughly 99.7% of the distribution's mass
// lies inside the window. A Gaussian is used over a plain average or a
// windowed sinc because it behaves well in both the time and frequency
// domain, trading frequency selectivity for bounded latency.
func gaussianKernel(size int) []float64 {
	if size < 1 {
		panic("stab: kernel size must be positive")
	}

	sigma := float64(size) / 6.0
	centre := float64(size-1) / 2.0

	kernel := make([]float64, size)
	var sum float64
	for i := range kernel {
		d := float64(i) - centre
		kernel[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}
