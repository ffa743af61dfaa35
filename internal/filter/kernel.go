package filter

import (
	"math"

	"github.com/gogpu/textbehind/internal/cache"
)

// KernelReach is the number of pixels a Gaussian of the given sigma
// spreads on each side: ceil(3σ), or 0 when there is no blur.
func KernelReach(sigma float64) int {
	if sigma <= 0 {
		return 0
	}
	return int(math.Ceil(3 * sigma))
}

// GaussianKernel returns the normalised 1D kernel for sigma, of length
// 2*KernelReach(sigma)+1. A sigma of zero or less gives [1].
func GaussianKernel(sigma float64) []float32 {
	reach := KernelReach(sigma)
	if reach == 0 {
		return []float32{1}
	}

	weights := make([]float64, 2*reach+1)
	var total float64
	for i := range weights {
		d := float64(i - reach)
		weights[i] = math.Exp(-d * d / (2 * sigma * sigma))
		total += weights[i]
	}

	k := make([]float32, len(weights))
	for i, w := range weights {
		k[i] = float32(w / total)
	}
	return k
}

// Shadow sizes come from a slider, so a handful of sigmas repeat.
var kernels = cache.New[int, []float32](64)

// CachedGaussianKernel is GaussianKernel with sigma quantised to 0.01 and
// the result shared between callers. The returned slice must not be
// modified.
func CachedGaussianKernel(sigma float64) []float32 {
	key := int(sigma * 100)
	if k, ok := kernels.Get(key); ok {
		return k
	}
	k := GaussianKernel(float64(key) / 100)
	kernels.Add(key, k)
	return k
}
