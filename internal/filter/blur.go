package filter

import "sync"

// plane is a single-channel float image, row-major.
type plane struct {
	pix  []float32
	w, h int
}

var scratch = sync.Pool{
	New: func() any { return new([]float32) },
}

// gaussianBlur blurs p in place with a separable Gaussian of the given
// sigma. Samples outside the plane count as zero, so content near the edge
// fades out instead of smearing.
func (p plane) gaussianBlur(sigma float64) {
	if sigma <= 0 || p.w == 0 || p.h == 0 {
		return
	}
	k := CachedGaussianKernel(sigma)

	buf := scratch.Get().(*[]float32)
	defer scratch.Put(buf)
	if cap(*buf) < len(p.pix) {
		*buf = make([]float32, len(p.pix))
	}
	tmp := (*buf)[:len(p.pix)]

	// Rows into tmp, then columns back into p.
	convolve(p.pix, tmp, p.w, p.h, 1, p.w, k)
	convolve(tmp, p.pix, p.h, p.w, p.w, 1, k)
}

// convolve runs the kernel along n lines of length size. step is the
// distance between neighbouring samples on a line and next the distance
// between the starts of consecutive lines.
func convolve(src, dst []float32, size, n, step, next int, k []float32) {
	reach := len(k) / 2
	for line := range n {
		base := line * next
		for i := range size {
			var sum float32
			lo := max(i-reach, 0)
			hi := min(i+reach, size-1)
			for j := lo; j <= hi; j++ {
				sum += src[base+j*step] * k[j-i+reach]
			}
			dst[base+i*step] = sum
		}
	}
}
