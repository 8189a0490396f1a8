// Package mix provides crossfades and buffer summing.
package mix

// CrossfadeLinear performs a linear crossfade.
// position: 0.0 = 100% a, 1.0 = 100% b
func CrossfadeLinear(a, b, position float32) float32 {
	return a*(1-position) + b*position
}

// Clear zeroes dst.
func Clear(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
}

// AddScaled accumulates src*gain into dst over the shorter length.
func AddScaled(dst, src []float32, gain float32) {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] += src[i] * gain
	}
}

// Scale multiplies dst by gain in place.
func Scale(dst []float32, gain float32) {
	for i := range dst {
		dst[i] *= gain
	}
}
