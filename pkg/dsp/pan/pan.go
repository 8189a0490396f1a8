// Package pan provides stereo panning laws.
package pan

import "math"

// Law represents different panning laws
type Law int

const (
	// Linear splits the signal so left+right = 1.
	Linear Law = iota
	// ConstantPower keeps left²+right² = 1.
	ConstantPower
)

// MonoToStereo returns left and right gains for pan in [-1, 1]
// (-1 hard left, 0 center, 1 hard right). Out of range values are clamped.
func MonoToStereo(pan float32, law Law) (left, right float32) {
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	if law == ConstantPower {
		angle := float64(pan+1) * math.Pi / 4
		return float32(math.Cos(angle)), float32(math.Sin(angle))
	}
	return (1 - pan) * 0.5, (1 + pan) * 0.5
}

// FromPosition maps a position in [0, 1] (0 left, 1 right) onto [-1, 1].
func FromPosition(position float64) float32 {
	return float32(2*position - 1)
}

// Process pans a mono buffer into two output buffers.
func Process(mono []float32, pan float32, law Law, leftOut, rightOut []float32) {
	l, r := MonoToStereo(pan, law)
	n := min(len(mono), len(leftOut), len(rightOut))
	for i := 0; i < n; i++ {
		leftOut[i] = mono[i] * l
		rightOut[i] = mono[i] * r
	}
}
