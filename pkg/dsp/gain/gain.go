// Package gain provides amplitude conversions and clipping.
package gain

import "math"

// MinDB is treated as silence.
const MinDB = -120.0

// LinearToDb converts a linear amplitude value to decibels.
// Returns MinDB for values <= 0.
func LinearToDb(linear float64) float64 {
	if linear <= 0 {
		return MinDB
	}
	return math.Max(MinDB, 20*math.Log10(linear))
}

// DbToLinear converts a decibel value to linear amplitude.
// Values <= MinDB return 0.
func DbToLinear(db float64) float64 {
	if db <= MinDB {
		return 0
	}
	return math.Pow(10, db/20)
}

// ApplyBuffer applies gain to an entire buffer in-place.
func ApplyBuffer(buffer []float32, gain float32) {
	for i := range buffer {
		buffer[i] *= gain
	}
}

// HardClip limits input to [-threshold, threshold].
func HardClip(input, threshold float32) float32 {
	if input > threshold {
		return threshold
	}
	if input < -threshold {
		return -threshold
	}
	return input
}

// SoftClip passes input up to knee unchanged and saturates the excess
// smoothly toward 1. A knee of 1 or more hard clips at 1.
func SoftClip(input, knee float32) float32 {
	if knee >= 1 {
		return HardClip(input, 1)
	}
	a := input
	if a < 0 {
		a = -a
	}
	if a <= knee {
		return input
	}
	y := knee + (1-knee)*fastTanh((a-knee)/(1-knee))
	if input < 0 {
		return -y
	}
	return y
}

// fastTanh is a Pade approximation, exact at +-3.
func fastTanh(x float32) float32 {
	if x < -3 {
		return -1
	}
	if x > 3 {
		return 1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

// ToPCM16 converts a float sample to a clipped signed 16-bit value.
func ToPCM16(sample float32) int {
	return int(HardClip(sample, 1) * math.MaxInt16)
}
