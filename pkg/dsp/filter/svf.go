// Package filter provides the voice filter.
package filter

import "math"

// SVF is a zero-delay-feedback state variable filter with per-channel
// state.
type SVF struct {
	g float32 // pre-warped frequency coefficient
	k float32 // damping, 1/Q

	a1, a2, a3 float32

	ic1eq []float32
	ic2eq []float32
}

// Outputs holds the simultaneous filter responses for one sample.
type Outputs struct {
	Lowpass  float32
	Bandpass float32
	Highpass float32
}

// NewSVF creates a filter for the given number of channels, open at
// 1 kHz / Q 0.707 for 48 kHz until configured.
func NewSVF(channels int) *SVF {
	s := &SVF{
		ic1eq: make([]float32, channels),
		ic2eq: make([]float32, channels),
	}
	s.SetFrequencyAndQ(48000, 1000, math.Sqrt2/2)
	return s
}

// Reset clears the filter state
func (s *SVF) Reset() {
	for i := range s.ic1eq {
		s.ic1eq[i] = 0
		s.ic2eq[i] = 0
	}
}

// SetFrequencyAndQ sets cutoff (Hz, kept below Nyquist) and resonance.
func (s *SVF) SetFrequencyAndQ(sampleRate, frequency, q float64) {
	if frequency > sampleRate*0.49 {
		frequency = sampleRate * 0.49
	}
	if frequency < 1 {
		frequency = 1
	}
	if q < 0.1 {
		q = 0.1
	}
	s.g = float32(math.Tan(math.Pi * frequency / sampleRate))
	s.k = float32(1 / q)
	s.a1 = 1 / (1 + s.g*(s.g+s.k))
	s.a2 = s.g * s.a1
	s.a3 = s.g * s.a2
}

// ProcessSample filters one sample on channel and returns every response.
func (s *SVF) ProcessSample(input float32, channel int) Outputs {
	ic1, ic2 := s.ic1eq[channel], s.ic2eq[channel]

	v3 := input - ic2
	v1 := s.a1*ic1 + s.a2*v3
	v2 := ic2 + s.a2*ic1 + s.a3*v3

	s.ic1eq[channel] = 2*v1 - ic1
	s.ic2eq[channel] = 2*v2 - ic2

	return Outputs{
		Lowpass:  v2,
		Bandpass: v1,
		Highpass: input - s.k*v1 - v2,
	}
}

// Lowpass filters one sample and returns the lowpass response.
func (s *SVF) Lowpass(input float32, channel int) float32 {
	return s.ProcessSample(input, channel).Lowpass
}

// ProcessLowpass processes buffer as lowpass filter - no allocations
func (s *SVF) ProcessLowpass(buffer []float32, channel int) {
	for i := range buffer {
		buffer[i] = s.Lowpass(buffer[i], channel)
	}
}
