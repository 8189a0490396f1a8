package param

import "math"

// SmoothingType selects the ramp shape used by a Smoother.
type SmoothingType int

const (
	// LinearSmoothing reaches the target after a fixed number of samples.
	LinearSmoothing SmoothingType = iota
	// ExponentialSmoothing is a one-pole lowpass towards the target.
	ExponentialSmoothing
)

// Smoother ramps a control value per sample to avoid zipper noise.
// It is owned by the audio thread; feed it targets read from a Parameter.
type Smoother struct {
	kind      SmoothingType
	current   float64
	target    float64
	rate      float64 // samples for linear, pole coefficient for exponential
	step      float64
	threshold float64
	active    bool
}

// NewSmoother creates a smoother. For LinearSmoothing rate is the ramp
// length in samples, for ExponentialSmoothing it is the pole (0.9-0.9999).
func NewSmoother(kind SmoothingType, rate float64) *Smoother {
	return &Smoother{kind: kind, rate: rate, threshold: 1e-4}
}

// NewRampSmoother creates a linear smoother ramping over ms at sampleRate.
func NewRampSmoother(sampleRate, ms float64) *Smoother {
	return NewSmoother(LinearSmoothing, math.Max(1, sampleRate*ms/1000))
}

// SetTarget starts a ramp towards target.
func (s *Smoother) SetTarget(target float64) {
	if math.Abs(target-s.target) < s.threshold && !s.active {
		return
	}
	s.target = target
	s.active = true
	if s.kind == LinearSmoothing && s.rate > 0 {
		s.step = (target - s.current) / s.rate
	}
}

// Next advances one sample and returns the smoothed value.
func (s *Smoother) Next() float64 {
	if !s.active {
		return s.current
	}

	switch s.kind {
	case ExponentialSmoothing:
		s.current += (s.target - s.current) * (1 - s.rate)
		if math.Abs(s.current-s.target) < s.threshold {
			s.finish()
		}
	default:
		s.current += s.step
		if s.step == 0 || (s.step > 0 && s.current >= s.target) || (s.step < 0 && s.current <= s.target) {
			s.finish()
		}
	}
	return s.current
}

// Apply multiplies buffer by the smoothed value sample by sample.
func (s *Smoother) Apply(buffer []float32) {
	if !s.active {
		g := float32(s.current)
		for i := range buffer {
			buffer[i] *= g
		}
		return
	}
	for i := range buffer {
		buffer[i] *= float32(s.Next())
	}
}

// IsSmoothing reports whether a ramp is in progress.
func (s *Smoother) IsSmoothing() bool {
	return s.active
}

// Current returns the last produced value.
func (s *Smoother) Current() float64 {
	return s.current
}

// Reset jumps straight to value.
func (s *Smoother) Reset(value float64) {
	s.current = value
	s.target = value
	s.active = false
}

// SetRate updates the smoothing rate.
func (s *Smoother) SetRate(rate float64) {
	s.rate = rate
}

func (s *Smoother) finish() {
	s.current = s.target
	s.active = false
}
