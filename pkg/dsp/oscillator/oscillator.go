// Package oscillator provides the phase-accumulating oscillators used by
// synth voices.
package oscillator

import "math"

// Waveform selects the shape produced by Next.
type Waveform int

const (
	Sine Waveform = iota
	Saw
	Square
	Triangle
)

// Names lists the waveforms in selector order.
var Names = [...]string{"Sine", "Saw", "Square", "Triangle"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(Names) {
		return "Unknown"
	}
	return Names[w]
}

// Oscillator is a single phase accumulator. Saw and square use polyBLEP
// correction at the discontinuities, triangle uses polyBLAMP at its corners.
type Oscillator struct {
	sampleRate float64
	frequency  float64
	phase      float64
	inc        float64
}

// New creates an oscillator at 440 Hz.
func New(sampleRate float64) *Oscillator {
	o := &Oscillator{sampleRate: sampleRate}
	o.SetFrequency(440)
	return o
}

// SetSampleRate changes the rate and recomputes the increment.
func (o *Oscillator) SetSampleRate(sampleRate float64) {
	o.sampleRate = sampleRate
	o.SetFrequency(o.frequency)
}

// SetFrequency sets the frequency in Hz. Values are limited to Nyquist.
func (o *Oscillator) SetFrequency(freq float64) {
	if freq < 0 {
		freq = 0
	}
	if o.sampleRate > 0 && freq > o.sampleRate/2 {
		freq = o.sampleRate / 2
	}
	o.frequency = freq
	if o.sampleRate > 0 {
		o.inc = freq / o.sampleRate
	}
}

// Frequency returns the current frequency in Hz.
func (o *Oscillator) Frequency() float64 {
	return o.frequency
}

// SetPhase sets the phase in cycles (0-1).
func (o *Oscillator) SetPhase(phase float64) {
	o.phase = phase - math.Floor(phase)
}

// Reset rewinds the phase.
func (o *Oscillator) Reset() {
	o.phase = 0
}

func (o *Oscillator) advance() {
	o.phase += o.inc
	if o.phase >= 1 {
		o.phase -= 1
	}
}

// polyBLEP returns the band-limited step residual at phase t.
func polyBLEP(t, dt float64) float64 {
	switch {
	case dt <= 0:
		return 0
	case t < dt:
		t /= dt
		return t + t - t*t - 1
	case t > 1-dt:
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

// polyBLAMP returns the band-limited ramp residual at phase t, for a unit
// change of slope per sample.
func polyBLAMP(t, dt float64) float64 {
	switch {
	case dt <= 0:
		return 0
	case t < dt:
		t = t/dt - 1
		return -t * t * t / 3
	case t > 1-dt:
		t = (t-1)/dt + 1
		return t * t * t / 3
	}
	return 0
}

// Sine returns the next sine sample.
func (o *Oscillator) Sine() float32 {
	v := math.Sin(2 * math.Pi * o.phase)
	o.advance()
	return float32(v)
}

// Saw returns the next rising sawtooth sample.
func (o *Oscillator) Saw() float32 {
	v := 2*o.phase - 1 - polyBLEP(o.phase, o.inc)
	o.advance()
	return float32(v)
}

func (o *Oscillator) square() float64 {
	v := 1.0
	if o.phase >= 0.5 {
		v = -1
	}
	v += polyBLEP(o.phase, o.inc)
	half := o.phase + 0.5
	if half >= 1 {
		half -= 1
	}
	return v - polyBLEP(half, o.inc)
}

// Square returns the next square sample.
func (o *Oscillator) Square() float32 {
	v := o.square()
	o.advance()
	return float32(v)
}

// Triangle returns the next triangle sample. It rises from -1 at phase 0
// to 1 at phase 0.5, in phase with Square.
func (o *Oscillator) Triangle() float32 {
	v := 1 - 4*math.Abs(o.phase-0.5)
	half := o.phase + 0.5
	if half >= 1 {
		half -= 1
	}
	v += 4 * o.inc * (polyBLAMP(o.phase, o.inc) - polyBLAMP(half, o.inc))
	o.advance()
	return float32(v)
}

// Next returns the next sample of waveform w.
func (o *Oscillator) Next(w Waveform) float32 {
	switch w {
	case Saw:
		return o.Saw()
	case Square:
		return o.Square()
	case Triangle:
		return o.Triangle()
	default:
		return o.Sine()
	}
}

// Process fills buffer with waveform w - no allocations
func (o *Oscillator) Process(buffer []float32, w Waveform) {
	for i := range buffer {
		buffer[i] = o.Next(w)
	}
}
