package synth

import (
	"github.com/justyntemme/unison/pkg/dsp/envelope"
	"github.com/justyntemme/unison/pkg/dsp/filter"
	"github.com/justyntemme/unison/pkg/dsp/oscillator"
	"github.com/justyntemme/unison/pkg/midi"
)

// shared holds the per-block settings every voice reads.
type shared struct {
	sampleRate float64
	waveform   oscillator.Waveform
	pitch      float64 // frequency multiplier from tune, coarse and bend
	cutoff     float64
	q          float64
}

// Voice is one note of the engine: oscillator into lowpass, shaped by an
// amplitude envelope.
type Voice struct {
	osc *oscillator.Oscillator
	env *envelope.ADSR
	svf *filter.SVF

	shared *shared

	note   uint8
	gain   float32
	age    int64
	pitch  float64
	cutoff float64
	q      float64
}

func newVoice(s *shared) *Voice {
	return &Voice{
		osc:    oscillator.New(s.sampleRate),
		env:    envelope.New(s.sampleRate),
		svf:    filter.NewSVF(1),
		shared: s,
	}
}

func (v *Voice) prepare(sampleRate float64) {
	v.osc.SetSampleRate(sampleRate)
	v.env.SetSampleRate(sampleRate)
	v.cutoff = 0
	v.Stop()
}

func (v *Voice) IsActive() bool     { return v.env.IsActive() }
func (v *Voice) Note() uint8        { return v.note }
func (v *Voice) Amplitude() float64 { return float64(v.env.Level() * v.gain) }
func (v *Voice) Age() int64         { return v.age }

// Trigger starts a note. A retriggered voice keeps its phase and level.
func (v *Voice) Trigger(note, velocity uint8) {
	v.note = note
	v.gain = float32(velocity) / 127
	v.age = 0
	v.pitch = 0
	if !v.env.IsActive() {
		v.osc.Reset()
		v.svf.Reset()
	}
	v.env.Trigger()
}

func (v *Voice) Release() {
	v.env.Release()
}

func (v *Voice) Stop() {
	v.env.Reset()
	v.svf.Reset()
}

// Render adds the voice into out.
func (v *Voice) Render(out []float32) {
	if !v.env.IsActive() {
		return
	}
	s := v.shared
	if s.pitch != v.pitch {
		v.pitch = s.pitch
		v.osc.SetFrequency(midi.NoteToFrequency(v.note, 440) * s.pitch)
	}
	if s.cutoff != v.cutoff || s.q != v.q {
		v.cutoff, v.q = s.cutoff, s.q
		v.svf.SetFrequencyAndQ(s.sampleRate, s.cutoff, s.q)
	}
	for i := range out {
		x := v.osc.Next(s.waveform)
		out[i] += v.svf.Lowpass(x, 0) * v.env.Next() * v.gain
	}
	v.age += int64(len(out))
}
