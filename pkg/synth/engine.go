// Package synth is a small polyphonic subtractive synthesizer used as the
// engine behind each unison instance.
package synth

import (
	"math"

	"github.com/justyntemme/unison/pkg/dsp/gain"
	"github.com/justyntemme/unison/pkg/dsp/oscillator"
	"github.com/justyntemme/unison/pkg/framework/param"
	"github.com/justyntemme/unison/pkg/framework/plugin"
	"github.com/justyntemme/unison/pkg/framework/process"
	"github.com/justyntemme/unison/pkg/framework/voice"
	"github.com/justyntemme/unison/pkg/midi"
)

// Polyphony is the number of voices per engine.
const Polyphony = 16

var info = plugin.Info{
	ID:       "com.justyntemme.unison.subsynth",
	Name:     "Sub Synth",
	Version:  "1.0.0",
	Vendor:   "unison",
	Category: "Instrument|Synth",
}

// Description registers the engine with the unison processor.
var Description = plugin.Description{
	Info: info,
	New: func() (plugin.Engine, error) {
		return New(), nil
	},
}

// Engine renders MIDI through a bank of voices.
type Engine struct {
	*plugin.BaseEngine

	shared shared
	voices []*Voice
	alloc  *voice.Allocator
	output *param.Smoother

	attack, decay, sustain, release float64
	bend                            float64

	// bound once so Process does not allocate closures
	ctx      *process.Context
	onEvent  func(midi.Event)
	onRender func(start, end int)
}

// New creates an engine with the factory bank loaded at program 0.
func New() *Engine {
	e := &Engine{
		BaseEngine: plugin.NewBaseEngine(info, nil),
		shared:     shared{sampleRate: 48000, pitch: 1},
		output:     param.NewRampSmoother(48000, 20),
	}
	buildParameters(e.Parameters())
	e.SetPrograms(ParamProgram, Programs)

	voices := make([]voice.Voice, Polyphony)
	e.voices = make([]*Voice, Polyphony)
	for i := range e.voices {
		e.voices[i] = newVoice(&e.shared)
		voices[i] = e.voices[i]
	}
	e.alloc = voice.NewAllocator(voices)
	e.alloc.SetMode(voice.ModePoly)
	e.alloc.SetStealingMode(voice.StealOldest)

	e.onEvent = e.handleEvent
	e.onRender = e.renderSegment
	return e
}

// Prepare sets up voices for the sample rate.
func (e *Engine) Prepare(sampleRate float64, maxBlockSize int32) error {
	if err := e.BaseEngine.Prepare(sampleRate, maxBlockSize); err != nil {
		return err
	}
	e.shared.sampleRate = sampleRate
	for _, v := range e.voices {
		v.prepare(sampleRate)
	}
	e.alloc.Reset()
	e.bend = 0
	e.attack = -1
	e.output = param.NewRampSmoother(sampleRate, 20)
	e.output.Reset(outputLevel(e.Parameters().Get(ParamOutput).GetPlainValue()))
	return nil
}

// Release silences every voice.
func (e *Engine) Release() {
	e.alloc.Reset()
	e.BaseEngine.Release()
}

// TailSeconds is the release time, the longest a note sounds after note off.
func (e *Engine) TailSeconds() float64 {
	return e.Parameters().Get(ParamRelease).GetPlainValue() / 1000
}

// ActiveVoices returns the number of sounding voices.
func (e *Engine) ActiveVoices() int {
	return e.alloc.ActiveVoices()
}

// Process renders one block.
func (e *Engine) Process(ctx *process.Context) {
	ctx.Clear()
	if e.SampleRate() == 0 || ctx.NumSamples() == 0 || len(ctx.Output) == 0 {
		return
	}
	e.updateParameters(ctx)

	e.ctx = ctx
	ctx.Segments(e.onEvent, e.onRender)
	e.ctx = nil
}

func (e *Engine) updateParameters(ctx *process.Context) {
	attack := ctx.ParamPlain(ParamAttack) / 1000
	decay := ctx.ParamPlain(ParamDecay) / 1000
	sustain := ctx.ParamPlain(ParamSustain) / 100
	release := ctx.ParamPlain(ParamRelease) / 1000
	if attack != e.attack || decay != e.decay || sustain != e.sustain || release != e.release {
		e.attack, e.decay, e.sustain, e.release = attack, decay, sustain, release
		for _, v := range e.voices {
			v.env.SetADSR(attack, decay, sustain, release)
		}
	}

	e.shared.waveform = oscillator.Waveform(math.Round(ctx.ParamPlain(ParamWaveform)))
	e.shared.cutoff = ctx.ParamPlain(ParamCutoff)
	e.shared.q = ctx.ParamPlain(ParamResonance)
	e.output.SetTarget(outputLevel(ctx.ParamPlain(ParamOutput)))
	e.updatePitch(ctx)
}

// outputLevel maps the Output parameter to a linear gain. The bottom of
// its range is silence.
func outputLevel(db float64) float64 {
	if db <= outputFloorDB {
		return 0
	}
	return gain.DbToLinear(db)
}

func (e *Engine) updatePitch(ctx *process.Context) {
	semis := ctx.ParamPlain(ParamCoarse) +
		(ctx.ParamPlain(ParamTune)-0.5)*2*TuneRangeCents/100 +
		e.bend*bendRangeSemis
	e.shared.pitch = math.Exp2(semis / 12)
}

func (e *Engine) handleEvent(ev midi.Event) {
	switch m := ev.(type) {
	case midi.PitchBendEvent:
		e.bend = m.NormalizedValue()
		e.updatePitch(e.ctx)
	case midi.NoteOnEvent, midi.NoteOffEvent, midi.ControlChangeEvent:
		e.alloc.ProcessEvent(ev)
	}
}

func (e *Engine) renderSegment(start, end int) {
	work := e.ctx.WorkBuffer()[start:end]
	clear(work)
	for _, v := range e.voices {
		v.Render(work)
	}
	e.output.Apply(work)

	for _, ch := range e.ctx.Output {
		copy(ch[start:end], work)
	}
}
