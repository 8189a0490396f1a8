package synth

import (
	"fmt"

	"github.com/justyntemme/unison/pkg/dsp/oscillator"
	"github.com/justyntemme/unison/pkg/framework/param"
	"github.com/justyntemme/unison/pkg/framework/plugin"
)

// Parameter IDs. They are part of the saved state and must stay stable.
const (
	ParamOutput uint32 = iota
	ParamTune
	ParamCoarse
	ParamWaveform
	ParamCutoff
	ParamResonance
	ParamAttack
	ParamDecay
	ParamSustain
	ParamRelease
	ParamProgram
)

// TuneRangeCents is the fine tune swing at either end of ParamTune.
const TuneRangeCents = 100

// outputFloorDB is the bottom of the Output range, shown as -inf.
const outputFloorDB = -60

// bendRangeSemis is the pitch wheel range.
const bendRangeSemis = 2

func buildParameters(r *param.Registry) {
	waveforms := make([]param.ChoiceOption, len(oscillator.Names))
	for i, name := range oscillator.Names {
		waveforms[i] = param.ChoiceOption{Value: float64(i), Name: name}
	}

	r.Add(
		// normalized 0 is silence, which is what mutes an instance
		param.GainParameter(ParamOutput, "Output", outputFloorDB, 6, -2).ShortName("Out").Build(),

		// 0.5 is nominal pitch so the unison spread can move it both ways
		param.New(ParamTune, "Tune").
			Range(0, 1).
			Default(0.5).
			Unit("ct").
			Formatter(func(v float64) string {
				return param.CentsFormatter((v - 0.5) * 2 * TuneRangeCents)
			}, func(s string) (float64, error) {
				cents, err := param.CentsParser(s)
				if err != nil {
					return 0, err
				}
				return 0.5 + cents/(2*TuneRangeCents), nil
			}).
			Build(),

		param.SemitoneParameter(ParamCoarse, "Coarse", 24).Build(),
		param.Choice(ParamWaveform, "Waveform", waveforms).ShortName("Wave").Default(float64(oscillator.Saw)).Build(),
		param.FrequencyParameter(ParamCutoff, "Cutoff", 20, 20000, 8000).Build(),
		param.ResonanceParameter(ParamResonance, "Resonance", 0.5, 10, 0.707).ShortName("Res").Build(),
		param.TimeParameter(ParamAttack, "Attack", 1, 5000, 10).Build(),
		param.TimeParameter(ParamDecay, "Decay", 1, 5000, 200).Build(),
		param.LevelParameter(ParamSustain, "Sustain", 70).Build(),
		param.TimeParameter(ParamRelease, "Release", 1, 10000, 300).Build(),
	)
}

func patch(wave oscillator.Waveform, cutoff, q, attack, decay, sustain, release float64) map[uint32]float64 {
	return map[uint32]float64{
		ParamWaveform:  float64(wave),
		ParamCutoff:    cutoff,
		ParamResonance: q,
		ParamAttack:    attack,
		ParamDecay:     decay,
		ParamSustain:   sustain,
		ParamRelease:   release,
	}
}

// Programs is the factory bank.
var Programs = []plugin.Program{
	{Name: "Init", Values: patch(oscillator.Saw, 8000, 0.707, 10, 200, 70, 300)},
	{Name: "Supersaw Lead", Values: patch(oscillator.Saw, 6000, 1.2, 5, 300, 80, 250)},
	{Name: "Hoover", Values: patch(oscillator.Saw, 2500, 3, 40, 600, 60, 800)},
	{Name: "Warm Pad", Values: patch(oscillator.Triangle, 1800, 0.9, 900, 1500, 85, 2500)},
	{Name: "Hollow Square", Values: patch(oscillator.Square, 3000, 2, 15, 400, 50, 400)},
	{Name: "Sine Choir", Values: patch(oscillator.Sine, 20000, 0.707, 400, 800, 90, 1800)},
	{Name: "Pluck", Values: patch(oscillator.Saw, 4000, 4, 1, 250, 0, 200)},
	{Name: "Sub Bass", Values: map[uint32]float64{
		ParamWaveform: float64(oscillator.Sine),
		ParamCoarse:   -12,
		ParamCutoff:   600,
		ParamAttack:   2,
		ParamDecay:    100,
		ParamSustain:  100,
		ParamRelease:  120,
	}},
	{Name: "Brass Stack", Values: patch(oscillator.Saw, 1500, 1.5, 80, 400, 75, 350)},
}

// ProgramNames lists the bank for display.
func ProgramNames() []string {
	names := make([]string, len(Programs))
	for i, p := range Programs {
		names[i] = fmt.Sprintf("%d: %s", i, p.Name)
	}
	return names
}
