// Package envelope provides the ADSR amplitude envelope for synth voices.
package envelope

import "math"

// Stage represents the current envelope stage
type Stage int

const (
	StageIdle Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

func (s Stage) String() string {
	switch s {
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	}
	return "idle"
}

const (
	minTime = 0.001
	// attack overshoots its target so the exponential curve reaches 1.0
	attackTarget = 1.2
	silence      = 1e-4
)

// ADSR is an exponential Attack-Decay-Sustain-Release generator.
type ADSR struct {
	sampleRate float64

	attack, decay, sustain, release float64
	attackCoef, decayCoef, releaseCoef float64

	stage Stage
	value float64
}

// New creates an envelope with a short attack and moderate release.
func New(sampleRate float64) *ADSR {
	e := &ADSR{sampleRate: sampleRate}
	e.SetADSR(0.01, 0.1, 0.7, 0.3)
	return e
}

// SetSampleRate changes the rate and recomputes coefficients.
func (e *ADSR) SetSampleRate(sampleRate float64) {
	e.sampleRate = sampleRate
	e.updateCoefficients()
}

// SetADSR sets all four segments. Times are in seconds, sustain is 0-1.
func (e *ADSR) SetADSR(attack, decay, sustain, release float64) {
	e.attack = math.Max(minTime, attack)
	e.decay = math.Max(minTime, decay)
	e.sustain = math.Max(0, math.Min(1, sustain))
	e.release = math.Max(minTime, release)
	e.updateCoefficients()
}

// ReleaseTime returns the release segment length in seconds.
func (e *ADSR) ReleaseTime() float64 {
	return e.release
}

func (e *ADSR) updateCoefficients() {
	e.attackCoef = coef(e.attack, e.sampleRate)
	e.decayCoef = coef(e.decay, e.sampleRate)
	e.releaseCoef = coef(e.release, e.sampleRate)
}

// coef gives the one-pole factor reaching ~-60 dB of the distance in t seconds.
func coef(t, sampleRate float64) float64 {
	if t <= 0 || sampleRate <= 0 {
		return 0
	}
	return math.Exp(-math.Log(1000) / (t * sampleRate))
}

// Trigger starts the attack from the current level.
func (e *ADSR) Trigger() {
	e.stage = StageAttack
}

// Release starts the release stage (note off)
func (e *ADSR) Release() {
	if e.stage != StageIdle {
		e.stage = StageRelease
	}
}

// Reset immediately returns the envelope to idle
func (e *ADSR) Reset() {
	e.stage = StageIdle
	e.value = 0
}

// IsActive reports whether the envelope is producing output.
func (e *ADSR) IsActive() bool {
	return e.stage != StageIdle
}

// Stage returns the current stage.
func (e *ADSR) Stage() Stage {
	return e.stage
}

// Level returns the most recent output value.
func (e *ADSR) Level() float32 {
	return float32(e.value)
}

// Next generates the next envelope value
func (e *ADSR) Next() float32 {
	switch e.stage {
	case StageAttack:
		e.value = attackTarget + (e.value-attackTarget)*e.attackCoef
		if e.value >= 1 {
			e.value = 1
			e.stage = StageDecay
		}
	case StageDecay:
		e.value = e.sustain + (e.value-e.sustain)*e.decayCoef
		if e.value-e.sustain < silence {
			e.value = e.sustain
			e.stage = StageSustain
		}
	case StageSustain:
		e.value = e.sustain
		if e.sustain == 0 {
			e.stage = StageIdle
		}
	case StageRelease:
		e.value *= e.releaseCoef
		if e.value < silence {
			e.value = 0
			e.stage = StageIdle
		}
	default:
		e.value = 0
	}
	return float32(e.value)
}

// ProcessMultiply multiplies buffer by envelope - no allocations
func (e *ADSR) ProcessMultiply(buffer []float32) {
	for i := range buffer {
		buffer[i] *= e.Next()
	}
}
