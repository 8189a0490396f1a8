// Package voice assigns incoming notes to a fixed set of engine voices.
package voice

import (
	"github.com/justyntemme/unison/pkg/midi"
)

// AllocationMode defines how voices are allocated
type AllocationMode int

const (
	// ModePoly gives each note its own voice.
	ModePoly AllocationMode = iota
	// ModeMono plays one note at a time on voice 0, retriggering on
	// each note and falling back to the last held note on release.
	ModeMono
)

// StealingMode defines how voices are stolen when all are in use
type StealingMode int

const (
	// StealOldest steals the oldest playing voice
	StealOldest StealingMode = iota
	// StealQuietest steals the voice with lowest amplitude
	StealQuietest
	// StealNone ignores new notes when every voice is busy
	StealNone
)

// Voice is a single sound generator the allocator can drive.
type Voice interface {
	IsActive() bool
	Note() uint8
	Amplitude() float64
	// Age is the number of samples since the last trigger.
	Age() int64
	Trigger(note, velocity uint8)
	Release()
	// Stop silences the voice immediately.
	Stop()
}

const noVoice = -1

// Allocator maps notes to voices. It is driven from the audio thread and
// does not allocate after construction.
type Allocator struct {
	voices   []Voice
	mode     AllocationMode
	stealing StealingMode

	noteVoice [128]int
	held      [128]bool // key physically down
	sustained [128]bool // released while the pedal was down
	sustain   bool
	lastFree  int

	monoStack []uint8
}

// NewAllocator creates a poly allocator stealing the oldest voice.
func NewAllocator(voices []Voice) *Allocator {
	a := &Allocator{
		voices:    voices,
		monoStack: make([]uint8, 0, 128),
	}
	for i := range a.noteVoice {
		a.noteVoice[i] = noVoice
	}
	return a
}

// SetMode switches allocation mode and silences everything.
func (a *Allocator) SetMode(mode AllocationMode) {
	if mode != a.mode {
		a.mode = mode
		a.Reset()
	}
}

// SetStealingMode sets the voice stealing mode
func (a *Allocator) SetStealingMode(mode StealingMode) {
	a.stealing = mode
}

// ProcessEvent handles note, sustain and all-notes-off messages.
func (a *Allocator) ProcessEvent(event midi.Event) {
	switch e := event.(type) {
	case midi.NoteOnEvent:
		if e.Velocity == 0 {
			a.NoteOff(e.NoteNumber)
			return
		}
		a.NoteOn(e.NoteNumber, e.Velocity)
	case midi.NoteOffEvent:
		a.NoteOff(e.NoteNumber)
	case midi.ControlChangeEvent:
		switch e.Controller {
		case midi.CCSustain:
			a.SetSustainPedal(e.Value >= 64)
		case midi.CCAllNotesOff:
			a.ReleaseAll()
		case midi.CCAllSoundOff, midi.CCResetAll:
			a.Reset()
		}
	}
}

// NoteOn starts a note.
func (a *Allocator) NoteOn(note, velocity uint8) {
	note &= 0x7F
	a.held[note] = true
	a.sustained[note] = false

	if a.mode == ModeMono {
		a.removeFromStack(note)
		a.monoStack = append(a.monoStack, note)
		a.assign(0, note, velocity)
		return
	}

	if idx := a.noteVoice[note]; idx != noVoice {
		a.voices[idx].Trigger(note, velocity)
		return
	}
	idx := a.findFreeVoice()
	if idx == noVoice {
		idx = a.stealVoice()
	}
	if idx != noVoice {
		a.assign(idx, note, velocity)
	}
}

// NoteOff releases a note unless the sustain pedal holds it.
func (a *Allocator) NoteOff(note uint8) {
	note &= 0x7F
	a.held[note] = false
	if a.sustain {
		a.sustained[note] = true
		return
	}
	a.release(note)
}

// SetSustainPedal holds released notes while on and lets them go when off.
func (a *Allocator) SetSustainPedal(on bool) {
	a.sustain = on
	if on {
		return
	}
	for note := range a.sustained {
		if a.sustained[note] {
			a.sustained[note] = false
			a.release(uint8(note))
		}
	}
}

// ReleaseAll releases every sounding note, ignoring the pedal.
func (a *Allocator) ReleaseAll() {
	for note := range a.noteVoice {
		a.held[note] = false
		a.sustained[note] = false
		if idx := a.noteVoice[note]; idx != noVoice {
			a.voices[idx].Release()
			a.noteVoice[note] = noVoice
		}
	}
	a.monoStack = a.monoStack[:0]
}

// Reset stops all voices and clears allocations
func (a *Allocator) Reset() {
	for _, v := range a.voices {
		v.Stop()
	}
	for i := range a.noteVoice {
		a.noteVoice[i] = noVoice
		a.held[i] = false
		a.sustained[i] = false
	}
	a.sustain = false
	a.monoStack = a.monoStack[:0]
}

// ActiveVoices counts voices that are still sounding.
func (a *Allocator) ActiveVoices() int {
	n := 0
	for _, v := range a.voices {
		if v.IsActive() {
			n++
		}
	}
	return n
}

func (a *Allocator) assign(idx int, note, velocity uint8) {
	if prev := a.voices[idx]; prev.IsActive() && a.noteVoice[prev.Note()] == idx {
		a.noteVoice[prev.Note()] = noVoice
	}
	a.voices[idx].Trigger(note, velocity)
	a.noteVoice[note] = idx
}

func (a *Allocator) release(note uint8) {
	if a.mode == ModeMono {
		a.removeFromStack(note)
		if a.noteVoice[note] == noVoice {
			return
		}
		a.noteVoice[note] = noVoice
		if n := len(a.monoStack); n > 0 {
			// fall back to the most recent key still held
			a.assign(0, a.monoStack[n-1], 100)
			return
		}
		a.voices[0].Release()
		return
	}

	if idx := a.noteVoice[note]; idx != noVoice {
		a.voices[idx].Release()
		a.noteVoice[note] = noVoice
	}
}

func (a *Allocator) removeFromStack(note uint8) {
	for i, n := range a.monoStack {
		if n == note {
			a.monoStack = append(a.monoStack[:i], a.monoStack[i+1:]...)
			return
		}
	}
}

// findFreeVoice scans round-robin from the last voice handed out.
func (a *Allocator) findFreeVoice() int {
	n := len(a.voices)
	for i := 1; i <= n; i++ {
		idx := (a.lastFree + i) % n
		if !a.voices[idx].IsActive() {
			a.lastFree = idx
			return idx
		}
	}
	return noVoice
}

func (a *Allocator) stealVoice() int {
	if a.stealing == StealNone {
		return noVoice
	}

	best := noVoice
	var bestValue float64
	for i, v := range a.voices {
		var value float64
		switch a.stealing {
		case StealOldest:
			value = -float64(v.Age())
		case StealQuietest:
			value = v.Amplitude()
		}
		if best == noVoice || value < bestValue {
			best, bestValue = i, value
		}
	}
	if best != noVoice {
		if note := a.voices[best].Note(); a.noteVoice[note] == best {
			a.noteVoice[note] = noVoice
		}
		a.voices[best].Stop()
	}
	return best
}
