package voice

import (
	"testing"

	"github.com/justyntemme/unison/pkg/midi"
)

type mockVoice struct {
	active   bool
	released bool
	note     uint8
	velocity uint8
	age      int64
	amp      float64
	triggers int
}

func (v *mockVoice) IsActive() bool     { return v.active }
func (v *mockVoice) Note() uint8        { return v.note }
func (v *mockVoice) Amplitude() float64 { return v.amp }
func (v *mockVoice) Age() int64         { return v.age }

func (v *mockVoice) Trigger(note, velocity uint8) {
	v.active, v.released = true, false
	v.note, v.velocity = note, velocity
	v.age = 0
	v.triggers++
}

func (v *mockVoice) Release() { v.released = true }
func (v *mockVoice) Stop()    { v.active, v.released = false, false }

func newVoices(n int) ([]*mockVoice, []Voice) {
	mocks := make([]*mockVoice, n)
	voices := make([]Voice, n)
	for i := range mocks {
		mocks[i] = &mockVoice{}
		voices[i] = mocks[i]
	}
	return mocks, voices
}

func TestPolyAllocation(t *testing.T) {
	mocks, voices := newVoices(4)
	a := NewAllocator(voices)

	a.NoteOn(60, 100)
	a.NoteOn(64, 100)
	a.NoteOn(67, 100)

	if got := a.ActiveVoices(); got != 3 {
		t.Fatalf("ActiveVoices() = %d, want 3", got)
	}

	notes := map[uint8]bool{}
	for _, m := range mocks {
		if m.active {
			notes[m.note] = true
		}
	}
	for _, n := range []uint8{60, 64, 67} {
		if !notes[n] {
			t.Errorf("note %d not assigned", n)
		}
	}

	a.NoteOff(64)
	for _, m := range mocks {
		if m.note == 64 && !m.released {
			t.Error("note 64 should be released")
		}
	}
}

func TestRetriggerSameNote(t *testing.T) {
	mocks, voices := newVoices(4)
	a := NewAllocator(voices)

	a.NoteOn(60, 100)
	a.NoteOn(60, 80)

	if a.ActiveVoices() != 1 {
		t.Errorf("same note should reuse its voice, %d active", a.ActiveVoices())
	}
	total := 0
	for _, m := range mocks {
		total += m.triggers
	}
	if total != 2 {
		t.Errorf("expected 2 triggers, got %d", total)
	}
}

func TestStealOldest(t *testing.T) {
	mocks, voices := newVoices(2)
	a := NewAllocator(voices)

	a.NoteOn(60, 100)
	a.NoteOn(62, 100)
	for _, m := range mocks {
		if m.note == 60 {
			m.age = 1000
		} else {
			m.age = 10
		}
	}

	a.NoteOn(64, 100)
	for _, m := range mocks {
		if m.note == 60 {
			t.Error("oldest note should have been stolen")
		}
	}

	// The stolen note's off must not release the new note.
	a.NoteOff(60)
	for _, m := range mocks {
		if m.note == 64 && m.released {
			t.Error("note off for a stolen note released its replacement")
		}
	}
}

func TestStealNone(t *testing.T) {
	_, voices := newVoices(1)
	a := NewAllocator(voices)
	a.SetStealingMode(StealNone)

	a.NoteOn(60, 100)
	a.NoteOn(61, 100)
	if voices[0].Note() != 60 {
		t.Error("StealNone should keep the playing note")
	}
}

func TestSustainPedal(t *testing.T) {
	mocks, voices := newVoices(2)
	a := NewAllocator(voices)

	a.ProcessEvent(midi.ControlChangeEvent{Controller: midi.CCSustain, Value: 127})
	a.ProcessEvent(midi.NoteOnEvent{NoteNumber: 60, Velocity: 100})
	a.ProcessEvent(midi.NoteOffEvent{NoteNumber: 60})

	if mocks[1].released || mocks[0].released {
		t.Fatal("note should be held by the pedal")
	}

	a.ProcessEvent(midi.ControlChangeEvent{Controller: midi.CCSustain, Value: 0})
	released := false
	for _, m := range mocks {
		if m.note == 60 && m.released {
			released = true
		}
	}
	if !released {
		t.Error("pedal up should release held notes")
	}
}

func TestMonoFallback(t *testing.T) {
	mocks, voices := newVoices(1)
	a := NewAllocator(voices)
	a.SetMode(ModeMono)

	a.NoteOn(60, 100)
	a.NoteOn(63, 100)
	if mocks[0].note != 63 {
		t.Fatalf("mono voice plays %d, want 63", mocks[0].note)
	}

	a.NoteOff(63)
	if mocks[0].note != 60 || mocks[0].released {
		t.Errorf("mono voice should fall back to 60, got %d released=%v", mocks[0].note, mocks[0].released)
	}

	a.NoteOff(60)
	if !mocks[0].released {
		t.Error("last key up should release the mono voice")
	}
}

func TestAllNotesOffAndReset(t *testing.T) {
	mocks, voices := newVoices(3)
	a := NewAllocator(voices)

	a.NoteOn(60, 100)
	a.NoteOn(61, 100)
	a.ProcessEvent(midi.ControlChangeEvent{Controller: midi.CCAllNotesOff})
	for _, m := range mocks {
		if m.active && !m.released {
			t.Error("all notes off should release every voice")
		}
	}

	a.ProcessEvent(midi.ControlChangeEvent{Controller: midi.CCAllSoundOff})
	if a.ActiveVoices() != 0 {
		t.Error("all sound off should stop every voice")
	}
}
