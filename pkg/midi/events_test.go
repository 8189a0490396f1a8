package midi

import (
	"math"
	"testing"
)

func TestNoteOnEvent(t *testing.T) {
	event := NoteOnEvent{
		BaseEvent:  BaseEvent{EventChannel: 0, Offset: 100},
		NoteNumber: 60,
		Velocity:   64,
	}

	if event.Type() != EventTypeNoteOn {
		t.Errorf("Expected type %v, got %v", EventTypeNoteOn, event.Type())
	}
	if event.SampleOffset() != 100 {
		t.Errorf("Expected offset 100, got %d", event.SampleOffset())
	}

	expected := "NoteOn{ch:0, note:60, vel:64, offset:100}"
	if event.String() != expected {
		t.Errorf("Expected string %s, got %s", expected, event.String())
	}
}

func TestWithOffset(t *testing.T) {
	events := []Event{
		NoteOnEvent{NoteNumber: 60, Velocity: 1},
		NoteOffEvent{NoteNumber: 60},
		ControlChangeEvent{Controller: CCSustain, Value: 127},
		PitchBendEvent{Value: -100},
		PolyPressureEvent{NoteNumber: 1},
		ChannelPressureEvent{Pressure: 3},
		ProgramChangeEvent{Program: 5},
		RealtimeEvent{Kind: EventTypeClock},
	}

	for _, e := range events {
		moved := e.WithOffset(42)
		if moved.SampleOffset() != 42 {
			t.Errorf("%s: offset %d, want 42", e, moved.SampleOffset())
		}
		if moved.Type() != e.Type() {
			t.Errorf("%s: type changed to %v", e, moved.Type())
		}
		if e.SampleOffset() != 0 {
			t.Errorf("%s: original was modified", e)
		}
	}
}

func TestPitchBendNormalized(t *testing.T) {
	tests := []struct {
		value int16
		want  float64
	}{
		{0, 0},
		{-8192, -1},
		{4096, 0.5},
	}
	for _, tt := range tests {
		if got := (PitchBendEvent{Value: tt.value}).NormalizedValue(); got != tt.want {
			t.Errorf("NormalizedValue(%d) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestNoteToFrequency(t *testing.T) {
	tests := []struct {
		note uint8
		want float64
	}{
		{69, 440},
		{81, 880},
		{57, 220},
		{60, 261.6255653},
	}
	for _, tt := range tests {
		if got := NoteToFrequency(tt.note, 0); math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("NoteToFrequency(%d) = %v, want %v", tt.note, got, tt.want)
		}
	}
	if got := NoteNumberToName(60); got != "C4" {
		t.Errorf("NoteNumberToName(60) = %s, want C4", got)
	}
}
