// Package midi holds the channel and realtime events delivered to engines,
// each stamped with a sample offset inside the current block.
package midi

import (
	"fmt"
	"math"
)

type EventType uint8

const (
	EventTypeNoteOff EventType = iota
	EventTypeNoteOn
	EventTypePolyPressure
	EventTypeControlChange
	EventTypeProgramChange
	EventTypeChannelPressure
	EventTypePitchBend
	EventTypeClock
	EventTypeStart
	EventTypeStop
	EventTypeContinue
)

// Event is one timestamped MIDI message.
type Event interface {
	Type() EventType
	Channel() uint8
	SampleOffset() int32
	// WithOffset returns a copy stamped with a new sample offset.
	WithOffset(offset int32) Event
	String() string
}

type BaseEvent struct {
	EventChannel uint8
	Offset       int32
}

func (e BaseEvent) Channel() uint8 {
	return e.EventChannel
}

func (e BaseEvent) SampleOffset() int32 {
	return e.Offset
}

type NoteOnEvent struct {
	BaseEvent
	NoteNumber uint8
	Velocity   uint8
}

func (e NoteOnEvent) Type() EventType { return EventTypeNoteOn }

func (e NoteOnEvent) WithOffset(offset int32) Event {
	e.Offset = offset
	return e
}

func (e NoteOnEvent) String() string {
	return fmt.Sprintf("NoteOn{ch:%d, note:%d, vel:%d, offset:%d}",
		e.EventChannel, e.NoteNumber, e.Velocity, e.Offset)
}

type NoteOffEvent struct {
	BaseEvent
	NoteNumber uint8
	Velocity   uint8
}

func (e NoteOffEvent) Type() EventType { return EventTypeNoteOff }

func (e NoteOffEvent) WithOffset(offset int32) Event {
	e.Offset = offset
	return e
}

func (e NoteOffEvent) String() string {
	return fmt.Sprintf("NoteOff{ch:%d, note:%d, vel:%d, offset:%d}",
		e.EventChannel, e.NoteNumber, e.Velocity, e.Offset)
}

type ControlChangeEvent struct {
	BaseEvent
	Controller uint8
	Value      uint8
}

func (e ControlChangeEvent) Type() EventType { return EventTypeControlChange }

func (e ControlChangeEvent) WithOffset(offset int32) Event {
	e.Offset = offset
	return e
}

func (e ControlChangeEvent) String() string {
	return fmt.Sprintf("CC{ch:%d, ctrl:%d, val:%d, offset:%d}",
		e.EventChannel, e.Controller, e.Value, e.Offset)
}

const (
	CCModWheel    uint8 = 1
	CCVolume      uint8 = 7
	CCPan         uint8 = 10
	CCExpression  uint8 = 11
	CCSustain     uint8 = 64
	CCAllSoundOff uint8 = 120
	CCResetAll    uint8 = 121
	CCAllNotesOff uint8 = 123
)

type PitchBendEvent struct {
	BaseEvent
	Value int16 // -8192 to 8191, 0 is center
}

func (e PitchBendEvent) Type() EventType { return EventTypePitchBend }

func (e PitchBendEvent) WithOffset(offset int32) Event {
	e.Offset = offset
	return e
}

func (e PitchBendEvent) String() string {
	return fmt.Sprintf("PitchBend{ch:%d, val:%d, offset:%d}",
		e.EventChannel, e.Value, e.Offset)
}

// NormalizedValue maps the bend to -1..1.
func (e PitchBendEvent) NormalizedValue() float64 {
	return float64(e.Value) / 8192.0
}

type PolyPressureEvent struct {
	BaseEvent
	NoteNumber uint8
	Pressure   uint8
}

func (e PolyPressureEvent) Type() EventType { return EventTypePolyPressure }

func (e PolyPressureEvent) WithOffset(offset int32) Event {
	e.Offset = offset
	return e
}

func (e PolyPressureEvent) String() string {
	return fmt.Sprintf("PolyPressure{ch:%d, note:%d, pressure:%d, offset:%d}",
		e.EventChannel, e.NoteNumber, e.Pressure, e.Offset)
}

type ChannelPressureEvent struct {
	BaseEvent
	Pressure uint8
}

func (e ChannelPressureEvent) Type() EventType { return EventTypeChannelPressure }

func (e ChannelPressureEvent) WithOffset(offset int32) Event {
	e.Offset = offset
	return e
}

func (e ChannelPressureEvent) String() string {
	return fmt.Sprintf("ChannelPressure{ch:%d, pressure:%d, offset:%d}",
		e.EventChannel, e.Pressure, e.Offset)
}

type ProgramChangeEvent struct {
	BaseEvent
	Program uint8
}

func (e ProgramChangeEvent) Type() EventType { return EventTypeProgramChange }

func (e ProgramChangeEvent) WithOffset(offset int32) Event {
	e.Offset = offset
	return e
}

func (e ProgramChangeEvent) String() string {
	return fmt.Sprintf("ProgramChange{ch:%d, prog:%d, offset:%d}",
		e.EventChannel, e.Program, e.Offset)
}

// RealtimeEvent covers clock and transport messages, which carry no channel.
type RealtimeEvent struct {
	Kind   EventType
	Offset int32
}

func (e RealtimeEvent) Type() EventType     { return e.Kind }
func (e RealtimeEvent) Channel() uint8      { return 0 }
func (e RealtimeEvent) SampleOffset() int32 { return e.Offset }

func (e RealtimeEvent) WithOffset(offset int32) Event {
	e.Offset = offset
	return e
}

func (e RealtimeEvent) String() string {
	names := map[EventType]string{
		EventTypeClock:    "Clock",
		EventTypeStart:    "Start",
		EventTypeStop:     "Stop",
		EventTypeContinue: "Continue",
	}
	return fmt.Sprintf("%s{offset:%d}", names[e.Kind], e.Offset)
}

// NoteToFrequency returns the equal tempered frequency of a note.
// A zero tuningA4 means 440 Hz.
func NoteToFrequency(note uint8, tuningA4 float64) float64 {
	if tuningA4 == 0 {
		tuningA4 = 440.0
	}
	return tuningA4 * math.Exp2((float64(note)-69.0)/12.0)
}

// NoteNumberToName renders 60 as "C4".
func NoteNumberToName(note uint8) string {
	noteNames := [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	return fmt.Sprintf("%s%d", noteNames[note%12], int(note/12)-1)
}
