package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Realtime status bytes.
const (
	statusClock    = 0xF8
	statusStart    = 0xFA
	statusContinue = 0xFB
	statusStop     = 0xFC
)

// FromMessage converts a raw message from a driver or file into an Event
// at the given sample offset. Messages engines do not consume (sysex,
// song position, active sensing) report false.
func FromMessage(msg gomidi.Message, offset int32) (Event, bool) {
	var ch, key, vel, ctl, val, prog, pressure uint8
	var rel int16
	var abs uint16

	base := func(channel uint8) BaseEvent {
		return BaseEvent{EventChannel: channel, Offset: offset}
	}

	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return NoteOnEvent{BaseEvent: base(ch), NoteNumber: key, Velocity: vel}, true
	case msg.GetNoteOff(&ch, &key, &vel):
		return NoteOffEvent{BaseEvent: base(ch), NoteNumber: key, Velocity: vel}, true
	case msg.GetNoteEnd(&ch, &key):
		// note on with velocity zero
		return NoteOffEvent{BaseEvent: base(ch), NoteNumber: key}, true
	case msg.GetControlChange(&ch, &ctl, &val):
		return ControlChangeEvent{BaseEvent: base(ch), Controller: ctl, Value: val}, true
	case msg.GetPitchBend(&ch, &rel, &abs):
		return PitchBendEvent{BaseEvent: base(ch), Value: rel}, true
	case msg.GetProgramChange(&ch, &prog):
		return ProgramChangeEvent{BaseEvent: base(ch), Program: prog}, true
	case msg.GetAfterTouch(&ch, &pressure):
		return ChannelPressureEvent{BaseEvent: base(ch), Pressure: pressure}, true
	case msg.GetPolyAfterTouch(&ch, &key, &pressure):
		return PolyPressureEvent{BaseEvent: base(ch), NoteNumber: key, Pressure: pressure}, true
	}

	if len(msg) != 1 {
		return nil, false
	}
	switch msg[0] {
	case statusClock:
		return RealtimeEvent{Kind: EventTypeClock, Offset: offset}, true
	case statusStart:
		return RealtimeEvent{Kind: EventTypeStart, Offset: offset}, true
	case statusContinue:
		return RealtimeEvent{Kind: EventTypeContinue, Offset: offset}, true
	case statusStop:
		return RealtimeEvent{Kind: EventTypeStop, Offset: offset}, true
	}
	return nil, false
}

// ToMessage converts an Event back into a raw message.
func ToMessage(e Event) (gomidi.Message, bool) {
	switch ev := e.(type) {
	case NoteOnEvent:
		return gomidi.NoteOn(ev.EventChannel, ev.NoteNumber, ev.Velocity), true
	case NoteOffEvent:
		return gomidi.NoteOffVelocity(ev.EventChannel, ev.NoteNumber, ev.Velocity), true
	case ControlChangeEvent:
		return gomidi.ControlChange(ev.EventChannel, ev.Controller, ev.Value), true
	case PitchBendEvent:
		return gomidi.Pitchbend(ev.EventChannel, ev.Value), true
	case ProgramChangeEvent:
		return gomidi.ProgramChange(ev.EventChannel, ev.Program), true
	case ChannelPressureEvent:
		return gomidi.AfterTouch(ev.EventChannel, ev.Pressure), true
	case PolyPressureEvent:
		return gomidi.PolyAfterTouch(ev.EventChannel, ev.NoteNumber, ev.Pressure), true
	case RealtimeEvent:
		switch ev.Kind {
		case EventTypeClock:
			return gomidi.Message{statusClock}, true
		case EventTypeStart:
			return gomidi.Message{statusStart}, true
		case EventTypeContinue:
			return gomidi.Message{statusContinue}, true
		case EventTypeStop:
			return gomidi.Message{statusStop}, true
		}
	}
	return nil, false
}
