package process

import (
	"testing"

	"github.com/justyntemme/unison/pkg/framework/param"
	"github.com/justyntemme/unison/pkg/midi"
)

func newContext() *Context {
	registry := param.NewRegistry()
	registry.Add(param.New(0, "Level").Range(0, 10).Default(5).Build())
	ctx := NewContext(512, registry)
	ctx.Output = [][]float32{make([]float32, 512), make([]float32, 512)}
	return ctx
}

func TestContextParams(t *testing.T) {
	ctx := newContext()

	if got := ctx.Param(0); got != 0.5 {
		t.Errorf("Param(0) = %v, want 0.5", got)
	}
	if got := ctx.ParamPlain(0); got != 5 {
		t.Errorf("ParamPlain(0) = %v, want 5", got)
	}
	if got := ctx.Param(9); got != 0 {
		t.Errorf("unknown param = %v, want 0", got)
	}
	if ctx.NumSamples() != 512 || ctx.NumOutputChannels() != 2 {
		t.Errorf("unexpected block shape %d x %d", ctx.NumOutputChannels(), ctx.NumSamples())
	}
}

func TestContextEventProcessing(t *testing.T) {
	ctx := newContext()

	ctx.AddInputEvent(midi.NoteOffEvent{BaseEvent: midi.BaseEvent{Offset: 200}, NoteNumber: 60})
	ctx.AddInputEvent(midi.NoteOnEvent{BaseEvent: midi.BaseEvent{Offset: 100}, NoteNumber: 60, Velocity: 100})

	events := ctx.GetAllInputEvents()
	if len(events) != 2 {
		t.Fatalf("Expected 2 input events, got %d", len(events))
	}
	if events[0].Type() != midi.EventTypeNoteOn {
		t.Error("events should be sorted by offset")
	}

	ctx.ClearInputEvents()
	if ctx.HasInputEvents() {
		t.Error("Expected no input events after clear")
	}
}

func TestContextEventCapacity(t *testing.T) {
	ctx := newContext()
	for i := 0; i < DefaultMaxEvents+10; i++ {
		ctx.AddInputEvent(midi.NoteOnEvent{BaseEvent: midi.BaseEvent{Offset: int32(i % 512)}})
	}
	if got := len(ctx.GetAllInputEvents()); got != DefaultMaxEvents {
		t.Errorf("stored %d events, want cap %d", got, DefaultMaxEvents)
	}
}

func TestContextOutputEvents(t *testing.T) {
	ctx := newContext()
	ctx.AddOutputEvent(midi.ControlChangeEvent{Controller: midi.CCVolume, Value: 100})
	ctx.AddInputEvent(midi.NoteOnEvent{NoteNumber: 60})

	if len(ctx.GetOutputEvents()) != 1 {
		t.Errorf("Expected 1 output event, got %d", len(ctx.GetOutputEvents()))
	}

	ctx.ClearAllEvents()
	if ctx.HasInputEvents() || len(ctx.GetOutputEvents()) != 0 {
		t.Error("Expected no events after ClearAllEvents")
	}
}

func TestSegments(t *testing.T) {
	ctx := newContext()
	ctx.Output = [][]float32{make([]float32, 100)}
	ctx.SetInputEvents([]midi.Event{
		midi.NoteOnEvent{BaseEvent: midi.BaseEvent{Offset: 40}, NoteNumber: 62},
		midi.NoteOnEvent{BaseEvent: midi.BaseEvent{Offset: 0}, NoteNumber: 60},
		midi.NoteOnEvent{BaseEvent: midi.BaseEvent{Offset: 40}, NoteNumber: 64},
		midi.NoteOffEvent{BaseEvent: midi.BaseEvent{Offset: 500}, NoteNumber: 60},
	})

	var trace []int
	ctx.Segments(func(e midi.Event) {
		trace = append(trace, -int(e.SampleOffset())-1)
	}, func(start, end int) {
		trace = append(trace, start, end)
	})

	// events at 0, run 0-40, two events at 40, run 40-100, late event clamped to 100
	want := []int{-1, 0, 40, -41, -41, 40, 100, -501}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Fatalf("trace = %v, want %v", trace, want)
		}
	}
}

func TestClear(t *testing.T) {
	ctx := newContext()
	ctx.Output[0][3] = 1
	ctx.Output[1][7] = -1
	ctx.Clear()
	for ch := range ctx.Output {
		for i, v := range ctx.Output[ch] {
			if v != 0 {
				t.Fatalf("Output[%d][%d] = %v after Clear", ch, i, v)
			}
		}
	}
}
