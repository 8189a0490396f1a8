package unison

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/justyntemme/unison/pkg/framework/bus"
	"github.com/justyntemme/unison/pkg/framework/debug"
	"github.com/justyntemme/unison/pkg/midi"
	"github.com/justyntemme/unison/pkg/synth"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		edit    func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"two instances", func(c *Config) { c.NumInstances = 2 }, false},
		{"max instances", func(c *Config) { c.NumInstances = MaxInstances }, false},
		{"one instance", func(c *Config) { c.NumInstances = 1 }, true},
		{"too many", func(c *Config) { c.NumInstances = MaxInstances + 1 }, true},
		{"detune too wide", func(c *Config) { c.DefaultDetune = 0.5 }, true},
		{"negative detune", func(c *Config) { c.DefaultDetune = -0.1 }, true},
		{"pan above one", func(c *Config) { c.DefaultPan = 1.5 }, true},
		{"bad program param", func(c *Config) { c.ProgramParam = -2 }, true},
		{"mute outside pool", func(c *Config) { c.Mute = NewMutePolicy(7) }, true},
		{"mute inside pool", func(c *Config) { c.Mute = NewMutePolicy(0, 6) }, false},
		{"negative parallel", func(c *Config) { c.ParallelRender = -1 }, true},
		{"surround", func(c *Config) { c.Layout = bus.Layout{Outputs: []int32{6}} }, true},
		{"mono", func(c *Config) { c.Layout = bus.Layout{Outputs: []int32{1}} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if _, err := NewProcessor(fakeDescription(fakeOpts{}), Config{}); err == nil {
		t.Error("NewProcessor accepted an empty config")
	}
}

func TestProcessorInfo(t *testing.T) {
	p := configured(t, fakeConfig(3), fakeOpts{})
	if got := p.Name(); got != "Fake Unison" {
		t.Errorf("Name = %q", got)
	}
	if !p.AcceptsMIDI() || p.ProducesMIDI() || p.IsMIDIEffect() {
		t.Error("wrong MIDI capabilities")
	}
	if got := p.NumPrograms(); got != len(fakePrograms) {
		t.Errorf("NumPrograms = %d", got)
	}
	if got := p.ProgramName(4); got != "Quiet" {
		t.Errorf("ProgramName(4) = %q", got)
	}
	if got := p.TailSeconds(); got != 0 {
		t.Errorf("TailSeconds = %f", got)
	}
	if got := p.NumInstances(); got != 3 {
		t.Errorf("NumInstances = %d", got)
	}
}

func TestInstanceErrorUnwrap(t *testing.T) {
	err := instanceErr(3, "prepare", ErrPoolNotReady)
	if !errors.Is(err, ErrPoolNotReady) {
		t.Error("InstanceError does not unwrap")
	}
	if got := err.Error(); got != "instance 3: prepare: pool not configured" {
		t.Errorf("Error() = %q", got)
	}
}

func newSynthProcessor(t testing.TB) *Processor {
	t.Helper()
	p, err := NewProcessor(synth.Description, DefaultConfig(), WithLogger(debug.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Configure(48000, 128); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSynthUnison(t *testing.T) {
	p := newSynthProcessor(t)

	p.SetCurrentProgram(7)
	for i := 0; i < p.NumInstances(); i++ {
		if got := p.Instance(i).Param(synth.ParamCoarse).GetPlainValue(); got != -12 {
			t.Errorf("instance %d coarse = %f, want -12", i, got)
		}
	}
	if got := p.ProgramName(p.CurrentProgram()); got != "Sub Bass" {
		t.Errorf("program = %q", got)
	}

	out := stereo(128)
	p.ProcessBlock([]midi.Event{midi.NoteOnEvent{NoteNumber: 48, Velocity: 110}}, out)
	var peak float32
	for _, ch := range out {
		for _, v := range ch {
			peak = max(peak, v, -v)
		}
	}
	if peak == 0 {
		t.Error("note produced no sound")
	}
	if p.TailSeconds() <= 0 {
		t.Error("synth reports no tail")
	}
}

func BenchmarkSynthUnison(b *testing.B) {
	p := newSynthProcessor(b)
	out := stereo(128)
	p.ProcessBlock([]midi.Event{
		midi.NoteOnEvent{NoteNumber: 48, Velocity: 100},
		midi.NoteOnEvent{NoteNumber: 55, Velocity: 100},
		midi.NoteOnEvent{NoteNumber: 60, Velocity: 100},
	}, out)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.ProcessBlock(nil, out)
	}
}

func TestProcessorReady(t *testing.T) {
	p := newFakeProcessor(t, fakeConfig(3), fakeOpts{})
	if err := p.Ready(); !errors.Is(err, ErrPoolNotReady) {
		t.Fatalf("Ready before Configure = %v", err)
	}
	out := stereo(16)
	fill(out, 1)
	p.ProcessBlock(nil, out)
	if out[0][0] != 0 || out[1][15] != 0 {
		t.Error("unconfigured processor not silent")
	}

	if err := p.Configure(48000, 64); err != nil {
		t.Fatal(err)
	}
	if err := p.Ready(); err != nil {
		t.Errorf("Ready after Configure = %v", err)
	}
}

// Control edits run on one goroutine while blocks render on another, as
// a host's message and audio threads would. Run with -race.
func TestControlEditsDuringRender(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ParallelRender = 4
	p, err := NewProcessor(synth.Description, cfg, WithLogger(debug.Discard()))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	if err := p.Configure(48000, 64); err != nil {
		t.Fatal(err)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	var nan bool
	wg.Add(1)
	go func() {
		defer wg.Done()
		out := stereo(64)
		notes := []midi.Event{
			midi.NoteOnEvent{NoteNumber: 48, Velocity: 100},
			midi.NoteOnEvent{NoteNumber: 55, Velocity: 100},
		}
		for block := 0; ; block++ {
			select {
			case <-stop:
				return
			default:
			}
			var events []midi.Event
			if block%32 == 0 {
				events = notes
			}
			p.ProcessBlock(events, out)
			for _, ch := range out {
				for _, v := range ch {
					if math.IsNaN(float64(v)) {
						nan = true
					}
				}
			}
		}
	}()

	for i := 0; i < 200; i++ {
		v := float64(i%10) / 10
		if err := p.SetMasterParameter(synth.ParamCutoff, v); err != nil {
			t.Error(err)
		}
		p.SetDetuneSpread(v * 0.4)
		p.SetPanSpread(1 - v)
		if i%20 == 0 {
			p.SetCurrentProgram(i / 20 % p.NumPrograms())
		}
		if i%50 == 0 {
			state, err := p.GetState()
			if err != nil {
				t.Fatal(err)
			}
			if err := p.SetState(state); err != nil {
				t.Error(err)
			}
		}
	}
	close(stop)
	wg.Wait()

	if nan {
		t.Error("render produced NaN")
	}
	if !p.Synchronizer().Guard().Enabled() {
		t.Error("guard left disabled")
	}
	if err := p.SetMasterParameter(synth.ParamCutoff, 0.25); err != nil {
		t.Fatal(err)
	}
	for i := 1; i < p.NumInstances(); i++ {
		if got := p.Instance(i).Param(synth.ParamCutoff).GetValue(); got != 0.25 {
			t.Errorf("instance %d cutoff = %f, want 0.25", i, got)
		}
	}
}
