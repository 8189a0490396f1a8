package bus

import "testing"

func TestNewGenerator(t *testing.T) {
	config := NewGenerator()

	if got := config.AudioBusCount(DirectionInput); got != 0 {
		t.Errorf("Expected no audio inputs, got %d", got)
	}
	if got := config.MainOutputChannels(); got != 2 {
		t.Errorf("Expected 2 output channels, got %d", got)
	}
	if !config.AcceptsEvents() {
		t.Error("Expected a MIDI input bus")
	}
	if config.ProducesEvents() {
		t.Error("Generator should not produce MIDI")
	}

	out := config.GetBusInfo(MediaTypeAudio, DirectionOutput, 0)
	if out == nil || out.Name != "Stereo Out" || out.BusType != TypeMain {
		t.Errorf("unexpected main output %+v", out)
	}
	if config.GetBusInfo(MediaTypeAudio, DirectionOutput, 1) != nil {
		t.Error("Expected a single output bus")
	}
}

func TestAddRemoveAudioBus(t *testing.T) {
	config := NewGenerator()

	if err := config.AddAudioBus(DirectionOutput, 2); err != nil {
		t.Fatalf("AddAudioBus: %v", err)
	}
	if got := config.AudioBusCount(DirectionOutput); got != 2 {
		t.Fatalf("Expected 2 output buses, got %d", got)
	}
	if aux := config.GetBusInfo(MediaTypeAudio, DirectionOutput, 1); aux.BusType != TypeAux {
		t.Error("second bus should be aux")
	}

	if err := config.AddAudioBus(DirectionInput, 0); err == nil {
		t.Error("zero channels should be rejected")
	}

	if !config.RemoveAudioBus(DirectionOutput) || !config.RemoveAudioBus(DirectionOutput) {
		t.Fatal("RemoveAudioBus should succeed twice")
	}
	if config.RemoveAudioBus(DirectionOutput) {
		t.Error("RemoveAudioBus on empty direction should report false")
	}
	if config.MainOutputChannels() != 0 {
		t.Error("no outputs left, expected 0 channels")
	}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name    string
		layout  Layout
		changes int
	}{
		{"unchanged", StereoOut, 0},
		{"add input", Layout{Inputs: []int32{2}, Outputs: []int32{2}}, 1},
		{"extra outputs", Layout{Outputs: []int32{2, 2, 1}}, 2},
		{"no outputs", Layout{}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewGenerator()
			n, err := Reconcile(config, tt.layout)
			if err != nil {
				t.Fatalf("Reconcile: %v", err)
			}
			if n != tt.changes {
				t.Errorf("changes = %d, want %d", n, tt.changes)
			}
			if got := config.AudioBusCount(DirectionInput); got != len(tt.layout.Inputs) {
				t.Errorf("inputs = %d, want %d", got, len(tt.layout.Inputs))
			}
			if got := config.AudioBusCount(DirectionOutput); got != len(tt.layout.Outputs) {
				t.Errorf("outputs = %d, want %d", got, len(tt.layout.Outputs))
			}
			if got := LayoutOf(config).MainOutputChannels(); got != tt.layout.MainOutputChannels() {
				t.Errorf("main channels = %d, want %d", got, tt.layout.MainOutputChannels())
			}
		})
	}
}

func TestBuilderValidate(t *testing.T) {
	if _, err := NewBuilder().WithEventInput("MIDI").Build(); err == nil {
		t.Error("expected error without an output bus")
	}
	if _, err := NewBuilder().audio(DirectionOutput, "Wide", 64).Build(); err == nil {
		t.Error("expected error for too many channels")
	}
	if _, err := NewBuilder().WithMonoOutput("Out").Build(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
