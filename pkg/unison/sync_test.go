package unison

import (
	"testing"
)

func TestFanOut(t *testing.T) {
	p := configured(t, fakeConfig(4), fakeOpts{})
	before := p.Synchronizer().Stats()

	if err := p.SetMasterParameter(fakeCutoff, 0.3); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < p.NumInstances(); i++ {
		if got := p.Instance(i).Param(fakeCutoff).GetValue(); got != 0.3 {
			t.Errorf("instance %d cutoff = %f, want 0.3", i, got)
		}
	}

	after := p.Synchronizer().Stats()
	if d := after.FanOuts - before.FanOuts; d != 1 {
		t.Errorf("fan-outs = %d, want 1", d)
	}
	if d := after.Writes - before.Writes; d != 3 {
		t.Errorf("writes = %d, want 3", d)
	}
	if after.DirectEdits != 0 {
		t.Errorf("fan-out writes counted as %d direct edits", after.DirectEdits)
	}
	if !p.Synchronizer().Guard().Enabled() {
		t.Error("guard left disabled")
	}
}

func TestFanOutKeepsDetune(t *testing.T) {
	p := configured(t, fakeConfig(5), fakeOpts{})
	p.SetMasterParameter(fakeCutoff, 0.8)
	for i := 1; i < 5; i++ {
		want := TuneOffset(i, 5, DefaultDetuneSpread)
		if got := p.Instance(i).Param(fakeTune).GetValue(); !near(got, want, 1e-9) {
			t.Errorf("instance %d tune = %f, want %f", i, got, want)
		}
	}
}

func TestGuardSuppressesFanOut(t *testing.T) {
	p := configured(t, fakeConfig(3), fakeOpts{})
	s := p.Synchronizer()
	before := s.Stats()

	restore := s.Guard().Suppress()
	if s.Guard().Enabled() {
		t.Fatal("guard still enabled")
	}
	p.Pool().Master().Parameters().SetNotifying(fakeCutoff, 0.9)
	restore()

	if !s.Guard().Enabled() {
		t.Error("restore did not re-enable the guard")
	}
	if got := p.Instance(0).Param(fakeCutoff).GetValue(); got != 0.9 {
		t.Errorf("master cutoff = %f, want 0.9", got)
	}
	for i := 1; i < 3; i++ {
		if got := p.Instance(i).Param(fakeCutoff).GetValue(); got != 0.5 {
			t.Errorf("instance %d cutoff = %f, want untouched 0.5", i, got)
		}
	}
	if d := s.Stats().Suppressed - before.Suppressed; d != 1 {
		t.Errorf("suppressed = %d, want 1", d)
	}
}

func TestGuardRestoresPreviousState(t *testing.T) {
	var g Guard
	outer := g.Suppress()
	inner := g.Suppress()
	inner()
	if g.Enabled() {
		t.Error("inner restore enabled the guard inside an outer suppression")
	}
	outer()
	if !g.Enabled() {
		t.Error("outer restore left the guard disabled")
	}
}

func TestFanOutSkipsMissingParameter(t *testing.T) {
	p := configured(t, fakeConfig(4), fakeOpts{noCutoff: map[int]bool{2: true}})
	before := p.Synchronizer().Stats()

	if err := p.SetMasterParameter(fakeCutoff, 0.2); err != nil {
		t.Fatal(err)
	}
	for _, i := range []int{1, 3} {
		if got := p.Instance(i).Param(fakeCutoff).GetValue(); got != 0.2 {
			t.Errorf("instance %d cutoff = %f, want 0.2", i, got)
		}
	}
	if p.Instance(2).Param(fakeCutoff) != nil {
		t.Fatal("instance 2 has a cutoff")
	}
	after := p.Synchronizer().Stats()
	if d := after.NotFound - before.NotFound; d != 1 {
		t.Errorf("not found = %d, want 1", d)
	}
	if d := after.Writes - before.Writes; d != 2 {
		t.Errorf("writes = %d, want 2", d)
	}
}

func TestSetMasterParameterUnknown(t *testing.T) {
	p := configured(t, fakeConfig(2), fakeOpts{})
	if err := p.SetMasterParameter(99, 0.5); err == nil {
		t.Error("expected an error for an unknown parameter")
	}
}

func TestDirectEditNotPropagated(t *testing.T) {
	p := configured(t, fakeConfig(4), fakeOpts{})
	before := p.Synchronizer().Stats()

	p.Instance(2).Parameters().SetNotifying(fakeCutoff, 0.1)

	for _, i := range []int{0, 1, 3} {
		if got := p.Instance(i).Param(fakeCutoff).GetValue(); got != 0.5 {
			t.Errorf("instance %d cutoff = %f, want 0.5", i, got)
		}
	}
	after := p.Synchronizer().Stats()
	if d := after.DirectEdits - before.DirectEdits; d != 1 {
		t.Errorf("direct edits = %d, want 1", d)
	}
	if after.FanOuts != before.FanOuts {
		t.Error("direct edit was fanned out")
	}
}

// Stepped parameters go out with the master's raw normalized value, so
// every instance snaps to the same step. Pinned because partial
// coarse-tune writes were seen to diverge in earlier hosts.
func TestFanOutSteppedParameter(t *testing.T) {
	p := configured(t, fakeConfig(4), fakeOpts{})
	for _, v := range []float64{0.51, 0.25, 0.0, 1.0, 0.7396} {
		p.SetMasterParameter(fakeCoarse, v)
		master := p.Instance(0).Param(fakeCoarse)
		for i := 1; i < 4; i++ {
			got := p.Instance(i).Param(fakeCoarse)
			if got.GetValue() != master.GetValue() {
				t.Errorf("v=%.4f instance %d normalized %f, master %f", v, i, got.GetValue(), master.GetValue())
			}
			if got.GetPlainValue() != master.GetPlainValue() {
				t.Errorf("v=%.4f instance %d coarse %f, master %f", v, i, got.GetPlainValue(), master.GetPlainValue())
			}
		}
	}
}

func TestMacroDetune(t *testing.T) {
	p := newFakeProcessor(t, fakeConfig(5), fakeOpts{})
	for i := 1; i < 5; i++ {
		want := TuneOffset(i, 5, DefaultDetuneSpread)
		if got := p.Instance(i).Param(fakeTune).GetValue(); !near(got, want, 1e-9) {
			t.Errorf("initial: instance %d tune = %f, want %f", i, got, want)
		}
	}

	p.SetDetuneSpread(0.2)
	if got := p.DetuneSpread(); !near(got, 0.2, 1e-9) {
		t.Fatalf("DetuneSpread = %f", got)
	}
	want := []float64{0.5, 0.44, 0.48, 0.52, 0.56}
	for i, w := range want {
		if got := p.Instance(i).Param(fakeTune).GetValue(); !near(got, w, 1e-9) {
			t.Errorf("instance %d tune = %f, want %f", i, got, w)
		}
	}

	p.SetDetuneSpread(0)
	for i := 0; i < 5; i++ {
		if got := p.Instance(i).Param(fakeTune).GetValue(); !near(got, Nominal, 1e-9) {
			t.Errorf("zero detune: instance %d tune = %f", i, got)
		}
	}
}

func TestMasterTuneEditOverridesDetune(t *testing.T) {
	p := configured(t, fakeConfig(3), fakeOpts{})
	p.SetMasterParameter(fakeTune, 0.7)
	for i := 0; i < 3; i++ {
		if got := p.Instance(i).Param(fakeTune).GetValue(); got != 0.7 {
			t.Errorf("instance %d tune = %f, want 0.7", i, got)
		}
	}

	p.Synchronizer().ReapplyDetune()
	for i := 1; i < 3; i++ {
		want := TuneOffset(i, 3, DefaultDetuneSpread)
		if got := p.Instance(i).Param(fakeTune).GetValue(); !near(got, want, 1e-9) {
			t.Errorf("instance %d tune = %f, want %f", i, got, want)
		}
	}
}

func TestProgramLoad(t *testing.T) {
	tests := []struct {
		name         string
		programParam int
	}{
		{"detected", DetectProgramParam},
		{"configured", int(fakeProgram)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fakeConfig(4)
			cfg.ProgramParam = tt.programParam
			p := configured(t, cfg, fakeOpts{})

			var heard []string
			p.AddProgramListener(ProgramListenerFunc(func(index int, name string) {
				heard = append(heard, name)
			}))
			p.Instance(2).Param(fakeCutoff).SetValue(0.05)

			p.SetCurrentProgram(3)

			for i := 0; i < 4; i++ {
				e := p.Instance(i).Engine()
				if got := e.CurrentProgram(); got != 3 {
					t.Errorf("instance %d program = %d, want 3", i, got)
				}
				if got := p.Instance(i).Param(fakeCutoff).GetValue(); !near(got, 0.3, 1e-9) {
					t.Errorf("instance %d cutoff = %f, want 0.3", i, got)
				}
				if got := p.Instance(i).Param(fakeCoarse).GetPlainValue(); got != -12 {
					t.Errorf("instance %d coarse = %f, want -12", i, got)
				}
				wantTune := TuneOffset(i, 4, DefaultDetuneSpread)
				if got := p.Instance(i).Param(fakeTune).GetValue(); !near(got, wantTune, 1e-9) {
					t.Errorf("instance %d tune = %f, want %f", i, got, wantTune)
				}
			}
			if len(heard) != 1 || heard[0] != "Low" {
				t.Errorf("listener heard %v, want [Low]", heard)
			}
			if got := p.Synchronizer().EffectiveProgram(); got != 3 {
				t.Errorf("EffectiveProgram = %d, want 3", got)
			}
			if got := p.CurrentProgram(); got != 3 {
				t.Errorf("CurrentProgram = %d", got)
			}
			if s := p.Synchronizer().Stats(); s.DirectEdits != 0 {
				t.Errorf("program load produced %d direct edits", s.DirectEdits)
			}
		})
	}
}

func TestProgramsWithoutBank(t *testing.T) {
	p := configured(t, fakeConfig(2), fakeOpts{noPrograms: true})
	if got := p.NumPrograms(); got != 1 {
		t.Errorf("NumPrograms = %d, want 1", got)
	}
	if got := p.ProgramName(0); got != "Init" {
		t.Errorf("ProgramName(0) = %q", got)
	}
	p.SetCurrentProgram(2)
	if got := p.CurrentProgram(); got != 0 {
		t.Errorf("CurrentProgram = %d", got)
	}
}

func TestDispatcher(t *testing.T) {
	var engine, macro []uint32
	d := Dispatcher{
		Engine: engineFunc(func(id uint32, _ float64) { engine = append(engine, id) }),
		Macro:  macroFunc(func(id uint32, _ float64) { macro = append(macro, id) }),
	}
	d.Dispatch(SourceEngine, 3, 0)
	d.Listener(SourceMacro).ParameterChanged(1, 0)
	Dispatcher{}.Dispatch(SourceEngine, 4, 0)

	if len(engine) != 1 || engine[0] != 3 {
		t.Errorf("engine got %v", engine)
	}
	if len(macro) != 1 || macro[0] != 1 {
		t.Errorf("macro got %v", macro)
	}
}

type engineFunc func(uint32, float64)

func (f engineFunc) OnEngineParameterChanged(id uint32, v float64) { f(id, v) }

type macroFunc func(uint32, float64)

func (f macroFunc) OnMacroParameterChanged(id uint32, v float64) { f(id, v) }
