package param

import "testing"

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.Add(
		New(0, "Output").ShortName("Out").Default(1).Build(),
		New(1, "Tune").DefaultNormalized(0.5).Build(),
	)
	return r
}

func TestRegistryOrderAndLookup(t *testing.T) {
	r := newTestRegistry()
	r.Add(New(0, "Duplicate").Build())

	if r.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", r.Count())
	}
	if r.GetByIndex(1).Name != "Tune" {
		t.Errorf("GetByIndex(1) = %s, want Tune", r.GetByIndex(1).Name)
	}
	if r.GetByIndex(5) != nil {
		t.Error("GetByIndex out of range should be nil")
	}
	if p := r.GetByName("out"); p == nil || p.ID != 0 {
		t.Errorf("GetByName(out) = %v, want Output", p)
	}
	if r.Get(0).Name != "Output" {
		t.Error("duplicate ID replaced the original parameter")
	}
}

func TestRegistrySetNotifying(t *testing.T) {
	r := newTestRegistry()

	var gotID uint32
	var gotValue float64
	calls := 0
	r.AddListener(ListenerFunc(func(id uint32, value float64) {
		calls++
		gotID, gotValue = id, value
	}))

	if !r.SetNotifying(1, 1.5) {
		t.Fatal("SetNotifying returned false for a known parameter")
	}
	if calls != 1 || gotID != 1 || gotValue != 1 {
		t.Errorf("listener got (%d, %v) after %d calls, want (1, 1) once", gotID, gotValue, calls)
	}

	if r.SetNotifying(42, 0.3) {
		t.Error("SetNotifying should fail for an unknown parameter")
	}
	if calls != 1 {
		t.Error("listener must not fire for an unknown parameter")
	}

	// Plain writes stay silent.
	r.Get(0).SetValue(0)
	if calls != 1 {
		t.Error("direct SetValue should not notify")
	}
}

func TestRegistrySnapshot(t *testing.T) {
	r := newTestRegistry()
	snap := r.Snapshot()

	if snap[0] != 1 || snap[1] != 0.5 {
		t.Errorf("Snapshot() = %v", snap)
	}
}
