package unison

import (
	"sync"
	"sync/atomic"

	"github.com/justyntemme/unison/pkg/framework/debug"
	"github.com/justyntemme/unison/pkg/framework/param"
)

// Guard is the reentrancy flag of a Synchronizer. While suppressed, writes
// the synchronizer makes itself are not treated as new edits.
type Guard struct {
	suppressed atomic.Bool
}

// Enabled reports whether edits are currently fanned out.
func (g *Guard) Enabled() bool {
	return !g.suppressed.Load()
}

// Suppress disables the guard and returns the func that restores the
// previous state. Use it with defer.
func (g *Guard) Suppress() (restore func()) {
	prev := g.suppressed.Swap(true)
	return func() { g.suppressed.Store(prev) }
}

// Source tells the dispatcher where a parameter change came from.
type Source int

const (
	SourceEngine Source = iota // master engine parameter
	SourceMacro                // processor macro
)

// EngineParameterListener receives master engine parameter changes.
type EngineParameterListener interface {
	OnEngineParameterChanged(id uint32, value float64)
}

// MacroParameterListener receives macro changes.
type MacroParameterListener interface {
	OnMacroParameterChanged(id uint32, value float64)
}

// Dispatcher routes a change to the listener for its source.
type Dispatcher struct {
	Engine EngineParameterListener
	Macro  MacroParameterListener
}

// Dispatch delivers one change.
func (d Dispatcher) Dispatch(src Source, id uint32, value float64) {
	switch src {
	case SourceEngine:
		if d.Engine != nil {
			d.Engine.OnEngineParameterChanged(id, value)
		}
	case SourceMacro:
		if d.Macro != nil {
			d.Macro.OnMacroParameterChanged(id, value)
		}
	}
}

// Listener returns a registry listener that dispatches as src.
func (d Dispatcher) Listener(src Source) param.Listener {
	return param.ListenerFunc(func(id uint32, value float64) {
		d.Dispatch(src, id, value)
	})
}

// ProgramListener hears about the program the pool now plays.
type ProgramListener interface {
	ProgramChanged(index int, name string)
}

// ProgramListenerFunc adapts a function to ProgramListener.
type ProgramListenerFunc func(index int, name string)

// ProgramChanged calls f.
func (f ProgramListenerFunc) ProgramChanged(index int, name string) {
	f(index, name)
}

// SyncStats counts synchronizer traffic.
type SyncStats struct {
	FanOuts       int64 // master edits fanned out
	Writes        int64 // parameter writes made on instances 1..N-1
	NotFound      int64 // targets skipped for lacking the parameter
	Suppressed    int64 // master edits seen while the guard was off
	ProgramLoads  int64
	DirectEdits   int64 // edits made straight on a non-master instance
	StateFailures int64
}

// Synchronizer keeps instances 1..N-1 in step with the master and applies
// the macros. Its entry points run on control goroutines and are
// serialized by one mutex; the audio goroutine never calls them.
type Synchronizer struct {
	mu    sync.Mutex
	guard Guard

	pool         *Pool
	macros       *param.Registry
	tuneParam    uint32
	programParam uint32
	hasProgram   bool

	programs  []ProgramListener
	effective atomic.Int32

	log *debug.Logger

	fanOuts, writes, notFound, suppressed atomic.Int64
	programLoads, directEdits, stateFails atomic.Int64
}

// NewSynchronizer creates a synchronizer over pool. It does not listen to
// anything until Attach.
func NewSynchronizer(pool *Pool, macros *param.Registry, cfg Config, log *debug.Logger) *Synchronizer {
	if log == nil {
		log = debug.Default()
	}
	s := &Synchronizer{
		pool:      pool,
		macros:    macros,
		tuneParam: cfg.TuneParam,
		log:       log,
	}
	if cfg.ProgramParam >= 0 {
		s.programParam = uint32(cfg.ProgramParam)
		s.hasProgram = true
	}
	return s
}

// SetProgramParam sets the sentinel parameter signalling a program load.
func (s *Synchronizer) SetProgramParam(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programParam = id
	s.hasProgram = true
}

// Guard exposes the reentrancy guard.
func (s *Synchronizer) Guard() *Guard {
	return &s.guard
}

// Attach subscribes the synchronizer to the master, to the other
// instances (to recognise its own echoes) and to the macros.
func (s *Synchronizer) Attach() {
	d := Dispatcher{Engine: s, Macro: s}
	if s.macros != nil {
		s.macros.AddListener(d.Listener(SourceMacro))
	}
	for _, in := range s.pool.instances {
		r := in.Parameters()
		if r == nil {
			continue
		}
		if in.index == 0 {
			r.AddListener(d.Listener(SourceEngine))
			continue
		}
		idx := in.index
		r.AddListener(param.ListenerFunc(func(id uint32, value float64) {
			s.onInstanceParameterChanged(idx, id, value)
		}))
	}
}

// AddProgramListener subscribes l to program metadata changes.
func (s *Synchronizer) AddProgramListener(l ProgramListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programs = append(s.programs, l)
}

// EffectiveProgram is the program the whole pool was last aligned to.
func (s *Synchronizer) EffectiveProgram() int {
	return int(s.effective.Load())
}

// OnEngineParameterChanged fans a master edit out to instances 1..N-1
// through their notifying write path. A change of the program sentinel
// triggers a full program load instead.
func (s *Synchronizer) OnEngineParameterChanged(id uint32, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.guard.Enabled() {
		s.suppressed.Add(1)
		return
	}
	if s.hasProgram && id == s.programParam {
		s.programLoadLocked()
		return
	}

	restore := s.guard.Suppress()
	defer restore()

	s.fanOuts.Add(1)
	for _, in := range s.pool.instances[1:] {
		r := in.Parameters()
		if r == nil {
			continue
		}
		if !r.SetNotifying(id, value) {
			s.notFound.Add(1)
			s.log.Warn("instance %d: %v: id %d", in.index, ErrParameterNotFound, id)
			continue
		}
		s.writes.Add(1)
	}
	s.log.Debug("fan-out id %d = %.4f", id, value)
}

// OnMacroParameterChanged applies a macro edit. Detune is written to the
// engines; pan spread is read by the mixer every block.
func (s *Synchronizer) OnMacroParameterChanged(id uint32, value float64) {
	if id != MacroDetune {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyDetuneLocked(s.detune())
}

// ApplyDetune writes the spread tune offsets for detune to instances 1..N-1.
func (s *Synchronizer) ApplyDetune(detune float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyDetuneLocked(detune)
}

// ReapplyDetune writes the offsets for the current macro value.
func (s *Synchronizer) ReapplyDetune() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyDetuneLocked(s.detune())
}

func (s *Synchronizer) detune() float64 {
	if s.macros == nil {
		return 0
	}
	if p := s.macros.Get(MacroDetune); p != nil {
		return p.GetPlainValue()
	}
	return 0
}

func (s *Synchronizer) applyDetuneLocked(detune float64) {
	restore := s.guard.Suppress()
	defer restore()

	n := s.pool.Size()
	for _, in := range s.pool.instances[1:] {
		r := in.Parameters()
		if r == nil {
			continue
		}
		if !r.SetNotifying(s.tuneParam, TuneOffset(in.index, n, detune)) {
			s.notFound.Add(1)
			s.log.Warn("instance %d: tune: %v", in.index, ErrParameterNotFound)
			continue
		}
		s.writes.Add(1)
	}
}

// OnProgramOrCartridgeLoad copies the master's state to every instance,
// re-applies detune and republishes the program.
func (s *Synchronizer) OnProgramOrCartridgeLoad() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.programLoadLocked()
}

func (s *Synchronizer) programLoadLocked() error {
	s.programLoads.Add(1)
	err := s.withSuppressed(func() error {
		err := s.pool.PropagateMasterState()
		s.applyDetuneLocked(s.detune())
		return err
	})
	if err != nil {
		s.stateFails.Add(1)
		s.log.Error("program load: %v", err)
	}
	s.publishLocked()
	return err
}

// LoadState applies blob to every instance and realigns the pool the way
// a program load does.
func (s *Synchronizer) LoadState(blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.withSuppressed(func() error {
		err := s.pool.ApplyState(blob)
		s.applyDetuneLocked(s.detune())
		return err
	})
	if err != nil {
		s.stateFails.Add(1)
		s.log.Error("load state: %v", err)
	}
	s.publishLocked()
	return err
}

func (s *Synchronizer) withSuppressed(fn func() error) error {
	restore := s.guard.Suppress()
	defer restore()
	return fn()
}

func (s *Synchronizer) publishLocked() {
	master := s.pool.Master()
	if master.Missing() {
		return
	}
	index := master.engine.CurrentProgram()
	name := master.engine.ProgramName(index)
	s.effective.Store(int32(index))
	for _, l := range s.programs {
		l.ProgramChanged(index, name)
	}
}

// onInstanceParameterChanged sees every notifying write on instances
// 1..N-1. It must not take the mutex: fan-out writes arrive here while it
// is held.
func (s *Synchronizer) onInstanceParameterChanged(index int, id uint32, value float64) {
	if !s.guard.Enabled() {
		return
	}
	s.directEdits.Add(1)
	s.log.Debug("instance %d: direct edit id %d = %.4f, not propagated", index, id, value)
}

// Stats returns the traffic counters.
func (s *Synchronizer) Stats() SyncStats {
	return SyncStats{
		FanOuts:       s.fanOuts.Load(),
		Writes:        s.writes.Load(),
		NotFound:      s.notFound.Load(),
		Suppressed:    s.suppressed.Load(),
		ProgramLoads:  s.programLoads.Load(),
		DirectEdits:   s.directEdits.Load(),
		StateFailures: s.stateFails.Load(),
	}
}
