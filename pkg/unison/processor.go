// Package unison drives a fixed pool of identical synthesis engines as one
// instrument: every instance hears the same MIDI, instances 1..N-1 are
// detuned and spread across the stereo field, and parameter edits on the
// master are mirrored to the rest.
package unison

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/justyntemme/unison/pkg/framework/bus"
	"github.com/justyntemme/unison/pkg/framework/debug"
	"github.com/justyntemme/unison/pkg/framework/param"
	"github.com/justyntemme/unison/pkg/framework/plugin"
	"github.com/justyntemme/unison/pkg/framework/state"
	"github.com/justyntemme/unison/pkg/midi"
)

// Macro parameter IDs in the processor's own registry.
const (
	MacroDetune uint32 = iota
	MacroPan
)

const (
	stateMagic   = "UNIPRC"
	stateVersion = 1
)

// Processor is the unison instrument.
type Processor struct {
	cfg  Config
	desc plugin.Description

	pool   *Pool
	mixer  *Mixer
	sync   *Synchronizer
	store  *Store
	macros *param.Registry
	state  *state.Manager

	log      *debug.Logger
	profiler *debug.Profiler
}

// NewProcessor builds the pool of cfg.NumInstances engines from desc. If
// some engines fail to create, the processor is still returned along with
// the error; it then refuses to configure and to open an editor.
func NewProcessor(desc plugin.Description, cfg Config, opts ...Option) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("unison config: %w", err)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	pool, createErr := NewPool(desc, cfg.NumInstances, cfg.Layout, WithLogger(o.logger), WithProfiler(o.profiler))
	pool.SetParallelRender(cfg.ParallelRender)

	p := &Processor{
		cfg:      cfg,
		desc:     desc,
		pool:     pool,
		macros:   newMacros(cfg),
		log:      o.logger,
		profiler: o.profiler,
	}
	p.mixer = NewMixer(pool, cfg, p.macros.Get(MacroPan))
	pool.SetMixer(p.mixer)

	p.sync = NewSynchronizer(pool, p.macros, cfg, o.logger)
	if cfg.ProgramParam == DetectProgramParam && !pool.Master().Missing() {
		if sel, ok := plugin.ProgramParameter(pool.Master().Engine()); ok {
			p.sync.SetProgramParam(sel.ID)
		}
	}
	p.sync.Attach()
	p.store = NewStore(pool, p.sync)

	p.state = state.NewManager(p.macros).WithMagic(stateMagic).WithVersion(stateVersion)
	p.state.SetCustomState(p.saveEngines, p.loadEngines)

	if createErr == nil {
		p.sync.ReapplyDetune()
	}
	return p, createErr
}

func newMacros(cfg Config) *param.Registry {
	r := param.NewRegistry()
	r.Add(
		param.New(MacroDetune, "Detune Spread").
			ShortName("Detune").
			Range(0, MaxDetuneSpread).
			Default(cfg.DefaultDetune).
			Formatter(func(v float64) string { return fmt.Sprintf("%.3f", v) }, nil).
			Build(),
		param.New(MacroPan, "Pan Spread").
			ShortName("Pan").
			Range(0, 1).
			Default(cfg.DefaultPan).
			Unit("%").
			Formatter(func(v float64) string { return param.PercentFormatter(v * 100) }, func(s string) (float64, error) {
				v, err := param.PercentParser(s)
				return v / 100, err
			}).
			Build(),
	)
	return r
}

// Name is the engine name with the unison suffix.
func (p *Processor) Name() string {
	return p.desc.Info.Name + " Unison"
}

// AcceptsMIDI is always true: the processor is an instrument.
func (p *Processor) AcceptsMIDI() bool { return true }

// ProducesMIDI is always false.
func (p *Processor) ProducesMIDI() bool { return false }

// IsMIDIEffect is always false.
func (p *Processor) IsMIDIEffect() bool { return false }

// NumInstances returns the fixed pool size.
func (p *Processor) NumInstances() int {
	return p.pool.Size()
}

// Instance gives read access to one instance for editors.
func (p *Processor) Instance(i int) *Instance {
	return p.pool.Instance(i)
}

// Config returns the configuration the processor was built with.
func (p *Processor) Config() Config { return p.cfg }

// Pool returns the instance pool.
func (p *Processor) Pool() *Pool { return p.pool }

// Mixer returns the mixer.
func (p *Processor) Mixer() *Mixer { return p.mixer }

// Synchronizer returns the parameter synchronizer.
func (p *Processor) Synchronizer() *Synchronizer { return p.sync }

// Store returns the master state store.
func (p *Processor) Store() *Store { return p.store }

// Macros returns the registry holding the detune and pan macros.
func (p *Processor) Macros() *param.Registry {
	return p.macros
}

// DetuneSpread returns the current detune macro value.
func (p *Processor) DetuneSpread() float64 {
	return p.macros.Get(MacroDetune).GetPlainValue()
}

// PanSpread returns the current pan macro value.
func (p *Processor) PanSpread() float64 {
	return p.macros.Get(MacroPan).GetPlainValue()
}

// SetDetuneSpread sets the detune macro the way host automation would.
func (p *Processor) SetDetuneSpread(v float64) {
	m := p.macros.Get(MacroDetune)
	p.macros.SetNotifying(MacroDetune, m.Normalize(v))
}

// SetPanSpread sets the pan macro the way host automation would.
func (p *Processor) SetPanSpread(v float64) {
	m := p.macros.Get(MacroPan)
	p.macros.SetNotifying(MacroPan, m.Normalize(v))
}

// SetMasterParameter edits a master engine parameter through its
// notifying path so the change is mirrored. v is normalized.
func (p *Processor) SetMasterParameter(id uint32, v float64) error {
	r := p.pool.Master().Parameters()
	if r == nil {
		return instanceErr(0, "set parameter", ErrMissingInstance)
	}
	if !r.SetNotifying(id, v) {
		return instanceErr(0, "set parameter", fmt.Errorf("%w: id %d", ErrParameterNotFound, id))
	}
	return nil
}

// Configure prepares every instance for the host setup and aligns them
// with the master.
func (p *Processor) Configure(sampleRate float64, blockSize int) error {
	if err := p.pool.Configure(sampleRate, blockSize); err != nil {
		if !p.pool.Ready() {
			return err
		}
		p.log.Warn("configure: %v", err)
	}
	return p.sync.OnProgramOrCartridgeLoad()
}

// Ready returns ErrPoolNotReady until Configure has succeeded. Until
// then every block is silent.
func (p *Processor) Ready() error {
	if !p.pool.Ready() {
		return ErrPoolNotReady
	}
	return nil
}

// ProcessBlock renders one block of events into out. It never fails: an
// unconfigured processor outputs silence.
func (p *Processor) ProcessBlock(events []midi.Event, out [][]float32) {
	p.pool.ProcessBlock(events, out)
}

// IsBusLayoutSupported reports whether l can be used.
func (p *Processor) IsBusLayoutSupported(l bus.Layout) bool {
	return IsBusLayoutSupported(l)
}

// SetBusLayout changes the processor layout. The engines are reconciled
// to it at the next Configure.
func (p *Processor) SetBusLayout(l bus.Layout) error {
	if !IsBusLayoutSupported(l) {
		return fmt.Errorf("%w: %v", ErrLayoutNotSupported, l)
	}
	p.pool.SetLayout(l)
	return nil
}

// BusLayout returns the processor layout.
func (p *Processor) BusLayout() bus.Layout {
	return p.pool.Layout()
}

// NumPrograms is read through the master; at least one is reported.
func (p *Processor) NumPrograms() int {
	if e := p.pool.Master().Engine(); e != nil {
		return max(1, e.NumPrograms())
	}
	return 1
}

// CurrentProgram is the master's current program.
func (p *Processor) CurrentProgram() int {
	if e := p.pool.Master().Engine(); e != nil {
		return e.CurrentProgram()
	}
	return 0
}

// SetCurrentProgram selects a program on the master; the synchronizer
// sees the program sentinel change and aligns the other instances.
func (p *Processor) SetCurrentProgram(index int) {
	if e := p.pool.Master().Engine(); e != nil {
		e.SetCurrentProgram(index)
	}
}

// ProgramName is read through the master.
func (p *Processor) ProgramName(index int) string {
	if e := p.pool.Master().Engine(); e != nil {
		return e.ProgramName(index)
	}
	return ""
}

// TailSeconds is the master's tail.
func (p *Processor) TailSeconds() float64 {
	if e := p.pool.Master().Engine(); e != nil {
		return e.TailSeconds()
	}
	return 0
}

// AddProgramListener subscribes l to program changes of the pool.
func (p *Processor) AddProgramListener(l ProgramListener) {
	p.sync.AddProgramListener(l)
}

// GetState returns the macros and the master state in one blob.
func (p *Processor) GetState() ([]byte, error) {
	return p.state.Bytes()
}

// SetState restores a blob from GetState.
func (p *Processor) SetState(data []byte) error {
	return p.state.LoadBytes(data)
}

func (p *Processor) saveEngines(w io.Writer) error {
	blob, err := p.store.Save()
	if err != nil {
		return err
	}
	return state.WriteBlob(w, blob)
}

func (p *Processor) loadEngines(r io.Reader, _ uint32) error {
	blob, err := state.ReadBlob(r)
	if err != nil {
		return err
	}
	return p.store.Load(blob)
}

// Editor is the read surface handed to a user interface.
type Editor struct {
	Instances []*param.Registry
	Macros    *param.Registry
}

// CreateEditor refuses unless every instance exists.
func (p *Processor) CreateEditor() (*Editor, error) {
	if missing := p.pool.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("editor: %w: %v", ErrMissingInstance, missing)
	}
	ed := &Editor{Macros: p.macros, Instances: make([]*param.Registry, p.pool.Size())}
	for i := range ed.Instances {
		ed.Instances[i] = p.pool.Instance(i).Parameters()
	}
	return ed, nil
}

// Stats collects the render timings and synchronizer counters.
type Stats struct {
	Render  []debug.Stats
	Sync    SyncStats
	Unmuted int

	OversizedBlocks int64
	RenderPanics    int64
}

// Stats returns a snapshot of the processor's counters.
func (p *Processor) Stats() Stats {
	over, panics := p.pool.Faults()
	return Stats{
		Render:          p.pool.RenderStats(),
		Sync:            p.sync.Stats(),
		Unmuted:         p.mixer.Unmuted(),
		OversizedBlocks: over,
		RenderPanics:    panics,
	}
}

// Close releases every engine.
func (p *Processor) Close() {
	p.pool.Close()
}

// LoadStateFrom reads a GetState blob from r.
func (p *Processor) LoadStateFrom(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if err := p.SetState(data); err != nil {
		// a raw engine blob is accepted too
		if errors.Is(err, state.ErrInvalidFormat) {
			return p.store.Load(data)
		}
		return err
	}
	return nil
}

// SaveStateTo writes GetState to w.
func (p *Processor) SaveStateTo(w io.Writer) error {
	data, err := p.GetState()
	if err != nil {
		return err
	}
	_, err = io.Copy(w, bytes.NewReader(data))
	return err
}
