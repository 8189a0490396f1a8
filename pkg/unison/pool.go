package unison

import (
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/justyntemme/unison/pkg/framework/bus"
	"github.com/justyntemme/unison/pkg/framework/debug"
	"github.com/justyntemme/unison/pkg/framework/plugin"
	"github.com/justyntemme/unison/pkg/midi"
)

// Pool owns the N engine instances and their buffers.
type Pool struct {
	desc      plugin.Description
	instances []*Instance
	layout    bus.Layout

	sampleRate float64
	blockSize  int
	ready      bool

	parallel int
	group    errgroup.Group

	mixer *Mixer

	log      *debug.Logger
	profiler *debug.Profiler

	oversized atomic.Int64 // blocks larger than the configured size
	panics    atomic.Int64
}

// NewPool creates n instances of desc. Instances whose factory fails are
// left missing; the pool is still returned together with the joined errors.
func NewPool(desc plugin.Description, n int, layout bus.Layout, opts ...Option) (*Pool, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	p := &Pool{
		desc:      desc,
		instances: make([]*Instance, n),
		layout:    layout,
		log:       o.logger,
		profiler:  o.profiler,
	}

	var errs []error
	for i := range p.instances {
		in := &Instance{index: i, track: p.profiler.Track(fmt.Sprintf("instance %d", i))}
		p.instances[i] = in

		e, err := desc.Create()
		if err == nil && e == nil {
			err = ErrMissingInstance
		}
		if err != nil {
			errs = append(errs, instanceErr(i, "create", fmt.Errorf("%w: %w", ErrMissingInstance, err)))
			p.log.Error("instance %d: create %s: %v", i, desc.Info.Name, err)
			continue
		}
		in.engine = e
	}
	return p, errors.Join(errs...)
}

// SetMixer sets the mixer ProcessBlock hands the rendered buffers to.
func (p *Pool) SetMixer(m *Mixer) {
	p.mixer = m
}

// SetParallelRender renders up to limit instances concurrently. Each
// instance only writes its own buffers.
func (p *Pool) SetParallelRender(limit int) {
	p.parallel = limit
	if limit > 1 {
		p.group.SetLimit(limit)
	}
}

// SetLayout changes the bus layout applied at the next Configure.
func (p *Pool) SetLayout(l bus.Layout) {
	p.layout = l
	p.ready = false
}

// Layout returns the processor bus layout the engines are reconciled to.
func (p *Pool) Layout() bus.Layout {
	return p.layout
}

// Size returns N.
func (p *Pool) Size() int {
	return len(p.instances)
}

// Instance returns slot i, nil when out of range.
func (p *Pool) Instance(i int) *Instance {
	if i < 0 || i >= len(p.instances) {
		return nil
	}
	return p.instances[i]
}

// Master returns instance 0.
func (p *Pool) Master() *Instance {
	return p.instances[0]
}

// Ready reports whether the last Configure succeeded.
func (p *Pool) Ready() bool {
	return p.ready
}

// Missing lists the slots without an engine.
func (p *Pool) Missing() []int {
	var out []int
	for _, in := range p.instances {
		if in.Missing() {
			out = append(out, in.index)
		}
	}
	return out
}

// SampleRate returns the configured rate.
func (p *Pool) SampleRate() float64 {
	return p.sampleRate
}

// BlockSize returns the configured maximum block size.
func (p *Pool) BlockSize() int {
	return p.blockSize
}

// Configure releases every engine, reconciles its audio buses with the
// pool layout one bus at a time, prepares it for the new rate and block
// size, and reallocates its buffers. If any instance is missing nothing is
// touched and the pool stays unusable.
func (p *Pool) Configure(sampleRate float64, blockSize int) error {
	if sampleRate <= 0 || blockSize <= 0 {
		return fmt.Errorf("invalid setup: rate %.0f, block %d", sampleRate, blockSize)
	}
	if missing := p.Missing(); len(missing) > 0 {
		p.ready = false
		errs := make([]error, len(missing))
		for i, idx := range missing {
			errs[i] = instanceErr(idx, "configure", ErrMissingInstance)
		}
		p.log.Error("configure refused: %d of %d instances missing", len(missing), len(p.instances))
		return errors.Join(errs...)
	}

	p.ready = false
	p.sampleRate = sampleRate
	p.blockSize = blockSize
	channels := p.layout.MainOutputChannels()

	var errs []error
	for _, in := range p.instances {
		in.engine.Release()
		in.prepared = false

		changes, err := bus.Reconcile(in.engine.Buses(), p.layout)
		if err != nil {
			errs = append(errs, instanceErr(in.index, "reconcile buses", err))
			continue
		}
		if changes > 0 {
			p.log.Debug("instance %d: %d bus changes", in.index, changes)
		}
		if got := bus.LayoutOf(in.engine.Buses()).MainOutputChannels(); got != channels {
			// the engine keeps its own bus width; only the pool's channels are rendered
			p.log.Debug("instance %d: main bus has %d channels, rendering %d", in.index, got, channels)
		}

		if err := in.engine.Prepare(sampleRate, int32(blockSize)); err != nil {
			errs = append(errs, instanceErr(in.index, "prepare", err))
			continue
		}
		in.allocate(channels, blockSize)
		in.ctx.SampleRate = sampleRate
		in.prepared = true
	}

	p.profiler.SetBudget(debug.BlockBudget(sampleRate, blockSize))
	p.ready = true
	if len(errs) > 0 {
		p.log.Warn("configure: %d instances will render silence", len(errs))
	}
	p.log.Info("configured %d x %s at %.0f Hz, block %d", len(p.instances), p.desc.Info.Name, sampleRate, blockSize)
	return errors.Join(errs...)
}

// PropagateMasterState copies instance 0's state verbatim to every other
// instance. Failures are collected and the rest still receive the state.
func (p *Pool) PropagateMasterState() error {
	master := p.Master()
	if master.Missing() {
		return instanceErr(0, "get state", ErrMissingInstance)
	}
	blob, err := master.engine.GetState()
	if err != nil {
		return instanceErr(0, "get state", err)
	}
	return p.applyState(blob, 1)
}

// ApplyState applies blob to every instance, master included.
func (p *Pool) ApplyState(blob []byte) error {
	return p.applyState(blob, 0)
}

func (p *Pool) applyState(blob []byte, from int) error {
	var errs []error
	for _, in := range p.instances[from:] {
		if in.Missing() {
			errs = append(errs, instanceErr(in.index, "set state", ErrMissingInstance))
			continue
		}
		if err := in.engine.SetState(blob); err != nil {
			p.log.Error("instance %d: set state: %v", in.index, err)
			errs = append(errs, instanceErr(in.index, "set state", err))
		}
	}
	return errors.Join(errs...)
}

// Render renders events into every instance's buffer with the shape of
// out. Unready instances, and instances whose engine panics, yield silence.
func (p *Pool) Render(events []midi.Event, channels, samples int) {
	if samples > p.blockSize {
		p.oversized.Add(1)
		samples = 0
	}
	for _, in := range p.instances {
		in.cut(channels, samples)
	}
	if samples == 0 {
		for _, in := range p.instances {
			in.silence()
		}
		return
	}

	if p.parallel > 1 {
		for _, in := range p.instances {
			in := in
			p.group.Go(func() error {
				p.renderInstance(in, events)
				return nil
			})
		}
		p.group.Wait()
		return
	}
	for _, in := range p.instances {
		p.renderInstance(in, events)
	}
}

// ProcessBlock renders every instance, the master included, then mixes
// the spread voices into out.
func (p *Pool) ProcessBlock(events []midi.Event, out [][]float32) {
	samples := 0
	if len(out) > 0 {
		samples = len(out[0])
	}
	if !p.ready {
		for _, ch := range out {
			clear(ch)
		}
		return
	}
	p.Render(events, len(out), samples)
	if p.mixer != nil {
		p.mixer.Mix(out)
	}
}

func (p *Pool) renderInstance(in *Instance, events []midi.Event) {
	if !in.Ready() {
		in.silence()
		return
	}
	in.ctx.Output = in.view
	in.ctx.SetInputEvents(events)
	in.track.Begin()
	defer p.recoverRender(in)
	in.engine.Process(in.ctx)
}

// recoverRender keeps a panicking engine from taking the block down.
func (p *Pool) recoverRender(in *Instance) {
	in.track.End()
	if r := recover(); r != nil {
		p.panics.Add(1)
		in.silence()
		p.log.Error("instance %d: render panic: %v", in.index, r)
	}
}

// RenderStats returns the timing of each instance's render calls.
func (p *Pool) RenderStats() []debug.Stats {
	out := make([]debug.Stats, len(p.instances))
	for i, in := range p.instances {
		out[i] = in.track.Stats()
	}
	return out
}

// Faults returns the number of oversized blocks and recovered panics.
func (p *Pool) Faults() (oversized, panics int64) {
	return p.oversized.Load(), p.panics.Load()
}

// Close releases every engine. The pool cannot render afterwards.
func (p *Pool) Close() {
	for _, in := range p.instances {
		if in.engine != nil {
			in.engine.Release()
		}
		in.prepared = false
	}
	p.ready = false
}
