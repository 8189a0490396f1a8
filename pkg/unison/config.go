package unison

import (
	"fmt"

	"github.com/justyntemme/unison/pkg/framework/bus"
	"github.com/justyntemme/unison/pkg/framework/debug"
)

// DetectProgramParam asks the processor to use the engine parameter that
// carries the program-change flag as the program sentinel.
const DetectProgramParam = -1

// Macro ranges.
const (
	MaxDetuneSpread     = 0.4
	DefaultDetuneSpread = 0.1
	DefaultPanSpread    = 1.0
)

// Config fixes the shape of a unison processor for its lifetime.
type Config struct {
	// NumInstances is the pool size N, including the master.
	NumInstances int

	// MuteParam is the engine parameter whose value gates an instance in
	// the mix (0 means muted). TuneParam receives the detune offsets.
	MuteParam uint32
	TuneParam uint32

	// ProgramParam is the engine parameter whose change means a new
	// program or cartridge was loaded on the master, or DetectProgramParam.
	ProgramParam int

	// Mute lists instances forced to zero gain regardless of MuteParam.
	Mute MutePolicy

	DefaultDetune float64
	DefaultPan    float64

	// MasterInMix mixes instance 0 centred alongside the spread voices.
	MasterInMix bool

	// ParallelRender renders instances on up to this many goroutines.
	// Zero or one renders sequentially on the calling goroutine.
	ParallelRender int

	// Layout is the processor's own audio bus layout.
	Layout bus.Layout
}

// DefaultConfig is a seven-instance stereo pool matching the synth
// engine's parameter layout (output level 0, tune 1).
func DefaultConfig() Config {
	return Config{
		NumInstances:  7,
		MuteParam:     0,
		TuneParam:     1,
		ProgramParam:  DetectProgramParam,
		DefaultDetune: DefaultDetuneSpread,
		DefaultPan:    DefaultPanSpread,
		Layout:        bus.StereoOut,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.NumInstances < 2 || c.NumInstances > MaxInstances {
		return fmt.Errorf("instances must be between 2 and %d, got %d", MaxInstances, c.NumInstances)
	}
	if c.DefaultDetune < 0 || c.DefaultDetune > MaxDetuneSpread {
		return fmt.Errorf("default detune %.3f outside [0, %.1f]", c.DefaultDetune, MaxDetuneSpread)
	}
	if c.DefaultPan < 0 || c.DefaultPan > 1 {
		return fmt.Errorf("default pan %.3f outside [0, 1]", c.DefaultPan)
	}
	if c.ProgramParam < DetectProgramParam {
		return fmt.Errorf("invalid program parameter %d", c.ProgramParam)
	}
	for _, i := range c.Mute.Indices() {
		if i >= c.NumInstances {
			return fmt.Errorf("muted instance %d outside pool of %d", i, c.NumInstances)
		}
	}
	if c.ParallelRender < 0 {
		return fmt.Errorf("parallel render limit must not be negative")
	}
	if !IsBusLayoutSupported(c.Layout) {
		return fmt.Errorf("%w: %v", ErrLayoutNotSupported, c.Layout)
	}
	return nil
}

// IsBusLayoutSupported accepts a main output of one or two channels. The
// engines are instruments so audio inputs are optional.
func IsBusLayoutSupported(l bus.Layout) bool {
	ch := l.MainOutputChannels()
	return ch == 1 || ch == 2
}

// Option customizes a processor or pool.
type Option func(*options)

type options struct {
	logger   *debug.Logger
	profiler *debug.Profiler
}

func defaultOptions() options {
	return options{logger: debug.Default(), profiler: debug.NewProfiler()}
}

// WithLogger routes diagnostics to l.
func WithLogger(l *debug.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithProfiler records per-instance render timing into p.
func WithProfiler(p *debug.Profiler) Option {
	return func(o *options) {
		if p != nil {
			o.profiler = p
		}
	}
}
