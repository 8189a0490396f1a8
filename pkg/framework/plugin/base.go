package plugin

import (
	"encoding/binary"
	"errors"
	"io"
	"sync/atomic"

	"github.com/justyntemme/unison/pkg/framework/bus"
	"github.com/justyntemme/unison/pkg/framework/param"
	"github.com/justyntemme/unison/pkg/framework/state"
)

// Program is a named preset given as plain parameter values.
type Program struct {
	Name   string
	Values map[uint32]float64
}

// BaseEngine implements the bookkeeping parts of Engine. Concrete engines
// embed it and add Process, Prepare and Release.
type BaseEngine struct {
	info     Info
	params   *param.Registry
	buses    *bus.Configuration
	state    *state.Manager
	programs []Program
	current  atomic.Int32
	program  *param.Parameter

	sampleRate   float64
	maxBlockSize int32
}

// NewBaseEngine creates a base with an empty registry and the given buses.
// A nil configuration means the stereo instrument layout.
func NewBaseEngine(info Info, buses *bus.Configuration) *BaseEngine {
	if buses == nil {
		buses = bus.NewGenerator()
	}
	b := &BaseEngine{
		info:   info,
		params: param.NewRegistry(),
		buses:  buses,
	}
	b.state = state.NewManager(b.params)
	b.state.SetCustomState(b.saveCustom, b.loadCustom)
	return b
}

// SetPrograms installs the program bank and registers a hidden program
// selector parameter with the given ID. Call once after adding the other
// parameters. Selecting a program through the registry loads it.
func (b *BaseEngine) SetPrograms(selectorID uint32, programs []Program) {
	if len(programs) == 0 {
		programs = []Program{{Name: "Init"}}
	}
	b.programs = programs

	b.program = param.New(selectorID, "Program").
		Range(0, float64(len(programs)-1)).
		Steps(int32(len(programs)-1)).
		Formatter(b.programLabel, nil).
		Hidden().
		ProgramChange().
		Build()
	b.params.Add(b.program)

	b.params.AddListener(param.ListenerFunc(func(id uint32, value float64) {
		if id == selectorID {
			b.loadProgram(int(b.program.Denormalize(value) + 0.5))
		}
	}))
}

// Info returns the engine metadata.
func (b *BaseEngine) Info() Info {
	return b.info
}

// Parameters returns the engine's parameter registry.
func (b *BaseEngine) Parameters() *param.Registry {
	return b.params
}

// Buses returns the engine's bus configuration.
func (b *BaseEngine) Buses() *bus.Configuration {
	return b.buses
}

// Prepare records the processing setup.
func (b *BaseEngine) Prepare(sampleRate float64, maxBlockSize int32) error {
	if sampleRate <= 0 || maxBlockSize <= 0 {
		return errors.New("sample rate and block size must be positive")
	}
	b.sampleRate = sampleRate
	b.maxBlockSize = maxBlockSize
	return nil
}

// Release forgets the processing setup.
func (b *BaseEngine) Release() {
	b.sampleRate = 0
}

// SampleRate returns the rate given to Prepare, 0 when released.
func (b *BaseEngine) SampleRate() float64 {
	return b.sampleRate
}

// MaxBlockSize returns the block size given to Prepare.
func (b *BaseEngine) MaxBlockSize() int32 {
	return b.maxBlockSize
}

// TailSeconds is zero unless the engine overrides it.
func (b *BaseEngine) TailSeconds() float64 {
	return 0
}

// NumPrograms returns the bank size, at least one.
func (b *BaseEngine) NumPrograms() int {
	if len(b.programs) == 0 {
		return 1
	}
	return len(b.programs)
}

// CurrentProgram returns the selected program index.
func (b *BaseEngine) CurrentProgram() int {
	return int(b.current.Load())
}

// ProgramName returns the name of a program, "" when out of range.
func (b *BaseEngine) ProgramName(index int) string {
	if len(b.programs) == 0 && index == 0 {
		return "Init"
	}
	if index < 0 || index >= len(b.programs) {
		return ""
	}
	return b.programs[index].Name
}

// SetCurrentProgram selects a program the way a host would, through the
// selector parameter, so listeners hear about it.
func (b *BaseEngine) SetCurrentProgram(index int) {
	if b.program == nil || index < 0 || index >= len(b.programs) {
		return
	}
	b.params.SetNotifying(b.program.ID, b.program.Normalize(float64(index)))
}

// GetState serializes every parameter and the program index.
func (b *BaseEngine) GetState() ([]byte, error) {
	return b.state.Bytes()
}

// SetState restores a blob from GetState without notifying listeners.
func (b *BaseEngine) SetState(data []byte) error {
	return b.state.LoadBytes(data)
}

func (b *BaseEngine) loadProgram(index int) {
	if index < 0 || index >= len(b.programs) {
		return
	}
	// a program is a full patch: anything it leaves out goes to default
	for _, p := range b.params.All() {
		if p != b.program {
			p.Reset()
		}
	}
	for id, plain := range b.programs[index].Values {
		if p := b.params.Get(id); p != nil {
			p.SetPlainValue(plain)
		}
	}
	b.current.Store(int32(index))
}

func (b *BaseEngine) programLabel(plain float64) string {
	return b.ProgramName(int(plain + 0.5))
}

func (b *BaseEngine) saveCustom(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, b.current.Load())
}

func (b *BaseEngine) loadCustom(r io.Reader, _ uint32) error {
	var index int32
	if err := binary.Read(r, binary.LittleEndian, &index); err != nil {
		return err
	}
	if index >= 0 && int(index) < b.NumPrograms() {
		b.current.Store(index)
	}
	return nil
}
