// Package plugin defines the engine contract the unison processor drives
// and a base implementation handling parameters, buses, state and programs.
package plugin

import (
	"github.com/justyntemme/unison/pkg/framework/bus"
	"github.com/justyntemme/unison/pkg/framework/param"
	"github.com/justyntemme/unison/pkg/framework/process"
)

// Engine is one synthesis engine instance. How it renders is its own
// business; the host only relies on this surface.
type Engine interface {
	Info() Info

	// Prepare allocates for the given rate and block size. Release undoes
	// it; Prepare may be called again afterwards.
	Prepare(sampleRate float64, maxBlockSize int32) error
	Release()

	// Process renders one block. ctx carries the block's MIDI events and
	// the output buffers. It must not allocate or block.
	Process(ctx *process.Context)

	Parameters() *param.Registry
	Buses() *bus.Configuration

	NumPrograms() int
	CurrentProgram() int
	SetCurrentProgram(index int)
	ProgramName(index int) string

	TailSeconds() float64

	GetState() ([]byte, error)
	SetState(data []byte) error
}

// Description identifies an engine type and knows how to make instances.
type Description struct {
	Info Info
	New  func() (Engine, error)
}

// Create makes a new instance.
func (d Description) Create() (Engine, error) {
	return d.New()
}

// ProgramParameter finds the parameter flagged as the program selector.
func ProgramParameter(e Engine) (*param.Parameter, bool) {
	for _, p := range e.Parameters().All() {
		if p.HasFlag(param.IsProgramChange) {
			return p, true
		}
	}
	return nil, false
}
