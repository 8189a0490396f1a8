package unison

import (
	"github.com/justyntemme/unison/pkg/framework/debug"
	"github.com/justyntemme/unison/pkg/framework/param"
	"github.com/justyntemme/unison/pkg/framework/plugin"
	"github.com/justyntemme/unison/pkg/framework/process"
)

// Instance is one slot of the pool: an engine plus the buffers it renders
// into. The pool owns it; everything else borrows.
type Instance struct {
	index  int
	engine plugin.Engine

	ctx      *process.Context
	storage  [][]float32 // allocated at Configure, one slice per channel
	view     [][]float32 // storage cut to the current block
	prepared bool

	track *debug.Track
}

// Index returns the ordinal of the instance. 0 is the master.
func (in *Instance) Index() int {
	return in.index
}

// Engine returns the engine, nil when creation failed.
func (in *Instance) Engine() plugin.Engine {
	return in.engine
}

// Missing reports whether the engine could not be created.
func (in *Instance) Missing() bool {
	return in.engine == nil
}

// Ready reports whether the instance can render.
func (in *Instance) Ready() bool {
	return in.engine != nil && in.prepared
}

// Parameters returns the engine's registry, nil when missing.
func (in *Instance) Parameters() *param.Registry {
	if in.engine == nil {
		return nil
	}
	return in.engine.Parameters()
}

// Param looks up one engine parameter.
func (in *Instance) Param(id uint32) *param.Parameter {
	if r := in.Parameters(); r != nil {
		return r.Get(id)
	}
	return nil
}

// Buffer returns the last rendered block.
func (in *Instance) Buffer() [][]float32 {
	return in.view
}

func (in *Instance) allocate(channels, blockSize int) {
	if len(in.storage) != channels || (channels > 0 && len(in.storage[0]) != blockSize) {
		in.storage = make([][]float32, channels)
		for c := range in.storage {
			in.storage[c] = make([]float32, blockSize)
		}
		in.view = make([][]float32, 0, channels)
	}
	if in.ctx == nil {
		in.ctx = process.NewContext(blockSize, in.engine.Parameters())
	} else {
		in.ctx.Resize(blockSize)
	}
}

// cut points view at the first n samples of up to channels channels.
func (in *Instance) cut(channels, n int) {
	in.view = in.view[:0]
	for c := 0; c < channels && c < len(in.storage); c++ {
		in.view = append(in.view, in.storage[c][:n])
	}
}

func (in *Instance) silence() {
	for _, ch := range in.view {
		clear(ch)
	}
}
