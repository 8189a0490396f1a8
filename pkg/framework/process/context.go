// Package process provides the per-block processing context handed to engines.
package process

import (
	"sort"

	"github.com/justyntemme/unison/pkg/framework/param"
	"github.com/justyntemme/unison/pkg/midi"
)

// DefaultMaxEvents is the event capacity reserved per block.
const DefaultMaxEvents = 512

// Context carries one block of audio and MIDI to an engine. All storage is
// allocated up front so a block can be processed without allocating.
type Context struct {
	Input      [][]float32
	Output     [][]float32
	SampleRate float64

	inputEvents  []midi.Event
	outputEvents []midi.Event
	sorted       bool

	workBuffer []float32

	params *param.Registry
}

// NewContext creates a context for blocks of up to maxBlockSize samples.
func NewContext(maxBlockSize int, params *param.Registry) *Context {
	return &Context{
		inputEvents:  make([]midi.Event, 0, DefaultMaxEvents),
		outputEvents: make([]midi.Event, 0, DefaultMaxEvents),
		sorted:       true,
		workBuffer:   make([]float32, maxBlockSize),
		params:       params,
	}
}

// Resize grows the work buffer for a new maximum block size.
func (c *Context) Resize(maxBlockSize int) {
	if cap(c.workBuffer) < maxBlockSize {
		c.workBuffer = make([]float32, maxBlockSize)
	}
	c.workBuffer = c.workBuffer[:maxBlockSize]
}

// Param returns the current value of a parameter (0-1 normalized)
func (c *Context) Param(id uint32) float64 {
	if p := c.params.Get(id); p != nil {
		return p.GetValue()
	}
	return 0
}

// ParamPlain returns the current plain value of a parameter
func (c *Context) ParamPlain(id uint32) float64 {
	if p := c.params.Get(id); p != nil {
		return p.GetPlainValue()
	}
	return 0
}

// NumSamples returns the number of samples to process
func (c *Context) NumSamples() int {
	if len(c.Output) > 0 {
		return len(c.Output[0])
	}
	if len(c.Input) > 0 {
		return len(c.Input[0])
	}
	return 0
}

// NumInputChannels returns the number of input channels
func (c *Context) NumInputChannels() int {
	return len(c.Input)
}

// NumOutputChannels returns the number of output channels
func (c *Context) NumOutputChannels() int {
	return len(c.Output)
}

// WorkBuffer returns scratch space sized to the current block.
func (c *Context) WorkBuffer() []float32 {
	n := c.NumSamples()
	if n > len(c.workBuffer) {
		n = len(c.workBuffer)
	}
	return c.workBuffer[:n]
}

// Clear zeros the output buffers
func (c *Context) Clear() {
	for _, ch := range c.Output {
		clear(ch)
	}
}

// AddInputEvent queues an event for this block. Events past the reserved
// capacity are dropped.
func (c *Context) AddInputEvent(e midi.Event) {
	if len(c.inputEvents) == cap(c.inputEvents) {
		return
	}
	if n := len(c.inputEvents); n > 0 && c.inputEvents[n-1].SampleOffset() > e.SampleOffset() {
		c.sorted = false
	}
	c.inputEvents = append(c.inputEvents, e)
}

// SetInputEvents replaces the block's events with a copy of events.
func (c *Context) SetInputEvents(events []midi.Event) {
	c.ClearInputEvents()
	for _, e := range events {
		c.AddInputEvent(e)
	}
}

// GetAllInputEvents returns the block's events in offset order. The slice
// is owned by the context and valid until the next clear.
func (c *Context) GetAllInputEvents() []midi.Event {
	c.sortInput()
	return c.inputEvents
}

// HasInputEvents reports whether any event is queued.
func (c *Context) HasInputEvents() bool {
	return len(c.inputEvents) > 0
}

// ClearInputEvents empties the input list, keeping its storage.
func (c *Context) ClearInputEvents() {
	clear(c.inputEvents)
	c.inputEvents = c.inputEvents[:0]
	c.sorted = true
}

// AddOutputEvent records an event produced by the engine.
func (c *Context) AddOutputEvent(e midi.Event) {
	if len(c.outputEvents) < cap(c.outputEvents) {
		c.outputEvents = append(c.outputEvents, e)
	}
}

// GetOutputEvents returns the events produced during this block.
func (c *Context) GetOutputEvents() []midi.Event {
	return c.outputEvents
}

// ClearOutputEvents empties the output list.
func (c *Context) ClearOutputEvents() {
	clear(c.outputEvents)
	c.outputEvents = c.outputEvents[:0]
}

// ClearAllEvents empties both event lists.
func (c *Context) ClearAllEvents() {
	c.ClearInputEvents()
	c.ClearOutputEvents()
}

func (c *Context) sortInput() {
	if c.sorted {
		return
	}
	sort.SliceStable(c.inputEvents, func(i, j int) bool {
		return c.inputEvents[i].SampleOffset() < c.inputEvents[j].SampleOffset()
	})
	c.sorted = true
}
