package process

import "github.com/justyntemme/unison/pkg/midi"

// Segments splits the block at every input event offset. For each run it
// first calls onEvent for the events starting there, then render with the
// half-open sample range. Offsets outside the block are clamped to its edges.
func (c *Context) Segments(onEvent func(midi.Event), render func(start, end int)) {
	n := c.NumSamples()
	pos := 0
	for _, e := range c.GetAllInputEvents() {
		at := int(e.SampleOffset())
		if at < 0 {
			at = 0
		}
		if at > n {
			at = n
		}
		if at > pos {
			render(pos, at)
			pos = at
		}
		onEvent(e)
	}
	if pos < n {
		render(pos, n)
	}
}
