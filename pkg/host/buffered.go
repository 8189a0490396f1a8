// Package host runs a unison processor outside a plugin host: it feeds it
// MIDI from files or live ports and delivers its output to audio devices
// or WAV files.
package host

import (
	"sync"
	"sync/atomic"

	"github.com/justyntemme/unison/pkg/midi"
)

// Processor is the part of the unison processor the host drives.
type Processor interface {
	ProcessBlock(events []midi.Event, out [][]float32)
	TailSeconds() float64
}

// Buffered adapts device callbacks of any size to the fixed block size the
// processor was configured with. Live events queued between callbacks are
// applied at the start of the next rendered block, so the added latency is
// at most one block.
type Buffered struct {
	mu sync.Mutex

	proc      Processor
	blockSize int
	block     [][]float32
	pos       int // next unread frame in block

	queue  *midi.EventQueue
	events []midi.Event

	blocks    atomic.Uint64
	underruns atomic.Uint64
}

// NewBuffered creates an adapter rendering blocks of blockSize frames with
// the given channel count.
func NewBuffered(p Processor, channels, blockSize int) *Buffered {
	b := &Buffered{
		proc:      p,
		blockSize: blockSize,
		block:     make([][]float32, channels),
		pos:       blockSize,
		queue:     midi.NewEventQueue(),
		events:    make([]midi.Event, 0, 256),
	}
	for c := range b.block {
		b.block[c] = make([]float32, blockSize)
	}
	return b
}

// Queue is where live MIDI goes.
func (b *Buffered) Queue() *midi.EventQueue {
	return b.queue
}

// LatencySamples is the worst-case delay between a queued event and the
// frame it sounds at.
func (b *Buffered) LatencySamples() int {
	return b.blockSize
}

// Channels returns the output channel count.
func (b *Buffered) Channels() int {
	return len(b.block)
}

// Fill writes len(dst[0]) frames into the non-interleaved dst. Channels
// beyond the processor's are zeroed. A callback that finds another one
// still rendering gets silence and counts as an underrun.
func (b *Buffered) Fill(dst [][]float32) {
	if len(dst) == 0 {
		return
	}
	if !b.mu.TryLock() {
		for _, ch := range dst {
			clear(ch)
		}
		b.underruns.Add(1)
		return
	}
	defer b.mu.Unlock()

	n := len(dst[0])
	for done := 0; done < n; {
		if b.pos == b.blockSize {
			b.render()
		}
		k := min(n-done, b.blockSize-b.pos)
		for c, ch := range dst {
			if c < len(b.block) {
				copy(ch[done:done+k], b.block[c][b.pos:b.pos+k])
			} else {
				clear(ch[done : done+k])
			}
		}
		b.pos += k
		done += k
	}
}

// FillInterleaved writes len(dst)/channels frames into the interleaved dst.
// A trailing partial frame is zeroed.
func (b *Buffered) FillInterleaved(dst []float32) {
	if !b.mu.TryLock() {
		clear(dst)
		b.underruns.Add(1)
		return
	}
	defer b.mu.Unlock()

	ch := len(b.block)
	if ch == 0 {
		clear(dst)
		return
	}
	frames := len(dst) / ch
	clear(dst[frames*ch:])
	for f := 0; f < frames; f++ {
		if b.pos == b.blockSize {
			b.render()
		}
		for c := 0; c < ch; c++ {
			dst[f*ch+c] = b.block[c][b.pos]
		}
		b.pos++
	}
}

func (b *Buffered) render() {
	b.events = b.queue.Drain(b.events[:0])
	for i, e := range b.events {
		// live events carry no timing inside the block
		if e.SampleOffset() != 0 {
			b.events[i] = e.WithOffset(0)
		}
	}
	b.proc.ProcessBlock(b.events, b.block)
	clear(b.events)
	b.pos = 0
	b.blocks.Add(1)
}

// Stats returns the number of blocks rendered and of callbacks answered
// with silence.
func (b *Buffered) Stats() (blocks, underruns uint64) {
	return b.blocks.Load(), b.underruns.Load()
}
