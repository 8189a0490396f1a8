package host

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/justyntemme/unison/pkg/midi"
)

// TimedEvent is an event at an absolute frame.
type TimedEvent struct {
	Frame int64
	Event midi.Event
}

// Sequence is a list of events in frame order.
type Sequence []TimedEvent

// LoadSMF reads every track of a standard MIDI file and places its channel
// messages on frames at sampleRate, honouring tempo changes. Meta and
// sysex messages are skipped.
func LoadSMF(r io.Reader, sampleRate float64) (Sequence, error) {
	var seq Sequence
	tr := smf.ReadTracksFrom(r).Do(func(te smf.TrackEvent) {
		ev, ok := midi.FromMessage(gomidi.Message(te.Message), 0)
		if !ok {
			return
		}
		frame := int64(math.Round(float64(te.AbsMicroSeconds) * sampleRate / 1e6))
		seq = append(seq, TimedEvent{Frame: frame, Event: ev})
	})
	if err := tr.Error(); err != nil {
		return nil, fmt.Errorf("reading MIDI file: %w", err)
	}
	seq.Sort()
	return seq, nil
}

// LoadSMFFile is LoadSMF on a file.
func LoadSMFFile(path string, sampleRate float64) (Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadSMF(f, sampleRate)
}

// Sort orders the events by frame, keeping the file order of events on
// the same frame.
func (s Sequence) Sort() {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Frame < s[j].Frame })
}

// Frames is the frame just past the last event.
func (s Sequence) Frames() int64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Frame + 1
}

// Cursor walks a sequence block by block.
type Cursor struct {
	seq   Sequence
	next  int
	frame int64
}

// NewCursor starts at frame 0.
func NewCursor(s Sequence) *Cursor {
	return &Cursor{seq: s}
}

// Next appends to dst the events of the next n frames, with offsets
// relative to the block start, and advances.
func (c *Cursor) Next(dst []midi.Event, n int) []midi.Event {
	end := c.frame + int64(n)
	for c.next < len(c.seq) && c.seq[c.next].Frame < end {
		te := c.seq[c.next]
		dst = append(dst, te.Event.WithOffset(int32(te.Frame-c.frame)))
		c.next++
	}
	c.frame = end
	return dst
}

// Done reports whether every event has been handed out.
func (c *Cursor) Done() bool {
	return c.next >= len(c.seq)
}

// Frame is the start of the next block.
func (c *Cursor) Frame() int64 {
	return c.frame
}
