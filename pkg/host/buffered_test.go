package host

import (
	"testing"

	"github.com/justyntemme/unison/pkg/midi"
)

func TestBufferedFillAcrossBlocks(t *testing.T) {
	tests := []struct {
		name   string
		chunks []int
	}{
		{"exact", []int{64, 64, 64}},
		{"small", []int{10, 10, 10, 10, 10, 10, 10}},
		{"large", []int{200}},
		{"uneven", []int{1, 63, 65, 127, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &rampProcessor{}
			b := NewBuffered(p, 2, 64)

			frame := 0
			for _, n := range tt.chunks {
				dst := [][]float32{make([]float32, n), make([]float32, n)}
				b.Fill(dst)
				for i := 0; i < n; i++ {
					want := float32(frame+i) / 1e6
					if dst[0][i] != want || dst[1][i] != want {
						t.Fatalf("frame %d = %g, want %g", frame+i, dst[0][i], want)
					}
				}
				frame += n
			}
			for i, n := range p.blocks {
				if n != 64 {
					t.Errorf("block %d has %d frames", i, n)
				}
			}
			blocks, underruns := b.Stats()
			if int(blocks) != len(p.blocks) || underruns != 0 {
				t.Errorf("stats = %d blocks, %d underruns", blocks, underruns)
			}
		})
	}
}

func TestBufferedInterleaved(t *testing.T) {
	p := &rampProcessor{}
	b := NewBuffered(p, 2, 16)

	dst := make([]float32, 2*40+1)
	for i := range dst {
		dst[i] = 9
	}
	b.FillInterleaved(dst)
	for f := 0; f < 40; f++ {
		want := float32(f) / 1e6
		if dst[2*f] != want || dst[2*f+1] != want {
			t.Fatalf("frame %d = (%g, %g), want %g", f, dst[2*f], dst[2*f+1], want)
		}
	}
	if dst[80] != 0 {
		t.Error("partial frame not cleared")
	}
	if len(p.blocks) != 3 {
		t.Errorf("rendered %d blocks, want 3", len(p.blocks))
	}
}

func TestBufferedExtraChannelsCleared(t *testing.T) {
	b := NewBuffered(&rampProcessor{}, 1, 8)
	dst := [][]float32{make([]float32, 8), {1, 1, 1, 1, 1, 1, 1, 1}}
	b.Fill(dst)
	for i, v := range dst[1] {
		if v != 0 {
			t.Fatalf("extra channel sample %d = %f", i, v)
		}
	}
}

func TestBufferedQueuedEvents(t *testing.T) {
	p := &rampProcessor{}
	b := NewBuffered(p, 2, 32)
	if b.LatencySamples() != 32 {
		t.Errorf("latency = %d", b.LatencySamples())
	}

	b.Queue().Add(midi.NoteOnEvent{BaseEvent: midi.BaseEvent{Offset: 500}, NoteNumber: 60})
	dst := [][]float32{make([]float32, 20), make([]float32, 20)}
	b.Fill(dst)

	// queued mid-block, it lands on the next block start
	b.Queue().Add(midi.NoteOffEvent{NoteNumber: 60})
	b.Fill(dst)

	if len(p.seen) != 2 {
		t.Fatalf("processor saw %d events, want 2", len(p.seen))
	}
	if p.seen[0].Frame != 0 || p.seen[0].Event.SampleOffset() != 0 {
		t.Errorf("note on at frame %d, want the first block start", p.seen[0].Frame)
	}
	if p.seen[1].Frame != 32 {
		t.Errorf("note off at frame %d, want 32", p.seen[1].Frame)
	}
	if b.Queue().Size() != 0 {
		t.Error("queue not drained")
	}
}

func TestBufferedUnderrun(t *testing.T) {
	b := NewBuffered(&rampProcessor{}, 2, 8)
	b.mu.Lock()
	dst := [][]float32{{1, 1}, {1, 1}}
	b.Fill(dst)
	inter := []float32{1, 1}
	b.FillInterleaved(inter)
	b.mu.Unlock()

	if dst[0][0] != 0 || inter[1] != 0 {
		t.Error("contended callback not silenced")
	}
	if _, underruns := b.Stats(); underruns != 2 {
		t.Errorf("underruns = %d, want 2", underruns)
	}
}

func BenchmarkBufferedFill(b *testing.B) {
	buf := NewBuffered(&nullProcessor{}, 2, 256)
	dst := [][]float32{make([]float32, 441), make([]float32, 441)}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf.Fill(dst)
	}
}

type nullProcessor struct{}

func (nullProcessor) ProcessBlock(_ []midi.Event, out [][]float32) {
	for _, ch := range out {
		clear(ch)
	}
}

func (nullProcessor) TailSeconds() float64 { return 0 }
