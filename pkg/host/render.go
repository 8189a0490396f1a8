package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/youpy/go-wav"

	"github.com/justyntemme/unison/pkg/dsp/gain"
	"github.com/justyntemme/unison/pkg/framework/debug"
	"github.com/justyntemme/unison/pkg/midi"
)

// ErrEmptyRender is returned when there is nothing to write.
var ErrEmptyRender = errors.New("nothing rendered")

// RenderOptions control an offline render.
type RenderOptions struct {
	SampleRate float64
	BlockSize  int
	Channels   int

	// Tail is rendered after the last event. Negative means the
	// processor's own tail.
	Tail float64

	// MaxSeconds caps the render length; zero means no cap.
	MaxSeconds float64

	// GainDB is applied to the whole render.
	GainDB float64

	// SoftClipKnee saturates samples above this level toward full scale.
	// Zero disables it.
	SoftClipKnee float64
}

// Render plays seq through p offline and returns the output, one slice per
// channel. p must already be configured for opts.SampleRate and
// opts.BlockSize.
func Render(ctx context.Context, p Processor, seq Sequence, opts RenderOptions) ([][]float32, error) {
	if opts.BlockSize <= 0 || opts.Channels <= 0 || opts.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid render setup: %+v", opts)
	}
	tail := opts.Tail
	if tail < 0 {
		tail = p.TailSeconds()
	}
	total := seq.Frames() + int64(math.Ceil(tail*opts.SampleRate))
	if opts.MaxSeconds > 0 {
		total = min(total, int64(opts.MaxSeconds*opts.SampleRate))
	}
	if total <= 0 {
		return nil, ErrEmptyRender
	}

	out := make([][]float32, opts.Channels)
	for c := range out {
		out[c] = make([]float32, total)
	}
	block := make([][]float32, opts.Channels)
	events := make([]midi.Event, 0, 256)
	cur := NewCursor(seq)

	for start := int64(0); start < total; start += int64(opts.BlockSize) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := int(min(int64(opts.BlockSize), total-start))
		for c := range block {
			block[c] = out[c][start : start+int64(n)]
		}
		events = cur.Next(events[:0], n)
		p.ProcessBlock(events, block)
	}
	finish(out, opts)
	return out, nil
}

func finish(audio [][]float32, opts RenderOptions) {
	if opts.GainDB != 0 {
		g := float32(gain.DbToLinear(opts.GainDB))
		for _, ch := range audio {
			gain.ApplyBuffer(ch, g)
		}
	}
	if k := float32(opts.SoftClipKnee); k > 0 {
		for _, ch := range audio {
			for i, v := range ch {
				ch[i] = gain.SoftClip(v, k)
			}
		}
	}
}

// Check lists NaNs, clipping, DC offset and silence per channel of a
// render. It is empty for a clean render.
func Check(audio [][]float32) []string {
	var issues []string
	for c, ch := range audio {
		name := channelName(c, len(audio))
		issues = append(issues, debug.CheckBuffer(ch, name)...)
		if debug.AnalyzeBuffer(ch).Silent() {
			issues = append(issues, name+": silent")
		}
	}
	return issues
}

func channelName(c, n int) string {
	switch {
	case n == 1:
		return "mono"
	case n == 2 && c == 0:
		return "left"
	case n == 2 && c == 1:
		return "right"
	}
	return fmt.Sprintf("channel %d", c)
}

// Peak returns the largest absolute sample of a render.
func Peak(audio [][]float32) float32 {
	var peak float32
	for _, ch := range audio {
		peak = max(peak, debug.AnalyzeBuffer(ch).Peak)
	}
	return peak
}

// WriteWAV writes audio as 16-bit PCM. Samples outside [-1, 1] are
// clipped.
func WriteWAV(w io.Writer, audio [][]float32, sampleRate int) error {
	if len(audio) == 0 || len(audio[0]) == 0 {
		return ErrEmptyRender
	}
	if len(audio) > 2 {
		return fmt.Errorf("wav: %d channels, at most 2 supported", len(audio))
	}
	frames := len(audio[0])
	ww := wav.NewWriter(w, uint32(frames), uint16(len(audio)), uint32(sampleRate), 16)

	const chunk = 4096
	samples := make([]wav.Sample, 0, chunk)
	for f := 0; f < frames; f++ {
		var s wav.Sample
		for c, ch := range audio {
			s.Values[c] = gain.ToPCM16(ch[f])
		}
		samples = append(samples, s)
		if len(samples) == chunk {
			if err := ww.WriteSamples(samples); err != nil {
				return err
			}
			samples = samples[:0]
		}
	}
	if len(samples) > 0 {
		return ww.WriteSamples(samples)
	}
	return nil
}

// WriteWAVFile writes audio to path.
func WriteWAVFile(path string, audio [][]float32, sampleRate int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteWAV(f, audio, sampleRate)
}

// ReadWAV reads a 16-bit PCM file back into float channels.
func ReadWAV(r interface {
	io.Reader
	io.ReaderAt
}) (audio [][]float32, sampleRate int, err error) {
	wr := wav.NewReader(r)
	format, err := wr.Format()
	if err != nil {
		return nil, 0, err
	}
	audio = make([][]float32, format.NumChannels)
	for {
		samples, err := wr.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		for _, s := range samples {
			for c := range audio {
				audio[c] = append(audio[c], float32(s.Values[c])/math.MaxInt16)
			}
		}
	}
	return audio, int(format.SampleRate), nil
}
