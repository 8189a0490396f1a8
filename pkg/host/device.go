package host

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/gordonklaus/portaudio"
)

// Sink plays a Buffered on an audio device.
type Sink interface {
	Start() error
	Close() error
}

// Backend names accepted by NewSink.
const (
	BackendPortAudio = "portaudio"
	BackendOto       = "oto"
)

// NewSink opens the named backend.
func NewSink(backend string, b *Buffered, sampleRate, framesPerBuffer int) (Sink, error) {
	switch strings.ToLower(backend) {
	case BackendPortAudio, "":
		return NewPortAudioSink(b, sampleRate, framesPerBuffer)
	case BackendOto:
		return NewOtoSink(b, sampleRate, framesPerBuffer)
	}
	return nil, fmt.Errorf("unknown audio backend %q", backend)
}

// PortAudioSink pulls non-interleaved blocks from a callback stream.
type PortAudioSink struct {
	buf    *Buffered
	stream *portaudio.Stream
}

// NewPortAudioSink opens the default output device.
func NewPortAudioSink(b *Buffered, sampleRate, framesPerBuffer int) (*PortAudioSink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: %w", err)
	}
	s := &PortAudioSink{buf: b}
	stream, err := portaudio.OpenDefaultStream(0, b.Channels(), float64(sampleRate), framesPerBuffer, s.process)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("portaudio: open stream: %w", err)
	}
	s.stream = stream
	return s, nil
}

func (s *PortAudioSink) process(out [][]float32) {
	s.buf.Fill(out)
}

// Start begins playback.
func (s *PortAudioSink) Start() error {
	return s.stream.Start()
}

// Close stops the stream and releases PortAudio.
func (s *PortAudioSink) Close() error {
	err := s.stream.Close()
	portaudio.Terminate()
	return err
}

// OtoSink feeds an oto player with interleaved float32 frames.
type OtoSink struct {
	mu      sync.Mutex
	buf     *Buffered
	ctx     *oto.Context
	player  *oto.Player
	samples []float32
}

// NewOtoSink opens the system output through oto.
func NewOtoSink(b *Buffered, sampleRate, framesPerBuffer int) (*OtoSink, error) {
	latency := time.Duration(float64(framesPerBuffer) / float64(sampleRate) * float64(time.Second))
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: b.Channels(),
		Format:       oto.FormatFloat32LE,
		BufferSize:   latency,
	})
	if err != nil {
		return nil, fmt.Errorf("oto: %w", err)
	}
	<-ready

	s := &OtoSink{
		buf:     b,
		ctx:     ctx,
		samples: make([]float32, framesPerBuffer*b.Channels()),
	}
	s.player = ctx.NewPlayer(s)
	return s, nil
}

// Read implements io.Reader for the oto player.
func (s *OtoSink) Read(p []byte) (int, error) {
	n := len(p) / 4
	if len(s.samples) < n {
		s.samples = make([]float32, n)
	}
	samples := s.samples[:n]
	s.buf.FillInterleaved(samples)
	for i, v := range samples {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return n * 4, nil
}

// Start begins playback.
func (s *OtoSink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Play()
	return nil
}

// Close stops playback.
func (s *OtoSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return nil
	}
	err := s.player.Close()
	s.player = nil
	return err
}
