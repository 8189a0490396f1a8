package host

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/rtmididrv"

	"github.com/justyntemme/unison/pkg/framework/debug"
	"github.com/justyntemme/unison/pkg/midi"
)

// ErrNoMIDIInput is returned when no input port matches.
var ErrNoMIDIInput = errors.New("no MIDI input port")

// MIDIInputs lists the input port names.
func MIDIInputs() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("midi driver: %w", err)
	}
	defer drv.Close()

	ins, err := drv.Ins()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}

// ListenMIDI opens the first input port whose name contains port (any
// port when empty) and queues its messages until ctx is done.
func ListenMIDI(ctx context.Context, port string, q *midi.EventQueue, log *debug.Logger) error {
	drv, err := rtmididrv.New()
	if err != nil {
		return fmt.Errorf("midi driver: %w", err)
	}
	defer func() {
		if err := drv.Close(); err != nil {
			log.Warn("closing MIDI driver: %v", err)
		}
	}()

	ins, err := drv.Ins()
	if err != nil {
		return err
	}
	found := -1
	for i, in := range ins {
		if port == "" || strings.Contains(strings.ToLower(in.String()), strings.ToLower(port)) {
			found = i
			break
		}
	}
	if found < 0 {
		return fmt.Errorf("%w matching %q", ErrNoMIDIInput, port)
	}
	in := ins[found]
	if err := in.Open(); err != nil {
		return fmt.Errorf("opening %s: %w", in, err)
	}
	defer in.Close()

	log.Info("listening on MIDI input %s", in)
	if err := in.SetListener(func(data []byte, _ int64) {
		if ev, ok := midi.FromMessage(gomidi.Message(data), 0); ok {
			q.Add(ev)
		}
	}); err != nil {
		return fmt.Errorf("listening on %s: %w", in, err)
	}
	defer in.StopListening()

	<-ctx.Done()
	return nil
}
