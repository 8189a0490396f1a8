package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/justyntemme/unison/pkg/control"
	"github.com/justyntemme/unison/pkg/host"
)

var (
	playBackend string
	playBuffer  int
	playMIDIIn  string
	playNoMIDI  bool
	playServe   string
	playNoREPL  bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play live from MIDI input",
	Long: `Open an audio device and play the unison processor live. Notes come
from a MIDI input port and from the "note" command; parameters, macros and
programs are edited from the command line or the HTTP API.

Examples:
  unison play
  unison play --backend oto --midi-in launchkey
  unison play --serve :8080 --no-repl`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	f := playCmd.Flags()
	f.StringVar(&playBackend, "backend", host.BackendPortAudio, "audio backend: portaudio or oto")
	f.IntVar(&playBuffer, "buffer", 512, "device buffer in frames")
	f.StringVar(&playMIDIIn, "midi-in", "", "MIDI input port name substring, empty for the first port")
	f.BoolVar(&playNoMIDI, "no-midi", false, "do not open a MIDI input")
	f.StringVar(&playServe, "serve", "", "serve the control API on this address")
	f.BoolVar(&playNoREPL, "no-repl", false, "do not read commands from stdin")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	proc, err := newProcessor()
	if err != nil {
		return err
	}
	defer proc.Close()

	if err := proc.Ready(); err != nil {
		return err
	}
	buf := host.NewBuffered(proc, channels(), blockSize)
	sink, err := host.NewSink(playBackend, buf, sampleRate, playBuffer)
	if err != nil {
		return err
	}
	defer sink.Close()
	if err := sink.Start(); err != nil {
		return err
	}
	log.Info("playing on %s, %d frames of block latency", playBackend, buf.LatencySamples())

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if !playNoMIDI {
		g.Go(func() error {
			err := host.ListenMIDI(ctx, playMIDIIn, buf.Queue(), log.With("midi"))
			if errors.Is(err, host.ErrNoMIDIInput) {
				log.Warn("%v; notes only from the note command", err)
				return nil
			}
			return err
		})
	}
	if playServe != "" {
		srv := control.NewServer(proc, log.With("http"))
		g.Go(func() error { return srv.Run(ctx, playServe) })
	}
	if !playNoREPL {
		it := control.NewInterpreter(proc, buf.Queue())
		// not in the group: a blocked stdin read must not hold up shutdown
		go func() {
			defer cancel()
			if err := it.REPL(ctx, os.Stdin, cmd.OutOrStdout()); err != nil && ctx.Err() == nil {
				log.Error("repl: %v", err)
			}
		}()
	}

	g.Go(func() error {
		<-ctx.Done()
		return nil
	})
	err = g.Wait()

	blocks, underruns := buf.Stats()
	log.Info("stopped after %d blocks, %d underruns", blocks, underruns)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
