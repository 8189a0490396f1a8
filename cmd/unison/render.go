package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/justyntemme/unison/pkg/dsp/gain"
	"github.com/justyntemme/unison/pkg/host"
)

var (
	renderOut  string
	renderTail float64
	renderMax  float64
	renderGain float64
	renderKnee float64
)

var renderCmd = &cobra.Command{
	Use:   "render <file.mid>",
	Short: "Render a MIDI file to WAV",
	Long: `Play a Standard MIDI File through the unison processor offline and
write the result as a 16-bit WAV file.

Examples:
  unison render riff.mid -o riff.wav
  unison render pad.mid --program 3 --detune 0.3 --tail 4
  unison render hoover.mid --gain 6 --soft-clip 0.8`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderOut, "output", "o", "out.wav", "output WAV file")
	f.Float64Var(&renderTail, "tail", -1, "seconds rendered after the last event, negative for the synth's release tail")
	f.Float64Var(&renderMax, "max-seconds", 600, "stop rendering after this many seconds")
	f.Float64Var(&renderGain, "gain", 0, "output gain in dB")
	f.Float64Var(&renderKnee, "soft-clip", 0, "saturate samples above this level, 0 to hard clip at full scale")
}

func runRender(cmd *cobra.Command, args []string) error {
	seq, err := host.LoadSMFFile(args[0], float64(sampleRate))
	if err != nil {
		return err
	}
	proc, err := newProcessor()
	if err != nil {
		return err
	}
	defer proc.Close()

	start := time.Now()
	audio, err := host.Render(cmd.Context(), proc, seq, host.RenderOptions{
		SampleRate:   float64(sampleRate),
		BlockSize:    blockSize,
		Channels:     channels(),
		Tail:         renderTail,
		MaxSeconds:   renderMax,
		GainDB:       renderGain,
		SoftClipKnee: renderKnee,
	})
	if err != nil {
		return err
	}
	if err := host.WriteWAVFile(renderOut, audio, sampleRate); err != nil {
		return err
	}

	seconds := float64(len(audio[0])) / float64(sampleRate)
	elapsed := time.Since(start)
	log.Info("rendered %d events, %.2fs in %v (%.0fx realtime)", len(seq), seconds, elapsed.Round(time.Millisecond), seconds/elapsed.Seconds())
	s := proc.Stats()
	if s.OversizedBlocks > 0 || s.RenderPanics > 0 {
		log.Warn("%d oversized blocks, %d render panics", s.OversizedBlocks, s.RenderPanics)
	}
	for _, issue := range host.Check(audio) {
		log.Warn("%s", issue)
	}
	peak := host.Peak(audio)
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %.2fs, peak %.3f (%+.1f dBFS)\n", renderOut, seconds, peak, gain.LinearToDb(float64(peak)))
	return nil
}
