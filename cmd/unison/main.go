// Command unison drives the unison synthesizer: offline rendering of MIDI
// files, live playback, and inspection.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/justyntemme/unison/pkg/framework/bus"
	"github.com/justyntemme/unison/pkg/framework/debug"
	"github.com/justyntemme/unison/pkg/synth"
	"github.com/justyntemme/unison/pkg/unison"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "unison",
	Short: "Multi-instance unison synthesizer",
	Long: `unison stacks several copies of one synth engine, spreads their
tuning and stereo position, and keeps them in step with the first copy.

Examples:
  unison render song.mid -o song.wav --instances 9 --detune 0.2
  unison play --midi-in keystation --serve :8080
  unison info --programs`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

var (
	logLevel  string
	logFile   string
	logCloser io.Closer
	log       = debug.Default()

	instances   int
	detune      float64
	panSpread   float64
	masterInMix bool
	parallel    int
	mono        bool
	program     int
	stateFile   string
	sampleRate  int
	blockSize   int
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error, off")
	pf.StringVar(&logFile, "log-file", "", "append logs to this file instead of stderr")

	pf.IntVarP(&instances, "instances", "n", 7, "engine instances including the master")
	pf.Float64VarP(&detune, "detune", "d", unison.DefaultDetuneSpread, "detune spread (0 to 0.4)")
	pf.Float64VarP(&panSpread, "pan", "p", unison.DefaultPanSpread, "pan spread (0 to 1)")
	pf.BoolVar(&masterInMix, "master-in-mix", false, "mix the master instance centred")
	pf.IntVar(&parallel, "parallel", 0, "render instances on up to this many goroutines")
	pf.BoolVar(&mono, "mono", false, "mono output")
	pf.IntVar(&program, "program", -1, "program to load at start")
	pf.StringVar(&stateFile, "state", "", "state file to load at start")
	pf.IntVar(&sampleRate, "sample-rate", 48000, "sample rate in Hz")
	pf.IntVar(&blockSize, "block-size", 256, "maximum block size in frames")

	rootCmd.AddCommand(renderCmd, playCmd, infoCmd)
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	level, err := debug.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	if logFile != "" {
		l, closer, err := debug.NewFileLogger(logFile, "unison", debug.DefaultFlags)
		if err != nil {
			return err
		}
		log, logCloser = l, closer
	}
	log.SetLevel(level)
	return nil
}

func config() unison.Config {
	cfg := unison.DefaultConfig()
	cfg.NumInstances = instances
	cfg.DefaultDetune = detune
	cfg.DefaultPan = panSpread
	cfg.MasterInMix = masterInMix
	cfg.ParallelRender = parallel
	if mono {
		cfg.Layout = bus.Layout{Outputs: []int32{1}}
	}
	return cfg
}

func channels() int {
	if mono {
		return 1
	}
	return 2
}

// newProcessor builds and configures the processor from the flags.
func newProcessor() (*unison.Processor, error) {
	proc, err := unison.NewProcessor(synth.Description, config(), unison.WithLogger(log.With("unison")))
	if err != nil {
		if proc != nil {
			proc.Close()
		}
		return nil, err
	}
	if err := proc.Configure(float64(sampleRate), blockSize); err != nil {
		proc.Close()
		return nil, err
	}

	if stateFile != "" {
		f, err := os.Open(stateFile)
		if err != nil {
			proc.Close()
			return nil, err
		}
		err = proc.LoadStateFrom(f)
		f.Close()
		if err != nil {
			proc.Close()
			return nil, fmt.Errorf("loading %s: %w", stateFile, err)
		}
	}
	if program >= 0 {
		if program >= proc.NumPrograms() {
			proc.Close()
			return nil, fmt.Errorf("program %d out of range 0-%d", program, proc.NumPrograms()-1)
		}
		proc.SetCurrentProgram(program)
	}

	cur := proc.CurrentProgram()
	log.Info("%s: %d instances, program %d %q, detune %.3f, pan %.0f%%",
		proc.Name(), proc.NumInstances(), cur, proc.ProgramName(cur), proc.DetuneSpread(), proc.PanSpread()*100)
	return proc, nil
}
