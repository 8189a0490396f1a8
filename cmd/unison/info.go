package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justyntemme/unison/pkg/control"
	"github.com/justyntemme/unison/pkg/host"
)

var (
	infoPrograms bool
	infoParams   bool
	infoMIDI     bool
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show instances, programs, parameters and MIDI inputs",
	Long: `Print the layout of the unison processor built from the flags.

Examples:
  unison info
  unison info --instances 9 --detune 0.25
  unison info --programs --params --midi`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func init() {
	f := infoCmd.Flags()
	f.BoolVar(&infoPrograms, "programs", false, "list the program bank")
	f.BoolVar(&infoParams, "params", false, "list the master's parameters")
	f.BoolVar(&infoMIDI, "midi", false, "list MIDI input ports")
}

func runInfo(cmd *cobra.Command, _ []string) error {
	proc, err := newProcessor()
	if err != nil {
		return err
	}
	defer proc.Close()

	out := cmd.OutOrStdout()
	it := control.NewInterpreter(proc, nil)
	sections := []string{"list"}
	if infoPrograms {
		sections = append(sections, "programs")
	}
	if infoParams {
		sections = append(sections, "params 0")
	}

	fmt.Fprintf(out, "%s, %d instances, %d Hz, %d frame blocks\n", proc.Name(), proc.NumInstances(), sampleRate, blockSize)
	for _, line := range sections {
		result, err := it.Exec(line)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n", result)
	}

	if infoMIDI {
		ports, err := host.MIDIInputs()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "\nMIDI inputs:")
		if len(ports) == 0 {
			fmt.Fprintln(out, "  none")
		}
		for i, name := range ports {
			fmt.Fprintf(out, "  %d %s\n", i, name)
		}
	}
	return nil
}
