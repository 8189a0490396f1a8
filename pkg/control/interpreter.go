// Package control edits a running unison processor from the control
// thread: a line-based command interpreter with a REPL, and an HTTP API.
package control

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/justyntemme/unison/pkg/framework/param"
	"github.com/justyntemme/unison/pkg/midi"
	"github.com/justyntemme/unison/pkg/unison"
)

// ErrUnknownCommand is returned for a command name the interpreter lacks.
var ErrUnknownCommand = errors.New("unknown command")

// Interpreter runs text commands against a processor. Notes go to queue,
// which may be nil when nothing is playing.
type Interpreter struct {
	proc  *unison.Processor
	queue *midi.EventQueue
}

// NewInterpreter creates an interpreter for p.
func NewInterpreter(p *unison.Processor, queue *midi.EventQueue) *Interpreter {
	return &Interpreter{proc: p, queue: queue}
}

type command struct {
	name     string
	usage    string
	min, max int
	run      func(*Interpreter, []string) (string, error)
}

var commands []command

func init() {
	commands = []command{
		{"set", "set <instance> <param> <value>", 3, 3, (*Interpreter).set},
		{"get", "get <instance> <param>", 2, 2, (*Interpreter).get},
		{"detune", "detune [spread]", 0, 1, (*Interpreter).detune},
		{"pan", "pan [spread]", 0, 1, (*Interpreter).pan},
		{"program", "program [index]", 0, 1, (*Interpreter).program},
		{"programs", "programs", 0, 0, (*Interpreter).programs},
		{"list", "list", 0, 0, (*Interpreter).list},
		{"params", "params <instance>", 1, 1, (*Interpreter).params},
		{"save", "save <file>", 1, 1, (*Interpreter).save},
		{"load", "load <file>", 1, 1, (*Interpreter).load},
		{"note", "note <on|off> <key> [velocity]", 2, 3, (*Interpreter).note},
		{"stats", "stats", 0, 0, (*Interpreter).stats},
		{"help", "help", 0, 0, (*Interpreter).help},
	}
}

// Commands lists the command names.
func Commands() []string {
	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.name
	}
	return names
}

// Exec runs one line. Blank lines and # comments do nothing.
func (it *Interpreter) Exec(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", nil
	}
	fields := strings.Fields(line)
	name, args := strings.ToLower(fields[0]), fields[1:]

	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		if len(args) < cmd.min || len(args) > cmd.max {
			return "", fmt.Errorf("usage: %s", cmd.usage)
		}
		out, err := cmd.run(it, args)
		if err != nil {
			return out, fmt.Errorf("%s: %w", cmd.name, err)
		}
		return out, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownCommand, name)
}

func (it *Interpreter) instance(arg string) (*unison.Instance, error) {
	i, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("instance %q is not a number", arg)
	}
	in := it.proc.Instance(i)
	if in == nil {
		return nil, fmt.Errorf("no instance %d in a pool of %d", i, it.proc.NumInstances())
	}
	if in.Missing() {
		return nil, fmt.Errorf("instance %d: %w", i, unison.ErrMissingInstance)
	}
	return in, nil
}

// lookup finds a parameter by ID or by name.
func lookup(r *param.Registry, arg string) (*param.Parameter, error) {
	if id, err := strconv.ParseUint(arg, 10, 32); err == nil {
		if p := r.Get(uint32(id)); p != nil {
			return p, nil
		}
	}
	if p := r.GetByName(arg); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", unison.ErrParameterNotFound, arg)
}

func describe(p *param.Parameter) string {
	s := p.FormatValue(p.GetValue())
	if p.Unit != "" && !strings.HasSuffix(s, p.Unit) {
		s += " " + p.Unit
	}
	return s
}

// set edits a parameter through the notifying path: on the master the
// edit is mirrored, on any other instance it stays local.
func (it *Interpreter) set(args []string) (string, error) {
	in, err := it.instance(args[0])
	if err != nil {
		return "", err
	}
	p, err := lookup(in.Parameters(), args[1])
	if err != nil {
		return "", err
	}
	v, err := p.ParseValue(args[2])
	if err != nil {
		return "", err
	}
	if in.Index() == 0 {
		if err := it.proc.SetMasterParameter(p.ID, v); err != nil {
			return "", err
		}
	} else {
		in.Parameters().SetNotifying(p.ID, v)
	}
	return fmt.Sprintf("%d %s = %s", in.Index(), p.Name, describe(p)), nil
}

func (it *Interpreter) get(args []string) (string, error) {
	in, err := it.instance(args[0])
	if err != nil {
		return "", err
	}
	p, err := lookup(in.Parameters(), args[1])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %s = %s", in.Index(), p.Name, describe(p)), nil
}

func (it *Interpreter) macro(id uint32, args []string, set func(float64)) (string, error) {
	p := it.proc.Macros().Get(id)
	if len(args) > 0 {
		v, err := p.ParseValue(args[0])
		if err != nil {
			return "", err
		}
		set(p.Denormalize(v))
	}
	return fmt.Sprintf("%s = %s", p.Name, describe(p)), nil
}

func (it *Interpreter) detune(args []string) (string, error) {
	return it.macro(unison.MacroDetune, args, it.proc.SetDetuneSpread)
}

func (it *Interpreter) pan(args []string) (string, error) {
	return it.macro(unison.MacroPan, args, it.proc.SetPanSpread)
}

func (it *Interpreter) program(args []string) (string, error) {
	if len(args) > 0 {
		i, err := strconv.Atoi(args[0])
		if err != nil || i < 0 || i >= it.proc.NumPrograms() {
			return "", fmt.Errorf("program %q out of range 0-%d", args[0], it.proc.NumPrograms()-1)
		}
		it.proc.SetCurrentProgram(i)
	}
	cur := it.proc.CurrentProgram()
	return fmt.Sprintf("%d %s", cur, it.proc.ProgramName(cur)), nil
}

func (it *Interpreter) programs([]string) (string, error) {
	var sb strings.Builder
	cur := it.proc.CurrentProgram()
	for i := 0; i < it.proc.NumPrograms(); i++ {
		mark := " "
		if i == cur {
			mark = "*"
		}
		fmt.Fprintf(&sb, "%s%3d %s\n", mark, i, it.proc.ProgramName(i))
	}
	return strings.TrimSuffix(sb.String(), "\n"), nil
}

func (it *Interpreter) list([]string) (string, error) {
	var sb strings.Builder
	n := it.proc.NumInstances()
	cfg := it.proc.Config()
	fmt.Fprintf(&sb, "%-4s %-8s %-6s %s\n", "inst", "tune", "pan", "state")
	for i := 0; i < n; i++ {
		in := it.proc.Instance(i)
		state := "ok"
		switch {
		case in.Missing():
			state = "missing"
		case i == 0 && !cfg.MasterInMix:
			state = "master"
		case !it.proc.Mixer().Included(i):
			state = "muted"
		}
		tune := "-"
		if p := in.Param(cfg.TuneParam); p != nil {
			tune = fmt.Sprintf("%.4f", p.GetValue())
		}
		pan := "centre"
		if i > 0 {
			pan = fmt.Sprintf("%.3f", unison.PanPosition(i, n))
		}
		fmt.Fprintf(&sb, "%-4d %-8s %-6s %s\n", i, tune, pan, state)
	}
	return strings.TrimSuffix(sb.String(), "\n"), nil
}

func (it *Interpreter) params(args []string) (string, error) {
	in, err := it.instance(args[0])
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, p := range in.Parameters().All() {
		if p.HasFlag(param.IsHidden) {
			continue
		}
		fmt.Fprintf(&sb, "%3d %-12s %s\n", p.ID, p.Name, describe(p))
	}
	return strings.TrimSuffix(sb.String(), "\n"), nil
}

func (it *Interpreter) save(args []string) (string, error) {
	f, err := os.Create(args[0])
	if err != nil {
		return "", err
	}
	if err := it.proc.SaveStateTo(f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return "saved " + args[0], nil
}

func (it *Interpreter) load(args []string) (string, error) {
	f, err := os.Open(args[0])
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := it.proc.LoadStateFrom(f); err != nil {
		return "", err
	}
	cur := it.proc.CurrentProgram()
	return fmt.Sprintf("loaded %s: %d %s", args[0], cur, it.proc.ProgramName(cur)), nil
}

func (it *Interpreter) note(args []string) (string, error) {
	if it.queue == nil {
		return "", errors.New("not playing")
	}
	key, err := parseByte(args[1])
	if err != nil {
		return "", fmt.Errorf("key: %w", err)
	}
	vel := uint8(100)
	if len(args) > 2 {
		if vel, err = parseByte(args[2]); err != nil {
			return "", fmt.Errorf("velocity: %w", err)
		}
	}
	switch strings.ToLower(args[0]) {
	case "on":
		it.queue.Add(midi.NoteOnEvent{NoteNumber: key, Velocity: vel})
	case "off":
		it.queue.Add(midi.NoteOffEvent{NoteNumber: key, Velocity: vel})
	default:
		return "", fmt.Errorf("want on or off, got %q", args[0])
	}
	return "", nil
}

func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil || v > 127 {
		return 0, fmt.Errorf("%q is not in 0-127", s)
	}
	return uint8(v), nil
}

func (it *Interpreter) stats([]string) (string, error) {
	s := it.proc.Stats()
	var sb strings.Builder
	fmt.Fprintf(&sb, "unmuted %d, oversized blocks %d, render panics %d\n", s.Unmuted, s.OversizedBlocks, s.RenderPanics)
	fmt.Fprintf(&sb, "fan-outs %d, writes %d, not found %d, suppressed %d, direct edits %d, program loads %d, state failures %d",
		s.Sync.FanOuts, s.Sync.Writes, s.Sync.NotFound, s.Sync.Suppressed, s.Sync.DirectEdits, s.Sync.ProgramLoads, s.Sync.StateFailures)
	return sb.String(), nil
}

func (it *Interpreter) help([]string) (string, error) {
	usages := make([]string, len(commands))
	for i, c := range commands {
		usages[i] = "  " + c.usage
	}
	sort.Strings(usages)
	return "commands:\n" + strings.Join(usages, "\n"), nil
}
