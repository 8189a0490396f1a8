package control

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// REPL reads commands interactively when in is a terminal, and as a
// script otherwise.
func (it *Interpreter) REPL(ctx context.Context, in *os.File, out io.Writer) error {
	if !term.IsTerminal(int(in.Fd())) {
		return it.Script(ctx, in, out)
	}

	items := make([]readline.PrefixCompleterInterface, 0, len(commands))
	for _, name := range Commands() {
		items = append(items, readline.PcItem(name))
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "unison> ",
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return err
	}
	var once sync.Once
	closeRL := func() { once.Do(func() { rl.Close() }) }
	done := make(chan struct{})
	defer func() {
		close(done)
		closeRL()
	}()
	go func() {
		select {
		case <-ctx.Done():
			// unblocks Readline
			closeRL()
		case <-done:
		}
	}()

	for {
		line, err := rl.Readline()
		if err == io.EOF || ctx.Err() != nil {
			return nil
		}
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			return err
		}
		if isQuit(line) {
			return nil
		}
		it.print(out, line)
	}
}

// Script runs every line of r, reporting errors without stopping.
func (it *Interpreter) Script(ctx context.Context, r io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isQuit(sc.Text()) {
			return nil
		}
		it.print(out, sc.Text())
	}
	return sc.Err()
}

func (it *Interpreter) print(out io.Writer, line string) {
	result, err := it.Exec(line)
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	if result != "" {
		fmt.Fprintln(out, result)
	}
}

func isQuit(line string) bool {
	switch strings.TrimSpace(line) {
	case "quit", "exit":
		return true
	}
	return false
}
