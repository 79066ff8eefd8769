package ui

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/nibzard/tasktracker-go/internal/cmdline"
)

// clearScreen moves the cursor home and erases the display.
const clearScreen = "\033[H\033[2J"

// REPL reads commands line by line and runs them through a Shell.
type REPL struct {
	shell *Shell
	in    io.Reader
	out   io.Writer
	theme Theme
}

// NewREPL returns a prompt loop reading from in.
func NewREPL(shell *Shell, in io.Reader) *REPL {
	return &REPL{shell: shell, in: in, out: shell.out, theme: shell.theme}
}

// Run prompts until exit, end of input or ctx cancellation. Command failures
// are reported inline and do not stop the loop.
func (r *REPL) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	r.welcome()
	for {
		r.shell.println(r.theme.Prompt, "Enter command : ")

		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			line = l
		}

		if r.Line(ctx, line) {
			return nil
		}
	}
}

// Line runs one input line and reports whether the loop should stop.
func (r *REPL) Line(ctx context.Context, line string) bool {
	if strings.TrimSpace(line) == "" {
		r.shell.info("No input detected, Try again!")
		return false
	}

	args, err := Tokenize(line)
	if err != nil || len(args) == 0 {
		_ = r.shell.wrongCommand()
		return false
	}

	if strings.EqualFold(args[0], "clear") {
		_, _ = io.WriteString(r.out, clearScreen)
		r.welcome()
		return false
	}

	err = r.shell.Exec(ctx, args)
	return errors.Is(err, ErrExit)
}

func (r *REPL) welcome() {
	r.shell.info("Hello, Welcome to Task Tracker!")
	r.shell.info(`Type "help" to know the set of commands`)
}

// Tokenize splits a command line with shell-style quoting. Backslashes and
// words starting with # are kept as typed.
func Tokenize(line string) ([]string, error) {
	return cmdline.Split(line)
}
