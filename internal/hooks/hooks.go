// Package hooks invokes the external command configured to run after each
// task change.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/nibzard/tasktracker-go/internal/cmdline"
)

// Options configures a hook invocation.
type Options struct {
	Command   string
	Event     string
	TaskID    int
	Status    string
	StorePath string
	WorkDir   string
	Stdout    io.Writer
	Stderr    io.Writer
}

// Result captures the outcome of a hook invocation.
type Result struct {
	Ran      bool
	Command  []string
	ExitCode int
}

// Invoke runs the hook as: <command> <event> <task id> <status> <store path>.
// Command is split into a program and its leading arguments with shell-style
// quoting. The same values are exported as TASKTRACKER_EVENT,
// TASKTRACKER_TASK_ID, TASKTRACKER_TASK_STATUS and TASKTRACKER_FILE. An empty
// command does nothing.
func Invoke(ctx context.Context, opts Options) (Result, error) {
	argv, err := cmdline.Split(opts.Command)
	if err != nil {
		return Result{}, fmt.Errorf("hook command: %w", err)
	}
	if len(argv) == 0 {
		return Result{}, nil
	}
	if opts.Event == "" {
		return Result{}, fmt.Errorf("hook event is empty")
	}

	id := strconv.Itoa(opts.TaskID)
	argv = append(argv, opts.Event, id, opts.Status, opts.StorePath)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}
	cmd.Env = append(os.Environ(),
		"TASKTRACKER_EVENT="+opts.Event,
		"TASKTRACKER_TASK_ID="+id,
		"TASKTRACKER_TASK_STATUS="+opts.Status,
		"TASKTRACKER_FILE="+opts.StorePath,
	)
	cmd.Stdout = opts.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = opts.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	err = cmd.Run()
	result := Result{
		Ran:      true,
		Command:  cmd.Args,
		ExitCode: exitCodeFromError(err),
	}
	if err != nil {
		return result, fmt.Errorf("hook command failed: %w", err)
	}
	return result, nil
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
