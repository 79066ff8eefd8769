package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/nibzard/tasktracker-go/internal/repository"
	"github.com/nibzard/tasktracker-go/internal/store"
	"github.com/nibzard/tasktracker-go/internal/task"
)

var (
	// ErrWrongCommand is returned for malformed commands. The usage hint has
	// already been printed.
	ErrWrongCommand = errors.New("wrong command")

	// ErrTaskNotFound is returned when the addressed task does not exist.
	ErrTaskNotFound = errors.New("task does not exist")

	// ErrExit is returned by the exit command.
	ErrExit = errors.New("exit")
)

// Service is the task API the shell drives. *repository.Repository
// implements it.
type Service interface {
	Add(ctx context.Context, description string) (int, error)
	Update(ctx context.Context, id int, description string) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)
	SetStatus(ctx context.Context, token string, id int) (bool, error)
	GetAll(ctx context.Context) (task.Collection, error)
	GetByStatus(ctx context.Context, token string) (task.Collection, error)
	ListHelp() []string
}

// Shell executes tokenized commands against a Service and prints the
// outcome the way the interactive prompt does.
type Shell struct {
	svc    Service
	out    io.Writer
	theme  Theme
	logger *log.Logger
}

// NewShell returns a shell writing to out.
func NewShell(svc Service, out io.Writer, theme Theme, logger *log.Logger) *Shell {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Shell{svc: svc, out: out, theme: theme, logger: logger}
}

// Exec runs one command. args[0] is the command name, matched
// case-insensitively. Failures are printed before being returned.
func (s *Shell) Exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return s.wrongCommand()
	}

	cmd := strings.ToLower(args[0])
	switch {
	case cmd == "help":
		s.printHelp()
		return nil
	case cmd == "add":
		return s.add(ctx, args)
	case cmd == "update":
		return s.update(ctx, args)
	case cmd == "delete":
		return s.delete(ctx, args)
	case task.IsMarkCommand(cmd):
		return s.setStatus(ctx, cmd, args)
	case cmd == "list":
		return s.list(ctx, args)
	case cmd == "exit":
		return ErrExit
	}
	s.logger.Debug("unknown command", "command", args[0])
	return s.wrongCommand()
}

func (s *Shell) add(ctx context.Context, args []string) error {
	if len(args) != 2 || args[1] == "" {
		return s.wrongCommand()
	}
	id, err := s.svc.Add(ctx, args[1])
	if err != nil {
		s.info("Task not saved! Try Again")
		s.reportFailure(err)
		return err
	}
	s.info(fmt.Sprintf("Task added successfully with Id : %d", id))
	return nil
}

func (s *Shell) update(ctx context.Context, args []string) error {
	if len(args) != 3 || args[1] == "" || args[2] == "" {
		return s.wrongCommand()
	}
	id, ok := s.parseID(args[1])
	if !ok {
		return s.wrongCommand()
	}
	found, err := s.svc.Update(ctx, id, args[2])
	if errors.Is(err, repository.ErrInvalidDescription) {
		return s.wrongCommand()
	}
	return s.report(id, found, err, "Task updated successfully with Id : %d")
}

func (s *Shell) delete(ctx context.Context, args []string) error {
	if len(args) != 2 || args[1] == "" {
		return s.wrongCommand()
	}
	id, ok := s.parseID(args[1])
	if !ok {
		return s.wrongCommand()
	}
	found, err := s.svc.Delete(ctx, id)
	return s.report(id, found, err, "Task deleted successfully with Id : %d")
}

func (s *Shell) setStatus(ctx context.Context, cmd string, args []string) error {
	if len(args) != 2 || args[1] == "" {
		return s.wrongCommand()
	}
	id, ok := s.parseID(args[1])
	if !ok {
		return s.wrongCommand()
	}
	found, err := s.svc.SetStatus(ctx, cmd, id)
	return s.report(id, found, err, "Task status set successfully with Id : %d")
}

func (s *Shell) list(ctx context.Context, args []string) error {
	var (
		tasks task.Collection
		err   error
	)
	switch len(args) {
	case 1:
		tasks, err = s.svc.GetAll(ctx)
	case 2:
		filter := strings.ToLower(args[1])
		if !task.IsFilterToken(filter) {
			return s.wrongCommand()
		}
		tasks, err = s.svc.GetByStatus(ctx, filter)
	default:
		return s.wrongCommand()
	}
	if err != nil {
		s.reportFailure(err)
		return err
	}
	_, _ = io.WriteString(s.out, "\n")
	return RenderTasks(s.out, tasks, s.theme)
}

func (s *Shell) printHelp() {
	for i, line := range s.svc.ListHelp() {
		s.println(s.theme.Help, fmt.Sprintf("%d. %s", i+1, line))
	}
}

// report prints the outcome of an id-addressed mutation.
func (s *Shell) report(id int, found bool, err error, success string) error {
	if err != nil {
		s.reportFailure(err)
		return err
	}
	if !found {
		s.info(fmt.Sprintf("Task with Id : %d, does not exist!", id))
		return ErrTaskNotFound
	}
	s.info(fmt.Sprintf(success, id))
	return nil
}

// reportFailure prints one error line naming the kind of failure.
func (s *Shell) reportFailure(err error) {
	var msg string
	switch {
	case errors.Is(err, store.ErrCorruptStore):
		msg = "Task file is corrupt: " + err.Error()
	case errors.Is(err, store.ErrStorageUnavailable):
		msg = "Task file is unavailable: " + err.Error()
	case errors.Is(err, repository.ErrUnknownStatus):
		msg = "Unknown status: " + err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		msg = "Interrupted"
	default:
		msg = "Error: " + err.Error()
	}
	s.println(s.theme.Error, msg)
}

func (s *Shell) parseID(arg string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (s *Shell) wrongCommand() error {
	s.println(s.theme.Error, "Wrong command! Try again.")
	s.info(`Type "help" to know the set of commands`)
	return ErrWrongCommand
}

func (s *Shell) info(msg string) {
	s.println(s.theme.Info, msg)
}

func (s *Shell) println(style lipgloss.Style, msg string) {
	_, _ = fmt.Fprintf(s.out, "\n%s\n", style.Render(msg))
}
