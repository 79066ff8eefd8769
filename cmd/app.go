package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasktracker-go/internal/config"
	"github.com/nibzard/tasktracker-go/internal/hooks"
	"github.com/nibzard/tasktracker-go/internal/logging"
	"github.com/nibzard/tasktracker-go/internal/repository"
	"github.com/nibzard/tasktracker-go/internal/store"
	"github.com/nibzard/tasktracker-go/internal/ui"
)

// app holds the components one invocation works with.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	runLog *logging.RunLog
	store  *store.FileStore
	repo   *repository.Repository
	theme  ui.Theme
}

// openApp wires logger, store and repository from cfg. Operation logs go to
// the run log when log_dir is set, otherwise to stderr.
func openApp(cfg *config.Config, stdout, stderr io.Writer) (*app, error) {
	a := &app{cfg: cfg}

	level := logging.ParseLevel(cfg.LogLevel)
	a.logger = logging.New(stderr, logging.Options{
		Level:      level,
		Formatter:  logging.ParseFormatter(cfg.LogFormat),
		Timestamps: cfg.LogTimestamps,
		Caller:     cfg.LogCaller,
		Prefix:     "tasktracker",
	})

	if cfg.LogDir != "" {
		rl, err := logging.OpenRunLog(cfg.LogDir, cfg.ProjectRoot, level)
		if err != nil {
			return nil, fmt.Errorf("opening run log: %w", err)
		}
		a.runLog = rl
		a.logger = rl.Logger()
	}

	a.store = store.NewFileStore(cfg.StoreFile, store.WithLogger(a.logger))
	a.repo = repository.New(a.store,
		repository.WithLogger(a.logger),
		repository.WithStrictStatus(cfg.StrictStatus),
		repository.WithNotify(a.hookNotifier(stderr)),
	)
	a.theme = ui.NewTheme(stdout, cfg.Color && ui.IsTTY(stdout))
	return a, nil
}

// hookNotifier runs the configured hook command for each saved change. A
// failing hook is logged and never fails the operation.
func (a *app) hookNotifier(out io.Writer) func(context.Context, repository.Event) {
	if a.cfg.HookCommand == "" {
		return nil
	}
	return func(ctx context.Context, ev repository.Event) {
		res, err := hooks.Invoke(ctx, hooks.Options{
			Command:   a.cfg.HookCommand,
			Event:     ev.Op,
			TaskID:    ev.ID,
			Status:    string(ev.Status),
			StorePath: a.store.Path(),
			WorkDir:   a.cfg.ProjectRoot,
			Stdout:    out,
			Stderr:    out,
		})
		if err != nil {
			a.logger.Warn("hook failed", "command", a.cfg.HookCommand, "event", ev.Op, "id", ev.ID, "exit_code", res.ExitCode, "err", err)
			return
		}
		a.logger.Debug("hook ran", "event", ev.Op, "id", ev.ID)
	}
}

func (a *app) Close() error {
	err := a.repo.Close()
	if cerr := a.runLog.Close(); err == nil {
		err = cerr
	}
	return err
}
