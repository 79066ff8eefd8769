// Package cmd implements the CLI command structure for tasktracker.
package cmd

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/tasktracker-go/internal/config"
	"github.com/nibzard/tasktracker-go/internal/logging"
	"github.com/nibzard/tasktracker-go/internal/repository"
	"github.com/nibzard/tasktracker-go/internal/store"
	"github.com/nibzard/tasktracker-go/internal/task"
	"github.com/nibzard/tasktracker-go/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// reportedError marks a failure whose message has already been shown.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// IsReported reports whether err was already printed to the user.
func IsReported(err error) bool {
	var re *reportedError
	return errors.As(err, &re)
}

// Run executes the tasktracker CLI.
func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("tasktracker", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand(stdout)
	}

	// No subcommand starts the interactive prompt.
	subcommand := "repl"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = strings.ToLower(remainingArgs[0])
		remainingArgs = remainingArgs[1:]
	}

	switch {
	case subcommand == "repl":
		return replCommand(ctx, cws.Config, stdin, stdout, stderr)
	case subcommand == "add", subcommand == "update", subcommand == "delete",
		subcommand == "list", task.IsMarkCommand(subcommand):
		return taskCommand(ctx, cws.Config, subcommand, remainingArgs, stdout, stderr)
	case subcommand == "tui":
		return tuiCommand(ctx, cws.Config, remainingArgs, stdout, stderr)
	case subcommand == "doctor":
		return doctorCommand(cws, remainingArgs, stdout)
	case subcommand == "tail":
		return tailCommand(ctx, cws.Config, remainingArgs, stdout)
	case subcommand == "config":
		return configCommand(cws.Config, remainingArgs, stdout)
	case subcommand == "version":
		return versionCommand(stdout)
	case subcommand == "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// replCommand runs the interactive prompt.
func replCommand(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout, stderr io.Writer) error {
	a, err := openApp(cfg, stdout, stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	shell := ui.NewShell(a.repo, stdout, a.theme, a.logger)
	return ui.NewREPL(shell, stdin).Run(ctx)
}

// taskCommand runs a single task command such as "add" or "mark-done".
func taskCommand(ctx context.Context, cfg *config.Config, name string, args []string, stdout, stderr io.Writer) error {
	a, err := openApp(cfg, stdout, stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	shell := ui.NewShell(a.repo, stdout, a.theme, a.logger)
	if err := shell.Exec(ctx, joinDescription(name, args)); err != nil {
		return &reportedError{err: err}
	}
	return nil
}

// joinDescription lets descriptions be given unquoted on the command line:
// "add buy milk" becomes add "buy milk".
func joinDescription(name string, args []string) []string {
	out := append([]string{name}, args...)
	switch {
	case name == "add" && len(args) > 1:
		return []string{name, strings.Join(args, " ")}
	case name == "update" && len(args) > 2:
		return []string{name, args[0], strings.Join(args[1:], " ")}
	}
	return out
}

// tuiCommand launches the read-only viewer.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("tasktracker tui", flag.ContinueOnError)
	fs.SetOutput(stderr)
	interval := fs.Duration("refresh", 0, "Refresh interval (default 1s)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	a, err := openApp(cfg, stdout, stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	return ui.RunViewer(ctx, a.repo.GetAll,
		ui.WithStorePath(a.store.Path()),
		ui.WithRefreshInterval(*interval),
		ui.WithTheme(ui.NewTheme(stdout, cfg.Color)),
	)
}

// doctorCommand reports the resolved configuration and checks the task file.
func doctorCommand(cws *config.ConfigWithSources, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("tasktracker doctor", flag.ContinueOnError)
	fs.SetOutput(w)
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := cws.Config
	fmt.Fprintln(w, "Task Tracker Doctor")
	fmt.Fprintln(w, "===================")
	fmt.Fprintln(w)

	allOK := true

	fmt.Fprintln(w, "Config:")
	for _, field := range config.Fields() {
		value, _ := cfg.Get(field)
		fmt.Fprintf(w, "  %-15s %-40s (%s)\n", field, value, cws.Sources[field])
	}
	if len(cws.Files) == 0 {
		fmt.Fprintln(w, "  No config files found")
	}
	for _, f := range cws.Files {
		fmt.Fprintf(w, "  Loaded: %s\n", f)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Task file: %s\n", cfg.StoreFile)
	st := store.NewFileStore(cfg.StoreFile)
	exists, err := st.Exists()
	switch {
	case err != nil:
		fmt.Fprintf(w, "  ❌ Error: %v\n", err)
		allOK = false
	case !exists:
		fmt.Fprintln(w, "  ⚠️  Not found (created on first add)")
	default:
		fmt.Fprintln(w, "  ✅ OK")
		if !checkTaskFile(w, cfg.StoreFile, *verbose) {
			allOK = false
		}
	}
	fmt.Fprintln(w)

	if cfg.LogDir != "" {
		fmt.Fprintf(w, "Log directory: %s\n", cfg.LogDir)
		if info, err := os.Stat(cfg.LogDir); err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintln(w, "  ⚠️  Not found (will be created on run)")
			} else {
				fmt.Fprintf(w, "  ❌ Error: %v\n", err)
				allOK = false
			}
		} else if !info.IsDir() {
			fmt.Fprintln(w, "  ❌ Error: path is not a directory")
			allOK = false
		} else {
			fmt.Fprintln(w, "  ✅ OK")
		}
		fmt.Fprintln(w)
	}

	if allOK {
		fmt.Fprintln(w, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(w, "⚠️  Some checks failed.")
	return fmt.Errorf("doctor checks failed")
}

// checkTaskFile validates the task file content and prints every problem.
func checkTaskFile(w io.Writer, path string, verbose bool) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(w, "  ❌ Read error: %v\n", err)
		return false
	}

	result := store.NewJSONCodec().Check(data)
	if !result.Valid {
		fmt.Fprintln(w, "  ❌ Validation failed:")
		for _, e := range result.Errors {
			fmt.Fprintf(w, "     - %v\n", e)
		}
		return false
	}

	fmt.Fprintln(w, "  ✅ Valid")
	if result.Empty {
		fmt.Fprintln(w, "  No tasks yet")
		return true
	}
	fmt.Fprintf(w, "  Tasks: %d, next id: %d\n  ", result.Tasks, task.NextID(result.Records))
	ui.RenderCounts(w, result.Records, ui.PlainTheme())
	if verbose {
		for _, t := range result.Records.Sorted() {
			fmt.Fprintf(w, "    - [%s] %d: %s\n", t.Status.Label(), t.ID, t.Description)
		}
	}
	return true
}

// tailCommand prints the latest run log.
func tailCommand(ctx context.Context, cfg *config.Config, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("tasktracker tail", flag.ContinueOnError)
	fs.SetOutput(w)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	list := fs.Bool("list", false, "List run logs instead of tailing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.LogDir == "" {
		return fmt.Errorf("log_dir is not configured (set it in tasktracker.toml, %s or -log-dir)", config.EnvLogDir)
	}

	logDir, err := logging.FindLogDir(cfg.LogDir, cfg.ProjectRoot)
	if err != nil {
		return fmt.Errorf("finding log directory: %w", err)
	}

	if *list {
		runs, err := logging.FindRuns(logDir)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(w, "No log files found.")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintf(w, "%s  %s  %d bytes\n", r.RunID, r.ModTime.Format("2006-01-02 15:04:05"), r.Size)
		}
		return nil
	}

	logPath, err := logging.FindLatestLog(logDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(w, "No log files found.")
		return nil
	}

	fmt.Fprintf(w, "Tailing: %s\n", logPath)
	if *follow {
		fmt.Fprintln(w, "(Ctrl+C to stop)")
	}
	fmt.Fprintln(w)
	return logging.TailLog(ctx, w, logPath, *n, *follow)
}

// configCommand prints the resolved configuration, or a commented example.
func configCommand(cfg *config.Config, args []string, w io.Writer) error {
	if len(args) > 1 {
		return fmt.Errorf("unexpected arguments: %v", args[1:])
	}
	mode := "show"
	if len(args) == 1 {
		mode = args[0]
	}

	switch mode {
	case "example":
		_, err := io.WriteString(w, config.ExampleConfig())
		return err
	case "show":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		_, err := w.Write(buf.Bytes())
		return err
	default:
		return fmt.Errorf("unknown config mode %q (want show or example)", mode)
	}
}

// versionCommand prints version information.
func versionCommand(w io.Writer) error {
	fmt.Fprintf(w, "tasktracker version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Task Tracker - a personal task list kept in a JSON file")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tasktracker [options] [command] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  repl                    Interactive prompt (default command)")
	fmt.Fprintln(w, "  add <description>       Add a task")
	fmt.Fprintln(w, "  update <id> <text>      Change a task description")
	fmt.Fprintln(w, "  delete <id>             Delete a task")
	fmt.Fprintln(w, "  mark-todo <id>          Mark a task as todo")
	fmt.Fprintln(w, "  mark-in-progress <id>   Mark a task as in progress")
	fmt.Fprintln(w, "  mark-done <id>          Mark a task as done")
	fmt.Fprintln(w, "  list [status]           List tasks (todo, in-progress, done)")
	fmt.Fprintln(w, "  tui                     Read-only terminal viewer")
	fmt.Fprintln(w, "  doctor [-v]             Check config and task file validity")
	fmt.Fprintln(w, "  tail [-f] [-n N] [-list]  Show the latest run log")
	fmt.Fprintln(w, "  config [show|example]   Print the resolved or an example config")
	fmt.Fprintln(w, "  version                 Show version information")
	fmt.Fprintln(w, "  help                    Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Prompt commands:")
	for i, line := range repository.HelpCommands() {
		fmt.Fprintf(w, "  %d. %s\n", i+1, line)
	}
}
