package config

import (
	"flag"
	"strings"
)

// Flag names that map to config fields.
var flagFields = map[string]string{
	"file":          "store_file",
	"log-dir":       "log_dir",
	"log-level":     "log_level",
	"log-format":    "log_format",
	"strict-status": "strict_status",
	"no-color":      "color",
	"hook":          "hook_command",
}

// RegisterFlags defines the config flags on fs, bound to cfg.
func RegisterFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.StoreFile, "file", cfg.StoreFile, "Path to the task file")
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Directory for JSONL run logs (empty disables)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text, json, logfmt")
	fs.BoolVar(&cfg.StrictStatus, "strict-status", cfg.StrictStatus, "Reject unknown status tokens")
	fs.StringVar(&cfg.HookCommand, "hook", cfg.HookCommand, "Command to run after each task change")
	fs.BoolFunc("no-color", "Disable colored output", func(s string) error {
		if s == "" || boolFromString(s) {
			cfg.Color = false
		}
		return nil
	})
}

// parseFlags defines and parses CLI flags. Sources may be nil.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet(appName, flag.ContinueOnError)
	}
	RegisterFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	if sources != nil {
		fs.Visit(func(f *flag.Flag) {
			if field, ok := flagFields[f.Name]; ok {
				sources[field] = SourceFlag
			}
		})
	}
	return nil
}
