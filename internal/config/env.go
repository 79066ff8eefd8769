package config

import (
	"os"
	"strings"
)

// Environment variable names.
const (
	EnvStoreFile     = "TASKTRACKER_FILE"
	EnvLogDir        = "TASKTRACKER_LOG_DIR"
	EnvLogLevel      = "TASKTRACKER_LOG_LEVEL"
	EnvLogFormat     = "TASKTRACKER_LOG_FORMAT"
	EnvLogTimestamps = "TASKTRACKER_LOG_TIMESTAMPS"
	EnvLogCaller     = "TASKTRACKER_LOG_CALLER"
	EnvStrictStatus  = "TASKTRACKER_STRICT_STATUS"
	EnvColor         = "TASKTRACKER_COLOR"
	EnvNoColor       = "NO_COLOR"
	EnvHookCommand   = "TASKTRACKER_HOOK"
)

// loadFromEnv overrides config from environment variables. Sources may be nil.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) {
	mark := func(field string) {
		if sources != nil {
			sources[field] = SourceEnv
		}
	}
	str := func(env, field string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
			mark(field)
		}
	}
	boolean := func(env, field string, dst *bool) {
		if v, ok := os.LookupEnv(env); ok && strings.TrimSpace(v) != "" {
			*dst = boolFromString(v)
			mark(field)
		}
	}

	str(EnvStoreFile, "store_file", &cfg.StoreFile)
	str(EnvLogDir, "log_dir", &cfg.LogDir)
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(v))
		mark("log_level")
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(v))
		mark("log_format")
	}
	boolean(EnvLogTimestamps, "log_timestamps", &cfg.LogTimestamps)
	boolean(EnvLogCaller, "log_caller", &cfg.LogCaller)
	boolean(EnvStrictStatus, "strict_status", &cfg.StrictStatus)
	boolean(EnvColor, "color", &cfg.Color)
	str(EnvHookCommand, "hook_command", &cfg.HookCommand)

	// https://no-color.org: any non-empty value disables color.
	if os.Getenv(EnvNoColor) != "" {
		cfg.Color = false
		mark("color")
	}
}

// boolFromString parses common truthy strings.
func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
