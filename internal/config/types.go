package config

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource

	// Files lists the config files that were read, lowest priority first.
	Files []string
}

// Default values.
const (
	DefaultStoreFile = "tasks.json"
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
)

// Config holds the full configuration for tasktracker.
type Config struct {
	// Task file. Relative paths resolve against ProjectRoot.
	StoreFile string `toml:"store_file"`

	// Run log directory; empty disables the JSONL run log.
	LogDir string `toml:"log_dir"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Reject unknown status tokens instead of falling back to todo.
	StrictStatus bool `toml:"strict_status"`

	// Colored status labels in tables.
	Color bool `toml:"color"`

	// Command run after every saved task change; empty disables it.
	HookCommand string `toml:"hook_command"`

	// Working directory the config was resolved against (not persisted).
	ProjectRoot string `toml:"-"`
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"store_file",
		"log_dir",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
		"strict_status",
		"color",
		"hook_command",
	}
}

// Get returns the value of a config field by its TOML key, formatted for display.
func (c *Config) Get(field string) (string, bool) {
	switch field {
	case "store_file":
		return c.StoreFile, true
	case "log_dir":
		return c.LogDir, true
	case "log_level":
		return c.LogLevel, true
	case "log_format":
		return c.LogFormat, true
	case "log_timestamps":
		return formatBool(c.LogTimestamps), true
	case "log_caller":
		return formatBool(c.LogCaller), true
	case "strict_status":
		return formatBool(c.StrictStatus), true
	case "color":
		return formatBool(c.Color), true
	case "hook_command":
		return c.HookCommand, true
	}
	return "", false
}

// Fields returns the configurable field names in display order.
func Fields() []string {
	return configFields()
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
