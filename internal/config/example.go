package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# tasktracker configuration file
# Values can be overridden by environment variables or CLI flags

# Task file (relative to the working directory, supports ~ expansion)
store_file = "tasks.json"

# Directory for JSONL run logs; leave empty to disable
# log_dir = "~/.tasktracker/logs"

# Console logging: debug, info, warn, error
log_level = "warn"

# Console log format: text, json, logfmt
log_format = "text"
log_timestamps = false
log_caller = false

# Reject unknown status tokens instead of treating them as todo
strict_status = false

# Colored status labels (NO_COLOR also disables this)
color = true

# Command run after each saved change, called as:
#   <command> <event> <task id> <status> <task file>
# The value may carry its own arguments; quote paths that contain spaces.
# hook_command = "~/bin/on-task-change --quiet"
`
}
