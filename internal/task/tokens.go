package task

import "strings"

// statusTokens maps caller tokens (mark commands and list filters) to statuses.
var statusTokens = map[string]Status{
	"mark-todo":        StatusTodo,
	"todo":             StatusTodo,
	"mark-in-progress": StatusInProgress,
	"in-progress":      StatusInProgress,
	"in_progress":      StatusInProgress,
	"mark-done":        StatusDone,
	"done":             StatusDone,
}

// ParseStatusToken maps a mark command or list filter to a status.
// Matching ignores case and surrounding whitespace. Unknown tokens map to
// StatusTodo with ok == false; callers decide whether to accept the fallback.
func ParseStatusToken(token string) (status Status, ok bool) {
	status, ok = statusTokens[strings.ToLower(strings.TrimSpace(token))]
	if !ok {
		return StatusTodo, false
	}
	return status, true
}

// IsMarkCommand reports whether token is one of the mark-* commands.
func IsMarkCommand(token string) bool {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "mark-todo", "mark-in-progress", "mark-done":
		return true
	}
	return false
}

// IsFilterToken reports whether token is a valid list filter.
func IsFilterToken(token string) bool {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "todo", "in-progress", "done":
		return true
	}
	return false
}
