// Package cmdline splits command lines typed at the prompt or configured as
// hook commands.
//
// Quoting follows the shell: words are separated by spaces, and single or
// double quotes group words. Unlike a shell, text is never dropped. A
// backslash only escapes a quote character (or another backslash before a
// quote), so Windows paths survive as typed. A word starting with # is an
// ordinary word, not a comment.
package cmdline

import (
	"fmt"
	"strings"

	"github.com/google/shlex"
)

// Split breaks line into words. Unterminated quotes are an error.
func Split(line string) ([]string, error) {
	words, err := shlex.Split(escape(line))
	if err != nil {
		return nil, fmt.Errorf("parse command line: %w", err)
	}
	return words, nil
}

// escape rewrites line so that shlex keeps every backslash and # it would
// otherwise consume.
func escape(line string) string {
	const (
		bare = iota
		double
		single
	)

	var b strings.Builder
	b.Grow(len(line) + 8)
	state := bare
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch state {
		case single:
			// shlex reads single-quoted text literally.
			if c == '\'' {
				state = bare
			}
			b.WriteRune(c)

		case double:
			switch {
			case c == '\\' && i+1 < len(runes) && runes[i+1] == '"':
				b.WriteString(`\"`)
				i++
			case c == '\\':
				b.WriteString(`\\`)
			case c == '"':
				state = bare
				b.WriteRune(c)
			default:
				b.WriteRune(c)
			}

		default:
			switch {
			case c == '\\' && i+1 < len(runes) && (runes[i+1] == '"' || runes[i+1] == '\''):
				b.WriteRune(c)
				b.WriteRune(runes[i+1])
				i++
			case c == '\\':
				b.WriteString(`\\`)
			case c == '#':
				b.WriteString(`\#`)
			case c == '"':
				state = double
				b.WriteRune(c)
			case c == '\'':
				state = single
				b.WriteRune(c)
			default:
				b.WriteRune(c)
			}
		}
	}
	return b.String()
}
