// Package ui renders tasks and drives the interactive front ends.
package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/tasktracker-go/internal/task"
)

// Theme holds the styles for one output stream.
type Theme struct {
	Info   lipgloss.Style
	Help   lipgloss.Style
	Error  lipgloss.Style
	Prompt lipgloss.Style
	Title  lipgloss.Style

	status map[task.Status]lipgloss.Style
}

// NewTheme returns styles bound to w. With color off every style renders
// plain text.
func NewTheme(w io.Writer, color bool) Theme {
	r := lipgloss.NewRenderer(w)
	plain := r.NewStyle()
	if !color {
		return Theme{
			Info:   plain,
			Help:   plain,
			Error:  plain,
			Prompt: plain,
			Title:  plain,
			status: map[task.Status]lipgloss.Style{},
		}
	}

	return Theme{
		Info:   r.NewStyle().Foreground(lipgloss.Color("11")),
		Help:   r.NewStyle().Foreground(lipgloss.Color("14")),
		Error:  r.NewStyle().Foreground(lipgloss.Color("9")),
		Prompt: r.NewStyle().Foreground(lipgloss.Color("3")),
		Title:  r.NewStyle().Bold(true),
		status: map[task.Status]lipgloss.Style{
			task.StatusTodo:       r.NewStyle().Foreground(lipgloss.Color("13")),
			task.StatusInProgress: r.NewStyle().Foreground(lipgloss.Color("11")),
			task.StatusDone:       r.NewStyle().Foreground(lipgloss.Color("10")),
		},
	}
}

// PlainTheme returns a theme that never emits escape codes.
func PlainTheme() Theme {
	return NewTheme(io.Discard, false)
}

// StatusStyle returns the row style for s.
func (t Theme) StatusStyle(s task.Status) lipgloss.Style {
	if st, ok := t.status[s]; ok {
		return st
	}
	return lipgloss.NewStyle()
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
