package ui

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/tasktracker-go/internal/task"
)

// Loader returns the current task collection.
type Loader func(ctx context.Context) (task.Collection, error)

// ViewerOption configures the TUI viewer.
type ViewerOption func(*tuiModel)

// WithRefreshInterval sets how often the viewer reloads the task file.
func WithRefreshInterval(d time.Duration) ViewerOption {
	return func(m *tuiModel) {
		if d > 0 {
			m.tickInterval = d
		}
	}
}

// WithStorePath shows the task file path in the viewer footer.
func WithStorePath(path string) ViewerOption {
	return func(m *tuiModel) {
		m.storePath = path
	}
}

// WithTheme sets the styles used for status rows.
func WithTheme(theme Theme) ViewerOption {
	return func(m *tuiModel) {
		m.theme = theme
	}
}

// RunViewer starts the read-only task viewer.
func RunViewer(ctx context.Context, load Loader, opts ...ViewerOption) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	model := newTUIModel(ctx, load, opts...)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type tuiModel struct {
	ctx          context.Context
	load         Loader
	storePath    string
	theme        Theme
	tickInterval time.Duration

	tasks    task.Collection
	loadErr  error
	loaded   bool
	filter   task.Status
	showHelp bool
}

type tickMsg time.Time

func newTUIModel(ctx context.Context, load Loader, opts ...ViewerOption) *tuiModel {
	m := &tuiModel{
		ctx:          ctx,
		load:         load,
		theme:        PlainTheme(),
		tickInterval: time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *tuiModel) Init() tea.Cmd {
	m.refresh()
	return tickCmd(m.tickInterval)
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r", "f5":
			m.refresh()
		case "h", "?":
			m.showHelp = !m.showHelp
		case "1":
			m.filter = task.StatusTodo
		case "2":
			m.filter = task.StatusInProgress
		case "3":
			m.filter = task.StatusDone
		case "0":
			m.filter = ""
		}
		return m, nil
	case tickMsg:
		m.refresh()
		return m, tickCmd(m.tickInterval)
	}
	return m, nil
}

func (m *tuiModel) View() string {
	var b strings.Builder
	m.writeTitle(&b)

	if m.showHelp {
		writeHelp(&b)
		m.writeFooter(&b)
		return b.String()
	}

	if m.loadErr != nil {
		b.WriteString("Error loading task file:\n")
		b.WriteString("  " + m.loadErr.Error() + "\n\n")
		m.writeFooter(&b)
		return b.String()
	}
	if !m.loaded {
		b.WriteString("Loading...\n\n")
		m.writeFooter(&b)
		return b.String()
	}

	b.WriteString("Task Overview\n\n  ")
	RenderCounts(&b, m.tasks, m.theme)
	b.WriteString("\n")

	if m.filter != "" {
		b.WriteString(fmt.Sprintf("Filter: %s (0 to clear)\n\n", m.filter.Label()))
	}
	m.writeTasks(&b)
	m.writeFooter(&b)
	return b.String()
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *tuiModel) refresh() {
	tasks, err := m.load(m.ctx)
	if err != nil {
		m.loadErr = err
		return
	}
	m.loadErr = nil
	m.loaded = true
	m.tasks = tasks
}

// visible returns the tasks that pass the current filter, sorted by id.
func (m *tuiModel) visible() task.Collection {
	tasks := m.tasks
	if m.filter != "" {
		tasks = tasks.Filter(m.filter)
	}
	return tasks.Sorted()
}

func (m *tuiModel) writeTitle(b *strings.Builder) {
	title := "Task Tracker"
	b.WriteString(m.theme.Title.Render(title) + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func (m *tuiModel) writeTasks(b *strings.Builder) {
	tasks := m.visible()
	if len(tasks) == 0 {
		b.WriteString("  No Task exists!\n\n")
		return
	}
	for _, rec := range tasks {
		b.WriteString(m.formatTask(rec))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (m *tuiModel) formatTask(rec task.Record) string {
	icon := " "
	switch rec.Status {
	case task.StatusInProgress:
		icon = ">"
	case task.StatusDone:
		icon = "x"
	}

	desc := rec.Description
	if len([]rune(desc)) > 60 {
		desc = string([]rune(desc)[:57]) + "..."
	}
	line := fmt.Sprintf("  %s %-4s %-12s %s  (updated %s)",
		icon,
		strconv.Itoa(rec.ID),
		rec.Status.Label(),
		desc,
		rec.UpdatedAt.Local().Format(DateLayout),
	)
	return m.theme.StatusStyle(rec.Status).Render(line)
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  q, ctrl+c    Quit\n")
	b.WriteString("  r, F5        Refresh data\n")
	b.WriteString("  h, ?         Toggle this help screen\n")
	b.WriteString("  1            Filter by todo\n")
	b.WriteString("  2            Filter by in-progress\n")
	b.WriteString("  3            Filter by done\n")
	b.WriteString("  0            Clear filter\n\n")
}

func (m *tuiModel) writeFooter(b *strings.Builder) {
	if m.storePath != "" {
		b.WriteString(fmt.Sprintf("Task file: %s\n", m.storePath))
	}
	b.WriteString(fmt.Sprintf("Press h for help | q to quit | Refreshing every %s\n", m.tickInterval))
}
