package ui

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/nibzard/tasktracker-go/internal/task"
)

// DateLayout is the day-month-year format used for task dates.
const DateLayout = "02-01-2006"

var taskHeader = []any{"Task Id", "Description", "Status", "Created Date", "Update Date"}

// RenderTasks writes tasks as a table sorted by id, each row colored by
// status. An empty collection prints a notice and an empty table.
func RenderTasks(w io.Writer, tasks task.Collection, theme Theme) error {
	if len(tasks) == 0 {
		_, _ = fmt.Fprintf(w, "\n%s\n\n", theme.Error.Render("No Task exists!"))
	}

	table := tablewriter.NewWriter(w)
	table.Header(taskHeader...)
	for _, rec := range tasks.Sorted() {
		style := theme.StatusStyle(rec.Status)
		_ = table.Append([]string{
			style.Render(strconv.Itoa(rec.ID)),
			style.Render(rec.Description),
			style.Render(rec.Status.Label()),
			style.Render(rec.CreatedAt.Local().Format(DateLayout)),
			style.Render(rec.UpdatedAt.Local().Format(DateLayout)),
		})
	}
	return table.Render()
}

// RenderCounts writes a one-line status summary such as
// "todo: 2  in-progress: 1  done: 4".
func RenderCounts(w io.Writer, tasks task.Collection, theme Theme) {
	counts := tasks.Counts()
	for i, s := range task.Statuses() {
		if i > 0 {
			_, _ = io.WriteString(w, "  ")
		}
		_, _ = io.WriteString(w, theme.StatusStyle(s).Render(fmt.Sprintf("%s: %d", s.Label(), counts[s])))
	}
	_, _ = io.WriteString(w, "\n")
}
