package repository

var helpCommands = []string{
	`add "task description" - Add a new task`,
	`update {id} "new description" - Update the description of a task`,
	`delete {id} - Delete a task`,
	`mark-todo {id} - Mark a task as todo`,
	`mark-in-progress {id} - Mark a task as in progress`,
	`mark-done {id} - Mark a task as done`,
	`list - List all tasks`,
	`list todo - List tasks that are todo`,
	`list in-progress - List tasks that are in progress`,
	`list done - List tasks that are done`,
	`clear - Clear the console`,
	`exit - Exit the application`,
	`help - Show this list of commands`,
}

// HelpCommands returns the supported commands with a short description each.
// The result is a fresh slice the caller may modify.
func HelpCommands() []string {
	out := make([]string, len(helpCommands))
	copy(out, helpCommands)
	return out
}
