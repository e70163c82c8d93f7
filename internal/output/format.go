// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"taskdeck/internal/cache"
)

// FormatTask formats a task line for the list.
// Format: "{ID:>4}  [{MARK}]  {TITLE}\n" where MARK is x for completed and
// a space otherwise. A pending task has no server id yet and shows "-".
func FormatTask(w io.Writer, task cache.Task) {
	id := "-"
	if !task.Pending {
		id = fmt.Sprintf("%d", task.ID)
	}
	mark := " "
	if task.IsComplete {
		mark = "x"
	}
	fmt.Fprintf(w, "%4s  [%s]  %s\n", id, mark, normalizeTitle(task.Title))
}

// FormatTaskDetail formats the full view of a single task.
func FormatTaskDetail(w io.Writer, task cache.Task) {
	fmt.Fprintf(w, "id:          %d\n", task.ID)
	fmt.Fprintf(w, "title:       %s\n", normalizeTitle(task.Title))
	if task.Description != nil {
		fmt.Fprintf(w, "description: %s\n", *task.Description)
	}
	state := "open"
	if task.IsComplete {
		state = "done"
	}
	fmt.Fprintf(w, "state:       %s\n", state)
	fmt.Fprintf(w, "created:     %s\n", task.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "updated:     %s\n", task.UpdatedAt.Format("2006-01-02 15:04"))
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	// Replace newlines with spaces
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	// Trim and check for empty
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
