// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"taskmgr/internal/service"
	"taskmgr/internal/tasklist"
)

const (
	// Separator frames page headers.
	Separator = "------------"
)

// FormatTask formats a task line.
// Format: "{N:>4}  {TITLE} [{PRIORITY}, {STATUS}]\n"
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %s [%s, %s]\n", num, normalizeTitle(task.Title), task.Priority, task.Status)
}

// FormatPageHeader formats the header above a page of tasks.
func FormatPageHeader(w io.Writer, v tasklist.View) {
	fmt.Fprintln(w, Separator)
	fmt.Fprintf(w, "Page %d of %d (%s)\n", v.Page, v.TotalPages, plural(v.Total, "task"))
	fmt.Fprintln(w, Separator)
}

// FormatPage formats a page header followed by its tasks, numbered across
// the whole list.
func FormatPage(w io.Writer, v tasklist.View) {
	FormatPageHeader(w, v)
	if len(v.Items) == 0 {
		fmt.Fprintln(w, "no tasks found")
		return
	}
	for i, task := range v.Items {
		FormatTask(w, v.Offset+i+1, task)
	}
}

// FormatTaskDetail formats every field of a task.
func FormatTaskDetail(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "#%d %s\n", num, normalizeTitle(task.Title))
	fmt.Fprintf(w, "  id:          %s\n", task.ID)
	fmt.Fprintf(w, "  priority:    %s\n", task.Priority)
	fmt.Fprintf(w, "  status:      %s\n", task.Status)
	fmt.Fprintf(w, "  description: %s\n", normalizeText(task.Description))
}

// FormatDraft formats the form's current values. target is the id of the
// task being edited, "" for a new task.
func FormatDraft(w io.Writer, target string, d service.Draft) {
	if target == "" {
		fmt.Fprintln(w, "New task")
	} else {
		fmt.Fprintf(w, "Editing task %s\n", target)
	}
	fmt.Fprintf(w, "  title:       %s\n", normalizeText(d.Title))
	fmt.Fprintf(w, "  description: %s\n", normalizeText(d.Description))
	fmt.Fprintf(w, "  priority:    %s\n", d.Priority)
	fmt.Fprintf(w, "  status:      %s\n", d.Status)
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = oneLine(title)
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

func normalizeText(s string) string {
	s = oneLine(s)
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
