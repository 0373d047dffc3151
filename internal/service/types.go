package service

import (
	"fmt"
	"strings"
)

// Priority is a task's priority level.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Priorities lists the known priorities in display order.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Status is a task's progress state.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists the known statuses in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// Task is the client's cached copy of a server-owned task.
// ID is assigned by the server and normalized to a string.
type Task struct {
	ID          string
	Title       string
	Description string
	Priority    Priority
	Status      Status
}

// Draft holds a task's editable fields without an identifier.
type Draft struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`
}

// NewDraft returns a draft with the form defaults (Medium, Pending).
func NewDraft() Draft {
	return Draft{Priority: PriorityMedium, Status: StatusPending}
}

// Draft returns the editable fields of t.
func (t Task) Draft() Draft {
	return Draft{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
	}
}

// Account is the payload returned by a successful registration.
type Account struct {
	ID      string
	Name    string
	Email   string
	Message string
}

// ParsePriority matches s case-insensitively against the known priorities.
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid priority: %s (want High, Medium or Low)", s)
}

// ParseStatus matches s case-insensitively against the known statuses.
// "in-progress" and "in_progress" are accepted for "In Progress".
func ParseStatus(s string) (Status, error) {
	norm := strings.NewReplacer("-", " ", "_", " ").Replace(strings.TrimSpace(s))
	for _, st := range Statuses {
		if strings.EqualFold(norm, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status: %s (want Pending, In Progress or Completed)", s)
}
