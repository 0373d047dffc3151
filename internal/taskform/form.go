// Package taskform holds the task being created or edited and submits it
// through a tasklist.Synchronizer.
package taskform

import (
	"context"
	"fmt"
	"strings"

	"taskmgr/internal/service"
	"taskmgr/internal/tasklist"
	"taskmgr/internal/validate"
)

// Fields lists the settable field names in display order.
var Fields = []string{"title", "description", "priority", "status"}

// Form is a task draft plus an optional edit target.
type Form struct {
	draft  service.Draft
	target string
}

// New returns an empty form in create mode.
func New() *Form {
	return &Form{draft: service.NewDraft()}
}

// Draft returns the current field values.
func (f *Form) Draft() service.Draft { return f.draft }

// Target returns the id of the task being edited, "" in create mode.
func (f *Form) Target() string { return f.target }

// Editing reports whether the form is in edit mode.
func (f *Form) Editing() bool { return f.target != "" }

// Edit loads t into the form and switches to edit mode.
func (f *Form) Edit(t service.Task) {
	f.draft = t.Draft()
	f.target = t.ID
}

// Cancel leaves edit mode and clears the fields.
func (f *Form) Cancel() {
	f.target = ""
	f.Reset()
}

// Reset restores the default field values, keeping the edit target.
func (f *Form) Reset() {
	f.draft = service.NewDraft()
}

// Set assigns one field by name. Priority and status are matched
// case-insensitively against the known values.
func (f *Form) Set(field, value string) error {
	switch strings.ToLower(field) {
	case "title":
		f.draft.Title = value
	case "description", "desc":
		f.draft.Description = value
	case "priority":
		p, err := service.ParsePriority(value)
		if err != nil {
			return err
		}
		f.draft.Priority = p
	case "status":
		s, err := service.ParseStatus(value)
		if err != nil {
			return err
		}
		f.draft.Status = s
	default:
		return fmt.Errorf("unknown field: %s (want %s)", field, strings.Join(Fields, ", "))
	}
	return nil
}

// Validate checks the draft: title and description are required, priority
// and status must be known values.
func (f *Form) Validate() error {
	var c validate.Checker
	c.Required("title", "Title", f.draft.Title)
	c.Required("description", "Description", f.draft.Description)
	c.OneOf("priority", "Priority", string(f.draft.Priority), names(service.Priorities))
	c.OneOf("status", "Status", string(f.draft.Status), names(service.Statuses))
	return c.Err()
}

// Mutation returns the write the form represents.
func (f *Form) Mutation() tasklist.Mutation {
	if f.target != "" {
		return tasklist.Update{ID: f.target, Draft: f.draft}
	}
	return tasklist.Create{Draft: f.draft}
}

// Submit validates and applies the form through sync. On success the form
// returns to an empty create mode; on failure it is left as it was.
func (f *Form) Submit(ctx context.Context, sync *tasklist.Synchronizer) (service.Task, error) {
	if err := f.Validate(); err != nil {
		return service.Task{}, err
	}
	task, err := sync.Apply(ctx, f.Mutation())
	if task.ID != "" {
		// The write landed even if a follow-up reload failed.
		f.Cancel()
	}
	return task, err
}

func names[T ~string](vals []T) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = string(v)
	}
	return out
}
