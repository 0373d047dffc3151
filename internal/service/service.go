// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the task operations of the remote API.
// All task requests carry the session's bearer token; commands never
// talk HTTP directly.
type Service interface {
	// ListTasks returns every task of the current session in server order.
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask creates a task and returns it with its server-assigned ID.
	CreateTask(ctx context.Context, draft Draft) (Task, error)

	// UpdateTask replaces the editable fields of the task with the given ID.
	UpdateTask(ctx context.Context, id string, draft Draft) (Task, error)

	// DeleteTask deletes the task with the given ID.
	DeleteTask(ctx context.Context, id string) error
}

// Auth defines the unauthenticated account operations.
type Auth interface {
	// Login exchanges credentials for a session token.
	Login(ctx context.Context, email, password string) (string, error)

	// Register creates a new account.
	Register(ctx context.Context, name, email, password string) (Account, error)
}

// Backend is a remote API offering both account and task operations.
type Backend interface {
	Auth
	Service
}
