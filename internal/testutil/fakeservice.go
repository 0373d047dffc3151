// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"taskmgr/internal/service"
)

// FakeBackend is an in-memory implementation of service.Backend for testing.
// Its task list stands in for the server's state.
type FakeBackend struct {
	mu       sync.RWMutex
	tasks    []service.Task
	accounts map[string]fakeAccount // email -> account
	calls    map[string]int

	// Token is returned by a successful Login.
	Token string

	// Error injection for testing
	LoginErr    error
	RegisterErr error
	ListErr     error
	CreateErr   error
	UpdateErr   error
	DeleteErr   error
}

type fakeAccount struct {
	name     string
	password string
}

// NewFakeBackend creates an empty FakeBackend that issues token "abc".
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		accounts: make(map[string]fakeAccount),
		calls:    make(map[string]int),
		Token:    "abc",
	}
}

// AddAccount registers credentials accepted by Login.
func (f *FakeBackend) AddAccount(name, email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[strings.ToLower(email)] = fakeAccount{name: name, password: password}
}

// AddTask stores a task directly and returns it.
func (f *FakeBackend) AddTask(id, title string) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{
		ID:       id,
		Title:    title,
		Priority: service.PriorityMedium,
		Status:   service.StatusPending,
	}
	f.tasks = append(f.tasks, t)
	return t
}

// Tasks returns a copy of the server-side task list.
func (f *FakeBackend) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]service.Task(nil), f.tasks...)
}

// Calls returns how many times the named operation was invoked.
func (f *FakeBackend) Calls(op string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.calls[op]
}

func (f *FakeBackend) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

// Login implements service.Auth.
func (f *FakeBackend) Login(ctx context.Context, email, password string) (string, error) {
	f.record("login")
	if f.LoginErr != nil {
		return "", f.LoginErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	acct, ok := f.accounts[strings.ToLower(email)]
	if !ok || acct.password != password {
		return "", service.NewAPIError(401, "Invalid credentials", nil)
	}
	return f.Token, nil
}

// Register implements service.Auth.
func (f *FakeBackend) Register(ctx context.Context, name, email, password string) (service.Account, error) {
	f.record("register")
	if f.RegisterErr != nil {
		return service.Account{}, f.RegisterErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.ToLower(email)
	if _, exists := f.accounts[key]; exists {
		return service.Account{}, service.NewAPIError(409, "User already exists", nil)
	}
	f.accounts[key] = fakeAccount{name: name, password: password}
	return service.Account{ID: uuid.NewString(), Name: name, Email: email, Message: "User registered successfully"}, nil
}

// ListTasks implements service.Service.
func (f *FakeBackend) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.record("list")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.Tasks(), nil
}

// CreateTask implements service.Service.
func (f *FakeBackend) CreateTask(ctx context.Context, draft service.Draft) (service.Task, error) {
	f.record("create")
	if f.CreateErr != nil {
		return service.Task{}, f.CreateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Priority:    draft.Priority,
		Status:      draft.Status,
	}
	f.tasks = append(f.tasks, t)
	return t, nil
}

// UpdateTask implements service.Service.
func (f *FakeBackend) UpdateTask(ctx context.Context, id string, draft service.Draft) (service.Task, error) {
	f.record("update")
	if f.UpdateErr != nil {
		return service.Task{}, f.UpdateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks[i] = service.Task{
				ID:          id,
				Title:       draft.Title,
				Description: draft.Description,
				Priority:    draft.Priority,
				Status:      draft.Status,
			}
			return f.tasks[i], nil
		}
	}
	return service.Task{}, service.NewAPIError(404, "Task not found", service.ErrNotFound)
}

// DeleteTask implements service.Service.
func (f *FakeBackend) DeleteTask(ctx context.Context, id string) error {
	f.record("delete")
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return service.NewAPIError(404, "Task not found", service.ErrNotFound)
}
