// Package tasklist keeps a screen's local copy of the task list in step with
// the server and derives the paginated view of it.
package tasklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"taskmgr/internal/service"
)

// PageSize is the number of tasks shown per page.
const PageSize = 5

var (
	// ErrBusy is returned when another operation is still in flight.
	ErrBusy = errors.New("another request is still in progress")

	// ErrNoEditTarget is returned for an Update that names no task.
	ErrNoEditTarget = errors.New("no task is being edited")

	// ErrTaskIDRequired is returned for a Delete that names no task.
	ErrTaskIDRequired = errors.New("task id required")
)

// State is the synchronizer's lifecycle state.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Mutation is a write applied through the synchronizer: Create or Update.
// The mode is always explicit in the value, never inferred from UI state.
type Mutation interface {
	mutation()
}

// Create adds a new task built from Draft.
type Create struct {
	Draft service.Draft
}

// Update replaces the editable fields of task ID with Draft.
type Update struct {
	ID    string
	Draft service.Draft
}

func (Create) mutation() {}
func (Update) mutation() {}

// normalize resolves pointer forms to values and rejects anything else.
func normalize(m Mutation) (Mutation, error) {
	switch v := m.(type) {
	case Create, Update:
		return v, nil
	case *Create:
		if v != nil {
			return *v, nil
		}
	case *Update:
		if v != nil {
			return *v, nil
		}
	case nil:
		return nil, errors.New("nil mutation")
	}
	return nil, fmt.Errorf("unsupported mutation %T", m)
}

// Synchronizer mirrors the server's task list for one screen.
// Local state changes only after the server confirms a write.
type Synchronizer struct {
	svc    service.Service
	logger *slog.Logger

	// ReloadAfterWrite re-fetches the full list after each successful
	// mutation instead of patching the local copy.
	ReloadAfterWrite bool

	mu    sync.Mutex
	tasks []service.Task
	state State
	err   error
	busy  bool
	page  int
}

// New creates a synchronizer in the Idle state.
func New(svc service.Service, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Synchronizer{
		svc:    svc,
		logger: logger.With("component", "tasklist"),
		page:   1,
	}
}

// Load fetches all tasks and replaces the local list. On failure the list
// is emptied and the synchronizer enters Failed.
func (s *Synchronizer) Load(ctx context.Context) error {
	if err := s.begin(Loading); err != nil {
		return err
	}
	tasks, err := s.svc.ListTasks(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if err != nil {
		s.tasks = nil
		s.fail(err)
		return err
	}
	s.tasks = tasks
	s.page = 1
	s.ready()
	s.logger.Debug("loaded", "count", len(tasks))
	return nil
}

// Apply performs m against the server and mirrors the confirmed result.
// On failure the local list is left unchanged.
func (s *Synchronizer) Apply(ctx context.Context, m Mutation) (service.Task, error) {
	m, err := normalize(m)
	if err != nil {
		return service.Task{}, err
	}
	if u, ok := m.(Update); ok && u.ID == "" {
		return service.Task{}, ErrNoEditTarget
	}
	if err := s.begin(s.currentState()); err != nil {
		return service.Task{}, err
	}

	var task service.Task
	switch m := m.(type) {
	case Create:
		task, err = s.svc.CreateTask(ctx, m.Draft)
	case Update:
		task, err = s.svc.UpdateTask(ctx, m.ID, m.Draft)
	}

	s.mu.Lock()
	if err != nil {
		s.busy = false
		s.fail(err)
		s.mu.Unlock()
		return service.Task{}, err
	}
	switch m := m.(type) {
	case Create:
		s.tasks = append(s.tasks, task)
	case Update:
		s.replace(m.ID, task)
	}
	s.clampPage()
	s.ready()
	s.busy = false
	s.mu.Unlock()

	s.logger.Debug("applied", "mutation", fmt.Sprintf("%T", m), "id", task.ID)
	return task, s.reloadIfConfigured(ctx)
}

// Delete removes task id on the server and then locally.
func (s *Synchronizer) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrTaskIDRequired
	}
	if err := s.begin(s.currentState()); err != nil {
		return err
	}
	err := s.svc.DeleteTask(ctx, id)

	s.mu.Lock()
	if err != nil {
		s.busy = false
		s.fail(err)
		s.mu.Unlock()
		return err
	}
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
			break
		}
	}
	s.clampPage()
	s.ready()
	s.busy = false
	s.mu.Unlock()

	s.logger.Debug("deleted", "id", id)
	return s.reloadIfConfigured(ctx)
}

// Tasks returns a copy of the local list.
func (s *Synchronizer) Tasks() []service.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]service.Task(nil), s.tasks...)
}

// Find returns the local task with the given id.
func (s *Synchronizer) Find(id string) (service.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// At returns the task at 1-based position n of the full list.
func (s *Synchronizer) At(n int) (service.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 || n > len(s.tasks) {
		return service.Task{}, fmt.Errorf("task number out of range: %d", n)
	}
	return s.tasks[n-1], nil
}

// State returns the current lifecycle state.
func (s *Synchronizer) State() State {
	return s.currentState()
}

// Err returns the error of the last failed operation, nil once a later
// operation succeeds.
func (s *Synchronizer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Busy reports whether an operation is in flight.
func (s *Synchronizer) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// CurrentPage returns the selected 1-based page.
func (s *Synchronizer) CurrentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// SetPage selects page n, clamped to [1, TotalPages]. No network call.
func (s *Synchronizer) SetPage(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = n
	s.clampPage()
	return s.page
}

// View returns the selected page.
func (s *Synchronizer) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Paginate(s.tasks, s.page)
}

func (s *Synchronizer) currentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// begin marks an operation in flight, entering next.
func (s *Synchronizer) begin(next State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	s.state = next
	return nil
}

// fail records err. Caller holds mu.
func (s *Synchronizer) fail(err error) {
	s.state = Failed
	s.err = err
	s.logger.Debug("operation failed", "err", err)
}

// ready marks success. Caller holds mu.
func (s *Synchronizer) ready() {
	s.state = Ready
	s.err = nil
}

// replace swaps the task with the given id. Caller holds mu.
func (s *Synchronizer) replace(id string, task service.Task) {
	for i, t := range s.tasks {
		if t.ID == id {
			s.tasks[i] = task
			return
		}
	}
}

// clampPage keeps page within [1, TotalPages]. Caller holds mu.
func (s *Synchronizer) clampPage() {
	total := TotalPages(len(s.tasks))
	if s.page > total {
		s.page = total
	}
	if s.page < 1 {
		s.page = 1
	}
}

func (s *Synchronizer) reloadIfConfigured(ctx context.Context) error {
	if !s.ReloadAfterWrite {
		return nil
	}
	page := s.CurrentPage()
	if err := s.Load(ctx); err != nil {
		return fmt.Errorf("reload after write: %w", err)
	}
	s.SetPage(page)
	return nil
}
