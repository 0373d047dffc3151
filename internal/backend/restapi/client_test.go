package restapi_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"taskmgr/internal/backend/restapi"
	"taskmgr/internal/service"
	"taskmgr/internal/session"
	"taskmgr/internal/testutil"
)

const (
	testEmail    = "a@b.com"
	testPassword = "secret1"
)

// newClient returns a client for api with an empty in-memory session.
func newClient(t *testing.T, api *testutil.FakeAPI) (*restapi.Client, *session.Store) {
	t.Helper()
	store := session.NewMemoryStore("")
	c, err := restapi.NewWithTransport(api.BaseURL(), 5*time.Second, store, nil, nil)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c, store
}

// loggedIn returns a client whose session holds a valid token for testEmail.
func loggedIn(t *testing.T, api *testutil.FakeAPI) (*restapi.Client, *session.Store) {
	t.Helper()
	api.AddUser(t, "Alice", testEmail, testPassword)
	c, store := newClient(t, api)
	tok, err := c.Login(context.Background(), testEmail, testPassword)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := store.Save(tok); err != nil {
		t.Fatalf("failed to save token: %v", err)
	}
	return c, store
}

func TestLogin_Success(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.AddUser(t, "Alice", testEmail, testPassword)
	c, _ := newClient(t, api)

	tok, err := c.Login(context.Background(), testEmail, testPassword)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok == "" {
		t.Error("expected a token")
	}
	if api.LastRequestID() == "" {
		t.Error("expected X-Request-Id header to be sent")
	}
}

func TestLogin_InvalidCredentialsUsesServerMessage(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.AddUser(t, "Alice", testEmail, testPassword)
	c, store := newClient(t, api)
	if err := store.Save("previous"); err != nil {
		t.Fatal(err)
	}

	_, err := c.Login(context.Background(), testEmail, "wrong-password")

	var apiErr *service.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Message != "Invalid credentials" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
	if errors.Is(err, service.ErrUnauthorized) {
		t.Error("a failed login must not be reported as an expired session")
	}
	if !store.Active() {
		t.Error("a failed login must not clear the existing session")
	}
}

func TestRegister_Success(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	c, _ := newClient(t, api)

	acct, err := c.Register(context.Background(), "Alice", testEmail, testPassword)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acct.Email != testEmail || acct.Name != "Alice" {
		t.Errorf("unexpected account: %+v", acct)
	}
	if acct.ID == "" {
		t.Error("expected numeric user id to be normalized to a string")
	}
	if acct.Message != "User registered successfully" {
		t.Errorf("unexpected message %q", acct.Message)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.AddUser(t, "Alice", testEmail, testPassword)
	c, _ := newClient(t, api)

	_, err := c.Register(context.Background(), "Alice", testEmail, testPassword)
	if got := service.Message(err, ""); got != "User already exists" {
		t.Errorf("expected server message, got %q (%v)", got, err)
	}
}

func TestTasks_NoTokenIssuesNoRequest(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	c, _ := newClient(t, api)
	ctx := context.Background()

	if _, err := c.ListTasks(ctx); !errors.Is(err, service.ErrNoToken) {
		t.Errorf("list: expected ErrNoToken, got %v", err)
	}
	if _, err := c.CreateTask(ctx, service.NewDraft()); !errors.Is(err, service.ErrNoToken) {
		t.Errorf("create: expected ErrNoToken, got %v", err)
	}
	if _, err := c.UpdateTask(ctx, "1", service.NewDraft()); !errors.Is(err, service.ErrNoToken) {
		t.Errorf("update: expected ErrNoToken, got %v", err)
	}
	if err := c.DeleteTask(ctx, "1"); !errors.Is(err, service.ErrNoToken) {
		t.Errorf("delete: expected ErrNoToken, got %v", err)
	}
	if api.TaskRequests() != 0 || api.LastRequestID() != "" {
		t.Errorf("expected no network calls, got %d task requests", api.TaskRequests())
	}
}

func TestTasks_ExpiredTokenIssuesNoRequest(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	c, store := newClient(t, api)
	if err := store.Save(api.IssueToken(t, testEmail, time.Now().Add(-time.Minute))); err != nil {
		t.Fatal(err)
	}

	_, err := c.ListTasks(context.Background())
	if !errors.Is(err, service.ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}
	if api.LastRequestID() != "" {
		t.Error("expected no request to be sent")
	}
}

func TestTasks_CRUDRoundTrip(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	c, _ := loggedIn(t, api)
	ctx := context.Background()

	draft := service.Draft{Title: "Buy milk", Description: "2%", Priority: service.PriorityLow, Status: service.StatusPending}
	created, err := c.CreateTask(ctx, draft)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.Title != "Buy milk" || created.Priority != service.PriorityLow {
		t.Fatalf("unexpected created task: %+v", created)
	}

	tasks, err := c.ListTasks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 1 || tasks[0] != created {
		t.Fatalf("expected exactly the created task, got %+v", tasks)
	}

	draft.Status = service.StatusCompleted
	updated, err := c.UpdateTask(ctx, created.ID, draft)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != created.ID || updated.Status != service.StatusCompleted {
		t.Errorf("unexpected updated task: %+v", updated)
	}

	if err := c.DeleteTask(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	tasks, err = c.ListTasks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected empty list after delete, got %+v", tasks)
	}
}

func TestTasks_MongoStyleIDs(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.UseMongoIDs()
	c, _ := loggedIn(t, api)
	ctx := context.Background()

	created, err := c.CreateTask(ctx, service.Draft{Title: "Walk", Description: "dog", Priority: service.PriorityHigh, Status: service.StatusPending})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(created.ID) != 24 {
		t.Fatalf("expected _id to be normalized into ID, got %q", created.ID)
	}
	if _, err := c.UpdateTask(ctx, created.ID, created.Draft()); err != nil {
		t.Errorf("update by _id: %v", err)
	}
	if err := c.DeleteTask(ctx, created.ID); err != nil {
		t.Errorf("delete by _id: %v", err)
	}
}

func TestTasks_NotFound(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	c, _ := loggedIn(t, api)

	err := c.DeleteTask(context.Background(), "999")
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if got := service.Message(err, ""); got != "Task not found" {
		t.Errorf("expected server message, got %q", got)
	}
}

func TestTasks_FallbackMessage(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	c, _ := loggedIn(t, api)
	api.Fail(http.StatusInternalServerError, "")

	_, err := c.CreateTask(context.Background(), service.Draft{Title: "x", Description: "y"})

	var apiErr *service.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "Failed to create task." {
		t.Errorf("expected fallback message, got %q", apiErr.Message)
	}
}

func TestTasks_UnauthorizedClearsSession(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	c, store := loggedIn(t, api)
	api.Fail(http.StatusUnauthorized, "jwt expired")

	_, err := c.ListTasks(context.Background())
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if got := service.Message(err, ""); got != "jwt expired" {
		t.Errorf("expected server message, got %q", got)
	}
	if store.Active() {
		t.Error("expected session to be cleared after a 401")
	}
}

func TestTasks_ForbiddenKeepsSession(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	c, store := loggedIn(t, api)
	api.Fail(http.StatusForbidden, "Not your task")

	err := c.DeleteTask(context.Background(), "1")
	if service.IsAuthError(err) {
		t.Errorf("expected a plain API error for 403, got %v", err)
	}
	if got := service.Message(err, ""); got != "Not your task" {
		t.Errorf("expected server message, got %q", got)
	}
	if !store.Active() {
		t.Error("a 403 must not end the session")
	}
}

func TestTasks_NetworkError(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	c, _ := loggedIn(t, api)
	api.Close()

	_, err := c.ListTasks(context.Background())
	if err == nil {
		t.Fatal("expected error with server down")
	}
	if service.IsAuthError(err) {
		t.Errorf("transport failure must not be reported as an auth error: %v", err)
	}
}

func TestTasks_Timeout(t *testing.T) {
	api := testutil.NewFakeAPI(t)
	api.AddUser(t, "Alice", testEmail, testPassword)
	store := session.NewMemoryStore(api.IssueToken(t, testEmail, time.Now().Add(time.Hour)))
	slow := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		<-r.Context().Done()
		return nil, r.Context().Err()
	})
	c, err := restapi.NewWithTransport(api.BaseURL(), 20*time.Millisecond, store, nil, slow)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.ListTasks(context.Background()); !errors.Is(err, service.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestNewWithTransport_RejectsBadURL(t *testing.T) {
	if _, err := restapi.NewWithTransport("ftp://example.com", time.Second, session.NewMemoryStore(""), nil, nil); err == nil {
		t.Error("expected error for non-http url")
	}
	if _, err := restapi.NewWithTransport("http://example.com", time.Second, nil, nil, nil); err == nil {
		t.Error("expected error for nil session store")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
