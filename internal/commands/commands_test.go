package commands_test

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"taskmgr/internal/commands"
	"taskmgr/internal/config"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/service"
	"taskmgr/internal/session"
	"taskmgr/internal/testutil"
)

// newEnv returns an env with a logged-in in-memory session over svc.
func newEnv(t *testing.T, svc *testutil.FakeBackend, quiet bool) *commands.Env {
	t.Helper()
	return &commands.Env{
		Config:  &config.Config{Dir: t.TempDir(), Quiet: quiet, Timeout: config.DefaultTimeout},
		Session: session.NewMemoryStore("abc"),
		Backend: svc,
	}
}

// runCommand is a helper to run a command against env.
func runCommand(t *testing.T, cmd commands.Command, env *commands.Env, args []string) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer
	code = cmd.Run(context.Background(), env, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

// newFlagSet registers cmd's flags the way the dispatcher does.
func newFlagSet(cmd commands.Command) *flag.FlagSet {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cmd.RegisterFlags(fs)
	return fs
}

func seed(svc *testutil.FakeBackend, n int) {
	for i := 1; i <= n; i++ {
		svc.AddTask(fmt.Sprint(i), fmt.Sprintf("Task %d", i))
	}
}

// Tests for version command
func TestVersionCommand(t *testing.T) {
	cmd := &commands.VersionCmd{}

	stdout, stderr, code := runCommand(t, cmd, newEnv(t, nil, false), nil)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "taskmgr 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
}

// Tests for help command
func TestHelpCommand(t *testing.T) {
	cmd := &commands.HelpCmd{}

	stdout, stderr, code := runCommand(t, cmd, newEnv(t, nil, false), nil)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("help output should contain 'Usage:'")
	}
}

// Every registered command appears in help.
func TestHelpCommand_ListsAllCommands(t *testing.T) {
	stdout, _, _ := runCommand(t, &commands.HelpCmd{}, newEnv(t, nil, false), nil)
	for _, cmd := range commands.DefaultRegistry.All() {
		if !strings.Contains(stdout, "taskmgr "+cmd.Name()) {
			t.Errorf("help does not mention %q", cmd.Name())
		}
	}
}

// Tests for config command
func TestConfigCommand(t *testing.T) {
	env := newEnv(t, nil, false)
	env.Config.APIURL = "http://localhost:5000/api"
	env.Config.Dir = "/tmp/taskmgr-test"

	stdout, stderr, code := runCommand(t, &commands.ConfigCmd{}, env, nil)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	var got map[string]any
	if err := yaml.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, stdout)
	}
	want := map[string]any{
		"dir":                "/tmp/taskmgr-test",
		"api_url":            "http://localhost:5000/api",
		"timeout":            "30s",
		"reload_after_write": false,
		"logged_in":          true,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: expected %v, got %v", k, v, got[k])
		}
	}
}

// Tests for list command
func TestListCommand_FirstPage(t *testing.T) {
	svc := testutil.NewFakeBackend()
	seed(svc, 2)

	cmd := &commands.ListCmd{}
	cmd.SetPage(1)
	stdout, stderr, code := runCommand(t, cmd, newEnv(t, svc, false), nil)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}

	expected := "------------\nPage 1 of 1 (2 tasks)\n------------\n" +
		"   1  Task 1 [Medium, Pending]\n   2  Task 2 [Medium, Pending]\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestListCommand_Empty(t *testing.T) {
	cmd := &commands.ListCmd{}
	cmd.SetPage(1)
	stdout, _, code := runCommand(t, cmd, newEnv(t, testutil.NewFakeBackend(), false), nil)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	expected := "------------\nPage 1 of 1 (0 tasks)\n------------\nno tasks found\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestListCommand_SecondPageOfTwelve(t *testing.T) {
	svc := testutil.NewFakeBackend()
	seed(svc, 12)

	cmd := &commands.ListCmd{}
	cmd.SetPage(2)
	stdout, _, code := runCommand(t, cmd, newEnv(t, svc, false), nil)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	testutil.GoldenString(t, "list_page2", stdout)
}

func TestListCommand_PageBeyondEndClamps(t *testing.T) {
	svc := testutil.NewFakeBackend()
	seed(svc, 6)

	cmd := &commands.ListCmd{}
	cmd.SetPage(9)
	stdout, _, _ := runCommand(t, cmd, newEnv(t, svc, false), nil)

	if !strings.Contains(stdout, "Page 2 of 2") || !strings.Contains(stdout, "   6  Task 6") {
		t.Errorf("expected last page, got %q", stdout)
	}
}

func TestListCommand_InvalidPage(t *testing.T) {
	cmd := &commands.ListCmd{}
	cmd.SetPage(0)
	_, stderr, code := runCommand(t, cmd, newEnv(t, testutil.NewFakeBackend(), false), nil)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: invalid page number: 0\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestListCommand_BackendFailure(t *testing.T) {
	svc := testutil.NewFakeBackend()
	svc.ListErr = service.NewAPIError(500, "Failed to fetch tasks.", nil)

	cmd := &commands.ListCmd{}
	cmd.SetPage(1)
	stdout, stderr, code := runCommand(t, cmd, newEnv(t, svc, false), nil)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if stderr != "error: Failed to fetch tasks.\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestListCommand_SessionRejected(t *testing.T) {
	svc := testutil.NewFakeBackend()
	svc.ListErr = service.NewAPIError(401, "jwt expired", service.ErrUnauthorized)

	cmd := &commands.ListCmd{}
	cmd.SetPage(1)
	_, stderr, code := runCommand(t, cmd, newEnv(t, svc, false), nil)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stderr != "error: jwt expired\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for add command
func TestAddCommand_Success(t *testing.T) {
	svc := testutil.NewFakeBackend()
	cmd := &commands.AddCmd{}
	fs := newFlagSet(cmd)
	if err := fs.Parse([]string{"--description", "2%", "--priority", "Low", "Buy", "milk"}); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, code := runCommand(t, cmd, newEnv(t, svc, false), fs.Args())

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}
	tasks := svc.Tasks()
	want := service.Draft{Title: "Buy milk", Description: "2%", Priority: service.PriorityLow, Status: service.StatusPending}
	if len(tasks) != 1 || tasks[0].Draft() != want {
		t.Errorf("expected %+v, got %+v", want, tasks)
	}
}

func TestAddCommand_Quiet(t *testing.T) {
	cmd := &commands.AddCmd{}
	fs := newFlagSet(cmd)
	_ = fs.Parse([]string{"-d", "x", "Task"})

	stdout, _, code := runCommand(t, cmd, newEnv(t, testutil.NewFakeBackend(), true), fs.Args())

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected no output in quiet mode, got %q", stdout)
	}
}

func TestAddCommand_NoTitle(t *testing.T) {
	cmd := &commands.AddCmd{}
	newFlagSet(cmd)
	_, stderr, code := runCommand(t, cmd, newEnv(t, testutil.NewFakeBackend(), false), nil)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: title required\n" {
		t.Errorf("expected 'error: title required', got %q", stderr)
	}
}

func TestAddCommand_ValidationSendsNothing(t *testing.T) {
	svc := testutil.NewFakeBackend()
	cmd := &commands.AddCmd{}
	newFlagSet(cmd)

	_, stderr, code := runCommand(t, cmd, newEnv(t, svc, false), []string{"No", "description"})

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: Description is required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if svc.Calls("create") != 0 {
		t.Error("expected no create request")
	}
}

func TestAddCommand_BadPriority(t *testing.T) {
	cmd := &commands.AddCmd{}
	fs := newFlagSet(cmd)
	_ = fs.Parse([]string{"-d", "x", "-p", "urgent", "Task"})

	_, stderr, code := runCommand(t, cmd, newEnv(t, testutil.NewFakeBackend(), false), fs.Args())

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.HasPrefix(stderr, "error: invalid priority: urgent") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestAddCommand_FallbackMessage(t *testing.T) {
	svc := testutil.NewFakeBackend()
	svc.CreateErr = service.NewAPIError(500, "", nil)
	cmd := &commands.AddCmd{}
	fs := newFlagSet(cmd)
	_ = fs.Parse([]string{"-d", "x", "Task"})

	_, stderr, code := runCommand(t, cmd, newEnv(t, svc, false), fs.Args())

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: Failed to create task.\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for edit command
func TestEditCommand_ChangesOnlyGivenFields(t *testing.T) {
	svc := testutil.NewFakeBackend()
	seed(svc, 7)
	cmd := &commands.EditCmd{}
	fs := newFlagSet(cmd)
	_ = fs.Parse([]string{"--description", "updated", "--status", "completed", "7"})

	stdout, stderr, code := runCommand(t, cmd, newEnv(t, svc, false), fs.Args())

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (%s)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}
	got := svc.Tasks()[6]
	if got.Title != "Task 7" || got.Description != "updated" || got.Status != service.StatusCompleted || got.Priority != service.PriorityMedium {
		t.Errorf("unexpected task after edit: %+v", got)
	}
}

func TestEditCommand_NothingToChange(t *testing.T) {
	svc := testutil.NewFakeBackend()
	seed(svc, 1)
	cmd := &commands.EditCmd{}
	newFlagSet(cmd)

	_, _, code := runCommand(t, cmd, newEnv(t, svc, false), []string{"1"})

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if svc.Calls("list") != 0 {
		t.Error("expected no request")
	}
}

func TestEditCommand_NotFoundOnServer(t *testing.T) {
	svc := testutil.NewFakeBackend()
	seed(svc, 1)
	svc.UpdateErr = service.NewAPIError(404, "Task not found", service.ErrNotFound)
	cmd := &commands.EditCmd{}
	fs := newFlagSet(cmd)
	_ = fs.Parse([]string{"--title", "x", "--description", "y", "1"})

	_, stderr, code := runCommand(t, cmd, newEnv(t, svc, false), fs.Args())

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: Task not found\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for done command
func TestDoneCommand_Success(t *testing.T) {
	svc := testutil.NewFakeBackend()
	seed(svc, 2)

	stdout, _, code := runCommand(t, &commands.DoneCmd{}, newEnv(t, svc, false), []string{"2"})

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}
	if svc.Tasks()[1].Status != service.StatusCompleted {
		t.Errorf("expected task 2 completed, got %+v", svc.Tasks()[1])
	}
	if svc.Tasks()[0].Status != service.StatusPending {
		t.Error("task 1 must be untouched")
	}
}

func TestDoneCommand_NoRef(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.DoneCmd{}, newEnv(t, testutil.NewFakeBackend(), false), nil)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task reference required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDoneCommand_InvalidRef(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.DoneCmd{}, newEnv(t, testutil.NewFakeBackend(), false), []string{"abc"})

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: invalid task reference: abc\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDoneCommand_OutOfRange(t *testing.T) {
	svc := testutil.NewFakeBackend()
	seed(svc, 2)

	_, stderr, code := runCommand(t, &commands.DoneCmd{}, newEnv(t, svc, false), []string{"3"})

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: task number out of range: 3\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if svc.Calls("update") != 0 {
		t.Error("expected no update request")
	}
}

// Tests for rm command
func TestRmCommand_Success(t *testing.T) {
	svc := testutil.NewFakeBackend()
	seed(svc, 3)

	stdout, _, code := runCommand(t, &commands.RmCmd{}, newEnv(t, svc, false), []string{"2"})

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}
	tasks := svc.Tasks()
	if len(tasks) != 2 || tasks[0].ID != "1" || tasks[1].ID != "3" {
		t.Errorf("expected task 2 removed, got %+v", tasks)
	}
}

func TestRmCommand_Failure(t *testing.T) {
	svc := testutil.NewFakeBackend()
	seed(svc, 1)
	svc.DeleteErr = service.NetworkError(fmt.Errorf("connection refused"))

	_, stderr, code := runCommand(t, &commands.RmCmd{}, newEnv(t, svc, false), []string{"1"})

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: network error: connection refused\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// Tests for show command
func TestShowCommand(t *testing.T) {
	svc := testutil.NewFakeBackend()
	seed(svc, 2)

	stdout, _, code := runCommand(t, &commands.ShowCmd{}, newEnv(t, svc, false), []string{"2"})

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	expected := "#2 Task 2\n  id:          2\n  priority:    Medium\n  status:      Pending\n  description: -\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

// Tests for the guard
func TestGuard_NoSession(t *testing.T) {
	svc := testutil.NewFakeBackend()
	env := newEnv(t, svc, false)
	env.Session = session.NewMemoryStore("")

	cmd := commands.Guard(&commands.ListCmd{})
	stdout, stderr, code := runCommand(t, cmd, env, nil)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if stderr != "Loading...\nerror: not logged in (run: taskmgr login)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if svc.Calls("list") != 0 {
		t.Error("guarded command must not run")
	}
	if commands.Guard(cmd) != cmd {
		t.Error("guarding twice should not wrap again")
	}
}
