package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"taskmgr/internal/exitcode"
	"taskmgr/internal/output"
	"taskmgr/internal/taskform"
	"taskmgr/internal/tasklist"
)

func init() {
	Register(&ShellCmd{})
}

// ShellCmd implements the interactive task screen: one task list and one
// form, driven by line commands.
type ShellCmd struct{}

func (c *ShellCmd) Name() string      { return "shell" }
func (c *ShellCmd) Aliases() []string { return []string{"tasks"} }
func (c *ShellCmd) Synopsis() string  { return "Interactive task screen" }
func (c *ShellCmd) Usage() string     { return "taskmgr shell [common flags]" }
func (c *ShellCmd) NeedsAuth() bool   { return true }

func (c *ShellCmd) RegisterFlags(fs *flag.FlagSet) {}

// screen is the state of one shell session.
type screen struct {
	env   *Env
	tasks *tasklist.Synchronizer
	form  *taskform.Form
	out   io.Writer
	err   io.Writer
}

func (c *ShellCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	in := env.In
	if in == nil {
		in = os.Stdin
	}
	s := &screen{
		env:   env,
		tasks: env.Tasks(),
		form:  taskform.New(),
		out:   out,
		err:   errOut,
	}

	s.reload(ctx)

	scanner := bufio.NewScanner(in)
	for {
		// A session may end mid-screen (logout elsewhere, 401 from the server).
		if code, ok := checkSession(env, errOut); !ok {
			return code
		}
		if ctx.Err() != nil {
			return exitcode.Success
		}
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			if err := scanner.Err(); err != nil {
				fmt.Fprintf(errOut, "error: %v\n", err)
				return exitcode.UserError
			}
			return exitcode.Success
		}
		if quit := s.exec(ctx, scanner.Text()); quit {
			return exitcode.Success
		}
	}
}

// exec runs one input line and reports whether the screen should close.
func (s *screen) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, rest := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprint(s.out, shellHelp)
	case "list", "ls":
		s.show()
	case "reload":
		s.reload(ctx)
	case "page":
		n, ok := s.number(rest)
		if ok {
			s.tasks.SetPage(n)
			s.show()
		}
	case "next":
		s.tasks.SetPage(s.tasks.CurrentPage() + 1)
		s.show()
	case "prev":
		s.tasks.SetPage(s.tasks.CurrentPage() - 1)
		s.show()
	case "new":
		s.form.Cancel()
		s.showForm()
	case "edit":
		if n, ok := s.number(rest); ok {
			task, err := s.tasks.At(n)
			if err != nil {
				fmt.Fprintf(s.err, "error: %v\n", err)
				break
			}
			s.form.Edit(task)
			s.showForm()
		}
	case "set":
		if len(rest) < 1 {
			fmt.Fprintf(s.err, "error: usage: set <%s> <value>\n", strings.Join(taskform.Fields, "|"))
			break
		}
		if err := s.form.Set(rest[0], strings.Join(rest[1:], " ")); err != nil {
			fmt.Fprintf(s.err, "error: %v\n", err)
		}
	case "form":
		s.showForm()
	case "cancel":
		s.form.Cancel()
		s.say("cancelled")
	case "reset":
		s.form.Reset()
		s.showForm()
	case "save":
		s.save(ctx)
	case "rm", "delete":
		if n, ok := s.number(rest); ok {
			s.remove(ctx, n)
		}
	default:
		fmt.Fprintf(s.err, "error: unknown command: %s (try: help)\n", cmd)
	}
	return false
}

func (s *screen) reload(ctx context.Context) {
	if err := s.tasks.Load(ctx); err != nil {
		report(s.err, err, "Failed to fetch tasks.")
		return
	}
	s.show()
}

func (s *screen) save(ctx context.Context) {
	fallback := "Failed to create task."
	if s.form.Editing() {
		fallback = "Failed to update task."
	}
	if _, err := s.form.Submit(ctx, s.tasks); err != nil {
		report(s.err, err, fallback)
		return
	}
	s.say("saved")
	s.show()
}

func (s *screen) remove(ctx context.Context, n int) {
	task, err := s.tasks.At(n)
	if err != nil {
		fmt.Fprintf(s.err, "error: %v\n", err)
		return
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		report(s.err, err, "Failed to delete task.")
		return
	}
	if s.form.Target() == task.ID {
		s.form.Cancel()
	}
	s.say("deleted")
	s.show()
}

func (s *screen) number(args []string) (int, bool) {
	if len(args) != 1 {
		fmt.Fprintln(s.err, "error: number required")
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
	if err != nil || n < 1 {
		fmt.Fprintf(s.err, "error: invalid number: %s\n", args[0])
		return 0, false
	}
	return n, true
}

func (s *screen) show() {
	output.FormatPage(s.out, s.tasks.View())
}

func (s *screen) showForm() {
	output.FormatDraft(s.out, s.form.Target(), s.form.Draft())
}

func (s *screen) say(msg string) {
	if !s.env.Config.Quiet {
		fmt.Fprintln(s.out, msg)
	}
}

const shellHelp = `Commands:
  list                  Show the current page
  page <n> | next | prev
  reload                Fetch the task list again
  new                   Start a new task in the form
  edit <n>              Load task <n> into the form
  set <field> <value>   Set title, description, priority or status
  form                  Show the form
  save                  Create or update the task in the form
  cancel                Leave edit mode and clear the form
  reset                 Restore the form defaults
  rm <n>                Delete task <n>
  quit
`
