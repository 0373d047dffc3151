package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskmgr/internal/exitcode"
	"taskmgr/internal/taskform"
)

func init() {
	Register(&EditCmd{})
}

// optString is a string flag that records whether it was given.
type optString struct {
	value string
	set   bool
}

func (o *optString) String() string { return o.value }

func (o *optString) Set(s string) error {
	o.value = s
	o.set = true
	return nil
}

// EditCmd implements the edit command.
type EditCmd struct {
	title       optString
	description optString
	priority    optString
	status      optString
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return []string{"update"} }
func (c *EditCmd) Synopsis() string  { return "Change a task's fields" }
func (c *EditCmd) Usage() string {
	return "taskmgr edit [--title <t>] [--description <d>] [--priority <p>] [--status <s>] <n>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	*c = EditCmd{}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.title, "t", "")
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
	fs.Var(&c.priority, "priority", "")
	fs.Var(&c.priority, "p", "")
	fs.Var(&c.status, "status", "")
	fs.Var(&c.status, "s", "")
}

func (c *EditCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	changes := []struct {
		field string
		opt   optString
	}{
		{"title", c.title},
		{"description", c.description},
		{"priority", c.priority},
		{"status", c.status},
	}
	changed := false
	for _, ch := range changes {
		changed = changed || ch.opt.set
	}
	if !changed {
		fmt.Fprintln(errOut, "error: nothing to change (use --title, --description, --priority or --status)")
		return exitcode.UserError
	}

	tasks := env.Tasks()
	task, code, ok := loadTaskRef(ctx, tasks, args, errOut)
	if !ok {
		return code
	}

	form := taskform.New()
	form.Edit(task)
	for _, ch := range changes {
		if !ch.opt.set {
			continue
		}
		if err := form.Set(ch.field, ch.opt.value); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	}

	if _, err := form.Submit(ctx, tasks); err != nil {
		return report(errOut, err, "Failed to update task.")
	}

	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
