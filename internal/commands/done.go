package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskmgr/internal/exitcode"
	"taskmgr/internal/service"
	"taskmgr/internal/tasklist"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return nil }
func (c *DoneCmd) Synopsis() string  { return "Mark a task completed" }
func (c *DoneCmd) Usage() string     { return "taskmgr done <n>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	tasks := env.Tasks()
	task, code, ok := loadTaskRef(ctx, tasks, args, errOut)
	if !ok {
		return code
	}

	if task.Status != service.StatusCompleted {
		draft := task.Draft()
		draft.Status = service.StatusCompleted
		if _, err := tasks.Apply(ctx, tasklist.Update{ID: task.ID, Draft: draft}); err != nil {
			return report(errOut, err, "Failed to update task.")
		}
	}

	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
