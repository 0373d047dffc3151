package commands

import (
	"context"
	"flag"
	"io"

	"taskmgr/internal/exitcode"
	"taskmgr/internal/output"
)

func init() {
	Register(&ShowCmd{})
}

// ShowCmd implements the show command.
type ShowCmd struct{}

func (c *ShowCmd) Name() string      { return "show" }
func (c *ShowCmd) Aliases() []string { return nil }
func (c *ShowCmd) Synopsis() string  { return "Print one task in full" }
func (c *ShowCmd) Usage() string     { return "taskmgr show <n>" }
func (c *ShowCmd) NeedsAuth() bool   { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShowCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	task, code, ok := loadTaskRef(ctx, env.Tasks(), args, errOut)
	if !ok {
		return code
	}
	num, _ := ParseTaskRef(args)
	output.FormatTaskDetail(out, num, task)
	return exitcode.Success
}
