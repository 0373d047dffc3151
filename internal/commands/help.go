package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskmgr/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskmgr help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskmgr                                            List the first page of tasks
  taskmgr list [common flags] [--page <n>]           List a page of tasks (5 per page)
  taskmgr add [common flags] [--description <d>] [--priority <p>] [--status <s>] <title...>
  taskmgr edit [common flags] [--title <t>] [--description <d>] [--priority <p>] [--status <s>] <n>
  taskmgr done [common flags] <n>
  taskmgr rm [common flags] <n>
  taskmgr show [common flags] <n>
  taskmgr shell [common flags]                       Interactive task screen
  taskmgr register [common flags] --name <name> --email <email> --password <password>
  taskmgr login [common flags] --email <email> --password <password>
  taskmgr logout [common flags]
  taskmgr config [common flags]
  taskmgr help
  taskmgr version

Task numbers <n> count across pages as printed by list.
Priorities: High, Medium, Low. Statuses: Pending, In Progress, Completed.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
