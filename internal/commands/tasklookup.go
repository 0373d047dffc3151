package commands

import (
	"context"
	"fmt"
	"io"

	"taskmgr/internal/exitcode"
	"taskmgr/internal/service"
	"taskmgr/internal/tasklist"
)

// loadTaskRef parses args as a task number, loads the list into sync and
// returns the referenced task. On failure it reports to errOut and returns
// the exit code with ok=false.
func loadTaskRef(ctx context.Context, sync *tasklist.Synchronizer, args []string, errOut io.Writer) (service.Task, int, bool) {
	num, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.Task{}, exitcode.UserError, false
	}
	if err := sync.Load(ctx); err != nil {
		return service.Task{}, report(errOut, err, "Failed to fetch tasks."), false
	}
	task, err := sync.At(num)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.Task{}, exitcode.UserError, false
	}
	return task, exitcode.Success, true
}
