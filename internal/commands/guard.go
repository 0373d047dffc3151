package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"taskmgr/internal/exitcode"
	"taskmgr/internal/service"
)

// LoadingText is shown while the session is being checked.
const LoadingText = "Loading..."

// Guard wraps cmd so that it only runs with an active session. Without
// one it prints the loading placeholder and a login notice instead.
func Guard(cmd Command) Command {
	if g, ok := cmd.(guarded); ok {
		return g
	}
	return guarded{cmd}
}

type guarded struct {
	Command
}

func (g guarded) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if code, ok := checkSession(env, errOut); !ok {
		return code
	}
	return g.Command.Run(ctx, env, args, out, errOut)
}

// checkSession reports whether env has an active session, writing the
// redirect notice to errOut when it does not.
func checkSession(env *Env, errOut io.Writer) (int, bool) {
	if env.Session == nil {
		fmt.Fprintln(errOut, LoadingText)
		fmt.Fprintln(errOut, "error: not logged in (run: taskmgr login)")
		return exitcode.AuthError, false
	}
	_, err := env.Session.Get()
	if err == nil {
		return exitcode.Success, true
	}
	fmt.Fprintln(errOut, LoadingText)
	if errors.Is(err, service.ErrNoToken) {
		fmt.Fprintln(errOut, "error: not logged in (run: taskmgr login)")
	} else {
		fmt.Fprintf(errOut, "error: %v\n", err)
	}
	return exitcode.AuthError, false
}
