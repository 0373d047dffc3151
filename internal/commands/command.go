// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"
	"log/slog"

	"taskmgr/internal/auth"
	"taskmgr/internal/config"
	"taskmgr/internal/service"
	"taskmgr/internal/session"
	"taskmgr/internal/tasklist"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires an active session.
	// Commands like help, version, login, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int
}

// Env is what a command runs against. The dispatcher builds one per
// invocation; Session is the only session store in the process.
type Env struct {
	Config  *config.Config
	Session *session.Store
	Backend service.Backend
	Logger  *slog.Logger

	// In is read by interactive commands.
	In io.Reader
}

// Tasks returns a new synchronizer over the backend, configured from env.
func (e *Env) Tasks() *tasklist.Synchronizer {
	s := tasklist.New(e.Backend, e.logger())
	s.ReloadAfterWrite = e.Config.ReloadAfterWrite
	return s
}

// Auth returns a gateway that stores tokens in env's session.
func (e *Env) Auth() *auth.Gateway {
	return auth.NewGateway(e.Backend, e.Session, e.logger())
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}
