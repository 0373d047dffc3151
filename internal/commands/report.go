package commands

import (
	"errors"
	"fmt"
	"io"

	"taskmgr/internal/auth"
	"taskmgr/internal/exitcode"
	"taskmgr/internal/service"
	"taskmgr/internal/tasklist"
	"taskmgr/internal/validate"
)

// report prints err to errOut and returns the matching exit code.
// fallback is used when err carries no message of its own.
func report(errOut io.Writer, err error, fallback string) int {
	var verrs validate.Errors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fmt.Fprintf(errOut, "error: %s\n", fe.Message)
		}
		return exitcode.UserError
	}

	fmt.Fprintf(errOut, "error: %s\n", service.Message(err, fallback))

	switch {
	case service.IsAuthError(err):
		return exitcode.AuthError
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, tasklist.ErrBusy),
		errors.Is(err, tasklist.ErrNoEditTarget),
		errors.Is(err, tasklist.ErrTaskIDRequired),
		errors.Is(err, auth.ErrBusy):
		return exitcode.UserError
	}

	var apiErr *service.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 && apiErr.Status != 408 {
		// The server rejected the input (invalid credentials, duplicate account, ...).
		return exitcode.UserError
	}
	return exitcode.BackendError
}
