// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
	"taskdeck/internal/service"
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

	// NeedsAuth returns true if the command requires an authenticated
	// session. Commands like help, version, login return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, base URL).
	// env is nil only when no environment factory is wired (help, tests).
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int
}

// fail prints err in the standard error format and maps it to an exit code:
// input problems are user errors, session problems are auth errors, and
// everything else is the backend's fault.
func fail(errOut io.Writer, err error) int {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if errors.Is(err, service.ErrNotAuthenticated) || errors.Is(err, service.ErrUnauthorized) {
		fmt.Fprintf(errOut, "error: not authorized (run: taskdeck login): %v\n", err)
		return exitcode.AuthError
	}
	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}

// failAuth is fail for sign-in and sign-up, where a server rejection means
// the credentials were bad, not that the backend broke. The server's
// message is shown verbatim.
func failAuth(errOut io.Writer, err error) int {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	var reqErr *service.RequestError
	if errors.As(err, &reqErr) || errors.Is(err, service.ErrMissingCredential) || errors.Is(err, service.ErrUnauthorized) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}
	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}
