package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email    string
	password string
	stdin    io.Reader
}

// SetStdin overrides where an omitted password is prompted from (for
// testing).
func (c *LoginCmd) SetStdin(r io.Reader) {
	c.stdin = r
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return []string{"signin"} }
func (c *LoginCmd) Synopsis() string  { return "Sign in to the task service" }
func (c *LoginCmd) Usage() string     { return "taskdeck login --email <addr> [--password <pw>]" }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.email, "e", "", "")
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.password, "p", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if c.email == "" {
		fmt.Fprintln(errOut, "error: --email required")
		return exitcode.UserError
	}

	if env.Session.Current().Authenticated() {
		if !cfg.Quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	if c.password == "" {
		in := c.stdin
		if in == nil {
			in = os.Stdin
		}
		pw, err := promptPassword(in, errOut)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		c.password = pw
	}

	user, err := env.Session.SignIn(ctx, c.email, c.password)
	if err != nil {
		return failAuth(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "logged in as %s\n", user.Email)
	}
	return exitcode.Success
}
