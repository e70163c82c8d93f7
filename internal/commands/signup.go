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
	Register(&SignupCmd{})
}

// SignupCmd implements the signup command.
type SignupCmd struct {
	email    string
	password string
	stdin    io.Reader
}

// SetStdin overrides where an omitted password is prompted from (for
// testing).
func (c *SignupCmd) SetStdin(r io.Reader) {
	c.stdin = r
}

func (c *SignupCmd) Name() string      { return "signup" }
func (c *SignupCmd) Aliases() []string { return nil }
func (c *SignupCmd) Synopsis() string  { return "Create an account and sign in" }
func (c *SignupCmd) Usage() string     { return "taskdeck signup --email <addr> [--password <pw>]" }
func (c *SignupCmd) NeedsAuth() bool   { return false }

func (c *SignupCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.email, "e", "", "")
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.password, "p", "", "")
}

func (c *SignupCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if c.email == "" {
		fmt.Fprintln(errOut, "error: --email required")
		return exitcode.UserError
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

	user, err := env.Session.SignUp(ctx, c.email, c.password)
	if err != nil {
		return failAuth(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "signed up as %s\n", user.Email)
	}
	return exitcode.Success
}
