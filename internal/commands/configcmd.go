package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"taskmgr/internal/exitcode"
)

func init() {
	Register(&ConfigCmd{})
}

// ConfigCmd prints the effective configuration.
type ConfigCmd struct{}

func (c *ConfigCmd) Name() string      { return "config" }
func (c *ConfigCmd) Aliases() []string { return nil }
func (c *ConfigCmd) Synopsis() string  { return "Print the effective configuration" }
func (c *ConfigCmd) Usage() string     { return "taskmgr config [common flags]" }
func (c *ConfigCmd) NeedsAuth() bool   { return false }

func (c *ConfigCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ConfigCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	view := struct {
		Dir              string `yaml:"dir"`
		APIURL           string `yaml:"api_url"`
		Timeout          string `yaml:"timeout"`
		ReloadAfterWrite bool   `yaml:"reload_after_write"`
		LoggedIn         bool   `yaml:"logged_in"`
	}{
		Dir:              env.Config.Dir,
		APIURL:           env.Config.APIURL,
		Timeout:          env.Config.Timeout.String(),
		ReloadAfterWrite: env.Config.ReloadAfterWrite,
		LoggedIn:         env.Session != nil && env.Session.Active(),
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(view); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if err := enc.Close(); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}
