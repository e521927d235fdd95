// Package cmd provides CLI commands for the pws binary.
package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	pwsconfig "github.com/pithecene-io/pws/cli/config"
)

// Exit codes.
const (
	exitSuccess     = 0
	exitSocketError = 1 // inbound socket could not be created
	exitBindError   = 2 // inbound socket could not be bound
	exitConfigError = 3
	exitRecvError   = 4 // receiving on a bound socket failed
)

// Shared flags.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for table and decode.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (table, decode only)",
	}

	// ConfigFlag points at a pws.yaml file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to pws.yaml (defaults apply when omitted)",
		EnvVars: []string{"PWS_CONFIG"},
	}

	// HostFlag overrides the loopback host.
	HostFlag = &cli.StringFlag{
		Name:  "host",
		Usage: "Host every role listens on",
		Value: pwsconfig.DefaultHost,
	}
)

// ReadOnlyFlags returns the shared flags for commands that render output.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		TUIFlag,
	}
}

// loadConfig reads --config, or returns the defaults when it is unset.
func loadConfig(c *cli.Context) (*pwsconfig.Config, error) {
	path := c.String("config")
	if path == "" {
		return pwsconfig.Default(), nil
	}
	cfg, err := pwsconfig.Load(path)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitConfigError)
	}
	return cfg, nil
}

// resolveString returns the flag value if explicitly set, otherwise the
// config value, otherwise the flag default.
func resolveString(c *cli.Context, flag, configValue string) string {
	if c.IsSet(flag) {
		return c.String(flag)
	}
	if configValue != "" {
		return configValue
	}
	return c.String(flag)
}

// resolveInt follows resolveString; a zero config value means unset.
func resolveInt(c *cli.Context, flag string, configValue int) int {
	if c.IsSet(flag) {
		return c.Int(flag)
	}
	if configValue != 0 {
		return configValue
	}
	return c.Int(flag)
}

// resolveBool returns true if either the flag or the config enables it.
func resolveBool(c *cli.Context, flag string, configValue bool) bool {
	if c.IsSet(flag) {
		return c.Bool(flag)
	}
	return configValue
}

func rejectTUI(c *cli.Context, command string) error {
	if c.Bool("tui") {
		return cli.Exit(fmt.Sprintf("--tui is not supported for %s command", command), 1)
	}
	return nil
}
