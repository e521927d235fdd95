// Package main provides the pws CLI entrypoint.
//
// `pws run` is the orchestrator daemon. The other commands are bench
// tools: they inject, capture or decode datagrams and print the
// transition table.
//
// Usage:
//
//	pws <command> [options]
//
// Exit codes for `run`:
//   - 0: stopped by SIGINT or SIGTERM
//   - 1: receive socket could not be created
//   - 2: receive socket could not be bound
//   - 3: invalid configuration
//   - 4: receiving on the bound socket failed
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/pws/cli/cmd"
	"github.com/pithecene-io/pws/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:           "pws",
		Usage:          "Audio appliance orchestrator",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.RunCommand(),
			cmd.SendCommand(),
			cmd.ListenCommand(),
			cmd.DecodeCommand(),
			cmd.TableCommand(),
			cmd.ConfigCommand(),
			cmd.VersionCommand(commit),
		},
	}
}

// exitErrHandler preserves exit codes from cli.Exit().
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N"; skip those.
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
