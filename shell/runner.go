// Package shell runs the appliance's OS command side effects.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/pithecene-io/pws/log"
	"github.com/pithecene-io/pws/metrics"
	"github.com/pithecene-io/pws/types"
)

// DefaultShell interprets command lines.
const DefaultShell = "/bin/sh"

// DefaultCommands are the appliance's command lines.
var DefaultCommands = map[types.Command]string{
	types.CommandAPConfig:   "/usr/bin/python /pws/py/ap_conf.py &",
	types.CommandWebRestart: "/bin/systemctl restart pws-webserver",
	types.CommandShutdown:   "/sbin/shutdown now -h",
}

// Runner maps command names to command lines and runs them through a shell.
// Commands run synchronously; a line ending in '&' returns as soon as the
// shell has backgrounded it. Output is discarded.
type Runner struct {
	shell    string
	commands map[types.Command]string
	dryRun   bool
	logger   *log.Logger
	metrics  *metrics.Collector
}

// Option configures a Runner.
type Option func(*Runner)

// WithShell overrides DefaultShell.
func WithShell(path string) Option {
	return func(r *Runner) { r.shell = path }
}

// WithDryRun logs commands instead of running them.
func WithDryRun(dry bool) Option {
	return func(r *Runner) { r.dryRun = dry }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithMetrics counts command runs and failures.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Runner) { r.metrics = c }
}

// NewRunner creates a runner for the given command lines.
func NewRunner(commands map[types.Command]string, opts ...Option) *Runner {
	r := &Runner{
		shell:    DefaultShell,
		commands: commands,
		logger:   log.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the command line configured for cmd.
// An empty command line is a configuration choice to skip the side effect.
func (r *Runner) Run(ctx context.Context, cmd types.Command) error {
	line, ok := r.commands[cmd]
	if !ok {
		r.metrics.IncCommandFailure()
		return fmt.Errorf("no command line for %s", cmd)
	}
	if line == "" {
		r.logger.Info("command disabled", map[string]any{"command": string(cmd)})
		return nil
	}

	r.metrics.IncCommandRun()
	if r.dryRun {
		r.logger.Info("command (dry run)", map[string]any{"command": string(cmd), "line": line})
		return nil
	}

	start := time.Now()
	c := exec.CommandContext(ctx, r.shell, "-c", line)
	err := c.Run()
	fields := map[string]any{
		"command":     string(cmd),
		"line":        line,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		r.metrics.IncCommandFailure()
		fields["error"] = err.Error()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			fields["exit_code"] = exitErr.ExitCode()
		}
		r.logger.Warn("command failed", fields)
		return fmt.Errorf("%s: %w", cmd, err)
	}
	r.logger.Info("command finished", fields)
	return nil
}
