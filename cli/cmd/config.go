package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/pws/cli/render"
)

// ConfigCommand returns the config command.
// It prints the effective configuration (defaults plus --config) as
// pws.yaml after validating it, so a file can be checked before a restart.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:   "config",
		Usage:  "Validate and print the effective configuration",
		Flags:  []cli.Flag{ConfigFlag},
		Action: configAction,
	}
}

func configAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("invalid config: %v", err), exitConfigError)
	}
	return render.NewRendererWithWriter(render.FormatYAML, c.App.Writer).Render(cfg)
}
