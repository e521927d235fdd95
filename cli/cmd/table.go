package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/pws/cli/render"
	"github.com/pithecene-io/pws/cli/tui"
	"github.com/pithecene-io/pws/fsm"
	"github.com/pithecene-io/pws/types"
)

// TableCommand returns the table command, which prints the transition table.
// It never opens a socket.
func TableCommand() *cli.Command {
	return &cli.Command{
		Name:  "table",
		Usage: "Show the state transition table",
		Flags: append(ReadOnlyFlags(),
			&cli.StringSliceFlag{
				Name:  "state",
				Usage: "Only show these states (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Include inert cells (no action, no state change)",
			},
		),
		Action: tableAction,
	}
}

func tableAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	var states []types.State
	for _, name := range c.StringSlice("state") {
		s, err := types.ParseState(name)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		states = append(states, s)
	}

	table := fsm.DefaultTable()
	if c.Bool("tui") {
		// The TUI toggles inert cells itself.
		return r.RenderTUI(tui.ViewTable, table.Rows(true, states...))
	}
	return r.Render(table.Rows(c.Bool("all"), states...))
}
