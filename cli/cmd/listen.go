package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/pws/cli/render"
	"github.com/pithecene-io/pws/cli/tui"
	"github.com/pithecene-io/pws/iox"
	"github.com/pithecene-io/pws/log"
	"github.com/pithecene-io/pws/osc"
	"github.com/pithecene-io/pws/transport"
	"github.com/pithecene-io/pws/types"
)

// ListenCommand returns the listen command.
// It binds a role's port and prints what the orchestrator sends there,
// standing in for a collaborator such as the LED controller.
func ListenCommand() *cli.Command {
	return &cli.Command{
		Name:  "listen",
		Usage: "Print datagrams sent to a role's port",
		Flags: append(ReadOnlyFlags(),
			ConfigFlag,
			HostFlag,
			&cli.StringFlag{
				Name:  "role",
				Usage: "Role whose port to bind",
				Value: string(types.RoleLED),
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to bind (overrides --role)",
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "Stop after N datagrams (0 = until interrupted)",
			},
		),
		Action: listenAction,
	}
}

func listenAction(c *cli.Context) error {
	if err := rejectTUI(c, "listen"); err != nil {
		return err
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	port := c.Int("port")
	if !c.IsSet("port") {
		role, err := types.ParseRole(c.String("role"))
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		p, ok := cfg.Ports[role]
		if !ok {
			p = types.DefaultPorts[role]
		}
		port = p
	}

	l, err := openListener(resolveString(c, "host", cfg.Host), port)
	if err != nil {
		return err
	}
	defer iox.DiscardClose(l)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := log.New(log.NewBootID(), log.Options{Level: "warn", Output: c.App.ErrWriter})
	if err != nil {
		return err
	}
	sugar := logger.Sugar()
	return listen(ctx, l, c.Int("count"), r, func(err error) {
		sugar.Warnf("dropped datagram: %v", err)
	})
}

// listen renders each datagram received on l until ctx ends or count
// datagrams have arrived. Undecodable datagrams go to onError.
func listen(ctx context.Context, l *transport.Listener, count int, r *render.Renderer, onError func(error)) error {
	stopClose := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stopClose()

	for seen := 0; count <= 0 || seen < count; {
		data, from, err := l.Receive()
		if err != nil {
			if transport.IsClosed(err) && ctx.Err() != nil {
				return nil
			}
			return receiveFailed(err)
		}
		seen++

		msg, err := osc.Decode(data)
		if err != nil {
			onError(fmt.Errorf("%s: %w", from, err))
			continue
		}
		view := tui.NewMessageView(msg, data)
		view.From = from.String()
		if err := r.Render(view); err != nil {
			return err
		}
	}
	return nil
}
