package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/pws/cli/render"
	"github.com/pithecene-io/pws/osc"
	"github.com/pithecene-io/pws/transport"
	"github.com/pithecene-io/pws/types"
)

// SendResponse is the response for the send command.
type SendResponse struct {
	To      string   `json:"to"`
	Port    int      `json:"port"`
	Address string   `json:"address"`
	Args    []string `json:"args"`
	Size    int      `json:"size"`
}

// SendCommand returns the send command.
// It injects one datagram, typically a button press or a collaborator
// reply, into a running orchestrator or any role's port.
func SendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Send one message to a role",
		ArgsUsage: "<address> [i:N | f:X | s:TEXT | value ...]",
		Flags: append(ReadOnlyFlags(),
			ConfigFlag,
			HostFlag,
			&cli.StringFlag{
				Name:  "to",
				Usage: "Destination role",
				Value: string(types.RoleManager),
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Destination port (overrides --to)",
			},
		),
		Action: sendAction,
	}
}

func sendAction(c *cli.Context) error {
	if err := rejectTUI(c, "send"); err != nil {
		return err
	}
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.NArg() < 1 {
		return cli.Exit("send requires an address", 1)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	args := make([]osc.Arg, 0, c.NArg()-1)
	for _, raw := range c.Args().Tail() {
		arg, err := parseArg(raw)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		args = append(args, arg)
	}
	msg := osc.NewMessage(c.Args().First(), args...)

	host := resolveString(c, "host", cfg.Host)
	sender := transport.NewSender(host, cfg.Ports)

	to := c.String("to")
	port := c.Int("port")
	if !c.IsSet("port") {
		role, err := types.ParseRole(to)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		port, _ = sender.Port(role)
	} else {
		to = ""
	}

	if err := sender.SendTo(context.Background(), port, msg); err != nil {
		return cli.Exit(fmt.Sprintf("send failed: %v", err), 1)
	}

	resp := SendResponse{
		To:      to,
		Port:    port,
		Address: msg.Address,
		Args:    make([]string, len(msg.Args)),
		Size:    osc.EncodedSize(msg),
	}
	for i, a := range msg.Args {
		resp.Args[i] = a.String()
	}
	return r.Render(resp)
}

// parseArg turns a command-line token into an argument.
// A "i:", "f:" or "s:" prefix forces the type. Otherwise integers become
// int32, other numbers float32 and everything else a string.
func parseArg(raw string) (osc.Arg, error) {
	if prefix, value, ok := strings.Cut(raw, ":"); ok && len(prefix) == 1 {
		switch osc.ArgType(prefix[0]) {
		case osc.TypeInt32:
			n, err := strconv.ParseInt(value, 10, 32)
			if err != nil {
				return osc.Arg{}, fmt.Errorf("invalid int32 %q", value)
			}
			return osc.Int(int32(n)), nil
		case osc.TypeFloat32:
			f, err := strconv.ParseFloat(value, 32)
			if err != nil {
				return osc.Arg{}, fmt.Errorf("invalid float32 %q", value)
			}
			return osc.Float(float32(f)), nil
		case osc.TypeString:
			return osc.String(value), nil
		}
	}
	if n, err := strconv.ParseInt(raw, 10, 32); err == nil {
		return osc.Int(int32(n)), nil
	}
	if f, err := strconv.ParseFloat(raw, 32); err == nil {
		return osc.Float(float32(f)), nil
	}
	return osc.String(raw), nil
}
