package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/pws/cli/render"
	"github.com/pithecene-io/pws/cli/tui"
	"github.com/pithecene-io/pws/osc"
)

// DecodeCommand returns the decode command.
// It decodes one captured datagram and shows which event it classifies to.
func DecodeCommand() *cli.Command {
	return &cli.Command{
		Name:  "decode",
		Usage: "Decode one datagram from a file or stdin",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{
				Name:  "file",
				Usage: "Read the datagram from this file instead of stdin",
			},
			&cli.BoolFlag{
				Name:  "hex",
				Usage: "Input is hex text (whitespace ignored)",
			},
		),
		Action: decodeAction,
	}
}

func decodeAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	var in io.Reader = c.App.Reader
	if path := c.String("file"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	data, err := readDatagram(in, c.Bool("hex"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	msg, err := osc.Decode(data)
	if err != nil {
		return cli.Exit(fmt.Sprintf("decode failed: %v", err), 1)
	}
	view := tui.NewMessageView(msg, data)

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewDecode, view)
	}
	return r.Render(view)
}

// readDatagram reads at most one datagram's worth of bytes.
func readDatagram(in io.Reader, isHex bool) ([]byte, error) {
	if !isHex {
		data, err := io.ReadAll(io.LimitReader(in, osc.MaxDatagramSize+1))
		if err != nil {
			return nil, err
		}
		if len(data) > osc.MaxDatagramSize {
			return nil, fmt.Errorf("input exceeds %d bytes", osc.MaxDatagramSize)
		}
		return data, nil
	}

	text, err := io.ReadAll(io.LimitReader(in, 8*osc.MaxDatagramSize))
	if err != nil {
		return nil, err
	}
	data, err := hex.DecodeString(strings.Join(strings.Fields(string(text)), ""))
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	if len(data) > osc.MaxDatagramSize {
		return nil, fmt.Errorf("input exceeds %d bytes", osc.MaxDatagramSize)
	}
	return data, nil
}
