package cmd

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/pws/cli/render"
	"github.com/pithecene-io/pws/cli/tui"
	"github.com/pithecene-io/pws/fsm"
	"github.com/pithecene-io/pws/osc"
	"github.com/pithecene-io/pws/transport"
	"github.com/pithecene-io/pws/types"
)

func TestReadOnlyFlags_IncludesTUI(t *testing.T) {
	hasTUI := false
	for _, f := range ReadOnlyFlags() {
		if f.Names()[0] == "tui" {
			hasTUI = true
			break
		}
	}
	if !hasTUI {
		t.Error("ReadOnlyFlags should include --tui flag for explicit error handling")
	}
}

func TestParseArg(t *testing.T) {
	tests := []struct {
		raw     string
		want    osc.Arg
		wantErr bool
	}{
		{"42", osc.Int(42), false},
		{"-1", osc.Int(-1), false},
		{"0.5", osc.Float(0.5), false},
		{"hello", osc.String("hello"), false},
		{"i:7", osc.Int(7), false},
		{"f:3", osc.Float(3), false},
		{"s:12", osc.String("12"), false},
		{"s:", osc.String(""), false},
		{"x:1", osc.String("x:1"), false},
		{"http://host", osc.String("http://host"), false},
		{"i:abc", osc.Arg{}, true},
		{"f:abc", osc.Arg{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseArg(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseArg(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseArg(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestReadDatagram(t *testing.T) {
	raw, err := osc.Encode(osc.NewMessage(types.AddrPushRecord))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := readDatagram(bytes.NewReader(raw), false)
	if err != nil || !bytes.Equal(got, raw) {
		t.Errorf("raw read = %x, %v", got, err)
	}

	spaced := strings.Join(strings.SplitAfterN(hex.EncodeToString(raw), "", 8), " ") + "\n"
	got, err = readDatagram(strings.NewReader(spaced), true)
	if err != nil || !bytes.Equal(got, raw) {
		t.Errorf("hex read = %x, %v", got, err)
	}

	if _, err := readDatagram(strings.NewReader("zz"), true); err == nil {
		t.Error("expected error for invalid hex")
	}
	if _, err := readDatagram(bytes.NewReader(make([]byte, osc.MaxDatagramSize+1)), false); err == nil {
		t.Error("expected error for oversized input")
	}
}

func TestSendAndListen(t *testing.T) {
	l, err := transport.Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer func() { _ = l.Close() }()

	var received bytes.Buffer
	done := make(chan error, 1)
	go func() {
		r := render.NewRendererWithWriter(render.FormatJSON, &received)
		done <- listen(context.Background(), l, 1, r, func(err error) { t.Errorf("unexpected decode error: %v", err) })
	}()

	var sent bytes.Buffer
	app := newTestApp(SendCommand())
	app.Writer = &sent
	err = app.Run([]string{
		"pws", "send", "--format", "json",
		"--port", strconv.Itoa(l.Port()),
		types.AddrRecordStopped, "0", "s:/rec/take1.wav",
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("listen failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for datagram")
	}

	var resp SendResponse
	if err := json.Unmarshal(sent.Bytes(), &resp); err != nil {
		t.Fatalf("send output is not JSON: %v\n%s", err, sent.String())
	}
	if resp.Address != types.AddrRecordStopped || resp.Port != l.Port() || len(resp.Args) != 2 {
		t.Errorf("unexpected send response %+v", resp)
	}

	var view tui.MessageView
	if err := json.Unmarshal(received.Bytes(), &view); err != nil {
		t.Fatalf("listen output is not JSON: %v\n%s", err, received.String())
	}
	if view.Address != types.AddrRecordStopped || view.Tags != "is" {
		t.Errorf("unexpected view %+v", view)
	}
	if view.Event != types.EventRecordStopped.String() {
		t.Errorf("event = %q, want %q", view.Event, types.EventRecordStopped)
	}
	if view.From == "" {
		t.Error("expected sender address")
	}
}

func TestListen_SkipsUndecodable(t *testing.T) {
	l, err := transport.Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer func() { _ = l.Close() }()

	sender := transport.NewSender("127.0.0.1", nil)
	if err := sender.SendRaw(context.Background(), l.Port(), []byte("no-slash")); err != nil {
		t.Fatalf("SendRaw failed: %v", err)
	}
	if err := sender.SendTo(context.Background(), l.Port(), osc.NewMessage(types.AddrPushPlay)); err != nil {
		t.Fatalf("SendTo failed: %v", err)
	}

	var out bytes.Buffer
	var decodeErrs []error
	r := render.NewRendererWithWriter(render.FormatJSON, &out)
	if err := listen(context.Background(), l, 2, r, func(err error) { decodeErrs = append(decodeErrs, err) }); err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	if len(decodeErrs) != 1 {
		t.Errorf("expected 1 decode error, got %v", decodeErrs)
	}
	if !strings.Contains(out.String(), types.AddrPushPlay) {
		t.Errorf("expected play button in output: %s", out.String())
	}
}

func TestListen_StopsOnCancel(t *testing.T) {
	l, err := transport.Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- listen(ctx, l, 0, render.NewRendererWithWriter(render.FormatJSON, &bytes.Buffer{}), func(error) {})
	}()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean stop, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("listen did not stop on cancel")
	}
}

func TestListen_ReceiveFailureExitCode(t *testing.T) {
	l, err := transport.Listen("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	// Closed underneath a live context: a transport fault, not a shutdown.
	_ = l.Close()

	err = listen(context.Background(), l, 0, render.NewRendererWithWriter(render.FormatJSON, &bytes.Buffer{}), func(error) {})
	var exitCoder cli.ExitCoder
	if !errors.As(err, &exitCoder) {
		t.Fatalf("expected cli.ExitCoder, got %T: %v", err, err)
	}
	if exitCoder.ExitCode() != exitRecvError {
		t.Errorf("exit code = %d, want %d", exitCoder.ExitCode(), exitRecvError)
	}
	if exitCoder.ExitCode() == exitSocketError {
		t.Error("receive failure must not share the socket creation code")
	}
}

func TestSend_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no address", []string{"pws", "send"}},
		{"unknown role", []string{"pws", "send", "--to", "mixer", types.AddrPushPlay}},
		{"bad typed arg", []string{"pws", "send", types.AddrPushPlay, "i:x"}},
		{"tui", []string{"pws", "send", "--tui", types.AddrPushPlay}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(SendCommand())
			app.Writer = &bytes.Buffer{}
			if err := app.Run(tt.args); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDecodeCommand(t *testing.T) {
	raw, err := osc.Encode(osc.NewMessage(types.AddrApConfigured, osc.Int(-1)))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var out bytes.Buffer
	app := newTestApp(DecodeCommand())
	app.Reader = strings.NewReader(hex.EncodeToString(raw))
	app.Writer = &out
	if err := app.Run([]string{"pws", "decode", "--hex", "--format", "json"}); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	var view tui.MessageView
	if err := json.Unmarshal(out.Bytes(), &view); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if view.Event != types.EventApConfigError.String() {
		t.Errorf("event = %q, want %q", view.Event, types.EventApConfigError)
	}
	if view.Size != len(raw) {
		t.Errorf("size = %d, want %d", view.Size, len(raw))
	}
}

func TestDecodeCommand_Malformed(t *testing.T) {
	app := newTestApp(DecodeCommand())
	app.Reader = bytes.NewReader([]byte("garbage"))
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"pws", "decode", "--format", "json"})
	if err == nil || !strings.Contains(err.Error(), "decode failed") {
		t.Errorf("expected decode failure, got %v", err)
	}
}

func TestTableCommand(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(TableCommand())
	app.Writer = &out
	if err := app.Run([]string{"pws", "table", "--format", "json", "--state", "idle"}); err != nil {
		t.Fatalf("table failed: %v", err)
	}

	var rows []fsm.TransitionRow
	if err := json.Unmarshal(out.Bytes(), &rows); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(rows) == 0 {
		t.Fatal("expected idle rows")
	}
	found := false
	for _, r := range rows {
		if r.State != types.StateIdle {
			t.Errorf("unexpected state %v", r.State)
		}
		if r.Event == types.EventRecordButton && r.Next == types.StateRecording {
			found = true
		}
	}
	if !found {
		t.Error("expected idle + record_button -> recording")
	}
}

func TestTableCommand_UnknownState(t *testing.T) {
	app := newTestApp(TableCommand())
	app.Writer = &bytes.Buffer{}
	if err := app.Run([]string{"pws", "table", "--state", "paused"}); err == nil {
		t.Fatal("expected error for unknown state")
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(VersionCommand("abc123"))
	app.Writer = &out
	if err := app.Run([]string{"pws", "version", "--format", "json"}); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	var resp VersionResponse
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if resp.Version != types.Version || resp.Commit != "abc123" || resp.Protocol != types.ProtocolVersion {
		t.Errorf("unexpected version response %+v", resp)
	}

	err := newTestApp(VersionCommand("abc123")).Run([]string{"pws", "version", "--tui"})
	if err == nil || !strings.Contains(err.Error(), "--tui is not supported") {
		t.Errorf("expected --tui rejection, got %v", err)
	}
}

func TestConfigCommand(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(ConfigCommand())
	app.Writer = &out
	if err := app.Run([]string{"pws", "config"}); err != nil {
		t.Fatalf("config failed: %v", err)
	}
	for _, want := range []string{"host: 127.0.0.1", "manager: 8001", "mode: static"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("config output missing %q:\n%s", want, out.String())
		}
	}
}

func TestConfigCommand_MissingFile(t *testing.T) {
	err := newTestApp(ConfigCommand()).Run([]string{"pws", "config", "--config", "/nonexistent/pws.yaml"})
	var exitCoder cli.ExitCoder
	if !errors.As(err, &exitCoder) || exitCoder.ExitCode() != exitConfigError {
		t.Errorf("expected exit %d, got %v", exitConfigError, err)
	}
}
