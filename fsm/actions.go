package fsm

import (
	"context"
	"errors"
	"fmt"

	"github.com/pithecene-io/pws/osc"
	"github.com/pithecene-io/pws/types"
)

// ActionKind tags the side effect attached to a transition.
type ActionKind int

// Actions.
const (
	ActionNone ActionKind = iota
	ActionInitialize
	ActionApConfigure
	ActionApConfigured
	ActionApConfigError
	ActionPeerInitFinished
	ActionPeerInitError
	ActionRecordStart
	ActionRecordStop
	ActionRecordStopped
	ActionPlayStart
	ActionPlayStop
	ActionPlayStopped
	ActionVolumeUp
	ActionVolumeDown
	ActionEffectToggle
	ActionTuningStart
	ActionTuningStop
	ActionTuningStopped
	ActionTuningCondition
	ActionUploadStarted
	ActionUploadStopped
	ActionDownloadStopped
	ActionShutdown
)

var actionNames = [...]string{
	ActionNone:             "none",
	ActionInitialize:       "initialize",
	ActionApConfigure:      "ap_configure",
	ActionApConfigured:     "ap_configured",
	ActionApConfigError:    "ap_config_error",
	ActionPeerInitFinished: "peer_init_finished",
	ActionPeerInitError:    "peer_init_error",
	ActionRecordStart:      "record_start",
	ActionRecordStop:       "record_stop",
	ActionRecordStopped:    "record_stopped",
	ActionPlayStart:        "play_start",
	ActionPlayStop:         "play_stop",
	ActionPlayStopped:      "play_stopped",
	ActionVolumeUp:         "volume_up",
	ActionVolumeDown:       "volume_down",
	ActionEffectToggle:     "effect_toggle",
	ActionTuningStart:      "tuning_start",
	ActionTuningStop:       "tuning_stop",
	ActionTuningStopped:    "tuning_stopped",
	ActionTuningCondition:  "tuning_condition",
	ActionUploadStarted:    "upload_started",
	ActionUploadStopped:    "upload_stopped",
	ActionDownloadStopped:  "download_stopped",
	ActionShutdown:         "shutdown",
}

func (a ActionKind) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return actionNames[a]
}

// MarshalText renders actions by name.
func (a ActionKind) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *ActionKind) UnmarshalText(b []byte) error {
	for i, n := range actionNames {
		if n == string(b) {
			*a = ActionKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown action %q", b)
}

// Emitter delivers one message to a collaborator role.
// Delivery is fire-and-forget: a nil error means the datagram left the
// process, not that the collaborator received it.
type Emitter interface {
	Emit(ctx context.Context, to types.Role, msg *osc.Message) error
}

// Commander runs a named OS command.
type Commander interface {
	Run(ctx context.Context, cmd types.Command) error
}

// Actions executes transition side effects.
type Actions struct {
	emit Emitter
	cmd  Commander
}

// NewActions creates an action executor.
func NewActions(emit Emitter, cmd Commander) *Actions {
	return &Actions{emit: emit, cmd: cmd}
}

// Run executes kind. from is the state before the transition; several
// actions behave differently depending on it. Every side effect is
// attempted even if an earlier one fails; the failures are joined.
func (a *Actions) Run(ctx context.Context, kind ActionKind, from types.State, args Args) error {
	switch kind {
	case ActionNone, ActionTuningCondition:
		return nil

	case ActionInitialize:
		return a.led(ctx, types.AddrLEDRedOff, types.AddrLEDGreenOff, types.AddrLEDYellowBlink)

	case ActionApConfigure:
		return errors.Join(
			a.led(ctx, types.AddrLEDRedOff, types.AddrLEDGreenBlink, types.AddrLEDYellowOff),
			a.run(ctx, types.CommandAPConfig),
		)

	case ActionApConfigured:
		err := a.led(ctx, types.AddrLEDGreenOff)
		switch from {
		case types.StateApSet:
			err = errors.Join(err, a.led(ctx, types.AddrLEDYellowBlink))
		case types.StateApSetWait:
			err = errors.Join(err,
				a.led(ctx, types.AddrLEDYellowOn),
				a.run(ctx, types.CommandWebRestart),
			)
		}
		return err

	case ActionApConfigError:
		// Only codes below -1 light the error LED.
		if args.Code >= -1 {
			return nil
		}
		switch from {
		case types.StateApSet, types.StateApSetWait:
			return a.led(ctx, types.AddrLEDYellowBlinkFast)
		}
		return nil

	case ActionPeerInitFinished:
		// From Init the peer report has no LED effect.
		if from == types.StatePdWait {
			return a.led(ctx, types.AddrLEDYellowOn)
		}
		return nil

	case ActionPeerInitError:
		switch from {
		case types.StateApSet, types.StatePdWait:
			return a.led(ctx, types.AddrLEDYellowBlinkFast)
		}
		return nil

	case ActionRecordStart:
		return errors.Join(
			a.led(ctx, types.AddrLEDRedOn, types.AddrLEDGreenOff, types.AddrLEDYellowOn),
			a.send(ctx, types.RoleRecorder, types.AddrRecordStart, ""),
		)

	case ActionRecordStop:
		return a.send(ctx, types.RoleRecorder, types.AddrRecordStop, "")

	case ActionRecordStopped:
		err := a.led(ctx, types.AddrLEDRedOff)
		if args.Code == 0 {
			return errors.Join(err, a.send(ctx, types.RoleUploader, types.AddrUploadStart, args.Text1))
		}
		return errors.Join(err, a.led(ctx, types.AddrLEDYellowBlinkFast))

	case ActionPlayStart:
		return errors.Join(
			a.led(ctx, types.AddrLEDRedOff, types.AddrLEDGreenOn, types.AddrLEDYellowOn),
			a.send(ctx, types.RolePlayer, types.AddrPlayStart, ""),
		)

	case ActionPlayStop:
		return a.send(ctx, types.RolePlayer, types.AddrPlayStop, "")

	case ActionPlayStopped:
		err := a.led(ctx, types.AddrLEDGreenOff)
		if args.Code != 0 {
			err = errors.Join(err, a.led(ctx, types.AddrLEDYellowBlinkFast))
		}
		return err

	case ActionVolumeUp:
		return a.send(ctx, types.RoleAudioOut, types.AddrVolumeUp, "")

	case ActionVolumeDown:
		return a.send(ctx, types.RoleAudioOut, types.AddrVolumeDown, "")

	case ActionEffectToggle:
		return a.send(ctx, types.RoleEffect, types.AddrEffectToggle, "")

	case ActionTuningStart:
		return errors.Join(
			a.led(ctx, types.AddrLEDBlinkRedGreen, types.AddrLEDYellowOn),
			a.send(ctx, types.RoleTuner, types.AddrTuneStart, ""),
		)

	case ActionTuningStop:
		return a.send(ctx, types.RoleTuner, types.AddrTuneStop, "")

	case ActionTuningStopped:
		err := a.led(ctx, types.AddrLEDRedOff, types.AddrLEDGreenOff)
		if args.Code != 0 {
			err = errors.Join(err, a.led(ctx, types.AddrLEDYellowBlinkFast))
		}
		return err

	case ActionUploadStarted:
		return a.led(ctx, types.AddrLEDYellowBlink)

	case ActionUploadStopped, ActionDownloadStopped:
		if args.Code == 0 {
			return a.led(ctx, types.AddrLEDYellowOn)
		}
		return a.led(ctx, types.AddrLEDYellowBlinkFast)

	case ActionShutdown:
		return a.run(ctx, types.CommandShutdown)

	default:
		return fmt.Errorf("unknown action %d", int(kind))
	}
}

// led sends each directive to the LED controller in order.
func (a *Actions) led(ctx context.Context, addrs ...string) error {
	var errs []error
	for _, addr := range addrs {
		if err := a.emit.Emit(ctx, types.RoleLED, osc.NewMessage(addr)); err != nil {
			errs = append(errs, fmt.Errorf("led %s: %w", addr, err))
		}
	}
	return errors.Join(errs...)
}

// send emits addr to a service; a non-empty param becomes a single string argument.
func (a *Actions) send(ctx context.Context, to types.Role, addr, param string) error {
	msg := osc.NewMessage(addr)
	if param != "" {
		msg.Args = []osc.Arg{osc.String(param)}
	}
	if err := a.emit.Emit(ctx, to, msg); err != nil {
		return fmt.Errorf("send %s to %s: %w", addr, to, err)
	}
	return nil
}

func (a *Actions) run(ctx context.Context, cmd types.Command) error {
	if err := a.cmd.Run(ctx, cmd); err != nil {
		return fmt.Errorf("command %s: %w", cmd, err)
	}
	return nil
}
