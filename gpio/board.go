package gpio

import (
	"context"
	"errors"
	"fmt"

	"github.com/pithecene-io/pws/log"
	"github.com/pithecene-io/pws/osc"
	"github.com/pithecene-io/pws/types"
)

// BootPins names the two buttons sampled at boot (sysfs/BCM numbering).
// Holding the AP button while the mode button is released selects
// access-point configuration.
type BootPins struct {
	APButton   int
	ModeButton int
}

// DefaultBootPins are buttons 1 and 3 of the appliance front panel.
var DefaultBootPins = BootPins{APButton: 5, ModeButton: 24}

type emitter interface {
	Emit(ctx context.Context, to types.Role, msg *osc.Message) error
}

// exporter is implemented by pin readers that need lines brought up
// before reading.
type exporter interface {
	Export(pin int) (bool, error)
	Unexport(pin int) error
}

// Board performs the boot-mode check.
type Board struct {
	pins     PinReader
	boot     BootPins
	logger   *log.Logger
	exported []int
}

// NewBoard creates a board over pins.
func NewBoard(pins PinReader, boot BootPins, logger *log.Logger) *Board {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Board{pins: pins, boot: boot, logger: logger}
}

// Open brings up the boot lines when the reader needs it.
// Lines that were already exported stay exported after Close.
func (b *Board) Open() error {
	ex, ok := b.pins.(exporter)
	if !ok {
		return nil
	}
	for _, pin := range []int{b.boot.APButton, b.boot.ModeButton} {
		created, err := ex.Export(pin)
		if created {
			b.exported = append(b.exported, pin)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Close releases the lines exported by Open.
func (b *Board) Close() error {
	ex, ok := b.pins.(exporter)
	if !ok {
		return nil
	}
	var errs []error
	for _, pin := range b.exported {
		if err := ex.Unexport(pin); err != nil {
			errs = append(errs, err)
		}
	}
	b.exported = nil
	return errors.Join(errs...)
}

// BootAddress samples the boot pins once and returns the address the
// orchestrator should receive first: the AP-set button when the AP button
// is held and the mode button is released, otherwise startup.
// A read failure selects startup.
func (b *Board) BootAddress() string {
	ap, err := b.pins.Read(b.boot.APButton)
	if err != nil {
		b.logger.Warn("boot pin read failed", map[string]any{"pin": b.boot.APButton, "error": err.Error()})
		return types.AddrInitialize
	}
	mode, err := b.pins.Read(b.boot.ModeButton)
	if err != nil {
		b.logger.Warn("boot pin read failed", map[string]any{"pin": b.boot.ModeButton, "error": err.Error()})
		return types.AddrInitialize
	}

	addr := types.AddrInitialize
	if ap == On && mode == Off {
		addr = types.AddrPushApSet
	}
	b.logger.Info("boot mode", map[string]any{"ap_button": ap, "mode_button": mode, "address": addr})
	return addr
}

// CheckBootMode sends the boot address to the orchestrator's own port.
// The orchestrator must already be listening so the datagram is queued.
func (b *Board) CheckBootMode(ctx context.Context, out emitter) error {
	addr := b.BootAddress()
	if err := out.Emit(ctx, types.RoleManager, osc.NewMessage(addr)); err != nil {
		return fmt.Errorf("send boot message: %w", err)
	}
	return nil
}
