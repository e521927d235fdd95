// Package gpio samples the front-panel buttons at boot.
//
// Only the one-shot boot-mode check lives here; button debouncing and LED
// sequencing belong to their own processes.
package gpio

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Pin levels.
const (
	Off = 0
	On  = 1
)

// DefaultSysfsRoot is where the kernel exposes exported GPIO lines.
const DefaultSysfsRoot = "/sys/class/gpio"

// PinReader reads the level of a GPIO line.
type PinReader interface {
	Read(pin int) (int, error)
}

// StaticPins returns fixed levels. Unlisted pins read Off.
// Used on hosts without GPIO and in tests.
type StaticPins map[int]int

// Read implements PinReader.
func (s StaticPins) Read(pin int) (int, error) {
	return s[pin], nil
}

// SysfsPins reads lines through the sysfs GPIO interface
// (<Root>/gpio<N>/value). Board.Open exports the boot lines.
type SysfsPins struct {
	Root string
}

// Read implements PinReader.
func (s SysfsPins) Read(pin int) (int, error) {
	path := filepath.Join(s.root(), fmt.Sprintf("gpio%d", pin), "value")
	data, err := os.ReadFile(path)
	if err != nil {
		return Off, fmt.Errorf("read gpio %d: %w", pin, err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return Off, fmt.Errorf("parse gpio %d value %q: %w", pin, data, err)
	}
	if v != Off {
		return On, nil
	}
	return Off, nil
}

// Export makes pin available as an input under Root. Already exported
// lines are left alone and report false.
func (s SysfsPins) Export(pin int) (bool, error) {
	root := s.root()
	line := filepath.Join(root, fmt.Sprintf("gpio%d", pin))
	if _, err := os.Stat(line); err == nil {
		return false, nil
	}
	if err := os.WriteFile(filepath.Join(root, "export"), []byte(strconv.Itoa(pin)), 0o200); err != nil {
		return false, fmt.Errorf("export gpio %d: %w", pin, err)
	}
	if err := os.WriteFile(filepath.Join(line, "direction"), []byte("in"), 0o200); err != nil {
		return true, fmt.Errorf("set gpio %d direction: %w", pin, err)
	}
	return true, nil
}

// Unexport releases a line previously exported by Export.
func (s SysfsPins) Unexport(pin int) error {
	if err := os.WriteFile(filepath.Join(s.root(), "unexport"), []byte(strconv.Itoa(pin)), 0o200); err != nil {
		return fmt.Errorf("unexport gpio %d: %w", pin, err)
	}
	return nil
}

func (s SysfsPins) root() string {
	if s.Root == "" {
		return DefaultSysfsRoot
	}
	return s.Root
}
