package policy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMode is returned when a mode string is not one of the known modes.
var ErrInvalidMode = errors.New("invalid mount mode")

// MountMode selects the strategy used to mount one partition of a module.
// The zero value is Auto.
type MountMode int

const (
	// Auto behaves like Overlay unless the source cannot be a union layer.
	Auto MountMode = iota
	// Overlay stacks the module directory as an overlayfs lowerdir.
	Overlay
	// Magic bind-mounts individual files.
	Magic
	// Hymo injects the directory through the kernel-assisted virtual overlay.
	Hymo
)

var modeNames = [...]string{
	Auto:    "auto",
	Overlay: "overlay",
	Magic:   "magic",
	Hymo:    "hymo",
}

// Modes returns every mode in declaration order.
func Modes() []MountMode {
	return []MountMode{Auto, Overlay, Magic, Hymo}
}

func (m MountMode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("MountMode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode converts a lower-case mode name into a MountMode.
func ParseMode(s string) (MountMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range modeNames {
		if n == name {
			return MountMode(i), nil
		}
	}
	return Auto, fmt.Errorf("%w: %q (want one of auto, overlay, magic, hymo)", ErrInvalidMode, s)
}

// MarshalText implements encoding.TextMarshaler so modes serialize as
// their lower-case names, including as JSON map values.
func (m MountMode) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(modeNames) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, int(m))
	}
	return []byte(modeNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MountMode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}
