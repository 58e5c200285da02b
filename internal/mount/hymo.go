package mount

import (
	"fmt"

	"github.com/hybridmount/hybridmount/internal/fsops"
)

// DefaultHymoControl is the control node exposed by HymoFS-enabled kernels.
const DefaultHymoControl = "/dev/hymo_ctl"

// HymoFS drives the kernel-assisted directory injection through its
// control node. Each command is a single line.
type HymoFS struct {
	fs      fsops.FS
	control string
}

// NewHymoFS creates a HymoFS client for the given control node.
func NewHymoFS(fs fsops.FS, control string) *HymoFS {
	if control == "" {
		control = DefaultHymoControl
	}
	return &HymoFS{fs: fs, control: control}
}

// IsAvailable reports whether the kernel exposes the control node.
func (h *HymoFS) IsAvailable() bool {
	ok, err := h.fs.Exists(h.control)
	return err == nil && ok
}

// Clear drops every rule injected earlier.
func (h *HymoFS) Clear() error {
	return h.command("clear")
}

// InjectDirectory makes the contents of source appear under target.
func (h *HymoFS) InjectDirectory(target, source string) error {
	if !h.fs.IsDir(source) {
		return fmt.Errorf("hymofs source %s is not a directory", source)
	}
	return h.command(fmt.Sprintf("add %s %s", target, source))
}

func (h *HymoFS) command(cmd string) error {
	if !h.IsAvailable() {
		return ErrHymoUnavailable
	}
	if err := h.fs.WriteFile(h.control, []byte(cmd+"\n"), 0); err != nil {
		return fmt.Errorf("hymofs %q: %w", cmd, err)
	}
	return nil
}
