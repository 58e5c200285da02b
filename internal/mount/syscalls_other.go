//go:build !linux

package mount

type unsupportedSyscalls struct{}

// NewSyscalls returns syscalls that always fail with ErrUnsupported.
func NewSyscalls() Syscalls {
	return unsupportedSyscalls{}
}

func (unsupportedSyscalls) MountOverlay(string, string, string) error { return ErrUnsupported }
func (unsupportedSyscalls) Bind(string, string, bool) error           { return ErrUnsupported }
func (unsupportedSyscalls) MountTmpfs(string, string) error           { return ErrUnsupported }
func (unsupportedSyscalls) Unmount(string) error                      { return ErrUnsupported }
