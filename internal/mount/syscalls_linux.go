//go:build linux

package mount

import (
	"fmt"

	"golang.org/x/sys/unix"
)

type unixSyscalls struct{}

// NewSyscalls returns the real mount syscalls.
func NewSyscalls() Syscalls {
	return unixSyscalls{}
}

func (unixSyscalls) MountOverlay(source, target, options string) error {
	if err := unix.Mount(source, target, "overlay", unix.MS_RDONLY, options); err != nil {
		return fmt.Errorf("mount overlay on %s: %w", target, err)
	}
	return nil
}

func (unixSyscalls) Bind(source, target string, recursive bool) error {
	flags := uintptr(unix.MS_BIND)
	if recursive {
		flags |= unix.MS_REC
	}
	if err := unix.Mount(source, target, "", flags, ""); err != nil {
		return fmt.Errorf("bind %s on %s: %w", source, target, err)
	}
	return nil
}

func (unixSyscalls) MountTmpfs(source, target string) error {
	if err := unix.Mount(source, target, "tmpfs", 0, "mode=0755"); err != nil {
		return fmt.Errorf("mount tmpfs on %s: %w", target, err)
	}
	return nil
}

func (unixSyscalls) Unmount(target string) error {
	if err := unix.Unmount(target, unix.MNT_DETACH); err != nil {
		return fmt.Errorf("unmount %s: %w", target, err)
	}
	return nil
}
