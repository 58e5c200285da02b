package mount

// Syscalls is the narrow set of mount operations the techniques need.
type Syscalls interface {
	// MountOverlay mounts an overlayfs named source on target.
	MountOverlay(source, target, options string) error

	// Bind bind-mounts source on target.
	Bind(source, target string, recursive bool) error

	// MountTmpfs mounts a tmpfs named source on target.
	MountTmpfs(source, target string) error

	// Unmount lazily detaches target.
	Unmount(target string) error
}
