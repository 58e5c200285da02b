package mount

import "errors"

var (
	// ErrUnsupported indicates the platform cannot perform mounts.
	ErrUnsupported = errors.New("mount not supported on this platform")

	// ErrHymoUnavailable indicates the kernel lacks HymoFS support.
	ErrHymoUnavailable = errors.New("hymofs not available")

	// ErrNoLowerdirs indicates an overlay was requested without layers.
	ErrNoLowerdirs = errors.New("overlay requires at least one lowerdir")
)
