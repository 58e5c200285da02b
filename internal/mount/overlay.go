package mount

import (
	"fmt"
	"strings"

	"github.com/hybridmount/hybridmount/internal/fsops"
)

// OverlayFS mounts read-only overlayfs stacks over live partitions.
type OverlayFS struct {
	fs     fsops.FS
	sys    Syscalls
	source string
}

// NewOverlayFS creates an OverlayFS whose mounts carry source as their
// device name.
func NewOverlayFS(fs fsops.FS, sys Syscalls, source string) *OverlayFS {
	return &OverlayFS{fs: fs, sys: sys, source: source}
}

// MountOverlay stacks lowerdirs over target. The first lowerdir wins on
// collisions; the original target contents form the bottom layer. Unless
// disableUmount is set, an overlay this tool left on target earlier is
// detached first.
func (o *OverlayFS) MountOverlay(target string, lowerdirs []string, upperdir, workdir string, disableUmount bool) error {
	if len(lowerdirs) == 0 {
		return fmt.Errorf("%s: %w", target, ErrNoLowerdirs)
	}

	if !disableUmount {
		if stale := mountsBySource(o.fs, o.source, "overlay"); stale[target] {
			if err := o.sys.Unmount(target); err != nil {
				return fmt.Errorf("failed to detach previous overlay: %w", err)
			}
		}
	}

	layers := make([]string, 0, len(lowerdirs)+1)
	layers = append(layers, lowerdirs...)
	layers = append(layers, target)

	return o.sys.MountOverlay(o.source, target, overlayOptions(layers, upperdir, workdir))
}

// overlayOptions renders the overlayfs mount data string.
func overlayOptions(lowerdirs []string, upperdir, workdir string) string {
	escaped := make([]string, len(lowerdirs))
	for i, dir := range lowerdirs {
		escaped[i] = escapeOverlayPath(dir)
	}

	opts := "lowerdir=" + strings.Join(escaped, ":")
	if upperdir != "" && workdir != "" {
		opts += ",upperdir=" + escapeOverlayPath(upperdir) + ",workdir=" + escapeOverlayPath(workdir)
	}
	return opts
}

var overlayPathEscaper = strings.NewReplacer(`\`, `\\`, `:`, `\:`, `,`, `\,`)

func escapeOverlayPath(p string) string {
	return overlayPathEscaper.Replace(p)
}
