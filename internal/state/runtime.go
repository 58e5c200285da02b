package state

import "time"

// RuntimeState is the record of a completed mount run.
type RuntimeState struct {
	// Timestamp is when the run finished
	Timestamp time.Time `json:"timestamp"`

	// MountSource is the device name carried by the mounts
	MountSource string `json:"mount_source"`

	// OverlayModules lists modules mounted through overlayfs
	OverlayModules []string `json:"overlay_modules"`

	// MagicModules lists modules mounted by per-file bind mounts
	MagicModules []string `json:"magic_modules"`

	// HymoModules lists modules injected through HymoFS
	HymoModules []string `json:"hymo_modules"`

	// ActivePartitions lists partitions that received at least one mount
	ActivePartitions []string `json:"active_partitions"`
}

// NewRuntimeState creates an empty RuntimeState stamped at ts.
func NewRuntimeState(ts time.Time, mountSource string) *RuntimeState {
	return &RuntimeState{
		Timestamp:        ts,
		MountSource:      mountSource,
		OverlayModules:   []string{},
		MagicModules:     []string{},
		HymoModules:      []string{},
		ActivePartitions: []string{},
	}
}

// ModuleCount returns the number of distinct modules mounted by any
// technique.
func (s *RuntimeState) ModuleCount() int {
	seen := make(map[string]struct{})
	for _, list := range [][]string{s.OverlayModules, s.MagicModules, s.HymoModules} {
		for _, id := range list {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}
