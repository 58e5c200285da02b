// Package engine provides the mount orchestration behind every hybridmount
// command.
//
// The engine sits between the CLI and the lower-level packages. It scans the
// module directory, resolves mount modes, builds a plan and executes it
// through the cascading fallback chain (HymoFS, overlayfs, magic mount),
// then records the outcome.
//
// Key components:
//   - Engine: Main orchestrator, the API surface called by the CLI
//   - Execute: The four-phase fallback executor
//   - Mount: Scan, plan, execute and record a full run
//   - Mode/Import: Operator edits of the per-module mode table
package engine

import (
	"github.com/charmbracelet/log"

	"github.com/hybridmount/hybridmount/internal/clock"
	"github.com/hybridmount/hybridmount/internal/config"
	"github.com/hybridmount/hybridmount/internal/fsops"
	"github.com/hybridmount/hybridmount/internal/mount"
	"github.com/hybridmount/hybridmount/internal/state"
)

// OverlayMounter performs a single overlayfs mount.
type OverlayMounter interface {
	MountOverlay(target string, lowerdirs []string, upperdir, workdir string, disableUmount bool) error
}

// HymoInjector drives kernel-assisted directory injection.
type HymoInjector interface {
	IsAvailable() bool
	Clear() error
	InjectDirectory(target, source string) error
}

// MagicMounter bind-mounts module files that no other technique covered.
type MagicMounter interface {
	MountPartitions(stagingDir string, moduleRoots []string, mountSource string, partitions []string, success mount.SuccessMap, disableUmount bool) error
}

// StagingDirs manages the scratch directory used by magic mount.
type StagingDirs interface {
	Select() string
	Ensure(dir string) error
	Cleanup(dir string)
}

// Engine orchestrates all hybridmount operations.
type Engine struct {
	fs         fsops.FS
	overlay    OverlayMounter
	hymo       HymoInjector
	magic      MagicMounter
	staging    StagingDirs
	stateStore state.StateStore
	clock      clock.Clock
	logger     *log.Logger
	cfg        *config.Config
	paths      *config.Paths
}

// New creates a new Engine with the given dependencies.
func New(
	fs fsops.FS,
	overlay OverlayMounter,
	hymo HymoInjector,
	magic MagicMounter,
	staging StagingDirs,
	stateStore state.StateStore,
	clk clock.Clock,
	logger *log.Logger,
	cfg *config.Config,
	paths *config.Paths,
) *Engine {
	return &Engine{
		fs:         fs,
		overlay:    overlay,
		hymo:       hymo,
		magic:      magic,
		staging:    staging,
		stateStore: stateStore,
		clock:      clk,
		logger:     logger,
		cfg:        cfg,
		paths:      paths,
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Paths returns the data paths in use.
func (e *Engine) Paths() *config.Paths {
	return e.paths
}
