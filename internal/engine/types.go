package engine

import (
	"github.com/hybridmount/hybridmount/internal/inventory"
	"github.com/hybridmount/hybridmount/internal/planner"
	"github.com/hybridmount/hybridmount/internal/policy"
	"github.com/hybridmount/hybridmount/internal/state"
)

// ExecutionResult lists, per technique, the modules it mounted.
type ExecutionResult struct {
	// OverlayModuleIDs are modules mounted through overlayfs
	OverlayModuleIDs []string `json:"overlay_module_ids"`

	// MagicModuleIDs are modules handled by magic mount
	MagicModuleIDs []string `json:"magic_module_ids"`

	// HymoModuleIDs are modules injected through HymoFS
	HymoModuleIDs []string `json:"hymo_module_ids"`

	// MountedPartitions are partitions that received at least one mount
	MountedPartitions []string `json:"mounted_partitions"`
}

// MountRequest represents a request to run the mount pipeline.
type MountRequest struct {
	// DryRun stops after planning
	DryRun bool
}

// MountResult represents the result of a mount run.
type MountResult struct {
	// Modules are the modules found by the scan
	Modules []inventory.Module `json:"modules"`

	// Plan is the generated mount plan
	Plan *planner.MountPlan `json:"plan"`

	// Result is nil on a dry run
	Result *ExecutionResult `json:"result,omitempty"`

	// State is the runtime state recorded for this run, nil on a dry run
	State *state.RuntimeState `json:"state,omitempty"`
}

// ModuleInfo describes an installed module for listing.
type ModuleInfo struct {
	inventory.Prop

	// ID is the module directory name
	ID string `json:"id"`

	// Mode is the module-level default mode
	Mode policy.MountMode `json:"mode"`

	// Partitions lists the provided partitions
	Partitions []string `json:"partitions"`

	// PartitionModes is the resolved mode of each provided partition
	PartitionModes map[string]policy.MountMode `json:"partition_modes"`
}

// ModeRequest identifies a module, and optionally one of its partitions,
// whose mode is read or written.
type ModeRequest struct {
	// ModuleID is the module directory name
	ModuleID string

	// Partition is empty for the module-level default
	Partition string

	// Mode is the mode to set; ignored by GetMode
	Mode policy.MountMode
}

// ImportResult represents the result of importing a legacy module list.
type ImportResult struct {
	// Imported is the number of entries merged
	Imported int `json:"imported"`

	// SettingsPath is the file that was updated
	SettingsPath string `json:"settings_path"`
}
