// Package inventory discovers installed modules and the partitions each of
// them provides.
//
// Scan yields modules in descending id order. Later phases rely on that
// order for layering precedence: a higher id wins on overlay collisions.
package inventory

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/hybridmount/hybridmount/internal/fsops"
	"github.com/hybridmount/hybridmount/internal/policy"
)

// Marker files recognised inside a module directory.
const (
	ModulePropFile = "module.prop"
	DisableFile    = "disable"
	RemoveFile     = "remove"
	SkipMountFile  = "skip_mount"
)

// reservedNames are directories under the module root that are never modules.
var reservedNames = map[string]struct{}{
	"meta-hybrid": {},
	"lost+found":  {},
	".git":        {},
}

var excludeMarkers = []string{DisableFile, RemoveFile, SkipMountFile}

// Module is one installed module that provides at least one partition.
type Module struct {
	// ID is the module directory name
	ID string `json:"id"`

	// SourcePath is the absolute module directory
	SourcePath string `json:"source_path"`

	// Partitions lists provided partitions in recognized-partition order
	Partitions []string `json:"partitions"`

	// Mode is the module-level default from policy; informational only
	Mode policy.MountMode `json:"mode"`
}

// PartitionPath returns the module's source directory for partition.
func (m Module) PartitionPath(partition string) string {
	return filepath.Join(m.SourcePath, partition)
}

// Scan enumerates moduleDir and returns every enabled module that provides
// at least one of the recognized partitions. A missing moduleDir is not an
// error.
func Scan(fs fsops.FS, moduleDir string, partitions []string, settings *policy.ModuleSettings) ([]Module, error) {
	modules := []Module{}

	exists, err := fs.Exists(moduleDir)
	if err != nil {
		return nil, fmt.Errorf("failed to check module directory %s: %w", moduleDir, err)
	}
	if !exists {
		return modules, nil
	}

	entries, err := fs.ReadDir(moduleDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read module directory %s: %w", moduleDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	for _, id := range names {
		path := filepath.Join(moduleDir, id)
		if !fs.IsDir(path) {
			continue
		}
		if _, reserved := reservedNames[id]; reserved {
			continue
		}

		excluded, err := hasAnyMarker(fs, path)
		if err != nil {
			return nil, err
		}
		if excluded {
			continue
		}

		var provided []string
		for _, part := range partitions {
			if fs.IsDir(filepath.Join(path, part)) {
				provided = append(provided, part)
			}
		}
		if len(provided) == 0 {
			continue
		}

		modules = append(modules, Module{
			ID:         id,
			SourcePath: path,
			Partitions: provided,
			Mode:       settings.GetMode(id, ""),
		})
	}

	return modules, nil
}

func hasAnyMarker(fs fsops.FS, moduleDir string) (bool, error) {
	for _, marker := range excludeMarkers {
		found, err := fs.Exists(filepath.Join(moduleDir, marker))
		if err != nil {
			return false, fmt.Errorf("failed to check %s marker in %s: %w", marker, moduleDir, err)
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}
