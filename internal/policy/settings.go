// Package policy resolves which mount mode applies to a (module, partition)
// pair and persists the operator's overrides.
//
// Resolution is total: a per-partition override wins over the module-level
// default, which wins over the global default (Auto). Unknown modules and
// partitions resolve to Auto and never produce an error.
package policy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/hybridmount/hybridmount/internal/fsops"
)

// PartitionConfig holds the mode overrides of one module.
type PartitionConfig struct {
	DefaultMode MountMode            `json:"default_mode"`
	Partitions  map[string]MountMode `json:"partitions,omitempty"`
}

// ModuleSettings is the persisted override table, keyed by module id.
type ModuleSettings struct {
	Modules map[string]PartitionConfig `json:"modules,omitempty"`
}

// ModuleEntry is one element of the legacy list format accepted by
// ImportFromList.
type ModuleEntry struct {
	ID     string          `json:"id"`
	Config PartitionConfig `json:"config"`
}

// NewModuleSettings returns an empty settings table.
func NewModuleSettings() *ModuleSettings {
	return &ModuleSettings{Modules: make(map[string]PartitionConfig)}
}

// GetMode resolves the mode for a module. An empty partition asks for the
// module-level default.
func (s *ModuleSettings) GetMode(moduleID, partition string) MountMode {
	if s == nil {
		return Auto
	}
	cfg, ok := s.Modules[moduleID]
	if !ok {
		return Auto
	}
	if partition != "" {
		if mode, ok := cfg.Partitions[partition]; ok {
			return mode
		}
	}
	return cfg.DefaultMode
}

// SetMode upserts an override. An empty partition sets the module-level
// default; the module entry is created on demand.
func (s *ModuleSettings) SetMode(moduleID, partition string, mode MountMode) {
	if s.Modules == nil {
		s.Modules = make(map[string]PartitionConfig)
	}
	cfg := s.Modules[moduleID]
	if partition == "" {
		cfg.DefaultMode = mode
	} else {
		if cfg.Partitions == nil {
			cfg.Partitions = make(map[string]MountMode)
		}
		cfg.Partitions[partition] = mode
	}
	s.Modules[moduleID] = cfg
}

// ImportFromList merges entries from the legacy list format. Later entries
// overwrite earlier ones key by key.
func (s *ModuleSettings) ImportFromList(list []ModuleEntry) {
	for _, item := range list {
		s.SetMode(item.ID, "", item.Config.DefaultMode)
		for part, mode := range item.Config.Partitions {
			s.SetMode(item.ID, part, mode)
		}
	}
}

// Load reads the settings file. A missing file yields empty settings; a
// file that cannot be parsed is an error and is left untouched.
func Load(fs fsops.FS, path string) (*ModuleSettings, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewModuleSettings(), nil
		}
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	settings := NewModuleSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse module settings %s: %w", path, err)
	}
	if settings.Modules == nil {
		settings.Modules = make(map[string]PartitionConfig)
	}
	return settings, nil
}

// Save writes the whole settings file atomically, creating parent
// directories as needed. Empty override maps are omitted.
func (s *ModuleSettings) Save(fs fsops.FS, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal module settings: %w", err)
	}

	if err := fs.AtomicWrite(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file %s: %w", path, err)
	}
	return nil
}

// ParseList decodes the legacy list format used by ImportFromList.
func ParseList(data []byte) ([]ModuleEntry, error) {
	var list []ModuleEntry
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse module list: %w", err)
	}
	return list, nil
}
