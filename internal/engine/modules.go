package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/hybridmount/hybridmount/internal/inventory"
	"github.com/hybridmount/hybridmount/internal/policy"
)

// ListModules returns the mountable modules with their metadata and
// resolved modes, highest id first.
func (e *Engine) ListModules(ctx context.Context) ([]ModuleInfo, error) {
	settings, err := policy.Load(e.fs, e.paths.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to load module settings: %w", err)
	}

	modules, err := inventory.Scan(e.fs, e.cfg.ModuleDir, e.cfg.RecognizedPartitions(), settings)
	if err != nil {
		return nil, fmt.Errorf("failed to scan modules: %w", err)
	}

	infos := make([]ModuleInfo, 0, len(modules))
	for _, m := range modules {
		prop, err := inventory.ReadProp(e.fs, m.SourcePath)
		if err != nil {
			e.logger.Debug("module.prop unreadable", "module", m.ID, "err", err)
		}
		info := ModuleInfo{
			Prop:           prop,
			ID:             m.ID,
			Mode:           m.Mode,
			Partitions:     m.Partitions,
			PartitionModes: make(map[string]policy.MountMode, len(m.Partitions)),
		}
		for _, part := range m.Partitions {
			info.PartitionModes[part] = settings.GetMode(m.ID, part)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// GetMode resolves the mode of a module or one of its partitions.
func (e *Engine) GetMode(ctx context.Context, req *ModeRequest) (policy.MountMode, error) {
	if err := e.validateModeRequest(req); err != nil {
		return policy.Auto, err
	}
	settings, err := policy.Load(e.fs, e.paths.Settings)
	if err != nil {
		return policy.Auto, fmt.Errorf("failed to load module settings: %w", err)
	}
	return settings.GetMode(req.ModuleID, req.Partition), nil
}

// SetMode stores a mode override and saves the settings file. The module
// does not need to be installed yet.
func (e *Engine) SetMode(ctx context.Context, req *ModeRequest) error {
	if err := e.validateModeRequest(req); err != nil {
		return err
	}
	settings, err := policy.Load(e.fs, e.paths.Settings)
	if err != nil {
		return fmt.Errorf("failed to load module settings: %w", err)
	}

	settings.SetMode(req.ModuleID, req.Partition, req.Mode)
	if err := settings.Save(e.fs, e.paths.Settings); err != nil {
		return fmt.Errorf("failed to save module settings: %w", err)
	}
	e.logger.Info("mode updated", "module", req.ModuleID, "partition", req.Partition, "mode", req.Mode)
	return nil
}

// Import merges a legacy module list file into the settings file.
func (e *Engine) Import(ctx context.Context, path string) (*ImportResult, error) {
	data, err := e.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	list, err := policy.ParseList(data)
	if err != nil {
		return nil, err
	}
	for _, entry := range list {
		if err := e.fs.ValidateIdentifier(entry.ID); err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidModuleID, entry.ID, err)
		}
	}

	settings, err := policy.Load(e.fs, e.paths.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to load module settings: %w", err)
	}
	settings.ImportFromList(list)
	if err := settings.Save(e.fs, e.paths.Settings); err != nil {
		return nil, fmt.Errorf("failed to save module settings: %w", err)
	}

	e.logger.Info("imported module list", "file", filepath.Base(path), "entries", len(list))
	return &ImportResult{Imported: len(list), SettingsPath: e.paths.Settings}, nil
}

func (e *Engine) validateModeRequest(req *ModeRequest) error {
	if err := e.fs.ValidateIdentifier(req.ModuleID); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidModuleID, req.ModuleID, err)
	}
	if req.Partition != "" && !slices.Contains(e.cfg.RecognizedPartitions(), req.Partition) {
		return fmt.Errorf("%w: %s", ErrInvalidPartition, req.Partition)
	}
	return nil
}
