package engine

import (
	"context"
	"fmt"

	"github.com/hybridmount/hybridmount/internal/inventory"
	"github.com/hybridmount/hybridmount/internal/planner"
	"github.com/hybridmount/hybridmount/internal/policy"
	"github.com/hybridmount/hybridmount/internal/state"
)

// Mount scans the module directory, plans and executes the mounts, and
// records the outcome as runtime state.
func (e *Engine) Mount(ctx context.Context, req *MountRequest) (*MountResult, error) {
	settings, err := policy.Load(e.fs, e.paths.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to load module settings: %w", err)
	}

	modules, err := inventory.Scan(e.fs, e.cfg.ModuleDir, e.cfg.RecognizedPartitions(), settings)
	if err != nil {
		return nil, fmt.Errorf("failed to scan modules: %w", err)
	}
	e.logger.Info("scanned modules", "dir", e.cfg.ModuleDir, "count", len(modules))

	plan := planner.New(e.fs, e.mountRoot()).Generate(modules, settings)
	e.logger.Debug("generated plan",
		"overlay", len(plan.OverlayTargets),
		"magic", len(plan.MagicTargets),
		"hymo", len(plan.HymoTargets))

	result := &MountResult{Modules: modules, Plan: plan}
	if req.DryRun {
		return result, nil
	}

	exec, err := e.Execute(ctx, plan)
	if err != nil {
		return nil, err
	}
	result.Result = exec

	rs := state.NewRuntimeState(e.clock.Now(), e.cfg.MountSource)
	rs.OverlayModules = exec.OverlayModuleIDs
	rs.MagicModules = exec.MagicModuleIDs
	rs.HymoModules = exec.HymoModuleIDs
	rs.ActivePartitions = exec.MountedPartitions
	if err := e.stateStore.Save(rs); err != nil {
		return nil, fmt.Errorf("failed to save runtime state: %w", err)
	}
	result.State = rs

	e.logger.Info("mount complete",
		"overlay", len(exec.OverlayModuleIDs),
		"magic", len(exec.MagicModuleIDs),
		"hymo", len(exec.HymoModuleIDs))
	return result, nil
}
