package engine

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/hybridmount/hybridmount/internal/inventory"
	"github.com/hybridmount/hybridmount/internal/mount"
	"github.com/hybridmount/hybridmount/internal/planner"
)

// execution accumulates state across the four phases. It is owned by a
// single Execute call and is only mutated from that goroutine.
type execution struct {
	success    mount.SuccessMap
	magicQueue []string
	overlayMap map[string][]string
	fallbacks  []hymoFallback

	overlayIDs map[string]struct{}
	hymoIDs    map[string]struct{}
	mounted    map[string]struct{}
}

// hymoFallback is a directory that HymoFS could not take, headed for
// overlay instead.
type hymoFallback struct {
	source    string
	partition string
}

// overlayOp is one partition's overlay mount.
type overlayOp struct {
	partition string
	target    string
	lowerdirs []string
}

func newExecution(plan *planner.MountPlan) *execution {
	overlayMap := make(map[string][]string, len(plan.OverlayTargets))
	for part, dirs := range plan.OverlayTargets {
		overlayMap[part] = append([]string(nil), dirs...)
	}
	return &execution{
		success:    mount.NewSuccessMap(),
		overlayMap: overlayMap,
		overlayIDs: make(map[string]struct{}),
		hymoIDs:    make(map[string]struct{}),
		mounted:    make(map[string]struct{}),
	}
}

// Execute runs plan through the fallback chain. Individual mount failures
// never abort the run; they reroute the affected modules to the next
// technique. Only a cancelled context is returned as an error.
func (e *Engine) Execute(ctx context.Context, plan *planner.MountPlan) (*ExecutionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x := newExecution(plan)
	for _, t := range plan.MagicTargets {
		x.magicQueue = append(x.magicQueue, inventory.FindModuleRoot(e.fs, t.Source))
	}

	e.injectHymo(x, plan.HymoTargets)
	e.mergeFallbacks(x)
	e.mountOverlays(x)
	magicIDs := e.mountMagic(x)

	return &ExecutionResult{
		OverlayModuleIDs:  sortedKeys(x.overlayIDs),
		MagicModuleIDs:    magicIDs,
		HymoModuleIDs:     sortedKeys(x.hymoIDs),
		MountedPartitions: sortedKeys(x.mounted),
	}, nil
}

// injectHymo is phase 1.
func (e *Engine) injectHymo(x *execution, targets []planner.Target) {
	if len(targets) == 0 {
		return
	}

	if !e.hymo.IsAvailable() {
		e.logger.Warn("hymofs requested but kernel support is missing, falling back", "targets", len(targets))
		for _, t := range targets {
			e.rerouteHymo(x, t)
		}
		return
	}

	e.logger.Info(">> phase 1: hymofs injection", "targets", len(targets))
	if err := e.hymo.Clear(); err != nil {
		e.logger.Warn("failed to reset hymofs rules", "err", err)
	}

	for _, t := range targets {
		root := inventory.FindModuleRoot(e.fs, t.Source)
		id := inventory.ModuleID(e.fs, t.Source)
		e.logger.Debug("injecting", "source", t.Source, "target", t.Target)

		if err := e.hymo.InjectDirectory(t.Target, t.Source); err != nil {
			e.logger.Error("hymofs injection failed, queueing fallback", "module", id, "target", t.Target, "err", err)
			e.rerouteHymo(x, t)
			continue
		}

		partition := e.partitionOf(t.Target)
		x.success.Mark(root, partition)
		x.mounted[partition] = struct{}{}
		if id != "" {
			x.hymoIDs[id] = struct{}{}
		}
	}
}

// rerouteHymo sends a hymo target to overlay when it is a directory and to
// magic mount otherwise.
func (e *Engine) rerouteHymo(x *execution, t planner.Target) {
	if e.fs.IsDir(t.Source) {
		x.fallbacks = append(x.fallbacks, hymoFallback{source: t.Source, partition: e.partitionOf(t.Target)})
		return
	}
	x.magicQueue = append(x.magicQueue, inventory.FindModuleRoot(e.fs, t.Source))
}

// mergeFallbacks is phase 2.
func (e *Engine) mergeFallbacks(x *execution) {
	for _, f := range x.fallbacks {
		x.overlayMap[f.partition] = append(x.overlayMap[f.partition], f.source)
	}
	x.fallbacks = nil
}

// mountOverlays is phase 3. Partitions are mounted concurrently; outcomes
// are folded into x only after every mount has returned.
func (e *Engine) mountOverlays(x *execution) {
	partitions := make([]string, 0, len(x.overlayMap))
	for part := range x.overlayMap {
		partitions = append(partitions, part)
	}
	sort.Strings(partitions)

	var ops []overlayOp
	for _, part := range partitions {
		lowerdirs := x.overlayMap[part]
		if len(lowerdirs) == 0 {
			continue
		}
		target := filepath.Join(e.mountRoot(), part)
		if !e.fs.IsDir(target) {
			e.logger.Warn("skipping overlayfs, target is not a directory", "target", target)
			for _, dir := range lowerdirs {
				x.magicQueue = append(x.magicQueue, inventory.FindModuleRoot(e.fs, dir))
			}
			continue
		}
		ops = append(ops, overlayOp{partition: part, target: target, lowerdirs: lowerdirs})
	}
	if len(ops) == 0 {
		return
	}

	e.logger.Info(">> phase 3: overlayfs execution", "partitions", len(ops))
	outcomes := make([]error, len(ops))
	var g errgroup.Group
	for i, op := range ops {
		i, op := i, op
		g.Go(func() error {
			e.logger.Info("mounting overlay", "target", op.target, "layers", len(op.lowerdirs))
			outcomes[i] = e.overlay.MountOverlay(op.target, op.lowerdirs, "", "", e.cfg.DisableUmount)
			return nil
		})
	}
	_ = g.Wait()

	failed := make(map[string]struct{})
	for i, op := range ops {
		if err := outcomes[i]; err != nil {
			e.logger.Warn("overlayfs failed, triggering fallback", "target", op.target, "err", err)
			for _, dir := range op.lowerdirs {
				x.magicQueue = append(x.magicQueue, inventory.FindModuleRoot(e.fs, dir))
				if id := inventory.ModuleID(e.fs, dir); id != "" {
					failed[id] = struct{}{}
				}
			}
			continue
		}
		x.mounted[op.partition] = struct{}{}
		for _, dir := range op.lowerdirs {
			x.success.Mark(inventory.FindModuleRoot(e.fs, dir), op.partition)
			if id := inventory.ModuleID(e.fs, dir); id != "" {
				x.overlayIDs[id] = struct{}{}
			}
		}
	}

	// A failure anywhere withdraws the module's overlay credit everywhere.
	for id := range failed {
		delete(x.overlayIDs, id)
	}
}

// mountMagic is phase 4. It returns the ids credited to magic mount, or
// nil when the batch failed.
func (e *Engine) mountMagic(x *execution) []string {
	roots := dedupe(x.magicQueue)
	if len(roots) == 0 {
		return []string{}
	}

	ids := make([]string, 0, len(roots))
	for _, root := range roots {
		ids = append(ids, filepath.Base(root))
	}
	ids = dedupe(ids)

	stagingDir := e.cfg.TempDir
	if stagingDir == "" {
		stagingDir = e.staging.Select()
	}
	defer e.staging.Cleanup(stagingDir)

	e.logger.Info(">> phase 4: magic mount", "modules", len(roots), "staging", stagingDir)

	if err := e.staging.Ensure(stagingDir); err != nil {
		e.logger.Error("magic mount critical failure", "err", err)
		return []string{}
	}

	partitions := e.cfg.RecognizedPartitions()
	if err := e.magic.MountPartitions(stagingDir, roots, e.cfg.MountSource, partitions, x.success, e.cfg.DisableUmount); err != nil {
		e.logger.Error("magic mount critical failure", "err", err)
		return []string{}
	}

	// Magic mount skips partitions without a live mount point.
	for _, part := range partitions {
		if !e.fs.IsDir(filepath.Join(e.mountRoot(), part)) {
			continue
		}
		for _, root := range roots {
			if e.fs.IsDir(filepath.Join(root, part)) {
				x.mounted[part] = struct{}{}
				break
			}
		}
	}
	return ids
}

func (e *Engine) mountRoot() string {
	if e.cfg.MountRoot == "" {
		return "/"
	}
	return e.cfg.MountRoot
}

// partitionOf names the partition mounted at target, relative to the
// mount root.
func (e *Engine) partitionOf(target string) string {
	rel, err := filepath.Rel(e.mountRoot(), target)
	if err != nil || strings.HasPrefix(rel, "..") {
		return strings.TrimPrefix(filepath.Clean(target), "/")
	}
	return rel
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func dedupe(items []string) []string {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return sortedKeys(set)
}
