package planner

import (
	"path/filepath"
	"sort"

	"github.com/hybridmount/hybridmount/internal/fsops"
	"github.com/hybridmount/hybridmount/internal/inventory"
	"github.com/hybridmount/hybridmount/internal/policy"
)

// Target pairs a module partition directory with its live mount point.
type Target struct {
	// Source is the module's partition directory
	Source string `json:"source"`

	// Target is the absolute partition mount point
	Target string `json:"target"`
}

// MountPlan is the declarative output of Generate, consumed once by the
// engine.
type MountPlan struct {
	// OverlayTargets maps a partition name to its lowerdirs in precedence order
	OverlayTargets map[string][]string `json:"overlay_targets"`

	// MagicTargets are bind-mounted file by file, lowest id first
	MagicTargets []Target `json:"magic_targets"`

	// HymoTargets are injected through HymoFS, lowest id first
	HymoTargets []Target `json:"hymo_targets"`
}

// NewMountPlan creates a new empty MountPlan.
func NewMountPlan() *MountPlan {
	return &MountPlan{
		OverlayTargets: make(map[string][]string),
		MagicTargets:   []Target{},
		HymoTargets:    []Target{},
	}
}

// OverlayPartitions returns the overlay partition names in sorted order.
func (p *MountPlan) OverlayPartitions() []string {
	parts := make([]string, 0, len(p.OverlayTargets))
	for part := range p.OverlayTargets {
		parts = append(parts, part)
	}
	sort.Strings(parts)
	return parts
}

// IsEmpty reports whether the plan has nothing to mount.
func (p *MountPlan) IsEmpty() bool {
	return len(p.OverlayTargets) == 0 && len(p.MagicTargets) == 0 && len(p.HymoTargets) == 0
}

// Planner builds mount plans against a mount root.
type Planner struct {
	fs   fsops.FS
	root string
}

// New creates a Planner. root is the directory partitions live under,
// normally "/".
func New(fs fsops.FS, root string) *Planner {
	if root == "" {
		root = "/"
	}
	return &Planner{fs: fs, root: root}
}

// Generate builds the plan for modules, which must be in inventory order
// (descending id).
func (p *Planner) Generate(modules []inventory.Module, settings *policy.ModuleSettings) *MountPlan {
	plan := NewMountPlan()

	for _, module := range modules {
		for _, partition := range module.Partitions {
			source := module.PartitionPath(partition)
			target := filepath.Join(p.root, partition)

			switch settings.GetMode(module.ID, partition) {
			case policy.Magic:
				plan.MagicTargets = append(plan.MagicTargets, Target{Source: source, Target: target})
			case policy.Hymo:
				plan.HymoTargets = append(plan.HymoTargets, Target{Source: source, Target: target})
			case policy.Auto, policy.Overlay:
				// A non-directory cannot be an overlay layer.
				if p.fs.IsDir(source) {
					plan.OverlayTargets[partition] = append(plan.OverlayTargets[partition], source)
				} else {
					plan.MagicTargets = append(plan.MagicTargets, Target{Source: source, Target: target})
				}
			}
		}
	}

	reverse(plan.MagicTargets)
	reverse(plan.HymoTargets)

	return plan
}

func reverse(targets []Target) {
	for i, j := 0, len(targets)-1; i < j; i, j = i+1, j-1 {
		targets[i], targets[j] = targets[j], targets[i]
	}
}
