// Package planner maps scanned modules and the mount policy to a MountPlan.
//
// The planner is deterministic: identical ordered inputs always produce the
// same plan. It encodes layering precedence in list order:
//   - overlay lowerdir lists keep inventory order (highest id first), so the
//     highest id wins on collisions within a partition
//   - magic and hymo lists are reversed to lowest id first, so later
//     entries are processed last and override earlier ones
package planner
