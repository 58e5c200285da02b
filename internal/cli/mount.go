package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hybridmount/hybridmount/internal/engine"
	"github.com/hybridmount/hybridmount/internal/planner"
)

var mountDryRun bool

var mountCmd = &cobra.Command{
	Use:   "mount",
	Short: "Mount all enabled modules",
	Long: `Scan the module directory, plan a mount technique for every module
partition and execute the plan.

HymoFS targets fall back to overlayfs, and overlayfs failures fall back to
per-file bind mounts. The outcome is recorded for the status command.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closer, err := newEngine()
		if err != nil {
			return err
		}
		defer closer.Close()

		result, err := eng.Mount(context.Background(), &engine.MountRequest{DryRun: mountDryRun})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, result)
		}

		if mountDryRun {
			printPlan(out, result)
			return nil
		}
		printExecution(out, result)
		return nil
	},
}

func init() {
	mountCmd.Flags().BoolVar(&mountDryRun, "dry-run", false, "Show the mount plan without mounting")
}

func printPlan(w io.Writer, result *engine.MountResult) {
	PrintSection(w, fmt.Sprintf("Mount plan (%s)", PrintCount(len(result.Modules), "module", "modules")))
	if result.Plan.IsEmpty() {
		PrintEmptyState(w, "Nothing to mount")
		return
	}

	for _, part := range result.Plan.OverlayPartitions() {
		PrintLabelValue(w, "overlay "+part, PrintCount(len(result.Plan.OverlayTargets[part]), "layer", "layers"))
		PrintList(w, result.Plan.OverlayTargets[part], 2)
	}
	printTargets(w, "magic", result.Plan.MagicTargets)
	printTargets(w, "hymo", result.Plan.HymoTargets)
}

func printTargets(w io.Writer, label string, targets []planner.Target) {
	if len(targets) == 0 {
		return
	}
	items := make([]string, 0, len(targets))
	for _, t := range targets {
		items = append(items, t.Source+" -> "+t.Target)
	}
	PrintLabelValue(w, label, PrintCount(len(targets), "target", "targets"))
	PrintList(w, items, 2)
}

func printExecution(w io.Writer, result *engine.MountResult) {
	res := result.Result
	mounted := len(res.OverlayModuleIDs) + len(res.MagicModuleIDs) + len(res.HymoModuleIDs)
	if mounted == 0 && !result.Plan.IsEmpty() {
		PrintWarning(w, "No module was mounted, see the log for failures")
	} else {
		PrintSuccess(w, "Mount complete")
	}
	PrintLabelValue(w, "Overlay", joinOrNone(res.OverlayModuleIDs))
	PrintLabelValue(w, "Magic", joinOrNone(res.MagicModuleIDs))
	PrintLabelValue(w, "HymoFS", joinOrNone(res.HymoModuleIDs))
	PrintLabelValue(w, "Partitions", joinOrNone(res.MountedPartitions))
}
