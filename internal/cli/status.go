package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hybridmount/hybridmount/internal/engine"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the outcome of the last mount run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closer, err := newEngine()
		if err != nil {
			return err
		}
		defer closer.Close()

		out := cmd.OutOrStdout()
		st, err := eng.Status(context.Background())
		if errors.Is(err, engine.ErrStateMissing) {
			if jsonOutput {
				return outputJSON(out, struct{}{})
			}
			PrintEmptyState(out, "No mount run recorded")
			return nil
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(out, st)
		}

		PrintSection(out, "Last mount run")
		PrintLabelValue(out, "Time", st.Timestamp.Local().Format(time.DateTime))
		PrintLabelValue(out, "Mount source", st.MountSource)
		PrintLabelValue(out, "Modules", PrintCount(st.ModuleCount(), "module", "modules"))
		PrintLabelValue(out, "Overlay", joinOrNone(st.OverlayModules))
		PrintLabelValue(out, "Magic", joinOrNone(st.MagicModules))
		PrintLabelValue(out, "HymoFS", joinOrNone(st.HymoModules))
		PrintLabelValue(out, "Partitions", joinOrNone(st.ActivePartitions))
		if st.ModuleCount() == 0 {
			fmt.Fprintln(out)
			PrintWarning(out, "The last run mounted no modules")
		}
		return nil
	},
}
