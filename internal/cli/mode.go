package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hybridmount/hybridmount/internal/engine"
	"github.com/hybridmount/hybridmount/internal/policy"
)

var modeCmd = &cobra.Command{
	Use:   "mode",
	Short: "Show or change module mount modes",
	Long: `Show or change the mount mode of a module or one of its partitions.

Modes: auto, overlay, magic, hymo. A partition override wins over the
module default, which wins over auto.`,
}

var modeGetCmd = &cobra.Command{
	Use:   "get <module-id> [partition]",
	Short: "Show the resolved mount mode",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closer, err := newEngine()
		if err != nil {
			return err
		}
		defer closer.Close()

		req := &engine.ModeRequest{ModuleID: args[0]}
		if len(args) == 2 {
			req.Partition = args[1]
		}

		mode, err := eng.GetMode(context.Background(), req)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, modeOutput{ModuleID: req.ModuleID, Partition: req.Partition, Mode: mode})
		}
		PrintMode(out, modeLabel(req), mode)
		return nil
	},
}

var modeSetCmd = &cobra.Command{
	Use:   "set <module-id> [partition] <mode>",
	Short: "Set a mount mode override",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := policy.ParseMode(args[len(args)-1])
		if err != nil {
			return err
		}

		req := &engine.ModeRequest{ModuleID: args[0], Mode: mode}
		if len(args) == 3 {
			req.Partition = args[1]
		}

		eng, closer, err := newEngine()
		if err != nil {
			return err
		}
		defer closer.Close()

		if err := eng.SetMode(context.Background(), req); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, modeOutput{ModuleID: req.ModuleID, Partition: req.Partition, Mode: mode})
		}
		PrintSuccess(out, "Set "+modeLabel(req)+" to "+mode.String())
		return nil
	},
}

type modeOutput struct {
	ModuleID  string           `json:"module_id"`
	Partition string           `json:"partition,omitempty"`
	Mode      policy.MountMode `json:"mode"`
}

func modeLabel(req *engine.ModeRequest) string {
	if req.Partition == "" {
		return req.ModuleID
	}
	return req.ModuleID + "/" + req.Partition
}

func init() {
	modeCmd.AddCommand(modeGetCmd)
	modeCmd.AddCommand(modeSetCmd)
}
