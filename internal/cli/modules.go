package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

var modulesCmd = &cobra.Command{
	Use:     "modules",
	Aliases: []string{"ls"},
	Short:   "List mountable modules",
	Long: `List every enabled module that provides at least one recognized
partition, with its module.prop metadata and configured mount mode.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closer, err := newEngine()
		if err != nil {
			return err
		}
		defer closer.Close()

		infos, err := eng.ListModules(context.Background())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, infos)
		}

		if len(infos) == 0 {
			PrintEmptyState(out, "No modules found in "+eng.Config().ModuleDir)
			return nil
		}

		rows := make([][]string, 0, len(infos))
		for _, info := range infos {
			rows = append(rows, []string{
				info.ID,
				info.Name,
				info.Version,
				info.Mode.String(),
				strings.Join(info.Partitions, ","),
			})
		}
		PrintTable(out, []string{"ID", "NAME", "VERSION", "MODE", "PARTITIONS"}, rows)
		return nil
	},
}
