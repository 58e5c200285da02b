package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import mount modes from a legacy module list",
	Long: `Merge a JSON list of the form

  [{"id": "<module-id>", "config": {"default_mode": "magic", "partitions": {"vendor": "overlay"}}}]

into the module settings. Imported entries replace existing ones.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, closer, err := newEngine()
		if err != nil {
			return err
		}
		defer closer.Close()

		result, err := eng.Import(context.Background(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return outputJSON(out, result)
		}
		PrintSuccess(out, fmt.Sprintf("Imported %s into %s", PrintCount(result.Imported, "module", "modules"), result.SettingsPath))
		return nil
	},
}
