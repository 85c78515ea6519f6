package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all entries and history",
	Long: `Delete every fuel entry and every history record.

Examples:
  fuellog export && fuellog reset     # keep a backup first
  fuellog reset --yes                 # no confirmation prompt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirmPrompt(cmd, "This will delete ALL fuel entries and their history. Continue?") {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}

		if err := appInstance.FuelService.DeleteAll(ctx); err != nil {
			return fmt.Errorf("failed to clear entries: %w", err)
		}
		if err := appInstance.FuelService.DeleteAllHistory(ctx); err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}

		fmt.Fprintln(out, "All entries and history have been deleted.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}
