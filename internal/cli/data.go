package cli

import (
	"fmt"

	"github.com/andy/fuellog/internal/backup"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all entries and history to a JSON backup",
	Long: `Export all entries and their history to a versioned JSON document.

Without --output the file is written to the backup directory from the config,
named after the current time. Use "-o -" to write to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		path, _ := cmd.Flags().GetString("output")
		if path == "-" {
			_, err := appInstance.BackupService.Export(ctx, cmd.OutOrStdout())
			return err
		}
		if path == "" {
			path = appInstance.DefaultBackupPath()
		}

		msg, err := appInstance.BackupService.ExportToFile(ctx, path)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n  %s\n", msg, path)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a JSON backup",
	Long: `Import a JSON backup produced by "fuellog export". Use "-" to read stdin.

By default entries are appended under new IDs and the file's history is not
imported. With --replace every existing entry and history record is deleted
first and the backup is restored with its original IDs and history.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mode := backup.ModeAppend
		if replace, _ := cmd.Flags().GetBool("replace"); replace {
			mode = backup.ModeReplace

			yes, _ := cmd.Flags().GetBool("yes")
			if !yes && !confirmPrompt(cmd, "This will delete ALL existing entries and history before importing. Continue?") {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
		}

		var msg string
		var err error
		if args[0] == "-" {
			msg, err = appInstance.BackupService.Import(ctx, cmd.InOrStdin(), mode)
		} else {
			msg, err = appInstance.BackupService.ImportFromFile(ctx, args[0], mode)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", msg)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Destination file ('-' for stdout)")

	importCmd.Flags().Bool("replace", false, "Delete all existing data and restore the backup as is")
	importCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}
