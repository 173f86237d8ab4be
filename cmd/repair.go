package cmd

import (
	"github.com/spf13/cobra"

	"github.com/modman/modman/internal/repairer"
	"github.com/modman/modman/internal/store"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Undo an activation journal left behind by an interrupted `modman add`",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := store.LoadAndCheck(workDir)
		if err != nil {
			return err
		}
		return repairer.Repair(cmd.Context(), workDir, profile, repairer.Options{DryRun: dryRun})
	},
}

func init() {
	repairCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would be undone without touching the filesystem")
	rootCmd.AddCommand(repairCmd)
}
