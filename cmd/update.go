package cmd

import (
	"github.com/spf13/cobra"

	"github.com/modman/modman/internal/modpkg"
	"github.com/modman/modman/internal/store"
	"github.com/modman/modman/internal/updatepkg"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Reconcile installed mod files against an externally-updated game directory",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := store.LoadAndCheck(workDir)
		if err != nil {
			return err
		}

		opts := updatepkg.Options{DryRun: dryRun, Concurrency: concurrency}
		open := func(pkgPath store.PackagePath) (modpkg.Package, error) {
			return modpkg.Open(string(pkgPath))
		}
		return updatepkg.Update(cmd.Context(), workDir, profile, open, opts)
	},
}

func init() {
	updateCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would change without touching the filesystem")
	rootCmd.AddCommand(updateCmd)
}
