package cmd

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/modman/modman/internal/logging"
	"github.com/modman/modman/internal/remover"
	"github.com/modman/modman/internal/store"
)

var removeCmd = &cobra.Command{
	Use:     "remove <MOD>...",
	Aliases: []string{"deactivate"},
	Short:   "Deactivate one or more mod packages",
	Args:    usageArgs(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := store.LoadAndCheck(workDir)
		if err != nil {
			return err
		}

		for _, arg := range args {
			pkgPath := store.PackagePath(arg)

			opts := remover.Options{DryRun: dryRun, Concurrency: concurrency}
			if manifest, ok := profile.Mods[pkgPath]; ok && logging.CurrentLevel() >= logging.LevelInfo {
				opts.Progress = progressbar.Default(int64(len(manifest.Files)), arg)
			}

			if err := remover.Remove(cmd.Context(), workDir, profile, pkgPath, opts); err != nil {
				return fmt.Errorf("deactivating %s: %w", arg, err)
			}

			if dryRun {
				logging.Infof("Dry run: would deactivate %s.\n", arg)
			} else {
				logging.Infof("Deactivated %s.\n", arg)
			}
		}
		return nil
	},
}

func init() {
	removeCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without touching the filesystem")
	rootCmd.AddCommand(removeCmd)
}
