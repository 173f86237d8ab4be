package cmd

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/modman/modman/internal/installer"
	"github.com/modman/modman/internal/logging"
	"github.com/modman/modman/internal/modpkg"
	"github.com/modman/modman/internal/store"
)

var addCmd = &cobra.Command{
	Use:     "add <MOD>...",
	Aliases: []string{"activate"},
	Short:   "Activate one or more mod packages",
	Args:    usageArgs(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := store.LoadAndCheck(workDir)
		if err != nil {
			return err
		}

		for _, arg := range args {
			if err := addOne(cmd.Context(), profile, arg); err != nil {
				return fmt.Errorf("activating %s: %w", arg, err)
			}
		}
		return nil
	},
}

func addOne(ctx context.Context, profile *store.Profile, pkgPath string) error {
	pkg, err := modpkg.Open(pkgPath)
	if err != nil {
		return err
	}
	defer pkg.Close()

	logging.Infof("Activating %s (version %s)...\n", pkgPath, pkg.Version())

	opts := installer.Options{DryRun: dryRun, Concurrency: concurrency}
	if logging.CurrentLevel() >= logging.LevelInfo {
		opts.Progress = progressbar.Default(int64(len(pkg.Paths())), pkgPath)
	}

	if err := installer.Install(ctx, workDir, profile, store.PackagePath(pkgPath), pkg, opts); err != nil {
		return err
	}

	if dryRun {
		logging.Infof("Dry run: would activate %s.\n", pkgPath)
	} else {
		logging.Infof("Activated %s.\n", pkgPath)
	}
	return nil
}

func init() {
	addCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without touching the filesystem")
	rootCmd.AddCommand(addCmd)
}
