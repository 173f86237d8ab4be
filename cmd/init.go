package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/modman/modman/internal/logging"
	"github.com/modman/modman/internal/store"
)

var initRoot string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the profile and backup tree for a game directory",
	Long:  "Creates modman.profile and the modman-backup/ tree in the working directory, pointed at --root. Fails if either already exists.",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if initRoot == "" {
			return wrapUsageError(fmt.Errorf("--root is required"))
		}
		if info, err := os.Stat(initRoot); err != nil || !info.IsDir() {
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("checking --root %s: %w", initRoot, err)
			}
			return wrapUsageError(fmt.Errorf("%s is not an existing directory", initRoot))
		}
		profile := &store.Profile{
			RootDirectory: initRoot,
			Mods:          make(map[store.PackagePath]store.ModManifest),
		}
		if err := store.CreateNew(workDir, profile); err != nil {
			return err
		}
		logging.Infof("Initialized modman tracking for %s.\n", initRoot)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initRoot, "root", "", "Game directory to manage")
	rootCmd.AddCommand(initCmd)
}
