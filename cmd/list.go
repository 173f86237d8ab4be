package cmd

import (
	"github.com/spf13/cobra"

	"github.com/modman/modman/internal/logging"
	"github.com/modman/modman/internal/modpkg"
	"github.com/modman/modman/internal/store"
)

var (
	listFiles  bool
	listReadme bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed mods and (optionally) their files or READMEs",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := store.LoadAndCheck(workDir)
		if err != nil {
			return err
		}

		for pkgPath, manifest := range profile.Mods {
			logging.Infof("%s (v%s)\n", pkgPath, manifest.Version)

			if listReadme {
				pkg, err := modpkg.Open(string(pkgPath))
				if err != nil {
					logging.Warnf("Couldn't open %s: %v\n", pkgPath, err)
				} else {
					if pkg.Version().Compare(manifest.Version) != 0 {
						logging.Warnf("%s on disk is version %s, but the profile recorded %s\n", pkgPath, pkg.Version(), manifest.Version)
					}
					logging.Infof("%s\n", pkg.Readme())
					pkg.Close()
				}
			}

			if listFiles {
				for rel := range manifest.Files {
					logging.Infof("\t%s\n", rel)
				}
			}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listFiles, "files", "f", false, "List the files installed by each mod")
	listCmd.Flags().BoolVarP(&listReadme, "readme", "r", false, "Print each mod's README under its name")
	rootCmd.AddCommand(listCmd)
}
