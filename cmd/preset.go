package cmd

import (
	"bytes"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/modman/modman/internal/cliconfig"
	"github.com/modman/modman/internal/logging"
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage saved option presets",
}

var (
	presetWorkDir *string
	presetDryRun  *bool
	presetVerbose *int
)

var presetSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the current global flags as a named preset",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := &cliconfig.Config{}
		if cmd.Flags().Changed("directory") {
			c.WorkDir = presetWorkDir
		}
		if cmd.Flags().Changed("dry-run") {
			c.DryRun = presetDryRun
		}
		if cmd.Flags().Changed("verbose") {
			c.Verbose = presetVerbose
		}

		if err := cliconfig.Save(args[0], c); err != nil {
			return err
		}
		logging.Infof("Preset %q saved to %s.\n", args[0], cliconfig.Dir())
		return nil
	},
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved presets",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := cliconfig.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			logging.Infof("No presets saved.\n")
			return nil
		}
		for _, n := range names {
			logging.Infof("%s\n", n)
		}
		return nil
	},
}

var presetShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a preset's contents",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cliconfig.Load(args[0])
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return err
		}
		logging.Infof("%s", buf.String())
		return nil
	},
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved preset",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cliconfig.Delete(args[0]); err != nil {
			return err
		}
		logging.Infof("Preset %q deleted.\n", args[0])
		return nil
	},
}

func init() {
	presetWorkDir = presetSaveCmd.Flags().String("directory", "", "Working directory to save")
	presetDryRun = presetSaveCmd.Flags().Bool("dry-run", false, "Dry-run default to save")
	presetVerbose = presetSaveCmd.Flags().Int("verbose", 0, "Verbosity level to save")

	presetCmd.AddCommand(presetSaveCmd, presetListCmd, presetShowCmd, presetDeleteCmd)
	rootCmd.AddCommand(presetCmd)
}
