package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modman/modman/internal/logging"
	"github.com/modman/modman/internal/store"
	"github.com/modman/modman/internal/verifier"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the journal, backups, and installed files against the profile",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := store.LoadAndCheck(workDir)
		if err != nil {
			return err
		}

		report, err := verifier.Verify(cmd.Context(), workDir, profile, verifier.Options{Concurrency: concurrency})
		if err != nil {
			return err
		}

		if !report.JournalAbsent {
			logging.Warnf("An activation journal is present - a previous `modman add` may have been interrupted. Run `modman repair`.\n")
		}
		for _, rel := range report.UnknownFiles {
			logging.Warnf("%s under modman-backup/originals/ isn't referenced by the profile or the journal.\n", rel)
		}
		for _, rel := range report.BackupMismatches {
			logging.Warnf("Backup of %s doesn't match its recorded hash.\n", rel)
		}
		for _, rel := range report.InstalledMismatches {
			logging.Warnf("Installed file %s doesn't match its recorded hash. Run `modman update`.\n", rel)
		}

		if report.OK() {
			logging.Infof("Everything checks out.\n")
			return nil
		}
		return fmt.Errorf("one or more checks failed")
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
