package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/modman/modman/internal/apperr"
	"github.com/modman/modman/internal/cliconfig"
	"github.com/modman/modman/internal/logging"
	"github.com/modman/modman/internal/workpool"
)

var (
	workDir     string
	verboseFlag int
	profileName string
	dryRun      bool
	concurrency int
	logFile     string
)

var rootCmd = &cobra.Command{
	Use:           "modman",
	Short:         "A transactional mod manager for game directories",
	Long:          "modman activates and deactivates mod packages against a game directory, keeping a crash-recoverable journal and content-addressed backups of whatever it overwrites.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if profileName != "" {
			preset, err := cliconfig.Load(profileName)
			if err != nil {
				return err
			}
			if preset.WorkDir != nil && !cmd.Flags().Changed("directory") {
				workDir = *preset.WorkDir
			}
			if preset.DryRun != nil && !cmd.Flags().Changed("dry-run") {
				dryRun = *preset.DryRun
			}
			if preset.Verbose != nil && !cmd.Flags().Changed("verbose") {
				verboseFlag = *preset.Verbose
			}
		}

		logging.SetVerbosity(verboseFlag)
		if err := logging.SetOutputFile(logFile); err != nil {
			return fmt.Errorf("opening log file %q: %w", logFile, err)
		}
		return nil
	},
}

// Execute runs the root command, translating a usage error into exit code
// 2 and any other failure into exit code 1 (§6).
func Execute() {
	err := rootCmd.Execute()
	if closeErr := logging.Close(); closeErr != nil {
		fmt.Fprintf(os.Stderr, "Error closing log file: %v\n", closeErr)
		if err == nil {
			os.Exit(1)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := recoveryHint(err); hint != "" {
			fmt.Fprintf(os.Stderr, "%s\n", hint)
		}
		if isUsageError(err) {
			if cmd, _, findErr := rootCmd.Find(os.Args[1:]); findErr == nil && cmd != nil {
				_ = cmd.Usage()
			} else {
				_ = rootCmd.Usage()
			}
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func recoveryHint(err error) string {
	switch {
	case errors.Is(err, apperr.ErrJournalExists), errors.Is(err, apperr.ErrBackupExists):
		return "Hint: run `modman repair` to clean up after an interrupted run."
	case errors.Is(err, apperr.ErrGameFilesChanged):
		return "Hint: run `modman update` to reconcile the game directory first."
	case errors.Is(err, apperr.ErrProfileMissing):
		return "Hint: run `modman init --root <DIR>` first."
	}
	return ""
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return wrapUsageError(err)
	})

	rootCmd.PersistentFlags().StringVarP(&workDir, "directory", "C", ".", "Change to this working directory before running")
	rootCmd.PersistentFlags().CountVarP(&verboseFlag, "verbose", "v", "Raise logging verbosity (repeatable: -v debug, -vv trace)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Load a saved option preset by name")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", workpool.DefaultConcurrency, "Number of files to process in parallel")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write command output to a log file in addition to stdout")
}

type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func wrapUsageError(err error) error {
	if err == nil {
		return nil
	}
	return &usageError{err: err}
}

func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if validate == nil {
			return nil
		}
		if err := validate(cmd, args); err != nil {
			return wrapUsageError(err)
		}
		return nil
	}
}

func isUsageError(err error) bool {
	var ue *usageError
	if errors.As(err, &ue) {
		return true
	}
	return strings.HasPrefix(err.Error(), "unknown command ")
}
