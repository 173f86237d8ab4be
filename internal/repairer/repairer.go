// Package repairer implements the Repairer ("repair", §4.9): undoing an
// activation journal left behind by an interrupted `modman add`, restoring
// game files to how they were before that install started.
package repairer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"path/filepath"

	"github.com/modman/modman/internal/apperr"
	"github.com/modman/modman/internal/journal"
	"github.com/modman/modman/internal/logging"
	"github.com/modman/modman/internal/modpath"
	"github.com/modman/modman/internal/store"
)

// Options controls how Repair runs.
type Options struct {
	// DryRun reports what would be undone without touching the filesystem
	// or deleting the journal.
	DryRun bool
}

// Repair reads workDir's activation journal (if any) and tries to undo
// each entry: an Added file is removed, a Replaced file is restored from
// its backup and the backup is then removed. The journal is deleted only
// if every entry was undone successfully; otherwise it's left in place so
// a future `modman repair` can retry.
func Repair(ctx context.Context, workDir string, profile *store.Profile, opts Options) error {
	entries, err := journal.ReadAll(workDir)
	if err != nil {
		return fmt.Errorf("reading activation journal: %w", err)
	}
	if len(entries) == 0 {
		logging.Infof("Activation journal is empty or doesn't exist - nothing to repair.\n")
		return nil
	}

	logging.Infof("Found a journal from an interrupted `modman add`.\n")
	logging.Infof("Restoring what files we can find...\n")

	var errs []error
	for rel, action := range entries {
		if err := undo(workDir, profile, rel, action, opts.DryRun); err != nil {
			logging.Errorf("%v\n", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors encountered while undoing the interrupted activation - leaving the journal in place: %w", errors.Join(errs...))
	}
	if opts.DryRun {
		return nil
	}

	logging.Infof("Repair complete, removing journal file. Game files should be as they were before the interrupted `modman add`.\n")
	if err := os.Remove(journal.Path(workDir)); err != nil {
		return fmt.Errorf("removing activation journal: %w", err)
	}
	return nil
}

func undo(workDir string, profile *store.Profile, rel modpath.RelPath, action journal.Action, dryRun bool) error {
	if _, ok := profile.FindOwner(rel); ok {
		return fmt.Errorf("%s: %w", rel, apperr.ErrStaleJournal)
	}

	switch action {
	case journal.Added:
		return undoAdd(workDir, profile, rel, dryRun)
	case journal.Replaced:
		return undoReplace(workDir, profile, rel, dryRun)
	default:
		return fmt.Errorf("%s: unrecognized journal action %v", rel, action)
	}
}

func undoAdd(workDir string, profile *store.Profile, rel modpath.RelPath, dryRun bool) error {
	logging.Infof("Remove %s\n", rel)
	if dryRun {
		return nil
	}

	gamePath := modpath.GamePath(rel, profile.RootDirectory)
	if err := os.Remove(gamePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", gamePath, err)
	}
	return nil
}

func undoReplace(workDir string, profile *store.Profile, rel modpath.RelPath, dryRun bool) error {
	logging.Infof("Restore %s\n", rel)
	if dryRun {
		return nil
	}

	backupPath := filepath.Join(workDir, modpath.BackupFilePath(rel))
	backupFile, err := os.Open(backupPath)
	if err != nil {
		return fmt.Errorf("opening backup of %s: %w", rel, err)
	}
	defer backupFile.Close()

	gamePath := modpath.GamePath(rel, profile.RootDirectory)
	out, err := os.Create(gamePath)
	if err != nil {
		return fmt.Errorf("restoring %s: %w", gamePath, err)
	}
	_, copyErr := io.Copy(out, backupFile)
	closeErr := out.Close()
	if copyErr != nil {
		return fmt.Errorf("restoring %s: %w", gamePath, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("restoring %s: %w", gamePath, closeErr)
	}

	if err := os.Remove(backupPath); err != nil {
		return fmt.Errorf("removing backup of %s: %w", rel, err)
	}
	return nil
}
