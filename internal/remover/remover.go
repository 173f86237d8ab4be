// Package remover implements the Remover (§4.6): deactivating a mod
// package by verifying, restoring, and removing its files and dropping its
// manifest from the profile.
package remover

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modman/modman/internal/apperr"
	"github.com/modman/modman/internal/hashutil"
	"github.com/modman/modman/internal/logging"
	"github.com/modman/modman/internal/modpath"
	"github.com/modman/modman/internal/store"
	"github.com/modman/modman/internal/workpool"
)

// Options controls how Remove runs.
type Options struct {
	// DryRun only performs the profile sanity check; no filesystem work
	// is done and nothing is committed.
	DryRun bool
	// Concurrency bounds the per-file worker pool; <= 0 picks a default.
	Concurrency int
	// Progress, if non-nil, is notified once per file during the integrity
	// check pass.
	Progress workpool.Reporter
}

type fileEntry struct {
	rel  modpath.RelPath
	meta store.ModFileMeta
}

// Remove deactivates pkgPath: it verifies the package's installed files
// are unmodified, restores whatever they replaced, removes files that
// needed no backup, commits the profile without the package's manifest,
// then cleans up the now-unreferenced backups (§4.6).
func Remove(ctx context.Context, workDir string, profile *store.Profile, pkgPath store.PackagePath, opts Options) error {
	manifest, ok := profile.Mods[pkgPath]
	if !ok {
		return fmt.Errorf("%s: %w", pkgPath, apperr.ErrNotActivated)
	}
	delete(profile.Mods, pkgPath)

	if opts.DryRun {
		return nil
	}

	root := profile.RootDirectory
	entries := make([]fileEntry, 0, len(manifest.Files))
	for rel, meta := range manifest.Files {
		entries = append(entries, fileEntry{rel: rel, meta: meta})
	}

	logging.Infof("Checking that all mod files installed by %s are unmodified...\n", pkgPath)
	if _, err := workpool.RunWithProgress(ctx, entries, opts.Concurrency, opts.Progress, func(ctx context.Context, e fileEntry) (struct{}, error) {
		return struct{}{}, checkIntact(root, e)
	}); err != nil {
		return fmt.Errorf("deactivating %s: %w", pkgPath, err)
	}

	var withBackup, withoutBackup []fileEntry
	for _, e := range entries {
		if e.meta.OriginalHash != nil {
			withBackup = append(withBackup, e)
		} else {
			withoutBackup = append(withoutBackup, e)
		}
	}

	if _, err := workpool.Run(ctx, withBackup, opts.Concurrency, func(ctx context.Context, e fileEntry) (struct{}, error) {
		logging.Infof("Restoring %s\n", e.rel)
		return struct{}{}, restoreFromBackup(workDir, root, e.rel, *e.meta.OriginalHash)
	}); err != nil {
		return err
	}

	if _, err := workpool.Run(ctx, withoutBackup, opts.Concurrency, func(ctx context.Context, e fileEntry) (struct{}, error) {
		logging.Infof("Removing %s\n", e.rel)
		return struct{}{}, removeGameFile(root, e.rel)
	}); err != nil {
		return err
	}

	// Commit point: after this rename, the package is no longer
	// installed, regardless of what's left to clean up below.
	if err := store.Commit(workDir, profile); err != nil {
		return err
	}

	_, err := workpool.Run(ctx, withBackup, opts.Concurrency, func(ctx context.Context, e fileEntry) (struct{}, error) {
		return struct{}{}, removeBackupFile(workDir, e.rel)
	})
	return err
}

func checkIntact(root string, e fileEntry) error {
	gamePath := modpath.GamePath(e.rel, root)
	h, err := hashutil.HashFile(gamePath)
	if err != nil {
		return fmt.Errorf("hashing %s: %w", gamePath, err)
	}
	if h != e.meta.ModHash {
		logging.Warnf("mod file %s has changed since it was installed\n", e.rel)
		return fmt.Errorf("%s: %w", e.rel, apperr.ErrGameFilesChanged)
	}
	return nil
}

func restoreFromBackup(workDir, root string, rel modpath.RelPath, originalHash hashutil.FileHash) error {
	backupPath := filepath.Join(workDir, modpath.BackupFilePath(rel))
	gamePath := modpath.GamePath(rel, root)

	in, err := os.Open(backupPath)
	if err != nil {
		return fmt.Errorf("opening backup of %s to restore it: %w", rel, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(gamePath), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", gamePath, err)
	}
	out, err := os.Create(gamePath)
	if err != nil {
		return fmt.Errorf("restoring %s: %w", gamePath, err)
	}
	h, err := hashutil.HashAndCopy(out, in)
	out.Close()
	if err != nil {
		return fmt.Errorf("restoring %s: %w", gamePath, err)
	}
	if h != originalHash {
		logging.Warnf("%s's contents didn't match the hash recorded when it was restored to %s\n", backupPath, gamePath)
	}
	return nil
}

func removeGameFile(root string, rel modpath.RelPath) error {
	gamePath := modpath.GamePath(rel, root)
	if err := os.Remove(gamePath); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", gamePath, err)
		}
		logging.Warnf("%s was already removed\n", gamePath)
	}
	return removeEmptyParents(gamePath, root)
}

func removeBackupFile(workDir string, rel modpath.RelPath) error {
	backupPath := filepath.Join(workDir, modpath.BackupFilePath(rel))
	if err := os.Remove(backupPath); err != nil {
		return fmt.Errorf("removing backup of %s: %w", rel, err)
	}
	return removeEmptyParents(backupPath, filepath.Join(workDir, modpath.BackupPath))
}

// removeEmptyParents walks up from path's parent directory, removing
// directories that are now empty, stopping at (not including) stopDir.
func removeEmptyParents(path, stopDir string) error {
	stopAbs, err := filepath.Abs(stopDir)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	for {
		dirAbs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		if dirAbs == stopAbs || !strings.HasPrefix(dirAbs, stopAbs) {
			return nil
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("reading %s: %w", dir, err)
		}
		if len(entries) != 0 {
			return nil
		}
		if err := os.Remove(dir); err != nil {
			return fmt.Errorf("removing empty directory %s: %w", dir, err)
		}
		dir = filepath.Dir(dir)
	}
}
