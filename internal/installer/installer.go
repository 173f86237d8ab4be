// Package installer implements the Installer (§4.5): activating a mod
// package by backing up whatever it overwrites and overlaying its files
// onto the game directory.
package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modman/modman/internal/apperr"
	"github.com/modman/modman/internal/backup"
	"github.com/modman/modman/internal/hashutil"
	"github.com/modman/modman/internal/journal"
	"github.com/modman/modman/internal/logging"
	"github.com/modman/modman/internal/modpath"
	"github.com/modman/modman/internal/modpkg"
	"github.com/modman/modman/internal/store"
	"github.com/modman/modman/internal/workpool"
)

// Options controls how Install runs.
type Options struct {
	// DryRun hashes files without writing the game tree or the journal.
	DryRun bool
	// Concurrency bounds the per-file worker pool; <= 0 picks a default.
	Concurrency int
	// Progress, if non-nil, is notified once per file as activation
	// proceeds.
	Progress workpool.Reporter
}

// Install activates pkg at pkgPath against profile, mutating profile in
// place and committing it on success (§4.5). profile.Mods must not
// already contain pkgPath.
func Install(ctx context.Context, workDir string, profile *store.Profile, pkgPath store.PackagePath, pkg modpkg.Package, opts Options) error {
	if _, exists := profile.Mods[pkgPath]; exists {
		return fmt.Errorf("%s: %w", pkgPath, apperr.ErrAlreadyActivated)
	}

	paths := pkg.Paths()
	for _, rel := range paths {
		if owner, ok := profile.FindOwner(rel); ok {
			return fmt.Errorf("%s from %s would overwrite the same file from %s: %w", rel, pkgPath, owner, apperr.ErrPathConflict)
		}
	}

	jrnl, err := journal.Open(workDir, opts.DryRun)
	if err != nil {
		return err
	}

	root := profile.RootDirectory
	results, err := workpool.RunWithProgress(ctx, paths, opts.Concurrency, opts.Progress, func(ctx context.Context, rel modpath.RelPath) (fileResult, error) {
		return installFile(workDir, root, rel, pkg, jrnl, opts.DryRun)
	})
	if err != nil {
		return fmt.Errorf("activating %s: %w", pkgPath, err)
	}

	manifest := store.ModManifest{
		Version: pkg.Version(),
		Files:   make(map[modpath.RelPath]store.ModFileMeta, len(results)),
	}
	for _, r := range results {
		manifest.Files[r.rel] = r.meta
	}
	profile.Mods[pkgPath] = manifest

	if !opts.DryRun {
		if err := store.Commit(workDir, profile); err != nil {
			return err
		}
	}
	return jrnl.Delete()
}

type fileResult struct {
	rel  modpath.RelPath
	meta store.ModFileMeta
}

func installFile(workDir, root string, rel modpath.RelPath, pkg modpkg.Package, jrnl journal.Journal, dryRun bool) (fileResult, error) {
	gamePath := modpath.GamePath(rel, root)

	var originalHash *hashutil.FileHash
	existing, err := os.Open(gamePath)
	switch {
	case err == nil:
		logging.Debugf("Verbose: replacing %s\n", rel)
		closeErr := func() error {
			defer existing.Close()
			if err := jrnl.ReplaceFile(rel); err != nil {
				return err
			}
			var h hashutil.FileHash
			var err error
			if dryRun {
				h, err = hashutil.HashReader(existing)
			} else {
				h, err = backup.Copy(workDir, rel, existing, backup.Refuse)
			}
			if err != nil {
				return err
			}
			originalHash = &h
			return nil
		}()
		if closeErr != nil {
			return fileResult{}, closeErr
		}
	case os.IsNotExist(err):
		logging.Debugf("Verbose: adding %s\n", rel)
		if err := jrnl.AddFile(rel); err != nil {
			return fileResult{}, err
		}
	default:
		return fileResult{}, fmt.Errorf("opening %s: %w", gamePath, err)
	}

	modStream, err := pkg.Open(rel)
	if err != nil {
		return fileResult{}, err
	}
	defer modStream.Close()

	var modHash hashutil.FileHash
	if dryRun {
		modHash, err = hashutil.HashReader(modStream)
		if err != nil {
			return fileResult{}, fmt.Errorf("hashing mod file %s: %w", rel, err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(gamePath), 0o755); err != nil {
			return fileResult{}, fmt.Errorf("creating directory for %s: %w", gamePath, err)
		}
		out, err := os.Create(gamePath)
		if err != nil {
			return fileResult{}, fmt.Errorf("installing %s: %w", gamePath, err)
		}
		modHash, err = hashutil.HashAndCopy(out, modStream)
		out.Close()
		if err != nil {
			return fileResult{}, fmt.Errorf("installing %s: %w", gamePath, err)
		}
	}

	return fileResult{rel: rel, meta: store.ModFileMeta{ModHash: modHash, OriginalHash: originalHash}}, nil
}
