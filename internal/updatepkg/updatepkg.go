// Package updatepkg implements the Updater (§4.7): reconciling installed
// mod files against an external (game) update that overwrote them, so
// their backups reflect the new stock baseline and the mod files are
// reinstalled on top.
package updatepkg

import (
	"context"
	"fmt"
	"os"

	"github.com/modman/modman/internal/apperr"
	"github.com/modman/modman/internal/backup"
	"github.com/modman/modman/internal/hashutil"
	"github.com/modman/modman/internal/logging"
	"github.com/modman/modman/internal/modpath"
	"github.com/modman/modman/internal/modpkg"
	"github.com/modman/modman/internal/store"
	"github.com/modman/modman/internal/workpool"
)

// Options controls how Update runs.
type Options struct {
	// DryRun reports what would change without touching the filesystem
	// or committing the profile.
	DryRun bool
	// Concurrency bounds the per-file worker pool; <= 0 picks a default.
	Concurrency int
	// Progress, if non-nil, is notified once per file across every
	// package's reconciliation pass.
	Progress workpool.Reporter
}

// OpenFunc resolves a package back to its ModPackage so its files can be
// re-read. Packages are processed sequentially (§5): one open/close pair
// per manifest, no overlap across packages.
type OpenFunc func(pkgPath store.PackagePath) (modpkg.Package, error)

// Update walks every manifest in profile, reconciling any installed file
// whose game-path hash no longer matches its recorded mod_hash. The
// profile is committed once, iff at least one file was updated and this
// isn't a dry run.
func Update(ctx context.Context, workDir string, profile *store.Profile, open OpenFunc, opts Options) error {
	logging.Infof("Checking installed mod files...\n")

	updatesMade := false
	for pkgPath, manifest := range profile.Mods {
		pkg, err := open(pkgPath)
		if err != nil {
			return fmt.Errorf("opening %s: %w", pkgPath, err)
		}

		manifest := manifest
		changed, err := updatePackage(ctx, workDir, profile.RootDirectory, pkgPath, &manifest, pkg, opts)
		pkg.Close()
		if err != nil {
			return err
		}
		if changed {
			updatesMade = true
			profile.Mods[pkgPath] = manifest
		}
	}

	if !updatesMade {
		logging.Infof("Game files haven't changed, no updates needed.\n")
		return nil
	}
	if opts.DryRun {
		return nil
	}
	return store.Commit(workDir, profile)
}

type entry struct {
	rel  modpath.RelPath
	meta store.ModFileMeta
}

func updatePackage(ctx context.Context, workDir, root string, pkgPath store.PackagePath, manifest *store.ModManifest, pkg modpkg.Package, opts Options) (bool, error) {
	if pkg.Version().Compare(manifest.Version) != 0 {
		return false, fmt.Errorf("%s's package version (%s) doesn't match what it was (%s) when it was activated: %w",
			pkgPath, pkg.Version(), manifest.Version, apperr.ErrVersionMismatch)
	}

	entries := make([]entry, 0, len(manifest.Files))
	for rel, meta := range manifest.Files {
		entries = append(entries, entry{rel: rel, meta: meta})
	}

	results, err := workpool.RunWithProgress(ctx, entries, opts.Concurrency, opts.Progress, func(ctx context.Context, e entry) (*store.ModFileMeta, error) {
		return updateFile(workDir, root, e.rel, e.meta, pkg, opts.DryRun)
	})
	if err != nil {
		return false, fmt.Errorf("updating %s: %w", pkgPath, err)
	}

	changed := false
	for i, e := range entries {
		if results[i] != nil {
			manifest.Files[e.rel] = *results[i]
			changed = true
		}
	}
	return changed, nil
}

// updateFile returns nil if rel's game-path content still matches
// old.ModHash, or the reconciled ModFileMeta if it doesn't.
func updateFile(workDir, root string, rel modpath.RelPath, old store.ModFileMeta, pkg modpkg.Package, dryRun bool) (*store.ModFileMeta, error) {
	gamePath := modpath.GamePath(rel, root)
	gameHash, err := hashutil.HashFile(gamePath)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", gamePath, err)
	}
	if gameHash == old.ModHash {
		return nil, nil
	}

	if dryRun {
		logging.Infof("%s was changed and needs its backup updated\n", rel)
		return &store.ModFileMeta{ModHash: old.ModHash, OriginalHash: &gameHash}, nil
	}

	logging.Infof("%s changed. Backing up new version and reinstalling mod file.\n", gamePath)

	gameFile, err := os.Open(gamePath)
	if err != nil {
		return nil, fmt.Errorf("opening %s to back it up: %w", gamePath, err)
	}
	_, err = backup.Copy(workDir, rel, gameFile, backup.ReplaceExisting)
	gameFile.Close()
	if err != nil {
		return nil, err
	}

	modStream, err := pkg.Open(rel)
	if err != nil {
		return nil, err
	}
	defer modStream.Close()

	out, err := os.Create(gamePath)
	if err != nil {
		return nil, fmt.Errorf("reinstalling %s: %w", gamePath, err)
	}
	modHash, err := hashutil.HashAndCopy(out, modStream)
	out.Close()
	if err != nil {
		return nil, fmt.Errorf("reinstalling %s: %w", gamePath, err)
	}

	if modHash != old.ModHash {
		logging.Warnf("the mod file %s doesn't hash to what it did last time it was installed\n", rel)
	}

	return &store.ModFileMeta{ModHash: modHash, OriginalHash: &gameHash}, nil
}
