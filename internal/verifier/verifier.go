// Package verifier implements the Verifier ("check", §4.8): four
// independent checks over the profile and backup tree, each reported even
// if an earlier one failed.
package verifier

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/modman/modman/internal/hashutil"
	"github.com/modman/modman/internal/journal"
	"github.com/modman/modman/internal/modpath"
	"github.com/modman/modman/internal/store"
	"github.com/modman/modman/internal/workpool"
)

// Options controls how Verify runs.
type Options struct {
	// Concurrency bounds the per-file worker pool; <= 0 picks a default.
	Concurrency int
	// Progress, if non-nil, is notified once per file during the
	// installed-file integrity pass (V4).
	Progress workpool.Reporter
}

// Report is the outcome of the four checks. OK reports whether all of
// them passed.
type Report struct {
	// JournalAbsent is V1: no activation journal is present (I5).
	JournalAbsent bool
	// UnknownFiles is V2: backup files not referenced by the journal or
	// any manifest.
	UnknownFiles []modpath.RelPath
	// BackupMismatches is V3: backups whose hash no longer matches the
	// recorded original_hash (I1).
	BackupMismatches []modpath.RelPath
	// InstalledMismatches is V4: installed files whose hash no longer
	// matches the recorded mod_hash (I3).
	InstalledMismatches []modpath.RelPath
}

// OK reports whether every check passed.
func (r Report) OK() bool {
	return r.JournalAbsent && len(r.UnknownFiles) == 0 && len(r.BackupMismatches) == 0 && len(r.InstalledMismatches) == 0
}

type entry struct {
	rel  modpath.RelPath
	meta store.ModFileMeta
}

// Verify runs all four checks against profile's recorded state.
func Verify(ctx context.Context, workDir string, profile *store.Profile, opts Options) (Report, error) {
	var report Report

	report.JournalAbsent = !journal.Exists(workDir)

	unknown, err := findUnknownFiles(workDir, profile)
	if err != nil {
		return Report{}, fmt.Errorf("scanning for unknown backup files: %w", err)
	}
	report.UnknownFiles = unknown

	var entries []entry
	for _, manifest := range profile.Mods {
		for rel, meta := range manifest.Files {
			entries = append(entries, entry{rel: rel, meta: meta})
		}
	}

	backupOK, err := workpool.Run(ctx, entries, opts.Concurrency, func(ctx context.Context, e entry) (bool, error) {
		if e.meta.OriginalHash == nil {
			return true, nil
		}
		h, err := hashutil.HashFile(filepath.Join(workDir, modpath.BackupFilePath(e.rel)))
		if err != nil {
			return false, fmt.Errorf("hashing backup of %s: %w", e.rel, err)
		}
		return h == *e.meta.OriginalHash, nil
	})
	if err != nil {
		return Report{}, fmt.Errorf("verifying backup files: %w", err)
	}
	for i, e := range entries {
		if !backupOK[i] {
			report.BackupMismatches = append(report.BackupMismatches, e.rel)
		}
	}

	installedOK, err := workpool.RunWithProgress(ctx, entries, opts.Concurrency, opts.Progress, func(ctx context.Context, e entry) (bool, error) {
		h, err := hashutil.HashFile(modpath.GamePath(e.rel, profile.RootDirectory))
		if err != nil {
			return false, fmt.Errorf("hashing %s: %w", e.rel, err)
		}
		return h == e.meta.ModHash, nil
	})
	if err != nil {
		return Report{}, fmt.Errorf("verifying installed mod files: %w", err)
	}
	for i, e := range entries {
		if !installedOK[i] {
			report.InstalledMismatches = append(report.InstalledMismatches, e.rel)
		}
	}

	return report, nil
}

// findUnknownFiles lists every backed-up RelPath that isn't mentioned in
// the journal (if any) or in any manifest (V2).
func findUnknownFiles(workDir string, profile *store.Profile) ([]modpath.RelPath, error) {
	originalsDir := filepath.Join(workDir, modpath.BackupPath)

	var backedUp []modpath.RelPath
	err := filepath.WalkDir(originalsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(originalsDir, path)
		if err != nil {
			return err
		}
		relPath, err := modpath.New(rel)
		if err != nil {
			return err
		}
		backedUp = append(backedUp, relPath)
		return nil
	})
	if err != nil {
		return nil, err
	}

	journalEntries, err := journal.ReadAll(workDir)
	if err != nil {
		return nil, err
	}

	var unknown []modpath.RelPath
	for _, rel := range backedUp {
		if _, ok := journalEntries[rel]; ok {
			continue
		}
		if _, ok := profile.FindOwner(rel); ok {
			continue
		}
		unknown = append(unknown, rel)
	}
	return unknown, nil
}
