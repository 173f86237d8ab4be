// Package backup implements the backup protocol (§4.5 B1-B5) shared by the
// Installer and the Updater: preserving whatever currently occupies a
// RelPath's game path before it's overwritten.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/modman/modman/internal/apperr"
	"github.com/modman/modman/internal/hashutil"
	"github.com/modman/modman/internal/modpath"
)

// Mode selects whether an existing backup file blocks the protocol.
type Mode int

const (
	// Refuse fails with apperr.ErrBackupExists if a backup already exists
	// for this RelPath (the normal activation path — a leftover backup
	// means a previous run was interrupted).
	Refuse Mode = iota
	// ReplaceExisting skips that refusal, used by the Updater when it
	// intentionally refreshes a stale backup to a new stock baseline.
	ReplaceExisting
)

// Copy runs the backup protocol: it streams src into a temp file, fsyncs
// it, then renames it over backup_path(rel), and returns the hash of the
// backed-up bytes. src is not closed.
func Copy(workDir string, rel modpath.RelPath, src io.Reader, mode Mode) (hashutil.FileHash, error) {
	tempPath := filepath.Join(workDir, modpath.TempFilePath(rel))
	backupPath := filepath.Join(workDir, modpath.BackupFilePath(rel))

	if err := os.MkdirAll(filepath.Dir(tempPath), 0o755); err != nil {
		return hashutil.FileHash{}, fmt.Errorf("creating temp directory for %s: %w", rel, err)
	}

	// B1: truncate any pre-existing temp file — it's by definition
	// garbage from a prior interrupted run — and stream-copy + hash.
	tmp, err := os.Create(tempPath)
	if err != nil {
		return hashutil.FileHash{}, fmt.Errorf("creating temp copy of %s: %w", rel, err)
	}
	h, err := hashutil.HashAndCopy(tmp, src)
	if err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return hashutil.FileHash{}, fmt.Errorf("backing up %s: %w", rel, err)
	}

	// B2: fsync the temp file before it becomes the backup of record.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return hashutil.FileHash{}, fmt.Errorf("syncing backup of %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return hashutil.FileHash{}, fmt.Errorf("closing backup of %s: %w", rel, err)
	}

	// B3: ensure backup_path's parent exists.
	if err := os.MkdirAll(filepath.Dir(backupPath), 0o755); err != nil {
		os.Remove(tempPath)
		return hashutil.FileHash{}, fmt.Errorf("creating backup directory for %s: %w", rel, err)
	}

	// B4: refuse a pre-existing backup unless told to replace it.
	if mode == Refuse {
		if _, err := os.Lstat(backupPath); err == nil {
			os.Remove(tempPath)
			return hashutil.FileHash{}, fmt.Errorf("%s: %w", rel, apperr.ErrBackupExists)
		} else if !os.IsNotExist(err) {
			os.Remove(tempPath)
			return hashutil.FileHash{}, fmt.Errorf("checking existing backup of %s: %w", rel, err)
		}
	}

	// B5: rename temp over backup, assumed atomic on the storage filesystem.
	if err := os.Rename(tempPath, backupPath); err != nil {
		os.Remove(tempPath)
		return hashutil.FileHash{}, fmt.Errorf("committing backup of %s: %w", rel, err)
	}

	return h, nil
}
