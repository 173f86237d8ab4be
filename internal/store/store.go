package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modman/modman/internal/apperr"
	"github.com/modman/modman/internal/modpath"
)

// ProfilePath is the serialized Profile document, relative to the working
// directory.
const ProfilePath = "modman.profile"

const newProfileSuffix = ".new"

// LoadAndCheck loads the profile document and fails if it's missing,
// unparseable, or its root_directory no longer exists (§4.3).
func LoadAndCheck(workDir string) (*Profile, error) {
	path := filepath.Join(workDir, ProfilePath)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.ErrProfileMissing
		}
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	if p.Mods == nil {
		p.Mods = make(map[PackagePath]ModManifest)
	}

	if _, err := os.Stat(p.RootDirectory); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", apperr.ErrProfileRootMissing, p.RootDirectory)
		}
		return nil, fmt.Errorf("checking root directory %s: %w", p.RootDirectory, err)
	}

	return &p, nil
}

// Commit serializes profile to a sibling file, fsyncs it, then atomically
// renames it over the profile document. This rename is the commit point of
// every mutating command (§4.3, §5).
func Commit(workDir string, profile *Profile) error {
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling profile: %w", err)
	}
	data = append(data, '\n')

	finalPath := filepath.Join(workDir, ProfilePath)
	tmpPath := finalPath + newProfileSuffix

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmpPath, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing %s: %w", tmpPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("committing profile: %w", err)
	}
	return nil
}

// CreateNew exclusively creates the profile document and initializes the
// backup storage tree. If any step after profile creation fails, the
// profile is removed again so the init is replayable (§4.3).
func CreateNew(workDir string, profile *Profile) error {
	finalPath := filepath.Join(workDir, ProfilePath)

	f, err := os.OpenFile(finalPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%s already exists", finalPath)
		}
		return fmt.Errorf("creating profile: %w", err)
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		f.Close()
		os.Remove(finalPath)
		return fmt.Errorf("marshaling profile: %w", err)
	}
	data = append(data, '\n')

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(finalPath)
		return fmt.Errorf("writing profile: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(finalPath)
		return fmt.Errorf("closing profile: %w", err)
	}

	if err := initBackupTree(workDir); err != nil {
		os.Remove(finalPath)
		return err
	}
	return nil
}

const backupReadme = `modman backs up the game files here.

temp/ holds partial copies of game files as we back them up.
Once we've finished copying them, they are moved to originals/.
This ensures that originals/ only contains complete backups.

If modman is closed while performing a backup, some leftover files
might be found in temp/.
Feel free to delete them.
`

func initBackupTree(workDir string) error {
	storageDir := filepath.Join(workDir, modpath.StoragePath)
	if err := os.Mkdir(storageDir, 0o755); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("a backup directory (%s/) already exists", modpath.StoragePath)
		}
		return fmt.Errorf("creating backup directory: %w", err)
	}
	if err := os.Mkdir(filepath.Join(workDir, modpath.TempDirPath), 0o755); err != nil {
		return fmt.Errorf("creating temp directory: %w", err)
	}
	if err := os.Mkdir(filepath.Join(workDir, modpath.BackupPath), 0o755); err != nil {
		return fmt.Errorf("creating originals directory: %w", err)
	}
	readmePath := filepath.Join(workDir, modpath.BackupReadmePath)
	if err := os.WriteFile(readmePath, []byte(backupReadme), 0o644); err != nil {
		return fmt.Errorf("writing backup README: %w", err)
	}
	return nil
}
