// Package apperr defines the sentinel error kinds shared across modman's
// commands, so callers can classify a failure with errors.Is without
// depending on a specific package's concrete error type.
package apperr

import "errors"

var (
	// ErrProfileMissing means no modman.profile exists in the working directory.
	ErrProfileMissing = errors.New("no profile found - run `modman init` first")
	// ErrProfileRootMissing means the profile's root_directory no longer exists.
	ErrProfileRootMissing = errors.New("the profile's root directory doesn't exist")
	// ErrAlreadyActivated means the mod path is already recorded in the profile.
	ErrAlreadyActivated = errors.New("already activated")
	// ErrNotActivated means the mod path has no manifest in the profile.
	ErrNotActivated = errors.New("not activated")
	// ErrPathConflict means two mods claim the same RelPath.
	ErrPathConflict = errors.New("path conflict")
	// ErrBackupExists means a backup file exists where none was expected.
	ErrBackupExists = errors.New("backup already exists - run `modman repair`")
	// ErrJournalExists means an activation journal already exists at the start of activation.
	ErrJournalExists = errors.New("an activation journal already exists - run `modman repair`")
	// ErrVersionMismatch means the opened package's version differs from the recorded one.
	ErrVersionMismatch = errors.New("package version doesn't match the recorded version")
	// ErrGameFilesChanged means installed file hashes no longer match the recorded mod_hash.
	ErrGameFilesChanged = errors.New("installed game files have changed - run `modman update`")
	// ErrIntegrityWarning flags a non-fatal hash mismatch surfaced to the user.
	ErrIntegrityWarning = errors.New("integrity check failed")
	// ErrEncodingError means a RelPath isn't representable as UTF-8.
	ErrEncodingError = errors.New("path isn't valid UTF-8")
	// ErrStaleJournal means a journal entry names a RelPath already present in a manifest.
	ErrStaleJournal = errors.New("journal entry already present in a manifest - profile and journal are inconsistent")
	// ErrPresetNotFound means no saved CLI preset exists under the given name.
	ErrPresetNotFound = errors.New("no preset found with that name")
	// ErrInvalidPresetName means a preset name isn't safe to use as a filename.
	ErrInvalidPresetName = errors.New("preset name must not contain path separators or be empty")
)
