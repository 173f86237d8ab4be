// Package store implements the Profile document (§3) and ProfileStore
// contract (§4.3): loading, sanity-checking, atomically committing, and
// initializing modman's persistent state.
package store

import (
	"github.com/Masterminds/semver/v3"

	"github.com/modman/modman/internal/hashutil"
	"github.com/modman/modman/internal/modpath"
)

// PackagePath identifies a mod package: the filesystem path given at
// activation time, which doubles as the profile's key for that mod (§9 open
// question 1 — kept literal, not derived from a stable identifier).
type PackagePath string

// ModFileMeta records one RelPath installed by one mod.
type ModFileMeta struct {
	// ModHash is the hash of the bytes written into the game directory.
	ModHash hashutil.FileHash `json:"mod_hash"`
	// OriginalHash is present iff a file previously existed at this
	// location and was backed up; absent iff the mod file was newly
	// created.
	OriginalHash *hashutil.FileHash `json:"original_hash"`
}

// ModManifest is the profile's record of a single installed mod.
type ModManifest struct {
	Version *semver.Version                    `json:"version"`
	Files   map[modpath.RelPath]ModFileMeta `json:"files"`
}

// Profile is modman's single persistent document.
type Profile struct {
	RootDirectory string                      `json:"root_directory"`
	Mods          map[PackagePath]ModManifest `json:"mods"`
}

// Clone returns a deep copy of the profile, so callers can stage mutations
// and discard them on failure without touching the loaded original.
func (p *Profile) Clone() *Profile {
	out := &Profile{
		RootDirectory: p.RootDirectory,
		Mods:          make(map[PackagePath]ModManifest, len(p.Mods)),
	}
	for pkg, manifest := range p.Mods {
		files := make(map[modpath.RelPath]ModFileMeta, len(manifest.Files))
		for rel, meta := range manifest.Files {
			files[rel] = meta
		}
		out.Mods[pkg] = ModManifest{Version: manifest.Version, Files: files}
	}
	return out
}

// FindOwner returns the PackagePath whose manifest already claims rel, if
// any (§3 I4: no two manifests may contain the same RelPath).
func (p *Profile) FindOwner(rel modpath.RelPath) (PackagePath, bool) {
	for pkg, manifest := range p.Mods {
		if _, ok := manifest.Files[rel]; ok {
			return pkg, true
		}
	}
	return "", false
}
