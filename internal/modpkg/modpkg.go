// Package modpkg implements the ModPackage capability (§6): opening a mod
// package — a directory or a ZIP archive laid out with exactly one base
// directory plus a VERSION.txt and a README.txt at the top level — and
// iterating and reading the files inside its base directory.
package modpkg

import (
	"fmt"
	"io"
	"os"

	"github.com/Masterminds/semver/v3"

	"github.com/modman/modman/internal/modpath"
)

// Package is the capability the Installer and Updater need from a mod
// package, regardless of whether it's backed by a directory or a ZIP
// archive on disk.
type Package interface {
	// Version returns the package's declared semantic version.
	Version() *semver.Version
	// Readme returns the contents of the package's README.txt.
	Readme() string
	// Paths lists every RelPath the base directory contains. Order is
	// unspecified.
	Paths() []modpath.RelPath
	// Open returns a stream of rel's contents, relative to the base
	// directory. The caller must close it.
	Open(rel modpath.RelPath) (io.ReadCloser, error)
	// Close releases any resources (open file handles, mmaps) held by
	// the package.
	Close() error
}

// Open stats p and dispatches to the directory reader or the ZIP reader
// (§5 "Polymorphism": a factory function keyed on a discriminator — here,
// on-disk file-vs-directory).
func Open(p string) (Package, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("couldn't find mod package %s: %w", p, err)
	}

	switch {
	case info.IsDir():
		pkg, err := openDirectory(p)
		if err != nil {
			return nil, fmt.Errorf("trouble reading mod directory %s: %w", p, err)
		}
		return pkg, nil
	case info.Mode().IsRegular():
		pkg, err := openZip(p)
		if err != nil {
			return nil, fmt.Errorf("trouble reading mod file %s: %w", p, err)
		}
		return pkg, nil
	default:
		return nil, fmt.Errorf("couldn't open mod package %s: not a file or directory", p)
	}
}

// gitDirName is the one exception carved out of the "exactly one base
// directory, VERSION.txt, README.txt" layout rule, so mods built with Git
// still validate.
const gitDirName = ".git"

const (
	versionFileName = "VERSION.txt"
	readmeFileName  = "README.txt"
)

func parseVersionFile(data []byte) (*semver.Version, error) {
	v, err := semver.NewVersion(trimVersionString(data))
	if err != nil {
		return nil, fmt.Errorf("couldn't parse %s: %w", versionFileName, err)
	}
	return v, nil
}

func trimVersionString(data []byte) string {
	s := string(data)
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r' || s[len(s)-1] == ' ') {
		s = s[:len(s)-1]
	}
	return s
}
