package modpkg

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"

	"github.com/modman/modman/internal/modpath"
)

// dirPackage is a mod package laid out as a plain directory: one base
// directory holding the mod's files, plus VERSION.txt and README.txt
// alongside it (§6).
type dirPackage struct {
	baseDir string
	version *semver.Version
	readme  string
	paths   []modpath.RelPath
}

func openDirectory(p string) (*dirPackage, error) {
	entries, err := os.ReadDir(p)
	if err != nil {
		return nil, fmt.Errorf("couldn't read directory %s: %w", p, err)
	}

	var (
		version *semver.Version
		readme  string
		baseDir string
		sawReadme, sawVersion, sawBase bool
	)

	for _, entry := range entries {
		name := entry.Name()
		switch name {
		case gitDirName:
			continue
		case versionFileName:
			if sawVersion {
				return nil, fmt.Errorf("%s contains more than one %s", p, versionFileName)
			}
			data, err := os.ReadFile(filepath.Join(p, name))
			if err != nil {
				return nil, fmt.Errorf("couldn't open %s: %w", versionFileName, err)
			}
			version, err = parseVersionFile(data)
			if err != nil {
				return nil, err
			}
			sawVersion = true
		case readmeFileName:
			if sawReadme {
				return nil, fmt.Errorf("%s contains more than one %s", p, readmeFileName)
			}
			data, err := os.ReadFile(filepath.Join(p, name))
			if err != nil {
				return nil, fmt.Errorf("couldn't open %s: %w", readmeFileName, err)
			}
			readme = string(data)
			sawReadme = true
		default:
			if entry.IsDir() && !sawBase {
				baseDir = filepath.Join(p, name)
				sawBase = true
			} else {
				return nil, fmt.Errorf("%s contains things besides a %s, a %s, and one base directory", p, readmeFileName, versionFileName)
			}
		}
	}

	if !sawVersion {
		return nil, fmt.Errorf("couldn't find %s", versionFileName)
	}
	if !sawReadme {
		return nil, fmt.Errorf("couldn't find %s", readmeFileName)
	}
	if !sawBase {
		return nil, fmt.Errorf("couldn't find a base directory")
	}

	paths, err := collectRelPaths(baseDir)
	if err != nil {
		return nil, err
	}

	return &dirPackage{baseDir: baseDir, version: version, readme: readme, paths: paths}, nil
}

// collectRelPaths walks dir and returns the RelPath of every regular file
// underneath it, relative to dir.
func collectRelPaths(dir string) ([]modpath.RelPath, error) {
	var out []modpath.RelPath
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("computing relative path for %s: %w", path, err)
		}
		relPath, err := modpath.New(rel)
		if err != nil {
			return fmt.Errorf("mod file %s: %w", path, err)
		}
		out = append(out, relPath)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	return out, nil
}

func (d *dirPackage) Version() *semver.Version { return d.version }
func (d *dirPackage) Readme() string           { return d.readme }
func (d *dirPackage) Paths() []modpath.RelPath { return d.paths }

func (d *dirPackage) Open(rel modpath.RelPath) (io.ReadCloser, error) {
	full := filepath.Join(d.baseDir, filepath.FromSlash(rel.String()))
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("couldn't open mod file (%s): %w", full, err)
	}
	return f, nil
}

func (d *dirPackage) Close() error { return nil }
