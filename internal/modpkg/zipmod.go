package modpkg

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/modman/modman/internal/modpath"
)

// zipPackage is a mod package laid out as a ZIP archive with the same
// "base directory plus VERSION.txt plus README.txt" layout as a directory
// package. It reads through the archive rather than memory-mapping it,
// since the standard library's zip reader works off an io.ReaderAt rather
// than a raw mapped byte slice.
type zipPackage struct {
	r       *zip.ReadCloser
	baseDir string
	version *semver.Version
	readme  string
	paths   []modpath.RelPath
}

func openZip(p string) (*zipPackage, error) {
	r, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("couldn't open %s as a ZIP archive: %w", p, err)
	}

	var (
		version   *semver.Version
		readme    string
		baseDir   string
		sawReadme, sawVersion, sawBase bool
	)

	// First pass: find VERSION.txt, README.txt, and the single top-level
	// base directory name. Some zip writers never emit an explicit
	// directory entry, so the base directory is inferred from the first
	// path component of whatever nested entries exist, not just from
	// entries where FileInfo().IsDir() is true.
	for _, f := range r.File {
		name := strings.TrimSuffix(f.Name, "/")
		if name == "" {
			continue
		}
		if name == gitDirName || strings.HasPrefix(name, gitDirName+"/") {
			continue
		}

		top, rest, nested := strings.Cut(name, "/")
		if !nested {
			switch top {
			case versionFileName:
				if sawVersion {
					r.Close()
					return nil, fmt.Errorf("%s contains more than one %s", p, versionFileName)
				}
				data, err := readZipFile(f)
				if err != nil {
					r.Close()
					return nil, fmt.Errorf("couldn't open %s: %w", versionFileName, err)
				}
				version, err = parseVersionFile(data)
				if err != nil {
					r.Close()
					return nil, err
				}
				sawVersion = true
			case readmeFileName:
				if sawReadme {
					r.Close()
					return nil, fmt.Errorf("%s contains more than one %s", p, readmeFileName)
				}
				data, err := readZipFile(f)
				if err != nil {
					r.Close()
					return nil, fmt.Errorf("couldn't open %s: %w", readmeFileName, err)
				}
				readme = string(data)
				sawReadme = true
			default:
				if f.FileInfo().IsDir() {
					if sawBase && baseDir != top {
						r.Close()
						return nil, fmt.Errorf("%s contains more than one base directory", p)
					}
					baseDir = top
					sawBase = true
					continue
				}
				r.Close()
				return nil, fmt.Errorf("%s contains files at the root besides %s and %s", p, versionFileName, readmeFileName)
			}
			continue
		}

		if sawBase && baseDir != top {
			r.Close()
			return nil, fmt.Errorf("%s contains more than one base directory", p)
		}
		baseDir = top
		sawBase = true
		_ = rest
	}

	if !sawVersion {
		r.Close()
		return nil, fmt.Errorf("couldn't find %s", versionFileName)
	}
	if !sawReadme {
		r.Close()
		return nil, fmt.Errorf("couldn't find %s", readmeFileName)
	}
	if !sawBase {
		r.Close()
		return nil, fmt.Errorf("couldn't find a base directory")
	}

	var paths []modpath.RelPath
	prefix := baseDir + "/"
	for _, f := range r.File {
		name := strings.TrimSuffix(f.Name, "/")
		if f.FileInfo().IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		rel := strings.TrimPrefix(name, prefix)
		relPath, err := modpath.New(rel)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("mod file %s: %w", name, err)
		}
		paths = append(paths, relPath)
	}

	return &zipPackage{r: r, baseDir: baseDir, version: version, readme: readme, paths: paths}, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (z *zipPackage) Version() *semver.Version { return z.version }
func (z *zipPackage) Readme() string           { return z.readme }
func (z *zipPackage) Paths() []modpath.RelPath { return z.paths }

func (z *zipPackage) Open(rel modpath.RelPath) (io.ReadCloser, error) {
	name := path.Join(z.baseDir, rel.String())
	for _, f := range z.r.File {
		if strings.TrimSuffix(f.Name, "/") == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("mod file %s not found in archive", rel)
}

func (z *zipPackage) Close() error {
	return z.r.Close()
}
