// Package cliconfig stores saved presets of modman's global command-line
// options (working directory, dry-run, verbosity) as named TOML documents
// under the user's config directory.
package cliconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/modman/modman/internal/apperr"
)

// Config holds saveable CLI options. Fields are pointers so a preset can
// distinguish "not set" from a zero value, and so Save can merge a partial
// update into whatever was already on disk.
type Config struct {
	WorkDir *string `toml:"work-dir,omitempty"`
	DryRun  *bool   `toml:"dry-run,omitempty"`
	Verbose *int    `toml:"verbose,omitempty"`
}

// merge overwrites c's fields with any non-nil field from other.
func (c *Config) merge(other *Config) {
	if other.WorkDir != nil {
		c.WorkDir = other.WorkDir
	}
	if other.DryRun != nil {
		c.DryRun = other.DryRun
	}
	if other.Verbose != nil {
		c.Verbose = other.Verbose
	}
}

// Dir returns the presets directory, using XDG_CONFIG_HOME with a fallback
// to ~/.config.
func Dir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "modman", "presets")
}

// validateName rejects preset names that aren't safe to use as a bare
// filename, since name comes straight from a CLI argument.
func validateName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("%q: %w", name, apperr.ErrInvalidPresetName)
	}
	return nil
}

func pathFor(name string) string {
	return filepath.Join(Dir(), name+".toml")
}

// Load reads a named preset from the presets directory.
func Load(name string) (*Config, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	var c Config
	if _, err := toml.DecodeFile(pathFor(name), &c); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%q: %w", name, apperr.ErrPresetNotFound)
		}
		return nil, fmt.Errorf("loading preset %q: %w", name, err)
	}
	return &c, nil
}

// Save merges c into whatever preset named name already exists (or starts
// fresh if it doesn't), so saving one flag at a time never clobbers flags
// saved in an earlier call, then writes the result.
func Save(name string, c *Config) error {
	if err := validateName(name); err != nil {
		return err
	}

	existing, err := Load(name)
	if err != nil && !errors.Is(err, apperr.ErrPresetNotFound) {
		return err
	}
	if existing == nil {
		existing = &Config{}
	}
	existing.merge(c)

	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating presets directory: %w", err)
	}
	f, err := os.Create(pathFor(name))
	if err != nil {
		return fmt.Errorf("creating preset file: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(existing); err != nil {
		return fmt.Errorf("encoding preset: %w", err)
	}
	return nil
}

// List returns the names of all saved presets. The presets directory is
// always flat, so a plain read suffices.
func List() ([]string, error) {
	entries, err := os.ReadDir(Dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading presets directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name, ok := strings.CutSuffix(e.Name(), ".toml"); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// Delete removes a named preset.
func Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.Remove(pathFor(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%q: %w", name, apperr.ErrPresetNotFound)
		}
		return fmt.Errorf("deleting preset %q: %w", name, err)
	}
	return nil
}
