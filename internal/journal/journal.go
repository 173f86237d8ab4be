// Package journal implements the append-only crash-recovery log (§4.4) that
// records, during an in-progress activation, every RelPath that was either
// newly added to the game tree or replaced a pre-existing file.
package journal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/modman/modman/internal/apperr"
	"github.com/modman/modman/internal/modpath"
)

// Action is what happened to a RelPath during activation.
type Action int

const (
	Added Action = iota
	Replaced
)

func (a Action) token() string {
	if a == Added {
		return "Add"
	}
	return "Replace"
}

func parseAction(token string) (Action, bool) {
	switch token {
	case "Add":
		return Added, true
	case "Replace":
		return Replaced, true
	default:
		return 0, false
	}
}

// Journal records RelPaths added or replaced during activation. Two
// implementations share this interface: Real writes fsynced lines to disk,
// Dry writes to a diagnostic stream only (§4.4).
type Journal interface {
	AddFile(rel modpath.RelPath) error
	ReplaceFile(rel modpath.RelPath) error
	// Delete removes the on-disk journal, if any.
	Delete() error
}

// Path returns the on-disk journal location, relative to the working directory.
func Path(workDir string) string {
	return filepath.Join(workDir, modpath.JournalPath)
}

// Open constructs a Journal. When dryRun is true, it returns a Dry journal
// that has no on-disk effect; otherwise it creates the real journal
// exclusively, failing with apperr.ErrJournalExists if one is already
// present (signalling a prior interrupted run).
func Open(workDir string, dryRun bool) (Journal, error) {
	if dryRun {
		return NewDry(), nil
	}
	return newReal(workDir)
}

// real is the on-disk journal. Entries are serialized through an internal
// mutex so concurrent workers can append safely (§5); each append is
// followed by an fsync inside the lock.
type real struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

func newReal(workDir string) (*real, error) {
	path := Path(workDir)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, apperr.ErrJournalExists
		}
		return nil, fmt.Errorf("creating activation journal: %w", err)
	}
	return &real{f: f, path: path}, nil
}

func (j *real) AddFile(rel modpath.RelPath) error {
	return j.entry(Added, rel)
}

func (j *real) ReplaceFile(rel modpath.RelPath) error {
	return j.entry(Replaced, rel)
}

func (j *real) entry(action Action, rel modpath.RelPath) error {
	line := fmt.Sprintf("%s %s\n", action.token(), rel.String())

	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.f.WriteString(line); err != nil {
		return fmt.Errorf("appending to activation journal: %w", err)
	}
	if err := j.f.Sync(); err != nil {
		return fmt.Errorf("syncing activation journal: %w", err)
	}
	return nil
}

func (j *real) Delete() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.f.Close(); err != nil {
		return fmt.Errorf("closing activation journal: %w", err)
	}
	if err := os.Remove(j.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting activation journal: %w", err)
	}
	return nil
}

// Dry is a fake journal used for dry runs: it writes lines to a diagnostic
// stream (stderr by default) instead of the filesystem.
type Dry struct {
	mu  sync.Mutex
	out *os.File
}

// NewDry constructs a Dry journal writing to stderr.
func NewDry() *Dry {
	return &Dry{out: os.Stderr}
}

func (d *Dry) AddFile(rel modpath.RelPath) error     { return d.entry(Added, rel) }
func (d *Dry) ReplaceFile(rel modpath.RelPath) error { return d.entry(Replaced, rel) }

func (d *Dry) entry(action Action, rel modpath.RelPath) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.out, "%s %s\n", action.token(), rel.String())
	return nil
}

// Delete is a no-op: a Dry journal never touches the filesystem.
func (d *Dry) Delete() error { return nil }

// ReadAll reads a journal file's entries, keyed by RelPath. It returns an
// empty map (not an error) if the journal doesn't exist. A line that
// doesn't split into exactly two non-empty whitespace-separated tokens is
// rejected.
func ReadAll(workDir string) (map[modpath.RelPath]Action, error) {
	path := Path(workDir)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[modpath.RelPath]Action{}, nil
		}
		return nil, fmt.Errorf("opening activation journal: %w", err)
	}
	defer f.Close()

	entries := make(map[modpath.RelPath]Action)
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed journal line %d: %q", lineNum, line)
		}
		action, ok := parseAction(fields[0])
		if !ok {
			return nil, fmt.Errorf("malformed journal line %d: unknown action %q", lineNum, fields[0])
		}
		rel, err := modpath.New(fields[1])
		if err != nil {
			return nil, fmt.Errorf("malformed journal line %d: %w", lineNum, err)
		}
		entries[rel] = action
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading activation journal: %w", err)
	}
	return entries, nil
}

// Exists reports whether an on-disk journal is present (§4.8 V1, §3 I5).
func Exists(workDir string) bool {
	_, err := os.Stat(Path(workDir))
	return err == nil
}
