// Package logging provides modman's process-wide log writer. Verbosity has
// four levels (warn/info/debug/trace); repeated -v flags select info (the
// default), debug, or trace, and warn is reachable only through SetLevel.
// Warnings/errors are colorized when writing to a terminal.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mitchellh/colorstring"
	"golang.org/x/term"
)

// Level is a logging verbosity level, ordered from least to most verbose.
type Level int

const (
	LevelWarn Level = iota
	LevelInfo
	LevelDebug
	LevelTrace
)

var (
	level atomic.Int32

	mu         sync.Mutex
	output     io.Writer = os.Stdout
	outputFile *os.File
	outputPath string
	colorize   = shouldColorize(os.Stdout)
)

func shouldColorize(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// SetLevel sets the process-wide logging verbosity.
func SetLevel(l Level) {
	level.Store(int32(l))
}

// SetVerbosity maps a repeated -v count to a Level: 0 -v is info (the
// default amount of chatter), 1 is debug, 2+ is trace. Warnings and errors
// always print regardless of level.
func SetVerbosity(count int) {
	switch {
	case count <= 0:
		SetLevel(LevelInfo)
	case count == 1:
		SetLevel(LevelDebug)
	default:
		SetLevel(LevelTrace)
	}
}

// CurrentLevel reports the active logging level.
func CurrentLevel() Level {
	return Level(level.Load())
}

// SetOutputFile configures optional file logging while preserving stdout
// output. Passing an empty path disables file logging.
func SetOutputFile(path string) error {
	path = strings.TrimSpace(path)

	mu.Lock()
	defer mu.Unlock()

	if path == outputPath {
		return nil
	}

	if outputFile != nil {
		if err := outputFile.Close(); err != nil {
			outputFile = nil
			outputPath = ""
			output = os.Stdout
			return err
		}
		outputFile = nil
		outputPath = ""
	}

	output = os.Stdout
	if path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	outputFile = f
	outputPath = path
	output = io.MultiWriter(os.Stdout, f)
	return nil
}

// Close flushes and closes the log file if one is configured.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if outputFile == nil {
		return nil
	}
	err := outputFile.Close()
	outputFile = nil
	outputPath = ""
	output = os.Stdout
	return err
}

func writeLine(color, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	if color != "" && colorize {
		msg = colorstring.Color(color + msg + "[reset]")
	}
	fmt.Fprintln(output, msg)
}

// Warnf prints a colorized warning. Always shown regardless of level.
func Warnf(format string, args ...any) {
	writeLine("[yellow]", format, args...)
}

// Errorf prints a colorized error. Always shown regardless of level.
func Errorf(format string, args ...any) {
	writeLine("[red]", format, args...)
}

// Infof prints at the info level or more verbose.
func Infof(format string, args ...any) {
	if CurrentLevel() < LevelInfo {
		return
	}
	writeLine("", format, args...)
}

// Debugf prints at the debug level or more verbose.
func Debugf(format string, args ...any) {
	if CurrentLevel() < LevelDebug {
		return
	}
	writeLine("[dim]", format, args...)
}

// Tracef prints at the trace level only.
func Tracef(format string, args ...any) {
	if CurrentLevel() < LevelTrace {
		return
	}
	writeLine("[dim]", format, args...)
}
