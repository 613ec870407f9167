// Package logging provides the leveled, optionally colored logger shared by
// every dsconvert command.
//
// A Logger is constructed explicitly with [New] and passed to the components
// that need it; there is no package-level logger. Each event is formatted
// once and written as a single line under a mutex, so concurrent workers
// never interleave partial lines in the console or the log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/backmassage/dsconvert/internal/term"
)

const timeLayout = "2006-01-02 15:04:05"

// Options describes logger construction parameters.
type Options struct {
	// FilePath, when set, receives every line (uncolored) in append mode.
	FilePath string
	Palette  term.Palette
	Verbose  bool
	// Stdout and Stderr default to os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// Logger provides leveled, optionally colored logging with optional file sink.
type Logger struct {
	mu       sync.Mutex
	palette  term.Palette
	verbose  bool
	stdout   io.Writer
	stderr   io.Writer
	file     *os.File
	filePath string
	now      func() time.Time
}

// New builds a Logger. When opts.FilePath is set its directory is created and
// the file opened for appending; call Close when done.
func New(opts Options) (*Logger, error) {
	l := &Logger{
		palette: opts.Palette,
		verbose: opts.Verbose,
		stdout:  opts.Stdout,
		stderr:  opts.Stderr,
		now:     time.Now,
	}
	if l.stdout == nil {
		l.stdout = os.Stdout
	}
	if l.stderr == nil {
		l.stderr = os.Stderr
	}

	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", opts.FilePath, err)
		}
		l.file = f
		l.filePath = opts.FilePath
	}
	return l, nil
}

// Discard returns a Logger that writes nowhere. Useful in tests and in code
// paths that must not fail on logger setup.
func Discard() *Logger {
	return &Logger{stdout: io.Discard, stderr: io.Discard, now: time.Now}
}

// Palette returns the colors this logger was built with.
func (l *Logger) Palette() term.Palette { return l.palette }

// FilePath returns the log file path, or "" when logging only to the console.
func (l *Logger) FilePath() string { return l.filePath }

// Verbose reports whether Debug lines are emitted.
func (l *Logger) Verbose() bool { return l.verbose }

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

func (l *Logger) line(level, color, text string) {
	ts := l.now().Format(timeLayout)
	plain := ts + " [" + level + "] " + text + "\n"

	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.stdout
	if level == "ERROR" {
		out = l.stderr
	}
	if l.palette.Enabled() {
		_, _ = io.WriteString(out, ts+" "+color+"["+level+"]"+l.palette.NC+" "+text+"\n")
	} else {
		_, _ = io.WriteString(out, plain)
	}
	if l.file != nil {
		_, _ = io.WriteString(l.file, plain)
	}
}

// Info logs at INFO level (blue).
func (l *Logger) Info(format string, args ...interface{}) {
	l.line("INFO", l.palette.Blue, fmt.Sprintf(format, args...))
}

// Success logs at SUCCESS level (green).
func (l *Logger) Success(format string, args ...interface{}) {
	l.line("SUCCESS", l.palette.Green, fmt.Sprintf(format, args...))
}

// Warn logs at WARN level (yellow).
func (l *Logger) Warn(format string, args ...interface{}) {
	l.line("WARN", l.palette.Yellow, fmt.Sprintf(format, args...))
}

// Error logs at ERROR level (red), to stderr and the log file.
func (l *Logger) Error(format string, args ...interface{}) {
	l.line("ERROR", l.palette.Red, fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level (cyan) only when the logger is verbose.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.line("DEBUG", l.palette.Cyan, fmt.Sprintf(format, args...))
}
