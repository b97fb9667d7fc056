// Package spoollog is the spooler's debug/trace log: a single
// append-only file under the user's cache directory, written with
// leveled, timestamped lines, mirroring the debug log redirection the
// teacher CLI performs at startup.
package spoollog

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger writes leveled lines to a single underlying file. Nil-safe:
// a nil *Logger discards everything, so subsystems can be constructed
// and tested without always threading a real log file through.
type Logger struct {
	mu  sync.Mutex
	out *log.Logger
	f   *os.File
}

// Open creates (or appends to) the log file at dir/spoold.log, creating
// dir if necessary.
func Open(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("spoollog: create cache dir: %w", err)
	}
	path := filepath.Join(dir, "spoold.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("spoollog: open log file: %w", err)
	}
	return &Logger{out: log.New(f, "", 0), f: f}, nil
}

// Discard returns a Logger that writes nowhere, for tests.
func Discard() *Logger {
	return &Logger{out: log.New(io.Discard, "", 0)}
}

func (l *Logger) line(level, format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := time.Now().Format(time.RFC3339Nano)
	l.out.Printf("%s [%s] %s", ts, level, fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, args ...any) { l.line("DEBUG", format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.line("INFO", format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.line("WARN", format, args...) }
func (l *Logger) Error(format string, args ...any) { l.line("ERROR", format, args...) }

// Close closes the underlying file, if any.
func (l *Logger) Close() error {
	if l == nil || l.f == nil {
		return nil
	}
	return l.f.Close()
}
