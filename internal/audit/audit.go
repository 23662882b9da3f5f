// Package audit implements the supervisor's append-only audit log.
//
// It is grounded on the teacher daemon's internal/logging.Writer: a
// bufio-backed file writer that rotates on size, written with no
// third-party logging library (the teacher never reaches for zap or
// zerolog here, so neither does this package). Rotation differs from the
// teacher's numbered-backup scheme (.1, .2, ...): per the supervisor
// spec, the active file is renamed to "<path>.<unix_seconds>" so rotated
// files sort by the time they were closed.
package audit

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// Level is the severity of an audit record.
type Level string

// Audit log severities, per spec.
const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

const (
	filePermissions = 0o644
	dirPermissions  = 0o755
	logFileFlags    = os.O_APPEND | os.O_CREATE | os.O_WRONLY
)

// MaxLogSize is the size threshold (bytes) that triggers rotation.
// Overridable at construction time by the config tunables overlay.
const MaxLogSize int64 = 1 << 20 // 1 MiB

// degraded tracks whether the log has ever failed to open or write.
// It is process-wide and exported for test observability, matching
// spec.md's "log_degraded" flag.
var degraded atomic.Bool

// Degraded reports whether a write or rotation has failed since startup.
func Degraded() bool {
	return degraded.Load()
}

// ResetDegraded clears the degraded flag. Test-only helper.
func ResetDegraded() {
	degraded.Store(false)
}

// Log is an append-only, size-rotating audit log.
//
// Emit, Close and Size all take the mutex below, so one Log may be
// shared by several goroutines: most records come from the Supervisor
// Loop, but producers such as Loop.Enqueue's callers and the control
// listener goroutine in bootstrap also emit from their own goroutines.
type Log struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	writer  *bufio.Writer
	size    int64
	maxSize int64
}

// Open opens (or creates) the audit log at path.
func Open(path string, maxSize int64) (*Log, error) {
	if maxSize <= 0 {
		maxSize = MaxLogSize
	}
	l := &Log{path: path, maxSize: maxSize}
	if err := l.openCurrent(); err != nil {
		degraded.Store(true)
		return nil, err
	}
	return l, nil
}

// openCurrent opens the active log file and primes size tracking.
func (l *Log) openCurrent() error {
	if err := os.MkdirAll(filepath.Dir(l.path), dirPermissions); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(l.path, logFileFlags, filePermissions)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	l.file = f
	l.writer = bufio.NewWriter(f)
	l.size = info.Size()
	return nil
}

// Emit appends one record. Failures are suppressed — emit must never
// crash the supervisor — but flip the process-wide degraded flag.
func (l *Log) Emit(level Level, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("[%s] %s %s\n", level, timestamp(), message)

	if l.maxSize > 0 && l.size+int64(len(line)) >= l.maxSize {
		if err := l.rotate(); err != nil {
			degraded.Store(true)
			return
		}
	}

	n, err := l.writer.WriteString(line)
	if err != nil {
		degraded.Store(true)
		return
	}
	if err := l.writer.Flush(); err != nil {
		degraded.Store(true)
		return
	}
	l.size += int64(n)
}

// rotate closes the active file, renames it to "<path>.<unix_seconds>",
// and opens a fresh file. The new file is opened before any further
// write is attempted, so a reader never observes a record split across
// the rename (the rename itself is atomic on the same filesystem).
func (l *Log) rotate() error {
	if err := l.writer.Flush(); err != nil {
		return err
	}
	if err := l.file.Close(); err != nil {
		return err
	}

	// Several rotations within one second would otherwise rename onto
	// the same file; bump the suffix past any name already taken so
	// rotated files keep strictly increasing suffixes.
	sec := time.Now().Unix()
	rotated := fmt.Sprintf("%s.%d", l.path, sec)
	for {
		if _, err := os.Stat(rotated); os.IsNotExist(err) {
			break
		}
		sec++
		rotated = fmt.Sprintf("%s.%d", l.path, sec)
	}
	if err := os.Rename(l.path, rotated); err != nil && !os.IsNotExist(err) {
		return err
	}

	f, err := os.OpenFile(l.path, logFileFlags, filePermissions)
	if err != nil {
		return err
	}
	l.file = f
	l.writer = bufio.NewWriter(f)
	l.size = 0
	return nil
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.writer.Flush(); err != nil {
		return err
	}
	return l.file.Close()
}

// Size returns the current active file's size in bytes.
func (l *Log) Size() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// Path returns the active log file path.
func (l *Log) Path() string {
	return l.path
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
