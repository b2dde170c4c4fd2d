package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	pkgLoggerMu sync.RWMutex
	pkgLogger   *DebugLogger
)

// setPackageLogger installs the logger that debugLog writes through. The
// orchestrator sets it once at construction.
func setPackageLogger(l *DebugLogger) {
	pkgLoggerMu.Lock()
	pkgLogger = l
	pkgLoggerMu.Unlock()
}

// debugLog is the logging hook handed to components constructed before the
// orchestrator itself, such as the per-turn dependency graph.
func debugLog(format string, args ...interface{}) {
	pkgLoggerMu.RLock()
	l := pkgLogger
	pkgLoggerMu.RUnlock()
	l.Log(format, args...)
}

// DebugLogger appends timestamped lines to a log file. The zero value and
// nil are both valid no-op loggers, so call sites never guard their logging.
type DebugLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NopLogger returns a logger that discards everything.
func NopLogger() *DebugLogger {
	return &DebugLogger{}
}

// NewDebugLogger opens a logger appending to logPath, creating parent
// directories first. An empty path yields a no-op logger.
func NewDebugLogger(logPath string) (*DebugLogger, error) {
	if logPath == "" {
		return NopLogger(), nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	l := &DebugLogger{file: f}
	l.Log("=== debug log opened %s ===", time.Now().Format(time.RFC3339))
	return l, nil
}

// NewDebugLoggerForDir opens the debug log at its conventional location,
// {baseDir}/.relay/logs/orchestrator-debug.log. Falls back to a no-op
// logger rather than failing the turn over an unwritable log.
func NewDebugLoggerForDir(baseDir string) *DebugLogger {
	l, err := NewDebugLogger(filepath.Join(baseDir, ".relay", "logs", "orchestrator-debug.log"))
	if err != nil {
		return NopLogger()
	}
	return l
}

// Log appends one formatted, timestamped line. Safe on a nil or no-op
// logger, and safe for concurrent use.
func (l *DebugLogger) Log(format string, args ...interface{}) {
	if l == nil || l.file == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.file, "[%s] %s\n", time.Now().Format("15:04:05.000"), fmt.Sprintf(format, args...))
	l.file.Sync()
}

// Close releases the log file. Safe on a nil or no-op logger.
func (l *DebugLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
