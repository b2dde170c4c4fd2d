package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestDebugLoggerWritesLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")

	l, err := NewDebugLogger(path)
	if err != nil {
		t.Fatalf("NewDebugLogger: %v", err)
	}
	l.Log("graph built with %d nodes", 3)
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "graph built with 3 nodes") {
		t.Errorf("log missing entry:\n%s", data)
	}
}

func TestDebugLoggerNoOpPaths(t *testing.T) {
	var nilLogger *DebugLogger
	nilLogger.Log("ignored")
	if err := nilLogger.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}

	nop := NopLogger()
	nop.Log("also ignored")
	if err := nop.Close(); err != nil {
		t.Errorf("nop Close: %v", err)
	}

	l, err := NewDebugLogger("")
	if err != nil {
		t.Fatalf("empty path should yield a no-op logger: %v", err)
	}
	l.Log("dropped")
}

func TestNewDebugLoggerForDirUnwritable(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("write blocker file: %v", err)
	}

	// .relay cannot be created under a regular file; logging must degrade,
	// not fail.
	l := NewDebugLoggerForDir(filepath.Join(file, "nested"))
	l.Log("dropped")
	if err := l.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestDebugLogConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	l, err := NewDebugLogger(path)
	if err != nil {
		t.Fatalf("NewDebugLogger: %v", err)
	}
	setPackageLogger(l)
	defer setPackageLogger(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			debugLog("writer %d", n)
		}(i)
	}
	wg.Wait()

	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if got := strings.Count(string(data), "writer "); got != 20 {
		t.Errorf("log has %d writer lines, want 20", got)
	}
}
