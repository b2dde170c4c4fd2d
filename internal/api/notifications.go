package api

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// NotificationManager watches the .relay signals directory so an abandoned
// turn can be stopped from outside the process (the UI clears a
// conversation, a second CLI invocation sends stop). In-flight model calls
// are not forcibly interrupted; the caller cancels its context and discards
// whatever results arrive late.
type NotificationManager struct {
	relayDir string

	mu         sync.RWMutex
	stopSignal bool

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewNotificationManager creates a notification manager rooted at baseDir.
func NewNotificationManager(baseDir string) (*NotificationManager, error) {
	relayDir := filepath.Join(baseDir, ".relay")
	if err := os.MkdirAll(filepath.Join(relayDir, "signals"), 0755); err != nil {
		return nil, err
	}

	nm := &NotificationManager{
		relayDir: relayDir,
		done:     make(chan struct{}),
	}

	// Start a file watcher for immediate signals; fall back to the stat
	// check in ShouldStop when the watcher cannot start.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nm, nil
	}
	nm.watcher = watcher

	if err := watcher.Add(filepath.Join(relayDir, "signals")); err != nil {
		watcher.Close()
		nm.watcher = nil
		return nm, nil
	}

	go nm.watchSignals()

	return nm, nil
}

// watchSignals monitors the signals directory for the stop file.
func (nm *NotificationManager) watchSignals() {
	for {
		select {
		case <-nm.done:
			return
		case event, ok := <-nm.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) == "stop" && (event.Op&fsnotify.Create != 0 || event.Op&fsnotify.Write != 0) {
				nm.mu.Lock()
				nm.stopSignal = true
				nm.mu.Unlock()
			}
		case <-nm.watcher.Errors:
			// Ignore errors, keep watching.
		}
	}
}

// ShouldStop returns true if a stop signal has been received.
func (nm *NotificationManager) ShouldStop() bool {
	// Also check the file directly in case the watcher missed it.
	stopPath := filepath.Join(nm.relayDir, "signals", "stop")
	if _, err := os.Stat(stopPath); err == nil {
		nm.mu.Lock()
		nm.stopSignal = true
		nm.mu.Unlock()
	}

	nm.mu.RLock()
	defer nm.mu.RUnlock()
	return nm.stopSignal
}

// SendStop creates the stop signal file.
func (nm *NotificationManager) SendStop() error {
	path := filepath.Join(nm.relayDir, "signals", "stop")
	return os.WriteFile(path, []byte(time.Now().Format(time.RFC3339)), 0644)
}

// ClearSignals removes signal files and resets signal state.
func (nm *NotificationManager) ClearSignals() {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	nm.stopSignal = false
	os.Remove(filepath.Join(nm.relayDir, "signals", "stop"))
}

// RelayDir returns the path to the .relay directory.
func (nm *NotificationManager) RelayDir() string {
	return nm.relayDir
}

// Close shuts down the notification manager.
func (nm *NotificationManager) Close() {
	close(nm.done)
	if nm.watcher != nil {
		nm.watcher.Close()
	}
}
