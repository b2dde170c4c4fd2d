package tools

import (
	"sync"
	"time"

	"github.com/ShayCichocki/relay/pkg/models"
)

// CallTracker is a session-keyed append-only log of tool invocations. It is
// safe for concurrent writes from parallel subtasks; reads return copies.
type CallTracker struct {
	mu    sync.Mutex
	calls map[string][]models.ToolCallRecord
}

// NewCallTracker creates an empty tracker.
func NewCallTracker() *CallTracker {
	return &CallTracker{
		calls: make(map[string][]models.ToolCallRecord),
	}
}

// Record appends one tool invocation to a session's log.
func (t *CallTracker) Record(sessionID, tool, arguments, output string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls[sessionID] = append(t.calls[sessionID], models.ToolCallRecord{
		Tool:      tool,
		Arguments: arguments,
		Output:    truncate(output, 2000),
		At:        time.Now(),
	})
}

// Calls returns a copy of the call log for a session, in append order.
func (t *CallTracker) Calls(sessionID string) []models.ToolCallRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.ToolCallRecord{}, t.calls[sessionID]...)
}

// Count returns the number of recorded calls for a session.
func (t *CallTracker) Count(sessionID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls[sessionID])
}

// Clear drops the log for a session, typically when its conversation is cleared.
func (t *CallTracker) Clear(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.calls, sessionID)
}

func truncate(s string, limit int) string {
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
