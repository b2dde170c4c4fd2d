package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ShayCichocki/relay/pkg/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "relay", "conversations.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestSaveAndLoadTurn(t *testing.T) {
	db := openTestDB(t)

	turn := Turn{
		ID:        "turn-1",
		Request:   "what is new in Go",
		Answer:    "quite a lot",
		Mode:      "delegate",
		CreatedAt: time.Now(),
	}
	subtasks := []SubtaskRecord{
		{Seq: 1, Agent: "searcher", Description: "search for Go news", Status: "completed", Content: "found release notes"},
		{Seq: 2, Agent: "coordinator", Description: "summarize findings", Status: "failed", Error: "model hiccup"},
	}
	calls := []models.ToolCallRecord{
		{Tool: "web_fetch", Arguments: `{"url":"https://go.dev"}`, Output: "html", At: time.Now()},
	}

	if err := db.SaveTurn(turn, subtasks, calls); err != nil {
		t.Fatalf("SaveTurn: %v", err)
	}

	turns, err := db.RecentTurns(10)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	if len(turns) != 1 || turns[0].ID != "turn-1" || turns[0].Answer != "quite a lot" {
		t.Fatalf("turns = %+v", turns)
	}

	got, err := db.SubtasksForTurn("turn-1")
	if err != nil {
		t.Fatalf("SubtasksForTurn: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("subtasks = %+v", got)
	}
	if got[0].Seq != 1 || got[0].Status != "completed" {
		t.Errorf("first record = %+v", got[0])
	}
	if got[1].Error != "model hiccup" {
		t.Errorf("second record = %+v", got[1])
	}

	gotCalls, err := db.ToolCallsForTurn("turn-1")
	if err != nil {
		t.Fatalf("ToolCallsForTurn: %v", err)
	}
	if len(gotCalls) != 1 || gotCalls[0].Tool != "web_fetch" {
		t.Fatalf("tool calls = %+v", gotCalls)
	}
}

func TestRecentTurnsOrder(t *testing.T) {
	db := openTestDB(t)

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"old", "middle", "new"} {
		turn := Turn{
			ID:        id,
			Request:   "r",
			Answer:    "a",
			Mode:      "direct",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.SaveTurn(turn, nil, nil); err != nil {
			t.Fatalf("SaveTurn %s: %v", id, err)
		}
	}

	turns, err := db.RecentTurns(2)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	if len(turns) != 2 || turns[0].ID != "new" || turns[1].ID != "middle" {
		t.Errorf("turns = %+v, want newest first", turns)
	}
}

func TestPurgeOldTurnsCascades(t *testing.T) {
	db := openTestDB(t)

	old := Turn{ID: "old", Request: "r", Answer: "a", Mode: "direct", CreatedAt: time.Now().Add(-48 * time.Hour)}
	recent := Turn{ID: "recent", Request: "r", Answer: "a", Mode: "direct", CreatedAt: time.Now()}
	calls := []models.ToolCallRecord{{Tool: "read_file", At: old.CreatedAt}}

	if err := db.SaveTurn(old, []SubtaskRecord{{Seq: 1, Agent: "a", Description: "d", Status: "completed"}}, calls); err != nil {
		t.Fatalf("SaveTurn old: %v", err)
	}
	if err := db.SaveTurn(recent, nil, nil); err != nil {
		t.Fatalf("SaveTurn recent: %v", err)
	}

	n, err := db.PurgeOldTurns(24 * time.Hour)
	if err != nil {
		t.Fatalf("PurgeOldTurns: %v", err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}

	if sub, _ := db.SubtasksForTurn("old"); len(sub) != 0 {
		t.Errorf("subtask results should cascade on delete, got %+v", sub)
	}
	if c, _ := db.ToolCallsForTurn("old"); len(c) != 0 {
		t.Errorf("tool calls should cascade on delete, got %+v", c)
	}

	turns, err := db.RecentTurns(10)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	if len(turns) != 1 || turns[0].ID != "recent" {
		t.Errorf("turns = %+v", turns)
	}
}

func TestSaveTurnDuplicateIDFails(t *testing.T) {
	db := openTestDB(t)

	turn := Turn{ID: "dup", Request: "r", Answer: "a", Mode: "direct", CreatedAt: time.Now()}
	if err := db.SaveTurn(turn, nil, nil); err != nil {
		t.Fatalf("SaveTurn: %v", err)
	}
	if err := db.SaveTurn(turn, nil, nil); err == nil {
		t.Error("duplicate turn ID should be rejected")
	}
}
