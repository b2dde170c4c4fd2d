// Package store provides SQLite-based conversation persistence for Relay.
// Each processed turn is recorded with its subtask outcomes and tool calls.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ShayCichocki/relay/pkg/models"
)

// DB wraps an SQLite database connection with conversation operations.
type DB struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// Open opens an SQLite database at the given path, creating parent
// directories as needed. WAL mode is enabled for concurrent reads.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &DB{conn: conn, path: path}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn.Close()
}

// Path returns the path to the database file.
func (db *DB) Path() string {
	return db.path
}

// Migrate applies all pending schema migrations.
func (db *DB) Migrate() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := db.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Turns},
		{2, migrationV2Subtasks},
		{3, migrationV3ToolCalls},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

const migrationV1Turns = `
CREATE TABLE IF NOT EXISTS turns (
	id TEXT PRIMARY KEY,
	request TEXT NOT NULL,
	answer TEXT NOT NULL,
	mode TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_turns_created_at ON turns(created_at);
`

const migrationV2Subtasks = `
CREATE TABLE IF NOT EXISTS subtask_results (
	turn_id TEXT NOT NULL REFERENCES turns(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	agent TEXT NOT NULL,
	description TEXT NOT NULL,
	status TEXT NOT NULL,
	content TEXT,
	error TEXT,
	PRIMARY KEY (turn_id, seq)
);
`

const migrationV3ToolCalls = `
CREATE TABLE IF NOT EXISTS tool_calls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	turn_id TEXT NOT NULL REFERENCES turns(id) ON DELETE CASCADE,
	tool TEXT NOT NULL,
	arguments TEXT,
	output TEXT,
	called_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tool_calls_turn_id ON tool_calls(turn_id);
`

// Turn is one persisted request/answer exchange.
type Turn struct {
	ID        string
	Request   string
	Answer    string
	Mode      string
	CreatedAt time.Time
}

// SubtaskRecord is one persisted subtask outcome.
type SubtaskRecord struct {
	Seq         int
	Agent       string
	Description string
	Status      string
	Content     string
	Error       string
}

// SaveTurn persists a turn with its subtask outcomes and tool calls in one
// transaction.
func (db *DB) SaveTurn(turn Turn, subtasks []SubtaskRecord, calls []models.ToolCallRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO turns (id, request, answer, mode, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, turn.ID, turn.Request, turn.Answer, turn.Mode, formatTime(turn.CreatedAt))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert turn: %w", err)
	}

	for _, st := range subtasks {
		_, err = tx.Exec(`
			INSERT INTO subtask_results (turn_id, seq, agent, description, status, content, error)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, turn.ID, st.Seq, st.Agent, st.Description, st.Status, st.Content, st.Error)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert subtask result %d: %w", st.Seq, err)
		}
	}

	for _, call := range calls {
		at := call.At
		if at.IsZero() {
			at = turn.CreatedAt
		}
		_, err = tx.Exec(`
			INSERT INTO tool_calls (turn_id, tool, arguments, output, called_at)
			VALUES (?, ?, ?, ?, ?)
		`, turn.ID, call.Tool, call.Arguments, call.Output, formatTime(at))
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert tool call: %w", err)
		}
	}

	return tx.Commit()
}

// RecentTurns returns the most recent turns, newest first.
func (db *DB) RecentTurns(limit int) ([]Turn, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT id, request, answer, mode, created_at
		FROM turns ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var created string
		if err := rows.Scan(&t.ID, &t.Request, &t.Answer, &t.Mode, &created); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if t.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("parse turn time: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// SubtasksForTurn returns the persisted subtask outcomes for a turn in
// sequence order.
func (db *DB) SubtasksForTurn(turnID string) ([]SubtaskRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT seq, agent, description, status, content, error
		FROM subtask_results WHERE turn_id = ? ORDER BY seq ASC
	`, turnID)
	if err != nil {
		return nil, fmt.Errorf("query subtask results: %w", err)
	}
	defer rows.Close()

	var records []SubtaskRecord
	for rows.Next() {
		var rec SubtaskRecord
		var content, errText sql.NullString
		if err := rows.Scan(&rec.Seq, &rec.Agent, &rec.Description, &rec.Status, &content, &errText); err != nil {
			return nil, fmt.Errorf("scan subtask result: %w", err)
		}
		rec.Content = content.String
		rec.Error = errText.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ToolCallsForTurn returns the persisted tool calls for a turn in call order.
func (db *DB) ToolCallsForTurn(turnID string) ([]models.ToolCallRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT tool, arguments, output, called_at
		FROM tool_calls WHERE turn_id = ? ORDER BY id ASC
	`, turnID)
	if err != nil {
		return nil, fmt.Errorf("query tool calls: %w", err)
	}
	defer rows.Close()

	var calls []models.ToolCallRecord
	for rows.Next() {
		var call models.ToolCallRecord
		var args, output sql.NullString
		var at string
		if err := rows.Scan(&call.Tool, &args, &output, &at); err != nil {
			return nil, fmt.Errorf("scan tool call: %w", err)
		}
		call.Arguments = args.String
		call.Output = output.String
		if call.At, err = parseTime(at); err != nil {
			return nil, fmt.Errorf("parse tool call time: %w", err)
		}
		calls = append(calls, call)
	}
	return calls, rows.Err()
}

// PurgeOldTurns deletes turns older than the given duration and returns the
// number deleted. Subtask results and tool calls cascade.
func (db *DB) PurgeOldTurns(olderThan time.Duration) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	cutoff := formatTime(time.Now().Add(-olderThan))
	result, err := db.conn.Exec("DELETE FROM turns WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge old turns: %w", err)
	}
	return result.RowsAffected()
}

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
