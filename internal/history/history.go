// Package history keeps a durable ledger of task status transitions in a
// project-local SQLite database. The ledger is an audit trail: claims,
// resolutions and releases are appended by the task store and read back by
// the log and status commands. It is advisory by design; task files remain
// the canonical state.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ShayCichocki/teamwork/pkg/models"
)

// Ledger wraps the SQLite transition log.
type Ledger struct {
	conn *sql.DB
	path string
	mu   sync.Mutex
}

// Transition is one recorded status change.
type Transition struct {
	// ID is the ledger row id.
	ID int64 `json:"id"`
	// TaskID is the task that changed.
	TaskID string `json:"task_id"`
	// From is the status before the change; empty for task creation.
	From models.TaskStatus `json:"from,omitempty"`
	// To is the status after the change.
	To models.TaskStatus `json:"to"`
	// Actor is the holder id that made the change, if any.
	Actor string `json:"actor,omitempty"`
	// At is when the change was recorded.
	At time.Time `json:"at"`
}

// Path returns the ledger location for a project root.
func Path(root string) string {
	return filepath.Join(root, "history.db")
}

// Open opens (and if needed creates and migrates) the ledger at path.
// WAL mode is enabled so readers do not block the writer.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	l := &Ledger{conn: conn, path: path}
	if err := l.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return l, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn.Close()
}

// migrate applies pending schema migrations.
func (l *Ledger) migrate() error {
	_, err := l.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var current int
	row := l.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Transitions},
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := l.conn.Begin()
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

const migrationV1Transitions = `
	CREATE TABLE transitions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id TEXT NOT NULL,
		from_status TEXT NOT NULL DEFAULT '',
		to_status TEXT NOT NULL,
		actor TEXT NOT NULL DEFAULT '',
		at DATETIME NOT NULL
	);
	CREATE INDEX idx_transitions_task ON transitions(task_id);
`

// Record appends one transition to the ledger.
func (l *Ledger) Record(taskID string, from, to models.TaskStatus, actor string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.conn.Exec(
		"INSERT INTO transitions (task_id, from_status, to_status, actor, at) VALUES (?, ?, ?, ?, ?)",
		taskID, string(from), string(to), actor, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record transition for %s: %w", taskID, err)
	}
	return nil
}

// ListByTask returns every transition for one task, oldest first.
func (l *Ledger) ListByTask(taskID string) ([]Transition, error) {
	rows, err := l.conn.Query(
		"SELECT id, task_id, from_status, to_status, actor, at FROM transitions WHERE task_id = ? ORDER BY id",
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transitions for %s: %w", taskID, err)
	}
	defer rows.Close()
	return scanTransitions(rows)
}

// Recent returns the most recent transitions across all tasks, newest first.
func (l *Ledger) Recent(limit int) ([]Transition, error) {
	rows, err := l.conn.Query(
		"SELECT id, task_id, from_status, to_status, actor, at FROM transitions ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent transitions: %w", err)
	}
	defer rows.Close()
	return scanTransitions(rows)
}

func scanTransitions(rows *sql.Rows) ([]Transition, error) {
	var out []Transition
	for rows.Next() {
		var t Transition
		var from, to string
		if err := rows.Scan(&t.ID, &t.TaskID, &from, &to, &t.Actor, &t.At); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		t.From = models.TaskStatus(from)
		t.To = models.TaskStatus(to)
		out = append(out, t)
	}
	return out, rows.Err()
}
