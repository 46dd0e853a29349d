// Package persistence provides SQLite-backed storage for world snapshots,
// plus a plain JSON file format for single-world dumps.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/auralis/internal/world"
)

// ErrNotFound is returned when a world id has no stored snapshot.
var ErrNotFound = errors.New("snapshot not found")

// DB wraps a SQLite connection for snapshot persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path, creating
// parent directories as needed.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS world_snapshots (
		world_id TEXT PRIMARY KEY,
		time INTEGER NOT NULL,
		state_json TEXT NOT NULL,
		agents_json TEXT NOT NULL,
		events_json TEXT NOT NULL,
		history_json TEXT NOT NULL,
		saved_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveWorld writes a world snapshot, replacing any previous one for the
// same id.
func (db *DB) SaveWorld(worldID string, snap world.Snapshot) error {
	stateJSON, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	agentsJSON, err := json.Marshal(snap.Agents)
	if err != nil {
		return fmt.Errorf("marshal agents: %w", err)
	}
	eventsJSON, err := json.Marshal(snap.Events)
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}
	historyJSON, err := json.Marshal(snap.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	_, err = db.conn.Exec(`
		INSERT INTO world_snapshots (world_id, time, state_json, agents_json, events_json, history_json, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(world_id) DO UPDATE SET
			time = excluded.time,
			state_json = excluded.state_json,
			agents_json = excluded.agents_json,
			events_json = excluded.events_json,
			history_json = excluded.history_json,
			saved_at = excluded.saved_at`,
		worldID, snap.Time, string(stateJSON), string(agentsJSON),
		string(eventsJSON), string(historyJSON), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// LoadWorld reads a world snapshot by id. Returns ErrNotFound when the
// id has never been saved.
func (db *DB) LoadWorld(worldID string) (world.Snapshot, error) {
	var row struct {
		Time        int    `db:"time"`
		StateJSON   string `db:"state_json"`
		AgentsJSON  string `db:"agents_json"`
		EventsJSON  string `db:"events_json"`
		HistoryJSON string `db:"history_json"`
	}

	err := db.conn.Get(&row, `
		SELECT time, state_json, agents_json, events_json, history_json
		FROM world_snapshots WHERE world_id = ?`, worldID)
	if errors.Is(err, sql.ErrNoRows) {
		return world.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return world.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	snap := world.Snapshot{Time: row.Time}
	if err := json.Unmarshal([]byte(row.StateJSON), &snap.State); err != nil {
		return world.Snapshot{}, fmt.Errorf("unmarshal state: %w", err)
	}
	if err := json.Unmarshal([]byte(row.AgentsJSON), &snap.Agents); err != nil {
		return world.Snapshot{}, fmt.Errorf("unmarshal agents: %w", err)
	}
	if err := json.Unmarshal([]byte(row.EventsJSON), &snap.Events); err != nil {
		return world.Snapshot{}, fmt.Errorf("unmarshal events: %w", err)
	}
	if err := json.Unmarshal([]byte(row.HistoryJSON), &snap.History); err != nil {
		return world.Snapshot{}, fmt.Errorf("unmarshal history: %w", err)
	}

	return snap, nil
}

// ListSaved returns the world ids with stored snapshots.
func (db *DB) ListSaved() ([]string, error) {
	var ids []string
	if err := db.conn.Select(&ids, `SELECT world_id FROM world_snapshots ORDER BY world_id`); err != nil {
		return nil, err
	}
	return ids, nil
}

// SetMeta stores a key/value pair in the meta table.
func (db *DB) SetMeta(key, value string) error {
	_, err := db.conn.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// GetMeta reads a value from the meta table.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, `SELECT value FROM meta WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}
