// Package persistence provides SQLite-based game state storage. Each game's
// WorldState is persisted as one opaque JSON value, with a sidecar table of
// player tokens; a tick commits both in a single transaction.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/statecraft/internal/state"
)

// ErrNotFound is returned when a game id has no stored state.
var ErrNotFound = errors.New("game not found")

// DB wraps a SQLite connection for game state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
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
	CREATE TABLE IF NOT EXISTS games (
		server_id TEXT PRIMARY KEY,
		state_json TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS player_tokens (
		server_id TEXT NOT NULL,
		player_id TEXT NOT NULL,
		token TEXT NOT NULL,
		PRIMARY KEY (server_id, player_id)
	);

	CREATE INDEX IF NOT EXISTS idx_tokens_server ON player_tokens(server_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveGame writes a game's full state and token sidecar atomically. Called at
// game creation, on join, on action submission, and at tick finalize.
func (db *DB) SaveGame(w *state.WorldState, tokens map[string]string) error {
	stateJSON, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO games (server_id, state_json, updated_at) VALUES (?, ?, strftime('%s','now'))
		 ON CONFLICT(server_id) DO UPDATE SET state_json = excluded.state_json, updated_at = excluded.updated_at`,
		w.Meta.ServerID, string(stateJSON),
	); err != nil {
		return fmt.Errorf("upsert game %s: %w", w.Meta.ServerID, err)
	}

	if _, err := tx.Exec("DELETE FROM player_tokens WHERE server_id = ?", w.Meta.ServerID); err != nil {
		return err
	}
	for playerID, token := range tokens {
		if _, err := tx.Exec(
			"INSERT INTO player_tokens (server_id, player_id, token) VALUES (?, ?, ?)",
			w.Meta.ServerID, playerID, token,
		); err != nil {
			return fmt.Errorf("insert token for %s: %w", playerID, err)
		}
	}

	return tx.Commit()
}

// LoadGame reads one game's state and tokens.
func (db *DB) LoadGame(serverID string) (*state.WorldState, map[string]string, error) {
	var stateJSON string
	err := db.conn.Get(&stateJSON, "SELECT state_json FROM games WHERE server_id = ?", serverID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load game %s: %w", serverID, err)
	}

	var w state.WorldState
	if err := json.Unmarshal([]byte(stateJSON), &w); err != nil {
		return nil, nil, fmt.Errorf("unmarshal state %s: %w", serverID, err)
	}
	if w.Players == nil {
		w.Players = make(map[string]*state.Player)
	}
	if w.History.PlayerReputations == nil {
		w.History.PlayerReputations = make(map[string]state.ReputationRecord)
	}

	type tokenRow struct {
		PlayerID string `db:"player_id"`
		Token    string `db:"token"`
	}
	var rows []tokenRow
	if err := db.conn.Select(&rows,
		"SELECT player_id, token FROM player_tokens WHERE server_id = ?", serverID,
	); err != nil {
		return nil, nil, fmt.Errorf("load tokens %s: %w", serverID, err)
	}
	tokens := make(map[string]string, len(rows))
	for _, r := range rows {
		tokens[r.PlayerID] = r.Token
	}
	return &w, tokens, nil
}

// ListGameIDs returns every stored game id, for restore on startup.
func (db *DB) ListGameIDs() ([]string, error) {
	var ids []string
	if err := db.conn.Select(&ids, "SELECT server_id FROM games ORDER BY server_id"); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return ids, nil
}

// DeleteGame removes a game and its tokens.
func (db *DB) DeleteGame(serverID string) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM games WHERE server_id = ?", serverID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM player_tokens WHERE server_id = ?", serverID); err != nil {
		return err
	}
	slog.Info("game deleted", "server", serverID)
	return tx.Commit()
}
