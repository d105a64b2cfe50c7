// Package store provides transcript storage backends for Pandora.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/Tanya931151/mental-scope/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database
// directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists transcripts in an SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates an SQLite store. The DSN is a file path; the
// containing directory is created if missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied")

	return &SQLiteStore{db: db}, nil
}

// AddTurn appends a turn to the session's transcript.
func (s *SQLiteStore) AddTurn(turn models.Turn) error {
	_, err := s.db.Exec(
		`INSERT INTO turns (session_id, user_text, reply, topic, node, time) VALUES (?, ?, ?, ?, ?, ?)`,
		turn.SessionID, turn.UserText, turn.Reply, string(turn.Topic), string(turn.Node), turn.Time,
	)
	if err != nil {
		slog.Error("SQLiteStore AddTurn failed", "error", err, "session_id", turn.SessionID)
		return fmt.Errorf("failed to insert turn for %s: %w", turn.SessionID, err)
	}
	slog.Debug("SQLiteStore AddTurn succeeded", "session_id", turn.SessionID)
	return nil
}

// GetTurns returns the recorded turns for a session, oldest first.
func (s *SQLiteStore) GetTurns(sessionID string) ([]models.Turn, error) {
	rows, err := s.db.Query(
		`SELECT session_id, user_text, reply, topic, node, time FROM turns WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		slog.Error("SQLiteStore GetTurns query failed", "error", err, "session_id", sessionID)
		return nil, fmt.Errorf("failed to query turns for %s: %w", sessionID, err)
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var t models.Turn
		if err := rows.Scan(&t.SessionID, &t.UserText, &t.Reply, &t.Topic, &t.Node, &t.Time); err != nil {
			slog.Error("SQLiteStore GetTurns scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
