// Package store provides transcript storage backends for Pandora.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "embed"

	"github.com/Tanya931151/mental-scope/internal/models"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists transcripts in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL store from a connection string.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run Postgres migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied")

	return &PostgresStore{db: db}, nil
}

// AddTurn appends a turn to the session's transcript.
func (s *PostgresStore) AddTurn(turn models.Turn) error {
	_, err := s.db.Exec(
		`INSERT INTO turns (session_id, user_text, reply, topic, node, time) VALUES ($1, $2, $3, $4, $5, $6)`,
		turn.SessionID, turn.UserText, turn.Reply, string(turn.Topic), string(turn.Node), turn.Time,
	)
	if err != nil {
		slog.Error("PostgresStore AddTurn failed", "error", err, "session_id", turn.SessionID)
		return fmt.Errorf("failed to insert turn for %s: %w", turn.SessionID, err)
	}
	slog.Debug("PostgresStore AddTurn succeeded", "session_id", turn.SessionID)
	return nil
}

// GetTurns returns the recorded turns for a session, oldest first.
func (s *PostgresStore) GetTurns(sessionID string) ([]models.Turn, error) {
	rows, err := s.db.Query(
		`SELECT session_id, user_text, reply, topic, node, time FROM turns WHERE session_id = $1 ORDER BY id`,
		sessionID,
	)
	if err != nil {
		slog.Error("PostgresStore GetTurns query failed", "error", err, "session_id", sessionID)
		return nil, fmt.Errorf("failed to query turns for %s: %w", sessionID, err)
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var t models.Turn
		if err := rows.Scan(&t.SessionID, &t.UserText, &t.Reply, &t.Topic, &t.Node, &t.Time); err != nil {
			slog.Error("PostgresStore GetTurns scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
