// Package store provides transcript storage backends for Pandora.
//
// The engine itself is stateless; transports record each processed turn
// here so conversations can be reviewed. An in-memory store backs tests
// and development, with SQLite and PostgreSQL for deployments.
package store

import (
	"strings"
	"sync"

	"github.com/Tanya931151/mental-scope/internal/models"
)

// Store records processed turns per session.
type Store interface {
	// AddTurn appends one processed turn to the transcript.
	AddTurn(turn models.Turn) error

	// GetTurns returns the recorded turns for a session, oldest first.
	GetTurns(sessionID string) ([]models.Turn, error)

	// Close releases any underlying resources.
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for store backends.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports "postgres" for PostgreSQL connection strings and
// "sqlite" otherwise (file paths and file: URIs).
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return "postgres"
	}
	return "sqlite"
}

// InMemoryStore is a mutex-guarded in-memory transcript store.
type InMemoryStore struct {
	mu    sync.Mutex
	turns map[string][]models.Turn
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{turns: make(map[string][]models.Turn)}
}

// AddTurn appends a turn to the session's transcript.
func (s *InMemoryStore) AddTurn(turn models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[turn.SessionID] = append(s.turns[turn.SessionID], turn)
	return nil
}

// GetTurns returns a copy of the session's transcript.
func (s *InMemoryStore) GetTurns(sessionID string) ([]models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := make([]models.Turn, len(s.turns[sessionID]))
	copy(turns, s.turns[sessionID])
	return turns, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
