package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements TranscriptStore using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// AppendMessage inserts one conversation message.
func (s *SQLiteStore) AppendMessage(ctx context.Context, m Message) error {
	const query = `
		INSERT INTO messages (id, session_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		m.ID, m.SessionID, m.Role, m.Content, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

// ListMessages returns the messages of one session, oldest first.
func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID string) ([]Message, error) {
	const query = `
		SELECT id, session_id, role, content, created_at
		FROM messages
		WHERE session_id = ?
		ORDER BY created_at, id`

	var out []Message
	if err := s.db.SelectContext(ctx, &out, query, sessionID); err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return out, nil
}

// RecordDispatch inserts one send attempt.
func (s *SQLiteStore) RecordDispatch(ctx context.Context, d Dispatch) error {
	const query = `
		INSERT INTO dispatches (id, session_id, recipient, subject, ok, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		d.ID, d.SessionID, d.Recipient, d.Subject, d.OK, d.Detail, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting dispatch: %w", err)
	}
	return nil
}

// ListDispatches returns the most recent send attempts, newest first.
func (s *SQLiteStore) ListDispatches(ctx context.Context, limit int) ([]Dispatch, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `
		SELECT id, session_id, recipient, subject, ok, detail, created_at
		FROM dispatches
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	var out []Dispatch
	if err := s.db.SelectContext(ctx, &out, query, limit); err != nil {
		return nil, fmt.Errorf("listing dispatches: %w", err)
	}
	return out, nil
}
