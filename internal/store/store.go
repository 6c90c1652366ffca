// Package store persists conversation transcripts and dispatch attempts
// in a local SQLite database.
package store

import (
	"context"
	"time"
)

// Message is one persisted conversation message.
type Message struct {
	ID        string    `db:"id"`
	SessionID string    `db:"session_id"`
	Role      string    `db:"role"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

// Dispatch is one persisted send attempt, success or failure.
type Dispatch struct {
	ID        string    `db:"id"`
	SessionID string    `db:"session_id"`
	Recipient string    `db:"recipient"`
	Subject   string    `db:"subject"`
	OK        bool      `db:"ok"`
	Detail    string    `db:"detail"`
	CreatedAt time.Time `db:"created_at"`
}

// TranscriptStore defines the persistence interface for conversation
// transcripts and the dispatch log.
type TranscriptStore interface {
	AppendMessage(ctx context.Context, m Message) error
	ListMessages(ctx context.Context, sessionID string) ([]Message, error)

	RecordDispatch(ctx context.Context, d Dispatch) error
	ListDispatches(ctx context.Context, limit int) ([]Dispatch, error)

	Close() error
}
