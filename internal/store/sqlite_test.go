package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otg002/Lumabot/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "transcript.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestAppendAndListMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	session := uuid.NewString()
	base := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

	msgs := []store.Message{
		{ID: uuid.NewString(), SessionID: session, Role: "user", Content: "email bob about the outage", CreatedAt: base},
		{ID: uuid.NewString(), SessionID: session, Role: "assistant", Content: "Here are the details", CreatedAt: base.Add(time.Second)},
		{ID: uuid.NewString(), SessionID: session, Role: "user", Content: "yes", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, m := range msgs {
		require.NoError(t, s.AppendMessage(ctx, m))
	}

	// A message from another session must not leak in.
	other := store.Message{
		ID: uuid.NewString(), SessionID: uuid.NewString(),
		Role: "user", Content: "unrelated", CreatedAt: base,
	}
	require.NoError(t, s.AppendMessage(ctx, other))

	got, err := s.ListMessages(ctx, session)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "email bob about the outage", got[0].Content)
	assert.Equal(t, "assistant", got[1].Role)
	assert.Equal(t, "yes", got[2].Content)
}

func TestListMessagesEmptySession(t *testing.T) {
	s := newTestStore(t)

	got, err := s.ListMessages(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecordAndListDispatches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	session := uuid.NewString()
	base := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordDispatch(ctx, store.Dispatch{
		ID: uuid.NewString(), SessionID: session,
		Recipient: "bob@co.com", Subject: "Outage",
		OK: true, Detail: "Email sent successfully!",
		CreatedAt: base,
	}))
	require.NoError(t, s.RecordDispatch(ctx, store.Dispatch{
		ID: uuid.NewString(), SessionID: session,
		Recipient: "carol@co.com", Subject: "Follow-up",
		OK: false, Detail: "Failed to send email: auth failed",
		CreatedAt: base.Add(time.Minute),
	}))

	got, err := s.ListDispatches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first.
	assert.Equal(t, "carol@co.com", got[0].Recipient)
	assert.False(t, got[0].OK)
	assert.Equal(t, "bob@co.com", got[1].Recipient)
	assert.True(t, got[1].OK)
}

func TestListDispatchesLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordDispatch(ctx, store.Dispatch{
			ID: uuid.NewString(), SessionID: uuid.NewString(),
			Recipient: "bob@co.com", Subject: "n",
			OK: true, Detail: "Email sent successfully!",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	got, err := s.ListDispatches(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
