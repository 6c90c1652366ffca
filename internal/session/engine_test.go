package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otg002/Lumabot/internal/ai"
	"github.com/otg002/Lumabot/internal/model"
)

// fakeCompleter replays a queue of canned replies (or errors) and
// records the message lists it was called with.
type fakeCompleter struct {
	replies []*ai.Reply
	errs    []error
	calls   [][]ai.Message
}

func (f *fakeCompleter) Complete(_ context.Context, msgs []ai.Message) (*ai.Reply, error) {
	f.calls = append(f.calls, msgs)
	idx := len(f.calls) - 1

	if idx < len(f.errs) && f.errs[idx] != nil {
		return nil, f.errs[idx]
	}
	if idx < len(f.replies) {
		return f.replies[idx], nil
	}
	return &ai.Reply{Text: "ok"}, nil
}

// fakeMailer records every dispatched draft and returns a fixed result.
type fakeMailer struct {
	result model.DispatchResult
	calls  []model.Draft
}

func (f *fakeMailer) Send(_ context.Context, d model.Draft) model.DispatchResult {
	f.calls = append(f.calls, d)
	return f.result
}

func composeReply(t *testing.T, args map[string]any) *ai.Reply {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	return &ai.Reply{
		ToolCall: &ai.ToolCall{
			Name:      ai.ComposeEmailTool,
			Arguments: raw,
		},
	}
}

func sentOK() model.DispatchResult {
	return model.DispatchResult{OK: true, Detail: "Email sent successfully!"}
}

func TestComposeStoresPendingDraft(t *testing.T) {
	completer := &fakeCompleter{
		replies: []*ai.Reply{composeReply(t, map[string]any{
			"to":      "bob@co.com",
			"subject": "Meeting Reminder",
			"body":    "See you at 3pm.",
		})},
	}
	m := &fakeMailer{result: sentOK()}
	e := New(completer, m, nil, 0, nil)

	turn, err := e.HandleUtterance(context.Background(),
		"Email Bob at bob@co.com about the meeting tomorrow at 3pm, subject Meeting Reminder")
	require.NoError(t, err)

	require.Len(t, turn.Replies, 1)
	assert.Contains(t, turn.Replies[0], "bob@co.com")
	assert.Contains(t, turn.Replies[0], "Meeting Reminder")
	assert.True(t, turn.AwaitingConfirmation)
	assert.True(t, e.AwaitingConfirmation())
	assert.Empty(t, m.calls, "nothing may be sent before confirmation")
}

func TestAffirmativeDispatchesExactlyOnce(t *testing.T) {
	phrases := []string{
		"yes",
		"Yes, please",
		"send it now",
		"Confirm",
		"ok, go ahead",
	}

	for _, phrase := range phrases {
		t.Run(phrase, func(t *testing.T) {
			completer := &fakeCompleter{
				replies: []*ai.Reply{composeReply(t, map[string]any{
					"to":      "bob@co.com",
					"subject": "Meeting Reminder",
					"body":    "See you at 3pm.",
				})},
			}
			m := &fakeMailer{result: sentOK()}
			e := New(completer, m, nil, 0, nil)

			_, err := e.HandleUtterance(context.Background(), "email bob")
			require.NoError(t, err)

			turn, err := e.HandleUtterance(context.Background(), phrase)
			require.NoError(t, err)

			require.Len(t, m.calls, 1)
			assert.Equal(t, "bob@co.com", m.calls[0].To)
			assert.Equal(t, "Meeting Reminder", m.calls[0].Subject)

			require.Len(t, turn.Replies, 1)
			assert.Equal(t, "Email sent: Email sent successfully!", turn.Replies[0])
			assert.False(t, e.AwaitingConfirmation())

			// The confirmation turn never reaches the model.
			assert.Len(t, completer.calls, 1)
		})
	}
}

func TestRepeatedAffirmativeDoesNotResend(t *testing.T) {
	completer := &fakeCompleter{
		replies: []*ai.Reply{
			composeReply(t, map[string]any{
				"to":      "bob@co.com",
				"subject": "Reminder",
				"body":    "hi",
			}),
			{Text: "There is nothing pending."},
		},
	}
	m := &fakeMailer{result: sentOK()}
	e := New(completer, m, nil, 0, nil)

	_, err := e.HandleUtterance(context.Background(), "email bob")
	require.NoError(t, err)
	_, err = e.HandleUtterance(context.Background(), "yes")
	require.NoError(t, err)

	// State is back to idle, so a second "yes" is ordinary conversation.
	turn, err := e.HandleUtterance(context.Background(), "yes")
	require.NoError(t, err)

	assert.Len(t, m.calls, 1, "the draft must not be re-sent")
	assert.Len(t, completer.calls, 2)
	require.Len(t, turn.Replies, 1)
	assert.Equal(t, "There is nothing pending.", turn.Replies[0])
}

func TestNonAffirmativeDiscardsAndContinues(t *testing.T) {
	completer := &fakeCompleter{
		replies: []*ai.Reply{
			composeReply(t, map[string]any{
				"to":      "bob@co.com",
				"subject": "Reminder",
				"body":    "hi",
			}),
			{Text: "No problem, it's cancelled."},
		},
	}
	m := &fakeMailer{result: sentOK()}
	e := New(completer, m, nil, 0, nil)

	_, err := e.HandleUtterance(context.Background(), "email bob")
	require.NoError(t, err)

	turn, err := e.HandleUtterance(context.Background(), "actually cancel that")
	require.NoError(t, err)

	assert.Empty(t, m.calls)
	assert.True(t, turn.DraftDiscarded)
	assert.False(t, e.AwaitingConfirmation())

	// The utterance fell through to the model as a fresh idle turn.
	require.Len(t, completer.calls, 2)
	last := completer.calls[1]
	assert.Equal(t, "actually cancel that", last[len(last)-1].Content)
	require.Len(t, turn.Replies, 1)
	assert.Equal(t, "No problem, it's cancelled.", turn.Replies[0])
}

func TestAffirmativeWithoutStoredDraftRecovers(t *testing.T) {
	completer := &fakeCompleter{}
	m := &fakeMailer{result: sentOK()}
	e := New(completer, m, nil, 0, nil)

	// Awaiting with no stored draft is an inconsistent state the engine
	// must tolerate.
	e.awaiting = true
	e.pending = nil

	turn, err := e.HandleUtterance(context.Background(), "yes")
	require.NoError(t, err)

	assert.Empty(t, m.calls)
	assert.Empty(t, completer.calls)
	require.Len(t, turn.Replies, 1)
	assert.Equal(t, noDraftReply, turn.Replies[0])
	assert.False(t, e.AwaitingConfirmation())
}

func TestDispatchFailureSurfacesDetail(t *testing.T) {
	completer := &fakeCompleter{
		replies: []*ai.Reply{composeReply(t, map[string]any{
			"to":      "bob@co.com",
			"subject": "Reminder",
			"body":    "hi",
		})},
	}
	m := &fakeMailer{result: model.DispatchResult{
		OK:     false,
		Detail: "Failed to send email: connecting to relay:587: no route to host",
	}}
	e := New(completer, m, nil, 0, nil)

	_, err := e.HandleUtterance(context.Background(), "email bob")
	require.NoError(t, err)

	turn, err := e.HandleUtterance(context.Background(), "yes")
	require.NoError(t, err)

	require.Len(t, turn.Replies, 1)
	assert.Contains(t, turn.Replies[0], "Failed to send email")
	assert.False(t, e.AwaitingConfirmation(), "state resets after a failed send too")

	// Failed sends are never retried automatically.
	assert.Len(t, m.calls, 1)
}

func TestMalformedDraftFallsBackToText(t *testing.T) {
	completer := &fakeCompleter{
		replies: []*ai.Reply{{
			Text: "Who should receive this email?",
			ToolCall: &ai.ToolCall{
				Name:      ai.ComposeEmailTool,
				Arguments: json.RawMessage(`{"subject": "Reminder", "body": "hi"}`),
			},
		}},
	}
	m := &fakeMailer{result: sentOK()}
	e := New(completer, m, nil, 0, nil)

	turn, err := e.HandleUtterance(context.Background(), "email bob")
	require.NoError(t, err)

	require.Len(t, turn.Replies, 1)
	assert.Equal(t, "Who should receive this email?", turn.Replies[0])
	assert.False(t, e.AwaitingConfirmation())
	assert.Empty(t, m.calls)
}

func TestModelFailureLeavesStateUntouched(t *testing.T) {
	completer := &fakeCompleter{
		errs: []error{errors.New("API error (429): rate limited")},
	}
	m := &fakeMailer{result: sentOK()}
	e := New(completer, m, nil, 0, nil)

	_, err := e.HandleUtterance(context.Background(), "email bob")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model request failed")

	// Nothing was committed, so the next attempt sends the same single
	// user message again.
	completer.errs = nil
	completer.replies = []*ai.Reply{{Text: "hello"}}
	_, err = e.HandleUtterance(context.Background(), "email bob")
	require.NoError(t, err)

	require.Len(t, completer.calls, 2)
	assert.Len(t, completer.calls[1], 1, "failed turn must not pollute the history")
}

func TestIsAffirmative(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"yes", true},
		{"YES PLEASE", true},
		{"send it", true},
		{"please send it right away", true},
		{"confirm", true},
		{"go ahead", true},
		{"no", false},
		{"actually cancel that", false},
		{"change the subject first", false},
		{"", false},
	}

	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, isAffirmative(tc.text))
		})
	}
}
