// Package session drives one conversation: it gates mail dispatch behind
// an explicit confirmation step and forwards everything else to the
// language model.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/otg002/Lumabot/internal/ai"
	"github.com/otg002/Lumabot/internal/draft"
	"github.com/otg002/Lumabot/internal/mailer"
	"github.com/otg002/Lumabot/internal/model"
	"github.com/otg002/Lumabot/internal/store"
)

// affirmations is the fixed vocabulary that counts as approval. Matching
// is a deliberate substring check: a false negative just means the
// conversation continues, while nothing is ever sent without one of
// these phrases.
var affirmations = []string{"yes", "send it", "confirm", "go ahead"}

const noDraftReply = "I'm sorry, but I don't have an email ready to send. " +
	"Could you please provide the details for a new email?"

const unusableDraftReply = "I couldn't put together a complete draft from " +
	"that. Could you give me the recipient, subject, and what the email " +
	"should say?"

// completer is the slice of the assistant the engine needs; it keeps the
// model client swappable in tests.
type completer interface {
	Complete(ctx context.Context, msgs []ai.Message) (*ai.Reply, error)
}

// Turn is the outcome of processing one user utterance.
type Turn struct {
	// Replies holds the assistant messages produced this turn, in order.
	Replies []string

	// AwaitingConfirmation reports that a draft is now pending approval.
	AwaitingConfirmation bool

	// DraftDiscarded reports that a pending draft was dropped because
	// the reply was not an approval. The conversation continues in the
	// same turn; the UI may surface this as a transient status note.
	DraftDiscarded bool
}

// Engine holds the per-session conversation state: ordered history, the
// pending draft, and the confirmation flag. It is an explicit session
// object so turns can be driven (and tested) without a UI. Turns are
// processed one at a time; the engine itself is not safe for concurrent
// HandleUtterance calls.
type Engine struct {
	assistant  completer
	mailer     mailer.Mailer
	transcript store.TranscriptStore
	history    *ai.History
	logger     *slog.Logger

	sessionID string
	pending   *model.Draft
	awaiting  bool
}

// New creates a session engine. transcript may be nil to disable
// persistence.
func New(
	assistant completer,
	m mailer.Mailer,
	transcript store.TranscriptStore,
	maxHistory int,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		assistant:  assistant,
		mailer:     m,
		transcript: transcript,
		history:    ai.NewHistory(maxHistory),
		logger:     logger,
		sessionID:  uuid.NewString(),
	}
}

// AwaitingConfirmation reports whether a draft is pending approval.
func (e *Engine) AwaitingConfirmation() bool {
	return e.awaiting
}

// SessionID returns the identifier under which this conversation is
// recorded in the transcript store.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// NewSession clears the conversation state and starts a fresh transcript
// session.
func (e *Engine) NewSession() {
	e.history.Reset()
	e.pending = nil
	e.awaiting = false
	e.sessionID = uuid.NewString()
	e.logger.Info("started new session", "session", e.sessionID)
}

// HandleUtterance processes one user utterance through the confirmation
// state machine and, when the turn is not consumed as a confirmation,
// the conversation orchestrator.
//
// A returned error means the model request itself failed; in that case
// nothing was committed to the history, so the same utterance can be
// retried without duplication.
func (e *Engine) HandleUtterance(ctx context.Context, text string) (Turn, error) {
	e.logger.Info("received user input", "session", e.sessionID)
	e.record(ai.RoleUser, text)

	var turn Turn

	if e.awaiting {
		e.awaiting = false

		if isAffirmative(text) {
			e.history.Append(ai.RoleUser, text)

			if e.pending == nil {
				// Awaiting with no stored draft should not happen;
				// recover by asking for new details.
				e.logger.Warn("confirmation received with no pending draft")
				e.reply(&turn, noDraftReply)
				return turn, nil
			}

			d := *e.pending
			e.pending = nil
			result := e.mailer.Send(ctx, d)
			e.recordDispatch(d, result)

			if result.OK {
				e.reply(&turn, "Email sent: "+result.Detail)
			} else {
				e.reply(&turn, result.Detail)
			}
			return turn, nil
		}

		// Anything short of an unambiguous approval means the user
		// changed their mind: drop the draft and treat the utterance
		// as ordinary conversation in this same turn.
		e.pending = nil
		turn.DraftDiscarded = true
		e.logger.Info("pending draft discarded")
	}

	msgs := append(e.history.Messages(), ai.Message{
		Role:    ai.RoleUser,
		Content: text,
	})

	reply, err := e.assistant.Complete(ctx, msgs)
	if err != nil {
		return turn, fmt.Errorf("model request failed: %w", err)
	}

	e.history.Append(ai.RoleUser, text)

	if reply.ToolCall != nil && reply.ToolCall.Name == ai.ComposeEmailTool {
		d, err := draft.Parse(reply.ToolCall.Arguments)
		if err != nil {
			e.logger.Warn("model produced an unusable draft", "error", err)
			fallback := reply.Text
			if fallback == "" {
				fallback = unusableDraftReply
			}
			e.reply(&turn, fallback)
			return turn, nil
		}

		e.logger.Info("draft proposed",
			"to", d.To, "subject", d.Subject)

		e.pending = d
		e.awaiting = true
		turn.AwaitingConfirmation = true
		e.reply(&turn, confirmationPrompt(d))
		return turn, nil
	}

	e.reply(&turn, reply.Text)
	return turn, nil
}

// reply appends an assistant message to the turn, the history, and the
// transcript.
func (e *Engine) reply(turn *Turn, text string) {
	turn.Replies = append(turn.Replies, text)
	e.history.Append(ai.RoleAssistant, text)
	e.record(ai.RoleAssistant, text)
}

// record persists one message to the transcript store, if configured.
func (e *Engine) record(role ai.Role, content string) {
	if e.transcript == nil {
		return
	}
	err := e.transcript.AppendMessage(context.Background(), store.Message{
		ID:        uuid.NewString(),
		SessionID: e.sessionID,
		Role:      string(role),
		Content:   content,
		CreatedAt: time.Now(),
	})
	if err != nil {
		e.logger.Warn("could not record transcript message", "error", err)
	}
}

// recordDispatch persists one send attempt to the transcript store.
func (e *Engine) recordDispatch(d model.Draft, res model.DispatchResult) {
	if e.transcript == nil {
		return
	}
	err := e.transcript.RecordDispatch(context.Background(), store.Dispatch{
		ID:        uuid.NewString(),
		SessionID: e.sessionID,
		Recipient: d.To,
		Subject:   d.Subject,
		OK:        res.OK,
		Detail:    res.Detail,
		CreatedAt: time.Now(),
	})
	if err != nil {
		e.logger.Warn("could not record dispatch", "error", err)
	}
}

// isAffirmative reports whether the lower-cased utterance contains any
// of the approval phrases as a substring.
func isAffirmative(text string) bool {
	lowered := strings.ToLower(text)
	for _, phrase := range affirmations {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

// confirmationPrompt echoes the draft back to the user and asks for an
// explicit approval.
func confirmationPrompt(d *model.Draft) string {
	var sb strings.Builder

	sb.WriteString("I've composed an email based on your request. ")
	sb.WriteString("Here are the details:\n\n")
	sb.WriteString("To: " + d.To + "\n")
	if d.Cc != "" {
		sb.WriteString("Cc: " + d.Cc + "\n")
	}
	if d.Bcc != "" {
		sb.WriteString("Bcc: " + d.Bcc + "\n")
	}
	sb.WriteString("Subject: " + d.Subject + "\n")
	sb.WriteString("Body: " + d.Body + "\n\n")
	sb.WriteString("Would you like me to send this email? ")
	sb.WriteString("Please confirm by saying 'Yes' or 'Send it'.")

	return sb.String()
}
