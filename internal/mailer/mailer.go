// Package mailer dispatches approved drafts over SMTP.
package mailer

import (
	"context"

	"github.com/otg002/Lumabot/internal/model"
)

// Mailer is the minimal interface the conversation engine needs to send
// an approved draft. Implementations report every failure through the
// DispatchResult rather than an error; callers must not retry.
type Mailer interface {
	Send(ctx context.Context, d model.Draft) model.DispatchResult
}

// Archiver stores a copy of a raw, already-sent message, e.g. in an IMAP
// Sent folder. Archiving is best-effort and never affects the dispatch
// outcome.
type Archiver interface {
	Archive(ctx context.Context, raw []byte) error
}
