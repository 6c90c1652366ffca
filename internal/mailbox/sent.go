// Package mailbox stores copies of sent mail in an IMAP folder.
package mailbox

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emersion/go-imap/v2/imapclient"
)

// SentArchiver appends raw messages to an IMAP folder, typically "Sent".
// Each Archive call opens a fresh connection, mirroring the one-session-
// per-operation model used for dispatch.
type SentArchiver struct {
	host     string
	port     int
	username string
	password string
	tls      bool
	folder   string
	logger   *slog.Logger
}

// NewSentArchiver creates an archiver for the given IMAP account.
func NewSentArchiver(
	host string,
	port int,
	username, password string,
	tls bool,
	folder string,
	logger *slog.Logger,
) *SentArchiver {
	if folder == "" {
		folder = "Sent"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SentArchiver{
		host:     host,
		port:     port,
		username: username,
		password: password,
		tls:      tls,
		folder:   folder,
		logger:   logger,
	}
}

// connect establishes a connection to the IMAP server and authenticates.
// The caller is responsible for Logout on the returned client.
func (a *SentArchiver) connect(_ context.Context) (*imapclient.Client, error) {
	addr := fmt.Sprintf("%s:%d", a.host, a.port)

	var client *imapclient.Client
	var err error

	if a.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(a.username, a.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("authentication failed for %s: %w", a.username, err)
	}

	return client, nil
}

// Archive appends the raw message to the configured folder.
func (a *SentArchiver) Archive(ctx context.Context, raw []byte) error {
	client, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	cmd := client.Append(a.folder, int64(len(raw)), nil)
	if _, err := cmd.Write(raw); err != nil {
		return fmt.Errorf("writing to %s: %w", a.folder, err)
	}
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("closing append: %w", err)
	}
	if _, err := cmd.Wait(); err != nil {
		return fmt.Errorf("appending to %s: %w", a.folder, err)
	}

	a.logger.Info("saved copy to sent folder", "folder", a.folder)
	return nil
}
