package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	gomail "github.com/emersion/go-message/mail"

	"github.com/otg002/Lumabot/internal/model"
)

const sentDetail = "Email sent successfully!"

// SMTP sends mail through an authenticated STARTTLS session on a mail
// relay. Every Send opens a fresh connection; there is no pooling and
// no automatic retry.
type SMTP struct {
	host     string
	port     int
	from     string
	password string
	archiver Archiver
	logger   *slog.Logger

	dialTimeout time.Duration
}

// NewSMTP creates an SMTP mailer for the given relay and account. The
// from address doubles as the AUTH username. archiver may be nil.
func NewSMTP(
	host string,
	port int,
	from, password string,
	archiver Archiver,
	logger *slog.Logger,
) *SMTP {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTP{
		host:        host,
		port:        port,
		from:        from,
		password:    password,
		archiver:    archiver,
		logger:      logger,
		dialTimeout: 30 * time.Second,
	}
}

// Send builds the message, submits it to the relay, and reports the
// outcome. Failures are summarized in the result detail and never
// propagated as errors.
func (m *SMTP) Send(ctx context.Context, d model.Draft) model.DispatchResult {
	m.logger.Info("preparing to send email",
		"to", d.To, "subject", d.Subject)

	raw, err := buildMessage(m.from, d, time.Now())
	if err != nil {
		return failure(err)
	}

	if err := m.submit(ctx, d.Recipients(), raw); err != nil {
		m.logger.Error("failed to send email", "error", err)
		return failure(err)
	}

	m.logger.Info("email sent", "recipients", len(d.Recipients()))

	if m.archiver != nil {
		if err := m.archiver.Archive(ctx, raw); err != nil {
			// Delivery already succeeded; archiving is best-effort.
			m.logger.Warn("could not save copy to sent folder", "error", err)
		}
	}

	return model.DispatchResult{OK: true, Detail: sentDetail}
}

// submit runs one full SMTP session: dial, EHLO, STARTTLS, AUTH, then
// envelope and data.
func (m *SMTP) submit(ctx context.Context, recipients []string, raw []byte) error {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	dialer := &net.Dialer{Timeout: m.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("starting SMTP session: %w", err)
	}
	defer client.Close()

	if err := client.Hello(heloDomain(m.from)); err != nil {
		return fmt.Errorf("hello failed: %w", err)
	}

	tlsConfig := &tls.Config{ServerName: m.host}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("starttls failed: %w", err)
	}

	auth := smtp.PlainAuth("", m.from, m.password, m.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("auth failed: %w", err)
	}

	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("mail from failed: %w", err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s failed: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data failed: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("data close failed: %w", err)
	}

	return client.Quit()
}

// buildMessage renders the draft as an RFC 5322 message with a plain-text
// body. Cc and Bcc headers are only emitted when present.
func buildMessage(from string, d model.Draft, now time.Time) ([]byte, error) {
	var h gomail.Header
	h.SetDate(now)
	h.SetAddressList("From", bareAddresses([]string{from}))
	h.SetAddressList("To", bareAddresses([]string{d.To}))
	h.SetSubject(d.Subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	if d.Cc != "" {
		h.SetAddressList("Cc", bareAddresses(splitList(d.Cc)))
	}
	if d.Bcc != "" {
		h.SetAddressList("Bcc", bareAddresses(splitList(d.Bcc)))
	}

	var buf bytes.Buffer
	w, err := gomail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := io.WriteString(w, d.Body); err != nil {
		return nil, fmt.Errorf("writing body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing message writer: %w", err)
	}

	return buf.Bytes(), nil
}

// failure wraps an error into the uniform user-visible dispatch failure.
func failure(err error) model.DispatchResult {
	return model.DispatchResult{
		OK:     false,
		Detail: fmt.Sprintf("Failed to send email: %v", err),
	}
}

// bareAddresses converts plain address strings into header address lists.
func bareAddresses(addrs []string) []*gomail.Address {
	out := make([]*gomail.Address, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, &gomail.Address{Address: a})
	}
	return out
}

// splitList splits a comma-separated address list, trimming each entry.
func splitList(list string) []string {
	var out []string
	for _, a := range strings.Split(list, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// heloDomain derives the EHLO domain from the account address.
func heloDomain(from string) string {
	if i := strings.LastIndex(from, "@"); i >= 0 && i < len(from)-1 {
		return from[i+1:]
	}
	return "localhost"
}
