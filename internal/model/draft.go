package model

import "strings"

// Draft is a fully-specified, not-yet-sent email awaiting user approval.
// It is immutable once created; at most one draft is pending at a time.
type Draft struct {
	// To is the primary recipient address.
	To string

	// Subject is the email subject line.
	Subject string

	// Body is the plain-text message body.
	Body string

	// Cc is an optional comma-separated list of CC addresses.
	Cc string

	// Bcc is an optional comma-separated list of BCC addresses.
	Bcc string
}

// Recipients returns the full delivery list: the primary recipient plus
// every comma-split CC and BCC entry, each trimmed of surrounding
// whitespace. Splitting is naive; quoted address lists are not supported.
func (d Draft) Recipients() []string {
	out := []string{d.To}
	out = append(out, splitAddressList(d.Cc)...)
	out = append(out, splitAddressList(d.Bcc)...)
	return out
}

// splitAddressList splits a comma-separated address list, trimming each
// entry and dropping empty ones.
func splitAddressList(list string) []string {
	if list == "" {
		return nil
	}

	var out []string
	for _, addr := range strings.Split(list, ",") {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

// DispatchResult reports the outcome of a single send attempt. It is
// produced once per attempt and never persisted beyond the conversation
// log entry it generates.
type DispatchResult struct {
	OK     bool
	Detail string
}
