// Package logging wires slog to an in-memory ring buffer so the UI can
// show recent log lines, with an optional secondary sink such as a file.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Ring is a fixed-capacity buffer of formatted log lines. Once full, the
// oldest line is dropped for each new one.
type Ring struct {
	mu    sync.Mutex
	lines []string
	max   int
}

// NewRing creates a ring buffer holding at most max lines.
func NewRing(max int) *Ring {
	if max <= 0 {
		max = 200
	}
	return &Ring{
		lines: make([]string, 0, max),
		max:   max,
	}
}

// Append adds a line, evicting the oldest when the buffer is full.
func (r *Ring) Append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.lines) == r.max {
		copy(r.lines, r.lines[1:])
		r.lines[len(r.lines)-1] = line
		return
	}
	r.lines = append(r.lines, line)
}

// Lines returns a copy of the buffered lines, oldest first.
func (r *Ring) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Len returns the number of buffered lines.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.lines)
}

// handler is a slog.Handler that renders each record as a single text
// line into the ring and, when set, an extra writer.
type handler struct {
	ring  *Ring
	extra io.Writer
	level slog.Level
	attrs []slog.Attr
}

// New creates a logger backed by the given ring. extra may be nil; when
// set (e.g. an opened log file) each line is also written there.
func New(ring *Ring, extra io.Writer, level slog.Level) *slog.Logger {
	return slog.New(&handler{
		ring:  ring,
		extra: extra,
		level: level,
	})
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *handler) Handle(_ context.Context, rec slog.Record) error {
	var sb strings.Builder

	sb.WriteString(rec.Time.Format("15:04:05"))
	sb.WriteString(" ")
	sb.WriteString(rec.Level.String())
	sb.WriteString(" ")
	sb.WriteString(rec.Message)

	for _, attr := range h.attrs {
		writeAttr(&sb, attr)
	}
	rec.Attrs(func(attr slog.Attr) bool {
		writeAttr(&sb, attr)
		return true
	})

	line := sb.String()
	h.ring.Append(line)
	if h.extra != nil {
		fmt.Fprintln(h.extra, line)
	}
	return nil
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)

	return &handler{
		ring:  h.ring,
		extra: h.extra,
		level: h.level,
		attrs: merged,
	}
}

func (h *handler) WithGroup(_ string) slog.Handler {
	// Groups are not used anywhere in the app; flatten them.
	return h
}

func writeAttr(sb *strings.Builder, attr slog.Attr) {
	sb.WriteString(" ")
	sb.WriteString(attr.Key)
	sb.WriteString("=")
	sb.WriteString(attr.Value.String())
}
