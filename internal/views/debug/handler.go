package debug

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// EntryMsg delivers one log entry to the UI.
type EntryMsg Entry

// Handler is a slog.Handler that copies records into a bounded channel for
// the overlay. Records are dropped when the channel is full so that logging
// from inside Update never blocks the program.
type Handler struct {
	level slog.Leveler
	ch    chan Entry
	attrs string
}

// NewHandler creates a Handler keeping up to buf unread entries.
func NewHandler(level slog.Leveler, buf int) *Handler {
	return &Handler{level: level, ch: make(chan Entry, buf)}
}

// Entries is the channel the UI drains.
func (h *Handler) Entries() <-chan Entry { return h.ch }

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	kind, msg := "log", r.Message
	if i := strings.Index(msg, ": "); i > 0 && !strings.Contains(msg[:i], " ") {
		kind, msg = msg[:i], msg[i+2:]
	}
	var b strings.Builder
	b.WriteString(msg)
	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, a)
		return true
	})
	select {
	case h.ch <- Entry{Time: r.Time, Level: r.Level, Kind: kind, Message: b.String()}:
	default:
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		writeAttr(&b, a)
	}
	return &Handler{level: h.level, ch: h.ch, attrs: b.String()}
}

// WithGroup is a no-op; the overlay shows attributes flat.
func (h *Handler) WithGroup(string) slog.Handler { return h }

func writeAttr(b *strings.Builder, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	fmt.Fprintf(b, " %s=%v", a.Key, a.Value.Resolve())
}
