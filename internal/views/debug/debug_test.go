package debug

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	slogmulti "github.com/samber/slog-multi"
)

func entry(kind, msg string) Entry {
	return Entry{Time: time.Now(), Kind: kind, Message: msg}
}

func TestAddCapsBuffer(t *testing.T) {
	m := New()
	for i := 0; i < maxEntries+50; i++ {
		m.Add(entry("stream", "msg"))
	}
	if len(m.Entries) != maxEntries {
		t.Errorf("expected %d entries, got %d", maxEntries, len(m.Entries))
	}
}

func TestScroll(t *testing.T) {
	m := New()
	for i := 0; i < 5; i++ {
		m.Add(entry("poll", "msg"))
	}
	m.ScrollUp(3)
	if m.Offset != 3 {
		t.Errorf("expected offset 3, got %d", m.Offset)
	}
	m.ScrollUp(100)
	if m.Offset != 4 {
		t.Errorf("expected offset capped at 4, got %d", m.Offset)
	}
	m.ScrollDown(10)
	if m.Offset != 0 {
		t.Errorf("expected offset 0, got %d", m.Offset)
	}
	m.ScrollUp(2)
	m.Add(entry("poll", "new"))
	if m.Offset != 0 {
		t.Error("adding entry should reset scroll to 0")
	}
}

func TestView(t *testing.T) {
	m := New()
	if v := m.View(80, 20); !strings.Contains(v, "No events") {
		t.Error("empty view should show 'No events' message")
	}
	m.Add(entry("stream", "connected"))
	m.Add(Entry{Time: time.Now(), Level: slog.LevelWarn, Kind: "session", Message: "timeout"})
	v := m.View(80, 20)
	for _, want := range []string{"connected", "timeout", "stream", "session"} {
		if !strings.Contains(v, want) {
			t.Errorf("view should contain %q:\n%s", want, v)
		}
	}
}

func TestHandlerSplitsKind(t *testing.T) {
	h := NewHandler(slog.LevelDebug, 4)
	log := slog.New(h).With("session", "abc")
	log.Info("stream: connected", "handle", 2)
	log.Info("plain message")

	e := <-h.Entries()
	if e.Kind != "stream" {
		t.Errorf("expected kind stream, got %q", e.Kind)
	}
	if e.Message != "connected session=abc handle=2" {
		t.Errorf("unexpected message %q", e.Message)
	}
	e = <-h.Entries()
	if e.Kind != "log" || e.Message != "plain message session=abc" {
		t.Errorf("unexpected entry %+v", e)
	}
}

func TestHandlerDropsWhenFull(t *testing.T) {
	h := NewHandler(slog.LevelInfo, 1)
	log := slog.New(h)
	log.Debug("poll: ignored")
	log.Info("poll: first")
	log.Info("poll: second")
	if n := len(h.Entries()); n != 1 {
		t.Fatalf("expected 1 buffered entry, got %d", n)
	}
	if e := <-h.Entries(); e.Message != "first" {
		t.Errorf("expected first entry kept, got %q", e.Message)
	}
}

func TestHandlerBehindFanout(t *testing.T) {
	var buf bytes.Buffer
	text := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	h := NewHandler(slog.LevelDebug, 4)
	log := slog.New(slogmulti.Fanout(text, h)).With("session", "abc")

	log.Info("charts: refreshed")
	log.Warn("charts: render failed")

	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Errorf("text handler should see only the warning, got %q", buf.String())
	}
	if n := len(h.Entries()); n != 2 {
		t.Fatalf("overlay handler should see both records, got %d", n)
	}
	if e := <-h.Entries(); e.Message != "refreshed session=abc" {
		t.Errorf("unexpected entry %+v", e)
	}
}
