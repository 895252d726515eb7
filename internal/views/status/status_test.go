package status

import (
	"strings"
	"testing"
)

func TestViewShowsStateAndHealth(t *testing.T) {
	m := New()
	m.State = "reconnecting"
	m.Health = "online"
	m.Width = 100
	out := m.View()
	for _, want := range []string{"reconnecting", "backend: online"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in status bar:\n%s", want, out)
		}
	}
}

func TestViewTruncatesSessionID(t *testing.T) {
	m := New()
	m.SessionID = "0123456789abcdef"
	m.Width = 100
	out := m.View()
	if !strings.Contains(out, "session 01234567") {
		t.Errorf("expected short session id:\n%s", out)
	}
	if strings.Contains(out, "89abcdef") {
		t.Errorf("session id should be truncated:\n%s", out)
	}
}

func TestViewNotice(t *testing.T) {
	m := New()
	m.Notice = "Backend offline"
	m.Width = 100
	if !strings.Contains(m.View(), "Backend offline") {
		t.Error("expected notice in status bar")
	}
}
