package suggestions

import (
	"strings"
	"testing"

	"github.com/syntwin/console/internal/client"
)

func TestViewRendersSuggestions(t *testing.T) {
	m := New("notty")
	m.Width = 80
	m.Set(&client.SuggestionSnapshot{
		Priority:    client.PriorityHigh,
		Context:     "Fatigue detected",
		Suggestions: []string{"Take a short break", "Drink some water"},
	}, "")
	out := m.View()
	for _, want := range []string{"[high]", "Fatigue detected", "Take a short break", "Drink some water"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}

func TestViewError(t *testing.T) {
	m := New("notty")
	m.Set(&client.SuggestionSnapshot{Suggestions: []string{"stale"}}, "Error loading suggestions")
	out := m.View()
	if !strings.Contains(out, "Error loading suggestions") {
		t.Errorf("expected error text:\n%s", out)
	}
	if strings.Contains(out, "stale") {
		t.Errorf("error should replace body:\n%s", out)
	}
}

func TestMarkdownEmpty(t *testing.T) {
	m := New("notty")
	if got := m.Markdown(); !strings.Contains(got, "No suggestions") {
		t.Errorf("unexpected empty markdown %q", got)
	}
}
