package detection

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/syntwin/console/internal/client"
)

func TestViewPlaceholders(t *testing.T) {
	m := New()
	out := m.View()
	if strings.Count(out, client.NoData) < 4 {
		t.Errorf("expected four %q placeholders:\n%s", client.NoData, out)
	}
}

func TestSetStartsAnimation(t *testing.T) {
	m := New()
	cmd := m.Set(client.FrameDisplay{Emotion: "Happy", Posture: "Upright", Eyes: "Open", Sentiment: "0.80", HasFrame: true})
	if cmd == nil {
		t.Fatal("expected animation command when target moves")
	}
	if !strings.Contains(m.View(), "Happy") || !strings.Contains(m.View(), "0.80") {
		t.Errorf("readout missing values:\n%s", m.View())
	}
	// A second update while animating must not start another loop.
	if cmd := m.Set(client.FrameDisplay{Sentiment: "0.50", HasFrame: true}); cmd != nil {
		t.Error("expected no second animation loop")
	}
}

func TestSpringSettlesOnTarget(t *testing.T) {
	m := New()
	m.Set(client.FrameDisplay{Sentiment: "-0.40", HasFrame: true})
	for i := 0; i < 600; i++ {
		var cmd tea.Cmd
		m, cmd = m.Update(FrameMsg{})
		if cmd == nil {
			break
		}
	}
	if m.Gauge() != -0.4 {
		t.Errorf("expected gauge to settle at -0.4, got %v", m.Gauge())
	}
}

func TestSetClampsTarget(t *testing.T) {
	m := New()
	m.Set(client.FrameDisplay{Sentiment: "3.5", HasFrame: true})
	if m.target != 1 {
		t.Errorf("expected clamp to 1, got %v", m.target)
	}
	m.Set(client.NoFrame)
	if m.target != 0 {
		t.Errorf("expected placeholder target 0, got %v", m.target)
	}
}

func TestRenderGauge(t *testing.T) {
	if g := renderGauge(0.5, false); strings.Contains(g, "█") {
		t.Errorf("idle gauge should be empty: %q", g)
	}
	if g := renderGauge(-1, true); !strings.Contains(g, strings.Repeat("█", gaugeWidth/2)) {
		t.Errorf("full negative gauge expected: %q", g)
	}
}
