// Package statepanel renders the user-state summary from the NLP backend.
package statepanel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/syntwin/console/internal/client"
	"github.com/syntwin/console/internal/theme"
)

// Model holds the latest state snapshot.
type Model struct {
	Snap  *client.StateSnapshot
	Err   string
	Width int
}

// View renders the panel. A snapshot with no data points renders as empty.
func (m Model) View() string {
	width := m.Width
	if width < 30 {
		width = 30
	}
	title := theme.StyleHeader.Render("User state")

	var body string
	switch {
	case m.Err != "":
		body = theme.StyleError.Render(m.Err)
	case !m.Snap.Valid():
		body = theme.StyleDimmed.Render("No state data yet.")
	default:
		s := m.Snap
		var b strings.Builder
		emotion := lipgloss.NewStyle().Foreground(theme.EmotionColor(s.DominantEmotion)).Render(s.DominantEmotion)
		fmt.Fprintf(&b, "Dominant emotion: %s\n", emotion)
		fmt.Fprintf(&b, "Energy level:     %s\n", s.EnergyLevel)
		sentiment := lipgloss.NewStyle().Foreground(theme.SentimentColor(s.AvgSentiment)).
			Render(fmt.Sprintf("%.2f", s.AvgSentiment))
		fmt.Fprintf(&b, "Avg sentiment:    %s\n", sentiment)
		fmt.Fprintf(&b, "Data points:      %d", s.DataPoints)
		body = b.String()
	}

	return theme.StyleBorder.Width(width).Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}
