// Package suggestions renders the NLP suggestion panel as Markdown.
package suggestions

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/syntwin/console/internal/client"
	"github.com/syntwin/console/internal/theme"
)

// Model holds the latest suggestion snapshot and its error text.
type Model struct {
	Snap  *client.SuggestionSnapshot
	Err   string
	Width int

	style    string
	renderer *glamour.TermRenderer
	wrap     int
}

// New creates a suggestion panel rendering with the given glamour standard
// style ("dark", "light", "notty").
func New(style string) Model {
	return Model{style: style}
}

// Set replaces the snapshot and error text.
func (m *Model) Set(snap *client.SuggestionSnapshot, errText string) {
	m.Snap = snap
	m.Err = errText
}

// Markdown returns the panel body as Markdown.
func (m Model) Markdown() string {
	s := m.Snap
	if s == nil || len(s.Suggestions) == 0 {
		return "_No suggestions yet._"
	}
	var b strings.Builder
	if s.Context != "" {
		fmt.Fprintf(&b, "**%s**\n\n", s.Context)
	}
	for _, line := range s.Suggestions {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	return b.String()
}

func (m *Model) render(md string, width int) string {
	if m.renderer == nil || m.wrap != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		m.renderer, m.wrap = r, width
	}
	out, err := m.renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

// View renders the panel.
func (m *Model) View() string {
	width := m.Width
	if width < 30 {
		width = 30
	}
	title := theme.StyleHeader.Render("Suggestions")
	if m.Snap != nil && m.Snap.Priority != "" {
		p := string(m.Snap.Priority)
		title += " " + lipgloss.NewStyle().Foreground(theme.PriorityColor(p)).Render("["+p+"]")
	}

	var body string
	if m.Err != "" {
		body = theme.StyleError.Render(m.Err)
	} else {
		body = m.render(m.Markdown(), width-4)
	}

	return theme.StyleBorder.Width(width).Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, body))
}
