// Package report shows the result of an operator action (summary, recent
// detections, clear, export) in a scrollable overlay.
package report

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/syntwin/console/internal/theme"
)

// Model is the report overlay.
type Model struct {
	Title string
	Err   bool

	vp viewport.Model
}

// New creates a report overlay sized to the terminal.
func New(title, body string, isErr bool, width, height int) Model {
	vp := viewport.New(max(width-8, 20), max(height-8, 3))
	if isErr {
		body = theme.StyleError.Render(body)
	}
	vp.SetContent(body)
	return Model{Title: title, Err: isErr, vp: vp}
}

// Resize adapts the viewport to a new terminal size.
func (m *Model) Resize(width, height int) {
	m.vp.Width = max(width-8, 20)
	m.vp.Height = max(height-8, 3)
}

// Update forwards scrolling keys to the viewport.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

// View renders the overlay.
func (m Model) View() string {
	title := theme.StyleHeader.Render(" " + m.Title + " ")
	help := theme.StyleDimmed.Render("j/k:scroll  esc:close")
	return lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, "", m.vp.View(), "", help))
}
