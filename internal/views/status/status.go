// Package status renders the connection and health bar at the top of the
// console.
package status

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/syntwin/console/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	State     string // stream.State name
	Health    string // "online", "offline", "unknown"
	SessionID string
	Status    string
	Notice    string
	Loading   bool
	Width     int

	spinner spinner.Model
}

// New creates a status bar model.
func New() Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorConnecting)
	return Model{State: "idle", Health: "unknown", spinner: sp}
}

// Tick starts the loading spinner.
func (m Model) Tick() tea.Cmd {
	return m.spinner.Tick
}

// Update advances the spinner.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	stateStr := lipgloss.NewStyle().Foreground(theme.StateColor(m.State)).
		Render(theme.StateGlyph(m.State) + " " + m.State)

	var healthColor lipgloss.Color
	switch m.Health {
	case "online":
		healthColor = theme.ColorHealthy
	case "offline":
		healthColor = theme.ColorDanger
	default:
		healthColor = theme.ColorDimmed
	}
	healthStr := lipgloss.NewStyle().Foreground(healthColor).Render("backend: " + m.Health)

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := stateStr + sep + healthStr
	if m.SessionID != "" {
		content += sep + theme.StyleDimmed.Render(fmt.Sprintf("session %.8s", m.SessionID))
	}
	if m.Status != "" {
		content += sep + m.Status
	}
	if m.Notice != "" {
		content += sep + lipgloss.NewStyle().Foreground(theme.ColorWarning).Render(m.Notice)
	}
	if m.Loading {
		content += " " + m.spinner.View()
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
