// Package detection renders the live detection readout: emotion, posture,
// eyes and an animated sentiment gauge.
package detection

import (
	"math"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/syntwin/console/internal/client"
	"github.com/syntwin/console/internal/theme"
)

const (
	gaugeWidth = 30
	labelWidth = 12
	fps        = 60
	settleEps  = 0.001
)

var (
	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorBorder).
			Padding(0, 1)

	styleLabel = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed).
			Width(labelWidth)

	styleValue = lipgloss.NewStyle().
			Foreground(theme.ColorBright)
)

// FrameMsg advances the gauge animation by one step.
type FrameMsg struct{}

// Model holds the readout and the gauge spring.
type Model struct {
	Display client.FrameDisplay
	Width   int

	spring harmonica.Spring
	pos    float64
	vel    float64
	target float64
}

// New creates a readout showing the no-session placeholders.
func New() Model {
	return Model{
		Display: client.NoFrame,
		spring:  harmonica.NewSpring(harmonica.FPS(fps), 6.0, 0.6),
	}
}

// Set replaces the readout. It returns a command that starts the gauge
// animation when the sentiment target moved.
func (m *Model) Set(d client.FrameDisplay) tea.Cmd {
	wasSettled := m.settled()
	m.Display = d
	m.target = 0
	if v, err := strconv.ParseFloat(d.Sentiment, 64); err == nil {
		m.target = clamp(v)
	}
	if wasSettled && !m.settled() {
		return animate()
	}
	return nil
}

// Update steps the spring on FrameMsg and keeps animating until it settles.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(FrameMsg); !ok {
		return m, nil
	}
	m.pos, m.vel = m.spring.Update(m.pos, m.vel, m.target)
	if m.settled() {
		m.pos, m.vel = m.target, 0
		return m, nil
	}
	return m, animate()
}

// Gauge returns the current animated gauge position.
func (m Model) Gauge() float64 { return m.pos }

func (m Model) settled() bool {
	return math.Abs(m.pos-m.target) < settleEps && math.Abs(m.vel) < settleEps
}

func animate() tea.Cmd {
	return tea.Tick(time.Second/fps, func(time.Time) tea.Msg { return FrameMsg{} })
}

// View renders the readout panel.
func (m Model) View() string {
	d := m.Display
	var b strings.Builder
	b.WriteString(theme.StyleHeader.Render("Live detection") + "\n")

	emotion := lipgloss.NewStyle().Foreground(theme.EmotionColor(d.Emotion)).Render(d.Emotion)
	writeRow(&b, "Emotion", emotion)
	writeRow(&b, "Posture", styleValue.Render(d.Posture))
	writeRow(&b, "Eyes", styleValue.Render(d.Eyes))
	writeRow(&b, "Sentiment", styleValue.Render(d.Sentiment)+"  "+renderGauge(m.pos, d.HasFrame))

	if d.HasFrame {
		frame := "no image"
		if d.ImageSize > 0 {
			frame = formatBytes(d.ImageSize)
		}
		writeRow(&b, "Frame", theme.StyleDimmed.Render(frame))
	}

	width := m.Width
	if width < labelWidth+gaugeWidth+12 {
		width = labelWidth + gaugeWidth + 12
	}
	return stylePanel.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(styleLabel.Render(label+":") + value + "\n")
}

// renderGauge draws a centred bar for a score in [-1, 1].
func renderGauge(score float64, live bool) string {
	if !live {
		return theme.StyleDimmed.Render(strings.Repeat("·", gaugeWidth))
	}
	half := gaugeWidth / 2
	n := int(math.Round(math.Abs(score) * float64(half)))
	if n > half {
		n = half
	}
	left := strings.Repeat("░", half)
	right := strings.Repeat("░", half)
	if score < 0 {
		left = strings.Repeat("░", half-n) + strings.Repeat("█", n)
	} else {
		right = strings.Repeat("█", n) + strings.Repeat("░", half-n)
	}
	return lipgloss.NewStyle().Foreground(theme.SentimentColor(score)).Render(left + "│" + right)
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

func formatBytes(n int) string {
	if n >= 1024 {
		return strconv.FormatFloat(float64(n)/1024, 'f', 1, 64) + " KiB"
	}
	return strconv.Itoa(n) + " B"
}
