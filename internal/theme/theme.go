// Package theme provides the Lip Gloss color palette and reusable styles
// for the SynTwin console. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Emotion colors.
var (
	ColorHappy   = lipgloss.Color("#22c55e")
	ColorFocused = lipgloss.Color("#3b82f6")
	ColorNeutral = lipgloss.Color("#9ca3af")
	ColorDrowsy  = lipgloss.Color("#a855f7")
	ColorSad     = lipgloss.Color("#06b6d4")
	ColorAngry   = lipgloss.Color("#dc2626")
	ColorDefault = lipgloss.Color("#9ca3af")
)

// Priority colors.
var (
	ColorPriorityLow    = lipgloss.Color("#22c55e")
	ColorPriorityMedium = lipgloss.Color("#d97706")
	ColorPriorityHigh   = lipgloss.Color("#dc2626")
)

// Connection state colors.
var (
	ColorStreaming    = lipgloss.Color("#16a34a")
	ColorConnecting   = lipgloss.Color("#7c3aed")
	ColorReconnecting = lipgloss.Color("#d97706")
	ColorStopping     = lipgloss.Color("#854d0e")
	ColorIdle         = lipgloss.Color("#4b5563")
)

// Sentiment bar thresholds.
var (
	ColorSentimentLow  = lipgloss.Color("#dc2626") // < -0.3
	ColorSentimentMid  = lipgloss.Color("#d97706") // -0.3..0.3
	ColorSentimentHigh = lipgloss.Color("#22c55e") // > 0.3
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// EmotionColor returns the Lip Gloss color for an emotion label.
func EmotionColor(emotion string) lipgloss.Color {
	switch strings.ToLower(strings.TrimSpace(emotion)) {
	case "happy":
		return ColorHappy
	case "focused":
		return ColorFocused
	case "neutral":
		return ColorNeutral
	case "drowsy":
		return ColorDrowsy
	case "sad":
		return ColorSad
	case "angry":
		return ColorAngry
	default:
		return ColorDefault
	}
}

// PriorityColor returns the color for a suggestion priority.
func PriorityColor(priority string) lipgloss.Color {
	switch priority {
	case "high":
		return ColorPriorityHigh
	case "medium":
		return ColorPriorityMedium
	case "low":
		return ColorPriorityLow
	default:
		return ColorDefault
	}
}

// StateColor returns the color for a connection state name.
func StateColor(state string) lipgloss.Color {
	switch state {
	case "streaming":
		return ColorStreaming
	case "connecting":
		return ColorConnecting
	case "reconnecting":
		return ColorReconnecting
	case "stopping":
		return ColorStopping
	default:
		return ColorIdle
	}
}

// StateGlyph returns a Unicode glyph representing a connection state.
func StateGlyph(state string) string {
	switch state {
	case "streaming":
		return "●"
	case "connecting":
		return "◎"
	case "reconnecting":
		return "◌"
	case "stopping":
		return "◍"
	default:
		return "○"
	}
}

// SentimentColor returns the color for a sentiment score in [-1, 1].
func SentimentColor(score float64) lipgloss.Color {
	switch {
	case score > 0.3:
		return ColorSentimentHigh
	case score < -0.3:
		return ColorSentimentLow
	default:
		return ColorSentimentMid
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorDanger)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)
)
