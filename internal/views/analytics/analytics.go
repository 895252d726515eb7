// Package analytics renders the four chart surfaces as text: bar rows for the
// distributions and sparklines for the timelines.
package analytics

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/syntwin/console/internal/charts"
	"github.com/syntwin/console/internal/theme"
)

const (
	labelWidth = 14
	maxBar     = 30
)

var sparks = []rune("▁▂▃▄▅▆▇█")

// NotMounted is shown for a surface with no live chart.
const NotMounted = "Loading..."

// Model holds the charts currently mounted on the chart surfaces.
type Model struct {
	Width int

	charts  []*charts.Chart
	errs    map[charts.Kind]error
	err     string
	updated time.Time
}

// New creates an analytics panel with every surface empty.
func New() Model {
	var m Model
	m.Set(nil, charts.Result{}, "", time.Time{})
	return m
}

// Set takes the live chart of each surface, in charts.Kinds order; a nil
// entry is an empty surface. Surface errors from the last refresh are shown
// next to the affected chart.
func (m *Model) Set(live []*charts.Chart, res charts.Result, errText string, updated time.Time) {
	m.charts = live
	m.errs = make(map[charts.Kind]error)
	for _, s := range res.Surfaces {
		if s.Err != nil {
			m.errs[s.Kind] = s.Err
		}
	}
	m.err = errText
	m.updated = updated
}

// View renders all four charts.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}
	header := theme.StyleHeader.Render("Analytics")
	if !m.updated.IsZero() {
		header += theme.StyleDimmed.Render("  updated " + m.updated.Format("15:04:05"))
	}
	lines := []string{header}
	if m.err != "" {
		lines = append(lines, theme.StyleError.Render(m.err))
	}
	for i, kind := range charts.Kinds() {
		var c *charts.Chart
		if i < len(m.charts) {
			c = m.charts[i]
		}
		lines = append(lines, "", m.renderChart(kind, c, width-4))
	}
	return theme.StyleBorder.Width(width).Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderChart(kind charts.Kind, c *charts.Chart, width int) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorDimmed).Render(kind.Title())
	if err, ok := m.errs[kind]; ok {
		title += " " + theme.StyleError.Render("("+err.Error()+")")
	}
	var body string
	switch {
	case c == nil:
		body = theme.StyleDimmed.Render("  " + NotMounted)
	case c.Placeholder && len(c.Series) == 0:
		body = theme.StyleDimmed.Render("  " + strings.Join(c.Labels, " "))
	case c.Placeholder:
		body = theme.StyleDimmed.Render("  " + charts.StartDetecting)
	case len(c.Series) > 0:
		body = renderSeries(c, width)
	default:
		body = renderBars(c)
	}
	return title + "\n" + body
}

func renderBars(c *charts.Chart) string {
	var total, peak float64
	for _, v := range c.Values {
		total += v
		peak = math.Max(peak, v)
	}
	var lines []string
	for i, label := range c.Labels {
		v := c.Values[i]
		n := int(math.Round(v / peak * maxBar))
		color := theme.ColorFocused
		if c.Kind == charts.Emotion {
			color = theme.EmotionColor(label)
		}
		bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", n))
		lines = append(lines, fmt.Sprintf("  %-*s %s %d (%.0f%%)", labelWidth, truncate(label, labelWidth), bar, int(v), v/total*100))
	}
	return strings.Join(lines, "\n")
}

func renderSeries(c *charts.Chart, width int) string {
	var lines []string
	for _, s := range c.Series {
		w := width - labelWidth - 4
		if w < 10 {
			w = 10
		}
		lines = append(lines, fmt.Sprintf("  %-*s %s", labelWidth, truncate(s.Name, labelWidth), Sparkline(s.Y, c.YMin, c.YMax, w)))
	}
	return strings.Join(lines, "\n")
}

// Sparkline renders ys scaled to [lo, hi] using at most width cells. When
// lo == hi the range is taken from the data.
func Sparkline(ys []float64, lo, hi float64, width int) string {
	if len(ys) == 0 {
		return ""
	}
	ys = charts.Downsample(ys, width)
	if lo == hi {
		lo, hi = ys[0], ys[0]
		for _, y := range ys {
			lo, hi = math.Min(lo, y), math.Max(hi, y)
		}
	}
	var b strings.Builder
	for _, y := range ys {
		idx := 0
		if hi > lo {
			idx = int(math.Round((y - lo) / (hi - lo) * float64(len(sparks)-1)))
		}
		idx = max(0, min(idx, len(sparks)-1))
		b.WriteRune(sparks[idx])
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
