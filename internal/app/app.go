package app

import (
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/syntwin/console/internal/charts"
	"github.com/syntwin/console/internal/session"
	"github.com/syntwin/console/internal/stream"
	"github.com/syntwin/console/internal/theme"
	"github.com/syntwin/console/internal/views/analytics"
	"github.com/syntwin/console/internal/views/debug"
	"github.com/syntwin/console/internal/views/detection"
	"github.com/syntwin/console/internal/views/report"
	"github.com/syntwin/console/internal/views/statepanel"
	"github.com/syntwin/console/internal/views/status"
	"github.com/syntwin/console/internal/views/suggestions"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayReport
	OverlayConfirmClear
	OverlayDebug
)

// Options configures the root model.
type Options struct {
	// MarkdownStyle is the glamour standard style for the suggestion panel.
	MarkdownStyle string
	// Events feeds the event log overlay; nil disables it.
	Events <-chan debug.Entry
}

// Model is the root Bubble Tea model.
type Model struct {
	session *session.Controller
	events  <-chan debug.Entry

	keys   KeyMap
	width  int
	height int

	overlay Overlay
	report  report.Model

	// Sub-views.
	statusBar   status.Model
	detection   detection.Model
	suggestions *suggestions.Model
	statePanel  statepanel.Model
	analytics   analytics.Model
	debug       debug.Model

	spinning   bool
	chartsSeen time.Time
	liveSeen   []*charts.Chart
	quitting   bool
}

// New creates the root model around a session controller.
func New(sc *session.Controller, opts Options) Model {
	style := opts.MarkdownStyle
	if style == "" {
		style = "dark"
	}
	return Model{
		session:     sc,
		events:      opts.Events,
		keys:        DefaultKeyMap(),
		statusBar:   status.New(),
		detection:   detection.New(),
		suggestions: ptr(suggestions.New(style)),
		analytics:   analytics.New(),
		debug:       debug.New(),
	}
}

func ptr[T any](v T) *T { return &v }

// Init loads every region and starts background polling.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.session.Init(), m.listen())
}

func (m Model) listen() tea.Cmd {
	if m.events == nil {
		return nil
	}
	ch := m.events
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return debug.EntryMsg(e)
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.report.Resize(msg.Width, msg.Height)
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case debug.EntryMsg:
		m.debug.Add(debug.Entry(msg))
		return m, m.listen()

	case detection.FrameMsg:
		var cmd tea.Cmd
		m.detection, cmd = m.detection.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if !m.spinning {
			return m, nil
		}
		var cmd tea.Cmd
		m.statusBar, cmd = m.statusBar.Update(msg)
		return m, cmd
	}

	handled, cmd := m.session.Update(msg)
	if !handled {
		return m, nil
	}
	if r, ok := msg.(session.ReportMsg); ok {
		m.openReport(r)
	}
	return m, tea.Batch(cmd, m.sync())
}

// sync copies controller state into the sub-views.
func (m *Model) sync() tea.Cmd {
	sc := m.session
	var cmds []tea.Cmd

	m.statusBar.State = sc.State().String()
	m.statusBar.Health = sc.Health().String()
	m.statusBar.SessionID = ""
	if sc.Intent() {
		m.statusBar.SessionID = sc.SessionID()
	}
	m.statusBar.Status = sc.Status()
	m.statusBar.Notice = sc.Notice()
	if e := sc.BackendError(); e != "" {
		m.statusBar.Notice = "backend: " + e
	}
	m.statusBar.Loading = sc.Loading()
	if sc.Loading() && !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.statusBar.Tick())
	}
	if !sc.Loading() {
		m.spinning = false
	}

	if d := sc.Display(); d != m.detection.Display {
		cmds = append(cmds, m.detection.Set(d))
	}

	m.suggestions.Set(sc.Suggestions())
	m.statePanel.Snap, m.statePanel.Err = sc.StateSnapshot()

	live := sc.LiveCharts()
	if at := sc.ChartsUpdated(); !at.Equal(m.chartsSeen) || !slices.Equal(live, m.liveSeen) {
		m.chartsSeen, m.liveSeen = at, live
		_, errText := sc.Analytics()
		m.analytics.Set(live, sc.ChartResult(), errText, at)
	}
	return tea.Batch(cmds...)
}

func (m *Model) layout() {
	m.statusBar.Width = m.width
	half := m.width / 2
	m.detection.Width = half - 4
	m.statePanel.Width = m.width - half - 2
	m.suggestions.Width = m.width - 2
	m.analytics.Width = m.width - 2
}

func (m *Model) openReport(r session.ReportMsg) {
	body := r.Body
	if r.Err != nil {
		body = fmt.Sprintf("%s failed: %v", r.Kind, r.Err)
	}
	m.report = report.New(r.Title, body, r.Err != nil, m.width, m.height)
	m.overlay = OverlayReport
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && (m.overlay == OverlayNone || msg.String() == "ctrl+c") {
		m.quitting = true
		return m, tea.Sequence(m.session.Shutdown(), tea.Quit)
	}

	switch m.overlay {
	case OverlayReport:
		if key.Matches(msg, m.keys.Escape) {
			m.overlay = OverlayNone
			m.session.DismissReport()
			return m, nil
		}
		var cmd tea.Cmd
		m.report, cmd = m.report.Update(msg)
		return m, cmd

	case OverlayConfirmClear:
		m.overlay = OverlayNone
		if key.Matches(msg, m.keys.Confirm) {
			cmd := m.session.ClearData()
			return m, tea.Batch(cmd, m.sync())
		}
		return m, nil

	case OverlayDebug:
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Debug):
			m.overlay = OverlayNone
		case key.Matches(msg, m.keys.Up):
			m.debug.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.debug.ScrollDown(1)
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch {
	case key.Matches(msg, m.keys.Start):
		cmd = m.session.Start()
	case key.Matches(msg, m.keys.Stop), key.Matches(msg, m.keys.Escape):
		cmd = m.session.Stop()
	case key.Matches(msg, m.keys.Charts):
		cmd = m.session.RefreshCharts()
	case key.Matches(msg, m.keys.Suggestions):
		cmd = m.session.RefreshSuggestions()
	case key.Matches(msg, m.keys.State):
		cmd = m.session.RefreshState()
	case key.Matches(msg, m.keys.Summary):
		cmd = m.session.Summary()
	case key.Matches(msg, m.keys.Stats):
		cmd = m.session.Stats()
	case key.Matches(msg, m.keys.Recent):
		cmd = m.session.Recent()
	case key.Matches(msg, m.keys.Export):
		cmd = m.session.Export()
	case key.Matches(msg, m.keys.Clear):
		m.overlay = OverlayConfirmClear
		return m, nil
	case key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayDebug
		return m, nil
	default:
		return m, nil
	}
	return m, tea.Batch(cmd, m.sync())
}

// View renders the full console.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	switch m.overlay {
	case OverlayReport:
		return m.report.View()
	case OverlayDebug:
		return m.debug.View(m.width, m.height)
	case OverlayConfirmClear:
		return m.renderConfirm()
	}

	sections := []string{m.statusBar.View()}
	if m.session.State() == stream.Reconnecting {
		sections = append(sections, m.renderConnectionLost())
	}
	sections = append(sections,
		lipgloss.JoinHorizontal(lipgloss.Top, m.detection.View(), m.statePanel.View()),
		m.suggestions.View(),
		m.analytics.View(),
		theme.StyleDimmed.Render("  s:start  x:stop  r:charts  u:suggestions  t:state  a:summary  g:stats  n:recent  e:export  C:clear  d:log  q:quit"),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderConnectionLost() string {
	return lipgloss.NewStyle().
		Foreground(theme.ColorReconnecting).
		Bold(true).
		Padding(0, 2).
		Render(fmt.Sprintf("CONNECTION LOST  Reconnecting in %s...", m.session.ReconnectDelay()))
}

func (m Model) renderConfirm() string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		theme.StyleHeader.Render("Clear all data?"),
		"",
		"This deletes every stored detection and the analytics logs.",
		"",
		theme.StyleDimmed.Render("y:confirm  any other key:cancel"),
	)
	return lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorDanger).
		Render(body)
}
