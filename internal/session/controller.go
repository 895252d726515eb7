// Package session is the façade the UI talks to. It turns operator start and
// stop intent into connection and polling calls, applies incoming frames and
// fetch results to the display state, and dispatches chart refreshes.
//
// The Controller is not safe for concurrent use. All of its methods run on
// the Bubble Tea update loop; the I/O they start runs in returned commands.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/syntwin/console/internal/charts"
	"github.com/syntwin/console/internal/client"
	"github.com/syntwin/console/internal/poll"
	"github.com/syntwin/console/internal/stream"
	"github.com/syntwin/console/internal/wallclock"
)

// Region error texts.
const (
	ErrTextSuggestions = "Failed to load suggestions"
	ErrTextState       = "Failed to load state"
	ErrTextCharts      = "Failed to load charts"
)

// Health is the last known backend liveness.
type Health int

const (
	HealthUnknown Health = iota
	HealthOnline
	HealthOffline
)

func (h Health) String() string {
	switch h {
	case HealthOnline:
		return "online"
	case HealthOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Query holds the fetch parameters.
type Query struct {
	Minutes       int
	TimelineHours int
	TrendHours    int
	RecentLimit   int
}

// DefaultQuery returns the stock fetch parameters.
func DefaultQuery() Query {
	return Query{
		Minutes:       client.DefaultMinutes,
		TimelineHours: client.DefaultTimelineHours,
		TrendHours:    client.DefaultTrendHours,
		RecentLimit:   client.DefaultRecentLimit,
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithQuery sets the fetch parameters. Zero fields keep their default.
func WithQuery(q Query) Option {
	return func(c *Controller) {
		d := DefaultQuery()
		if q.Minutes <= 0 {
			q.Minutes = d.Minutes
		}
		if q.TimelineHours <= 0 {
			q.TimelineHours = d.TimelineHours
		}
		if q.TrendHours <= 0 {
			q.TrendHours = d.TrendHours
		}
		if q.RecentLimit <= 0 {
			q.RecentLimit = d.RecentLimit
		}
		c.query = q
	}
}

// WithTicker replaces the timer used for the post-clear chart refresh.
func WithTicker(t wallclock.Ticker) Option {
	return func(c *Controller) { c.tick = t }
}

// WithClearDelay sets how long after clearing data the charts refresh.
func WithClearDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.clearDelay = d
		}
	}
}

// WithExportDir sets where exports are written.
func WithExportDir(dir string) Option {
	return func(c *Controller) {
		if dir != "" {
			c.exportDir = dir
		}
	}
}

// FrameSink receives the latest camera frame.
type FrameSink interface {
	WriteFrame(jpeg []byte) error
}

// WithFrameSink writes each decoded camera frame to sink. Writes never
// overlap; frames arriving during a write collapse into the newest one.
func WithFrameSink(sink FrameSink) Option {
	return func(c *Controller) { c.frameSink = sink }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.base = l
		}
	}
}

// Controller owns the session state.
type Controller struct {
	http   *client.HTTPClient
	stream *stream.Manager
	poll   *poll.Orchestrator
	charts *charts.Manager

	query      Query
	tick       wallclock.Ticker
	clearDelay time.Duration
	exportDir  string
	base       *slog.Logger
	log        *slog.Logger
	now        func() time.Time

	state     stream.State
	intent    bool
	epoch     uint64
	sessionID string

	frame   *client.DetectionFrame
	display client.FrameDisplay

	frameSink    FrameSink
	frameWriting bool
	framePending []byte

	suggestions    *client.SuggestionSnapshot
	suggestionsErr string
	snapshot       *client.StateSnapshot
	stateErr       string
	analytics      *client.AnalyticsSnapshot
	chartResult    charts.Result
	chartsErr      string
	chartsAt       time.Time

	health     Health
	backendErr string
	status     string
	notice     string
	report     *ReportMsg
	inflight   int
}

// New creates a Controller over the given components.
func New(http *client.HTTPClient, sm *stream.Manager, po *poll.Orchestrator, cm *charts.Manager, opts ...Option) *Controller {
	c := &Controller{
		http:       http,
		stream:     sm,
		poll:       po,
		charts:     cm,
		query:      DefaultQuery(),
		tick:       wallclock.Tick,
		clearDelay: 2 * time.Second,
		exportDir:  ".",
		base:       slog.New(slog.DiscardHandler),
		now:        time.Now,
		display:    client.NoFrame,
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.base
	return c
}

// --- accessors for the views ---

func (c *Controller) State() stream.State { return c.state }
func (c *Controller) Intent() bool { return c.intent }
func (c *Controller) SessionID() string { return c.sessionID }
func (c *Controller) Display() client.FrameDisplay { return c.display }
func (c *Controller) Frame() *client.DetectionFrame { return c.frame }
func (c *Controller) Suggestions() (*client.SuggestionSnapshot, string) { return c.suggestions, c.suggestionsErr }
func (c *Controller) StateSnapshot() (*client.StateSnapshot, string) { return c.snapshot, c.stateErr }
func (c *Controller) Analytics() (*client.AnalyticsSnapshot, string) { return c.analytics, c.chartsErr }
func (c *Controller) ChartResult() charts.Result { return c.chartResult }

// LiveCharts returns the chart mounted on each surface, in charts.Kinds order.
func (c *Controller) LiveCharts() []*charts.Chart { return c.charts.LiveAll() }
func (c *Controller) ChartsUpdated() time.Time { return c.chartsAt }
func (c *Controller) Health() Health { return c.health }
func (c *Controller) BackendError() string { return c.backendErr }
func (c *Controller) Status() string { return c.status }
func (c *Controller) Notice() string { return c.notice }
func (c *Controller) Report() *ReportMsg { return c.report }
func (c *Controller) Loading() bool { return c.inflight > 0 }

// ReconnectDelay is the wait before a lost stream is redialled.
func (c *Controller) ReconnectDelay() time.Duration { return c.stream.ReconnectDelay() }

// DismissReport clears the last report.
func (c *Controller) DismissReport() { c.report = nil }

// --- lifecycle ---

// Init arms background polling and loads every region once.
func (c *Controller) Init() tea.Cmd {
	return tea.Batch(
		c.poll.StartAll(false),
		c.fetchHealth(),
		c.RefreshSuggestions(),
		c.RefreshState(),
		c.RefreshCharts(),
	)
}

// Start opens a session. It is a no-op while a connection is open or being
// opened, and refused while the backend is known to be offline.
func (c *Controller) Start() tea.Cmd {
	if c.state == stream.Streaming || c.state == stream.Connecting {
		return nil
	}
	if c.health == HealthOffline {
		c.notice = "Server offline, cannot start"
		c.log.Warn("session: start refused, server offline")
		return nil
	}
	if !c.intent {
		c.sessionID = uuid.NewString()
		c.log = c.base.With("session", c.sessionID)
	}
	c.intent = true
	c.epoch++
	c.notice = ""
	c.backendErr = ""
	c.log.Info("session: start", "epoch", c.epoch)
	return tea.Batch(
		c.stream.Open(&c.state),
		c.poll.StartAll(true),
		c.RefreshCharts(),
	)
}

// Stop ends the session. Intent is cleared before the connection closes so
// a pending reconnect sees it. The frame display resets to the no-data
// sentinel and one final refresh is scheduled.
func (c *Controller) Stop() tea.Cmd {
	if !c.intent && (c.state == stream.Idle || c.state == stream.Stopping) {
		return nil
	}
	c.intent = false
	c.epoch++
	c.log.Info("session: stop", "epoch", c.epoch)

	closeCmd := c.stream.Close(&c.state)
	finalCmd := c.poll.ScheduleFinal()
	pollCmd := c.poll.StartAll(false)
	c.frame = nil
	c.display = client.NoFrame
	c.log = c.base
	return tea.Batch(closeCmd, finalCmd, pollCmd)
}

// Shutdown stops everything for program exit.
func (c *Controller) Shutdown() tea.Cmd {
	c.intent = false
	c.epoch++
	c.poll.StopAll()
	return c.stream.Close(&c.state)
}

// --- manual refreshes ---

// RefreshCharts fetches analytics and rebuilds the chart surfaces.
func (c *Controller) RefreshCharts() tea.Cmd {
	epoch, ticket := c.epoch, c.charts.NextTicket()
	httpc, cm, q := c.http, c.charts, c.query
	c.inflight++
	return func() tea.Msg {
		ctx := context.Background()
		snap := httpc.Analytics(ctx, q.TimelineHours, q.TrendHours)
		res, err := cm.Refresh(ctx, ticket, snap)
		return ChartsMsg{Epoch: epoch, Result: res, Analytics: snap, Err: err}
	}
}

// RefreshSuggestions fetches the suggestion snapshot.
func (c *Controller) RefreshSuggestions() tea.Cmd {
	epoch, httpc, minutes := c.epoch, c.http, c.query.Minutes
	c.inflight++
	return func() tea.Msg {
		snap, err := httpc.Suggestions(context.Background(), minutes)
		return SuggestionsMsg{Epoch: epoch, Snap: snap, Err: err}
	}
}

// RefreshState fetches the state snapshot.
func (c *Controller) RefreshState() tea.Cmd {
	epoch, httpc, minutes := c.epoch, c.http, c.query.Minutes
	c.inflight++
	return func() tea.Msg {
		snap, err := httpc.State(context.Background(), minutes)
		return StateMsg{Epoch: epoch, Snap: snap, Err: err}
	}
}

func (c *Controller) fetchHealth() tea.Cmd {
	httpc := c.http
	return func() tea.Msg {
		return HealthMsg{Err: httpc.Health(context.Background())}
	}
}

// --- message handling ---

// Update applies msg. handled is false for messages the controller does not
// own.
func (c *Controller) Update(msg tea.Msg) (handled bool, cmd tea.Cmd) {
	switch msg := msg.(type) {
	case stream.OpenedMsg, stream.ClosedMsg, stream.ReconnectMsg, stream.StoppedMsg,
		stream.FrameMsg, stream.BackendErrorMsg, stream.KeepaliveMsg, stream.StatusMsg:
		return true, c.updateStream(msg)

	case poll.TickMsg:
		fire, next := c.poll.Handle(msg)
		if !fire {
			return true, nil
		}
		return true, tea.Batch(next, c.runTask(msg.Task))

	case poll.FinalMsg:
		fire, next := c.poll.HandleFinal(msg)
		if !fire {
			return true, nil
		}
		c.log.Debug("session: final refresh")
		return true, tea.Batch(next, c.RefreshSuggestions(), c.RefreshState(), c.RefreshCharts())

	case HealthMsg:
		c.applyHealth(msg)
		return true, nil

	case SuggestionsMsg:
		c.done()
		if msg.Epoch != c.epoch {
			return true, nil
		}
		if msg.Err != nil {
			c.log.Warn("session: suggestions fetch failed", "err", msg.Err)
			c.suggestionsErr = ErrTextSuggestions
			return true, nil
		}
		c.suggestions, c.suggestionsErr = msg.Snap, ""
		return true, nil

	case StateMsg:
		c.done()
		if msg.Epoch != c.epoch {
			return true, nil
		}
		if msg.Err != nil && !errors.Is(msg.Err, client.ErrUnsuccessful) {
			c.log.Warn("session: state fetch failed", "err", msg.Err)
			c.stateErr = ErrTextState
			return true, nil
		}
		c.stateErr = ""
		c.snapshot = nil
		if msg.Snap.Valid() {
			c.snapshot = msg.Snap
		}
		return true, nil

	case ChartsMsg:
		c.done()
		if msg.Epoch != c.epoch || errors.Is(msg.Err, charts.ErrStale) {
			return true, nil
		}
		c.applyCharts(msg)
		return true, nil

	case clearRefreshMsg:
		return true, c.RefreshCharts()

	case frameWrittenMsg:
		if msg.err != nil {
			c.log.Warn("session: frame write failed", "err", msg.err)
		}
		c.frameWriting = false
		next := c.framePending
		c.framePending = nil
		if next == nil {
			return true, nil
		}
		return true, c.writeFrame(next)

	case ReportMsg:
		c.report = &msg
		if msg.Err != nil {
			c.log.Warn("session: action failed", "action", msg.Kind, "err", msg.Err)
			return true, nil
		}
		c.log.Info("session: action done", "action", msg.Kind)
		if msg.Kind == ReportClear {
			c.frame = nil
			c.display = client.NoFrame
			c.suggestions, c.snapshot = nil, nil
			return true, c.tick(c.clearDelay, func(time.Time) tea.Msg { return clearRefreshMsg{} })
		}
		return true, nil
	}
	return false, nil
}

func (c *Controller) updateStream(msg tea.Msg) tea.Cmd {
	current, cmd := c.stream.Update(msg, &c.state, c.intent)
	if !current {
		return cmd
	}
	switch msg := msg.(type) {
	case stream.FrameMsg:
		f := msg.Frame
		c.frame = &f
		c.display = f.Display()
		if len(f.Image) > 0 {
			return tea.Batch(cmd, c.writeFrame(f.Image))
		}
	case stream.BackendErrorMsg:
		c.backendErr = msg.Message
		c.log.Warn("session: backend error", "message", msg.Message)
	case stream.StatusMsg:
		c.status = msg.Message
		c.log.Info("session: backend status", "message", msg.Message, "running", msg.Running)
	case stream.OpenedMsg:
		c.backendErr = ""
	case stream.ClosedMsg:
		if !c.intent {
			c.frame = nil
			c.display = client.NoFrame
		}
	}
	return cmd
}

func (c *Controller) writeFrame(img []byte) tea.Cmd {
	if c.frameSink == nil {
		return nil
	}
	if c.frameWriting {
		c.framePending = img
		return nil
	}
	c.frameWriting = true
	sink := c.frameSink
	return func() tea.Msg { return frameWrittenMsg{err: sink.WriteFrame(img)} }
}

func (c *Controller) done() {
	if c.inflight > 0 {
		c.inflight--
	}
}

func (c *Controller) runTask(task poll.Task) tea.Cmd {
	switch task {
	case poll.Health:
		return c.fetchHealth()
	case poll.Suggestions:
		return c.RefreshSuggestions()
	case poll.State:
		return c.RefreshState()
	case poll.Charts:
		return c.RefreshCharts()
	}
	return nil
}

func (c *Controller) applyHealth(msg HealthMsg) {
	next := HealthOnline
	if msg.Err != nil {
		next = HealthOffline
	}
	if next != c.health {
		c.log.Info("session: server health", "status", next, "err", msg.Err)
	}
	c.health = next
	if next == HealthOnline && c.notice != "" {
		c.notice = ""
	}
}

func (c *Controller) applyCharts(msg ChartsMsg) {
	c.analytics = msg.Analytics
	c.chartResult = msg.Result
	c.chartsAt = c.now()
	c.chartsErr = ""
	if msg.Err != nil {
		c.log.Warn("session: chart refresh failed", "err", msg.Err)
		c.chartsErr = ErrTextCharts
		return
	}
	if msg.Analytics != nil {
		if err := msg.Analytics.Err(); err != nil {
			c.log.Warn("session: analytics fetch failed", "err", err)
			c.chartsErr = ErrTextCharts
		}
	}
	if err := msg.Result.Err(); err != nil {
		c.log.Debug("session: chart surface errors", "err", err)
	}
}
