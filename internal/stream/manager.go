// Package stream owns the detection WebSocket: dialling, the start/stop
// control protocol, message dispatch and the reconnect policy.
//
// Every method on Manager is meant to run on the Bubble Tea update loop. The
// blocking work (dial, read, close) runs inside returned tea.Cmds and reports
// back with messages tagged by connection handle, so results from a
// connection that has since been replaced are recognised and dropped.
package stream

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/syntwin/console/internal/client"
	"github.com/syntwin/console/internal/wallclock"
)

const (
	DefaultReconnectDelay = 1 * time.Second

	dialTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

// --- Bubble Tea messages ---

// OpenedMsg is sent when a dial completes and the start action was written.
type OpenedMsg struct {
	Handle uint64
	link   *link
}

// ClosedMsg is sent when a connection ends, or fails to open. Code is the
// WebSocket close code; transport failures report 1006.
type ClosedMsg struct {
	Handle uint64
	Code   int
	Err    error
}

// Intentional reports whether the close was a normal closure.
func (m ClosedMsg) Intentional() bool {
	return m.Code == websocket.CloseNormalClosure
}

// FrameMsg delivers one detection frame.
type FrameMsg struct {
	Handle uint64
	Frame  client.DetectionFrame
}

// BackendErrorMsg carries a {"type":"error"} message.
type BackendErrorMsg struct {
	Handle  uint64
	Message string
}

// KeepaliveMsg is a server heartbeat.
type KeepaliveMsg struct{ Handle uint64 }

// StatusMsg carries a {"type":"status"} message.
type StatusMsg struct {
	Handle  uint64
	Message string
	Running *bool
}

// ReconnectMsg fires when a scheduled reconnect delay elapses.
type ReconnectMsg struct{ Gen uint64 }

// StoppedMsg is sent once an intentional close has finished.
type StoppedMsg struct {
	Handle uint64
	Err    error
}

// Option configures a Manager.
type Option func(*Manager)

// WithTicker replaces the timer used for reconnect delays.
func WithTicker(t wallclock.Ticker) Option {
	return func(m *Manager) { m.tick = t }
}

// WithReconnectDelay sets the fixed reconnect delay.
func WithReconnectDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.delay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithDialer replaces the WebSocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(m *Manager) {
		if d != nil {
			m.dialer = d
		}
	}
}

// Manager is the connection state machine. At most one connection is live
// at a time and at most one reconnect is pending.
type Manager struct {
	url    string
	dialer *websocket.Dialer
	tick   wallclock.Ticker
	delay  time.Duration
	log    *slog.Logger

	handle  uint64 // last handle issued
	dialing uint64 // handle of the in-flight dial, 0 if none
	live    *link
	closing uint64 // handle of the connection being shut down

	reconnectGen     uint64
	reconnectPending bool
}

// NewManager creates a Manager for the given stream URL.
func NewManager(url string, opts ...Option) *Manager {
	m := &Manager{
		url:    url,
		dialer: websocket.DefaultDialer,
		tick:   wallclock.Tick,
		delay:  DefaultReconnectDelay,
		log:    slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// URL returns the stream URL.
func (m *Manager) URL() string { return m.url }

// ReconnectDelay is the fixed wait before redialling a lost connection.
func (m *Manager) ReconnectDelay() time.Duration { return m.delay }

// Handle returns the handle of the live connection, or 0.
func (m *Manager) Handle() uint64 {
	if m.live == nil {
		return 0
	}
	return m.live.id
}

// ReconnectPending reports whether a reconnect timer is armed.
func (m *Manager) ReconnectPending() bool { return m.reconnectPending }

// Open starts a new connection unless one is already live or being dialled.
// Any pending reconnect is cancelled.
func (m *Manager) Open(st *State) tea.Cmd {
	m.cancelReconnect()
	if m.live != nil || m.dialing != 0 {
		return nil
	}
	m.handle++
	id := m.handle
	m.dialing = id
	*st = Connecting
	m.log.Info("stream: connecting", "url", m.url, "handle", id)
	return m.dial(id)
}

// Close ends the live connection intentionally: it sends the stop action if
// the socket is writable, then closes with code 1000. Any pending reconnect
// is cancelled and any in-flight dial is orphaned.
func (m *Manager) Close(st *State) tea.Cmd {
	m.cancelReconnect()
	m.dialing = 0
	if m.live == nil {
		*st = Idle
		return nil
	}
	l := m.live
	m.live = nil
	m.closing = l.id
	*st = Stopping
	m.log.Info("stream: closing", "handle", l.id)
	return func() tea.Msg {
		return StoppedMsg{Handle: l.id, Err: l.shutdown(websocket.CloseNormalClosure, true)}
	}
}

// Update applies a stream message. current is false when msg is not a
// stream message or belongs to a connection that is no longer live; the
// caller must ignore such messages. intent is the caller's session intent
// and decides whether an unexpected close is retried.
func (m *Manager) Update(msg tea.Msg, st *State, intent bool) (current bool, cmd tea.Cmd) {
	switch msg := msg.(type) {
	case OpenedMsg:
		if msg.Handle != m.dialing {
			m.log.Debug("stream: discarding stale connection", "handle", msg.Handle)
			l := msg.link
			return false, func() tea.Msg {
				l.shutdown(websocket.CloseNormalClosure, true)
				return nil
			}
		}
		m.dialing = 0
		m.live = msg.link
		*st = Streaming
		m.log.Info("stream: connected", "handle", msg.Handle)
		return true, m.read(msg.link)

	case FrameMsg:
		return m.rearm(msg.Handle)
	case BackendErrorMsg:
		return m.rearm(msg.Handle)
	case KeepaliveMsg:
		return m.rearm(msg.Handle)
	case StatusMsg:
		return m.rearm(msg.Handle)

	case ClosedMsg:
		if !m.isCurrent(msg.Handle) {
			return false, nil
		}
		if m.live != nil {
			m.live.release()
		}
		m.dialing = 0
		m.live = nil
		if msg.Intentional() || !intent {
			m.log.Info("stream: closed", "handle", msg.Handle, "code", msg.Code)
			*st = Idle
			return true, nil
		}
		m.log.Warn("stream: connection lost", "handle", msg.Handle, "code", msg.Code, "err", msg.Err, "retry_in", m.delay)
		*st = Reconnecting
		return true, m.scheduleReconnect()

	case ReconnectMsg:
		if !m.reconnectPending || msg.Gen != m.reconnectGen {
			return false, nil
		}
		m.reconnectPending = false
		if !intent {
			if *st == Reconnecting {
				*st = Idle
			}
			return true, nil
		}
		return true, m.Open(st)

	case StoppedMsg:
		if msg.Handle != m.closing {
			return false, nil
		}
		m.closing = 0
		if msg.Err != nil {
			m.log.Debug("stream: close", "handle", msg.Handle, "err", msg.Err)
		}
		if *st == Stopping {
			*st = Idle
		}
		return true, nil
	}
	return false, nil
}

func (m *Manager) isCurrent(handle uint64) bool {
	if m.live != nil && m.live.id == handle {
		return true
	}
	return m.dialing != 0 && m.dialing == handle
}

func (m *Manager) rearm(handle uint64) (bool, tea.Cmd) {
	if m.live == nil || m.live.id != handle {
		return false, nil
	}
	return true, m.read(m.live)
}

func (m *Manager) cancelReconnect() {
	if m.reconnectPending {
		m.reconnectPending = false
		m.reconnectGen++
	}
}

func (m *Manager) scheduleReconnect() tea.Cmd {
	m.reconnectGen++
	m.reconnectPending = true
	gen := m.reconnectGen
	return m.tick(m.delay, func(time.Time) tea.Msg {
		return ReconnectMsg{Gen: gen}
	})
}

func (m *Manager) dial(id uint64) tea.Cmd {
	url, dialer := m.url, m.dialer
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		defer cancel()

		conn, _, err := dialer.DialContext(ctx, url, nil)
		if err != nil {
			return ClosedMsg{Handle: id, Code: websocket.CloseAbnormalClosure, Err: err}
		}
		l := &link{id: id, conn: conn}
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongTimeout))
		})
		if err := l.writeJSON(client.ControlMessage{Action: client.ActionStart}); err != nil {
			conn.Close()
			return ClosedMsg{Handle: id, Code: websocket.CloseAbnormalClosure, Err: err}
		}
		pingCtx, pingCancel := context.WithCancel(context.Background())
		l.cancel = pingCancel
		go l.pingLoop(pingCtx)
		return OpenedMsg{Handle: id, link: l}
	}
}

func (m *Manager) read(l *link) tea.Cmd {
	return func() tea.Msg { return l.next() }
}
