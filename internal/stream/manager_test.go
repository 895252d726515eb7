package stream_test

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/syntwin/console/internal/client"
	"github.com/syntwin/console/internal/fakebackend"
	"github.com/syntwin/console/internal/stream"
	"github.com/syntwin/console/internal/wallclock"
)

type harness struct {
	t      *testing.T
	srv    *fakebackend.Server
	clock  *wallclock.Fake
	m      *stream.Manager
	st     stream.State
	intent bool
}

func newHarness(t *testing.T) *harness {
	srv := fakebackend.New(t)
	clock := &wallclock.Fake{}
	return &harness{
		t:     t,
		srv:   srv,
		clock: clock,
		m:     stream.NewManager(srv.StreamURL(), stream.WithTicker(clock.Tick)),
	}
}

// feed runs cmd and applies its message, returning whether it was current
// and the follow-up command.
func (h *harness) feed(cmd tea.Cmd) (tea.Msg, bool, tea.Cmd) {
	h.t.Helper()
	msg := fakebackend.RunOne(h.t, cmd)
	ok, next := h.m.Update(msg, &h.st, h.intent)
	return msg, ok, next
}

// open starts a session and returns the server side and the read command.
func (h *harness) open() (*fakebackend.Conn, tea.Cmd) {
	h.t.Helper()
	h.intent = true
	dial := h.m.Open(&h.st)
	require.NotNil(h.t, dial)
	require.Equal(h.t, stream.Connecting, h.st)

	msg, ok, read := h.feed(dial)
	require.IsType(h.t, stream.OpenedMsg{}, msg)
	require.True(h.t, ok)
	require.Equal(h.t, stream.Streaming, h.st)

	conn := h.srv.Accept()
	require.Equal(h.t, client.ActionStart, conn.NextAction(h.t))
	return conn, read
}

func TestOpenSendsStartAndDeliversFrames(t *testing.T) {
	h := newHarness(t)
	conn, read := h.open()

	require.NoError(t, conn.SendDetection("Happy", 0.8))
	msg, ok, read := h.feed(read)
	require.True(t, ok)
	fm, isFrame := msg.(stream.FrameMsg)
	require.True(t, isFrame)
	d := fm.Frame.Display()
	require.Equal(t, "Happy", d.Emotion)
	require.Equal(t, "0.80", d.Sentiment)
	require.NotNil(t, read)
}

func TestOpenIsIdempotentWhileLive(t *testing.T) {
	h := newHarness(t)
	h.open()

	require.Nil(t, h.m.Open(&h.st))
	require.Equal(t, stream.Streaming, h.st)
	require.Equal(t, 1, h.srv.Dials())
}

func TestUnknownAndMalformedMessagesAreSkipped(t *testing.T) {
	h := newHarness(t)
	conn, read := h.open()

	require.NoError(t, conn.SendRaw(`not json`))
	require.NoError(t, conn.SendRaw(`{"type":"telemetry"}`))
	require.NoError(t, conn.SendRaw(`{"type":"error","message":"camera busy"}`))

	msg, ok, _ := h.feed(read)
	require.True(t, ok)
	require.Equal(t, "camera busy", msg.(stream.BackendErrorMsg).Message)
}

func TestStatusAndKeepaliveAreDispatched(t *testing.T) {
	h := newHarness(t)
	conn, read := h.open()

	require.NoError(t, conn.SendRaw(`{"type":"keepalive"}`))
	msg, ok, read := h.feed(read)
	require.True(t, ok)
	require.IsType(t, stream.KeepaliveMsg{}, msg)

	require.NoError(t, conn.SendRaw(`{"type":"status","message":"Detection started","running":true}`))
	msg, ok, _ = h.feed(read)
	require.True(t, ok)
	sm := msg.(stream.StatusMsg)
	require.Equal(t, "Detection started", sm.Message)
	require.NotNil(t, sm.Running)
	require.True(t, *sm.Running)
}

func TestCloseSendsStopThenNormalClosure(t *testing.T) {
	h := newHarness(t)
	conn, _ := h.open()

	h.intent = false
	closeCmd := h.m.Close(&h.st)
	require.Equal(t, stream.Stopping, h.st)

	msg, ok, _ := h.feed(closeCmd)
	require.True(t, ok)
	require.IsType(t, stream.StoppedMsg{}, msg)
	require.Equal(t, stream.Idle, h.st)

	require.Equal(t, client.ActionStop, conn.NextAction(t))
	require.Equal(t, websocket.CloseNormalClosure, conn.WaitClosed(t))
	require.Zero(t, h.m.Handle())
}

func TestCloseWithoutConnectionIsIdle(t *testing.T) {
	h := newHarness(t)
	require.Nil(t, h.m.Close(&h.st))
	require.Equal(t, stream.Idle, h.st)
}

func TestAbnormalCloseSchedulesOneReconnect(t *testing.T) {
	h := newHarness(t)
	conn, read := h.open()

	conn.Drop()
	msg, ok, _ := h.feed(read)
	require.True(t, ok)
	closed := msg.(stream.ClosedMsg)
	require.Equal(t, websocket.CloseAbnormalClosure, closed.Code)
	require.Equal(t, stream.Reconnecting, h.st)
	require.True(t, h.m.ReconnectPending())

	require.Equal(t, 1, h.clock.Len())
	timer, _ := h.clock.Last()
	require.Equal(t, stream.DefaultReconnectDelay, timer.D)

	ok, dial := h.m.Update(timer.Msg(), &h.st, h.intent)
	require.True(t, ok)
	require.Equal(t, stream.Connecting, h.st)

	_, ok, _ = h.feed(dial)
	require.True(t, ok)
	require.Equal(t, stream.Streaming, h.st)
	conn2 := h.srv.Accept()
	require.Equal(t, client.ActionStart, conn2.NextAction(t))
	require.Equal(t, 2, h.srv.Dials())
}

func TestNormalCloseFromServerDoesNotReconnect(t *testing.T) {
	h := newHarness(t)
	conn, read := h.open()

	conn.CloseWith(websocket.CloseNormalClosure)
	msg, ok, next := h.feed(read)
	require.True(t, ok)
	require.True(t, msg.(stream.ClosedMsg).Intentional())
	require.Nil(t, next)
	require.Equal(t, stream.Idle, h.st)
	require.Zero(t, h.clock.Len())
}

func TestReconnectSuppressedWhenIntentClearedBeforeFire(t *testing.T) {
	h := newHarness(t)
	conn, read := h.open()

	conn.Drop()
	h.feed(read)
	require.Equal(t, stream.Reconnecting, h.st)
	timer, _ := h.clock.Last()

	h.intent = false
	_, cmd := h.m.Update(timer.Msg(), &h.st, h.intent)
	require.Nil(t, cmd)
	require.Equal(t, stream.Idle, h.st)

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, h.srv.Dials())
}

func TestCloseCancelsPendingReconnect(t *testing.T) {
	h := newHarness(t)
	conn, read := h.open()

	conn.Drop()
	h.feed(read)
	timer, _ := h.clock.Last()

	h.intent = false
	require.Nil(t, h.m.Close(&h.st))
	require.Equal(t, stream.Idle, h.st)
	require.False(t, h.m.ReconnectPending())

	// Even with intent restored, the cancelled timer must not dial.
	ok, cmd := h.m.Update(timer.Msg(), &h.st, true)
	require.False(t, ok)
	require.Nil(t, cmd)
	require.Equal(t, 1, h.srv.Dials())
}

func TestMessagesFromReplacedConnectionAreDropped(t *testing.T) {
	h := newHarness(t)
	conn, read := h.open()

	h.intent = false
	closeCmd := h.m.Close(&h.st)
	h.intent = true
	_, read2 := h.open()
	require.NotNil(t, read2)

	// A frame that arrived on the first connection before it closed.
	require.NoError(t, conn.SendDetection("Sad", -0.5))
	msg, ok, next := h.feed(read)
	require.IsType(t, stream.FrameMsg{}, msg)
	require.False(t, ok)
	require.Nil(t, next)

	// The late stop completion does not disturb the new session.
	h.feed(closeCmd)
	require.Equal(t, stream.Streaming, h.st)
}

func TestDialFailureReconnects(t *testing.T) {
	clock := &wallclock.Fake{}
	m := stream.NewManager("ws://127.0.0.1:1/api/stream/ws", stream.WithTicker(clock.Tick), stream.WithReconnectDelay(2*time.Second))
	var st stream.State

	msg := fakebackend.RunOne(t, m.Open(&st))
	closed, isClosed := msg.(stream.ClosedMsg)
	require.True(t, isClosed)
	require.Error(t, closed.Err)

	ok, _ := m.Update(msg, &st, true)
	require.True(t, ok)
	require.Equal(t, stream.Reconnecting, st)
	timer, _ := clock.Last()
	require.Equal(t, 2*time.Second, timer.D)
}

func TestCloseDuringDialOrphansConnection(t *testing.T) {
	h := newHarness(t)
	h.intent = true
	dial := h.m.Open(&h.st)

	h.intent = false
	require.Nil(t, h.m.Close(&h.st))
	require.Equal(t, stream.Idle, h.st)

	msg, ok, cleanup := h.feed(dial)
	require.IsType(t, stream.OpenedMsg{}, msg)
	require.False(t, ok)
	require.Equal(t, stream.Idle, h.st)

	fakebackend.Run(t, cleanup)
	conn := h.srv.Accept()
	require.Equal(t, client.ActionStart, conn.NextAction(t))
	require.Equal(t, client.ActionStop, conn.NextAction(t))
	require.Equal(t, websocket.CloseNormalClosure, conn.WaitClosed(t))
}
