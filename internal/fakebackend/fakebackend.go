// Package fakebackend is an in-process stand-in for the detection backend,
// used by tests. It serves canned JSON routes and a WebSocket stream
// endpoint whose connections the test drives directly.
package fakebackend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/syntwin/console/internal/client"
)

const waitTimeout = 5 * time.Second

// Server is a fake backend.
type Server struct {
	*httptest.Server
	t testing.TB

	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	hits   map[string]int

	dials atomic.Int32
	conns chan *Conn
}

// New starts a fake backend; it is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		t:      t,
		routes: make(map[string]http.HandlerFunc),
		hits:   make(map[string]int),
		conns:  make(chan *Conn, 8),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// StreamURL is the ws:// URL of the stream endpoint.
func (s *Server) StreamURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/api/stream/ws"
}

// Handle registers h for "METHOD /path".
func (s *Server) Handle(method, path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = h
}

// JSON registers a route answering with body encoded as JSON.
func (s *Server) JSON(method, path string, body interface{}) {
	s.Handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	})
}

// Hits returns how many times "METHOD /path" was requested.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// Dials returns the number of stream connections accepted so far.
func (s *Server) Dials() int { return int(s.dials.Load()) }

// Accept waits for the next stream connection.
func (s *Server) Accept() *Conn {
	s.t.Helper()
	select {
	case c := <-s.conns:
		return c
	case <-time.After(waitTimeout):
		s.t.Fatalf("fakebackend: no stream connection within %s", waitTimeout)
		return nil
	}
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/stream/ws" {
		s.upgrade(w, r)
		return
	}
	key := r.Method + " " + r.URL.Path
	s.mu.Lock()
	h, ok := s.routes[key]
	s.hits[key]++
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func (s *Server) upgrade(w http.ResponseWriter, r *http.Request) {
	s.dials.Add(1)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.t.Errorf("fakebackend: upgrade: %v", err)
		return
	}
	c := &Conn{ws: ws, actions: make(chan client.Action, 8), done: make(chan struct{})}
	go c.readLoop()
	s.conns <- c
}

// Conn is the server side of one stream connection.
type Conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	actions chan client.Action
	done    chan struct{}

	closeCode atomic.Int32
}

func (c *Conn) readLoop() {
	defer close(c.done)
	for {
		var msg client.ControlMessage
		if err := c.ws.ReadJSON(&msg); err != nil {
			if ce, ok := err.(*websocket.CloseError); ok {
				c.closeCode.Store(int32(ce.Code))
			}
			return
		}
		c.actions <- msg.Action
	}
}

// NextAction waits for the next control action sent by the console.
func (c *Conn) NextAction(t testing.TB) client.Action {
	t.Helper()
	select {
	case a := <-c.actions:
		return a
	case <-time.After(waitTimeout):
		t.Fatalf("fakebackend: no control action within %s", waitTimeout)
		return ""
	}
}

// WaitClosed waits for the console to close the connection and returns the
// close code it sent, or 0 if it sent none.
func (c *Conn) WaitClosed(t testing.TB) int {
	t.Helper()
	select {
	case <-c.done:
		return int(c.closeCode.Load())
	case <-time.After(waitTimeout):
		t.Fatalf("fakebackend: connection not closed within %s", waitTimeout)
		return 0
	}
}

// Send writes a JSON message to the console.
func (c *Conn) Send(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(v)
}

// SendRaw writes a text frame as is.
func (c *Conn) SendRaw(data string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, []byte(data))
}

// SendDetection writes a detection message with the given emotion and
// sentiment score.
func (c *Conn) SendDetection(emotion string, score float64) error {
	return c.Send(map[string]interface{}{
		"type": "detection",
		"data": map[string]interface{}{
			"results":   map[string]interface{}{"emotion": emotion, "posture": "Upright", "eyes": "Open"},
			"sentiment": map[string]interface{}{"score": score},
		},
	})
}

// CloseWith sends a close frame with code and closes the socket.
func (c *Conn) CloseWith(code int) {
	c.writeMu.Lock()
	c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, ""), time.Now().Add(time.Second))
	c.writeMu.Unlock()
	c.ws.Close()
}

// Drop closes the TCP connection without a close frame; the console sees
// code 1006.
func (c *Conn) Drop() {
	c.ws.UnderlyingConn().Close()
}

// Run executes cmd and returns its messages, flattening batches. Nil
// commands and nil messages are skipped.
func Run(t testing.TB, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-ch:
	case <-time.After(waitTimeout):
		t.Fatalf("fakebackend: command did not complete within %s", waitTimeout)
	}
	switch m := msg.(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range m {
			out = append(out, Run(t, c)...)
		}
		return out
	default:
		return []tea.Msg{m}
	}
}

// RunOne executes cmd and returns its single message.
func RunOne(t testing.TB, cmd tea.Cmd) tea.Msg {
	t.Helper()
	msgs := Run(t, cmd)
	if len(msgs) != 1 {
		t.Fatalf("fakebackend: expected 1 message, got %d: %#v", len(msgs), msgs)
	}
	return msgs[0]
}
