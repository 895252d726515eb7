package stream

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/syntwin/console/internal/client"
)

// link is one physical connection. Its id is the handle every message
// produced for it is tagged with.
type link struct {
	id uint64

	writeMu sync.Mutex // serialises all conn writes (ping, start, stop, close)
	conn    *websocket.Conn
	cancel  context.CancelFunc // stops the ping goroutine
}

func (l *link) writeJSON(v interface{}) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	l.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return l.conn.WriteJSON(v)
}

// pingLoop sends periodic pings on the connection until ctx is cancelled or
// a write fails.
func (l *link) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.writeMu.Lock()
			l.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := l.conn.WriteMessage(websocket.PingMessage, nil)
			l.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// release stops the ping goroutine and closes the socket without a close
// handshake. Used once the peer has already gone.
func (l *link) release() {
	if l.cancel != nil {
		l.cancel()
	}
	l.conn.Close()
}

// shutdown sends the stop action (when sendStop is set and the socket is
// still writable), then a close frame with code, then closes the socket.
func (l *link) shutdown(code int, sendStop bool) error {
	if l.cancel != nil {
		l.cancel()
	}
	var errs []error
	if sendStop {
		if err := l.writeJSON(client.ControlMessage{Action: client.ActionStop}); err != nil {
			errs = append(errs, err)
		}
	}
	l.writeMu.Lock()
	err := l.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, ""), time.Now().Add(writeTimeout))
	l.writeMu.Unlock()
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		errs = append(errs, err)
	}
	if err := l.conn.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// next blocks until a message worth delivering arrives or the connection
// closes. Undecodable and unknown messages are skipped.
func (l *link) next() interface{} {
	for {
		l.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		_, data, err := l.conn.ReadMessage()
		if err != nil {
			code := websocket.CloseAbnormalClosure
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				code = ce.Code
			}
			return ClosedMsg{Handle: l.id, Code: code, Err: err}
		}

		var msg client.WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case client.MsgDetection:
			return FrameMsg{Handle: l.id, Frame: client.DecodeFrame(msg.Data)}
		case client.MsgError:
			return BackendErrorMsg{Handle: l.id, Message: msg.Message}
		case client.MsgKeepalive:
			return KeepaliveMsg{Handle: l.id}
		case client.MsgStatus:
			return StatusMsg{Handle: l.id, Message: msg.Message, Running: msg.Running}
		}
	}
}
