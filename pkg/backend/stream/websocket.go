package stream

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/reactor/pkg/protocol"
)

// WebSocketSink writes frames as binary messages to one connection.
type WebSocketSink struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	timeout time.Duration
}

// NewWebSocketSink creates a sink on conn. Each write is bounded by timeout
// or by the context deadline, whichever comes first.
func NewWebSocketSink(conn *websocket.Conn, timeout time.Duration) *WebSocketSink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebSocketSink{conn: conn, timeout: timeout}
}

// Send implements Sink.
func (s *WebSocketSink) Send(ctx context.Context, f *protocol.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(deadline)
	return s.conn.WriteMessage(websocket.BinaryMessage, f.Encode())
}

// Close sends a close message and closes the connection.
func (s *WebSocketSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return s.conn.Close()
}

// Follow reads frames from conn and applies them to r until the connection
// closes. fn, when set, is called after each applied frame. A normal close
// returns nil.
func Follow(ctx context.Context, conn *websocket.Conn, r *Replayer, fn func(*protocol.Frame)) error {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		f, err := protocol.DecodeFrame(msg)
		if err != nil {
			return err
		}
		if err := r.ApplyFrame(f); err != nil {
			return err
		}
		if fn != nil {
			fn(f)
		}
	}
}
