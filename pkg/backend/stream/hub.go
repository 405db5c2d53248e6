package stream

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/vango-dev/reactor/pkg/backend/memtree"
	"github.com/vango-dev/reactor/pkg/protocol"
)

// ErrHubClosed is returned by Send after Close.
var ErrHubClosed = errors.New("stream: hub closed")

// Hub is a Sink that fans frames out to websocket clients.
//
// The hub keeps a history of recent frames and a mirror of the streamed
// tree. A client that connects gets a Hello frame and then either every
// frame since the first one, when the history still holds them all, or a
// snapshot of the mirror. Both are flagged protocol.FlagReplay. Live frames
// follow.
type Hub struct {
	mu       sync.Mutex
	session  string
	history  *History
	mirror   *memtree.Tree
	replayer *Replayer
	clients  map[string]*client
	closed   bool

	upgrader     websocket.Upgrader
	buffer       int
	writeTimeout time.Duration
	logger       *slog.Logger
}

var (
	_ Sink         = (*Hub)(nil)
	_ http.Handler = (*Hub)(nil)
)

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubSession sets the session id sent in Hello frames.
func WithHubSession(id string) HubOption {
	return func(h *Hub) {
		if id != "" {
			h.session = id
		}
	}
}

// WithHistorySize sets how many frames are kept for new clients.
func WithHistorySize(n int) HubOption {
	return func(h *Hub) { h.history = NewHistory(n) }
}

// WithClientBuffer sets how many frames may wait for a slow client before
// it is dropped.
func WithClientBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// WithWriteTimeout bounds each websocket write.
func WithWriteTimeout(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithCheckOrigin sets the upgrader's origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) HubOption {
	return func(h *Hub) { h.upgrader.CheckOrigin = fn }
}

// WithHubLogger sets the logger.
func WithHubLogger(l *slog.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHub creates a hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		session: ulid.Make().String(),
		history: NewHistory(DefaultHistorySize),
		mirror:  memtree.New(),
		clients: make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		buffer:       64,
		writeTimeout: 10 * time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.replayer = NewReplayer(h.mirror, h.mirror.Root)
	h.logger = h.logger.With("component", "hub", "session", h.session)
	return h
}

// Session returns the session id.
func (h *Hub) Session() string { return h.session }

// History returns the frame history.
func (h *Hub) History() *History { return h.history }

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dump returns the outline of the mirrored tree.
func (h *Hub) Dump() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.mirror.Root.Dump()
}

// Send implements Sink. Ops frames update the mirror and the history, then
// go to every client. A client whose buffer is full is dropped.
func (h *Hub) Send(ctx context.Context, f *protocol.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data := f.Encode()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	if f.Type == protocol.FrameOps {
		if err := h.replayer.ApplyFrame(f); err != nil {
			return err
		}
		h.history.Add(h.replayer.Seq(), data)
	}
	for id, c := range h.clients {
		if !c.enqueue(data) {
			h.logger.Warn("dropping slow client", "client", id)
			h.removeLocked(c)
		}
	}
	return nil
}

// ServeHTTP upgrades the request to a websocket and streams frames to it
// until either side closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := &client{id: ulid.Make().String(), conn: conn}
	if !h.register(c) {
		conn.Close()
		return
	}
	h.logger.Info("client connected", "client", c.id, "remote", r.RemoteAddr)
	go c.writePump(h.writeTimeout)

	// Clients send nothing; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				h.logger.Warn("read error", "client", c.id, "error", err)
			}
			break
		}
	}
	h.unregister(c)
	h.logger.Info("client disconnected", "client", c.id)
}

// register queues the resync frames for c and adds it to the broadcast set
// in one step, so c sees every frame exactly once.
func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}

	initial := h.resyncLocked()
	c.send = make(chan []byte, len(initial)+h.buffer)
	for _, msg := range initial {
		c.send <- msg
	}
	h.clients[c.id] = c
	return true
}

// Log returns the frames a client connecting now would receive first. The
// result is a complete log that Replay can rebuild the tree from.
func (h *Hub) Log() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resyncLocked()
}

func (h *Hub) resyncLocked() [][]byte {
	seq := h.replayer.Seq()
	frames := h.history.Frames(0, seq)
	switch {
	case seq == 0:
		return [][]byte{h.hello(1)}
	case frames != nil:
		initial := make([][]byte, 0, len(frames)+1)
		initial = append(initial, h.hello(1))
		for _, fr := range frames {
			initial = append(initial, markReplay(fr))
		}
		return initial
	default:
		snap := protocol.BatchFrame(snapshot(h.replayer, h.mirror, seq)).WithFlags(protocol.FlagReplay)
		return [][]byte{h.hello(seq), snap.Encode()}
	}
}

func (h *Hub) hello(next uint64) []byte {
	return protocol.HelloFrame(&protocol.Hello{Version: protocol.Version, Session: h.session, Seq: next}).Encode()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	close(c.send)
}

// Close disconnects every client. Later Sends fail with ErrHubClosed.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, c := range h.clients {
		h.removeLocked(c)
	}
	return nil
}

func markReplay(frame []byte) []byte {
	out := make([]byte, len(frame))
	copy(out, frame)
	if len(out) > 1 {
		out[1] |= byte(protocol.FlagReplay)
	}
	return out
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

func (c *client) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// writePump writes queued frames until the hub closes the queue.
func (c *client) writePump(timeout time.Duration) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(timeout))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
}
