package stream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/vango-dev/reactor/pkg/protocol"
	"github.com/vango-dev/reactor/pkg/vdom"
)

// Backend records backend calls as protocol ops.
type Backend struct {
	mu      sync.Mutex
	next    protocol.NodeID
	pending []protocol.Op
	seq     uint64
	session string
	sink    Sink
	onFrame func(seq uint64, ops, bytes int)
	logger  *slog.Logger
}

var _ vdom.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option func(*Backend)

// WithSink sets where Flush writes frames.
func WithSink(s Sink) Option {
	return func(b *Backend) { b.sink = s }
}

// WithSession sets the session id announced in Hello frames.
func WithSession(id string) Option {
	return func(b *Backend) {
		if id != "" {
			b.session = id
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithFrameObserver calls fn after every frame is sent.
func WithFrameObserver(fn func(seq uint64, ops, bytes int)) Option {
	return func(b *Backend) { b.onFrame = fn }
}

// New creates a stream backend. Without a sink, Flush discards frames.
func New(opts ...Option) *Backend {
	b := &Backend{
		session: ulid.Make().String(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "stream", "session", b.session)
	return b
}

// Root returns the node to mount under.
func (b *Backend) Root() vdom.Node { return protocol.RootID }

// Session returns the session id.
func (b *Backend) Session() string { return b.session }

// Seq returns the sequence number of the last flushed frame.
func (b *Backend) Seq() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}

// Pending returns the number of ops waiting for Flush.
func (b *Backend) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Hello returns the frame that opens this backend's stream.
func (b *Backend) Hello() *protocol.Frame {
	return protocol.HelloFrame(&protocol.Hello{
		Version: protocol.Version,
		Session: b.session,
		Seq:     b.Seq() + 1,
	})
}

// Flush writes the pending ops as one frame. Nothing is written when no op
// is pending. A failed send still consumes the sequence number, so the
// receiver sees the gap.
func (b *Backend) Flush(ctx context.Context) error {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return nil
	}
	b.seq++
	batch := &protocol.Batch{Seq: b.seq, Ops: b.pending}
	b.pending = nil
	b.mu.Unlock()

	frame := protocol.BatchFrame(batch)
	if b.sink != nil {
		if err := b.sink.Send(ctx, frame); err != nil {
			return fmt.Errorf("stream: send batch %d: %w", batch.Seq, err)
		}
	}
	b.logger.Debug("sent ops", "seq", batch.Seq, "count", len(batch.Ops), "bytes", len(frame.Payload))
	if b.onFrame != nil {
		b.onFrame(batch.Seq, len(batch.Ops), protocol.FrameHeaderSize+len(frame.Payload))
	}
	return nil
}

func (b *Backend) emit(op protocol.Op) {
	b.mu.Lock()
	b.pending = append(b.pending, op)
	b.mu.Unlock()
}

func (b *Backend) alloc() protocol.NodeID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	return b.next
}

// CreateNode implements vdom.Backend.
func (b *Backend) CreateNode(d vdom.Descriptor) vdom.Node {
	id := b.alloc()
	b.emit(protocol.Op{Code: protocol.OpCreateElement, Node: id, Tag: d.Tag, Namespace: d.Namespace})
	return id
}

// CreateText implements vdom.Backend.
func (b *Backend) CreateText(text string) vdom.Node {
	id := b.alloc()
	b.emit(protocol.Op{Code: protocol.OpCreateText, Node: id, Text: text})
	return id
}

// SetAttribute implements vdom.Backend.
func (b *Backend) SetAttribute(node vdom.Node, name string, value any) {
	b.emit(protocol.Op{Code: protocol.OpSetAttr, Node: nodeID(node), Name: name, Value: value})
}

// RemoveAttribute implements vdom.Backend.
func (b *Backend) RemoveAttribute(node vdom.Node, name string) {
	b.emit(protocol.Op{Code: protocol.OpRemoveAttr, Node: nodeID(node), Name: name})
}

// InsertBefore implements vdom.Backend. A nil ref appends.
func (b *Backend) InsertBefore(parent, node, ref vdom.Node) {
	op := protocol.Op{Code: protocol.OpInsert, Node: nodeID(node), Parent: nodeID(parent)}
	if ref != nil {
		op.Ref = nodeID(ref)
	}
	b.emit(op)
}

// RemoveChild implements vdom.Backend.
func (b *Backend) RemoveChild(parent, node vdom.Node) {
	b.emit(protocol.Op{Code: protocol.OpRemove, Node: nodeID(node), Parent: nodeID(parent)})
}

// SetText implements vdom.Backend.
func (b *Backend) SetText(node vdom.Node, text string) {
	b.emit(protocol.Op{Code: protocol.OpSetText, Node: nodeID(node), Text: text})
}

func nodeID(n vdom.Node) protocol.NodeID {
	id, ok := n.(protocol.NodeID)
	if !ok {
		panic(fmt.Sprintf("stream: foreign node %T", n))
	}
	return id
}
