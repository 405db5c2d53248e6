package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/vango-dev/reactor/pkg/protocol"
	"github.com/vango-dev/reactor/pkg/vdom"
)

// Replay errors.
var (
	ErrSeqGap      = errors.New("stream: sequence gap")
	ErrUnknownNode = errors.New("stream: unknown node id")
)

// Replayer applies batches onto a Backend, mapping stream node ids to the
// backend's own nodes.
type Replayer struct {
	b       vdom.Backend
	nodes   map[protocol.NodeID]vdom.Node
	last    uint64
	session string
	limits  protocol.Limits
}

// NewReplayer creates a replayer that rebuilds the stream under root.
func NewReplayer(b vdom.Backend, root vdom.Node) *Replayer {
	return &Replayer{
		b:      b,
		nodes:  map[protocol.NodeID]vdom.Node{protocol.RootID: root},
		limits: protocol.DefaultLimits(),
	}
}

// Seq returns the sequence number of the last applied batch.
func (r *Replayer) Seq() uint64 { return r.last }

// Session returns the session named by the last Hello frame.
func (r *Replayer) Session() string { return r.session }

// Node returns the backend node for a stream id.
func (r *Replayer) Node(id protocol.NodeID) (vdom.Node, bool) {
	n, ok := r.nodes[id]
	return n, ok
}

// ApplyFrame applies one frame. Hello frames set the sequence expected next.
func (r *Replayer) ApplyFrame(f *protocol.Frame) error {
	switch f.Type {
	case protocol.FrameHello:
		h, err := protocol.DecodeHello(f)
		if err != nil {
			return err
		}
		r.session = h.Session
		if h.Seq > 0 {
			r.last = h.Seq - 1
		}
		return nil
	case protocol.FrameOps:
		b, err := protocol.DecodeFrameBatch(f, r.limits)
		if err != nil {
			return err
		}
		return r.Apply(b)
	default:
		return fmt.Errorf("%w: %s", protocol.ErrInvalidFrameType, f.Type)
	}
}

// Apply applies one batch. Batches must arrive in sequence.
func (r *Replayer) Apply(b *protocol.Batch) error {
	if b.Seq != r.last+1 {
		return fmt.Errorf("%w: have %d, got %d", ErrSeqGap, r.last, b.Seq)
	}
	for i := range b.Ops {
		if err := r.apply(&b.Ops[i]); err != nil {
			return fmt.Errorf("batch %d op %d (%s): %w", b.Seq, i, b.Ops[i], err)
		}
	}
	r.last = b.Seq
	return nil
}

func (r *Replayer) apply(op *protocol.Op) error {
	switch op.Code {
	case protocol.OpCreateElement:
		r.nodes[op.Node] = r.b.CreateNode(vdom.Descriptor{Tag: op.Tag, Namespace: op.Namespace})
		return nil
	case protocol.OpCreateText:
		r.nodes[op.Node] = r.b.CreateText(op.Text)
		return nil
	}

	node, err := r.lookup(op.Node)
	if err != nil {
		return err
	}
	switch op.Code {
	case protocol.OpSetAttr:
		r.b.SetAttribute(node, op.Name, op.Value)
	case protocol.OpRemoveAttr:
		r.b.RemoveAttribute(node, op.Name)
	case protocol.OpSetText:
		r.b.SetText(node, op.Text)
	case protocol.OpInsert:
		parent, err := r.lookup(op.Parent)
		if err != nil {
			return err
		}
		var ref vdom.Node
		if op.Ref != protocol.RootID {
			if ref, err = r.lookup(op.Ref); err != nil {
				return err
			}
		}
		r.b.InsertBefore(parent, node, ref)
	case protocol.OpRemove:
		parent, err := r.lookup(op.Parent)
		if err != nil {
			return err
		}
		// TODO: forget the ids of the removed subtree once child lists are
		// tracked per id; long streams keep every id ever created.
		r.b.RemoveChild(parent, node)
	default:
		return protocol.ErrInvalidOp
	}
	return nil
}

func (r *Replayer) lookup(id protocol.NodeID) (vdom.Node, error) {
	n, ok := r.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w #%d", ErrUnknownNode, id)
	}
	return n, nil
}

// Replay reads a frame log from rd and applies every frame onto b under
// root.
func Replay(rd io.Reader, b vdom.Backend, root vdom.Node) (*Replayer, error) {
	r := NewReplayer(b, root)
	if err := protocol.ReadFrames(rd, r.ApplyFrame); err != nil {
		return r, err
	}
	return r, nil
}
