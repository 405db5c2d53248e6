package protocol

import (
	"errors"
	"fmt"
	"strings"
)

// OpCode is the type of a backend operation.
type OpCode uint8

const (
	OpCreateElement OpCode = 0x01 // Create element node
	OpCreateText    OpCode = 0x02 // Create text node
	OpSetAttr       OpCode = 0x03 // Set attribute
	OpRemoveAttr    OpCode = 0x04 // Remove attribute
	OpInsert        OpCode = 0x05 // Insert or move node before ref
	OpRemove        OpCode = 0x06 // Remove node from parent
	OpSetText       OpCode = 0x07 // Update text content
)

// String returns the string representation of the op code.
func (c OpCode) String() string {
	switch c {
	case OpCreateElement:
		return "CreateElement"
	case OpCreateText:
		return "CreateText"
	case OpSetAttr:
		return "SetAttr"
	case OpRemoveAttr:
		return "RemoveAttr"
	case OpInsert:
		return "Insert"
	case OpRemove:
		return "Remove"
	case OpSetText:
		return "SetText"
	default:
		return "Unknown"
	}
}

// ErrInvalidOp is returned for an op code outside the known set.
var ErrInvalidOp = errors.New("protocol: invalid op code")

// NodeID identifies a node within one stream. Zero is the stream's root.
type NodeID uint64

// RootID is the id of the node the stream was mounted under.
const RootID NodeID = 0

// Op is a single backend operation.
type Op struct {
	Code      OpCode
	Node      NodeID // Target node (or the node created)
	Tag       string // CreateElement
	Namespace string // CreateElement
	Text      string // CreateText, SetText
	Name      string // SetAttr, RemoveAttr
	Value     any    // SetAttr
	Parent    NodeID // Insert, Remove
	Ref       NodeID // Insert; RootID means append
}

// String returns a compact description, used in logs and test diffs.
func (op Op) String() string {
	switch op.Code {
	case OpCreateElement:
		if op.Namespace != "" {
			return fmt.Sprintf("create #%d %s:%s", op.Node, op.Namespace, op.Tag)
		}
		return fmt.Sprintf("create #%d %s", op.Node, op.Tag)
	case OpCreateText:
		return fmt.Sprintf("text #%d %q", op.Node, op.Text)
	case OpSetAttr:
		return fmt.Sprintf("set #%d %s=%v", op.Node, op.Name, op.Value)
	case OpRemoveAttr:
		return fmt.Sprintf("unset #%d %s", op.Node, op.Name)
	case OpInsert:
		if op.Ref == RootID {
			return fmt.Sprintf("append #%d to #%d", op.Node, op.Parent)
		}
		return fmt.Sprintf("insert #%d into #%d before #%d", op.Node, op.Parent, op.Ref)
	case OpRemove:
		return fmt.Sprintf("remove #%d from #%d", op.Node, op.Parent)
	case OpSetText:
		return fmt.Sprintf("set-text #%d %q", op.Node, op.Text)
	default:
		return fmt.Sprintf("op %#x #%d", uint8(op.Code), op.Node)
	}
}

// Batch is the ops of one flush with its sequence number.
type Batch struct {
	Seq uint64
	Ops []Op
}

// String lists the ops one per line.
func (b *Batch) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "batch %d (%d ops)\n", b.Seq, len(b.Ops))
	for _, op := range b.Ops {
		sb.WriteString("  ")
		sb.WriteString(op.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// EncodeBatch encodes a batch payload.
func EncodeBatch(b *Batch) []byte {
	e := NewEncoderWithCap(16 + 12*len(b.Ops))
	EncodeBatchTo(e, b)
	return e.Bytes()
}

// EncodeBatchTo encodes a batch payload using the provided encoder.
func EncodeBatchTo(e *Encoder, b *Batch) {
	e.WriteUvarint(b.Seq)
	e.WriteUvarint(uint64(len(b.Ops)))
	for i := range b.Ops {
		encodeOp(e, &b.Ops[i])
	}
}

// BatchFrame wraps an encoded batch in an Ops frame.
func BatchFrame(b *Batch) *Frame {
	return NewFrame(FrameOps, EncodeBatch(b))
}

func encodeOp(e *Encoder, op *Op) {
	e.WriteByte(byte(op.Code))
	e.WriteUvarint(uint64(op.Node))

	switch op.Code {
	case OpCreateElement:
		e.WriteString(op.Tag)
		e.WriteString(op.Namespace)
	case OpCreateText, OpSetText:
		e.WriteString(op.Text)
	case OpSetAttr:
		e.WriteString(op.Name)
		e.WriteValue(op.Value)
	case OpRemoveAttr:
		e.WriteString(op.Name)
	case OpInsert:
		e.WriteUvarint(uint64(op.Parent))
		e.WriteUvarint(uint64(op.Ref))
	case OpRemove:
		e.WriteUvarint(uint64(op.Parent))
	}
}

// DecodeBatch decodes a batch payload with the default limits.
func DecodeBatch(data []byte) (*Batch, error) {
	return DecodeBatchFrom(NewDecoder(data))
}

// DecodeBatchFrom decodes a batch payload from d. Trailing bytes are an
// error.
func DecodeBatchFrom(d *Decoder) (*Batch, error) {
	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, fmt.Errorf("protocol: batch seq: %w", err)
	}
	count, err := d.ReadCollectionCount()
	if err != nil {
		return nil, fmt.Errorf("protocol: batch count: %w", err)
	}

	b := &Batch{Seq: seq, Ops: make([]Op, count)}
	for i := range b.Ops {
		if err := decodeOp(d, &b.Ops[i]); err != nil {
			return nil, fmt.Errorf("protocol: batch %d op %d: %w", seq, i, err)
		}
	}
	if !d.EOF() {
		return nil, fmt.Errorf("protocol: batch %d: %d trailing bytes", seq, d.Remaining())
	}
	return b, nil
}

func decodeOp(d *Decoder, op *Op) error {
	code, err := d.ReadByte()
	if err != nil {
		return err
	}
	op.Code = OpCode(code)
	node, err := d.ReadUvarint()
	if err != nil {
		return err
	}
	op.Node = NodeID(node)

	switch op.Code {
	case OpCreateElement:
		if op.Tag, err = d.ReadString(); err != nil {
			return err
		}
		op.Namespace, err = d.ReadString()
	case OpCreateText, OpSetText:
		op.Text, err = d.ReadString()
	case OpSetAttr:
		if op.Name, err = d.ReadString(); err != nil {
			return err
		}
		op.Value, err = d.ReadValue()
	case OpRemoveAttr:
		op.Name, err = d.ReadString()
	case OpInsert:
		var parent, ref uint64
		if parent, err = d.ReadUvarint(); err != nil {
			return err
		}
		ref, err = d.ReadUvarint()
		op.Parent, op.Ref = NodeID(parent), NodeID(ref)
	case OpRemove:
		var parent uint64
		parent, err = d.ReadUvarint()
		op.Parent = NodeID(parent)
	default:
		return fmt.Errorf("%w %#x", ErrInvalidOp, code)
	}
	return err
}

// DecodeFrameBatch decodes the batch of an Ops frame.
func DecodeFrameBatch(f *Frame, l Limits) (*Batch, error) {
	if f.Type != FrameOps {
		return nil, fmt.Errorf("%w: want Ops, got %s", ErrInvalidFrameType, f.Type)
	}
	return DecodeBatchFrom(NewDecoderWithLimits(f.Payload, l))
}
