package protocol

import "fmt"

// Version is the protocol version announced in Hello frames.
const Version = 1

// Hello opens a stream: it names the session so a receiver can tell a
// reconnect to the same stream from a new one.
type Hello struct {
	Version uint8
	Session string
	// Seq is the sequence number of the next Ops frame.
	Seq uint64
}

// HelloFrame encodes h as a Hello frame.
func HelloFrame(h *Hello) *Frame {
	e := NewEncoderWithCap(8 + len(h.Session))
	e.WriteByte(h.Version)
	e.WriteString(h.Session)
	e.WriteUvarint(h.Seq)
	return NewFrame(FrameHello, e.Bytes())
}

// DecodeHello decodes the payload of a Hello frame.
func DecodeHello(f *Frame) (*Hello, error) {
	if f.Type != FrameHello {
		return nil, fmt.Errorf("%w: want Hello, got %s", ErrInvalidFrameType, f.Type)
	}
	d := NewDecoder(f.Payload)
	var (
		h   Hello
		err error
	)
	if h.Version, err = d.ReadByte(); err != nil {
		return nil, err
	}
	if h.Version != Version {
		return nil, fmt.Errorf("protocol: unsupported version %d", h.Version)
	}
	if h.Session, err = d.ReadString(); err != nil {
		return nil, err
	}
	if h.Seq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	return &h, nil
}
