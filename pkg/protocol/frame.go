package protocol

import (
	"errors"
	"fmt"
	"io"
)

// FrameHeaderSize is the size of the frame header in bytes.
const FrameHeaderSize = 6

// FrameType identifies the type of frame.
type FrameType uint8

const (
	FrameHello FrameType = 0x01 // Stream session announcement
	FrameOps   FrameType = 0x02 // Batch of backend operations
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameHello:
		return "Hello"
	case FrameOps:
		return "Ops"
	default:
		return "Unknown"
	}
}

// FrameFlags are optional flags for frame processing.
type FrameFlags uint8

const (
	FlagReplay FrameFlags = 0x01 // Frame is resent from history
	FlagFinal  FrameFlags = 0x02 // Last frame of the stream
)

// Has returns true if the flags contain the specified flag.
func (ff FrameFlags) Has(flag FrameFlags) bool {
	return ff&flag != 0
}

// Frame errors.
var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
)

// Frame is a protocol frame with header and payload.
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (4 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//	│  Payload (variable length)                                  │
//	└─────────────────────────────────────────────────────────────┘
type Frame struct {
	Type    FrameType
	Flags   FrameFlags
	Payload []byte
}

// NewFrame creates a frame with the given type and payload.
func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// Encode encodes the frame to bytes including the header.
func (f *Frame) Encode() []byte {
	e := NewEncoderWithCap(FrameHeaderSize + len(f.Payload))
	f.EncodeTo(e)
	return e.Bytes()
}

// EncodeTo encodes the frame using the provided encoder.
func (f *Frame) EncodeTo(e *Encoder) {
	e.WriteByte(byte(f.Type))
	e.WriteByte(byte(f.Flags))
	e.WriteUint32(uint32(len(f.Payload)))
	e.WriteBytes(f.Payload)
}

// WithFlags returns a copy of f with flags added. The payload is shared.
func (f *Frame) WithFlags(flags FrameFlags) *Frame {
	return &Frame{Type: f.Type, Flags: f.Flags | flags, Payload: f.Payload}
}

// String returns a short description for logs.
func (f *Frame) String() string {
	return fmt.Sprintf("%s frame (%d bytes, flags %#x)", f.Type, len(f.Payload), uint8(f.Flags))
}

func parseHeader(h []byte) (FrameType, FrameFlags, int) {
	length := int(h[2])<<24 | int(h[3])<<16 | int(h[4])<<8 | int(h[5])
	return FrameType(h[0]), FrameFlags(h[1]), length
}

// DecodeFrame decodes a frame from bytes.
// The input must contain the header and the full payload.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, io.ErrUnexpectedEOF
	}
	ft, flags, length := parseHeader(data)
	if length > HardMaxAllocation {
		return nil, ErrFrameTooLarge
	}
	if len(data) < FrameHeaderSize+length {
		return nil, io.ErrUnexpectedEOF
	}

	payload := make([]byte, length)
	copy(payload, data[FrameHeaderSize:FrameHeaderSize+length])
	return &Frame{Type: ft, Flags: flags, Payload: payload}, nil
}

// ReadFrame reads a complete frame from r using the default limits.
func ReadFrame(r io.Reader) (*Frame, error) {
	return readFrame(r, DefaultLimits())
}

func readFrame(r io.Reader, l Limits) (*Frame, error) {
	header := make([]byte, FrameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	ft, flags, length := parseHeader(header)
	if length > l.MaxPayload {
		return nil, ErrFrameTooLarge
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
	return &Frame{Type: ft, Flags: flags, Payload: payload}, nil
}

// WriteFrame writes a complete frame to w.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > HardMaxAllocation {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}

// ReadFrames reads frames from r until it is exhausted and passes each one
// to fn. A clean end of input between frames is not an error; a frame cut
// short is.
func ReadFrames(r io.Reader, fn func(*Frame) error) error {
	return ReadFramesWithLimits(r, DefaultLimits(), fn)
}

// ReadFramesWithLimits is ReadFrames with custom limits.
func ReadFramesWithLimits(r io.Reader, l Limits, fn func(*Frame) error) error {
	l = l.normalize()
	for {
		f, err := readFrame(r, l)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			return err
		}
	}
}
