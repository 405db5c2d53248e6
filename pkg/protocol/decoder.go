package protocol

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Decoding errors besides io.ErrUnexpectedEOF.
var (
	ErrVarintOverflow     = errors.New("protocol: varint overflow")
	ErrAllocationTooLarge = errors.New("protocol: allocation size exceeds limit")
	ErrCollectionTooLarge = errors.New("protocol: collection count exceeds limit")
)

// Decoder reads values back from a payload. Lengths and counts read from
// the input are checked against its Limits before anything is allocated.
type Decoder struct {
	buf    []byte
	limits Limits
}

// NewDecoder reads buf with DefaultLimits.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf, limits: DefaultLimits()}
}

// NewDecoderWithLimits reads buf with l. Zero fields of l take defaults.
func NewDecoderWithLimits(buf []byte, l Limits) *Decoder {
	return &Decoder{buf: buf, limits: l.normalize()}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) }

// EOF reports whether the input is used up.
func (d *Decoder) EOF() bool { return len(d.buf) == 0 }

func (d *Decoder) take(n int) ([]byte, error) {
	if n > len(d.buf) {
		return nil, io.ErrUnexpectedEOF
	}
	b := d.buf[:n]
	d.buf = d.buf[n:]
	return b, nil
}

// ReadByte reads one byte.
func (d *Decoder) ReadByte() (byte, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUvarint reads a base-128 varint.
func (d *Decoder) ReadUvarint() (uint64, error) {
	v, n := binary.Uvarint(d.buf)
	switch {
	case n == 0:
		return 0, io.ErrUnexpectedEOF
	case n < 0:
		return 0, ErrVarintOverflow
	}
	d.buf = d.buf[n:]
	return v, nil
}

// ReadSvarint reads a zigzag varint.
func (d *Decoder) ReadSvarint() (int64, error) {
	v, n := binary.Varint(d.buf)
	switch {
	case n == 0:
		return 0, io.ErrUnexpectedEOF
	case n < 0:
		return 0, ErrVarintOverflow
	}
	d.buf = d.buf[n:]
	return v, nil
}

// ReadString reads a length-prefixed string. A length over the allocation
// limit fails with ErrAllocationTooLarge.
func (d *Decoder) ReadString() (string, error) {
	n, err := d.ReadUvarint()
	if err != nil {
		return "", err
	}
	if n > uint64(d.limits.MaxAllocation) {
		return "", ErrAllocationTooLarge
	}
	if n > uint64(len(d.buf)) {
		return "", io.ErrUnexpectedEOF
	}
	b, _ := d.take(int(n))
	return string(b), nil
}

// ReadBool reads a byte; anything but 0 is true.
func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.ReadByte()
	return b != 0, err
}

// ReadFloat64 reads big-endian IEEE 754 bits.
func (d *Decoder) ReadFloat64() (float64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// ReadCollectionCount reads an item count. Counts over the limit, or over
// the remaining input since every item takes at least a byte, are rejected.
func (d *Decoder) ReadCollectionCount() (int, error) {
	n, err := d.ReadUvarint()
	if err != nil {
		return 0, err
	}
	if n > uint64(d.limits.MaxCount) {
		return 0, ErrCollectionTooLarge
	}
	if n > uint64(len(d.buf)) {
		return 0, io.ErrUnexpectedEOF
	}
	return int(n), nil
}
