package protocol

import (
	"errors"
	"fmt"
	"math"
)

// ValueTag identifies the type of an encoded attribute value.
type ValueTag uint8

const (
	ValueNil    ValueTag = 0x00
	ValueBool   ValueTag = 0x01
	ValueInt    ValueTag = 0x02
	ValueFloat  ValueTag = 0x03
	ValueString ValueTag = 0x04
)

// ErrUnknownValueTag is returned when a value tag is not one of the known tags.
var ErrUnknownValueTag = errors.New("protocol: unknown value tag")

// WriteValue appends v with its type tag.
//
// Integers of any width become ValueInt (unsigned values above MaxInt64 are
// written as strings), floats become ValueFloat. Types without a tag are
// written as the string fmt.Sprint produces.
func (e *Encoder) WriteValue(v any) {
	switch x := v.(type) {
	case nil:
		e.WriteByte(byte(ValueNil))
	case bool:
		e.WriteByte(byte(ValueBool))
		e.WriteBool(x)
	case int:
		e.writeInt(int64(x))
	case int8:
		e.writeInt(int64(x))
	case int16:
		e.writeInt(int64(x))
	case int32:
		e.writeInt(int64(x))
	case int64:
		e.writeInt(x)
	case uint:
		e.writeUint(uint64(x))
	case uint8:
		e.writeInt(int64(x))
	case uint16:
		e.writeInt(int64(x))
	case uint32:
		e.writeInt(int64(x))
	case uint64:
		e.writeUint(x)
	case float32:
		e.WriteByte(byte(ValueFloat))
		e.WriteFloat64(float64(x))
	case float64:
		e.WriteByte(byte(ValueFloat))
		e.WriteFloat64(x)
	case string:
		e.WriteByte(byte(ValueString))
		e.WriteString(x)
	default:
		e.WriteByte(byte(ValueString))
		e.WriteString(fmt.Sprint(x))
	}
}

func (e *Encoder) writeInt(v int64) {
	e.WriteByte(byte(ValueInt))
	e.WriteSvarint(v)
}

func (e *Encoder) writeUint(v uint64) {
	if v > math.MaxInt64 {
		e.WriteByte(byte(ValueString))
		e.WriteString(fmt.Sprint(v))
		return
	}
	e.writeInt(int64(v))
}

// ReadValue reads a tagged value. Integers decode as int64, floats as
// float64.
func (d *Decoder) ReadValue() (any, error) {
	tag, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	switch ValueTag(tag) {
	case ValueNil:
		return nil, nil
	case ValueBool:
		return d.ReadBool()
	case ValueInt:
		return d.ReadSvarint()
	case ValueFloat:
		return d.ReadFloat64()
	case ValueString:
		return d.ReadString()
	default:
		return nil, fmt.Errorf("%w %#x", ErrUnknownValueTag, tag)
	}
}
