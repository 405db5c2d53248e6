// Package protocol implements the binary format used to ship backend
// operations between processes.
//
// A stream of frames carries the mutations one patcher made against a
// backend, so that another process can rebuild the same tree. Frames are
// written to websocket connections and to frame logs on disk or in object
// storage.
//
// # Wire Format
//
// Every frame starts with a 6-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (4 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameHello (0x01): stream session id and protocol version
//   - FrameOps (0x02): one batch of backend operations
//
// # Ops Payload
//
//	uvarint seq
//	uvarint count
//	count × op:
//	    byte    code
//	    uvarint node id
//	    ...     op fields
//
// Op fields:
//
//	create-element: string tag, string namespace
//	create-text:    string text
//	set-attr:       string name, value
//	remove-attr:    string name
//	insert:         uvarint parent, uvarint ref (0 = append)
//	remove:         uvarint parent
//	set-text:       string text
//
// Values carry a one-byte tag: nil, bool, int (zigzag varint), float
// (IEEE 754, big-endian) or string. Anything else is written as its fmt
// representation.
//
// # Encoding
//
//   - Varint: compact encoding for small integers (protobuf-style)
//   - ZigZag: signed integers encoded as unsigned varints
//   - Length-prefixed: strings prefixed with varint length
//
// # Limits
//
// Decoding never trusts a length prefix: strings and op counts are checked
// against the remaining input and against [Limits] before anything is
// allocated.
package protocol
