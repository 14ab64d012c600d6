package pbf

import (
	"encoding/binary"
	"math"

	"mvtengine/pkg/mvtengine/errs"
)

// Reader scans a length-delimited protobuf message field by field over a
// borrowed, non-owned byte slice. It never copies; Bytes() and String()
// return sub-slices of the original buffer.
//
// The dispatch loop callers write looks like:
//
//	for r.Next() {
//	    switch r.Tag() {
//	    case nameField:
//	        name = r.String()
//	    default:
//	        r.Skip()
//	    }
//	}
//	if err := r.Err(); err != nil {
//	    return err
//	}
type Reader struct {
	buf   []byte
	pos   int
	field int
	wire  int
	err   error
}

// NewReader wraps buf for field-by-field scanning.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error { return r.err }

// Len reports how many unread bytes remain.
func (r *Reader) Len() int { return len(r.buf) - r.pos }

func (r *Reader) fail(msg string) bool {
	if r.err == nil {
		r.err = errs.New(errs.CorruptInput, msg)
	}
	return false
}

// Next advances to the next field, reading its tag. Returns false at end
// of input or on error; check Err() to distinguish the two.
func (r *Reader) Next() bool {
	if r.err != nil || r.pos >= len(r.buf) {
		return false
	}
	tag, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		return r.fail("truncated field tag")
	}
	r.pos += n
	field, wire := SplitTag(tag)
	if field <= 0 {
		return r.fail("invalid field number")
	}
	r.field, r.wire = field, wire
	return true
}

// Tag returns the field number of the current field.
func (r *Reader) Tag() int { return r.field }

// WireType returns the wire type of the current field.
func (r *Reader) WireType() int { return r.wire }

// Uvarint reads the current field as an unsigned varint.
func (r *Reader) Uvarint() uint64 {
	if r.wire != WireVarint {
		r.fail("tag/wire-type mismatch: expected varint")
		return 0
	}
	v, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		r.fail("truncated varint")
		return 0
	}
	r.pos += n
	return v
}

// Varint reads the current field as a zig-zag encoded signed varint.
func (r *Reader) Varint() int64 {
	return ZigZagDecode(r.Uvarint())
}

// Bool reads the current field as a varint-encoded boolean.
func (r *Reader) Bool() bool {
	return r.Uvarint() != 0
}

// Fixed64 reads the current field as a little-endian 64-bit value.
func (r *Reader) Fixed64() uint64 {
	if r.wire != WireFixed64 {
		r.fail("tag/wire-type mismatch: expected fixed64")
		return 0
	}
	if r.pos+8 > len(r.buf) {
		r.fail("truncated fixed64 field")
		return 0
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}

// Double reads the current field as an IEEE-754 double.
func (r *Reader) Double() float64 {
	return math.Float64frombits(r.Fixed64())
}

// Fixed32 reads the current field as a little-endian 32-bit value.
func (r *Reader) Fixed32() uint32 {
	if r.wire != WireFixed32 {
		r.fail("tag/wire-type mismatch: expected fixed32")
		return 0
	}
	if r.pos+4 > len(r.buf) {
		r.fail("truncated fixed32 field")
		return 0
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

// Float reads the current field as an IEEE-754 float.
func (r *Reader) Float() float32 {
	return math.Float32frombits(r.Fixed32())
}

// Bytes reads the current length-delimited field and returns a sub-slice
// of the underlying buffer; the caller must not retain it past the
// lifetime of the original buffer.
func (r *Reader) Bytes() []byte {
	if r.wire != WireBytes {
		r.fail("tag/wire-type mismatch: expected length-delimited")
		return nil
	}
	n, sz := binary.Uvarint(r.buf[r.pos:])
	if sz <= 0 {
		r.fail("truncated length prefix")
		return nil
	}
	if n > uint64(len(r.buf)-r.pos-sz) {
		r.fail("length prefix exceeds remaining buffer")
		return nil
	}
	start := r.pos + sz
	end := start + int(n)
	r.pos = end
	return r.buf[start:end]
}

// String reads the current length-delimited field as a string.
func (r *Reader) String() string {
	b := r.Bytes()
	if b == nil {
		return ""
	}
	return string(b)
}

// Message reads the current length-delimited field and returns a nested
// Reader over it, without copying.
func (r *Reader) Message() *Reader {
	return NewReader(r.Bytes())
}

// Skip discards the current field's value according to its wire type,
// without interpreting it. Unknown tags are always skipped, never errors,
// except during structural validation which counts them separately.
func (r *Reader) Skip() {
	switch r.wire {
	case WireVarint:
		r.Uvarint()
	case WireFixed64:
		r.Fixed64()
	case WireBytes:
		r.Bytes()
	case WireFixed32:
		r.Fixed32()
	default:
		r.fail("unknown wire type")
	}
}
