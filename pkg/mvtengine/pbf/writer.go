package pbf

import (
	"encoding/binary"
	"math"
)

// Writer accumulates an owned byte buffer for a single protobuf message.
// Every Append* call is append-only; nothing already written is ever
// rewritten, which is what lets Tile.Encode splice a foreign encoded
// layer in without re-parsing it (see AppendRawMessage).
type Writer struct {
	buf []byte
}

// NewWriter returns an empty writer.
func NewWriter() *Writer { return &Writer{} }

// NewWriterCap returns an empty writer with capacity preallocated.
func NewWriterCap(capacity int) *Writer { return &Writer{buf: make([]byte, 0, capacity)} }

// Bytes returns the accumulated buffer. The returned slice aliases the
// writer's internal storage; callers that want to keep mutating the
// writer afterward should copy it.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Tag appends a field tag for the given field number and wire type.
func (w *Writer) Tag(field, wireType int) {
	w.buf = AppendUvarint(w.buf, MakeTag(field, wireType))
}

// Uvarint appends a tagged unsigned varint field.
func (w *Writer) Uvarint(field int, v uint64) {
	w.Tag(field, WireVarint)
	w.buf = AppendUvarint(w.buf, v)
}

// Varint appends a tagged zig-zag signed varint field.
func (w *Writer) Varint(field int, v int64) {
	w.Tag(field, WireVarint)
	w.buf = AppendVarint(w.buf, v)
}

// Bool appends a tagged boolean field.
func (w *Writer) Bool(field int, v bool) {
	n := uint64(0)
	if v {
		n = 1
	}
	w.Uvarint(field, n)
}

// Fixed64 appends a tagged little-endian 64-bit field.
func (w *Writer) Fixed64(field int, v uint64) {
	w.Tag(field, WireFixed64)
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// Double appends a tagged IEEE-754 double field.
func (w *Writer) Double(field int, v float64) {
	w.Fixed64(field, math.Float64bits(v))
}

// Fixed32 appends a tagged little-endian 32-bit field.
func (w *Writer) Fixed32(field int, v uint32) {
	w.Tag(field, WireFixed32)
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// Float appends a tagged IEEE-754 float field.
func (w *Writer) Float(field int, v float32) {
	w.Fixed32(field, math.Float32bits(v))
}

// BytesField appends a tagged length-delimited field copied from b.
func (w *Writer) BytesField(field int, b []byte) {
	w.Tag(field, WireBytes)
	w.buf = AppendUvarint(w.buf, uint64(len(b)))
	w.buf = append(w.buf, b...)
}

// String appends a tagged length-delimited string field.
func (w *Writer) String(field int, s string) {
	w.Tag(field, WireBytes)
	w.buf = AppendUvarint(w.buf, uint64(len(s)))
	w.buf = append(w.buf, s...)
}

// RawUvarint appends an untagged base-128 varint directly to the
// buffer, used to build a flat packed sequence (MVT's geometry command
// stream and feature tag list) that itself becomes the body of a single
// tagged bytes field via BytesField.
func (w *Writer) RawUvarint(n uint64) {
	w.buf = AppendUvarint(w.buf, n)
}

// AppendRawMessage splices an already-encoded submessage body (exactly as
// produced by a prior Writer, without tag or length prefix) onto this
// writer as field, writing the tag and length prefix itself and copying
// the body without re-parsing it. This is the byte-splice fast path
// used by the composite engine to copy a whole foreign layer verbatim.
func (w *Writer) AppendRawMessage(field int, body []byte) {
	w.Tag(field, WireBytes)
	w.buf = AppendUvarint(w.buf, uint64(len(body)))
	w.buf = append(w.buf, body...)
}

// AppendRaw appends already-framed bytes verbatim (tag, length prefix and
// body all included), used when splicing bytes captured with
// BeginMessage/EndMessage from another writer's output.
func (w *Writer) AppendRaw(framed []byte) {
	w.buf = append(w.buf, framed...)
}

// MessageMark is the token BeginMessage returns, to pass to EndMessage
// once the nested body has been written directly onto this writer.
type MessageMark struct {
	field     int
	headerPos int
}

// BeginMessage appends only the field tag; the caller then writes the
// nested body directly via further calls on w, and finally calls
// EndMessage to retroactively insert the correct length prefix.
func (w *Writer) BeginMessage(field int) MessageMark {
	w.Tag(field, WireBytes)
	mark := MessageMark{field: field, headerPos: len(w.buf)}
	return mark
}

// EndMessage finalizes a message started with BeginMessage by inserting
// the length prefix of everything written since.
func (w *Writer) EndMessage(mark MessageMark) {
	bodyLen := len(w.buf) - mark.headerPos
	prefix := AppendUvarint(nil, uint64(bodyLen))
	w.buf = append(w.buf[:mark.headerPos], append(prefix, w.buf[mark.headerPos:]...)...)
}
