package pbf

import "testing"

func TestZigZagRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 2, -2, 1000000, -1000000, math_MinInt32, math_MaxInt32}
	for _, v := range cases {
		got := ZigZagDecode(ZigZagEncode(v))
		if got != v {
			t.Errorf("ZigZag round-trip failed for %d, got %d", v, got)
		}
	}
}

const (
	math_MinInt32 = -1 << 31
	math_MaxInt32 = 1<<31 - 1
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter()
	w.String(1, "hello")
	w.Varint(2, -42)
	w.Uvarint(3, 7)
	w.Bool(4, true)
	w.Double(5, 3.5)
	w.Float(6, 1.5)
	w.BytesField(7, []byte{1, 2, 3})

	r := NewReader(w.Bytes())
	var gotName string
	var gotVarint int64
	var gotUvarint uint64
	var gotBool bool
	var gotDouble float64
	var gotFloat float32
	var gotBytes []byte

	for r.Next() {
		switch r.Tag() {
		case 1:
			gotName = r.String()
		case 2:
			gotVarint = r.Varint()
		case 3:
			gotUvarint = r.Uvarint()
		case 4:
			gotBool = r.Bool()
		case 5:
			gotDouble = r.Double()
		case 6:
			gotFloat = r.Float()
		case 7:
			gotBytes = r.Bytes()
		default:
			r.Skip()
		}
	}
	if r.Err() != nil {
		t.Fatalf("unexpected error: %v", r.Err())
	}
	if gotName != "hello" || gotVarint != -42 || gotUvarint != 7 || !gotBool ||
		gotDouble != 3.5 || gotFloat != 1.5 || string(gotBytes) != "\x01\x02\x03" {
		t.Errorf("round-trip mismatch: %q %d %d %v %f %f %v",
			gotName, gotVarint, gotUvarint, gotBool, gotDouble, gotFloat, gotBytes)
	}
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{0x08}) // varint tag with no value
	if r.Next() {
		r.Uvarint()
	}
	if r.Err() == nil {
		t.Error("expected CorruptInput on truncated varint")
	}
}

func TestReaderOversizedLength(t *testing.T) {
	buf := AppendUvarint(nil, MakeTag(1, WireBytes))
	buf = AppendUvarint(buf, 1000) // claims 1000 bytes, none present
	r := NewReader(buf)
	if r.Next() {
		r.Bytes()
	}
	if r.Err() == nil {
		t.Error("expected CorruptInput on oversized length prefix")
	}
}

func TestReaderTagWireMismatch(t *testing.T) {
	w := NewWriter()
	w.String(1, "x")
	r := NewReader(w.Bytes())
	if r.Next() {
		r.Uvarint() // wrong accessor for a bytes field
	}
	if r.Err() == nil {
		t.Error("expected CorruptInput on tag/wire-type mismatch")
	}
}

func TestAppendRawMessageSplice(t *testing.T) {
	inner := NewWriter()
	inner.String(1, "layer-a")
	layerBody := inner.Bytes()

	outer := NewWriter()
	outer.AppendRawMessage(3, layerBody)

	r := NewReader(outer.Bytes())
	if !r.Next() || r.Tag() != 3 {
		t.Fatalf("expected field 3")
	}
	nested := r.Message()
	if !nested.Next() || nested.Tag() != 1 {
		t.Fatalf("expected nested field 1")
	}
	if got := nested.String(); got != "layer-a" {
		t.Errorf("got %q", got)
	}
}

func TestBeginEndMessage(t *testing.T) {
	w := NewWriter()
	mark := w.BeginMessage(2)
	w.String(1, "nested")
	w.EndMessage(mark)

	r := NewReader(w.Bytes())
	if !r.Next() || r.Tag() != 2 {
		t.Fatalf("expected field 2")
	}
	nested := r.Message()
	if !nested.Next() || nested.String() != "nested" {
		t.Fatalf("nested message not decoded correctly")
	}
}
