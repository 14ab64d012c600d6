package compress

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"testing"

	"mvtengine/pkg/mvtengine/errs"
)

func TestDetectFraming(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	gw.Write([]byte("hello"))
	gw.Close()

	var zl bytes.Buffer
	zw := zlib.NewWriter(&zl)
	zw.Write([]byte("hello"))
	zw.Close()

	if got := DetectFraming(gz.Bytes()); got != FramingGzip {
		t.Errorf("want FramingGzip, got %v", got)
	}
	if got := DetectFraming(zl.Bytes()); got != FramingZlib {
		t.Errorf("want FramingZlib, got %v", got)
	}
	if got := DetectFraming([]byte("plain bytes")); got != FramingNone {
		t.Errorf("want FramingNone, got %v", got)
	}
}

func TestInflateRoundTripGzip(t *testing.T) {
	original := []byte("a tile layer body with some repeated repeated repeated bytes")
	packed, err := DeflateGzip(original, Options{Level: 6})
	if err != nil {
		t.Fatalf("DeflateGzip: %v", err)
	}
	if DetectFraming(packed) != FramingGzip {
		t.Fatalf("expected gzip framing")
	}
	out, err := Inflate(packed)
	if err != nil {
		t.Fatalf("Inflate: %v", err)
	}
	if !bytes.Equal(out, original) {
		t.Errorf("round trip mismatch: got %q", out)
	}
}

func TestInflateRoundTripZlib(t *testing.T) {
	original := []byte("another tile layer body for zlib framing")
	packed, err := DeflateZlib(original, Options{Level: 9})
	if err != nil {
		t.Fatalf("DeflateZlib: %v", err)
	}
	if DetectFraming(packed) != FramingZlib {
		t.Fatalf("expected zlib framing")
	}
	out, err := Inflate(packed)
	if err != nil {
		t.Fatalf("Inflate: %v", err)
	}
	if !bytes.Equal(out, original) {
		t.Errorf("round trip mismatch: got %q", out)
	}
}

func TestInflatePassthroughRaw(t *testing.T) {
	original := []byte("raw unframed tile bytes")
	out, err := Inflate(original)
	if err != nil {
		t.Fatalf("Inflate: %v", err)
	}
	if !bytes.Equal(out, original) {
		t.Errorf("expected passthrough, got %q", out)
	}
}

func TestInflateCorruptGzipFraming(t *testing.T) {
	corrupt := []byte{0x1f, 0x8b, 0x00, 0x00}
	_, err := Inflate(corrupt)
	if err == nil {
		t.Fatal("expected error on corrupt gzip framing")
	}
	if !errs.Of(err, errs.CorruptInput) {
		t.Errorf("expected CorruptInput kind, got %v", err)
	}
}
