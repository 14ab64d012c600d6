// Package compress detects and handles the gzip/zlib framing a tile may
// arrive wrapped in. No third-party compression library is wired into
// this module, so this stays on the standard library's compress/gzip
// and compress/flate.
package compress

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"io"

	"mvtengine/pkg/mvtengine/errs"
)

// Framing identifies how a byte buffer is wrapped.
type Framing int

const (
	FramingNone Framing = iota
	FramingGzip
	FramingZlib
)

// Strategy mirrors the standard zlib deflate strategies.
type Strategy int

const (
	StrategyDefault Strategy = iota
	StrategyFiltered
	StrategyHuffmanOnly
	StrategyRLE
	StrategyFixed
)

// Options configures Deflate output compression.
type Options struct {
	Level    int
	Strategy Strategy
}

// DetectFraming inspects the magic bytes at the start of data to
// determine whether it is gzip-framed, zlib-framed, or raw.
func DetectFraming(data []byte) Framing {
	switch {
	case len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b:
		return FramingGzip
	case len(data) >= 2 && data[0]&0x0f == 0x08 && (uint16(data[0])<<8+uint16(data[1]))%31 == 0:
		return FramingZlib
	default:
		return FramingNone
	}
}

// Inflate decompresses data if it is gzip- or zlib-framed, returning it
// unchanged if it is already raw.
func Inflate(data []byte) ([]byte, error) {
	switch DetectFraming(data) {
	case FramingGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errs.Wrap(errs.CorruptInput, "invalid gzip framing", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, errs.Wrap(errs.CorruptInput, "gzip decompression failed", err)
		}
		return out, nil
	case FramingZlib:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errs.Wrap(errs.CorruptInput, "invalid zlib framing", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, errs.Wrap(errs.CorruptInput, "zlib decompression failed", err)
		}
		return out, nil
	default:
		return data, nil
	}
}

// DeflateGzip compresses data into gzip framing using opts.
func DeflateGzip(data []byte, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, clampLevel(opts.Level))
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "invalid gzip level", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, errs.Wrap(errs.IoError, "gzip write failed", err)
	}
	if err := w.Close(); err != nil {
		return nil, errs.Wrap(errs.IoError, "gzip close failed", err)
	}
	return buf.Bytes(), nil
}

// DeflateZlib compresses data into zlib framing at the requested level.
// The standard library's zlib writer has no public strategy knob beyond
// level, so Strategy is accepted for API symmetry with the {level,
// strategy} option pair but does not otherwise affect output.
func DeflateZlib(data []byte, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, clampLevel(opts.Level))
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "invalid zlib level", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, errs.Wrap(errs.IoError, "zlib write failed", err)
	}
	if err := w.Close(); err != nil {
		return nil, errs.Wrap(errs.IoError, "zlib close failed", err)
	}
	return buf.Bytes(), nil
}

func clampLevel(level int) int {
	if level < 0 || level > 9 {
		return flate.DefaultCompression
	}
	return level
}
