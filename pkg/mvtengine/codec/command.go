// Package codec implements the MVT layer/feature wire encoding: the
// command-stream geometry format, key/value dictionary interning, and
// raster feature passthrough. It is hand-built rather than wrapped
// around a third-party MVT decoding library because the byte-exact
// command stream and dictionary layout are this engine's core
// deliverable, and a pre-built decoder would hide exactly the layer
// byte ranges the composite splice path needs; it builds on the
// low-level varint helpers in pkg/mvtengine/pbf instead.
package codec

import "mvtengine/pkg/mvtengine/errs"

// Command identifies a geometry command stream opcode.
type Command uint32

const (
	CmdMoveTo    Command = 1
	CmdLineTo    Command = 2
	CmdClosePath Command = 7
)

// commandInteger packs a command id and repeat count into one header
// value per the MVT command-stream encoding: (id:3, count:29).
func commandInteger(id Command, count uint32) uint32 {
	return (uint32(id) & 0x7) | (count << 3)
}

// decodeCommandInteger splits a packed command header back into its id
// and repeat count.
func decodeCommandInteger(v uint32) (Command, uint32) {
	return Command(v & 0x7), v >> 3
}

// point is an integer tile-local coordinate pair, used while building or
// walking a command stream before/after zig-zag delta coding.
type point struct{ x, y int32 }

// commandWriter accumulates a geometry command stream, tracking the
// running pen position so every MoveTo/LineTo parameter pair is emitted
// as a delta from wherever the pen last was.
type commandWriter struct {
	ints []uint32
	pen  point
}

func (c *commandWriter) moveTo(pts ...point) {
	c.ints = append(c.ints, commandInteger(CmdMoveTo, uint32(len(pts))))
	for _, p := range pts {
		c.emitDelta(p)
	}
}

func (c *commandWriter) lineTo(pts ...point) {
	c.ints = append(c.ints, commandInteger(CmdLineTo, uint32(len(pts))))
	for _, p := range pts {
		c.emitDelta(p)
	}
}

func (c *commandWriter) closePath() {
	c.ints = append(c.ints, commandInteger(CmdClosePath, 1))
}

func (c *commandWriter) emitDelta(p point) {
	dx := p.x - c.pen.x
	dy := p.y - c.pen.y
	c.ints = append(c.ints, zigzag32(dx), zigzag32(dy))
	c.pen = p
}

func zigzag32(v int32) uint32 {
	return uint32((v << 1) ^ (v >> 31))
}

func unzigzag32(v uint32) int32 {
	return int32(v>>1) ^ -int32(v&1)
}

// commandReader walks a decoded command stream, maintaining the running
// pen position the same way commandWriter does in reverse.
type commandReader struct {
	ints []uint32
	pos  int
	pen  point
}

func newCommandReader(ints []uint32) *commandReader {
	return &commandReader{ints: ints}
}

// next reads the next command header, returning ok=false at end of
// stream.
func (c *commandReader) next() (cmd Command, count uint32, ok bool) {
	if c.pos >= len(c.ints) {
		return 0, 0, false
	}
	cmd, count = decodeCommandInteger(c.ints[c.pos])
	c.pos++
	return cmd, count, true
}

// param reads the next delta-coded parameter pair, advancing the pen.
func (c *commandReader) param() (point, error) {
	if c.pos+1 >= len(c.ints) {
		return point{}, errs.New(errs.CorruptInput, "truncated geometry command parameter")
	}
	dx := unzigzag32(c.ints[c.pos])
	dy := unzigzag32(c.ints[c.pos+1])
	c.pos += 2
	c.pen.x += dx
	c.pen.y += dy
	return c.pen, nil
}
