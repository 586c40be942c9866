package comm

import (
	"fmt"
	"io"
)

// Control bytes.
const (
	HeadByte byte = 0xb0
	FootByte byte = 0xb1
	EscByte  byte = 0xb2

	// DefaultEscapeXOR is the transform applied to an escaped byte.
	DefaultEscapeXOR byte = 0x04
)

// Variant tags the direction/intent of a command.
type Variant byte

// Variants.
const (
	VariantRequest  Variant = 0
	VariantResponse Variant = 1
	VariantSet      Variant = 2
)

func (v Variant) String() string {
	switch v {
	case VariantRequest:
		return "REQUEST"
	case VariantResponse:
		return "RESPONSE"
	case VariantSet:
		return "SET"
	}
	return fmt.Sprintf("VARIANT(%d)", byte(v))
}

// Frame is one decoded wire unit.
type Frame struct {
	Command byte
	Variant Variant
	Payload []byte
}

func (f Frame) String() string {
	return fmt.Sprintf("cmd=0x%02x %s len=%d", f.Command, f.Variant, len(f.Payload))
}

// Body returns the unescaped bytes covered by the checksum.
func (f Frame) Body() []byte {
	b := make([]byte, len(f.Payload)+2)
	b[0], b[1] = f.Command, byte(f.Variant)
	copy(b[2:], f.Payload)
	return b
}

// Codec encodes and decodes frames. The zero value uses CRC16 and
// DefaultEscapeXOR.
type Codec struct {
	Checksum  Checksum
	EscapeXOR byte
}

// NewCodec creates a Codec.
func NewCodec(sum Checksum, escapeXOR byte) *Codec {
	return &Codec{Checksum: sum, EscapeXOR: escapeXOR}
}

func (c *Codec) checksum() Checksum {
	if c == nil || c.Checksum == nil {
		return CRC16{}
	}
	return c.Checksum
}

func (c *Codec) escapeXOR() byte {
	if c == nil || c.EscapeXOR == 0 {
		return DefaultEscapeXOR
	}
	return c.EscapeXOR
}

func isControl(b byte) bool {
	return b == HeadByte || b == FootByte || b == EscByte
}

func (c *Codec) escape(dst []byte, b byte) []byte {
	if isControl(b) {
		return append(dst, EscByte, b^c.escapeXOR())
	}
	return append(dst, b)
}

// Encode encodes a frame into wire bytes.
func (c *Codec) Encode(f Frame) []byte {
	sum := c.checksum()
	body := putChecksum(f.Body(), sum.Size(), sum.Sum(f.Body()))
	out := make([]byte, 0, len(body)*2+2)
	out = append(out, HeadByte)
	for _, b := range body {
		out = c.escape(out, b)
	}
	return append(out, FootByte)
}

// WriteFrame encodes and writes a frame in a single Write.
func (c *Codec) WriteFrame(w io.Writer, f Frame) (int, error) {
	return w.Write(c.Encode(f))
}

// Decode decodes wire bytes of a single frame. The leading HEAD byte is
// optional, the trailing FOOT byte is required.
func (c *Codec) Decode(raw []byte) (Frame, error) {
	if len(raw) > 0 && raw[0] == HeadByte {
		raw = raw[1:]
	}
	if len(raw) == 0 || raw[len(raw)-1] != FootByte {
		return Frame{}, malformed("missing footer")
	}
	raw = raw[:len(raw)-1]
	body := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		switch b := raw[i]; b {
		case HeadByte:
			return Frame{}, malformed("unexpected header")
		case FootByte:
			return Frame{}, malformed("unexpected footer")
		case EscByte:
			if i++; i >= len(raw) {
				return Frame{}, malformed("dangling escape")
			}
			body = append(body, raw[i]^c.escapeXOR())
		default:
			body = append(body, b)
		}
	}
	return c.Unpack(body)
}

// Unpack validates an unescaped frame body (command, variant, payload
// and checksum) and extracts the frame.
func (c *Codec) Unpack(body []byte) (Frame, error) {
	sum := c.checksum()
	n := len(body) - sum.Size()
	if n < 2 {
		return Frame{}, malformed(fmt.Sprintf("frame too short: %d bytes", len(body)))
	}
	expected, actual := sum.Sum(body[:n]), readChecksum(body[n:])
	if expected != actual {
		return Frame{}, &ChecksumError{Expected: expected, Actual: actual}
	}
	f := Frame{Command: body[0], Variant: Variant(body[1])}
	if n > 2 {
		f.Payload = make([]byte, n-2)
		copy(f.Payload, body[2:n])
	}
	return f, nil
}

var defaultCodec Codec

// Encode encodes a frame using the default codec.
func Encode(f Frame) []byte {
	return defaultCodec.Encode(f)
}

// Decode decodes a frame using the default codec.
func Decode(raw []byte) (Frame, error) {
	return defaultCodec.Decode(raw)
}
