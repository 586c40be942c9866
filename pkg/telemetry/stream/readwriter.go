// Package stream records telemetry packets to a byte stream.
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
)

// MaxPacketSize bounds the length prefix accepted by ReadPacket.
const MaxPacketSize = 1 << 20

// ErrPacketTooLarge indicates a corrupt or foreign length prefix.
var ErrPacketTooLarge = errors.New("packet too large")

// Writer writes packets each prefixed by its 4-byte little-endian length.
type Writer struct {
	w    io.Writer
	lock sync.Mutex
}

// NewWriter creates a Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WritePacket implements telemetry.PacketWriter.
func (p *Writer) WritePacket(pkt []byte) error {
	buf := make([]byte, 4+len(pkt))
	binary.LittleEndian.PutUint32(buf, uint32(len(pkt)))
	copy(buf[4:], pkt)
	p.lock.Lock()
	defer p.lock.Unlock()
	_, err := p.w.Write(buf)
	return err
}

// Reader reads packets written by Writer.
type Reader struct {
	r io.Reader
}

// NewReader creates a Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadPacket implements telemetry.PacketReader. It returns io.EOF at the
// end of a complete stream.
func (p *Reader) ReadPacket() ([]byte, error) {
	var size uint32
	if err := binary.Read(p.r, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > MaxPacketSize {
		return nil, fmt.Errorf("%d bytes: %w", size, ErrPacketTooLarge)
	}
	pkt := make([]byte, size)
	if _, err := io.ReadFull(p.r, pkt); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return pkt, nil
}
