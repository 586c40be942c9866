package radar

import (
	"context"
	"io"
	"os"
)

// DefaultPumpChunk is the read size of a Pump.
const DefaultPumpChunk = 256

// Pump reads from the device and feeds a Session.
type Pump struct {
	Reader  io.Reader
	Session *Session
	// ReadTimeout is set when Reader returns periodically with no data
	// (e.g. a serial port with a read timeout), so Run can poll ctx
	// without a separate reading goroutine.
	ReadTimeout bool
	ChunkSize   int
}

// NewPump creates a Pump.
func NewPump(r io.Reader, s *Session) *Pump {
	return &Pump{Reader: r, Session: s, ChunkSize: DefaultPumpChunk}
}

func (p *Pump) chunkSize() int {
	if p.ChunkSize > 0 {
		return p.ChunkSize
	}
	return DefaultPumpChunk
}

// Run feeds the session until ctx is done or the reader fails.
func (p *Pump) Run(ctx context.Context) error {
	if p.ReadTimeout {
		buf := make([]byte, p.chunkSize())
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				n, err := p.Reader.Read(buf)
				if n > 0 {
					p.Session.Feed(buf[:n])
				}
				if err != nil && !os.IsTimeout(err) {
					return err
				}
			}
		}
	}

	dataCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go p.readLoop(subCtx, dataCh, errCh)
	for {
		select {
		case data := <-dataCh:
			p.Session.Feed(data)
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Pump) readLoop(ctx context.Context, dataCh chan []byte, errCh chan error) {
	for {
		buf := make([]byte, p.chunkSize())
		n, err := p.Reader.Read(buf)
		if n > 0 {
			select {
			case dataCh <- buf[:n]:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}
