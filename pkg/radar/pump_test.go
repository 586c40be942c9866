package radar

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/radariq.go/pkg/comm"
	"github.com/robotalks/radariq.go/pkg/msgs"
)

// echoDevice answers every REQUEST with a fixed frame rate.
type echoDevice struct {
	t      *testing.T
	parser comm.Parser
	out    *io.PipeWriter
}

func (d *echoDevice) Write(p []byte) (int, error) {
	for _, pr := range d.parser.Feed(p) {
		require.NoError(d.t, pr.Err)
		if pr.Frame.Variant != comm.VariantRequest {
			continue
		}
		resp := reply(msgs.CmdFrameRate, 12)
		go d.out.Write(resp)
	}
	return len(p), nil
}

func TestPump(t *testing.T) {
	pr, pw := io.Pipe()
	dev := &echoDevice{t: t, out: pw}
	s := NewSession(dev)
	pump := NewPump(pr, s)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- pump.Run(ctx) }()

	getCtx, getCancel := context.WithTimeout(ctx, time.Second)
	defer getCancel()
	rate, err := s.GetFrameRate(getCtx)
	require.NoError(t, err)
	require.Equal(t, uint8(12), rate)
	require.Equal(t, uint8(12), s.Config().FrameRate)

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
	pw.Close()
}

func TestPumpReaderError(t *testing.T) {
	pr, pw := io.Pipe()
	s := NewSession(io.Discard)
	pump := NewPump(pr, s)
	errCh := make(chan error, 1)
	go func() { errCh <- pump.Run(context.Background()) }()

	pw.Write(reply(msgs.CmdPowerStatus, 0))
	pw.CloseWithError(io.ErrUnexpectedEOF)
	require.ErrorIs(t, <-errCh, io.ErrUnexpectedEOF)
	good, err := s.PowerGood()
	require.NoError(t, err)
	require.True(t, good)
}
