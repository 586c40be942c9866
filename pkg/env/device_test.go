package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/radariq.go/pkg/msgs"
	"github.com/robotalks/radariq.go/pkg/radar"
)

func TestSimDevice(t *testing.T) {
	conf := NewConfig()
	conf.Port = SimPort
	conf.Capture = CaptureConfig{Mode: msgs.ModeObjectTracking, Enabled: true, NumFrames: 1}
	dataCh := make(chan radar.CaptureDataReady, 1)
	d, err := conf.OpenSession(radar.WithEventHandler(radar.HandleEventFunc(func(ev radar.Event) {
		if data, ok := ev.(radar.CaptureDataReady); ok {
			select {
			case dataCh <- data:
			default:
			}
		}
	})))
	require.NoError(t, err)
	require.NotNil(t, d.Sim)
	require.False(t, d.Pump.ReadTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()

	info, err := d.Probe(ctx)
	require.NoError(t, err)
	require.Equal(t, d.Sim.Firmware.String(), info.Firmware)
	require.Equal(t, "52494100-00000042", info.Serial)

	require.NoError(t, d.Configure(ctx))
	select {
	case data := <-dataCh:
		require.Equal(t, msgs.ModeObjectTracking, data.Mode)
	case <-time.After(3 * time.Second):
		require.Fail(t, "no capture data")
	}

	cancel()
	require.NoError(t, <-errCh)
}
