package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/radariq.go/pkg/capture"
	"github.com/robotalks/radariq.go/pkg/comm"
	"github.com/robotalks/radariq.go/pkg/msgs"
	"github.com/robotalks/radariq.go/pkg/radar"
)

type deviceTestCtx struct {
	t   *testing.T
	dev *Device
}

func newDeviceTestCtx(t *testing.T) *deviceTestCtx {
	return &deviceTestCtx{t: t, dev: New()}
}

func (c *deviceTestCtx) send(req msgs.Request) *deviceTestCtx {
	f, err := msgs.NewFrame(req)
	require.NoError(c.t, err)
	_, err = c.dev.Write(comm.Encode(f))
	require.NoError(c.t, err)
	return c
}

func (c *deviceTestCtx) sendRaw(cmd msgs.Command, v comm.Variant, payload ...byte) *deviceTestCtx {
	_, err := c.dev.Write(comm.Encode(comm.Frame{Command: cmd.Byte(), Variant: v, Payload: payload}))
	require.NoError(c.t, err)
	return c
}

// responses drains the output and decodes every frame.
func (c *deviceTestCtx) responses() (resps []msgs.Response) {
	c.dev.lock.Lock()
	raw := append([]byte(nil), c.dev.out.Bytes()...)
	c.dev.out.Reset()
	c.dev.lock.Unlock()
	var parser comm.Parser
	for _, pr := range parser.Feed(raw) {
		require.NoError(c.t, pr.Err)
		resp, err := msgs.Decode(*pr.Frame)
		require.NoError(c.t, err)
		resps = append(resps, resp)
	}
	return
}

func (c *deviceTestCtx) response() msgs.Response {
	resps := c.responses()
	require.Len(c.t, resps, 1)
	return resps[0]
}

func TestDeviceQueries(t *testing.T) {
	tc := newDeviceTestCtx(t)
	require.Equal(t, uint8(5), tc.send(msgs.Get{Cmd: msgs.CmdFrameRate}).response().(msgs.FrameRate).Rate)

	v := tc.send(msgs.Get{Cmd: msgs.CmdVersion}).response().(msgs.Version)
	require.Equal(t, tc.dev.Firmware, v.Firmware)
	require.Equal(t, tc.dev.Hardware, v.Hardware)

	iwr := tc.send(msgs.Get{Cmd: msgs.CmdIWRVersion}).response().(msgs.IWRVersions)
	require.Equal(t, tc.dev.SBL, iwr.SBL)
	require.Equal(t, tc.dev.App1, iwr.App1)
	require.Equal(t, tc.dev.App2, iwr.App2)

	sn := tc.send(msgs.Get{Cmd: msgs.CmdSerial}).response().(msgs.SerialNumber)
	require.Equal(t, tc.dev.Serial[0], sn.A)
	require.Equal(t, tc.dev.Serial[1], sn.B)

	hf := tc.send(msgs.Get{Cmd: msgs.CmdHeightFilter}).response().(msgs.HeightFilter)
	require.Equal(t, int16(-5000), hf.Min)
	require.Equal(t, int16(5000), hf.Max)
}

func TestDeviceSettings(t *testing.T) {
	testCases := []struct {
		name   string
		req    msgs.Request
		verify func(*testing.T, Settings)
	}{
		{"frame rate", msgs.SetFrameRate{Rate: 20}, func(t *testing.T, s Settings) { require.Equal(t, uint8(20), s.FrameRate) }},
		{"mode", msgs.SetMode{Mode: msgs.ModeObjectTracking}, func(t *testing.T, s Settings) { require.Equal(t, msgs.ModeObjectTracking, s.Mode) }},
		{"distance", msgs.SetDistanceFilter{Min: 100, Max: 4000}, func(t *testing.T, s Settings) {
			require.Equal(t, uint16(100), s.DistanceMin)
			require.Equal(t, uint16(4000), s.DistanceMax)
		}},
		{"angle", msgs.SetAngleFilter{Min: -20, Max: 30}, func(t *testing.T, s Settings) {
			require.Equal(t, int8(-20), s.AngleMin)
			require.Equal(t, int8(30), s.AngleMax)
		}},
		{"height", msgs.SetHeightFilter{Min: -300, Max: 1200}, func(t *testing.T, s Settings) {
			require.Equal(t, int16(-300), s.HeightMin)
			require.Equal(t, int16(1200), s.HeightMax)
		}},
		{"moving", msgs.SetMovingFilter{Mode: msgs.MovingObjectsOnly}, func(t *testing.T, s Settings) { require.Equal(t, msgs.MovingObjectsOnly, s.MovingFilter) }},
		{"density", msgs.SetPointDensity{Density: msgs.DensityVeryDense}, func(t *testing.T, s Settings) { require.Equal(t, msgs.DensityVeryDense, s.PointDensity) }},
		{"certainty", msgs.SetCertainty{Level: 9}, func(t *testing.T, s Settings) { require.Equal(t, uint8(9), s.Certainty) }},
		{"object size", msgs.SetObjectSize{Size: 3}, func(t *testing.T, s Settings) { require.Equal(t, uint8(3), s.ObjectSize) }},
	}
	for _, c := range testCases {
		t.Run(c.name, func(t *testing.T) {
			tc := newDeviceTestCtx(t)
			resp := tc.send(c.req).response()
			require.Equal(t, c.req.Command(), msgs.HeaderOf(resp).Command)
			c.verify(t, tc.dev.Settings())

			// the reply carries the stored value, as a getter would
			got := tc.send(msgs.Get{Cmd: c.req.Command()}).response()
			require.Equal(t, resp, got)
		})
	}
}

func TestDeviceRejectsInvalidSetting(t *testing.T) {
	tc := newDeviceTestCtx(t)
	tc.sendRaw(msgs.CmdAngleFilter, comm.VariantSet, 0x9c, 0x10) // -100..16
	msg := tc.response().(msgs.DeviceMessage)
	require.Equal(t, msgs.MessageError, msg.Type)
	require.Equal(t, msgs.CodeInvalidValue, msg.Code)
	require.Equal(t, DefaultSettings(), tc.dev.Settings())

	tc.sendRaw(msgs.CmdFrameRate, comm.VariantSet)
	require.Equal(t, msgs.CodeInvalidValue, tc.response().(msgs.DeviceMessage).Code)

	tc.sendRaw(0x30, comm.VariantRequest)
	require.Equal(t, msgs.CodeInvalidCommand, tc.response().(msgs.DeviceMessage).Code)
}

func TestDeviceSaveReset(t *testing.T) {
	tc := newDeviceTestCtx(t)
	tc.send(msgs.SetFrameRate{Rate: 10}).responses()
	require.Equal(t, msgs.ReturnOK, tc.send(msgs.Save{}).response().(msgs.Ack).Return)
	tc.send(msgs.SetFrameRate{Rate: 12}).responses()

	tc.send(msgs.Reset{Code: msgs.ResetReboot}).responses()
	require.Equal(t, uint8(10), tc.dev.Settings().FrameRate)

	tc.send(msgs.Reset{Code: msgs.ResetFactory}).responses()
	require.Equal(t, DefaultSettings(), tc.dev.Settings())
}

func TestDeviceCapturePointCloud(t *testing.T) {
	tc := newDeviceTestCtx(t)
	tc.dev.SubframePoints = 3
	tc.dev.Stats = true
	tc.send(msgs.CaptureStart{NumFrames: 2})
	require.Empty(t, tc.responses())
	require.True(t, tc.dev.Capturing())

	for frame := 0; frame < 2; frame++ {
		tc.dev.Tick(0)
		asm := capture.New[msgs.Point](msgs.DefaultMaxPoints)
		var (
			result capture.Result[msgs.Point]
			stats  int
		)
		for _, resp := range tc.responses() {
			switch r := resp.(type) {
			case msgs.PointCloudFragment:
				require.False(t, result.Complete)
				var err error
				result, err = asm.Add(r.Subframe, r.Points)
				require.NoError(t, err)
			case msgs.ProcessingStats, msgs.PointCloudStats:
				stats++
			}
		}
		require.True(t, result.Complete)
		st := tc.dev.Settings()
		expected, _ := tc.dev.Scene.Points(&st, msgs.DefaultMaxPoints)
		require.Equal(t, expected, result.Frame)
		require.Equal(t, 2, stats)
	}
	require.False(t, tc.dev.Capturing())
	require.Equal(t, uint64(2), tc.dev.Frames())

	tc.dev.Tick(0)
	require.Empty(t, tc.responses())
}

func TestDeviceCaptureStop(t *testing.T) {
	tc := newDeviceTestCtx(t)
	tc.send(msgs.SetMode{Mode: msgs.ModeRawData}).responses()
	tc.send(msgs.CaptureStart{})
	tc.dev.Tick(0)
	raw := tc.response().(msgs.RawData)
	require.Len(t, raw.Data, rawFrameSize)
	tc.send(msgs.CaptureStop{})
	require.False(t, tc.dev.Capturing())
}

func TestFragments(t *testing.T) {
	put := func(b []byte, v byte) []byte { return append(b, v) }
	testCases := []struct {
		name    string
		records []byte
		per     int
		expect  [][]byte
	}{
		{"empty", nil, 2, [][]byte{{0, 0}, {2, 0}}},
		{"single", []byte{7}, 2, [][]byte{{0, 1, 7}, {2, 0}}},
		{"exact", []byte{1, 2, 3, 4}, 2, [][]byte{{0, 2, 1, 2}, {2, 2, 3, 4}}},
		{"middle", []byte{1, 2, 3, 4, 5}, 2, [][]byte{{0, 2, 1, 2}, {1, 2, 3, 4}, {2, 1, 5}}},
		{"unlimited", []byte{1, 2, 3}, 0, [][]byte{{0, 3, 1, 2, 3}, {2, 0}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, fragments(tc.records, tc.per, put))
		})
	}
}

func TestSessionWithDevice(t *testing.T) {
	dev := New()
	dev.SubframeObjects = 1
	dataCh := make(chan radar.CaptureDataReady, 4)
	s := radar.NewSession(dev, radar.WithEventHandler(radar.HandleEventFunc(func(ev radar.Event) {
		if data, ok := ev.(radar.CaptureDataReady); ok {
			dataCh <- data
		}
	})))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go radar.NewPump(dev, s).Run(ctx)
	defer dev.Close()

	rate, err := s.GetFrameRate(ctx)
	require.NoError(t, err)
	require.Equal(t, uint8(5), rate)

	p, err := s.SetMode(msgs.ModeObjectTracking)
	require.NoError(t, err)
	_, err = p.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, msgs.ModeObjectTracking, s.Config().Mode)

	require.NoError(t, s.StartCapture(1))
	dev.Tick(100 * time.Millisecond)
	select {
	case data := <-dataCh:
		require.Equal(t, msgs.ModeObjectTracking, data.Mode)
		require.Len(t, data.Objects, len(dev.Scene.Targets))
		require.Equal(t, uint8(1), data.Objects[0].TargetID)
	case <-ctx.Done():
		require.Fail(t, "no capture data")
	}
	require.Eventually(t, func() bool { return s.State() == radar.StateIdle }, time.Second, 10*time.Millisecond)
}

func TestDevicePowerStatus(t *testing.T) {
	dev := New()
	var power []radar.PowerStatusChanged
	s := radar.NewSession(dev, radar.WithEventHandler(radar.HandleEventFunc(func(ev radar.Event) {
		if e, ok := ev.(radar.PowerStatusChanged); ok {
			power = append(power, e)
		}
	})))
	drain := func() {
		buf := make([]byte, 64)
		n, err := dev.Read(buf)
		require.NoError(t, err)
		s.Feed(buf[:n])
	}

	testCases := []struct {
		name string
		good bool
	}{
		{"good", true},
		{"bad", false},
		{"recovered", true},
	}
	for n, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dev.SetPowerGood(tc.good)
			drain()
			require.Len(t, power, n+1)
			require.Equal(t, tc.good, power[n].Good)
			good, err := s.PowerGood()
			require.NoError(t, err)
			require.Equal(t, tc.good, good)
		})
	}
}
