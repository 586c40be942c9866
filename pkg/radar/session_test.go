package radar

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/radariq.go/pkg/comm"
	"github.com/robotalks/radariq.go/pkg/msgs"
)

func wire(cmd msgs.Command, v comm.Variant, payload ...byte) []byte {
	return comm.Encode(comm.Frame{Command: cmd.Byte(), Variant: v, Payload: payload})
}

func reply(cmd msgs.Command, payload ...byte) []byte {
	return wire(cmd, comm.VariantResponse, payload...)
}

func pointFrame(sub msgs.Subframe, n int) []byte {
	payload := make([]byte, 2+n*msgs.PointRecordSize)
	payload[0], payload[1] = byte(sub), byte(n)
	for i := 0; i < n; i++ {
		payload[2+i*msgs.PointRecordSize] = byte(i)
	}
	return reply(msgs.CmdPointCloudFrame, payload...)
}

func objectFrame(sub msgs.Subframe, n int) []byte {
	payload := make([]byte, 2+n*msgs.ObjectRecordSize)
	payload[0], payload[1] = byte(sub), byte(n)
	return reply(msgs.CmdObjTrackingFrame, payload...)
}

func eventsOf[T Event](evs []Event) []T {
	var out []T
	for _, ev := range evs {
		if e, ok := ev.(T); ok {
			out = append(out, e)
		}
	}
	return out
}

func isDone(p *Pending) bool {
	select {
	case <-p.Done():
		return true
	default:
		return false
	}
}

type sessionTestCtx struct {
	t   *testing.T
	out *bytes.Buffer
	s   *Session
	evs []Event
}

func newSessionTest(t *testing.T, opts ...Option) *sessionTestCtx {
	c := &sessionTestCtx{t: t, out: &bytes.Buffer{}}
	c.s = NewSession(c.out, opts...)
	return c
}

func (c *sessionTestCtx) feed(chunks ...[]byte) *sessionTestCtx {
	c.evs = nil
	for _, chunk := range chunks {
		c.evs = append(c.evs, c.s.Feed(chunk)...)
	}
	return c
}

func (c *sessionTestCtx) sent(expected []byte) *sessionTestCtx {
	require.Equal(c.t, expected, c.out.Bytes())
	c.out.Reset()
	return c
}

func (c *sessionTestCtx) setMode(mode msgs.CaptureMode) *sessionTestCtx {
	p, err := c.s.SetMode(mode)
	require.NoError(c.t, err)
	c.feed(reply(msgs.CmdMode, byte(mode)))
	_, err = p.Result()
	require.NoError(c.t, err)
	c.out.Reset()
	return c
}

func (c *sessionTestCtx) capture(numFrames uint8) *sessionTestCtx {
	require.NoError(c.t, c.s.StartCapture(numFrames))
	require.Equal(c.t, StateCapturing, c.s.State())
	c.out.Reset()
	return c
}

func TestSetAngleFilterOutOfRange(t *testing.T) {
	c := newSessionTest(t)
	p, err := c.s.SetAngleFilter(-60, 10)
	require.Nil(t, p)
	var rangeErr *msgs.RangeError
	require.True(t, errors.As(err, &rangeErr))
	require.Zero(t, c.out.Len())

	_, err = c.s.SetAngleFilter(20, -20)
	require.ErrorIs(t, err, msgs.ErrInvertedRange)
	require.Zero(t, c.out.Len())
}

func TestSetFrameRateAck(t *testing.T) {
	c := newSessionTest(t)
	p, err := c.s.SetFrameRate(10)
	require.NoError(t, err)
	c.sent([]byte{0xb0, 0x04, 0x02, 0x0a, 0xd7, 0x74, 0xb1})
	require.False(t, isDone(p))
	require.ErrorIs(t, c.s.Config().Check(FieldFrameRate), ErrUnknownValue)

	c.feed([]byte{0xb0, 0x04, 0x01, 0x0a, 0x82, 0x27, 0xb1})
	require.True(t, isDone(p))
	_, err = p.Result()
	require.NoError(t, err)

	cfg := c.s.Config()
	require.True(t, cfg.Known(FieldFrameRate))
	require.Equal(t, uint8(10), cfg.FrameRate)
	applied := eventsOf[ConfigApplied](c.evs)
	require.Len(t, applied, 1)
	require.Equal(t, FieldFrameRate, applied[0].Field)
}

func TestSetterCommitsRequestedValue(t *testing.T) {
	c := newSessionTest(t)
	p, err := c.s.SetDistanceFilter(100, 2000)
	require.NoError(t, err)
	c.feed(reply(msgs.CmdDistanceFilter))
	_, err = p.Result()
	require.NoError(t, err)
	require.Equal(t, Range[uint16]{Min: 100, Max: 2000}, c.s.Config().DistanceFilter)
}

func TestSetterCommitsEchoedValue(t *testing.T) {
	c := newSessionTest(t)
	p, err := c.s.SetFrameRate(30)
	require.NoError(t, err)
	c.feed(reply(msgs.CmdFrameRate, 20))
	_, err = p.Result()
	require.NoError(t, err)
	require.Equal(t, uint8(20), c.s.Config().FrameRate)
}

func TestNoTransport(t *testing.T) {
	s := NewSession(nil)
	_, err := s.SetFrameRate(5)
	require.ErrorIs(t, err, ErrNoTransport)
	require.ErrorIs(t, s.StartCapture(0), ErrNoTransport)
	require.Equal(t, StateIdle, s.State())
}

func TestGetterUpdatesConfig(t *testing.T) {
	c := newSessionTest(t)
	p, err := c.s.Request(msgs.CmdHeightFilter)
	require.NoError(t, err)
	c.sent(wire(msgs.CmdHeightFilter, comm.VariantRequest))
	c.feed(reply(msgs.CmdHeightFilter, 0x18, 0xfc, 0xd0, 0x07))
	resp, err := p.Result()
	require.NoError(t, err)
	require.Equal(t, int16(-1000), resp.(msgs.HeightFilter).Min)
	require.Equal(t, Range[int16]{Min: -1000, Max: 2000}, c.s.Config().HeightFilter)
}

func TestPendingFIFO(t *testing.T) {
	c := newSessionTest(t)
	p1, err := c.s.Request(msgs.CmdFrameRate)
	require.NoError(t, err)
	p2, err := c.s.Request(msgs.CmdFrameRate)
	require.NoError(t, err)

	c.feed(reply(msgs.CmdFrameRate, 5))
	require.True(t, isDone(p1))
	require.False(t, isDone(p2))
	c.feed(reply(msgs.CmdFrameRate, 6))
	r1, _ := p1.Result()
	r2, _ := p2.Result()
	require.Equal(t, uint8(5), r1.(msgs.FrameRate).Rate)
	require.Equal(t, uint8(6), r2.(msgs.FrameRate).Rate)
}

func TestStaleResponse(t *testing.T) {
	c := newSessionTest(t)
	p1, err := c.s.Request(msgs.CmdFrameRate)
	require.NoError(t, err)
	require.True(t, p1.Cancel())
	require.False(t, p1.Cancel())
	_, err = p1.Result()
	require.ErrorIs(t, err, ErrCancelled)

	p2, err := c.s.Request(msgs.CmdFrameRate)
	require.NoError(t, err)
	c.feed(reply(msgs.CmdFrameRate, 5))
	require.Len(t, eventsOf[StaleResponse](c.evs), 1)
	require.False(t, isDone(p2))

	c.feed(reply(msgs.CmdFrameRate, 6))
	r2, err := p2.Result()
	require.NoError(t, err)
	require.Equal(t, uint8(6), r2.(msgs.FrameRate).Rate)
}

func TestStaleResponseExpires(t *testing.T) {
	now := time.Unix(1000, 0)
	c := newSessionTest(t, WithClock(func() time.Time { return now }))
	for round := 0; round < 3; round++ {
		p, err := c.s.Request(msgs.CmdFrameRate)
		require.NoError(t, err)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, err = p.Wait(ctx)
		cancel()
		require.ErrorIs(t, err, context.DeadlineExceeded)

		now = now.Add(DefaultStaleTimeout)
		p, err = c.s.Request(msgs.CmdFrameRate)
		require.NoError(t, err)
		c.feed(reply(msgs.CmdFrameRate, byte(10+round)))
		require.Empty(t, eventsOf[StaleResponse](c.evs))
		resp, err := p.Result()
		require.NoError(t, err)
		require.Equal(t, uint8(10+round), resp.(msgs.FrameRate).Rate)
	}
}

func TestCancelKeepsQueuePosition(t *testing.T) {
	c := newSessionTest(t)
	set, err := c.s.SetFrameRate(10)
	require.NoError(t, err)
	get, err := c.s.Request(msgs.CmdFrameRate)
	require.NoError(t, err)
	require.True(t, get.Cancel())

	c.feed(reply(msgs.CmdFrameRate, 10))
	require.Empty(t, eventsOf[StaleResponse](c.evs))
	_, err = set.Result()
	require.NoError(t, err)
	require.True(t, c.s.Config().Known(FieldFrameRate))
	require.Equal(t, uint8(10), c.s.Config().FrameRate)

	c.feed(reply(msgs.CmdFrameRate, 10))
	require.Len(t, eventsOf[StaleResponse](c.evs), 1)

	next, err := c.s.Request(msgs.CmdFrameRate)
	require.NoError(t, err)
	c.feed(reply(msgs.CmdFrameRate, 12))
	resp, err := next.Result()
	require.NoError(t, err)
	require.Equal(t, uint8(12), resp.(msgs.FrameRate).Rate)
}

func TestWaitTimeout(t *testing.T) {
	c := newSessionTest(t)
	p, err := c.s.Request(msgs.CmdSerial)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = p.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	c.feed(reply(msgs.CmdSerial, 1, 0, 0, 0))
	require.Len(t, eventsOf[StaleResponse](c.evs), 1)
}

func TestGetFrameRateTimeout(t *testing.T) {
	c := newSessionTest(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := c.s.GetFrameRate(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSaveReturnValue(t *testing.T) {
	testCases := []struct {
		name    string
		payload []byte
		warning bool
		ok      bool
	}{
		{"empty", nil, false, true},
		{"ok", []byte{0}, false, true},
		{"warning", []byte{1}, true, false},
		{"error", []byte{2}, false, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newSessionTest(t)
			p, err := c.s.Save()
			require.NoError(t, err)
			c.feed(reply(msgs.CmdSave, tc.payload...))
			_, err = p.Result()
			if tc.ok {
				require.NoError(t, err)
				return
			}
			var rErr *ReturnError
			require.True(t, errors.As(err, &rErr))
			require.Equal(t, tc.warning, rErr.Warning())
		})
	}
}

func TestDeviceMessageKeepsPending(t *testing.T) {
	c := newSessionTest(t)
	p, err := c.s.SceneCalibrate()
	require.NoError(t, err)
	c.feed(reply(msgs.CmdMessage, append([]byte{byte(msgs.MessageInfo), 0}, "calibrating"...)...))
	msgEvs := eventsOf[DeviceMessage](c.evs)
	require.Len(t, msgEvs, 1)
	require.Equal(t, "calibrating", msgEvs[0].Message.Text)
	require.False(t, isDone(p))

	c.feed(reply(msgs.CmdSceneCalibrate, 0))
	_, err = p.Result()
	require.NoError(t, err)
}

func TestResetClearsConfig(t *testing.T) {
	c := newSessionTest(t).setMode(msgs.ModeObjectTracking)
	require.True(t, c.s.Config().Known(FieldMode))
	p, err := c.s.Reset(msgs.ResetReboot)
	require.NoError(t, err)
	c.feed(reply(msgs.CmdReset, 0))
	_, err = p.Result()
	require.NoError(t, err)
	require.False(t, c.s.Config().Known(FieldMode))
}

func TestDeviceInitiatedSet(t *testing.T) {
	c := newSessionTest(t)
	c.feed(wire(msgs.CmdCertainty, comm.VariantSet, 7))
	require.Len(t, eventsOf[ConfigApplied](c.evs), 1)
	require.Equal(t, uint8(7), c.s.Config().Certainty)
}

func TestCapture(t *testing.T) {
	var handled []Event
	c := newSessionTest(t, WithEventHandler(HandleEventFunc(func(ev Event) {
		handled = append(handled, ev)
	}))).setMode(msgs.ModePointCloud)
	c.capture(2)

	c.feed(pointFrame(msgs.SubframeStart, 3), pointFrame(msgs.SubframeMiddle, 2), pointFrame(msgs.SubframeEnd, 1))
	ready := eventsOf[CaptureDataReady](c.evs)
	require.Len(t, ready, 1)
	require.Equal(t, msgs.ModePointCloud, ready[0].Mode)
	require.Equal(t, uint64(1), ready[0].Seq)
	require.Len(t, ready[0].Points, 6)
	require.Equal(t, []int16{0, 1, 2, 0, 1, 0}, []int16{
		ready[0].Points[0].X, ready[0].Points[1].X, ready[0].Points[2].X,
		ready[0].Points[3].X, ready[0].Points[4].X, ready[0].Points[5].X,
	})
	require.Equal(t, StateCapturing, c.s.State())

	c.feed(pointFrame(msgs.SubframeStart, 1), pointFrame(msgs.SubframeEnd, 1))
	require.Len(t, eventsOf[CaptureDataReady](c.evs), 1)
	changes := eventsOf[CaptureStateChanged](c.evs)
	require.Len(t, changes, 1)
	require.Equal(t, StateIdle, changes[0].State)
	require.Equal(t, StateIdle, c.s.State())
	require.Len(t, eventsOf[CaptureStateChanged](handled), 2)
}

func TestStartStopCapture(t *testing.T) {
	c := newSessionTest(t)
	require.NoError(t, c.s.StartCapture(0))
	c.sent(wire(msgs.CmdCaptureStart, comm.VariantRequest, 0))
	require.ErrorIs(t, c.s.StartCapture(0), ErrCapturing)
	_, err := c.s.SetMode(msgs.ModeRawData)
	require.ErrorIs(t, err, ErrCapturing)
	_, err = c.s.SetFrameRate(20)
	require.NoError(t, err)
	c.out.Reset()

	require.NoError(t, c.s.StopCapture())
	c.sent(wire(msgs.CmdCaptureStop, comm.VariantRequest))
	require.Equal(t, StateIdle, c.s.State())
}

func TestCaptureModeLatched(t *testing.T) {
	c := newSessionTest(t).capture(0)
	c.feed(objectFrame(msgs.SubframeStart, 1), objectFrame(msgs.SubframeEnd, 1))
	ready := eventsOf[CaptureDataReady](c.evs)
	require.Len(t, ready, 1)
	require.Equal(t, msgs.ModeObjectTracking, ready[0].Mode)
	require.Len(t, ready[0].Objects, 2)

	c.feed(pointFrame(msgs.SubframeStart, 1))
	perr := eventsOf[ProtocolError](c.evs)
	require.Len(t, perr, 1)
	var mm *ModeMismatchError
	require.True(t, errors.As(perr[0].Err, &mm))
}

func TestModeMismatch(t *testing.T) {
	c := newSessionTest(t).setMode(msgs.ModePointCloud).capture(0)
	c.feed(objectFrame(msgs.SubframeStart, 1))
	perr := eventsOf[ProtocolError](c.evs)
	require.Len(t, perr, 1)
	var mm *ModeMismatchError
	require.True(t, errors.As(perr[0].Err, &mm))
	require.Equal(t, msgs.ModePointCloud, mm.Mode)
	require.Equal(t, msgs.CmdObjTrackingFrame, mm.Got)
	require.Empty(t, eventsOf[CaptureDataReady](c.evs))
}

func TestDataWhileIdle(t *testing.T) {
	c := newSessionTest(t)
	c.feed(pointFrame(msgs.SubframeStart, 1))
	perr := eventsOf[ProtocolError](c.evs)
	require.Len(t, perr, 1)
	require.ErrorIs(t, perr[0].Err, ErrNotCapturing)
}

func TestSubframeErrors(t *testing.T) {
	c := newSessionTest(t, WithMaxPoints(4)).setMode(msgs.ModePointCloud).capture(0)
	c.feed(pointFrame(msgs.SubframeMiddle, 1))
	require.Len(t, eventsOf[SubframeOutOfOrder](c.evs), 1)

	c.feed(pointFrame(msgs.SubframeStart, 3), pointFrame(msgs.SubframeStart, 1))
	ooo := eventsOf[SubframeOutOfOrder](c.evs)
	require.Len(t, ooo, 1)
	require.Equal(t, 3, ooo[0].Discarded)

	c.feed(pointFrame(msgs.SubframeMiddle, 4))
	exceeded := eventsOf[CapacityExceeded](c.evs)
	require.Len(t, exceeded, 1)
	require.Equal(t, 5, exceeded[0].Err.Size)

	c.feed(pointFrame(msgs.SubframeEnd, 1))
	require.Len(t, eventsOf[SubframeOutOfOrder](c.evs), 1)
	require.Empty(t, eventsOf[CaptureDataReady](c.evs))
}

func TestRawData(t *testing.T) {
	c := newSessionTest(t).setMode(msgs.ModeRawData).capture(1)
	c.feed(reply(msgs.CmdRawData, 1, 2, 3))
	ready := eventsOf[CaptureDataReady](c.evs)
	require.Len(t, ready, 1)
	require.Equal(t, []byte{1, 2, 3}, ready[0].Raw)
	require.Equal(t, StateIdle, c.s.State())
}

func TestFrameErrors(t *testing.T) {
	corrupt := []byte{0xb0, 0x04, 0x01, 0x0b, 0x82, 0x27, 0xb1}
	c := newSessionTest(t, WithBufferSize(8))
	c.feed(corrupt)
	require.Len(t, eventsOf[ChecksumError](c.evs), 1)
	require.Equal(t, []byte{0x04, 0x01, 0x0b, 0x82, 0x27}, c.s.LastFrame())

	c.feed([]byte{0xb0, 0x04, 0xb1})
	require.Len(t, eventsOf[MalformedFrame](c.evs), 1)

	c.feed([]byte{0xb0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	require.Len(t, eventsOf[BufferOverflow](c.evs), 1)

	c.feed(reply(msgs.CmdFrameRate, 9))
	require.Len(t, eventsOf[FrameDecoded](c.evs), 1)
	require.Equal(t, uint8(9), c.s.Config().FrameRate)
}

func TestShortPayloadFailsPending(t *testing.T) {
	c := newSessionTest(t)
	p, err := c.s.Request(msgs.CmdVersion)
	require.NoError(t, err)
	c.feed(reply(msgs.CmdVersion, 1, 2))
	_, err = p.Result()
	var perr *msgs.PayloadError
	require.True(t, errors.As(err, &perr))
	require.Len(t, eventsOf[ProtocolError](c.evs), 1)
}

func TestUnknownCommand(t *testing.T) {
	c := newSessionTest(t)
	c.feed(comm.Encode(comm.Frame{Command: 0x42, Variant: comm.VariantResponse, Payload: []byte{1}}))
	unknown := eventsOf[UnknownCommand](c.evs)
	require.Len(t, unknown, 1)
	require.Equal(t, byte(0x42), unknown[0].Code)
}

func TestSnapshots(t *testing.T) {
	c := newSessionTest(t)
	_, err := c.s.PowerGood()
	require.ErrorIs(t, err, ErrUnknownValue)

	c.feed(reply(msgs.CmdPowerStatus, 0), reply(msgs.CmdPowerStatus, 0), reply(msgs.CmdPowerStatus, 1))
	changes := eventsOf[PowerStatusChanged](c.evs)
	require.Len(t, changes, 2)
	require.False(t, changes[1].Good)
	good, err := c.s.PowerGood()
	require.NoError(t, err)
	require.False(t, good)

	stats := make([]byte, 48)
	stats[0] = 42
	stats[28] = 30
	c.feed(reply(msgs.CmdProcessingStats, stats...))
	require.Len(t, eventsOf[StatsUpdated](c.evs), 1)
	ps, err := c.s.ProcessingStats()
	require.NoError(t, err)
	require.Equal(t, uint32(42), ps.ActiveFrameCPULoad)
	temps, err := c.s.ChipTemperatures()
	require.NoError(t, err)
	require.Equal(t, int16(30), temps.Sensor0)

	c.feed(reply(msgs.CmdVersion, 1, 2, 3, 0, 4, 5, 6, 0))
	v, err := c.s.Versions()
	require.NoError(t, err)
	require.Equal(t, "1.2.3", v.Firmware.String())
}

type countingObserver struct {
	rx, tx, events int
}

func (o *countingObserver) ObserveRx(n int)                   { o.rx += n }
func (o *countingObserver) ObserveTx(cmd msgs.Command, n int) { o.tx += n }
func (o *countingObserver) ObserveEvent(Event)                { o.events++ }

func TestObserver(t *testing.T) {
	o := &countingObserver{}
	c := newSessionTest(t, WithObserver(o))
	_, err := c.s.SetFrameRate(10)
	require.NoError(t, err)
	c.feed(reply(msgs.CmdFrameRate, 10))
	require.Equal(t, 7, o.tx)
	require.Equal(t, 7, o.rx)
	require.Equal(t, 2, o.events)
}
