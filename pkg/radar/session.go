// Package radar implements a session with a RadarIQ device.
//
// The Session is synchronous: bytes received from the device are passed to
// Feed, which updates the session state, resolves pending requests and
// returns the resulting events. Use a Pump to feed from a reader in the
// background so blocking getters work.
package radar

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/radariq.go/pkg/capture"
	"github.com/robotalks/radariq.go/pkg/comm"
	"github.com/robotalks/radariq.go/pkg/msgs"
)

// CaptureState is the capture lifecycle state.
type CaptureState int

// Capture states.
const (
	StateIdle CaptureState = iota
	StateCapturing
)

func (s CaptureState) String() string {
	if s == StateCapturing {
		return "capturing"
	}
	return "idle"
}

// Session tracks the state of one device.
type Session struct {
	w          io.Writer
	codec      *comm.Codec
	bufferSize int
	maxPoints  int
	maxObjects int
	handler    EventHandler
	observer   Observer
	now        func() time.Time

	// staleTimeout bounds how long a cancelled request waits for its response.
	staleTimeout time.Duration

	lock      sync.Mutex
	parser    *comm.Parser
	points    *capture.Assembler[msgs.Point]
	objects   *capture.Assembler[msgs.TrackedObject]
	config    Config
	snapshots map[msgs.Command]msgs.Response
	pendings  map[msgs.Command]*pendingQueue

	state       CaptureState
	mode        msgs.CaptureMode
	modeLatched bool
	remaining   int
	limited     bool
	frameSeq    uint64
}

// NewSession creates a session writing commands to w.
func NewSession(w io.Writer, opts ...Option) *Session {
	s := &Session{
		w:            w,
		bufferSize:   comm.DefaultBufferSize,
		maxPoints:    msgs.DefaultMaxPoints,
		maxObjects:   msgs.DefaultMaxObjects,
		now:          time.Now,
		staleTimeout: DefaultStaleTimeout,
		snapshots:    make(map[msgs.Command]msgs.Response),
		pendings:     make(map[msgs.Command]*pendingQueue),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.parser = comm.NewParser(s.bufferSize)
	s.parser.Codec = s.codec
	s.points = capture.New[msgs.Point](s.maxPoints)
	s.objects = capture.New[msgs.TrackedObject](s.maxObjects)
	return s
}

// Attach replaces the writer.
func (s *Session) Attach(w io.Writer) {
	s.lock.Lock()
	s.w = w
	s.lock.Unlock()
}

// Feed consumes bytes received from the device and returns the events
// in arrival order. Events are also delivered to the handler.
func (s *Session) Feed(p []byte) []Event {
	var evs []Event
	s.lock.Lock()
	for _, b := range p {
		pr := s.parser.Parse(b)
		if pr.IsEmpty() {
			continue
		}
		if pr.Err != nil {
			evs = s.frameError(evs, pr.Err)
			continue
		}
		evs = s.handleFrame(evs, *pr.Frame)
	}
	s.lock.Unlock()
	if s.observer != nil {
		s.observer.ObserveRx(len(p))
	}
	s.emit(evs)
	return evs
}

func (s *Session) emit(evs []Event) {
	for _, ev := range evs {
		if s.observer != nil {
			s.observer.ObserveEvent(ev)
		}
		if s.handler != nil {
			s.handler.HandleEvent(ev)
		}
	}
}

func (s *Session) frameError(evs []Event, err error) []Event {
	var csErr *comm.ChecksumError
	var mfErr *comm.MalformedError
	switch {
	case errors.As(err, &csErr):
		glog.Warningf("rx: %v", err)
		return append(evs, ChecksumError{Err: csErr})
	case errors.Is(err, comm.ErrBufferOverflow):
		glog.Warningf("rx: %v", err)
		return append(evs, BufferOverflow{})
	case errors.As(err, &mfErr):
		glog.Warningf("rx: %v", err)
		return append(evs, MalformedFrame{Err: err})
	}
	return append(evs, MalformedFrame{Err: err})
}

func (s *Session) handleFrame(evs []Event, f comm.Frame) []Event {
	glog.V(2).Infof("rx %s", f)
	evs = append(evs, FrameDecoded{Frame: f})
	cmd := msgs.CommandFromByte(f.Command)
	resp, err := msgs.Decode(f)
	if err != nil {
		glog.Warningf("rx %s: %v", cmd, err)
		evs = append(evs, ProtocolError{Command: cmd, Err: err})
		if !cmd.IsDataFrame() && f.Variant != comm.VariantSet {
			if p, stale := s.popPending(cmd); p != nil {
				p.resolve(nil, err)
			} else if stale {
				evs = append(evs, StaleResponse{Command: cmd})
			}
		}
		return evs
	}

	switch r := resp.(type) {
	case msgs.Unknown:
		glog.Warningf("rx unknown command 0x%02x", r.Code)
		return append(evs, UnknownCommand{Code: r.Code, Payload: r.Payload})
	case msgs.DeviceMessage:
		logDeviceMessage(r)
		return append(evs, DeviceMessage{Message: r})
	case msgs.PointCloudFragment:
		if err := s.acceptData(cmd); err != nil {
			return append(evs, ProtocolError{Command: cmd, Err: err})
		}
		res, err := s.points.Add(r.Subframe, r.Points)
		evs = s.assembled(evs, cmd, r.Subframe, res.Preempted, err)
		if res.Complete {
			evs = s.frameReady(evs, CaptureDataReady{Points: res.Frame})
		}
		return evs
	case msgs.ObjectFragment:
		if err := s.acceptData(cmd); err != nil {
			return append(evs, ProtocolError{Command: cmd, Err: err})
		}
		res, err := s.objects.Add(r.Subframe, r.Objects)
		evs = s.assembled(evs, cmd, r.Subframe, res.Preempted, err)
		if res.Complete {
			evs = s.frameReady(evs, CaptureDataReady{Objects: res.Frame})
		}
		return evs
	case msgs.RawData:
		if err := s.acceptData(cmd); err != nil {
			return append(evs, ProtocolError{Command: cmd, Err: err})
		}
		return s.frameReady(evs, CaptureDataReady{Raw: r.Data})
	}

	if f.Variant == comm.VariantSet {
		// changed on the device side
		if field, ok := s.config.apply(resp); ok {
			evs = append(evs, ConfigApplied{Field: field, Config: s.config})
		}
		return evs
	}
	return s.handleResponse(evs, cmd, resp)
}

func (s *Session) popPending(cmd msgs.Command) (p *Pending, stale bool) {
	q := s.pendings[cmd]
	if q == nil {
		return nil, false
	}
	q.purgeExpired(s.now(), s.staleTimeout)
	return q.pop()
}

func (s *Session) handleResponse(evs []Event, cmd msgs.Command, resp msgs.Response) []Event {
	p, stale := s.popPending(cmd)
	if stale {
		glog.V(2).Infof("rx %s: stale response discarded", cmd)
		return append(evs, StaleResponse{Command: cmd})
	}

	var err error
	if cmd.IsSetting() {
		// the device echoes the applied value, a bare ack confirms the request
		field, ok := s.config.apply(resp)
		if _, isAck := resp.(msgs.Ack); isAck && p != nil && p.req.Variant() == comm.VariantSet {
			field, ok = s.config.commit(p.req)
		}
		if ok {
			evs = append(evs, ConfigApplied{Field: field, Config: s.config})
		}
	} else if ack, isAck := resp.(msgs.Ack); isAck {
		err = returnErr(cmd, ack.Return)
		switch cmd {
		case msgs.CmdCaptureStart:
			if err != nil {
				evs = append(evs, ProtocolError{Command: cmd, Err: err})
				evs = s.setState(evs, StateIdle)
			}
		case msgs.CmdReset:
			if err == nil {
				s.config = Config{}
				evs = s.setState(evs, StateIdle)
			}
		}
	} else {
		evs = s.updateSnapshot(evs, cmd, resp)
	}

	if p != nil {
		glog.V(2).Infof("%s resolved in %s", cmd, s.now().Sub(p.sentAt))
		p.resolve(resp, err)
	}
	return evs
}

func (s *Session) updateSnapshot(evs []Event, cmd msgs.Command, resp msgs.Response) []Event {
	prev, hadPrev := s.snapshots[cmd]
	s.snapshots[cmd] = resp
	switch cmd {
	case msgs.CmdProcessingStats, msgs.CmdPointCloudStats:
		evs = append(evs, StatsUpdated{Command: cmd})
	case msgs.CmdPowerStatus:
		good := resp.(msgs.PowerStatus).Good()
		if !hadPrev || prev.(msgs.PowerStatus).Good() != good {
			if !good {
				glog.Warning("device power supply out of range")
			}
			evs = append(evs, PowerStatusChanged{Good: good})
		}
	}
	return evs
}

func (s *Session) acceptData(cmd msgs.Command) error {
	if s.state != StateCapturing {
		return ErrNotCapturing
	}
	if !s.modeLatched {
		switch cmd {
		case msgs.CmdPointCloudFrame:
			s.mode = msgs.ModePointCloud
		case msgs.CmdObjTrackingFrame:
			s.mode = msgs.ModeObjectTracking
		default:
			s.mode = msgs.ModeRawData
		}
		s.modeLatched = true
	}
	if s.mode.FrameCommand() != cmd {
		err := &ModeMismatchError{Mode: s.mode, Got: cmd}
		glog.Warningf("rx: %v", err)
		return err
	}
	return nil
}

func (s *Session) assembled(evs []Event, cmd msgs.Command, sub msgs.Subframe, preempted int, err error) []Event {
	if preempted > 0 {
		glog.Warningf("rx %s: unfinished frame of %d records discarded", cmd, preempted)
		evs = append(evs, SubframeOutOfOrder{Command: cmd, Subframe: sub, Discarded: preempted})
	}
	if err == nil {
		return evs
	}
	glog.Warningf("rx %s: %v", cmd, err)
	var capErr *capture.CapacityError
	switch {
	case errors.Is(err, capture.ErrOutOfOrder):
		return append(evs, SubframeOutOfOrder{Command: cmd, Subframe: sub})
	case errors.As(err, &capErr):
		return append(evs, CapacityExceeded{Command: cmd, Err: capErr})
	}
	return append(evs, ProtocolError{Command: cmd, Err: err})
}

func (s *Session) frameReady(evs []Event, ev CaptureDataReady) []Event {
	s.frameSeq++
	ev.Mode, ev.Seq, ev.At = s.mode, s.frameSeq, s.now()
	evs = append(evs, ev)
	if s.limited {
		if s.remaining--; s.remaining <= 0 {
			evs = s.setState(evs, StateIdle)
		}
	}
	return evs
}

func (s *Session) setState(evs []Event, state CaptureState) []Event {
	if s.state == state {
		return evs
	}
	s.state = state
	s.points.Reset()
	s.objects.Reset()
	glog.V(1).Infof("capture %s", state)
	return append(evs, CaptureStateChanged{State: state, Mode: s.mode})
}

func (s *Session) write(req msgs.Request) error {
	if s.w == nil {
		return ErrNoTransport
	}
	f, err := msgs.NewFrame(req)
	if err != nil {
		return err
	}
	glog.V(2).Infof("tx %s", f)
	n, err := s.codec.WriteFrame(s.w, f)
	if s.observer != nil && n > 0 {
		s.observer.ObserveTx(req.Command(), n)
	}
	return err
}

func (s *Session) request(req msgs.Request) (*Pending, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.requestLocked(req)
}

func (s *Session) requestLocked(req msgs.Request) (*Pending, error) {
	if err := s.write(req); err != nil {
		return nil, err
	}
	now := s.now()
	p := &Pending{req: req, sess: s, sentAt: now, done: make(chan struct{})}
	q := s.pendings[req.Command()]
	if q == nil {
		q = &pendingQueue{}
		s.pendings[req.Command()] = q
	}
	q.purgeExpired(now, s.staleTimeout)
	p.elem = q.PushBack(p)
	return p, nil
}

// Request queries the value of cmd.
func (s *Session) Request(cmd msgs.Command) (*Pending, error) {
	return s.request(msgs.Get{Cmd: cmd})
}

// SetFrameRate sets the frame rate.
func (s *Session) SetFrameRate(rate uint8) (*Pending, error) {
	return s.request(msgs.SetFrameRate{Rate: rate})
}

// SetMode sets the capture mode. It fails with ErrCapturing during capture.
func (s *Session) SetMode(mode msgs.CaptureMode) (*Pending, error) {
	req := msgs.SetMode{Mode: mode}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.state == StateCapturing {
		return nil, ErrCapturing
	}
	return s.requestLocked(req)
}

// SetDistanceFilter sets the distance filter in mm.
func (s *Session) SetDistanceFilter(min, max uint16) (*Pending, error) {
	return s.request(msgs.SetDistanceFilter{Min: min, Max: max})
}

// SetAngleFilter sets the angle filter in degrees.
func (s *Session) SetAngleFilter(min, max int8) (*Pending, error) {
	return s.request(msgs.SetAngleFilter{Min: min, Max: max})
}

// SetMovingFilter sets the moving filter.
func (s *Session) SetMovingFilter(mode msgs.MovingFilterMode) (*Pending, error) {
	return s.request(msgs.SetMovingFilter{Mode: mode})
}

// SetPointDensity sets the point density.
func (s *Session) SetPointDensity(density msgs.Density) (*Pending, error) {
	return s.request(msgs.SetPointDensity{Density: density})
}

// SetCertainty sets the certainty threshold.
func (s *Session) SetCertainty(level uint8) (*Pending, error) {
	return s.request(msgs.SetCertainty{Level: level})
}

// SetHeightFilter sets the height filter in mm.
func (s *Session) SetHeightFilter(min, max int16) (*Pending, error) {
	return s.request(msgs.SetHeightFilter{Min: min, Max: max})
}

// SetObjectSize sets the object size used for tracking.
func (s *Session) SetObjectSize(size uint8) (*Pending, error) {
	return s.request(msgs.SetObjectSize{Size: size})
}

// Save persists the current settings on the device.
func (s *Session) Save() (*Pending, error) {
	return s.request(msgs.Save{})
}

// Reset reboots the device or restores the factory settings.
func (s *Session) Reset(code msgs.ResetCode) (*Pending, error) {
	return s.request(msgs.Reset{Code: code})
}

// SceneCalibrate starts scene calibration. Device messages reporting
// progress arrive before the acknowledgement.
func (s *Session) SceneCalibrate() (*Pending, error) {
	return s.request(msgs.SceneCalibrate{})
}

// StartCapture starts streaming. numFrames 0 streams until StopCapture,
// otherwise the session returns to idle after numFrames complete frames.
func (s *Session) StartCapture(numFrames uint8) error {
	s.lock.Lock()
	if s.state == StateCapturing {
		s.lock.Unlock()
		return ErrCapturing
	}
	if err := s.write(msgs.CaptureStart{NumFrames: numFrames}); err != nil {
		s.lock.Unlock()
		return err
	}
	s.mode, s.modeLatched = s.config.Mode, s.config.Known(FieldMode)
	s.remaining, s.limited = int(numFrames), numFrames > 0
	evs := s.setState(nil, StateCapturing)
	s.lock.Unlock()
	s.emit(evs)
	return nil
}

// StopCapture stops streaming.
func (s *Session) StopCapture() error {
	s.lock.Lock()
	if err := s.write(msgs.CaptureStop{}); err != nil {
		s.lock.Unlock()
		return err
	}
	evs := s.setState(nil, StateIdle)
	s.lock.Unlock()
	s.emit(evs)
	return nil
}

// GetFrameRate queries the frame rate.
func (s *Session) GetFrameRate(ctx context.Context) (uint8, error) {
	p, err := s.Request(msgs.CmdFrameRate)
	r, err := waitAs[msgs.FrameRate](ctx, p, err)
	return r.Rate, err
}

// GetMode queries the capture mode.
func (s *Session) GetMode(ctx context.Context) (msgs.CaptureMode, error) {
	p, err := s.Request(msgs.CmdMode)
	r, err := waitAs[msgs.Mode](ctx, p, err)
	return r.Mode, err
}

// GetDistanceFilter queries the distance filter.
func (s *Session) GetDistanceFilter(ctx context.Context) (Range[uint16], error) {
	p, err := s.Request(msgs.CmdDistanceFilter)
	r, err := waitAs[msgs.DistanceFilter](ctx, p, err)
	return Range[uint16]{Min: r.Min, Max: r.Max}, err
}

// GetAngleFilter queries the angle filter.
func (s *Session) GetAngleFilter(ctx context.Context) (Range[int8], error) {
	p, err := s.Request(msgs.CmdAngleFilter)
	r, err := waitAs[msgs.AngleFilter](ctx, p, err)
	return Range[int8]{Min: r.Min, Max: r.Max}, err
}

// GetMovingFilter queries the moving filter.
func (s *Session) GetMovingFilter(ctx context.Context) (msgs.MovingFilterMode, error) {
	p, err := s.Request(msgs.CmdMovingFilter)
	r, err := waitAs[msgs.MovingFilter](ctx, p, err)
	return r.Mode, err
}

// GetPointDensity queries the point density.
func (s *Session) GetPointDensity(ctx context.Context) (msgs.Density, error) {
	p, err := s.Request(msgs.CmdPointDensity)
	r, err := waitAs[msgs.PointDensity](ctx, p, err)
	return r.Density, err
}

// GetCertainty queries the certainty threshold.
func (s *Session) GetCertainty(ctx context.Context) (uint8, error) {
	p, err := s.Request(msgs.CmdCertainty)
	r, err := waitAs[msgs.Certainty](ctx, p, err)
	return r.Level, err
}

// GetHeightFilter queries the height filter.
func (s *Session) GetHeightFilter(ctx context.Context) (Range[int16], error) {
	p, err := s.Request(msgs.CmdHeightFilter)
	r, err := waitAs[msgs.HeightFilter](ctx, p, err)
	return Range[int16]{Min: r.Min, Max: r.Max}, err
}

// GetObjectSize queries the object size.
func (s *Session) GetObjectSize(ctx context.Context) (uint8, error) {
	p, err := s.Request(msgs.CmdObjectSize)
	r, err := waitAs[msgs.ObjectSize](ctx, p, err)
	return r.Size, err
}

// GetVersion queries firmware and hardware versions.
func (s *Session) GetVersion(ctx context.Context) (msgs.Version, error) {
	p, err := s.Request(msgs.CmdVersion)
	return waitAs[msgs.Version](ctx, p, err)
}

// GetIWRVersions queries the radar chip image versions.
func (s *Session) GetIWRVersions(ctx context.Context) (msgs.IWRVersions, error) {
	p, err := s.Request(msgs.CmdIWRVersion)
	return waitAs[msgs.IWRVersions](ctx, p, err)
}

// GetSerialNumber queries the serial number.
func (s *Session) GetSerialNumber(ctx context.Context) (msgs.SerialNumber, error) {
	p, err := s.Request(msgs.CmdSerial)
	return waitAs[msgs.SerialNumber](ctx, p, err)
}

// Config returns a copy of the confirmed configuration.
func (s *Session) Config() Config {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.config
}

// State returns the capture state.
func (s *Session) State() CaptureState {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

// LastFrame returns the unescaped body of the last frame received.
func (s *Session) LastFrame() []byte {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.parser.LastFrame()
}

func snapshot[T msgs.Response](s *Session, cmd msgs.Command) (v T, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	r, ok := s.snapshots[cmd]
	if !ok {
		return v, ErrUnknownValue
	}
	return r.(T), nil
}

// Versions returns the last reported versions.
func (s *Session) Versions() (msgs.Version, error) {
	return snapshot[msgs.Version](s, msgs.CmdVersion)
}

// IWRVersions returns the last reported radar chip versions.
func (s *Session) IWRVersions() (msgs.IWRVersions, error) {
	return snapshot[msgs.IWRVersions](s, msgs.CmdIWRVersion)
}

// SerialNumber returns the last reported serial number.
func (s *Session) SerialNumber() (msgs.SerialNumber, error) {
	return snapshot[msgs.SerialNumber](s, msgs.CmdSerial)
}

// ProcessingStats returns the last reported processing statistics.
func (s *Session) ProcessingStats() (msgs.ProcessingStats, error) {
	return snapshot[msgs.ProcessingStats](s, msgs.CmdProcessingStats)
}

// ChipTemperatures returns the temperatures of the last processing statistics.
func (s *Session) ChipTemperatures() (msgs.ChipTemperatures, error) {
	stats, err := s.ProcessingStats()
	return stats.Temperatures, err
}

// PointCloudStats returns the last reported point cloud statistics.
func (s *Session) PointCloudStats() (msgs.PointCloudStats, error) {
	return snapshot[msgs.PointCloudStats](s, msgs.CmdPointCloudStats)
}

// PowerGood returns the last reported power supply state.
func (s *Session) PowerGood() (bool, error) {
	ps, err := snapshot[msgs.PowerStatus](s, msgs.CmdPowerStatus)
	return ps.Good(), err
}

func logDeviceMessage(m msgs.DeviceMessage) {
	switch m.Type {
	case msgs.MessageError:
		glog.Errorf("device [%d]: %s", m.Code, m.Text)
	case msgs.MessageWarning:
		glog.Warningf("device [%d]: %s", m.Code, m.Text)
	case msgs.MessageDebug, msgs.MessageTemporary:
		glog.V(3).Infof("device [%d]: %s", m.Code, m.Text)
	default:
		glog.Infof("device [%d]: %s", m.Code, m.Text)
	}
}
