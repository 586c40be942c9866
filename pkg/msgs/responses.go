package msgs

import (
	"bytes"
	"encoding/binary"

	"github.com/robotalks/radariq.go/pkg/comm"
)

// FrameHeader identifies the frame a response was decoded from.
type FrameHeader struct {
	Command Command
	Variant comm.Variant
}

func (h FrameHeader) header() FrameHeader { return h }

// Response is a decoded inbound frame. The set of implementations is closed.
type Response interface {
	header() FrameHeader
}

// HeaderOf returns the frame header of a response.
func HeaderOf(r Response) FrameHeader {
	return r.header()
}

// FrameRate reports the capture frame rate.
type FrameRate struct {
	FrameHeader
	Rate uint8
}

// Mode reports the capture mode.
type Mode struct {
	FrameHeader
	Mode CaptureMode
}

// DistanceFilter reports the distance filter in mm.
type DistanceFilter struct {
	FrameHeader
	Min uint16
	Max uint16
}

// AngleFilter reports the angle filter in degrees.
type AngleFilter struct {
	FrameHeader
	Min int8
	Max int8
}

// MovingFilter reports the moving filter mode.
type MovingFilter struct {
	FrameHeader
	Mode MovingFilterMode
}

// PointDensity reports the point density.
type PointDensity struct {
	FrameHeader
	Density Density
}

// Certainty reports the certainty threshold.
type Certainty struct {
	FrameHeader
	Level uint8
}

// HeightFilter reports the height filter in mm.
type HeightFilter struct {
	FrameHeader
	Min int16
	Max int16
}

// ObjectSize reports the object size.
type ObjectSize struct {
	FrameHeader
	Size uint8
}

// Version reports firmware and hardware versions.
type Version struct {
	FrameHeader
	Firmware VersionNumber
	Hardware VersionNumber
}

// IWRVersions reports the radar chip image versions.
type IWRVersions struct {
	FrameHeader
	SBL  VersionNumber
	App1 IWRVersionNumber
	App2 IWRVersionNumber
}

// SerialNumber reports the device serial number.
type SerialNumber struct {
	FrameHeader
	A uint32
	B uint32
}

// ProcessingStats reports radar chip processing statistics.
type ProcessingStats struct {
	FrameHeader
	ActiveFrameCPULoad   uint32
	InterFrameCPULoad    uint32
	InterFrameProcTime   uint32
	TransmitOutputTime   uint32
	InterFrameProcMargin uint32
	InterChirpProcMargin uint32
	UARTTransmitTime     uint32
	Temperatures         ChipTemperatures
}

// PointCloudStats reports point cloud processing statistics.
type PointCloudStats struct {
	FrameHeader
	FrameAggregatingTime  uint32
	IntensitySortTime     uint32
	NearestNeighboursTime uint32
	UARTTransmitTime      uint32
	NumFilteredPoints     uint32
	NumPointsTransmitted  uint32
	InputPointsTruncated  bool
	OutputPointsTruncated bool
}

// PowerStatus reports the power supply state.
type PowerStatus struct {
	FrameHeader
	Raw uint8
}

// Good reports whether the supply is within range.
func (p PowerStatus) Good() bool { return p.Raw == 0 }

// DeviceMessage is a log message from the device.
type DeviceMessage struct {
	FrameHeader
	Type MessageType
	Code MessageCode
	Text string
}

// PointCloudFragment is one subframe of a point cloud.
type PointCloudFragment struct {
	FrameHeader
	Subframe Subframe
	Points   []Point
}

// ObjectFragment is one subframe of an object tracking frame.
type ObjectFragment struct {
	FrameHeader
	Subframe Subframe
	Objects  []TrackedObject
}

// RawData carries an opaque raw data frame.
type RawData struct {
	FrameHeader
	Data []byte
}

// Ack acknowledges a command without a typed value.
type Ack struct {
	FrameHeader
	Return ReturnValue
}

// Unknown is a frame with an unrecognized command byte.
type Unknown struct {
	FrameHeader
	Code    byte
	Payload []byte
}

type reader struct {
	b   []byte
	off int
}

func (r *reader) u8() uint8 {
	v := r.b[r.off]
	r.off++
	return v
}

func (r *reader) u16() uint16 {
	v := binary.LittleEndian.Uint16(r.b[r.off:])
	r.off += 2
	return v
}

func (r *reader) i16() int16 { return int16(r.u16()) }

func (r *reader) u32() uint32 {
	v := binary.LittleEndian.Uint32(r.b[r.off:])
	r.off += 4
	return v
}

func (r *reader) version() VersionNumber {
	return VersionNumber{Major: r.u8(), Minor: r.u8(), Build: r.u16()}
}

func (r *reader) cstring(n int) string {
	s := r.b[r.off : r.off+n]
	r.off += n
	if i := bytes.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return string(s)
}

// Payload sizes of fixed layout responses.
const (
	versionSize         = 8
	iwrImageSize        = 24
	iwrVersionSize      = 4 + 2*iwrImageSize
	procStatsSize       = 7*4 + 10*2
	pointCloudStatsSize = 6*4 + 2
	fragmentHeaderSize  = 2
)

func need(cmd Command, p []byte, n int) error {
	if len(p) < n {
		return &PayloadError{Command: cmd, Length: len(p), Want: n}
	}
	return nil
}

// Decode converts an inbound frame into a typed response.
func Decode(f comm.Frame) (Response, error) {
	cmd := CommandFromByte(f.Command)
	h := FrameHeader{Command: cmd, Variant: f.Variant}
	p := f.Payload
	r := &reader{b: p}
	if cmd.IsSetting() && len(p) == 0 {
		// bare acknowledgement of a SET
		return Ack{FrameHeader: h, Return: ReturnOK}, nil
	}
	switch cmd {
	case CmdFrameRate:
		if err := need(cmd, p, 1); err != nil {
			return nil, err
		}
		return FrameRate{FrameHeader: h, Rate: r.u8()}, nil
	case CmdMode:
		if err := need(cmd, p, 1); err != nil {
			return nil, err
		}
		return Mode{FrameHeader: h, Mode: CaptureMode(r.u8())}, nil
	case CmdDistanceFilter:
		if err := need(cmd, p, 4); err != nil {
			return nil, err
		}
		return DistanceFilter{FrameHeader: h, Min: r.u16(), Max: r.u16()}, nil
	case CmdAngleFilter:
		if err := need(cmd, p, 2); err != nil {
			return nil, err
		}
		return AngleFilter{FrameHeader: h, Min: int8(r.u8()), Max: int8(r.u8())}, nil
	case CmdMovingFilter:
		if err := need(cmd, p, 1); err != nil {
			return nil, err
		}
		return MovingFilter{FrameHeader: h, Mode: MovingFilterMode(r.u8())}, nil
	case CmdPointDensity:
		if err := need(cmd, p, 1); err != nil {
			return nil, err
		}
		return PointDensity{FrameHeader: h, Density: Density(r.u8())}, nil
	case CmdCertainty:
		if err := need(cmd, p, 1); err != nil {
			return nil, err
		}
		return Certainty{FrameHeader: h, Level: r.u8()}, nil
	case CmdHeightFilter:
		if err := need(cmd, p, 4); err != nil {
			return nil, err
		}
		return HeightFilter{FrameHeader: h, Min: r.i16(), Max: r.i16()}, nil
	case CmdObjectSize:
		if err := need(cmd, p, 1); err != nil {
			return nil, err
		}
		return ObjectSize{FrameHeader: h, Size: r.u8()}, nil
	case CmdVersion:
		if err := need(cmd, p, versionSize); err != nil {
			return nil, err
		}
		return Version{FrameHeader: h, Firmware: r.version(), Hardware: r.version()}, nil
	case CmdIWRVersion:
		if err := need(cmd, p, iwrVersionSize); err != nil {
			return nil, err
		}
		v := IWRVersions{FrameHeader: h, SBL: r.version()}
		v.App1 = IWRVersionNumber{VersionNumber: r.version(), Name: r.cstring(iwrImageSize - 4)}
		v.App2 = IWRVersionNumber{VersionNumber: r.version(), Name: r.cstring(iwrImageSize - 4)}
		return v, nil
	case CmdSerial:
		if err := need(cmd, p, 4); err != nil {
			return nil, err
		}
		s := SerialNumber{FrameHeader: h, A: r.u32()}
		if len(p) >= 8 {
			s.B = r.u32()
		}
		return s, nil
	case CmdProcessingStats:
		if err := need(cmd, p, procStatsSize); err != nil {
			return nil, err
		}
		return decodeProcStats(h, r), nil
	case CmdPointCloudStats:
		if err := need(cmd, p, pointCloudStatsSize); err != nil {
			return nil, err
		}
		return PointCloudStats{
			FrameHeader:           h,
			FrameAggregatingTime:  r.u32(),
			IntensitySortTime:     r.u32(),
			NearestNeighboursTime: r.u32(),
			UARTTransmitTime:      r.u32(),
			NumFilteredPoints:     r.u32(),
			NumPointsTransmitted:  r.u32(),
			InputPointsTruncated:  r.u8() != 0,
			OutputPointsTruncated: r.u8() != 0,
		}, nil
	case CmdPowerStatus:
		if err := need(cmd, p, 1); err != nil {
			return nil, err
		}
		return PowerStatus{FrameHeader: h, Raw: r.u8()}, nil
	case CmdMessage:
		if err := need(cmd, p, 2); err != nil {
			return nil, err
		}
		m := DeviceMessage{FrameHeader: h, Type: MessageType(r.u8()), Code: MessageCode(r.u8())}
		n := len(p) - r.off
		if n > MaxMessageLength {
			n = MaxMessageLength
		}
		m.Text = r.cstring(n)
		return m, nil
	case CmdPointCloudFrame:
		return decodePoints(h, p)
	case CmdObjTrackingFrame:
		return decodeObjects(h, p)
	case CmdRawData:
		return RawData{FrameHeader: h, Data: append([]byte(nil), p...)}, nil
	case CmdSave, CmdReset, CmdSceneCalibrate, CmdCaptureStart, CmdCaptureStop:
		a := Ack{FrameHeader: h, Return: ReturnOK}
		if len(p) > 0 {
			a.Return = ReturnValue(p[0])
		}
		return a, nil
	}
	return Unknown{FrameHeader: h, Code: f.Command, Payload: append([]byte(nil), p...)}, nil
}

func decodeProcStats(h FrameHeader, r *reader) ProcessingStats {
	s := ProcessingStats{
		FrameHeader:          h,
		ActiveFrameCPULoad:   r.u32(),
		InterFrameCPULoad:    r.u32(),
		InterFrameProcTime:   r.u32(),
		TransmitOutputTime:   r.u32(),
		InterFrameProcMargin: r.u32(),
		InterChirpProcMargin: r.u32(),
		UARTTransmitTime:     r.u32(),
	}
	t := &s.Temperatures
	for _, v := range []*int16{
		&t.Sensor0, &t.Sensor1, &t.PowerManagement,
		&t.Rx0, &t.Rx1, &t.Rx2, &t.Rx3,
		&t.Tx0, &t.Tx1, &t.Tx2,
	} {
		*v = r.i16()
	}
	return s
}

func fragmentHeader(h FrameHeader, p []byte, recordSize int) (Subframe, int, error) {
	if err := need(h.Command, p, fragmentHeaderSize); err != nil {
		return 0, 0, err
	}
	count := int(p[1])
	if err := need(h.Command, p, fragmentHeaderSize+count*recordSize); err != nil {
		return 0, 0, err
	}
	return Subframe(p[0]), count, nil
}

func decodePoints(h FrameHeader, p []byte) (Response, error) {
	sub, count, err := fragmentHeader(h, p, PointRecordSize)
	if err != nil {
		return nil, err
	}
	r := &reader{b: p, off: fragmentHeaderSize}
	points := make([]Point, count)
	for n := range points {
		points[n] = Point{X: r.i16(), Y: r.i16(), Z: r.i16(), Intensity: r.u8(), Velocity: r.i16()}
	}
	return PointCloudFragment{FrameHeader: h, Subframe: sub, Points: points}, nil
}

func decodeObjects(h FrameHeader, p []byte) (Response, error) {
	sub, count, err := fragmentHeader(h, p, ObjectRecordSize)
	if err != nil {
		return nil, err
	}
	r := &reader{b: p, off: fragmentHeaderSize}
	objects := make([]TrackedObject, count)
	for n := range objects {
		objects[n] = TrackedObject{
			TargetID: r.u8(),
			XPos:     r.i16(), YPos: r.i16(), ZPos: r.i16(),
			XVel: r.i16(), YVel: r.i16(), ZVel: r.i16(),
			XAcc: r.i16(), YAcc: r.i16(), ZAcc: r.i16(),
		}
	}
	return ObjectFragment{FrameHeader: h, Subframe: sub, Objects: objects}, nil
}
