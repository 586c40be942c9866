package radar

import (
	"fmt"
	"time"

	"github.com/robotalks/radariq.go/pkg/capture"
	"github.com/robotalks/radariq.go/pkg/comm"
	"github.com/robotalks/radariq.go/pkg/msgs"
)

// Event is something observed while feeding bytes into a Session.
// The set of implementations is closed.
type Event interface {
	fmt.Stringer
	event()
}

// EventHandler receives events from a Session.
type EventHandler interface {
	HandleEvent(Event)
}

// HandleEventFunc is func type of EventHandler.
type HandleEventFunc func(Event)

// HandleEvent implements EventHandler.
func (f HandleEventFunc) HandleEvent(e Event) {
	f(e)
}

// FrameDecoded reports a valid frame.
type FrameDecoded struct {
	Frame comm.Frame
}

// ChecksumError reports a frame dropped for a bad checksum.
type ChecksumError struct {
	Err *comm.ChecksumError
}

// MalformedFrame reports a frame dropped for bad framing.
type MalformedFrame struct {
	Err error
}

// BufferOverflow reports a frame larger than the receive buffer.
type BufferOverflow struct{}

// SubframeOutOfOrder reports a fragment outside a START..END sequence.
// Discarded counts the records of an unfinished frame dropped by a new START.
type SubframeOutOfOrder struct {
	Command   msgs.Command
	Subframe  msgs.Subframe
	Discarded int
}

// CaptureDataReady delivers a complete data frame.
type CaptureDataReady struct {
	Mode    msgs.CaptureMode
	Seq     uint64
	At      time.Time
	Points  []msgs.Point
	Objects []msgs.TrackedObject
	Raw     []byte
}

// ConfigApplied reports a configuration value confirmed by the device.
type ConfigApplied struct {
	Field  Field
	Config Config
}

// DeviceMessage forwards a log message from the device.
type DeviceMessage struct {
	Message msgs.DeviceMessage
}

// CapacityExceeded reports a data frame larger than the assembler capacity.
type CapacityExceeded struct {
	Command msgs.Command
	Err     *capture.CapacityError
}

// ProtocolError reports a valid frame the session could not use.
type ProtocolError struct {
	Command msgs.Command
	Err     error
}

// StaleResponse reports a response to a cancelled request.
type StaleResponse struct {
	Command msgs.Command
}

// StatsUpdated reports fresh processing or point cloud statistics.
type StatsUpdated struct {
	Command msgs.Command
}

// PowerStatusChanged reports a change of the power supply state.
type PowerStatusChanged struct {
	Good bool
}

// CaptureStateChanged reports a capture start or stop.
type CaptureStateChanged struct {
	State CaptureState
	Mode  msgs.CaptureMode
}

// UnknownCommand reports a frame with an unrecognized command byte.
type UnknownCommand struct {
	Code    byte
	Payload []byte
}

func (FrameDecoded) event()        {}
func (ChecksumError) event()       {}
func (MalformedFrame) event()      {}
func (BufferOverflow) event()      {}
func (SubframeOutOfOrder) event()  {}
func (CaptureDataReady) event()    {}
func (ConfigApplied) event()       {}
func (DeviceMessage) event()       {}
func (CapacityExceeded) event()    {}
func (ProtocolError) event()       {}
func (StaleResponse) event()       {}
func (StatsUpdated) event()        {}
func (PowerStatusChanged) event()  {}
func (CaptureStateChanged) event() {}
func (UnknownCommand) event()      {}

func (e FrameDecoded) String() string   { return "frame " + e.Frame.String() }
func (e ChecksumError) String() string  { return e.Err.Error() }
func (e MalformedFrame) String() string { return e.Err.Error() }
func (BufferOverflow) String() string   { return "receive buffer overflow" }

func (e SubframeOutOfOrder) String() string {
	return fmt.Sprintf("%s subframe %s out of order, %d discarded", e.Command, e.Subframe, e.Discarded)
}

func (e CaptureDataReady) String() string {
	switch e.Mode {
	case msgs.ModePointCloud:
		return fmt.Sprintf("frame #%d: %d points", e.Seq, len(e.Points))
	case msgs.ModeObjectTracking:
		return fmt.Sprintf("frame #%d: %d objects", e.Seq, len(e.Objects))
	}
	return fmt.Sprintf("frame #%d: %d raw bytes", e.Seq, len(e.Raw))
}

func (e ConfigApplied) String() string {
	return "config applied " + e.Field.String()
}

func (e DeviceMessage) String() string {
	return fmt.Sprintf("device %s: %s", e.Message.Type, e.Message.Text)
}

func (e CapacityExceeded) String() string {
	return e.Command.String() + ": " + e.Err.Error()
}

func (e ProtocolError) String() string {
	return e.Command.String() + ": " + e.Err.Error()
}

func (e StaleResponse) String() string {
	return "stale response " + e.Command.String()
}

func (e StatsUpdated) String() string {
	return "stats " + e.Command.String()
}

func (e PowerStatusChanged) String() string {
	return fmt.Sprintf("power good=%v", e.Good)
}

func (e UnknownCommand) String() string {
	return fmt.Sprintf("unknown command 0x%02x", e.Code)
}

func (e CaptureStateChanged) String() string {
	return fmt.Sprintf("capture %s (%s)", e.State, e.Mode)
}
