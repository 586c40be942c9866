package telemetry

import (
	"sync"

	"github.com/robotalks/radariq.go/pkg/msgs"
	"github.com/robotalks/radariq.go/pkg/radar"
)

// Converter turns session events into telemetry messages and keeps the
// device status in between.
type Converter struct {
	DeviceID string

	lock   sync.Mutex
	status DeviceStatus
}

// NewConverter creates a Converter.
func NewConverter(deviceID string) *Converter {
	return &Converter{DeviceID: deviceID, status: DeviceStatus{DeviceID: deviceID, PowerGood: true}}
}

// Status returns a copy of the current status.
func (c *Converter) Status() *DeviceStatus {
	c.lock.Lock()
	defer c.lock.Unlock()
	status := c.status
	status.DeviceID = c.DeviceID
	return &status
}

// Convert returns the message for an event, nil if the event is not
// published.
func (c *Converter) Convert(ev radar.Event) Message {
	switch e := ev.(type) {
	case radar.CaptureDataReady:
		return c.frame(e)
	case radar.DeviceMessage:
		return &DeviceLog{
			DeviceID: c.DeviceID,
			Type:     uint32(e.Message.Type),
			Code:     uint32(e.Message.Code),
			Text:     e.Message.Text,
		}
	case radar.CaptureStateChanged:
		return c.updateStatus(func(s *DeviceStatus) {
			s.Capturing = e.State == radar.StateCapturing
			s.Mode = uint32(e.Mode)
		})
	case radar.PowerStatusChanged:
		return c.updateStatus(func(s *DeviceStatus) { s.PowerGood = e.Good })
	case radar.ChecksumError, radar.MalformedFrame, radar.BufferOverflow,
		radar.SubframeOutOfOrder, radar.CapacityExceeded, radar.ProtocolError:
		c.lock.Lock()
		c.status.Errors++
		c.lock.Unlock()
	}
	return nil
}

func (c *Converter) updateStatus(update func(*DeviceStatus)) Message {
	c.lock.Lock()
	update(&c.status)
	c.lock.Unlock()
	return c.Status()
}

func (c *Converter) frame(e radar.CaptureDataReady) Message {
	ts := e.At.UnixNano()
	switch e.Mode {
	case msgs.ModePointCloud:
		m := &PointCloud{DeviceID: c.DeviceID, Seq: e.Seq, TimestampNs: ts, Points: make([]*Point, len(e.Points))}
		for n, p := range e.Points {
			m.Points[n] = &Point{
				X:         int32(p.X),
				Y:         int32(p.Y),
				Z:         int32(p.Z),
				Intensity: uint32(p.Intensity),
				Velocity:  int32(p.Velocity),
			}
		}
		return m
	case msgs.ModeObjectTracking:
		m := &ObjectTracking{DeviceID: c.DeviceID, Seq: e.Seq, TimestampNs: ts, Objects: make([]*TrackedObject, len(e.Objects))}
		for n, o := range e.Objects {
			m.Objects[n] = &TrackedObject{
				TargetID: uint32(o.TargetID),
				XPos:     int32(o.XPos),
				YPos:     int32(o.YPos),
				ZPos:     int32(o.ZPos),
				XVel:     int32(o.XVel),
				YVel:     int32(o.YVel),
				ZVel:     int32(o.ZVel),
				XAcc:     int32(o.XAcc),
				YAcc:     int32(o.YAcc),
				ZAcc:     int32(o.ZAcc),
			}
		}
		return m
	}
	return &RawFrame{DeviceID: c.DeviceID, Seq: e.Seq, TimestampNs: ts, Data: e.Raw}
}
