// Package sim emulates a RadarIQ sensor on the far side of a serial link.
package sim

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/radariq.go/pkg/comm"
	"github.com/robotalks/radariq.go/pkg/msgs"
)

// Emulator limits.
const (
	DefaultSubframePoints  = 20
	DefaultSubframeObjects = 10
	rawFrameSize           = 64
)

// Device is an emulated radar. The host writes command frames with Write
// and reads response and data frames with Read, so a Device can replace
// the serial port of a radar.Session.
type Device struct {
	Scene    *Scene
	Firmware msgs.VersionNumber
	Hardware msgs.VersionNumber
	SBL      msgs.VersionNumber
	App1     msgs.IWRVersionNumber
	App2     msgs.IWRVersionNumber
	Serial   [2]uint32
	// Stats enables PROC_STATS, POWER_STATUS and POINTCLOUD_STATS after
	// each data frame.
	Stats           bool
	MaxPoints       int
	MaxObjects      int
	SubframePoints  int
	SubframeObjects int
	Codec           *comm.Codec

	lock      sync.Mutex
	cond      *sync.Cond
	out       bytes.Buffer
	closed    bool
	parser    *comm.Parser
	settings  Settings
	saved     Settings
	capturing bool
	remaining int
	frames    uint64
	truncated bool
	powerBad  bool
}

// New creates a Device with factory settings and the default scene.
func New() *Device {
	d := &Device{
		Scene:           DefaultScene(),
		Firmware:        msgs.VersionNumber{Major: 1, Minor: 0, Build: 7},
		Hardware:        msgs.VersionNumber{Major: 1, Minor: 2, Build: 0},
		SBL:             msgs.VersionNumber{Major: 1, Minor: 0, Build: 1},
		App1:            msgs.IWRVersionNumber{VersionNumber: msgs.VersionNumber{Major: 1, Minor: 1, Build: 3}, Name: "pointcloud"},
		App2:            msgs.IWRVersionNumber{VersionNumber: msgs.VersionNumber{Major: 1, Minor: 0, Build: 2}, Name: "tracking"},
		Serial:          [2]uint32{0x52494100, 0x00000042},
		MaxPoints:       msgs.DefaultMaxPoints,
		MaxObjects:      msgs.DefaultMaxObjects,
		SubframePoints:  DefaultSubframePoints,
		SubframeObjects: DefaultSubframeObjects,
		parser:          comm.NewParser(comm.DefaultBufferSize),
		settings:        DefaultSettings(),
		saved:           DefaultSettings(),
	}
	d.cond = sync.NewCond(&d.lock)
	return d
}

// Settings returns the current settings.
func (d *Device) Settings() Settings {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.settings
}

// Capturing returns true while data frames are streamed.
func (d *Device) Capturing() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.capturing
}

// Frames returns the number of data frames sent.
func (d *Device) Frames() uint64 {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.frames
}

// Write implements io.Writer, consuming command bytes from the host.
func (d *Device) Write(p []byte) (int, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.closed {
		return 0, io.ErrClosedPipe
	}
	d.parser.Codec = d.Codec
	for _, res := range d.parser.Feed(p) {
		if res.Err != nil {
			glog.V(1).Infof("sim: %v", res.Err)
			continue
		}
		d.handle(*res.Frame)
	}
	return len(p), nil
}

// Read implements io.Reader, blocking until output is available. It
// returns io.EOF once closed and drained.
func (d *Device) Read(p []byte) (int, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	for d.out.Len() == 0 && !d.closed {
		d.cond.Wait()
	}
	if d.out.Len() == 0 {
		return 0, io.EOF
	}
	return d.out.Read(p)
}

// Close implements io.Closer.
func (d *Device) Close() error {
	d.lock.Lock()
	d.closed = true
	d.lock.Unlock()
	d.cond.Broadcast()
	return nil
}

// Inject queues raw bytes for the host, e.g. to test resynchronization.
func (d *Device) Inject(raw []byte) {
	d.lock.Lock()
	d.out.Write(raw)
	d.lock.Unlock()
	d.cond.Broadcast()
}

// SendMessage sends a device MESSAGE frame.
func (d *Device) SendMessage(t msgs.MessageType, code msgs.MessageCode, text string) {
	d.lock.Lock()
	d.message(t, code, text)
	d.lock.Unlock()
}

// SetPowerGood changes the supply state and sends a POWER_STATUS frame.
func (d *Device) SetPowerGood(good bool) {
	d.lock.Lock()
	d.powerBad = !good
	d.sendPowerStatus()
	d.lock.Unlock()
}

// sendPowerStatus reports the supply state, 0 is good.
func (d *Device) sendPowerStatus() {
	var v byte
	if d.powerBad {
		v = 1
	}
	d.send(msgs.CmdPowerStatus, []byte{v})
}

// Tick advances the scene by dt and streams one data frame if capturing.
func (d *Device) Tick(dt time.Duration) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.Scene.Step(dt)
	if d.capturing {
		d.streamFrame()
	}
}

// Run ticks at the configured frame rate until ctx is done.
func (d *Device) Run(ctx context.Context) error {
	for {
		interval := time.Second / time.Duration(max(d.Settings().FrameRate, 1))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
			d.Tick(interval)
		}
	}
}

func (d *Device) send(cmd msgs.Command, payload []byte) {
	f := comm.Frame{Command: cmd.Byte(), Variant: comm.VariantResponse, Payload: payload}
	d.out.Write(d.Codec.Encode(f))
	d.cond.Broadcast()
}

func (d *Device) ack(cmd msgs.Command, ret msgs.ReturnValue) {
	d.send(cmd, []byte{byte(ret)})
}

func (d *Device) message(t msgs.MessageType, code msgs.MessageCode, text string) {
	d.send(msgs.CmdMessage, append([]byte{byte(t), byte(code)}, text...))
}

func (d *Device) handle(f comm.Frame) {
	cmd := msgs.CommandFromByte(f.Command)
	glog.V(2).Infof("sim: RCV %s %s", cmd, f.Variant)
	switch {
	case cmd.IsSetting():
		if f.Variant == comm.VariantSet {
			if err := applySetting(cmd, f.Payload, &d.settings); err != nil {
				d.message(msgs.MessageError, msgs.CodeInvalidValue, err.Error())
				return
			}
		}
		d.send(cmd, settingPayload(cmd, &d.settings))
		return
	}
	switch cmd {
	case msgs.CmdVersion:
		d.send(cmd, appendVersion(appendVersion(nil, d.Firmware), d.Hardware))
	case msgs.CmdSerial:
		d.send(cmd, le.AppendUint32(le.AppendUint32(nil, d.Serial[0]), d.Serial[1]))
	case msgs.CmdIWRVersion:
		d.send(cmd, appendIWRImage(appendIWRImage(appendVersion(nil, d.SBL), d.App1), d.App2))
	case msgs.CmdSave:
		d.saved = d.settings
		d.ack(cmd, msgs.ReturnOK)
	case msgs.CmdReset:
		d.capturing = false
		d.settings = d.saved
		if len(f.Payload) > 0 && msgs.ResetCode(f.Payload[0]) == msgs.ResetFactory {
			d.settings, d.saved = DefaultSettings(), DefaultSettings()
		}
		d.ack(cmd, msgs.ReturnOK)
	case msgs.CmdSceneCalibrate:
		if d.capturing {
			d.ack(cmd, msgs.ReturnErr)
			return
		}
		d.ack(cmd, msgs.ReturnOK)
	case msgs.CmdCaptureStart:
		d.capturing, d.remaining = true, 0
		if len(f.Payload) > 0 {
			d.remaining = int(f.Payload[0])
		}
	case msgs.CmdCaptureStop:
		d.capturing = false
	default:
		d.message(msgs.MessageError, msgs.CodeInvalidCommand, "invalid command")
	}
}

func (d *Device) streamFrame() {
	st := &d.settings
	switch st.Mode {
	case msgs.ModePointCloud:
		var points []msgs.Point
		points, d.truncated = d.Scene.Points(st, d.MaxPoints)
		for _, p := range fragments(points, d.SubframePoints, appendPoint) {
			d.send(msgs.CmdPointCloudFrame, p)
		}
	case msgs.ModeObjectTracking:
		objects := d.Scene.Objects(st, d.MaxObjects)
		for _, p := range fragments(objects, d.SubframeObjects, appendObject) {
			d.send(msgs.CmdObjTrackingFrame, p)
		}
	default:
		raw := make([]byte, rawFrameSize)
		for n := range raw {
			raw[n] = byte(d.frames) + byte(n)
		}
		d.send(msgs.CmdRawData, raw)
	}
	d.frames++
	if d.Stats {
		d.sendStats()
	}
	if d.remaining > 0 {
		if d.remaining--; d.remaining == 0 {
			d.capturing = false
		}
	}
}

func (d *Device) sendStats() {
	var b []byte
	for _, v := range []uint32{35, 12, 4200, 900, 15000, 120, 3100} {
		b = le.AppendUint32(b, v)
	}
	for n := 0; n < 10; n++ {
		b = le.AppendUint16(b, uint16(40+n))
	}
	d.send(msgs.CmdProcessingStats, b)
	d.sendPowerStatus()
	if d.settings.Mode != msgs.ModePointCloud {
		return
	}
	b = b[:0]
	for _, v := range []uint32{800, 150, 300, 2500, 80, 64} {
		b = le.AppendUint32(b, v)
	}
	var truncated byte
	if d.truncated {
		truncated = 1
	}
	d.send(msgs.CmdPointCloudStats, append(b, 0, truncated))
}
