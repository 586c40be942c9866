package env

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/golang/glog"

	fx "github.com/robotalks/radariq.go/pkg/framework"
	"github.com/robotalks/radariq.go/pkg/radar"
	"github.com/robotalks/radariq.go/pkg/serial"
	"github.com/robotalks/radariq.go/pkg/sim"
)

// Device is an opened radar with its session.
type Device struct {
	Config  *Config
	Port    io.ReadWriteCloser
	Session *radar.Session
	Pump    *radar.Pump
	// Sim is set when the emulator is used.
	Sim *sim.Device
}

// SessionOptions returns the session options derived from the config.
func (c *Config) SessionOptions() []radar.Option {
	return []radar.Option{
		radar.WithMaxPoints(c.PointCapacity),
		radar.WithMaxObjects(c.ObjectCapacity),
	}
}

// OpenSession opens the port and creates the session. Extra options are
// applied after the config derived ones.
func (c *Config) OpenSession(opts ...radar.Option) (*Device, error) {
	d := &Device{Config: c}
	readTimeout := false
	if c.Port == SimPort {
		d.Sim = sim.New()
		d.Port = d.Sim
		glog.Info("using emulated radar")
	} else {
		port, err := serial.Open(c.Port, c.Serial)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", c.Port, err)
		}
		d.Port, readTimeout = port, true
	}
	d.Session = radar.NewSession(d.Port, append(c.SessionOptions(), opts...)...)
	d.Pump = radar.NewPump(d.Port, d.Session)
	d.Pump.ReadTimeout = readTimeout
	return d, nil
}

// MustOpenSession opens the session and fails on error.
func (c *Config) MustOpenSession(opts ...radar.Option) *Device {
	d, err := c.OpenSession(opts...)
	if err != nil {
		log.Fatalln(err)
	}
	return d
}

// Name implements Named.
func (d *Device) Name() string {
	return "radar:" + d.Config.Port
}

// Run implements Runnable. It feeds the session until ctx is done and
// closes the port.
func (d *Device) Run(ctx context.Context) error {
	defer d.Port.Close()
	runner := fx.NewRunnerWith(ctx)
	runner.Go(fx.NamedRun("pump", fx.RunFunc(d.Pump.Run)))
	if d.Sim != nil {
		runner.Go(fx.NamedRun("sim", fx.RunFunc(d.Sim.Run)))
	}
	return runner.Wait()
}

// CommandContext returns a context bounded by the command timeout.
func (d *Device) CommandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := d.Config.CommandTimeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// Await waits for a pending with the command timeout.
func (d *Device) Await(ctx context.Context, p *radar.Pending) error {
	ctx, cancel := d.CommandContext(ctx)
	defer cancel()
	_, err := p.Wait(ctx)
	return err
}

// Configure applies the capture mode and starts the capture if
// configured.
func (d *Device) Configure(ctx context.Context) error {
	capture := d.Config.Capture
	if !capture.Enabled {
		return nil
	}
	p, err := d.Session.SetMode(capture.Mode)
	if err == nil {
		err = d.Await(ctx, p)
	}
	if err != nil {
		return fmt.Errorf("set mode %s: %w", capture.Mode, err)
	}
	if capture.NumFrames > 255 {
		return fmt.Errorf("frames %d exceeds 255", capture.NumFrames)
	}
	if err := d.Session.StartCapture(uint8(capture.NumFrames)); err != nil {
		return err
	}
	glog.Infof("capture started: %s", capture.Mode)
	return nil
}

// Probe queries the versions and the serial number.
func (d *Device) Probe(ctx context.Context) (info Info, err error) {
	ctx, cancel := d.CommandContext(ctx)
	defer cancel()
	v, err := d.Session.GetVersion(ctx)
	if err != nil {
		return
	}
	sn, err := d.Session.GetSerialNumber(ctx)
	if err != nil {
		return
	}
	info = Info{Firmware: v.Firmware.String(), Hardware: v.Hardware.String(), Serial: fmt.Sprintf("%08x-%08x", sn.A, sn.B)}
	return
}

// Info describes the probed device.
type Info struct {
	Firmware string
	Hardware string
	Serial   string
}
