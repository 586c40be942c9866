package radariq

import (
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/radariq.go/pkg/cli/sh"
	"github.com/robotalks/radariq.go/pkg/msgs"
	"github.com/robotalks/radariq.go/pkg/radar"
)

// awaitCmd builds a command func issuing a request and printing the reply.
func awaitCmd(issue func(c *ishell.Context, s *radar.Session) (*radar.Pending, error)) func(c *ishell.Context) {
	return sh.MustBeOpen(func(c *ishell.Context) {
		p, err := issue(c, sh.SessionFrom(c))
		sh.Await(c, p, err)
	})
}

var (
	// VersionCmd queries firmware and hardware versions.
	VersionCmd = ishell.Cmd{
		Name:    "version",
		Aliases: []string{"ver"},
		Help:    "firmware and hardware versions",
		Func: awaitCmd(func(c *ishell.Context, s *radar.Session) (*radar.Pending, error) {
			return s.Request(msgs.CmdVersion)
		}),
	}

	// IWRVersionCmd queries the radar chip image versions.
	IWRVersionCmd = ishell.Cmd{
		Name: "iwr",
		Help: "radar chip image versions",
		Func: awaitCmd(func(c *ishell.Context, s *radar.Session) (*radar.Pending, error) {
			return s.Request(msgs.CmdIWRVersion)
		}),
	}

	// SerialCmd queries the serial number.
	SerialCmd = ishell.Cmd{
		Name:    "serial",
		Aliases: []string{"sn"},
		Help:    "serial number",
		Func: awaitCmd(func(c *ishell.Context, s *radar.Session) (*radar.Pending, error) {
			return s.Request(msgs.CmdSerial)
		}),
	}

	// SaveCmd persists the settings on the device.
	SaveCmd = ishell.Cmd{
		Name: "save",
		Help: "persist settings",
		Func: awaitCmd(func(c *ishell.Context, s *radar.Session) (*radar.Pending, error) {
			return s.Save()
		}),
	}

	// ResetCmd reboots the device or restores factory settings.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Help: "[factory]",
		Func: awaitCmd(func(c *ishell.Context, s *radar.Session) (*radar.Pending, error) {
			code := msgs.ResetReboot
			if len(c.Args) > 0 {
				if c.Args[0] != "factory" {
					return nil, fmt.Errorf("unknown reset %q", c.Args[0])
				}
				code = msgs.ResetFactory
			}
			return s.Reset(code)
		}),
	}

	// CalibrateCmd runs the scene calibration.
	CalibrateCmd = ishell.Cmd{
		Name:    "calibrate",
		Aliases: []string{"calib"},
		Help:    "scene calibration, keep the field of view empty",
		Func: awaitCmd(func(c *ishell.Context, s *radar.Session) (*radar.Pending, error) {
			return s.SceneCalibrate()
		}),
	}

	// StatsCmd prints the last statistics streamed during capture.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "processing and point cloud statistics",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			s, session := sh.ShellFrom(c), sh.SessionFrom(c)
			if stats, err := session.ProcessingStats(); err == nil {
				s.Print(c, stats)
			} else {
				c.Println("processing stats:", err)
			}
			if stats, err := session.PointCloudStats(); err == nil {
				s.Print(c, stats)
			} else {
				c.Println("point cloud stats:", err)
			}
		}),
	}

	// TempsCmd prints the chip temperatures.
	TempsCmd = ishell.Cmd{
		Name:    "temps",
		Aliases: []string{"temp"},
		Help:    "radar chip temperatures",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			temps, err := sh.SessionFrom(c).ChipTemperatures()
			if err != nil {
				c.Err(err)
				return
			}
			sh.ShellFrom(c).Print(c, temps)
		}),
	}

	// PowerCmd prints the power status.
	PowerCmd = ishell.Cmd{
		Name: "power",
		Help: "power status",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			good, err := sh.SessionFrom(c).PowerGood()
			if err != nil {
				c.Err(err)
				return
			}
			if good {
				c.Println("GOOD")
			} else {
				c.Println("BAD")
			}
		}),
	}
)
