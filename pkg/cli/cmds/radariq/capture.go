package radariq

import (
	"github.com/abiosoft/ishell"

	"github.com/robotalks/radariq.go/pkg/cli/sh"
)

var (
	// CaptureCmd starts streaming.
	CaptureCmd = ishell.Cmd{
		Name:    "capture",
		Aliases: []string{"start"},
		Help:    "[FRAMES] start capture, 0 or none streams until stopped",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			var frames uint64
			if len(c.Args) > 0 {
				var err error
				if frames, err = parseUint(c.Args, 0, "FRAMES", 8); err != nil {
					c.Err(err)
					return
				}
			}
			if err := sh.SessionFrom(c).StartCapture(uint8(frames)); err != nil {
				c.Err(err)
			}
		}),
	}

	// StopCmd stops streaming.
	StopCmd = ishell.Cmd{
		Name: "stop",
		Help: "stop capture",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if err := sh.SessionFrom(c).StopCapture(); err != nil {
				c.Err(err)
			}
		}),
	}

	// StateCmd prints the capture state.
	StateCmd = ishell.Cmd{
		Name: "state",
		Help: "capture state",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			c.Println(sh.SessionFrom(c).State().String())
		}),
	}
)

func init() {
	sh.AddCmds(
		&GetCmd,
		&SetCmd,
		&SettingsCmd,
		&ConfigCmd,
		&VersionCmd,
		&IWRVersionCmd,
		&SerialCmd,
		&SaveCmd,
		&ResetCmd,
		&CalibrateCmd,
		&StatsCmd,
		&TempsCmd,
		&PowerCmd,
		&CaptureCmd,
		&StopCmd,
		&StateCmd,
	)
}
