package radariq

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/radariq.go/pkg/cli/sh"
	"github.com/robotalks/radariq.go/pkg/env"
	"github.com/robotalks/radariq.go/pkg/msgs"
	"github.com/robotalks/radariq.go/pkg/radar"
)

// setting binds a shell name to a configuration command.
type setting struct {
	cmd  msgs.Command
	args string
	set  func(s *radar.Session, args []string) (*radar.Pending, error)
}

var settings = map[string]setting{
	"rate": {msgs.CmdFrameRate, "FPS", func(s *radar.Session, args []string) (*radar.Pending, error) {
		v, err := parseUint(args, 0, "FPS", 8)
		if err != nil {
			return nil, err
		}
		return s.SetFrameRate(uint8(v))
	}},
	"mode": {msgs.CmdMode, "pointcloud|objects|raw", func(s *radar.Session, args []string) (*radar.Pending, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("MODE required")
		}
		mode, err := env.ParseCaptureMode(args[0])
		if err != nil {
			return nil, err
		}
		return s.SetMode(mode)
	}},
	"distance": {msgs.CmdDistanceFilter, "MIN MAX (mm)", func(s *radar.Session, args []string) (*radar.Pending, error) {
		min, err := parseUint(args, 0, "MIN", 16)
		if err != nil {
			return nil, err
		}
		max, err := parseUint(args, 1, "MAX", 16)
		if err != nil {
			return nil, err
		}
		return s.SetDistanceFilter(uint16(min), uint16(max))
	}},
	"angle": {msgs.CmdAngleFilter, "MIN MAX (degrees)", func(s *radar.Session, args []string) (*radar.Pending, error) {
		min, err := parseInt(args, 0, "MIN", 8)
		if err != nil {
			return nil, err
		}
		max, err := parseInt(args, 1, "MAX", 8)
		if err != nil {
			return nil, err
		}
		return s.SetAngleFilter(int8(min), int8(max))
	}},
	"moving": {msgs.CmdMovingFilter, "both|moving", func(s *radar.Session, args []string) (*radar.Pending, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("MODE required")
		}
		switch strings.ToLower(args[0]) {
		case "both", "0":
			return s.SetMovingFilter(msgs.MovingBoth)
		case "moving", "1":
			return s.SetMovingFilter(msgs.MovingObjectsOnly)
		}
		return nil, fmt.Errorf("invalid moving filter %q", args[0])
	}},
	"density": {msgs.CmdPointDensity, "0|1|2", func(s *radar.Session, args []string) (*radar.Pending, error) {
		v, err := parseUint(args, 0, "DENSITY", 8)
		if err != nil {
			return nil, err
		}
		return s.SetPointDensity(msgs.Density(v))
	}},
	"certainty": {msgs.CmdCertainty, "0-9", func(s *radar.Session, args []string) (*radar.Pending, error) {
		v, err := parseUint(args, 0, "LEVEL", 8)
		if err != nil {
			return nil, err
		}
		return s.SetCertainty(uint8(v))
	}},
	"height": {msgs.CmdHeightFilter, "MIN MAX (mm)", func(s *radar.Session, args []string) (*radar.Pending, error) {
		min, err := parseInt(args, 0, "MIN", 16)
		if err != nil {
			return nil, err
		}
		max, err := parseInt(args, 1, "MAX", 16)
		if err != nil {
			return nil, err
		}
		return s.SetHeightFilter(int16(min), int16(max))
	}},
	"objsize": {msgs.CmdObjectSize, "0-4", func(s *radar.Session, args []string) (*radar.Pending, error) {
		v, err := parseUint(args, 0, "SIZE", 8)
		if err != nil {
			return nil, err
		}
		return s.SetObjectSize(uint8(v))
	}},
}

func settingNames() []string {
	names := make([]string, 0, len(settings))
	for name := range settings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupSetting(c *ishell.Context) (setting, []string, bool) {
	if len(c.Args) < 1 {
		c.Err(fmt.Errorf("SETTING required: %s", strings.Join(settingNames(), ", ")))
		return setting{}, nil, false
	}
	st, ok := settings[c.Args[0]]
	if !ok {
		c.Err(fmt.Errorf("unknown setting %q", c.Args[0]))
		return setting{}, nil, false
	}
	return st, c.Args[1:], true
}

func parseUint(args []string, n int, name string, bits int) (uint64, error) {
	if n >= len(args) {
		return 0, fmt.Errorf("%s required", name)
	}
	v, err := strconv.ParseUint(args[n], 10, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

func parseInt(args []string, n int, name string, bits int) (int64, error) {
	if n >= len(args) {
		return 0, fmt.Errorf("%s required", name)
	}
	v, err := strconv.ParseInt(args[n], 10, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

var (
	// GetCmd queries a setting from the device.
	GetCmd = ishell.Cmd{
		Name:    "get",
		Aliases: []string{"g"},
		Help:    "SETTING",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if st, _, ok := lookupSetting(c); ok {
				p, err := sh.SessionFrom(c).Request(st.cmd)
				sh.Await(c, p, err)
			}
		}),
	}

	// SetCmd changes a setting on the device.
	SetCmd = ishell.Cmd{
		Name:    "set",
		Aliases: []string{"s"},
		Help:    "SETTING VALUE...",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if st, args, ok := lookupSetting(c); ok {
				p, err := st.set(sh.SessionFrom(c), args)
				sh.Await(c, p, err)
			}
		}),
	}

	// SettingsCmd lists the settings and their arguments.
	SettingsCmd = ishell.Cmd{
		Name: "settings",
		Help: "list settings",
		Func: func(c *ishell.Context) {
			for _, name := range settingNames() {
				c.Printf("%-10s %s\n", name, settings[name].args)
			}
		},
	}

	// ConfigCmd prints the last known configuration.
	ConfigCmd = ishell.Cmd{
		Name: "config",
		Help: "print the configuration known to the session",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			conf := sh.SessionFrom(c).Config()
			s := sh.ShellFrom(c)
			if s.OutputJSON {
				s.Print(c, conf)
				return
			}
			for _, name := range settingNames() {
				field, _ := radar.FieldOf(settings[name].cmd)
				c.Printf("%-10s %s\n", name, conf.Describe(field))
			}
		}),
	}
)
