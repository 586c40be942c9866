// Package sh provides the interactive radar shell.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"reflect"
	"sync/atomic"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/radariq.go/pkg/env"
	"github.com/robotalks/radariq.go/pkg/msgs"
	"github.com/robotalks/radariq.go/pkg/radar"
	"github.com/robotalks/radariq.go/pkg/serial"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoOpen    bool

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *Conn

	watch atomic.Bool
}

// Conn is an opened device running in the background.
type Conn struct {
	Ctx    context.Context
	Cancel func()
	Device *env.Device

	done chan error
}

const (
	shellKey     = "$shell"
	closedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&PortsCmd,
		&OpenCmd,
		&CloseCmd,
		&WatchCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// SessionFrom gets the session of the opened device.
func SessionFrom(c *ishell.Context) *radar.Session {
	return ShellFrom(c).Conn.Device.Session
}

// MustBeOpen wraps command func requiring an opened device.
func MustBeOpen(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("device not opened"))
			return
		}
		fn(c)
	}
}

// WithAutoOpen sets AutoOpen.
func (s *Shell) WithAutoOpen(en bool) *Shell {
	s.AutoOpen = en
	return s
}

// Print prints a value as JSON or in text.
func (s *Shell) Print(c *ishell.Context, v interface{}) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	if stringer, ok := v.(fmt.Stringer); ok {
		c.Println(stringer.String())
		return
	}
	c.Printf("%s %+v\n", reflect.Indirect(reflect.ValueOf(v)).Type().Name(), v)
}

// Await waits for the response of a pending command and prints it.
func Await(c *ishell.Context, p *radar.Pending, err error) error {
	if err != nil {
		c.Err(err)
		return err
	}
	s := ShellFrom(c)
	ctx, cancel := s.Conn.Device.CommandContext(s.Conn.Ctx)
	defer cancel()
	resp, err := p.Wait(ctx)
	if err != nil {
		c.Err(fmt.Errorf("%s: %w", p.Command(), err))
		return err
	}
	if ack, ok := resp.(msgs.Ack); ok && !s.OutputJSON {
		c.Println(ack.Return.String())
		return nil
	}
	s.Print(c, resp)
	return nil
}

// Open opens the device on port and runs it in background.
func (s *Shell) Open(port string) error {
	conf := *s.Config
	conf.Port = port
	d, err := conf.OpenSession(radar.WithEventHandler(radar.HandleEventFunc(s.handleEvent)))
	if err != nil {
		return err
	}
	s.Close()
	conn := &Conn{Device: d, done: make(chan error, 1)}
	conn.Ctx, conn.Cancel = context.WithCancel(context.Background())
	go func() {
		err := d.Run(conn.Ctx)
		if err != nil {
			glog.Errorf("%s: %v", port, err)
		}
		conn.done <- err
	}()
	s.Conn = conn
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", port))
	return nil
}

// Close closes the opened device.
func (s *Shell) Close() {
	if s.Conn != nil {
		s.Conn.Cancel()
		<-s.Conn.done
		s.Conn = nil
		s.Shell.SetPrompt(closedPrompt)
	}
}

func (s *Shell) handleEvent(ev radar.Event) {
	switch e := ev.(type) {
	case radar.DeviceMessage:
		s.Shell.Printf("\n%s\n", e)
	case radar.CaptureDataReady, radar.CaptureStateChanged:
		if s.watch.Load() {
			s.Shell.Printf("\n%s\n", e)
		}
	case radar.ChecksumError, radar.MalformedFrame, radar.BufferOverflow,
		radar.SubframeOutOfOrder, radar.CapacityExceeded, radar.ProtocolError:
		glog.Warning(e)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoOpen && s.Config.Port != "" {
		if err := s.Open(s.Config.Port); err != nil {
			log.Fatalf("open %q failed: %v", s.Config.Port, err)
		}
		defer s.Close()
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"l"},
		Help:    "list serial ports",
		Func: func(c *ishell.Context) {
			ports, err := serial.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if ShellFrom(c).OutputJSON {
				ShellFrom(c).Print(c, append([]string{}, ports...))
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// OpenCmd opens a device.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "PORT, or sim for the emulator",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("PORT required"))
				return
			}
			if err := ShellFrom(c).Open(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the device.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "close the device",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}

	// WatchCmd toggles printing of capture data.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[on|off] print capture frames",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			on := !s.watch.Load()
			if len(c.Args) > 0 {
				on = c.Args[0] == "on"
			}
			s.watch.Store(on)
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoOpen(true).Run(flag.Args()...)
}
