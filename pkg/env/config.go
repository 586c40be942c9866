// Package env sets up a radar session and its surroundings from flags
// and environment variables.
package env

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robotalks/radariq.go/pkg/msgs"
	"github.com/robotalks/radariq.go/pkg/serial"
)

// SimPort selects the in-process emulator instead of a serial port.
const SimPort = "sim"

// DefaultMQTTBrokerURL is used by watchers when no broker is configured.
const DefaultMQTTBrokerURL = "mqtt://localhost:1883/radariq/"

// Defaults
const (
	DefaultCommandTimeout = time.Second
)

// CaptureConfig selects what is streamed after startup.
type CaptureConfig struct {
	// Mode is applied before capture when Enabled.
	Mode    msgs.CaptureMode
	Enabled bool
	// NumFrames stops the capture after the count, 0 streams forever.
	NumFrames uint
}

// Config provides common options to open a radar and publish its data.
type Config struct {
	Port   string
	Serial serial.PortOptions

	// MQTTBrokerURL specifies the MQTT broker to publish telemetry,
	// e.g. mqtt://host:port/topic-prefix. Empty disables MQTT.
	MQTTBrokerURL  string
	WebsocketAddr  string
	MetricsAddr    string
	RecordFile     string
	CommandTimeout time.Duration
	Capture        CaptureConfig
	DeviceID       string
	PointCapacity  int
	ObjectCapacity int
}

var defaultConfig = Config{
	Port:           "/dev/ttyUSB0",
	Serial:         serial.PortOptions{BaudRate: serial.DefaultBaudRate, DataBits: 8, StopBits: 1},
	CommandTimeout: DefaultCommandTimeout,
	PointCapacity:  msgs.DefaultMaxPoints,
	ObjectCapacity: msgs.DefaultMaxObjects,
}

func init() {
	if err := defaultConfig.LoadEnv(os.LookupEnv); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	defaultConfig.DeviceID = MachineID()
}

// LoadEnv overrides the config with environment variables.
func (c *Config) LoadEnv(lookup func(string) (string, bool)) error {
	if val, ok := lookup("RADARIQ_PORT"); ok && val != "" {
		c.Port = val
	}
	if val, ok := lookup("RADARIQ_BAUD"); ok && val != "" {
		baud, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("RADARIQ_BAUD %q: %w", val, err)
		}
		c.Serial.BaudRate = baud
	}
	if val, ok := lookup("RADARIQ_MQTT_URL"); ok {
		c.MQTTBrokerURL = val
	}
	if val, ok := lookup("RADARIQ_WS_ADDR"); ok {
		c.WebsocketAddr = val
	}
	if val, ok := lookup("RADARIQ_METRICS_ADDR"); ok {
		c.MetricsAddr = val
	}
	return nil
}

// SetupFlags sets command line flags for opening the device.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial port of the radar, \"sim\" for the emulator.")
	flag.IntVar(&defaultConfig.Serial.BaudRate, "baud", defaultConfig.Serial.BaudRate, "Serial baud rate.")
	flag.DurationVar(&defaultConfig.CommandTimeout, "timeout", defaultConfig.CommandTimeout, "Timeout waiting for a command response.")
	flag.StringVar(&defaultConfig.DeviceID, "id", defaultConfig.DeviceID, "Device ID used in telemetry.")
	flag.IntVar(&defaultConfig.PointCapacity, "max-points", defaultConfig.PointCapacity, "Maximum points in a point cloud frame.")
	flag.IntVar(&defaultConfig.ObjectCapacity, "max-objects", defaultConfig.ObjectCapacity, "Maximum objects in an object tracking frame.")
}

// SetupPublishFlags sets command line flags for publishing telemetry.
func SetupPublishFlags() {
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL to publish telemetry.")
	flag.StringVar(&defaultConfig.WebsocketAddr, "ws", defaultConfig.WebsocketAddr, "Listen address streaming telemetry over websocket.")
	flag.StringVar(&defaultConfig.MetricsAddr, "metrics", defaultConfig.MetricsAddr, "Listen address exposing /metrics.")
	flag.StringVar(&defaultConfig.RecordFile, "record", defaultConfig.RecordFile, "File to record telemetry into.")
	flag.Var((*captureFlag)(&defaultConfig.Capture), "capture", "Start capture after startup: pointcloud, objects or raw.")
	flag.UintVar(&defaultConfig.Capture.NumFrames, "frames", defaultConfig.Capture.NumFrames, "Number of frames to capture, 0 is unlimited.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

var captureModeNames = map[string]msgs.CaptureMode{
	"pointcloud": msgs.ModePointCloud,
	"objects":    msgs.ModeObjectTracking,
	"raw":        msgs.ModeRawData,
}

// ParseCaptureMode parses a capture mode name.
func ParseCaptureMode(s string) (msgs.CaptureMode, error) {
	if mode, ok := captureModeNames[strings.ToLower(s)]; ok {
		return mode, nil
	}
	if n, err := strconv.ParseUint(s, 10, 8); err == nil && n <= uint64(msgs.ModeRawData) {
		return msgs.CaptureMode(n), nil
	}
	return 0, fmt.Errorf("unknown capture mode %q", s)
}

// CaptureModeName is the reverse of ParseCaptureMode.
func CaptureModeName(mode msgs.CaptureMode) string {
	for name, m := range captureModeNames {
		if m == mode {
			return name
		}
	}
	return mode.String()
}

type captureFlag CaptureConfig

func (f *captureFlag) String() string {
	if f == nil || !f.Enabled {
		return ""
	}
	return CaptureModeName(f.Mode)
}

func (f *captureFlag) Set(s string) error {
	mode, err := ParseCaptureMode(s)
	if err != nil {
		return err
	}
	f.Mode, f.Enabled = mode, true
	return nil
}
