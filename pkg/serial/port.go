package serial

import (
	"io"
	"time"

	"github.com/golang/glog"
	bugst "go.bug.st/serial"
)

// DefaultReadTimeout bounds a single Read so the reader can poll for
// cancellation.
const DefaultReadTimeout = 100 * time.Millisecond

// Port is an open serial port.
type Port interface {
	io.ReadWriteCloser
}

// Open opens the serial port at path. The returned port returns from Read
// with no data after DefaultReadTimeout.
func Open(path string, opts PortOptions) (Port, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := bugst.Open(path, mode)
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(DefaultReadTimeout); err != nil {
		port.Close()
		return nil, err
	}
	glog.Infof("serial %s opened: %s", path, opts)
	return port, nil
}

// Ports lists the serial ports available.
func Ports() ([]string, error) {
	return bugst.GetPortsList()
}
