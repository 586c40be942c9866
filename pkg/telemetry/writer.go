package telemetry

import (
	"github.com/golang/glog"

	fx "github.com/robotalks/radariq.go/pkg/framework"
	"github.com/robotalks/radariq.go/pkg/radar"
)

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// Writer writes telemetry messages.
type Writer interface {
	WriteMessage(Message) error
}

// Packets writes messages as encoded envelopes.
type Packets struct {
	PacketWriter
}

// WriteMessage implements Writer.
func (w Packets) WriteMessage(msg Message) error {
	data, err := Encode(msg)
	if err != nil {
		return err
	}
	return w.WritePacket(data)
}

// Fanout writes each message to all writers.
type Fanout []Writer

// WriteMessage implements Writer.
func (f Fanout) WriteMessage(msg Message) error {
	var errs fx.AggregatedError
	for _, w := range f {
		errs.Add(w.WriteMessage(msg))
	}
	return errs.Aggregate()
}

// Publisher publishes session events, it implements radar.EventHandler.
type Publisher struct {
	Converter *Converter
	Writer    Writer
}

// NewPublisher creates a Publisher.
func NewPublisher(deviceID string, w Writer) *Publisher {
	return &Publisher{Converter: NewConverter(deviceID), Writer: w}
}

// HandleEvent implements radar.EventHandler.
func (p *Publisher) HandleEvent(ev radar.Event) {
	msg := p.Converter.Convert(ev)
	if msg == nil {
		return
	}
	if err := p.Writer.WriteMessage(msg); err != nil {
		glog.Errorf("publish %T: %v", msg, err)
	}
}
