package mqtt

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/radariq.go/pkg/telemetry"
)

// Topic suffixes under <prefix><device>/.
const (
	TopicMeta   = "meta"
	TopicFrames = "frames"
	TopicStatus = "status"
	TopicLog    = "log"
)

// Meta is the retained device description published on <device>/meta.
// The broker clears it through the will when the publisher goes away.
type Meta struct {
	DeviceID string `json:"device-id"`
	Port     string `json:"port,omitempty"`
	Firmware string `json:"firmware,omitempty"`
	Hardware string `json:"hardware,omitempty"`
	Serial   string `json:"serial,omitempty"`
}

// DeviceTopic builds the topic of a device, relative to the prefix.
func DeviceTopic(deviceID, suffix string) string {
	return deviceID + "/" + suffix
}

// TopicFor returns the topic suffix for a telemetry message.
func TopicFor(msg telemetry.Message) string {
	switch msg.(type) {
	case *telemetry.DeviceStatus:
		return TopicStatus
	case *telemetry.DeviceLog:
		return TopicLog
	}
	return TopicFrames
}

// Publisher publishes telemetry of one device. It implements
// telemetry.Writer.
type Publisher struct {
	Queue    *Queue
	DeviceID string

	lock     sync.Mutex
	metaJSON []byte
}

// NewPublisher creates a Publisher.
func NewPublisher(brokerURL string, meta Meta) (*Publisher, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	metaTopic := DeviceTopic(meta.DeviceID, TopicMeta)
	opts.SetBinaryWill(topicPrefix+metaTopic, nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("radariq:" + meta.DeviceID)
	}
	p := &Publisher{Queue: NewQueue(opts, topicPrefix), DeviceID: meta.DeviceID}
	if err := p.setMeta(meta); err != nil {
		return nil, err
	}
	p.Queue.OnConnect = func(*Queue) { p.publishMeta() }
	return p, nil
}

// UpdateMeta replaces the retained meta, e.g. after the versions are
// queried from the device.
func (p *Publisher) UpdateMeta(meta Meta) error {
	meta.DeviceID = p.DeviceID
	if err := p.setMeta(meta); err != nil {
		return err
	}
	if p.Queue.Client.IsConnected() {
		p.publishMeta()
	}
	return nil
}

// WriteMessage implements telemetry.Writer. Frames are published with
// QoS 0; status is retained so new watchers see the latest.
func (p *Publisher) WriteMessage(msg telemetry.Message) error {
	data, err := telemetry.Encode(msg)
	if err != nil {
		return err
	}
	suffix := TopicFor(msg)
	topic := DeviceTopic(p.DeviceID, suffix)
	if suffix == TopicFrames {
		p.Queue.Pub(topic, data)
		return nil
	}
	token := p.Queue.PubWith(topic, data, 1, suffix == TopicStatus)
	token.Wait()
	return token.Error()
}

// Run implements Runnable.
func (p *Publisher) Run(ctx context.Context) error {
	token := p.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	<-ctx.Done()
	p.Queue.PubWith(DeviceTopic(p.DeviceID, TopicMeta), nil, 1, true).Wait()
	return p.Queue.Close()
}

func (p *Publisher) setMeta(meta Meta) error {
	data, err := json.Marshal(&meta)
	if err != nil {
		return err
	}
	p.lock.Lock()
	p.metaJSON = data
	p.lock.Unlock()
	return nil
}

func (p *Publisher) publishMeta() {
	p.lock.Lock()
	data := p.metaJSON
	p.lock.Unlock()
	token := p.Queue.PubWith(DeviceTopic(p.DeviceID, TopicMeta), data, 1, true)
	go func() {
		if token.Wait(); token.Error() != nil {
			glog.Errorf("publish meta: %v", token.Error())
		}
	}()
}
