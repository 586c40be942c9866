package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/radariq.go/pkg/framework"
	"github.com/robotalks/radariq.go/pkg/telemetry"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// MessageHandler receives decoded telemetry of a device.
type MessageHandler func(deviceID string, msg telemetry.Message)

// Watch subscribes the telemetry topics of a device, "+" for all devices.
// Close the returned subscriptions to stop watching.
func Watch(q *Queue, deviceID string, handler MessageHandler) []*Subscription {
	h := func(topic string, payload []byte) {
		if len(payload) == 0 {
			return
		}
		msg, err := telemetry.Decode(payload)
		if err != nil {
			glog.Warningf("decode %q: %v", topic, err)
			return
		}
		handler(strings.SplitN(topic, "/", 2)[0], msg)
	}
	var subs []*Subscription
	for _, suffix := range []string{TopicFrames, TopicStatus, TopicLog} {
		subs = append(subs, q.Sub(DeviceTopic(deviceID, suffix), h))
	}
	return subs
}

// CloseAll closes subscriptions.
func CloseAll(subs []*Subscription) error {
	var errs fx.AggregatedError
	for _, sub := range subs {
		errs.Add(sub.Close())
	}
	return errs.Aggregate()
}

// Discover collects the retained meta of online devices. The queue must
// be connected.
func Discover(ctx context.Context, q *Queue, timeout time.Duration) ([]Meta, error) {
	if timeout <= 0 {
		timeout = DefaultDiscoverTimeout
	}
	metaCh := make(chan Meta, 16)
	sub := q.Sub(DeviceTopic("+", TopicMeta), func(topic string, payload []byte) {
		if len(payload) == 0 {
			return
		}
		var meta Meta
		if err := json.Unmarshal(payload, &meta); err != nil {
			glog.Warningf("meta %q: %v", topic, err)
			return
		}
		select {
		case metaCh <- meta:
		case <-time.After(time.Second):
		}
	})
	defer sub.Close()

	var found []Meta
	expire := time.After(timeout)
	for {
		select {
		case meta := <-metaCh:
			found = append(found, meta)
		case <-expire:
			return found, nil
		case <-ctx.Done():
			return found, ctx.Err()
		}
	}
}
