package radar

import (
	"time"

	"github.com/robotalks/radariq.go/pkg/comm"
	"github.com/robotalks/radariq.go/pkg/msgs"
)

// Observer receives traffic and event notifications, e.g. for metrics.
type Observer interface {
	ObserveRx(n int)
	ObserveTx(cmd msgs.Command, n int)
	ObserveEvent(Event)
}

// DefaultStaleTimeout is how long a cancelled request keeps its place for
// a late response.
const DefaultStaleTimeout = time.Second

// Option configures a Session.
type Option func(*Session)

// WithCodec sets the frame codec used in both directions.
func WithCodec(c *comm.Codec) Option {
	return func(s *Session) { s.codec = c }
}

// WithBufferSize sets the receive buffer capacity.
func WithBufferSize(n int) Option {
	return func(s *Session) { s.bufferSize = n }
}

// WithMaxPoints sets the capacity of a point cloud frame.
func WithMaxPoints(n int) Option {
	return func(s *Session) { s.maxPoints = n }
}

// WithMaxObjects sets the capacity of an object tracking frame.
func WithMaxObjects(n int) Option {
	return func(s *Session) { s.maxObjects = n }
}

// WithEventHandler sets the handler receiving all events.
func WithEventHandler(h EventHandler) Option {
	return func(s *Session) { s.handler = h }
}

// WithObserver sets the traffic observer.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// WithClock overrides the time source for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithStaleTimeout sets how long a cancelled request keeps its place in
// the queue.
func WithStaleTimeout(d time.Duration) Option {
	return func(s *Session) { s.staleTimeout = d }
}
