// Package metrics exports session counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robotalks/radariq.go/pkg/msgs"
	"github.com/robotalks/radariq.go/pkg/radar"
)

const namespace = "radariq"

// NewRegistry creates a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler serving reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Metrics implements radar.Observer.
type Metrics struct {
	RxBytes        prometheus.Counter
	TxBytes        *prometheus.CounterVec // labels: cmd
	Frames         *prometheus.CounterVec // labels: cmd
	Errors         *prometheus.CounterVec // labels: kind
	DeviceMessages *prometheus.CounterVec // labels: type
	Capturing      prometheus.Gauge
	PowerGood      prometheus.Gauge
	FrameSize      prometheus.Histogram
	DataFrames     prometheus.Counter
}

// New registers and returns the session metrics.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RxBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rx_bytes_total",
			Help:      "Total bytes received from the device.",
		}),
		TxBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_bytes_total",
			Help:      "Total bytes sent to the device by command.",
		}, []string{"cmd"}),
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Valid frames received by command.",
		}, []string{"cmd"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Receive errors by kind.",
		}, []string{"kind"}),
		DeviceMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_messages_total",
			Help:      "Device messages by type.",
		}, []string{"type"}),
		Capturing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "capturing",
			Help:      "1 while capture is in progress.",
		}),
		PowerGood: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "power_good",
			Help:      "1 if the device reports power good.",
		}),
		FrameSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_records",
			Help:      "Points or objects per completed data frame.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64, 128},
		}),
		DataFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "data_frames_total",
			Help:      "Completed data frames.",
		}),
	}
	reg.MustRegister(m.RxBytes, m.TxBytes, m.Frames, m.Errors, m.DeviceMessages,
		m.Capturing, m.PowerGood, m.FrameSize, m.DataFrames)
	return m
}

// ObserveRx implements radar.Observer.
func (m *Metrics) ObserveRx(n int) {
	m.RxBytes.Add(float64(n))
}

// ObserveTx implements radar.Observer.
func (m *Metrics) ObserveTx(cmd msgs.Command, n int) {
	m.TxBytes.WithLabelValues(cmd.String()).Add(float64(n))
}

// ObserveEvent implements radar.Observer.
func (m *Metrics) ObserveEvent(ev radar.Event) {
	switch e := ev.(type) {
	case radar.FrameDecoded:
		m.Frames.WithLabelValues(msgs.CommandFromByte(e.Frame.Command).String()).Inc()
	case radar.ChecksumError:
		m.Errors.WithLabelValues("checksum").Inc()
	case radar.MalformedFrame:
		m.Errors.WithLabelValues("malformed").Inc()
	case radar.BufferOverflow:
		m.Errors.WithLabelValues("overflow").Inc()
	case radar.SubframeOutOfOrder:
		m.Errors.WithLabelValues("out_of_order").Inc()
	case radar.CapacityExceeded:
		m.Errors.WithLabelValues("capacity").Inc()
	case radar.ProtocolError:
		m.Errors.WithLabelValues("protocol").Inc()
	case radar.UnknownCommand:
		m.Errors.WithLabelValues("unknown_command").Inc()
	case radar.StaleResponse:
		m.Errors.WithLabelValues("stale").Inc()
	case radar.DeviceMessage:
		m.DeviceMessages.WithLabelValues(e.Message.Type.String()).Inc()
	case radar.CaptureStateChanged:
		m.Capturing.Set(boolValue(e.State == radar.StateCapturing))
	case radar.PowerStatusChanged:
		m.PowerGood.Set(boolValue(e.Good))
	case radar.CaptureDataReady:
		m.DataFrames.Inc()
		m.FrameSize.Observe(float64(len(e.Points) + len(e.Objects)))
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
