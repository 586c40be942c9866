package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/radariq.go/pkg/env"
	fx "github.com/robotalks/radariq.go/pkg/framework"
	"github.com/robotalks/radariq.go/pkg/metrics"
	"github.com/robotalks/radariq.go/pkg/radar"
	"github.com/robotalks/radariq.go/pkg/telemetry"
	"github.com/robotalks/radariq.go/pkg/telemetry/mqtt"
	"github.com/robotalks/radariq.go/pkg/telemetry/stream"
	"github.com/robotalks/radariq.go/pkg/telemetry/websocket"
)

func init() {
	env.SetupFlags()
	env.SetupPublishFlags()
}

// muxes shares one HTTP server between endpoints on the same address.
type muxes map[string]*http.ServeMux

func (m muxes) handle(addr, pattern string, h http.Handler) {
	mux := m[addr]
	if mux == nil {
		mux = http.NewServeMux()
		m[addr] = mux
	}
	mux.Handle(pattern, h)
}

func (m muxes) serve(runner *fx.Runner) {
	for addr, mux := range m {
		srv := &http.Server{Addr: addr, Handler: mux}
		runner.Go(fx.NamedRun("http:"+addr, fx.RunFunc(func(ctx context.Context) error {
			glog.Infof("listening on %s", srv.Addr)
			return fx.RunWithContextCloser(ctx, srv, srv.ListenAndServe)
		})))
	}
}

func main() {
	flag.Parse()
	conf := env.NewConfig()
	runner := fx.NewRunner().HandleSignals()
	servers := make(muxes)

	var (
		writers telemetry.Fanout
		opts    []radar.Option
	)
	if conf.MetricsAddr != "" {
		reg := metrics.NewRegistry()
		opts = append(opts, radar.WithObserver(metrics.New(reg)))
		servers.handle(conf.MetricsAddr, "/metrics", metrics.Handler(reg))
	}
	if conf.WebsocketAddr != "" {
		hub := websocket.NewHub()
		defer hub.Close()
		writers = append(writers, telemetry.Packets{PacketWriter: hub})
		servers.handle(conf.WebsocketAddr, "/telemetry", hub)
	}
	if conf.RecordFile != "" {
		f, err := os.Create(conf.RecordFile)
		if err != nil {
			log.Fatalln(err)
		}
		defer f.Close()
		writers = append(writers, telemetry.Packets{PacketWriter: stream.NewWriter(f)})
	}
	var publisher *mqtt.Publisher
	if conf.MQTTBrokerURL != "" {
		var err error
		publisher, err = mqtt.NewPublisher(conf.MQTTBrokerURL, mqtt.Meta{DeviceID: conf.DeviceID, Port: conf.Port})
		if err != nil {
			log.Fatalln(err)
		}
		writers = append(writers, publisher)
		runner.Go(fx.NamedRun("mqtt", publisher))
	}

	opts = append(opts, radar.WithEventHandler(telemetry.NewPublisher(conf.DeviceID, writers)))
	dev, err := conf.OpenSession(opts...)
	if err != nil {
		log.Fatalln(err)
	}
	runner.Go(dev)
	servers.serve(runner)
	runner.Go(fx.NamedRun("setup", fx.RunFunc(func(ctx context.Context) error {
		info, err := dev.Probe(ctx)
		if err != nil {
			return err
		}
		glog.Infof("radar %s firmware %s hardware %s", info.Serial, info.Firmware, info.Hardware)
		if publisher != nil {
			meta := mqtt.Meta{
				Port:     conf.Port,
				Firmware: info.Firmware,
				Hardware: info.Hardware,
				Serial:   info.Serial,
			}
			if err := publisher.UpdateMeta(meta); err != nil {
				return err
			}
		}
		return dev.Configure(ctx)
	})))

	if err := runner.Wait(); err != nil {
		glog.Error(err)
		glog.Flush()
		os.Exit(1)
	}
}
