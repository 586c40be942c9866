package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"reflect"
	"time"

	"github.com/robotalks/radariq.go/pkg/env"
	fx "github.com/robotalks/radariq.go/pkg/framework"
	"github.com/robotalks/radariq.go/pkg/telemetry"
	"github.com/robotalks/radariq.go/pkg/telemetry/mqtt"
	"github.com/robotalks/radariq.go/pkg/telemetry/stream"
)

var (
	mqttURL    = env.Default().MQTTBrokerURL
	deviceID   = "+"
	replayFile string
	discover   bool
	timeout    = mqtt.DefaultDiscoverTimeout
)

func init() {
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&deviceID, "device", deviceID, "Device ID to watch, + for all.")
	flag.StringVar(&replayFile, "file", replayFile, "Print a recorded telemetry file instead of watching.")
	flag.BoolVar(&discover, "discover", discover, "List online devices and exit.")
	flag.DurationVar(&timeout, "timeout", timeout, "Discovery timeout.")
}

func printMessage(source string, msg telemetry.Message) {
	log.Printf("%s: [%s] %s", source,
		reflect.Indirect(reflect.ValueOf(msg)).Type().Name(), msg.String())
}

func replay(fn string) error {
	f, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer f.Close()
	r := stream.NewReader(f)
	for {
		pkt, err := r.ReadPacket()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		msg, err := telemetry.Decode(pkt)
		if err != nil {
			log.Printf("%s: bad message: %v", fn, err)
			continue
		}
		printMessage(fn, msg)
	}
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	if replayFile != "" {
		if err := replay(replayFile); err != nil {
			log.Fatalln(err)
		}
		return
	}

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	defer q.Close()

	if discover {
		ctx, cancel := context.WithTimeout(context.Background(), timeout+time.Second)
		defer cancel()
		metas, err := mqtt.Discover(ctx, q, timeout)
		if err != nil {
			log.Fatalln(err)
		}
		for _, meta := range metas {
			log.Printf("%s: port=%s firmware=%s hardware=%s serial=%s",
				meta.DeviceID, meta.Port, meta.Firmware, meta.Hardware, meta.Serial)
		}
		return
	}

	subs := mqtt.Watch(q, deviceID, func(id string, msg telemetry.Message) {
		printMessage(id, msg)
	})
	defer mqtt.CloseAll(subs)
	<-fx.NewRunner().HandleSignals().Context.Done()
}
