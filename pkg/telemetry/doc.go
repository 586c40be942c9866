// Package telemetry encodes session output for consumers off the device.
//
// Data frames and status changes are converted to protobuf messages, each
// wrapped in a Typed envelope carrying its type ID, and written as packets
// to any number of PacketWriters (MQTT, websocket, record files).
//
// Producer: radariqd
// Consumer: radarmon, browsers, recorded streams
package telemetry
