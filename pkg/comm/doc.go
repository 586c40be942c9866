// Package comm provides the RadarIQ serial frame protocol.
package comm

// The protocol is communicated between the radar firmware and the host
// over a UART and focuses on recovering from corrupted or partial frames
// on a noisy peer-to-peer channel.
//
// A frame on the wire is:
//
//   HEAD | escape(command, variant, payload..., crc_hi, crc_lo) | FOOT
//
// HEAD, FOOT and ESC never appear inside the escaped body. Any body byte
// equal to one of them is sent as ESC followed by the byte XOR'ed with
// the escape constant. The checksum covers the unescaped command, variant
// and payload bytes.
//
// Producer: radar firmware (and host for requests)
// Consumer: host driver (and radar firmware for requests)
