package comm

// Checksum computes the frame check value over the unescaped
// command, variant and payload bytes.
type Checksum interface {
	// Size is the number of checksum bytes on the wire, 1 or 2.
	Size() int
	// Sum calculates the check value.
	Sum(data []byte) uint16
}

// CRC16 is CRC-16/CCITT-FALSE (poly 0x1021, init 0xffff) as computed
// by the radar firmware. It's sent high byte first.
type CRC16 struct{}

// Size implements Checksum.
func (CRC16) Size() int { return 2 }

// Sum implements Checksum.
func (CRC16) Sum(data []byte) uint16 {
	crc := uint16(0xffff)
	for _, b := range data {
		x := byte(crc>>8) ^ b
		x ^= x >> 4
		crc = (crc << 8) ^ (uint16(x) << 12) ^ (uint16(x) << 5) ^ uint16(x)
	}
	return crc
}

// XOR8 is the single byte XOR of all bytes.
type XOR8 struct{}

// Size implements Checksum.
func (XOR8) Size() int { return 1 }

// Sum implements Checksum.
func (XOR8) Sum(data []byte) uint16 {
	var x byte
	for _, b := range data {
		x ^= b
	}
	return uint16(x)
}

func putChecksum(dst []byte, size int, sum uint16) []byte {
	if size == 1 {
		return append(dst, byte(sum))
	}
	return append(dst, byte(sum>>8), byte(sum))
}

func readChecksum(src []byte) uint16 {
	if len(src) == 1 {
		return uint16(src[0])
	}
	return uint16(src[0])<<8 | uint16(src[1])
}
