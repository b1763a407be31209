package oi

import "fmt"

// packetLen returns the encoded length for an opcode, or 0 if unknown.
func packetLen(op Opcode) int {
	switch op {
	case OpStart, OpSafe, OpFull:
		return 1
	case OpWaitDistance, OpWaitAngle:
		return 3
	case OpDrive:
		return 5
	}
	return 0
}

// Decode splits a byte stream written by this package back into packets.
func Decode(b []byte) ([]Packet, error) {
	var out []Packet
	for i := 0; i < len(b); {
		n := packetLen(Opcode(b[i]))
		if n == 0 {
			return out, fmt.Errorf("unknown opcode 0x%02x at offset %d", b[i], i)
		}
		if i+n > len(b) {
			return out, fmt.Errorf("truncated %s packet at offset %d", Opcode(b[i]), i)
		}
		p := make([]byte, n)
		copy(p, b[i:i+n])
		out = append(out, Packet{b: p})
		i += n
	}
	return out, nil
}
