// Package oi encodes iRobot Open Interface packets.
//
// Every constructor returns a fresh Packet; nothing here keeps state or
// touches the serial port.
package oi

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Opcode is the first byte of every packet.
type Opcode byte

// Opcodes used by the move-sequence protocol.
const (
	OpStart        Opcode = 0x80
	OpSafe         Opcode = 0x83
	OpFull         Opcode = 0x84
	OpDrive        Opcode = 0x89
	OpWaitDistance Opcode = 0x9C
	OpWaitAngle    Opcode = 0x9D
)

// Mode is an OI operating mode selected with SetMode.
type Mode byte

const (
	ModeSafe = Mode(OpSafe)
	ModeFull = Mode(OpFull)
)

// Drive radius sentinels.
const (
	RadiusStraight  int16 = 0x7FFF
	RadiusSpinLeft  int16 = 1
	RadiusSpinRight int16 = -1
)

// Velocity limits accepted by the Drive command, in mm/s.
const (
	MinVelocity = -500
	MaxVelocity = 500
)

// Packet is a single encoded OI instruction.
type Packet struct {
	b []byte
}

// Drive encodes opcode 137: velocity (mm/s) then radius (mm).
func Drive(velocity, radius int16) Packet {
	b := make([]byte, 5)
	b[0] = byte(OpDrive)
	binary.BigEndian.PutUint16(b[1:3], uint16(velocity))
	binary.BigEndian.PutUint16(b[3:5], uint16(radius))
	return Packet{b: b}
}

// WaitDistance encodes opcode 156. The robot pauses its script until it
// has travelled distance millimetres (negative when reversing).
func WaitDistance(distance int16) Packet {
	return withOperand(OpWaitDistance, distance)
}

// WaitAngle encodes opcode 157. Positive angles are counter-clockwise.
func WaitAngle(degrees int16) Packet {
	return withOperand(OpWaitAngle, degrees)
}

// SetMode encodes the single-byte Safe or Full mode command.
func SetMode(m Mode) Packet {
	return Packet{b: []byte{byte(m)}}
}

// Start encodes opcode 128.
func Start() Packet {
	return Packet{b: []byte{byte(OpStart)}}
}

func withOperand(op Opcode, v int16) Packet {
	b := make([]byte, 3)
	b[0] = byte(op)
	binary.BigEndian.PutUint16(b[1:3], uint16(v))
	return Packet{b: b}
}

// Opcode returns the packet's opcode.
func (p Packet) Opcode() Opcode {
	if len(p.b) == 0 {
		return 0
	}
	return Opcode(p.b[0])
}

// Bytes returns a copy of the wire bytes.
func (p Packet) Bytes() []byte {
	out := make([]byte, len(p.b))
	copy(out, p.b)
	return out
}

// Len returns the encoded length.
func (p Packet) Len() int {
	return len(p.b)
}

// Operands decodes the 16-bit operands following the opcode.
func (p Packet) Operands() []int16 {
	var ops []int16
	for i := 1; i+1 < len(p.b); i += 2 {
		ops = append(ops, int16(binary.BigEndian.Uint16(p.b[i:i+2])))
	}
	return ops
}

// String renders the packet as space separated hex, e.g. "89 00 c8 7f ff".
func (p Packet) String() string {
	parts := make([]string, len(p.b))
	for i, c := range p.b {
		parts[i] = fmt.Sprintf("%02x", c)
	}
	return strings.Join(parts, " ")
}

func (o Opcode) String() string {
	switch o {
	case OpStart:
		return "start"
	case OpSafe:
		return "safe"
	case OpFull:
		return "full"
	case OpDrive:
		return "drive"
	case OpWaitDistance:
		return "wait_distance"
	case OpWaitAngle:
		return "wait_angle"
	default:
		return fmt.Sprintf("0x%02x", byte(o))
	}
}

func (m Mode) String() string {
	switch m {
	case ModeSafe:
		return "safe"
	case ModeFull:
		return "full"
	default:
		return fmt.Sprintf("mode(0x%02x)", byte(m))
	}
}

// ParseMode maps "safe" or "full" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "safe":
		return ModeSafe, nil
	case "full", "":
		return ModeFull, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}
