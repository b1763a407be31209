package robot

import (
	"errors"
	"fmt"

	"github.com/gwillem/roomba/pkg/oi"
)

// ErrNotReady is returned by drive commands sent before Init.
var ErrNotReady = errors.New("robot not started")

// TransportError is a failed or short write on the serial channel.
type TransportError struct {
	Op     string
	Packet oi.Packet
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: write %s [%s]: %v", e.Op, e.Packet.Opcode(), e.Packet, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
