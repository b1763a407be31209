package robot

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/gwillem/roomba/pkg/oi"
)

// OI lifecycle states.
const (
	stateOff     = "off"
	statePassive = "passive"
	stateSafe    = "safe"
	stateFull    = "full"
)

const (
	eventStart = "start"
	eventSafe  = "safe"
	eventFull  = "full"
)

func newLifecycle() *fsm.FSM {
	return fsm.NewFSM(
		stateOff,
		fsm.Events{
			{Name: eventStart, Src: []string{stateOff, statePassive, stateSafe, stateFull}, Dst: statePassive},
			{Name: eventSafe, Src: []string{statePassive, stateSafe, stateFull}, Dst: stateSafe},
			{Name: eventFull, Src: []string{statePassive, stateSafe, stateFull}, Dst: stateFull},
		},
		fsm.Callbacks{},
	)
}

// transition writes p and, once it is on the wire, moves the lifecycle.
func (r *Robot) transition(ctx context.Context, event string, p oi.Packet) error {
	if !r.lifecycle.Can(event) {
		return fmt.Errorf("%s from %s: %w", event, r.lifecycle.Current(), ErrNotReady)
	}
	if err := r.write(event, p); err != nil {
		return err
	}
	err := r.lifecycle.Event(ctx, event)
	var noop fsm.NoTransitionError
	if err != nil && !errors.As(err, &noop) {
		return fmt.Errorf("%s: %w", event, err)
	}
	return nil
}
