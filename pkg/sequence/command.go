// Package sequence parses move sequences such as "w5aw10ds4f" into commands.
package sequence

import (
	"fmt"
	"strings"
	"time"
)

// Action is an abstract robot maneuver.
type Action int

// Actions in the move-sequence language.
const (
	Forward Action = iota
	Reverse
	TurnLeft
	TurnRight
	AboutFace
	Stop
)

func (a Action) String() string {
	switch a {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	case TurnLeft:
		return "turn_left"
	case TurnRight:
		return "turn_right"
	case AboutFace:
		return "about_face"
	case Stop:
		return "stop"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Letter returns the canonical lowercase letter for the action, or 0 for
// actions that have no letter (Stop).
func (a Action) Letter() byte {
	switch a {
	case Forward:
		return 'w'
	case Reverse:
		return 's'
	case TurnLeft:
		return 'a'
	case TurnRight:
		return 'd'
	case AboutFace:
		return 'f'
	}
	return 0
}

// Timed reports whether the action is held for a host-side duration.
func (a Action) Timed() bool {
	return a == Forward || a == Reverse
}

// actionFor maps a motion letter (either case) to its action.
func actionFor(c rune) (Action, bool) {
	switch c {
	case 'w', 'W':
		return Forward, true
	case 's', 'S':
		return Reverse, true
	case 'a', 'A':
		return TurnLeft, true
	case 'd', 'D':
		return TurnRight, true
	case 'f', 'F':
		return AboutFace, true
	}
	return 0, false
}

// Command is an action paired with its optional hold duration.
type Command struct {
	Action      Action
	Duration    time.Duration
	HasDuration bool
	// Pos is the byte offset of the motion letter in the input.
	Pos int
}

// Hold returns a timed command.
func Hold(a Action, d time.Duration) Command {
	return Command{Action: a, Duration: d, HasDuration: true}
}

// Do returns an untimed command.
func Do(a Action) Command {
	return Command{Action: a}
}

// Seconds returns the hold duration in whole seconds.
func (c Command) Seconds() int {
	return int(c.Duration / time.Second)
}

// Equal compares action and duration, ignoring Pos.
func (c Command) Equal(o Command) bool {
	return c.Action == o.Action && c.HasDuration == o.HasDuration && c.Duration == o.Duration
}

func (c Command) String() string {
	l := c.Action.Letter()
	if l == 0 {
		return c.Action.String()
	}
	if c.HasDuration {
		return fmt.Sprintf("%c%d", l, c.Seconds())
	}
	return string(l)
}

// Format renders commands back into canonical sequence text.
func Format(cmds []Command) string {
	var sb strings.Builder
	for _, c := range cmds {
		sb.WriteString(c.String())
	}
	return sb.String()
}
