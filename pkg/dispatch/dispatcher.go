// Package dispatch executes parsed move sequences on a robot.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/gwillem/roomba/pkg/metrics"
	"github.com/gwillem/roomba/pkg/robot"
	"github.com/gwillem/roomba/pkg/sequence"
)

// Motion is the set of primitives the dispatcher drives. *robot.Robot
// implements it.
type Motion interface {
	Forward() error
	Reverse() error
	TurnLeft() error
	TurnRight() error
	AboutFace() error
	Stop() error
	Velocity() int
}

var _ Motion = (*robot.Robot)(nil)

// Phase is where in a command a State was taken.
type Phase string

const (
	PhaseHolding  Phase = "holding"
	PhaseDone     Phase = "done"
	PhaseAborted  Phase = "aborted"
	PhaseFinished Phase = "finished"
)

// State is a progress update published while a sequence runs.
type State struct {
	Index     int
	Command   sequence.Command
	Phase     Phase
	Velocity  int
	Timestamp time.Time
	Err       error
}

// ExecError reports the command a sequence failed on.
type ExecError struct {
	Index   int
	Command sequence.Command
	Err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("command %d (%s): %v", e.Index, e.Command, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Dispatcher runs commands strictly in order, holding timed commands on
// the host before stopping them.
type Dispatcher struct {
	motion  Motion
	clock   clock.Clock
	log     *zap.Logger
	stateCh chan State
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock replaces the wall clock used for holds.
func WithClock(c clock.Clock) Option {
	return func(d *Dispatcher) { d.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// New creates a dispatcher for m.
func New(m Motion, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		motion:  m,
		clock:   clock.RealClock{},
		log:     zap.NewNop(),
		stateCh: make(chan State, 1),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// States returns a channel that receives the latest progress update.
// Older updates are dropped if nobody reads them.
func (d *Dispatcher) States() <-chan State {
	return d.stateCh
}

// Execute runs cmds in order. It stops at the first failure and returns
// an *ExecError naming the command. A cancelled ctx is checked between
// commands and during holds, and forces a Stop before returning.
func (d *Dispatcher) Execute(ctx context.Context, cmds []sequence.Command) error {
	start := d.clock.Now()
	d.log.Info("executing sequence", zap.String("sequence", sequence.Format(cmds)), zap.Int("commands", len(cmds)))

	for i, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			return d.abort(i, cmd, err)
		}
		if err := d.execute(ctx, i, cmd); err != nil {
			return d.abort(i, cmd, err)
		}
		metrics.CommandsTotal.WithLabelValues(cmd.Action.String()).Inc()
	}

	d.sendState(State{Index: len(cmds), Phase: PhaseFinished, Velocity: d.motion.Velocity(), Timestamp: d.clock.Now()})
	d.log.Info("sequence complete", zap.Duration("elapsed", d.clock.Since(start)))
	return nil
}

func (d *Dispatcher) execute(ctx context.Context, i int, cmd sequence.Command) error {
	d.log.Debug("command", zap.Int("index", i), zap.Stringer("command", cmd))

	var err error
	switch cmd.Action {
	case sequence.Forward:
		err = d.motion.Forward()
	case sequence.Reverse:
		err = d.motion.Reverse()
	case sequence.TurnLeft:
		err = d.motion.TurnLeft()
	case sequence.TurnRight:
		err = d.motion.TurnRight()
	case sequence.AboutFace:
		err = d.motion.AboutFace()
	case sequence.Stop:
		err = d.motion.Stop()
	default:
		err = fmt.Errorf("unknown action %v", cmd.Action)
	}
	if err != nil {
		return err
	}
	if !cmd.Action.Timed() {
		d.publish(i, cmd, PhaseDone)
		return nil
	}

	d.publish(i, cmd, PhaseHolding)
	if err := robot.Sleep(ctx, d.clock, cmd.Duration); err != nil {
		return err
	}
	if err := d.motion.Stop(); err != nil {
		return err
	}
	d.publish(i, cmd, PhaseDone)
	return nil
}

// abort wraps err for command i. Unless the channel itself failed, the
// robot is told to stop so it is not left driving.
func (d *Dispatcher) abort(i int, cmd sequence.Command, err error) error {
	var te *robot.TransportError
	if !errors.As(err, &te) {
		if stopErr := d.motion.Stop(); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("forced stop: %w", stopErr))
		}
	}

	d.log.Error("sequence aborted", zap.Int("index", i), zap.Stringer("command", cmd), zap.Error(err))
	d.sendState(State{
		Index:     i,
		Command:   cmd,
		Phase:     PhaseAborted,
		Velocity:  d.motion.Velocity(),
		Timestamp: d.clock.Now(),
		Err:       err,
	})
	return &ExecError{Index: i, Command: cmd, Err: err}
}

func (d *Dispatcher) publish(i int, cmd sequence.Command, phase Phase) {
	d.sendState(State{
		Index:     i,
		Command:   cmd,
		Phase:     phase,
		Velocity:  d.motion.Velocity(),
		Timestamp: d.clock.Now(),
	})
}

func (d *Dispatcher) sendState(s State) {
	select {
	case d.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-d.stateCh:
		default:
		}
		select {
		case d.stateCh <- s:
		default:
		}
	}
}
