// Package robot drives an iRobot Create/Roomba over its serial Open Interface.
package robot

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/looplab/fsm"
	"go.bug.st/serial"
	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/gwillem/roomba/pkg/oi"
)

// DefaultSpeed is the drive velocity in mm/s until SetDefaultSpeed is called.
const DefaultSpeed = 200

// DefaultBaudRate is the Create's factory serial speed.
const DefaultBaudRate = 57600

// Robot is the execution context for motion primitives: the byte sink,
// the default speed and the OI mode. It is not safe for concurrent use.
type Robot struct {
	w      io.Writer
	closer io.Closer

	speed       int16
	velocity    int16
	calibration Calibration
	mode        oi.Mode
	lifecycle   *fsm.FSM

	clock clock.Clock
	log   *zap.Logger
}

// Option configures a Robot.
type Option func(*Robot)

// WithCalibration overrides the default calibration.
func WithCalibration(c Calibration) Option {
	return func(r *Robot) { r.calibration = c }
}

// WithMode selects the mode Init switches to.
func WithMode(m oi.Mode) Option {
	return func(r *Robot) { r.mode = m }
}

// WithClock replaces the wall clock used for Init delays.
func WithClock(c clock.Clock) Option {
	return func(r *Robot) { r.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Robot) { r.log = l }
}

// New wraps an already configured byte sink.
func New(w io.Writer, opts ...Option) *Robot {
	r := &Robot{
		w:           w,
		speed:       DefaultSpeed,
		calibration: DefaultCalibration(),
		mode:        oi.ModeFull,
		clock:       clock.RealClock{},
		log:         zap.NewNop(),
	}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}
	for _, opt := range opts {
		opt(r)
	}
	r.lifecycle = newLifecycle()
	return r
}

// Open opens the serial port described by cfg and wraps it in a Robot.
func Open(cfg Config, opts ...Option) (*Robot, error) {
	port, err := OpenPort(cfg)
	if err != nil {
		return nil, err
	}
	r, err := FromConfig(port, cfg, opts...)
	if err != nil {
		port.Close()
		return nil, err
	}
	return r, nil
}

// OpenPort opens and configures the serial port only: 8N1 at the
// configured baud rate.
func OpenPort(cfg Config) (serial.Port, error) {
	baud := cfg.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}
	return port, nil
}

// FromConfig wraps w, applying the mode, speed and calibration from cfg.
// opts are applied after the configuration and win over it.
func FromConfig(w io.Writer, cfg Config, opts ...Option) (*Robot, error) {
	mode, err := oi.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	cal := cfg.calibration()
	if err := cal.Validate(); err != nil {
		return nil, fmt.Errorf("calibration: %w", err)
	}

	opts = append([]Option{WithMode(mode), WithCalibration(cal)}, opts...)
	r := New(w, opts...)
	if cfg.DefaultSpeed != 0 {
		if err := r.SetDefaultSpeed(cfg.DefaultSpeed); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Ports lists serial ports that could host a robot.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list ports: %w", err)
	}
	out := ports[:0]
	for _, p := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(p, "Bluetooth") {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Close closes the underlying port, if it can be closed.
func (r *Robot) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Init sends Start, then switches to the configured mode, pausing after
// each so the robot can settle.
func (r *Robot) Init(ctx context.Context) error {
	if err := r.transition(ctx, eventStart, oi.Start()); err != nil {
		return err
	}
	if err := r.sleep(ctx, r.calibration.StartDelay()); err != nil {
		return err
	}
	if err := r.SetMode(ctx, r.mode); err != nil {
		return err
	}
	if err := r.sleep(ctx, r.calibration.ModeDelay()); err != nil {
		return err
	}
	r.log.Info("robot ready", zap.Stringer("mode", r.mode), zap.Int16("speed", r.speed))
	return nil
}

// SetMode switches the OI mode.
func (r *Robot) SetMode(ctx context.Context, m oi.Mode) error {
	event := eventFull
	if m == oi.ModeSafe {
		event = eventSafe
	}
	return r.transition(ctx, event, oi.SetMode(m))
}

// Mode returns the current lifecycle state: off, passive, safe or full.
func (r *Robot) Mode() string {
	return r.lifecycle.Current()
}

// Ready reports whether drive commands are accepted.
func (r *Robot) Ready() bool {
	return r.lifecycle.Is(stateSafe) || r.lifecycle.Is(stateFull)
}

// SetDefaultSpeed changes the velocity used by Forward, Reverse and turns.
func (r *Robot) SetDefaultSpeed(mmPerSec int) error {
	if mmPerSec < 0 || mmPerSec > oi.MaxVelocity {
		return fmt.Errorf("speed %d mm/s out of range [0, %d]", mmPerSec, oi.MaxVelocity)
	}
	r.speed = int16(mmPerSec)
	return nil
}

// Speed returns the default speed in mm/s.
func (r *Robot) Speed() int {
	return int(r.speed)
}

// Velocity returns the last commanded drive velocity in mm/s.
func (r *Robot) Velocity() int {
	return int(r.velocity)
}

// Calibration returns the active calibration.
func (r *Robot) Calibration() Calibration {
	return r.calibration
}

func (r *Robot) write(op string, p oi.Packet) error {
	n, err := r.w.Write(p.Bytes())
	if err == nil && n != p.Len() {
		err = io.ErrShortWrite
	}
	if err != nil {
		return &TransportError{Op: op, Packet: p, Err: err}
	}
	if p.Opcode() == oi.OpDrive {
		r.velocity = p.Operands()[0]
	}
	r.log.Debug("packet written", zap.String("op", op), zap.Stringer("packet", p))
	return nil
}

func (r *Robot) sleep(ctx context.Context, d time.Duration) error {
	return Sleep(ctx, r.clock, d)
}
