package robot

import (
	"fmt"

	"github.com/gwillem/roomba/pkg/oi"
)

// Forward drives straight at the default speed until the next command.
func (r *Robot) Forward() error {
	return r.drive("forward", r.speed, oi.RadiusStraight)
}

// Reverse drives straight backwards at the default speed.
func (r *Robot) Reverse() error {
	return r.drive("reverse", -r.speed, oi.RadiusStraight)
}

// TurnLeft spins counter-clockwise in place by the calibrated angle and
// stops. The robot waits on its own odometry, not the host.
func (r *Robot) TurnLeft() error {
	return r.spin("turn_left", oi.RadiusSpinLeft, r.calibration.TurnAngle)
}

// TurnRight spins clockwise in place by the calibrated angle and stops.
func (r *Robot) TurnRight() error {
	return r.spin("turn_right", oi.RadiusSpinRight, -r.calibration.TurnAngle)
}

// AboutFace issues four right turns back to back, nearly a full spin with the
// default 84° calibration.
func (r *Robot) AboutFace() error {
	for i := 0; i < 4; i++ {
		if err := r.TurnRight(); err != nil {
			return err
		}
	}
	return nil
}

// Stop halts both wheels.
func (r *Robot) Stop() error {
	return r.drive("stop", 0, 0)
}

// BackOneStep reverses by the calibrated step distance and stops.
func (r *Robot) BackOneStep() error {
	if err := r.Reverse(); err != nil {
		return err
	}
	if err := r.write("back_one_step", oi.WaitDistance(-r.calibration.BackStepDistance)); err != nil {
		return err
	}
	return r.Stop()
}

func (r *Robot) spin(op string, radius, angle int16) error {
	if err := r.drive(op, r.speed, radius); err != nil {
		return err
	}
	if err := r.write(op, oi.WaitAngle(angle)); err != nil {
		return err
	}
	return r.Stop()
}

func (r *Robot) drive(op string, velocity, radius int16) error {
	if err := r.ready(op); err != nil {
		return err
	}
	return r.write(op, oi.Drive(velocity, radius))
}

func (r *Robot) ready(op string) error {
	if !r.Ready() {
		return fmt.Errorf("%s in %s mode: %w", op, r.lifecycle.Current(), ErrNotReady)
	}
	return nil
}
