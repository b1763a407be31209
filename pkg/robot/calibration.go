package robot

import (
	"fmt"
	"time"
)

// Calibration holds the tunable constants that compensate for the robot's
// mechanics.
type Calibration struct {
	// TurnAngle is the odometry angle, in degrees, waited on for a quarter
	// turn. Wheel slip makes 84 look like 90.
	TurnAngle int16 `json:"turn_angle"`
	// BackStepDistance is how far BackOneStep reverses, in mm.
	BackStepDistance int16 `json:"back_step_distance"`
	// StartDelayMs and ModeDelayMs are the pauses after Start and SetMode.
	StartDelayMs int `json:"start_delay_ms"`
	ModeDelayMs  int `json:"mode_delay_ms"`
}

// DefaultCalibration returns the factory values.
func DefaultCalibration() Calibration {
	return Calibration{
		TurnAngle:        84,
		BackStepDistance: 305,
		StartDelayMs:     1000,
		ModeDelayMs:      2000,
	}
}

// StartDelay returns the pause after the Start opcode.
func (c Calibration) StartDelay() time.Duration {
	return time.Duration(c.StartDelayMs) * time.Millisecond
}

// ModeDelay returns the pause after a mode change.
func (c Calibration) ModeDelay() time.Duration {
	return time.Duration(c.ModeDelayMs) * time.Millisecond
}

// Validate checks the values are physically sensible.
func (c Calibration) Validate() error {
	if c.TurnAngle <= 0 || c.TurnAngle > 360 {
		return fmt.Errorf("turn angle %d out of range (0, 360]", c.TurnAngle)
	}
	if c.BackStepDistance < 0 {
		return fmt.Errorf("back step distance %d must not be negative", c.BackStepDistance)
	}
	if c.StartDelayMs < 0 || c.ModeDelayMs < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	return nil
}

// IsZero reports whether no calibration was configured.
func (c Calibration) IsZero() bool {
	return c == Calibration{}
}
