package mixer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned at startup for statically detectable
	// configuration mistakes.
	ErrInvalidConfig = errors.New("mixer: invalid configuration")
	// ErrIndexOutOfRange is returned when a configured axis or button index
	// does not exist in an incoming event.
	ErrIndexOutOfRange = errors.New("mixer: index out of range")
)

// Config is the immutable mixer configuration. It is safe to share across
// goroutines once validated.
type Config struct {
	JoyScale     float64   `yaml:"joy_scale"`
	ThrustAxis   int       `yaml:"thrust_axis"`
	YawAxis      int       `yaml:"yaw_axis"`
	ArmButton    int       `yaml:"arm_button"`
	DisarmButton int       `yaml:"disarm_button"`
	MixThrust    []float64 `yaml:"mix_thrust"`
	MixYaw       []float64 `yaml:"mix_yaw"`
	FrameID      string    `yaml:"frame_id"`
}

// DefaultConfig returns the stock four-actuator differential mix.
func DefaultConfig() Config {
	return Config{
		JoyScale:     500,
		ThrustAxis:   1,
		YawAxis:      3,
		ArmButton:    7,
		DisarmButton: 6,
		MixThrust:    []float64{1, 1, 1, 1},
		MixYaw:       []float64{-1, 1, 1, -1},
		FrameID:      "can0",
	}
}

// Actuators is N, the number of mixer outputs.
func (c Config) Actuators() int { return len(c.MixThrust) }

func (c Config) Validate() error {
	if len(c.MixThrust) == 0 {
		return fmt.Errorf("%w: mix_thrust must have at least one coefficient", ErrInvalidConfig)
	}
	if len(c.MixThrust) != len(c.MixYaw) {
		return fmt.Errorf("%w: mix_thrust has %d coefficients, mix_yaw has %d",
			ErrInvalidConfig, len(c.MixThrust), len(c.MixYaw))
	}
	indices := []struct {
		name string
		idx  int
	}{
		{"thrust_axis", c.ThrustAxis},
		{"yaw_axis", c.YawAxis},
		{"arm_button", c.ArmButton},
		{"disarm_button", c.DisarmButton},
	}
	for _, ix := range indices {
		if ix.idx < 0 {
			return fmt.Errorf("%w: %s must be >= 0, got %d", ErrInvalidConfig, ix.name, ix.idx)
		}
	}
	if c.FrameID == "" {
		return fmt.Errorf("%w: frame_id is required", ErrInvalidConfig)
	}
	return nil
}
