package mixer

import (
	"fmt"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
)

// Saturation is the upper bound applied to every mixed value before scaling.
// There is deliberately no lower bound.
const Saturation = 1.0

// ComputeMix maps the thrust and yaw axes of ev onto cfg.Actuators() outputs:
//
//	raw[i] = MixThrust[i]*thrust + MixYaw[i]*yaw
//	out[i] = JoyScale * min(raw[i], 1)
//
// It has no side effects.
func ComputeMix(ev *domain.JoystickEvent, cfg *Config) ([]float64, error) {
	out, _, err := computeMix(ev, cfg)
	return out, err
}

// computeMix also reports how many outputs hit the saturation bound.
func computeMix(ev *domain.JoystickEvent, cfg *Config) ([]float64, int, error) {
	if err := checkAxis(ev, cfg.ThrustAxis, "thrust_axis"); err != nil {
		return nil, 0, err
	}
	if err := checkAxis(ev, cfg.YawAxis, "yaw_axis"); err != nil {
		return nil, 0, err
	}

	thrust := ev.Axes[cfg.ThrustAxis]
	yaw := ev.Axes[cfg.YawAxis]

	var saturated int
	out := make([]float64, len(cfg.MixThrust))
	for i := range out {
		raw := cfg.MixThrust[i]*thrust + cfg.MixYaw[i]*yaw
		if raw > Saturation {
			raw = Saturation
			saturated++
		}
		out[i] = cfg.JoyScale * raw
	}
	return out, saturated, nil
}

func checkAxis(ev *domain.JoystickEvent, idx int, name string) error {
	if idx < 0 || idx >= len(ev.Axes) {
		return fmt.Errorf("%w: %s=%d but event has %d axes", ErrIndexOutOfRange, name, idx, len(ev.Axes))
	}
	return nil
}
