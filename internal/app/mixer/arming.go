package mixer

import (
	"fmt"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
)

// ArmState is the single safety flag. The zero value is disarmed.
type ArmState struct {
	Armed bool
}

// Transition is the net effect of one event on the arm state.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionArmed
	TransitionDisarmed
)

func (t Transition) String() string {
	switch t {
	case TransitionArmed:
		return "armed"
	case TransitionDisarmed:
		return "disarmed"
	default:
		return "none"
	}
}

// UpdateArmState applies the arm rule and then the disarm rule to state. The
// disarm rule observes the arm rule's write, so an event holding both buttons
// leaves a disarmed vehicle disarmed. Indices are checked before any write.
func UpdateArmState(ev *domain.JoystickEvent, cfg *Config, state *ArmState) (Transition, error) {
	if err := checkButton(ev, cfg.ArmButton, "arm_button"); err != nil {
		return TransitionNone, err
	}
	if err := checkButton(ev, cfg.DisarmButton, "disarm_button"); err != nil {
		return TransitionNone, err
	}

	was := state.Armed
	if !state.Armed && ev.Pressed(cfg.ArmButton) {
		state.Armed = true
	}
	if state.Armed && ev.Pressed(cfg.DisarmButton) {
		state.Armed = false
	}

	switch {
	case !was && state.Armed:
		return TransitionArmed, nil
	case was && !state.Armed:
		return TransitionDisarmed, nil
	default:
		return TransitionNone, nil
	}
}

func checkButton(ev *domain.JoystickEvent, idx int, name string) error {
	if idx < 0 || idx >= len(ev.Buttons) {
		return fmt.Errorf("%w: %s=%d but event has %d buttons", ErrIndexOutOfRange, name, idx, len(ev.Buttons))
	}
	return nil
}
