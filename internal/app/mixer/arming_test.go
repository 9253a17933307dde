package mixer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
)

func TestUpdateArmState(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name      string
		armed     bool
		pressed   []int
		wantArmed bool
		wantTr    Transition
	}{
		{"arm from disarmed", false, []int{cfg.ArmButton}, true, TransitionArmed},
		{"arm again is a no-op", true, []int{cfg.ArmButton}, true, TransitionNone},
		{"disarm from armed", true, []int{cfg.DisarmButton}, false, TransitionDisarmed},
		{"disarm while disarmed", false, []int{cfg.DisarmButton}, false, TransitionNone},
		{"both from disarmed ends disarmed", false, []int{cfg.ArmButton, cfg.DisarmButton}, false, TransitionNone},
		{"both from armed ends disarmed", true, []int{cfg.ArmButton, cfg.DisarmButton}, false, TransitionDisarmed},
		{"nothing pressed", true, nil, true, TransitionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := ArmState{Armed: tt.armed}
			tr, err := UpdateArmState(joyEvent(0, 0, tt.pressed...), &cfg, &state)
			require.NoError(t, err)
			assert.Equal(t, tt.wantArmed, state.Armed)
			assert.Equal(t, tt.wantTr, tr)
		})
	}
}

func TestUpdateArmStateLevelThreshold(t *testing.T) {
	cfg := DefaultConfig()
	ev := joyEvent(0, 0)

	ev.Buttons[cfg.ArmButton] = 0
	var state ArmState
	_, err := UpdateArmState(ev, &cfg, &state)
	require.NoError(t, err)
	assert.False(t, state.Armed, "level 0 is released")

	ev.Buttons[cfg.ArmButton] = -1
	_, err = UpdateArmState(ev, &cfg, &state)
	require.NoError(t, err)
	assert.False(t, state.Armed, "negative level is released")

	ev.Buttons[cfg.ArmButton] = 2
	_, err = UpdateArmState(ev, &cfg, &state)
	require.NoError(t, err)
	assert.True(t, state.Armed)
}

func TestUpdateArmStateButtonOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	// arm button 7 exists, disarm button 6 exists, but only in a long enough event.
	ev := &domain.JoystickEvent{Axes: make([]float64, 4), Buttons: []int32{0, 0, 0, 0, 0, 0, 0, 1}}
	cfg.DisarmButton = 9

	state := ArmState{}
	_, err := UpdateArmState(ev, &cfg, &state)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.False(t, state.Armed, "state must not change when the event is rejected")
}

func TestTransitionString(t *testing.T) {
	assert.Equal(t, "armed", TransitionArmed.String())
	assert.Equal(t, "disarmed", TransitionDisarmed.String())
	assert.Equal(t, "none", TransitionNone.String())
}
