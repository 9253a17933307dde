package mixer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
)

// joyEvent builds an event with 8 axes and 8 buttons, thrust on axis 1 and
// yaw on axis 3 as in the default config.
func joyEvent(thrust, yaw float64, pressed ...int) *domain.JoystickEvent {
	ev := &domain.JoystickEvent{
		Axes:    make([]float64, 8),
		Buttons: make([]int32, 8),
	}
	ev.Axes[1] = thrust
	ev.Axes[3] = yaw
	for _, b := range pressed {
		ev.Buttons[b] = 1
	}
	return ev
}

func TestComputeMixScenarios(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name        string
		thrust, yaw float64
		want        []float64
	}{
		{"partial stick", 0.5, 0.2, []float64{150, 350, 350, 150}},
		{"full stick saturates", 1.0, 1.0, []float64{0, 500, 500, 0}},
		{"centered", 0, 0, []float64{0, 0, 0, 0}},
		{"full reverse passes through", -1.0, 1.0, []float64{-1000, 0, 0, -1000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeMix(joyEvent(tt.thrust, tt.yaw), &cfg)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-9, "actuator %d", i)
			}
		})
	}
}

func TestComputeMixLengthMatchesActuators(t *testing.T) {
	for n := 1; n <= 8; n++ {
		cfg := DefaultConfig()
		cfg.MixThrust = make([]float64, n)
		cfg.MixYaw = make([]float64, n)
		for i := 0; i < n; i++ {
			cfg.MixThrust[i] = float64(i) / 4
			cfg.MixYaw[i] = -float64(i) / 8
		}
		require.NoError(t, cfg.Validate())

		got, err := ComputeMix(joyEvent(0.3, -0.7), &cfg)
		require.NoError(t, err)
		assert.Len(t, got, n)
	}
}

func TestComputeMixSaturatesUpperBoundOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JoyScale = 10
	cfg.MixThrust = []float64{3, -3, 1}
	cfg.MixYaw = []float64{0, 0, 0}

	got, err := ComputeMix(joyEvent(1, 0), &cfg)
	require.NoError(t, err)

	assert.Equal(t, 10.0, got[0], "raw 3 clamps to 1 before scaling")
	assert.Equal(t, -30.0, got[1], "negative raw is not clamped")
	assert.Equal(t, 10.0, got[2], "raw exactly 1 is unchanged")
}

func TestComputeMixIsPure(t *testing.T) {
	cfg := DefaultConfig()
	ev := joyEvent(0.42, -0.13)

	first, err := ComputeMix(ev, &cfg)
	require.NoError(t, err)
	second, err := ComputeMix(ev, &cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, DefaultConfig(), cfg, "config must not be mutated")
	assert.Equal(t, 0.42, ev.Axes[1], "event must not be mutated")
}

func TestComputeMixAxisOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	ev := &domain.JoystickEvent{Axes: []float64{0, 0.5}, Buttons: make([]int32, 8)}

	_, err := ComputeMix(ev, &cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	assert.Contains(t, err.Error(), "yaw_axis=3")
}
