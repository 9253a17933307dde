package mixer

import (
	"time"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/ports"
)

// Controller owns the arm state and runs arming gate -> mixer -> emitter for
// each joystick event. It is not safe for concurrent use; a single control
// loop must serialize calls to OnJoystickEvent.
type Controller struct {
	cfg     *Config
	state   ArmState
	emitter *Emitter
	obs     ports.Observability
}

func NewController(cfg *Config, emitter *Emitter, obs ports.Observability) *Controller {
	obs.SetGauge("joymix_armed", 0)
	return &Controller{cfg: cfg, emitter: emitter, obs: obs}
}

// Armed reports the current arm state. Only call from the control loop.
func (c *Controller) Armed() bool { return c.state.Armed }

func (c *Controller) OnJoystickEvent(ev *domain.JoystickEvent) {
	start := time.Now()
	c.obs.IncCounter("joymix_events_total", 1)

	tr, err := UpdateArmState(ev, c.cfg, &c.state)
	if err != nil {
		c.obs.RecordDrop(ev, err)
		return
	}
	if tr != TransitionNone {
		c.recordTransition(tr)
	}

	if !c.state.Armed {
		return
	}

	mix, saturated, err := computeMix(ev, c.cfg)
	if err != nil {
		c.obs.RecordDrop(ev, err)
		return
	}
	if saturated > 0 {
		c.obs.IncCounter("joymix_saturated_outputs_total", float64(saturated))
	}

	c.emitter.Emit(mix)
	c.obs.ObserveLatency("joymix_handle_latency_seconds", time.Since(start).Seconds())
}

func (c *Controller) recordTransition(tr Transition) {
	armed := 0.0
	if tr == TransitionArmed {
		armed = 1
	}
	c.obs.SetGauge("joymix_armed", armed)
	c.obs.IncCounter("joymix_arm_transitions_total", 1)
	c.obs.LogInfo("arm_state_changed", ports.Field{Key: "state", Value: tr.String()})
}
