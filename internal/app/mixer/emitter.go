package mixer

import (
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/ports"
)

// Emitter packages mixed values into commands and hands them to the sink.
// Delivery is fire-and-forget: failures are logged and counted only.
type Emitter struct {
	frameID string
	clock   ports.Clock
	sink    ports.Sink
	obs     ports.Observability
	seq     uint64
}

func NewEmitter(frameID string, clock ports.Clock, sink ports.Sink, obs ports.Observability) *Emitter {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Emitter{frameID: frameID, clock: clock, sink: sink, obs: obs}
}

func (e *Emitter) Emit(mix []float64) {
	e.seq++
	cmd := &domain.ActuatorCommand{
		Header: domain.Header{
			Stamp:   e.clock.Now(),
			FrameID: e.frameID,
		},
		Seq:      e.seq,
		Velocity: mix,
	}

	if err := e.sink.Publish(cmd); err != nil {
		e.obs.IncCounter("joymix_publish_failed_total", 1)
		e.obs.LogError("publish_failed", err,
			ports.Field{Key: "sink", Value: e.sink.Name()},
			ports.Field{Key: "seq", Value: cmd.Seq})
		return
	}
	e.obs.IncCounter("joymix_commands_emitted_total", 1)
}
