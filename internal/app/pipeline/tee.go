package pipeline

import (
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/ports"
)

// TeeSink publishes to the primary sink and copies every command to the
// secondaries. Only the primary's error is returned; secondary failures are
// logged.
type TeeSink struct {
	primary     ports.Sink
	secondaries []ports.Sink
	obs         ports.Observability
}

func NewTeeSink(obs ports.Observability, primary ports.Sink, secondaries ...ports.Sink) *TeeSink {
	return &TeeSink{primary: primary, secondaries: secondaries, obs: obs}
}

func (t *TeeSink) Name() string { return t.primary.Name() }

func (t *TeeSink) Publish(cmd *domain.ActuatorCommand) error {
	err := t.primary.Publish(cmd)
	for _, s := range t.secondaries {
		if serr := s.Publish(cmd); serr != nil {
			t.obs.LogError("secondary_publish_failed", serr,
				ports.Field{Key: "sink", Value: s.Name()},
				ports.Field{Key: "seq", Value: cmd.Seq})
		}
	}
	return err
}

var _ ports.Sink = (*TeeSink)(nil)
