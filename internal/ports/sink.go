package ports

import "github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"

// Sink accepts actuator commands for delivery. Publish must not block on
// acknowledgement; delivery is best effort.
type Sink interface {
	Publish(cmd *domain.ActuatorCommand) error
	Name() string
}

// BatchSink persists batches of commands (command history).
type BatchSink interface {
	WriteBatch(cmds []*domain.ActuatorCommand) error
	Name() string
}
