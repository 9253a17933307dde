package ports

import "github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"

// Source delivers joystick events (websocket, Kafka, OPC UA, in-process
// channels) into the control loop.
type Source interface {
	Start(out chan<- *domain.JoystickEvent) error
	Stop() error
}
