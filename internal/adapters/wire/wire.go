// Package wire holds the JSON message encoding shared by the network
// transports, and the mapping from channel names to broker topics.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
)

var ErrEmptyChannel = errors.New("wire: empty channel name")

// DecodeJoystick parses a joystick message. A missing stamp is filled with
// now.
func DecodeJoystick(b []byte, now time.Time) (*domain.JoystickEvent, error) {
	var ev domain.JoystickEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return nil, fmt.Errorf("decode joystick message: %w", err)
	}
	if ev.Header.Stamp.IsZero() {
		ev.Header.Stamp = now
	}
	return &ev, nil
}

func EncodeJoystick(ev *domain.JoystickEvent) ([]byte, error) {
	return json.Marshal(ev)
}

func EncodeCommand(c *domain.ActuatorCommand) ([]byte, error) {
	return json.Marshal(c)
}

func DecodeCommand(b []byte) (*domain.ActuatorCommand, error) {
	var c domain.ActuatorCommand
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("decode actuator command: %w", err)
	}
	return &c, nil
}

// TopicName maps a slash separated channel name onto a broker topic:
// "/joy" -> "joy", "/vehicle/actuators" -> "vehicle.actuators".
func TopicName(channel string) (string, error) {
	parts := strings.FieldsFunc(channel, func(r rune) bool { return r == '/' })
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: %q", ErrEmptyChannel, channel)
	}
	return strings.Join(parts, "."), nil
}
