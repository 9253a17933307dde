package joymixer

import (
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/kafka"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/observability"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/opcua"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/websocket"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/app/config"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/app/mixer"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// MixerConfig holds the mixing matrix, axis/button indices and scale.
	MixerConfig = mixer.Config
	// InputConfig selects the joystick transport and delivery policy.
	InputConfig = config.InputConfig
	// OutputConfig selects the actuator command transport.
	OutputConfig = config.OutputConfig
	// KafkaConfig holds broker details shared by the Kafka source and sink.
	KafkaConfig = kafka.Config
	// WebsocketConfig configures the websocket joystick listener.
	WebsocketConfig = websocket.Config
	// OPCUAConfig holds connection + node details.
	OPCUAConfig = opcua.Config
	// OPCUANodeConfig maps a tag onto an axis or button slot.
	OPCUANodeConfig = opcua.NodeConfig
	// HistoryConfig configures the optional command history store.
	HistoryConfig = config.HistoryConfig
	// Policy controls history WAL/queue thresholds.
	Policy = ports.Policy
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// WALConfig configures on-disk durability of the history pipeline.
	WALConfig = config.WALConfig
	// LogConfig selects log level and format.
	LogConfig = observability.LogConfig
)

var (
	// ErrInvalidConfig wraps statically detectable mixer configuration mistakes.
	ErrInvalidConfig = mixer.ErrInvalidConfig
	// ErrIndexOutOfRange is reported when an event lacks a configured axis or button.
	ErrIndexOutOfRange = mixer.ErrIndexOutOfRange
)

const (
	TransportWebsocket = config.TransportWebsocket
	TransportKafka     = config.TransportKafka
	TransportOPCUA     = config.TransportOPCUA
	TransportStdout    = config.TransportStdout
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// ParseConfig decodes YAML held in memory.
func ParseConfig(raw []byte) (*Config, error) {
	return config.Parse(raw)
}

// DefaultConfig returns the stock configuration: four actuators, websocket in,
// Kafka out, history disabled.
func DefaultConfig() *Config {
	return config.Default()
}
