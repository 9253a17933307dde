package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/kafka"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/observability"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/opcua"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/websocket"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/app/mixer"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/ports"
)

const (
	EnvKafkaBrokers         = "JOYMIX_KAFKA_BROKERS"
	EnvHistoryConnString    = "JOYMIX_HISTORY_CONN_STRING"
	EnvMetricsAddr          = "JOYMIX_METRICS_ADDR"
	EnvLogLevel             = "JOYMIX_LOG_LEVEL"
	TransportWebsocket      = "websocket"
	TransportKafka          = "kafka"
	TransportOPCUA          = "opcua"
	TransportStdout         = "stdout"
	defaultInputChannel     = "/joy"
	defaultOutputChannel    = "/actuators"
	defaultHistoryTableName = "actuator_commands"
)

type Config struct {
	Mixer   mixer.Config            `yaml:"mixer"`
	Input   InputConfig             `yaml:"input"`
	Output  OutputConfig            `yaml:"output"`
	Kafka   kafka.Config            `yaml:"kafka"`
	History HistoryConfig           `yaml:"history"`
	Metrics MetricsConfig           `yaml:"metrics"`
	Logging observability.LogConfig `yaml:"logging"`
}

type InputConfig struct {
	Channel    string           `yaml:"channel"`
	Transport  string           `yaml:"transport"` // websocket, kafka, opcua
	QueueDepth int              `yaml:"queue_depth"`
	OnFull     string           `yaml:"on_full"` // drop, block
	Websocket  websocket.Config `yaml:"websocket"`
	OPCUA      opcua.Config     `yaml:"opcua"`
}

type OutputConfig struct {
	Channel   string `yaml:"channel"`
	Transport string `yaml:"transport"` // kafka, stdout
}

type HistoryConfig struct {
	Enabled    bool         `yaml:"enabled"`
	ConnString string       `yaml:"conn_string"`
	Table      string       `yaml:"table"`
	Policy     ports.Policy `yaml:"policy"`
	WAL        WALConfig    `yaml:"wal"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type WALConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns a fully defaulted configuration, as if loaded from an
// empty file.
func Default() *Config {
	cfg := &Config{Mixer: mixer.DefaultConfig()}
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes raw YAML, applies environment overrides and defaults, and
// validates the result.
func Parse(raw []byte) (*Config, error) {
	// seeded so that an explicit index 0 is distinguishable from "unset"
	cfg := Config{Mixer: mixer.DefaultConfig()}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvKafkaBrokers); ok && v != "" {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		c.Kafka.Brokers = brokers
	}
	if v, ok := os.LookupEnv(EnvHistoryConnString); ok && v != "" {
		c.History.ConnString = v
	}
	if v, ok := os.LookupEnv(EnvMetricsAddr); ok && v != "" {
		c.Metrics.Addr = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) applyDefaults() {
	if c.Input.Channel == "" {
		c.Input.Channel = defaultInputChannel
	}
	if c.Input.Transport == "" {
		c.Input.Transport = TransportWebsocket
	}
	if c.Input.QueueDepth <= 0 {
		c.Input.QueueDepth = 1
	}
	if c.Input.OnFull == "" {
		c.Input.OnFull = "drop"
	}
	if c.Output.Channel == "" {
		c.Output.Channel = defaultOutputChannel
	}
	if c.Output.Transport == "" {
		c.Output.Transport = TransportKafka
	}

	pol := &c.History.Policy
	if pol.MaxWALSizeBytes == 0 {
		pol.MaxWALSizeBytes = 1 << 30
	}
	if pol.MaxQueueLen == 0 {
		pol.MaxQueueLen = 10_000
	}
	if pol.MaxBatchSize == 0 {
		pol.MaxBatchSize = 500
	}
	if pol.IdleSleep == 0 {
		pol.IdleSleep = 5 * time.Millisecond
	}
	// the control path must never stall on the history store
	if pol.OnQueueFull == "" {
		pol.OnQueueFull = "drop"
	}
	if pol.OnWALFull == "" {
		pol.OnWALFull = "drop"
	}
	if c.History.Table == "" {
		c.History.Table = defaultHistoryTableName
	}
	if c.History.WAL.Dir == "" {
		c.History.WAL.Dir = "./data/wal"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	c.Kafka.ApplyDefaults()
	c.Input.Websocket.ApplyDefaults()
	c.Input.OPCUA.ApplyDefaults()
}

func (c *Config) Validate() error {
	if err := c.Mixer.Validate(); err != nil {
		return fmt.Errorf("mixer config: %w", err)
	}

	if c.Input.Channel == "" {
		return fmt.Errorf("input.channel is required")
	}
	if c.Input.QueueDepth < 1 {
		return fmt.Errorf("input.queue_depth must be >= 1")
	}
	if c.Input.OnFull != "drop" && c.Input.OnFull != "block" {
		return fmt.Errorf("input.on_full must be drop or block, got %q", c.Input.OnFull)
	}
	switch c.Input.Transport {
	case TransportWebsocket:
		if err := c.Input.Websocket.Validate(); err != nil {
			return fmt.Errorf("input.websocket config: %w", err)
		}
	case TransportKafka:
		if err := c.Kafka.Validate(); err != nil {
			return fmt.Errorf("kafka config: %w", err)
		}
	case TransportOPCUA:
		if err := c.Input.OPCUA.Validate(); err != nil {
			return fmt.Errorf("input.opcua config: %w", err)
		}
	default:
		return fmt.Errorf("input.transport %q is not supported", c.Input.Transport)
	}

	if c.Output.Channel == "" {
		return fmt.Errorf("output.channel is required")
	}
	switch c.Output.Transport {
	case TransportKafka:
		if err := c.Kafka.Validate(); err != nil {
			return fmt.Errorf("kafka config: %w", err)
		}
	case TransportStdout:
	default:
		return fmt.Errorf("output.transport %q is not supported", c.Output.Transport)
	}

	if c.History.Enabled {
		if c.History.ConnString == "" {
			return fmt.Errorf("history.conn_string is required")
		}
		if c.History.WAL.Dir == "" {
			return fmt.Errorf("history.wal.dir is required")
		}
		if err := validatePolicy(c.History.Policy); err != nil {
			return fmt.Errorf("history.policy: %w", err)
		}
	}

	if c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	return nil
}

func validatePolicy(p ports.Policy) error {
	if p.MaxQueueLen <= 0 {
		return fmt.Errorf("max_queue_len must be > 0")
	}
	if p.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be > 0")
	}
	switch p.OnWALFull {
	case "drop", "block":
	default:
		return fmt.Errorf("on_wal_full %q is not supported", p.OnWALFull)
	}
	switch p.OnQueueFull {
	case "drop", "reject", "block":
	default:
		return fmt.Errorf("on_queue_full %q is not supported", p.OnQueueFull)
	}
	return nil
}
