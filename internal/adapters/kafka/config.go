package kafka

import (
	"errors"
	"time"
)

// Config captures the broker connection shared by the Kafka source and sink.
type Config struct {
	Brokers      []string      `yaml:"brokers"`
	GroupID      string        `yaml:"group_id"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

func (c *Config) ApplyDefaults() {
	if len(c.Brokers) == 0 {
		c.Brokers = []string{"localhost:9092"}
	}
	if c.GroupID == "" {
		c.GroupID = "joymix"
	}
	if c.BatchTimeout <= 0 {
		// actuator commands are latency sensitive; do not wait to fill batches
		c.BatchTimeout = time.Millisecond
	}
}

func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("at least one broker is required")
	}
	for _, b := range c.Brokers {
		if b == "" {
			return errors.New("broker address must not be empty")
		}
	}
	return nil
}
