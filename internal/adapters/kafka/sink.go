package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/wire"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/ports"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink publishes actuator commands to a Kafka topic. The writer runs in
// async mode so Publish never waits for broker acknowledgement.
type Sink struct {
	topic  string
	writer messageWriter
}

func NewSink(cfg Config, channel string) (*Sink, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	topic, err := wire.TopicName(channel)
	if err != nil {
		return nil, err
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		Async:                  true,
		AllowAutoTopicCreation: true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				slog.Warn("kafka_publish_failed", "topic", topic, "messages", len(msgs), "error", err)
			}
		},
	}
	return newSink(topic, w), nil
}

func newSink(topic string, w messageWriter) *Sink {
	return &Sink{topic: topic, writer: w}
}

func (s *Sink) Name() string { return "kafka:" + s.topic }

func (s *Sink) Publish(cmd *domain.ActuatorCommand) error {
	value, err := wire.EncodeCommand(cmd)
	if err != nil {
		return fmt.Errorf("encode command %d: %w", cmd.Seq, err)
	}
	return s.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(cmd.Header.FrameID),
		Value: value,
		Time:  cmd.Header.Stamp,
	})
}

func (s *Sink) Close() error {
	return s.writer.Close()
}

var _ ports.Sink = (*Sink)(nil)
