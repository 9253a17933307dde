package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/wire"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/ports"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Source consumes joystick messages from a Kafka topic.
type Source struct {
	topic     string
	newReader func() messageReader
	reader    messageReader
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	started   bool
}

func NewSource(cfg Config, channel string) (*Source, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	topic, err := wire.TopicName(channel)
	if err != nil {
		return nil, err
	}
	return newSource(topic, func() messageReader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			GroupID:     cfg.GroupID,
			Topic:       topic,
			MinBytes:    1,
			MaxBytes:    1 << 20,
			MaxWait:     50 * time.Millisecond,
			StartOffset: kafka.LastOffset,
		})
	}), nil
}

func newSource(topic string, newReader func() messageReader) *Source {
	return &Source{topic: topic, newReader: newReader}
}

func (s *Source) Start(out chan<- *domain.JoystickEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("kafka source already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.reader = s.newReader()
	s.cancel = cancel
	s.started = true

	s.wg.Add(1)
	go s.consume(ctx, s.reader, out)
	return nil
}

func (s *Source) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	cancel, reader := s.cancel, s.reader
	s.started = false
	s.cancel = nil
	s.reader = nil
	s.mu.Unlock()

	cancel()
	err := reader.Close()
	s.wg.Wait()
	return err
}

func (s *Source) consume(ctx context.Context, r messageReader, out chan<- *domain.JoystickEvent) {
	defer s.wg.Done()

	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			slog.Warn("kafka_read_failed", "topic", s.topic, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		ev, err := wire.DecodeJoystick(msg.Value, msg.Time)
		if err != nil {
			slog.Warn("kafka_message_skipped", "topic", s.topic, "offset", msg.Offset, "error", err)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case out <- ev:
		}
	}
}

var _ ports.Source = (*Source)(nil)
