package joymixer

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/wire"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
)

var (
	// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
	ErrChannelSinkClosed = errors.New("joymixer: channel sink closed")
	// ErrChannelSinkFull is returned when the consumer of a channel sink falls behind.
	ErrChannelSinkFull = errors.New("joymixer: channel sink full")
	// ErrChannelSourceStarted is returned when a channel source is started twice.
	ErrChannelSourceStarted = errors.New("joymixer: channel source already started")
)

// CommandHandler is invoked with every emitted actuator command.
type CommandHandler func(*ActuatorCommand) error

// NewCallbackSink adapts a CommandHandler into a full Sink implementation so
// callers can plug arbitrary functions without defining structs.
func NewCallbackSink(name string, fn CommandHandler) Sink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes commands via a channel; it returns the sink, the
// read-only channel, and a close function that the caller should invoke
// during shutdown. The control loop never waits on the consumer: when the
// buffer is full the command is reported as a publish failure.
func NewChannelSink(name string, buffer int) (Sink, <-chan *ActuatorCommand, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan *ActuatorCommand, buffer)
	s := &channelSink{
		name: name,
		ch:   ch,
	}
	return s, ch, func() { s.close() }
}

// NewWriterSink writes each command as a JSON line to w.
func NewWriterSink(name string, w io.Writer) Sink {
	if name == "" {
		name = "writer"
	}
	return &writerSink{name: name, w: w}
}

// NewChannelSource turns a caller-owned channel into a Source. The source
// stops when in is closed or Stop is called.
func NewChannelSource(in <-chan *JoystickEvent) Source {
	return &channelSource{in: in, stop: make(chan struct{})}
}

type callbackSink struct {
	name string
	fn   CommandHandler
}

func (s *callbackSink) Publish(cmd *domain.ActuatorCommand) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	return s.fn(cmd)
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	mu     sync.Mutex
	ch     chan *ActuatorCommand
	closed bool
}

func (s *channelSink) Publish(cmd *domain.ActuatorCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrChannelSinkClosed
	}

	select {
	case s.ch <- cmd:
		return nil
	default:
		return ErrChannelSinkFull
	}
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

type writerSink struct {
	name string
	mu   sync.Mutex
	w    io.Writer
}

func (s *writerSink) Publish(cmd *domain.ActuatorCommand) error {
	b, err := wire.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(append(b, '\n'))
	return err
}

func (s *writerSink) Name() string { return s.name }

type channelSource struct {
	in       <-chan *JoystickEvent
	stop     chan struct{}
	stopOnce sync.Once
	mu       sync.Mutex
	started  bool
	done     chan struct{}
}

func (s *channelSource) Start(out chan<- *domain.JoystickEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrChannelSourceStarted
	}
	s.started = true
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		for {
			select {
			case <-s.stop:
				return
			case ev, ok := <-s.in:
				if !ok {
					return
				}
				select {
				case out <- ev:
				case <-s.stop:
					return
				}
			}
		}
	}()
	return nil
}

func (s *channelSource) Stop() error {
	s.stopOnce.Do(func() { close(s.stop) })
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
	return nil
}
