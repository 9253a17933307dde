package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/ports"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []*domain.JoystickEvent
}

func (h *recordingHandler) OnJoystickEvent(ev *domain.JoystickEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func TestRunControlLoopDrainsUntilClosed(t *testing.T) {
	in := make(chan *domain.JoystickEvent, 3)
	in <- &domain.JoystickEvent{Axes: []float64{0.1}}
	in <- nil
	in <- &domain.JoystickEvent{Axes: []float64{0.2}}
	close(in)

	h := &recordingHandler{}
	RunControlLoop(context.Background(), in, h)

	require.Len(t, h.events, 2)
	assert.Equal(t, 0.1, h.events[0].Axes[0])
	assert.Equal(t, 0.2, h.events[1].Axes[0])
}

func TestRunControlLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunControlLoop(ctx, make(chan *domain.JoystickEvent), &recordingHandler{})
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("control loop did not stop after cancel")
	}
}

func TestForwardWithPolicyDropKeepsLatest(t *testing.T) {
	src := make(chan *domain.JoystickEvent, 3)
	dst := make(chan *domain.JoystickEvent, 1)
	obs := &mockObs{}

	for i := 1; i <= 3; i++ {
		src <- &domain.JoystickEvent{Axes: []float64{float64(i)}}
	}
	close(src)

	ForwardWithPolicy(context.Background(), src, dst, "drop", nil, obs)

	var got []*domain.JoystickEvent
	for ev := range dst {
		got = append(got, ev)
	}
	require.Len(t, got, 1)
	assert.Equal(t, 3.0, got[0].Axes[0])
	assert.Equal(t, 2.0, obs.counter("joymix_input_dropped_total"))
}

func TestForwardWithPolicyBlockDeliversAll(t *testing.T) {
	src := make(chan *domain.JoystickEvent)
	dst := make(chan *domain.JoystickEvent, 1)
	obs := &mockObs{}

	go ForwardWithPolicy(context.Background(), src, dst, "block", nil, obs)
	go func() {
		for i := 1; i <= 5; i++ {
			src <- &domain.JoystickEvent{Axes: []float64{float64(i)}}
		}
		close(src)
	}()

	var got []float64
	for ev := range dst {
		got = append(got, ev.Axes[0])
	}
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, got)
	assert.Zero(t, obs.counter("joymix_input_dropped_total"))
}

func TestForwardWithPolicyDropNeverDiscardsKeptEvent(t *testing.T) {
	const disarm = 6
	src := make(chan *domain.JoystickEvent)
	dst := make(chan *domain.JoystickEvent, 1)
	obs := &mockObs{}

	press := func(buttons ...int) *domain.JoystickEvent {
		ev := &domain.JoystickEvent{Buttons: make([]int32, 8)}
		for _, b := range buttons {
			ev.Buttons[b] = 1
		}
		return ev
	}
	keep := func(ev *domain.JoystickEvent) bool { return ev.Pressed(disarm) }

	go ForwardWithPolicy(context.Background(), src, dst, "drop", keep, obs)

	src <- press()
	src <- press(disarm)
	sent := make(chan struct{})
	go func() {
		src <- press()
		src <- press()
		close(src)
		close(sent)
	}()

	select {
	case <-sent:
		t.Fatal("release was delivered over a pending disarm press")
	case <-time.After(50 * time.Millisecond):
	}

	var got []bool
	for ev := range dst {
		got = append(got, ev.Pressed(disarm))
	}
	<-sent
	require.NotEmpty(t, got)
	assert.True(t, got[0], "disarm press is the first event the loop sees")
	assert.GreaterOrEqual(t, obs.counter("joymix_input_dropped_total"), 1.0)
}

type namedSink struct {
	name string
	err  error
	got  []*domain.ActuatorCommand
}

func (s *namedSink) Name() string { return s.name }
func (s *namedSink) Publish(c *domain.ActuatorCommand) error {
	s.got = append(s.got, c)
	return s.err
}

func TestTeeSinkCopiesToSecondaries(t *testing.T) {
	primary := &namedSink{name: "kafka:actuators"}
	history := &namedSink{name: "history", err: ErrHistoryQueueFull}
	obs := &mockObs{}
	tee := NewTeeSink(obs, primary, history)

	require.NoError(t, tee.Publish(&domain.ActuatorCommand{Seq: 7}))
	assert.Len(t, primary.got, 1)
	assert.Len(t, history.got, 1)
	assert.Equal(t, "kafka:actuators", tee.Name())
	assert.Len(t, obs.errorsSnapshot(), 1)
}

func TestTeeSinkReturnsPrimaryError(t *testing.T) {
	boom := errors.New("broker down")
	tee := NewTeeSink(&mockObs{}, &namedSink{name: "p", err: boom}, &namedSink{name: "s"})

	assert.ErrorIs(t, tee.Publish(&domain.ActuatorCommand{}), boom)
}

var _ ports.Sink = (*namedSink)(nil)
