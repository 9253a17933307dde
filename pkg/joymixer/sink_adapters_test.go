package joymixer

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNewCallbackSink(t *testing.T) {
	var received []*ActuatorCommand
	sink := NewCallbackSink("cb", func(c *ActuatorCommand) error {
		received = append(received, c)
		return nil
	})

	input := &ActuatorCommand{
		Header:   Header{Stamp: time.Unix(1, 0), FrameID: "can0"},
		Seq:      42,
		Velocity: []float64{1, 2, 3, 4},
	}

	if err := sink.Publish(input); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if len(received) != 1 {
		t.Fatalf("expected 1 command, got %d", len(received))
	}
	if received[0].Seq != input.Seq || received[0].Header.FrameID != "can0" {
		t.Fatalf("mismatched command payload: %+v vs %+v", received[0], input)
	}
	if sink.Name() != "cb" {
		t.Fatalf("unexpected name %q", sink.Name())
	}
}

func TestNewCallbackSinkNilHandler(t *testing.T) {
	sink := NewCallbackSink("", nil)
	if err := sink.Publish(&ActuatorCommand{}); err == nil {
		t.Fatalf("expected error when callback is nil")
	}
	if sink.Name() != "callback" {
		t.Fatalf("expected default name, got %q", sink.Name())
	}
}

func TestNewChannelSink(t *testing.T) {
	sink, ch, closeFn := NewChannelSink("chan", 1)
	defer closeFn()

	if err := sink.Publish(&ActuatorCommand{Seq: 7}); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if err := sink.Publish(&ActuatorCommand{Seq: 8}); !errors.Is(err, ErrChannelSinkFull) {
		t.Fatalf("expected ErrChannelSinkFull, got %v", err)
	}

	select {
	case cmd := <-ch:
		if cmd.Seq != 7 {
			t.Fatalf("unexpected command: %+v", cmd)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel command")
	}

	closeFn()
	if err := sink.Publish(&ActuatorCommand{Seq: 9}); !errors.Is(err, ErrChannelSinkClosed) {
		t.Fatalf("expected ErrChannelSinkClosed, got %v", err)
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
}

func TestNewWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink("stdout", &buf)

	for seq := uint64(1); seq <= 2; seq++ {
		if err := sink.Publish(&ActuatorCommand{Seq: seq, Velocity: []float64{0.5}}); err != nil {
			t.Fatalf("Publish returned error: %v", err)
		}
	}

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	var got ActuatorCommand
	if err := json.Unmarshal(lines[1], &got); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if got.Seq != 2 || got.Velocity[0] != 0.5 {
		t.Fatalf("unexpected command: %+v", got)
	}
}

func TestNewChannelSource(t *testing.T) {
	in := make(chan *JoystickEvent, 1)
	out := make(chan *JoystickEvent, 1)
	src := NewChannelSource(in)

	if err := src.Start(out); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := src.Start(out); !errors.Is(err, ErrChannelSourceStarted) {
		t.Fatalf("expected ErrChannelSourceStarted, got %v", err)
	}

	in <- &JoystickEvent{Axes: []float64{0.3}}
	select {
	case ev := <-out:
		if ev.Axes[0] != 0.3 {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for forwarded event")
	}

	if err := src.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Fatalf("second Stop returned error: %v", err)
	}
}
