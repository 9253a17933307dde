package pipeline

import (
	"context"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/ports"
)

// EventHandler is implemented by mixer.Controller.
type EventHandler interface {
	OnJoystickEvent(ev *domain.JoystickEvent)
}

// RunControlLoop is the single goroutine that owns the controller. It returns
// when ctx is cancelled or in is closed.
func RunControlLoop(ctx context.Context, in <-chan *domain.JoystickEvent, h EventHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			if ev == nil {
				continue
			}
			h.OnJoystickEvent(ev)
		}
	}
}

// ForwardWithPolicy moves events from a source channel to the control loop
// channel. With "drop" the oldest pending event is discarded so the loop
// always sees the most recent stick position; with "block" the source waits.
// Under "drop", an event for which keep reports true is never discarded: the
// next cap(dst) deliveries wait for room instead, which guarantees the loop
// has read it. keep may be nil.
func ForwardWithPolicy(ctx context.Context, src <-chan *domain.JoystickEvent, dst chan *domain.JoystickEvent, onFull string, keep func(*domain.JoystickEvent) bool, obs ports.Observability) {
	defer close(dst)
	var guarded int
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-src:
			if !ok {
				return
			}
			if onFull == "block" || guarded > 0 {
				select {
				case <-ctx.Done():
					return
				case dst <- ev:
				}
				if guarded > 0 {
					guarded--
				}
			} else {
				deliverLatest(dst, ev, obs)
			}
			if keep != nil && ev != nil && keep(ev) {
				guarded = cap(dst)
			}
		}
	}
}

func deliverLatest(dst chan *domain.JoystickEvent, ev *domain.JoystickEvent, obs ports.Observability) {
	for {
		select {
		case dst <- ev:
			return
		default:
		}
		select {
		case <-dst:
			obs.IncCounter("joymix_input_dropped_total", 1)
		default:
		}
	}
}
