package opcua

import (
	"time"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
)

// snapshot holds the latest value of every bound axis and button. It is
// only touched by the consume goroutine.
type snapshot struct {
	axes    []float64
	buttons []int32
}

func newSnapshot(nodes []NodeConfig) snapshot {
	var nAxes, nButtons int
	for _, n := range nodes {
		switch n.Kind {
		case KindAxis:
			nAxes = max(nAxes, n.Index+1)
		case KindButton:
			nButtons = max(nButtons, n.Index+1)
		}
	}
	return snapshot{
		axes:    make([]float64, nAxes),
		buttons: make([]int32, nButtons),
	}
}

func (s *snapshot) set(n NodeConfig, v float64) {
	switch n.Kind {
	case KindAxis:
		s.axes[n.Index] = v
	case KindButton:
		if v > 0 {
			s.buttons[n.Index] = 1
		} else {
			s.buttons[n.Index] = 0
		}
	}
}

func (s *snapshot) event(stamp time.Time, frameID string) *domain.JoystickEvent {
	return &domain.JoystickEvent{
		Header:  domain.Header{Stamp: stamp, FrameID: frameID},
		Axes:    append([]float64(nil), s.axes...),
		Buttons: append([]int32(nil), s.buttons...),
	}
}
