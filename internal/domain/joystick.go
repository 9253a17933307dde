package domain

import "time"

// Header carries the stamp and source/frame label shared by every message
// crossing the bridge.
type Header struct {
	Stamp   time.Time `json:"stamp"`
	FrameID string    `json:"frame_id"`
}

// JoystickEvent is a single snapshot of a joystick: every axis and button at
// one instant. Axes are normalized to roughly [-1,1]; a button is pressed
// when its level is > 0.
type JoystickEvent struct {
	Header  Header    `json:"header"`
	Axes    []float64 `json:"axes"`
	Buttons []int32   `json:"buttons"`
}

// Pressed reports whether button i is held. The caller is responsible for
// range checking i.
func (e *JoystickEvent) Pressed(i int) bool {
	return e.Buttons[i] > 0
}
