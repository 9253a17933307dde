package domain

// ActuatorCommand is the per-event output of the mixer: one velocity per
// actuator, in actuator index order.
type ActuatorCommand struct {
	Header   Header    `json:"header"`
	Seq      uint64    `json:"seq"`
	Velocity []float64 `json:"velocity"`

	// SessionID is only set on journaled history copies; it pins replayed
	// commands to the process run that produced them.
	SessionID string `json:"session_id,omitempty"`
}
