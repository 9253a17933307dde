package joymixer

import (
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/ports"
)

// Header carries the timestamp and frame tag of events and commands.
type Header = domain.Header

// JoystickEvent is one snapshot of the joystick's axes and buttons.
type JoystickEvent = domain.JoystickEvent

// ActuatorCommand is the velocity vector produced for one armed joystick event.
type ActuatorCommand = domain.ActuatorCommand

// Source streams joystick events into the control loop.
type Source = ports.Source

// Sink receives every emitted actuator command.
type Sink = ports.Sink

// BatchSink persists batches of commands for the history pipeline.
type BatchSink = ports.BatchSink

// Clock stamps emitted commands.
type Clock = ports.Clock

// Observability emits metrics/logs about events, commands and history.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

// Journal is the write-ahead log backing the history pipeline.
type Journal = ports.Journal

// JournalStats exposes journal metadata for observability.
type JournalStats = ports.JournalStats

// JournalEntryID uniquely identifies a journal entry.
type JournalEntryID = ports.JournalEntryID

// CommandQueue is the bounded queue between the journal and the history store.
type CommandQueue = ports.CommandQueue

// QueuedCommand is an item buffered inside the CommandQueue.
type QueuedCommand = ports.QueuedCommand
