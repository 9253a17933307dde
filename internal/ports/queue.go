package ports

import "github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"

type QueuedCommand struct {
	ID      JournalEntryID
	Command *domain.ActuatorCommand
}

type CommandQueue interface {
	Enqueue(id JournalEntryID, c *domain.ActuatorCommand) bool
	DequeueBatch(max int) []QueuedCommand
	Len() int
}
