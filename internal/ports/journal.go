package ports

import "github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"

type JournalEntryID uint64

// Journal is the write-ahead log that backs command history.
type Journal interface {
	Append(c *domain.ActuatorCommand) (JournalEntryID, error)
	Iterate(from JournalEntryID, fn func(id JournalEntryID, c *domain.ActuatorCommand) error) error
	Commit(upto JournalEntryID) error
	TruncateCommitted() error
	Stats() JournalStats
	Close() error
}

type JournalStats struct {
	OldestUncommitted JournalEntryID
	LatestAppended    JournalEntryID
	SizeBytes         int64
}
