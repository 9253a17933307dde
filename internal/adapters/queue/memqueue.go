package queue

import (
	"sync"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/ports"
)

// MemQueue is a bounded in-memory FIFO of journaled commands awaiting the
// history store.
type MemQueue struct {
	mu   sync.Mutex
	data []ports.QueuedCommand
	cap  int
}

func NewMemQueue(capacity int) *MemQueue {
	return &MemQueue{
		data: make([]ports.QueuedCommand, 0, capacity),
		cap:  capacity,
	}
}

func (q *MemQueue) Enqueue(id ports.JournalEntryID, c *domain.ActuatorCommand) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) >= q.cap {
		return false
	}
	q.data = append(q.data, ports.QueuedCommand{ID: id, Command: c})
	return true
}

func (q *MemQueue) DequeueBatch(max int) []ports.QueuedCommand {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) == 0 {
		return nil
	}
	if max <= 0 || max > len(q.data) {
		max = len(q.data)
	}
	out := make([]ports.QueuedCommand, max)
	copy(out, q.data[:max])
	q.data = append(q.data[:0], q.data[max:]...)
	return out
}

func (q *MemQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

var _ ports.CommandQueue = (*MemQueue)(nil)
