package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/ports"
)

var (
	// ErrHistoryQueueFull indicates the history queue rejected a command according to policy.
	ErrHistoryQueueFull = errors.New("pipeline: history queue full")
	// ErrHistoryWALFull indicates the WAL is at capacity and OnWALFull != "block".
	ErrHistoryWALFull = errors.New("pipeline: history wal full")
)

// Recorder is a Sink that journals commands and queues them for the history
// store. It never talks to the database itself; RunHistoryPipeline drains it.
type Recorder struct {
	session string
	journal ports.Journal
	queue   ports.CommandQueue
	policy  ports.Policy
	obs     ports.Observability
}

func NewRecorder(session string, journal ports.Journal, q ports.CommandQueue, pol ports.Policy, obs ports.Observability) *Recorder {
	return &Recorder{session: session, journal: journal, queue: q, policy: pol, obs: obs}
}

func (r *Recorder) Name() string { return "history" }

func (r *Recorder) Publish(cmd *domain.ActuatorCommand) error {
	if !waitForWALCapacity(r.journal, r.policy, r.obs) {
		r.obs.IncCounter("joymix_history_dropped_total", 1)
		return ErrHistoryWALFull
	}

	rec := *cmd
	rec.SessionID = r.session

	id, err := r.journal.Append(&rec)
	if err != nil {
		r.obs.LogCritical("wal_append_failed", err)
		return err
	}

	if !enqueueWithPolicy(r.queue, id, &rec, r.policy, r.obs) {
		r.obs.IncCounter("joymix_history_dropped_total", 1)
		return ErrHistoryQueueFull
	}
	return nil
}

func waitForWALCapacity(j ports.Journal, pol ports.Policy, obs ports.Observability) bool {
	if pol.MaxWALSizeBytes <= 0 {
		return true
	}
	sleep := idleSleep(pol)

	for {
		stats := j.Stats()
		if stats.SizeBytes < pol.MaxWALSizeBytes {
			return true
		}

		switch pol.OnWALFull {
		case "block":
			time.Sleep(sleep)
		case "drop":
			obs.LogError("wal_full_drop", fmt.Errorf("size=%d limit=%d", stats.SizeBytes, pol.MaxWALSizeBytes))
			return false
		default:
			obs.LogError("wal_policy_invalid", fmt.Errorf("policy=%s", pol.OnWALFull))
			return false
		}
	}
}

func enqueueWithPolicy(q ports.CommandQueue, id ports.JournalEntryID, c *domain.ActuatorCommand, pol ports.Policy, obs ports.Observability) bool {
	sleep := idleSleep(pol)

	for {
		if ok := q.Enqueue(id, c); ok {
			return true
		}

		switch pol.OnQueueFull {
		case "block":
			time.Sleep(sleep)
		case "drop", "reject":
			obs.LogError("queue_full_drop", fmt.Errorf("queue length exceeded capacity %d", pol.MaxQueueLen))
			return false
		default:
			obs.LogError("queue_policy_invalid", fmt.Errorf("policy=%s", pol.OnQueueFull))
			return false
		}
	}
}

func idleSleep(pol ports.Policy) time.Duration {
	if pol.IdleSleep <= 0 {
		return 5 * time.Millisecond
	}
	return pol.IdleSleep
}

var _ ports.Sink = (*Recorder)(nil)
