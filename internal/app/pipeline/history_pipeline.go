package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/ports"
)

// RunHistoryPipeline drains queued commands into the history store in
// batches and commits the journal behind each successful write. A non-nil
// backlog is re-queued from the journal a slice at a time, so a backlog
// larger than the queue drains alongside live traffic. A failed batch is
// retried until it lands or ctx is cancelled; anything still uncommitted at
// shutdown is replayed on the next start.
func RunHistoryPipeline(ctx context.Context, j ports.Journal, q ports.CommandQueue, sink ports.BatchSink, replay *JournalBacklog, pol ports.Policy, obs ports.Observability) {
	var written ports.JournalEntryID

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if replay.pending() {
			if err := replay.fill(j, q, replayBudget(q, pol)); err != nil {
				obs.LogError("wal_replay_failed", err, ports.Field{Key: "from_id", Value: replay.next})
				replay.skip()
			}
			if !replay.pending() && replay.requeued > 0 {
				obs.LogInfo("wal_replay_complete",
					ports.Field{Key: "commands", Value: replay.requeued},
					ports.Field{Key: "from_id", Value: replay.from})
			}
		}

		batch := q.DequeueBatch(pol.MaxBatchSize)
		if len(batch) == 0 {
			sleepCtx(ctx, idleSleep(pol))
			continue
		}

		out := make([]*domain.ActuatorCommand, 0, len(batch))
		for _, item := range batch {
			out = append(out, item.Command)
			if item.ID > written {
				written = item.ID
			}
		}

		start := time.Now()
		if !writeWithRetry(ctx, sink, out, pol, obs) {
			return
		}
		obs.ObserveLatency("joymix_history_sink_latency_seconds", time.Since(start).Seconds())
		obs.IncCounter("joymix_history_written_total", float64(len(out)))

		upto := replay.commitLimit(written)
		if upto == 0 {
			continue
		}
		if err := j.Commit(upto); err != nil {
			obs.LogError("wal_commit_failed", err)
			continue
		}
		if pol.MaxWALSizeBytes > 0 && j.Stats().SizeBytes > pol.MaxWALSizeBytes/2 {
			if err := j.TruncateCommitted(); err != nil {
				obs.LogError("wal_truncate_failed", err)
			}
		}
	}
}

func writeWithRetry(ctx context.Context, sink ports.BatchSink, out []*domain.ActuatorCommand, pol ports.Policy, obs ports.Observability) bool {
	for {
		err := sink.WriteBatch(out)
		if err == nil {
			return true
		}
		obs.LogError("history_write_failed", err,
			ports.Field{Key: "sink", Value: sink.Name()},
			ports.Field{Key: "commands", Value: len(out)})
		sleepCtx(ctx, idleSleep(pol))
		if ctx.Err() != nil {
			return false
		}
	}
}

var errReplayPaused = errors.New("pipeline: replay paused")

// JournalBacklog tracks how far the uncommitted tail of an earlier run has
// been pushed back onto the queue. Entries past end belong to this run and
// are queued by the Recorder.
type JournalBacklog struct {
	from     ports.JournalEntryID
	next     ports.JournalEntryID
	end      ports.JournalEntryID
	requeued int
}

// ReplayJournal captures the entries journaled but never committed. Call it
// before the Recorder publishes anything in this run; RunHistoryPipeline
// re-queues the captured entries. It returns nil when nothing is pending.
func ReplayJournal(j ports.Journal) *JournalBacklog {
	stats := j.Stats()
	next := stats.OldestUncommitted
	if next == 0 {
		next = 1
	}
	if next > stats.LatestAppended {
		return nil
	}
	return &JournalBacklog{from: next, next: next, end: stats.LatestAppended}
}

// Len reports how many entry IDs are still waiting to be re-queued.
func (r *JournalBacklog) Len() int {
	if !r.pending() {
		return 0
	}
	return int(r.end - r.next + 1)
}

func (r *JournalBacklog) pending() bool { return r != nil && r.next <= r.end }

func (r *JournalBacklog) skip() { r.next = r.end + 1 }

// fill re-queues up to max journaled entries, stopping early when the queue
// refuses one.
func (r *JournalBacklog) fill(j ports.Journal, q ports.CommandQueue, max int) error {
	if max <= 0 {
		return nil
	}
	var n int
	err := j.Iterate(r.next, func(id ports.JournalEntryID, c *domain.ActuatorCommand) error {
		if id > r.end {
			r.skip()
			return errReplayPaused
		}
		if n >= max || !q.Enqueue(id, c) {
			return errReplayPaused
		}
		r.next = id + 1
		r.requeued++
		n++
		return nil
	})
	switch {
	case err == nil:
		r.skip()
		return nil
	case errors.Is(err, errReplayPaused):
		return nil
	default:
		return err
	}
}

// commitLimit keeps the commit mark below entries that are still waiting to
// be re-queued.
func (r *JournalBacklog) commitLimit(written ports.JournalEntryID) ports.JournalEntryID {
	if r.pending() && written >= r.next {
		return r.next - 1
	}
	return written
}

// replayBudget leaves half of the free queue space to live commands.
func replayBudget(q ports.CommandQueue, pol ports.Policy) int {
	if pol.MaxQueueLen <= 0 {
		return pol.MaxBatchSize
	}
	free := pol.MaxQueueLen - q.Len()
	if free <= 1 {
		return free
	}
	return free / 2
}

// RecordHistoryGauges publishes WAL size and queue depth until ctx is done.
func RecordHistoryGauges(ctx context.Context, j ports.Journal, q ports.CommandQueue, obs ports.Observability, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			obs.SetGauge("joymix_wal_size_bytes", float64(j.Stats().SizeBytes))
			obs.SetGauge("joymix_history_queue_length", float64(q.Len()))
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
