package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/queue"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/adapters/wal"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/ports"
)

type memBatchSink struct {
	mu      sync.Mutex
	fails   int
	batches [][]*domain.ActuatorCommand
}

func (s *memBatchSink) Name() string { return "mem" }

func (s *memBatchSink) WriteBatch(cmds []*domain.ActuatorCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails > 0 {
		s.fails--
		return errors.New("db unavailable")
	}
	s.batches = append(s.batches, cmds)
	return nil
}

func (s *memBatchSink) written() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func testPolicy() ports.Policy {
	return ports.Policy{
		MaxWALSizeBytes: 1 << 20,
		MaxQueueLen:     16,
		MaxBatchSize:    4,
		IdleSleep:       time.Millisecond,
		OnWALFull:       "drop",
		OnQueueFull:     "drop",
	}
}

func TestRunHistoryPipelineWritesAndCommits(t *testing.T) {
	j, err := wal.NewFileWAL(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	pol := testPolicy()
	q := queue.NewMemQueue(pol.MaxQueueLen)
	obs := &mockObs{}
	rec := NewRecorder("session-1", j, q, pol, obs)

	for i := uint64(1); i <= 6; i++ {
		require.NoError(t, rec.Publish(&domain.ActuatorCommand{Seq: i, Velocity: []float64{1, 2, 3, 4}}))
	}

	sink := &memBatchSink{fails: 1}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunHistoryPipeline(ctx, j, q, sink, nil, pol, obs)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return j.Stats().OldestUncommitted == 7
	}, 2*time.Second, time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, 6, sink.written())
	assert.Equal(t, "session-1", sink.batches[0][0].SessionID)
	assert.Equal(t, 6.0, obs.counter("joymix_history_written_total"))
	assert.Len(t, obs.errorsSnapshot(), 1)
}

func appendCommands(t *testing.T, dir string, n int, commit ports.JournalEntryID) {
	t.Helper()
	j, err := wal.NewFileWAL(dir)
	require.NoError(t, err)
	for i := 1; i <= n; i++ {
		_, err := j.Append(&domain.ActuatorCommand{Seq: uint64(i), SessionID: "previous"})
		require.NoError(t, err)
	}
	if commit > 0 {
		require.NoError(t, j.Commit(commit))
	}
	require.NoError(t, j.Close())
}

func TestReplayJournalCapturesUncommitted(t *testing.T) {
	dir := t.TempDir()
	appendCommands(t, dir, 3, 1)

	j, err := wal.NewFileWAL(dir)
	require.NoError(t, err)
	defer j.Close()

	backlog := ReplayJournal(j)
	require.NotNil(t, backlog)
	assert.Equal(t, 2, backlog.Len())

	q := queue.NewMemQueue(8)
	require.NoError(t, backlog.fill(j, q, 8))
	assert.Zero(t, backlog.Len())

	batch := q.DequeueBatch(8)
	require.Len(t, batch, 2)
	assert.Equal(t, uint64(2), batch[0].Command.Seq)
	assert.Equal(t, uint64(3), batch[1].Command.Seq)
}

func TestReplayJournalEmpty(t *testing.T) {
	j, err := wal.NewFileWAL(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	backlog := ReplayJournal(j)
	assert.Nil(t, backlog)
	assert.Zero(t, backlog.Len())
	assert.Equal(t, ports.JournalEntryID(7), backlog.commitLimit(7))
}

func TestJournalBacklogFillStopsAtQueueCapacity(t *testing.T) {
	dir := t.TempDir()
	appendCommands(t, dir, 10, 0)

	j, err := wal.NewFileWAL(dir)
	require.NoError(t, err)
	defer j.Close()

	backlog := ReplayJournal(j)
	q := queue.NewMemQueue(4)
	require.NoError(t, backlog.fill(j, q, 10))
	assert.Equal(t, 4, q.Len())
	assert.Equal(t, 6, backlog.Len())

	// entries 5..10 are not queued yet, so the commit mark must stay at 4
	assert.Equal(t, ports.JournalEntryID(4), backlog.commitLimit(12))
	assert.Equal(t, ports.JournalEntryID(3), backlog.commitLimit(3))
}

func TestRunHistoryPipelineDrainsBacklogLargerThanQueue(t *testing.T) {
	for _, onFull := range []string{"drop", "block"} {
		t.Run(onFull, func(t *testing.T) {
			dir := t.TempDir()
			appendCommands(t, dir, 20, 0)

			j, err := wal.NewFileWAL(dir)
			require.NoError(t, err)
			defer j.Close()

			pol := testPolicy()
			pol.OnQueueFull = onFull
			pol.MaxBatchSize = 8
			q := queue.NewMemQueue(pol.MaxQueueLen)
			obs := &mockObs{}

			backlog := ReplayJournal(j)
			require.Equal(t, 20, backlog.Len())

			rec := NewRecorder("current", j, q, pol, obs)
			sink := &memBatchSink{}
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				RunHistoryPipeline(ctx, j, q, sink, backlog, pol, obs)
				close(done)
			}()

			for i := uint64(1); i <= 5; i++ {
				require.NoError(t, rec.Publish(&domain.ActuatorCommand{Seq: i}))
			}

			require.Eventually(t, func() bool {
				return j.Stats().OldestUncommitted == 26
			}, 2*time.Second, time.Millisecond)
			cancel()
			<-done

			sink.mu.Lock()
			defer sink.mu.Unlock()
			sessions := map[string]int{}
			for _, b := range sink.batches {
				for _, c := range b {
					sessions[c.SessionID]++
				}
			}
			assert.Equal(t, map[string]int{"previous": 20, "current": 5}, sessions)
		})
	}
}
