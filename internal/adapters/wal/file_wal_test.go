package wal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/CogniPilot/joy-test-mixer-actuators/internal/domain"
	"github.com/CogniPilot/joy-test-mixer-actuators/internal/ports"
)

func TestFileWALAppendIterateAndReplay(t *testing.T) {
	dir := t.TempDir()

	w, err := NewFileWAL(dir)
	if err != nil {
		t.Fatalf("new wal: %v", err)
	}

	c1 := &domain.ActuatorCommand{Header: domain.Header{FrameID: "can0"}, Seq: 1, Velocity: []float64{150, 350, 350, 150}}
	c2 := &domain.ActuatorCommand{Header: domain.Header{FrameID: "can0"}, Seq: 2, Velocity: []float64{0, 500, 500, 0}}

	id1, err := w.Append(c1)
	if err != nil || id1 == 0 {
		t.Fatalf("append command 1: %v id=%d", err, id1)
	}
	id2, err := w.Append(c2)
	if err != nil || id2 == 0 {
		t.Fatalf("append command 2: %v id=%d", err, id2)
	}

	var iterated []*domain.ActuatorCommand
	if err := w.Iterate(1, func(id ports.JournalEntryID, c *domain.ActuatorCommand) error {
		iterated = append(iterated, c)
		return nil
	}); err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if len(iterated) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(iterated))
	}
	if iterated[1].Velocity[1] != 500 || iterated[1].Header.FrameID != "can0" {
		t.Fatalf("unexpected decoded command: %+v", iterated[1])
	}

	if err := w.Commit(id1); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close wal: %v", err)
	}

	// Reopen and ensure committed metadata was persisted.
	w2, err := NewFileWAL(dir)
	if err != nil {
		t.Fatalf("reopen wal: %v", err)
	}

	stats := w2.Stats()
	if stats.LatestAppended != id2 {
		t.Fatalf("expected latest appended %d, got %d", id2, stats.LatestAppended)
	}
	if stats.OldestUncommitted != id2 {
		t.Fatalf("expected oldest uncommitted %d, got %d", id2, stats.OldestUncommitted)
	}

	// A torn tail from a crash mid-write must be cut off on reopen.
	if err := w2.Close(); err != nil {
		t.Fatalf("close wal2: %v", err)
	}
	if err := appendGarbage(filepath.Join(dir, "commands.wal")); err != nil {
		t.Fatalf("append garbage: %v", err)
	}

	w3, err := NewFileWAL(dir)
	if err != nil {
		t.Fatalf("reopen after garbage: %v", err)
	}
	defer w3.Close()
	if got := w3.Stats(); got.LatestAppended != id2 || got.SizeBytes != stats.SizeBytes {
		t.Fatalf("expected torn tail to be truncated, got %+v want size %d", got, stats.SizeBytes)
	}
	id3, err := w3.Append(c1)
	if err != nil || id3 != id2+1 {
		t.Fatalf("append after recovery: %v id=%d", err, id3)
	}
}

func TestFileWALTruncateCommitted(t *testing.T) {
	w, err := NewFileWAL(t.TempDir())
	if err != nil {
		t.Fatalf("new wal: %v", err)
	}
	defer w.Close()

	var last ports.JournalEntryID
	for i := 1; i <= 3; i++ {
		last, err = w.Append(&domain.ActuatorCommand{Seq: uint64(i), Velocity: []float64{float64(i)}})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	before := w.Stats().SizeBytes

	if err := w.Commit(last - 1); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := w.TruncateCommitted(); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	after := w.Stats()
	if after.SizeBytes >= before || after.SizeBytes == 0 {
		t.Fatalf("expected WAL to shrink but keep one record, before=%d after=%d", before, after.SizeBytes)
	}

	var seqs []uint64
	if err := w.Iterate(0, func(_ ports.JournalEntryID, c *domain.ActuatorCommand) error {
		seqs = append(seqs, c.Seq)
		return nil
	}); err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if len(seqs) != 1 || seqs[0] != 3 {
		t.Fatalf("expected only seq 3 to survive, got %v", seqs)
	}

	if _, err := w.Append(&domain.ActuatorCommand{Seq: 4}); err != nil {
		t.Fatalf("append after truncate: %v", err)
	}
}

func TestFileWALAppendSurvivesReopenWithoutClose(t *testing.T) {
	dir := t.TempDir()

	w, err := NewFileWAL(dir)
	if err != nil {
		t.Fatalf("new wal: %v", err)
	}
	for i := uint64(1); i <= 3; i++ {
		if _, err := w.Append(&domain.ActuatorCommand{Seq: i, Velocity: []float64{1, 2}}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if err := w.Commit(1); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// w is abandoned here as if the process had died.
	w2, err := NewFileWAL(dir)
	if err != nil {
		t.Fatalf("reopen wal: %v", err)
	}
	defer w2.Close()

	stats := w2.Stats()
	if stats.LatestAppended != 3 || stats.OldestUncommitted != 2 {
		t.Fatalf("expected 3 appended with 2 pending, got %+v", stats)
	}

	var seqs []uint64
	if err := w2.Iterate(stats.OldestUncommitted, func(_ ports.JournalEntryID, c *domain.ActuatorCommand) error {
		seqs = append(seqs, c.Seq)
		return nil
	}); err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if len(seqs) != 2 || seqs[0] != 2 || seqs[1] != 3 {
		t.Fatalf("expected seqs [2 3] after reopen, got %v", seqs)
	}
	_ = w.file.Close()
}

func TestFileWALCommitNeverPassesAppended(t *testing.T) {
	w, err := NewFileWAL(t.TempDir())
	if err != nil {
		t.Fatalf("new wal: %v", err)
	}
	defer w.Close()

	if _, err := w.Append(&domain.ActuatorCommand{Seq: 1}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Commit(10); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got := w.Stats().OldestUncommitted; got != 2 {
		t.Fatalf("expected commit mark clamped to 1, oldest uncommitted %d", got)
	}
}

func appendGarbage(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write([]byte{0xFF, 0xAA})
	return err
}
