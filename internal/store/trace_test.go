package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTraceWriteAndRead(t *testing.T) {
	baseDir := t.TempDir()
	jobID := "trace-job"

	writer, err := NewTraceWriter(baseDir, jobID, false)
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}

	entries := []TraceEntry{
		{Chords: 1, Loss: 300.5, Timestamp: time.Now()},
		{Chords: 2, Loss: 295.1, Timestamp: time.Now()},
		{Chords: 3, Loss: 290.7, Timestamp: time.Now()},
	}

	for _, entry := range entries {
		if err := writer.Write(entry); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reader, err := NewTraceReader(baseDir, jobID)
	if err != nil {
		t.Fatalf("NewTraceReader failed: %v", err)
	}
	defer reader.Close()

	got, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	if len(got) != len(entries) {
		t.Fatalf("Expected %d entries, got %d", len(entries), len(got))
	}

	for i := range entries {
		if got[i].Chords != entries[i].Chords {
			t.Errorf("Entry %d: chords mismatch: expected %d, got %d", i, entries[i].Chords, got[i].Chords)
		}
		if got[i].Loss != entries[i].Loss {
			t.Errorf("Entry %d: loss mismatch: expected %f, got %f", i, entries[i].Loss, got[i].Loss)
		}
	}
}

func TestTraceReadSequential(t *testing.T) {
	baseDir := t.TempDir()
	jobID := "seq-job"

	writer, err := NewTraceWriter(baseDir, jobID, false)
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}
	if err := writer.Write(TraceEntry{Chords: 1, Loss: 10, Timestamp: time.Now()}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reader, err := NewTraceReader(baseDir, jobID)
	if err != nil {
		t.Fatalf("NewTraceReader failed: %v", err)
	}
	defer reader.Close()

	entry, err := reader.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if entry.Chords != 1 {
		t.Errorf("Expected chords 1, got %d", entry.Chords)
	}

	if _, err := reader.Read(); err != io.EOF {
		t.Errorf("Expected io.EOF after last entry, got %v", err)
	}
}

func TestTraceAppendMode(t *testing.T) {
	baseDir := t.TempDir()
	jobID := "append-job"

	writer, err := NewTraceWriter(baseDir, jobID, false)
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}
	writer.Write(TraceEntry{Chords: 1, Loss: 10, Timestamp: time.Now()})
	writer.Close()

	// Reopen in append mode, as a resumed run does
	writer, err = NewTraceWriter(baseDir, jobID, true)
	if err != nil {
		t.Fatalf("NewTraceWriter append failed: %v", err)
	}
	writer.Write(TraceEntry{Chords: 2, Loss: 9, Timestamp: time.Now()})
	writer.Close()

	reader, err := NewTraceReader(baseDir, jobID)
	if err != nil {
		t.Fatalf("NewTraceReader failed: %v", err)
	}
	defer reader.Close()

	got, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 entries after append, got %d", len(got))
	}
}

func TestTraceTruncateMode(t *testing.T) {
	baseDir := t.TempDir()
	jobID := "truncate-job"

	writer, err := NewTraceWriter(baseDir, jobID, false)
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}
	writer.Write(TraceEntry{Chords: 1, Loss: 10, Timestamp: time.Now()})
	writer.Close()

	// Reopen without append: previous contents are discarded
	writer, err = NewTraceWriter(baseDir, jobID, false)
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}
	writer.Write(TraceEntry{Chords: 5, Loss: 2, Timestamp: time.Now()})
	writer.Close()

	reader, err := NewTraceReader(baseDir, jobID)
	if err != nil {
		t.Fatalf("NewTraceReader failed: %v", err)
	}
	defer reader.Close()

	got, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 1 || got[0].Chords != 5 {
		t.Fatalf("Expected single fresh entry, got %+v", got)
	}
}

func TestTraceReaderNotFound(t *testing.T) {
	_, err := NewTraceReader(t.TempDir(), "missing-job")
	if err == nil {
		t.Fatal("Expected error for missing trace")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTraceWriterPath(t *testing.T) {
	baseDir := t.TempDir()
	jobID := "path-job"

	writer, err := NewTraceWriter(baseDir, jobID, false)
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}
	defer writer.Close()

	want := filepath.Join(baseDir, "jobs", jobID, "trace.jsonl")
	if writer.Path() != want {
		t.Errorf("Expected path %s, got %s", want, writer.Path())
	}
}

func TestDeleteTrace(t *testing.T) {
	baseDir := t.TempDir()
	jobID := "delete-trace-job"

	writer, err := NewTraceWriter(baseDir, jobID, false)
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}
	writer.Write(TraceEntry{Chords: 1, Loss: 10, Timestamp: time.Now()})
	writer.Close()

	if err := DeleteTrace(baseDir, jobID); err != nil {
		t.Fatalf("DeleteTrace failed: %v", err)
	}

	path := filepath.Join(baseDir, "jobs", jobID, "trace.jsonl")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Trace file was not removed")
	}

	// Deleting a missing trace is not an error
	if err := DeleteTrace(baseDir, "never-existed"); err != nil {
		t.Errorf("DeleteTrace on missing file should be nil, got %v", err)
	}
}
