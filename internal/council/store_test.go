package council

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

func TestReadStatusAbsent(t *testing.T) {
	jobDir := t.TempDir()
	record, err := ReadStatus(jobDir, "nobody")
	if err != nil {
		t.Fatalf("ReadStatus: %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil record, got %+v", record)
	}
}

func TestWriteThenReadStatus(t *testing.T) {
	jobDir := t.TempDir()
	if err := os.MkdirAll(NewJobPaths(jobDir).MemberDir("alpha"), 0o755); err != nil {
		t.Fatal(err)
	}
	want := StatusRecord{
		Member:     "Alpha",
		State:      StateError,
		StartedAt:  "2026-01-02T03:04:05Z",
		FinishedAt: "2026-01-02T03:04:06Z",
		Command:    "alpha --flag",
		PID:        intPtr(4242),
		ExitCode:   intPtr(3),
		Message:    strPtr("boom"),
	}
	if err := WriteStatus(jobDir, "alpha", want); err != nil {
		t.Fatalf("WriteStatus: %v", err)
	}
	got, err := ReadStatus(jobDir, "alpha")
	if err != nil {
		t.Fatalf("ReadStatus: %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Fatalf("expected %+v, got %+v", want, *got)
	}

	leftovers, _ := filepath.Glob(filepath.Join(NewJobPaths(jobDir).MemberDir("alpha"), "*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("expected no temp files, got %v", leftovers)
	}
}

func TestStatusReadsNeverObservePartialWrites(t *testing.T) {
	jobDir := t.TempDir()
	if err := os.MkdirAll(NewJobPaths(jobDir).MemberDir("m"), 0o755); err != nil {
		t.Fatal(err)
	}
	first := StatusRecord{Member: "m", State: StateQueued, Command: "short"}
	second := StatusRecord{
		Member:  "m",
		State:   StateRunning,
		Command: "a much longer command string that changes the file size considerably",
		PID:     intPtr(99),
	}
	if err := WriteStatus(jobDir, "m", first); err != nil {
		t.Fatal(err)
	}

	const writes = 300
	const readers = 8
	done := make(chan struct{})
	errs := make(chan error, readers)
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				got, err := ReadStatus(jobDir, "m")
				if err != nil {
					errs <- err
					return
				}
				if !reflect.DeepEqual(*got, first) && !reflect.DeepEqual(*got, second) {
					errs <- errors.New("observed a record that is neither written value")
					return
				}
			}
		}()
	}

	for i := 0; i < writes; i++ {
		record := first
		if i%2 == 0 {
			record = second
		}
		if err := WriteStatus(jobDir, "m", record); err != nil {
			close(done)
			t.Fatalf("WriteStatus: %v", err)
		}
	}
	close(done)
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("reader: %v", err)
	}
}

func TestReadJobMissing(t *testing.T) {
	_, err := ReadJob(t.TempDir())
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}
