package council

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCleanRemovesJobAndIsIdempotent(t *testing.T) {
	jobDir := newJobDir(t, "p")
	writeMemberStatus(t, jobDir, "a", StateDone)
	if err := Clean(jobDir); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if _, err := os.Stat(jobDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected job dir removed, stat err %v", err)
	}
	if err := Clean(jobDir); err != nil {
		t.Fatalf("second Clean: %v", err)
	}
}

func TestCleanRefusesForeignDirectories(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "keep.txt")
	if err := os.WriteFile(keep, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Clean(dir); !errors.Is(err, ErrNotJobDir) {
		t.Fatalf("expected ErrNotJobDir, got %v", err)
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("foreign directory was touched: %v", err)
	}
	if err := Clean(keep); !errors.Is(err, ErrNotJobDir) {
		t.Fatalf("expected ErrNotJobDir for a file, got %v", err)
	}
	if err := Clean(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestStopWithoutRunningMembers(t *testing.T) {
	jobDir := newJobDir(t, "p")
	writeMemberStatus(t, jobDir, "a", StateDone)
	writeMemberStatus(t, jobDir, "b", StateQueued)
	// A running record without a pid cannot be signalled.
	writeMemberStatus(t, jobDir, "c", StateRunning)

	result, err := Stop(jobDir)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(result.Stopped) != 0 {
		t.Fatalf("expected nothing stopped, got %+v", result.Stopped)
	}
}

func TestStopMissingMembersFolder(t *testing.T) {
	_, err := Stop(t.TempDir())
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}
