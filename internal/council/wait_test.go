package council

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestWaitFirstCallReturnsImmediately(t *testing.T) {
	jobDir := newJobDir(t, "p")
	writeMemberStatus(t, jobDir, "a", StateQueued)

	start := time.Now()
	result, err := Wait(context.Background(), jobDir, WaitOptions{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("first wait blocked for %s", time.Since(start))
	}
	if result.Cursor != "v2:1:0:0:0" || result.TimedOut {
		t.Fatalf("unexpected result cursor=%s timedOut=%v", result.Cursor, result.TimedOut)
	}
	persisted := strings.TrimSpace(readFileOrEmpty(NewJobPaths(jobDir).CursorFile()))
	if persisted != result.Cursor {
		t.Fatalf("expected persisted cursor %q, got %q", result.Cursor, persisted)
	}
}

func TestWaitTimesOutWithoutChange(t *testing.T) {
	jobDir := newJobDir(t, "p")
	writeMemberStatus(t, jobDir, "a", StateRunning)
	first, err := Wait(context.Background(), jobDir, WaitOptions{})
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}

	start := time.Now()
	second, err := Wait(context.Background(), jobDir, WaitOptions{Timeout: 300 * time.Millisecond, Interval: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	elapsed := time.Since(start)
	if !second.TimedOut || second.Cursor != first.Cursor {
		t.Fatalf("expected timeout with unchanged cursor, got %+v", second)
	}
	if elapsed < 300*time.Millisecond {
		t.Fatalf("returned after %s, before the timeout", elapsed)
	}
}

func TestWaitUnblocksOnProgress(t *testing.T) {
	jobDir := newJobDir(t, "p")
	writeMemberStatus(t, jobDir, "a", StateRunning)
	writeMemberStatus(t, jobDir, "b", StateRunning)
	first, err := Wait(context.Background(), jobDir, WaitOptions{})
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}

	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = WriteStatus(jobDir, "a", StatusRecord{Member: "a", State: StateDone, Command: "echo", ExitCode: intPtr(0)})
	}()

	start := time.Now()
	next, err := Wait(context.Background(), jobDir, WaitOptions{Cursor: first.Cursor, Timeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if next.TimedOut {
		t.Fatal("expected progress, got timeout")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatalf("wait took %s", time.Since(start))
	}
	if next.Cursor != "v2:1:1:1:0" || next.Counts.Done != 1 {
		t.Fatalf("unexpected result cursor=%s counts=%+v", next.Cursor, next.Counts)
	}
	if next.UI.Progress.Done != 1 || next.UI.Progress.Total != 2 {
		t.Fatalf("unexpected ui progress %+v", next.UI.Progress)
	}
}

func TestWaitReturnsWhenCursorAlreadyStale(t *testing.T) {
	jobDir := newJobDir(t, "p")
	writeMemberStatus(t, jobDir, "a", StateDone)

	start := time.Now()
	result, err := Wait(context.Background(), jobDir, WaitOptions{Cursor: "v2:1:0:0:0", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if time.Since(start) > time.Second || result.TimedOut {
		t.Fatalf("expected immediate return, took %s", time.Since(start))
	}
	if result.Cursor != "v2:1:1:1:1" {
		t.Fatalf("unexpected cursor %s", result.Cursor)
	}
}

func TestWaitLegacyCursorUnblocksOnce(t *testing.T) {
	jobDir := newJobDir(t, "p")
	writeMemberStatus(t, jobDir, "a", StateRunning)

	result, err := Wait(context.Background(), jobDir, WaitOptions{Cursor: "v1:1:0:0", Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if result.TimedOut || result.Cursor != "v2:1:1:0:0" {
		t.Fatalf("expected immediate upgrade to v2, got %+v", result.Cursor)
	}

	again, err := Wait(context.Background(), jobDir, WaitOptions{Cursor: result.Cursor, Timeout: 200 * time.Millisecond})
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !again.TimedOut {
		t.Fatal("expected the upgraded cursor to block")
	}
}

func TestWaitUsesPersistedCursor(t *testing.T) {
	jobDir := newJobDir(t, "p")
	writeMemberStatus(t, jobDir, "a", StateRunning)
	if _, err := Wait(context.Background(), jobDir, WaitOptions{}); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	result, err := Wait(context.Background(), jobDir, WaitOptions{Timeout: 150 * time.Millisecond})
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !result.TimedOut {
		t.Fatal("expected the persisted cursor to be reused")
	}
}

func TestWaitContextCancel(t *testing.T) {
	jobDir := newJobDir(t, "p")
	writeMemberStatus(t, jobDir, "a", StateRunning)
	first, err := Wait(context.Background(), jobDir, WaitOptions{})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	result, err := Wait(ctx, jobDir, WaitOptions{Cursor: first.Cursor})
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !result.TimedOut {
		t.Fatal("expected cancellation to report timedOut")
	}
}

func TestWaitRejectsBadOptions(t *testing.T) {
	jobDir := newJobDir(t, "p")
	if _, err := Wait(context.Background(), jobDir, WaitOptions{Timeout: -time.Second}); err == nil {
		t.Fatal("expected error for negative timeout")
	}
	if _, err := Wait(context.Background(), jobDir, WaitOptions{Bucket: -5}); err == nil {
		t.Fatal("expected error for invalid bucket")
	}
	if _, err := Wait(context.Background(), t.TempDir(), WaitOptions{}); err == nil {
		t.Fatal("expected error for missing job")
	}
}
