package council

import (
	"context"
	"errors"
	"os"
	"testing"
)

func TestComputeStatusCounts(t *testing.T) {
	tests := []struct {
		name    string
		states  map[string]State
		overall State
		want    Counts
	}{
		{name: "no members", states: nil, overall: StateDone, want: Counts{}},
		{
			name:    "queued wins over terminal",
			states:  map[string]State{"a": StateQueued, "b": StateDone},
			overall: StateQueued,
			want:    Counts{Total: 2, Queued: 1, Done: 1},
		},
		{
			name:    "running wins over queued",
			states:  map[string]State{"a": StateQueued, "b": StateRunning},
			overall: StateRunning,
			want:    Counts{Total: 2, Queued: 1, Running: 1},
		},
		{
			name: "all terminal",
			states: map[string]State{
				"a": StateDone, "b": StateError, "c": StateMissingCLI, "d": StateTimedOut, "e": StateCanceled,
			},
			overall: StateDone,
			want:    Counts{Total: 5, Done: 1, Error: 1, MissingCLI: 1, TimedOut: 1, Canceled: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobDir := newJobDir(t, "p")
			for name, state := range tt.states {
				writeMemberStatus(t, jobDir, name, state)
			}
			payload, err := ComputeStatus(jobDir)
			if err != nil {
				t.Fatalf("ComputeStatus: %v", err)
			}
			if payload.OverallState != tt.overall {
				t.Fatalf("expected overall %s, got %s", tt.overall, payload.OverallState)
			}
			if payload.Counts != tt.want {
				t.Fatalf("expected counts %+v, got %+v", tt.want, payload.Counts)
			}
			if payload.ID != "council-test" || payload.ChairmanRole != "claude" {
				t.Fatalf("unexpected job fields %+v", payload)
			}
		})
	}
}

func TestComputeStatusSortsAndSkipsUnreadable(t *testing.T) {
	jobDir := newJobDir(t, "p")
	writeMemberStatus(t, jobDir, "zeta", StateDone)
	writeMemberStatus(t, jobDir, "alpha", StateRunning)
	paths := NewJobPaths(jobDir)
	if err := os.MkdirAll(paths.MemberDir("empty"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(paths.MemberDir("broken"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(paths.StatusFile("broken"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	payload, err := ComputeStatus(jobDir)
	if err != nil {
		t.Fatalf("ComputeStatus: %v", err)
	}
	if payload.Counts.Total != 2 {
		t.Fatalf("expected two counted members, got %+v", payload.Counts)
	}
	if payload.Members[0].Member != "alpha" || payload.Members[1].Member != "zeta" {
		t.Fatalf("members not sorted: %+v", payload.Members)
	}
	if payload.Members[1].ExitCode == nil || *payload.Members[1].ExitCode != 0 {
		t.Fatalf("expected exit code on done member, got %+v", payload.Members[1])
	}
}

func TestComputeStatusMissingJob(t *testing.T) {
	_, err := ComputeStatus(t.TempDir())
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestComputeStatusMissingMembersFolder(t *testing.T) {
	jobDir := newJobDir(t, "p")
	if err := os.RemoveAll(NewJobPaths(jobDir).MembersDir()); err != nil {
		t.Fatal(err)
	}
	_, err := ComputeStatus(jobDir)
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	if _, err := Wait(context.Background(), jobDir, WaitOptions{}); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected Wait to fail with ErrJobNotFound, got %v", err)
	}
}

func TestTerminalCount(t *testing.T) {
	c := Counts{Total: 7, Queued: 1, Running: 1, Done: 1, Error: 1, MissingCLI: 1, TimedOut: 1, Canceled: 1}
	if got := c.TerminalCount(); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
}
