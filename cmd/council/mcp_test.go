package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"agent-council/internal/council"
)

type noopLauncher struct {
	launched []council.WorkerArgs
	onLaunch func(council.WorkerArgs)
}

func (l *noopLauncher) Launch(_ context.Context, args council.WorkerArgs) error {
	l.launched = append(l.launched, args)
	if l.onLaunch != nil {
		l.onLaunch(args)
	}
	return nil
}

func startTestJob(t *testing.T, launcher council.Launcher) string {
	t.Helper()
	t.Setenv("COUNCIL_CHAIRMAN", "")
	t.Setenv("COUNCIL_HOST_ROLE", "claude")
	path := writeConfig(t, "council.config.yaml", `
council:
  chairman:
    role: claude
  members:
    - name: claude
      command: claude -p
    - name: alpha
      command: echo alpha
    - name: beta
      command: echo beta
`)
	_, out, err := mcpStart(context.Background(), MCPStartInput{
		Prompt:  "what now?",
		Config:  path,
		JobsDir: t.TempDir(),
	}, launcher)
	if err != nil {
		t.Fatalf("mcpStart: %v", err)
	}
	jobDir, _ := out["jobDir"].(string)
	if jobDir == "" {
		t.Fatalf("expected jobDir in %v", out)
	}
	return jobDir
}

func markMember(t *testing.T, jobDir, name string, state council.State) {
	t.Helper()
	err := council.WriteStatus(jobDir, council.SafeName(name), council.StatusRecord{
		Member:  name,
		State:   state,
		Command: "echo " + name,
	})
	if err != nil {
		t.Fatalf("WriteStatus: %v", err)
	}
}

func TestMCPStartRequiresPrompt(t *testing.T) {
	for _, prompt := range []string{"", "   ", "\t\n"} {
		if _, _, err := mcpStart(context.Background(), MCPStartInput{Prompt: prompt}, &noopLauncher{}); err == nil {
			t.Errorf("mcpStart(%q): expected error", prompt)
		}
	}
}

func TestMCPStartDropsChairman(t *testing.T) {
	launcher := &noopLauncher{}
	jobDir := startTestJob(t, launcher)

	if len(launcher.launched) != 2 {
		t.Fatalf("expected 2 launches, got %d", len(launcher.launched))
	}
	for _, args := range launcher.launched {
		if args.Member == "claude" {
			t.Fatalf("chairman should not be launched: %+v", args)
		}
		if args.JobDir != jobDir {
			t.Errorf("expected job dir %s, got %s", jobDir, args.JobDir)
		}
	}
	meta, err := council.ReadJob(jobDir)
	if err != nil {
		t.Fatalf("ReadJob: %v", err)
	}
	if meta.ChairmanRole != "claude" || !meta.Settings.ExcludeChairmanFromMembers {
		t.Errorf("unexpected meta %+v", meta)
	}
}

func TestMCPStartIncludeChairman(t *testing.T) {
	t.Setenv("COUNCIL_CHAIRMAN", "")
	t.Setenv("COUNCIL_HOST_ROLE", "codex")
	path := writeConfig(t, "council.config.yaml", `
council:
  members:
    - name: codex
      command: codex exec
    - name: alpha
      command: echo alpha
`)
	launcher := &noopLauncher{}
	_, out, err := mcpStart(context.Background(), MCPStartInput{
		Prompt:          "hi",
		Config:          path,
		JobsDir:         t.TempDir(),
		IncludeChairman: true,
	}, launcher)
	if err != nil {
		t.Fatalf("mcpStart: %v", err)
	}
	if out["chairmanRole"] != "codex" {
		t.Errorf("expected chairman codex, got %v", out["chairmanRole"])
	}
	if len(launcher.launched) != 2 {
		t.Fatalf("expected chairman kept as member, got %+v", launcher.launched)
	}
}

func TestMCPStartReportsPartialJob(t *testing.T) {
	launcher := &noopLauncher{}
	launcher.onLaunch = func(args council.WorkerArgs) {
		path := council.NewJobPaths(args.JobDir).MemberDir("beta")
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Errorf("block member dir: %v", err)
		}
	}
	t.Setenv("COUNCIL_CHAIRMAN", "")
	t.Setenv("COUNCIL_HOST_ROLE", "claude")
	path := writeConfig(t, "council.config.yaml", `
council:
  members:
    - name: alpha
      command: echo alpha
    - name: beta
      command: echo beta
`)
	jobsDir := t.TempDir()
	_, _, err := mcpStart(context.Background(), MCPStartInput{Prompt: "hi", Config: path, JobsDir: jobsDir}, launcher)
	if err == nil {
		t.Fatal("expected dispatch error")
	}
	if len(launcher.launched) != 1 {
		t.Fatalf("expected one launch, got %+v", launcher.launched)
	}
	if !strings.Contains(err.Error(), launcher.launched[0].JobDir) {
		t.Fatalf("expected job dir in error, got %v", err)
	}
}

func TestMCPStatusAndResults(t *testing.T) {
	jobDir := startTestJob(t, &noopLauncher{})

	_, status, err := mcpStatus(MCPJobInput{JobDir: jobDir})
	if err != nil {
		t.Fatalf("mcpStatus: %v", err)
	}
	counts, _ := status["counts"].(map[string]interface{})
	if counts["total"] != float64(2) || counts["queued"] != float64(2) {
		t.Fatalf("unexpected counts %v", counts)
	}

	markMember(t, jobDir, "alpha", council.StateDone)
	markMember(t, jobDir, "beta", council.StateError)
	_, results, err := mcpResults(MCPJobInput{JobDir: jobDir})
	if err != nil {
		t.Fatalf("mcpResults: %v", err)
	}
	if results["prompt"] != "what now?" {
		t.Errorf("expected prompt in results, got %v", results["prompt"])
	}
	members, _ := results["members"].([]interface{})
	if len(members) != 2 {
		t.Fatalf("expected 2 member results, got %v", results["members"])
	}
}

func TestMCPJobToolsRequireJobDir(t *testing.T) {
	if _, _, err := mcpStatus(MCPJobInput{}); err == nil {
		t.Error("mcpStatus: expected error")
	}
	if _, _, err := mcpResults(MCPJobInput{JobDir: " "}); err == nil {
		t.Error("mcpResults: expected error")
	}
	if _, _, err := mcpWait(context.Background(), MCPWaitInput{}); err == nil {
		t.Error("mcpWait: expected error")
	}
}

func TestMCPStatusUnknownJob(t *testing.T) {
	_, _, err := mcpStatus(MCPJobInput{JobDir: filepath.Join(t.TempDir(), "missing")})
	if err == nil {
		t.Fatal("expected error for missing job")
	}
}

func TestMCPWaitCursorRoundTrip(t *testing.T) {
	jobDir := startTestJob(t, &noopLauncher{})

	_, first, err := mcpWait(context.Background(), MCPWaitInput{JobDir: jobDir, Bucket: "auto"})
	if err != nil {
		t.Fatalf("mcpWait: %v", err)
	}
	cursor, _ := first["cursor"].(string)
	if !strings.HasPrefix(cursor, "v2:") {
		t.Fatalf("expected v2 cursor, got %q", cursor)
	}
	if _, ok := first["ui"].(map[string]interface{}); !ok {
		t.Fatalf("expected ui payload, got %v", first["ui"])
	}

	markMember(t, jobDir, "alpha", council.StateDone)
	markMember(t, jobDir, "beta", council.StateDone)
	_, second, err := mcpWait(context.Background(), MCPWaitInput{
		JobDir:     jobDir,
		Cursor:     cursor,
		IntervalMs: 50,
		TimeoutMs:  5000,
	})
	if err != nil {
		t.Fatalf("mcpWait: %v", err)
	}
	if second["overallState"] != "done" {
		t.Fatalf("expected done, got %v", second["overallState"])
	}
	if second["cursor"] == cursor {
		t.Fatalf("expected cursor to advance from %q", cursor)
	}
	if timedOut, _ := second["timedOut"].(bool); timedOut {
		t.Fatal("did not expect timedOut")
	}
}

func TestMCPWaitRejectsBadBucket(t *testing.T) {
	jobDir := startTestJob(t, &noopLauncher{})
	if _, _, err := mcpWait(context.Background(), MCPWaitInput{JobDir: jobDir, Bucket: "zero"}); err == nil {
		t.Fatal("expected bucket error")
	}
}

func TestNewMCPServer(t *testing.T) {
	if newMCPServer(&noopLauncher{}) == nil {
		t.Fatal("expected server")
	}
}
