package council

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"
)

// WorkerArgs identify the single member a worker process runs.
type WorkerArgs struct {
	JobDir     string
	Member     string
	Slug       string
	Command    string
	TimeoutSec int
}

// Argv encodes the arguments for a worker command line.
func (a WorkerArgs) Argv() []string {
	argv := []string{
		"--job-dir", a.JobDir,
		"--member", a.Member,
		"--safe-member", a.Slug,
		"--command", a.Command,
	}
	if a.TimeoutSec > 0 {
		argv = append(argv, "--timeout", strconv.Itoa(a.TimeoutSec))
	}
	return argv
}

// ParseWorkerArgs decodes a worker command line produced by Argv.
func ParseWorkerArgs(argv []string) (WorkerArgs, error) {
	fs := pflag.NewFlagSet("worker", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var args WorkerArgs
	fs.StringVar(&args.JobDir, "job-dir", "", "job directory")
	fs.StringVar(&args.Member, "member", "", "member name")
	fs.StringVar(&args.Slug, "safe-member", "", "member directory slug")
	fs.StringVar(&args.Command, "command", "", "member command")
	fs.IntVar(&args.TimeoutSec, "timeout", 0, "timeout in seconds")
	if err := fs.Parse(argv); err != nil {
		return WorkerArgs{}, fmt.Errorf("worker: %w", err)
	}
	return args, args.validate()
}

func (a WorkerArgs) validate() error {
	switch {
	case a.JobDir == "":
		return errors.New("worker: missing --job-dir")
	case a.Member == "":
		return errors.New("worker: missing --member")
	case a.Slug == "":
		return errors.New("worker: missing --safe-member")
	case a.Command == "":
		return errors.New("worker: missing --command")
	case a.TimeoutSec < 0:
		return fmt.Errorf("worker: invalid --timeout: %d", a.TimeoutSec)
	}
	return nil
}

type WorkerOptions struct {
	Logger *slog.Logger
	// HistoryPath receives one JSONL line per finished member; empty disables it.
	HistoryPath string
	// Env overrides the member's environment; nil inherits the worker's.
	Env []string
	Now func() time.Time
}

func (o WorkerOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

func (o WorkerOptions) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

// WorkerExitCode maps a worker result to the process exit status: zero only
// when the member finished as done.
func WorkerExitCode(state State, err error) int {
	if err == nil && state == StateDone {
		return 0
	}
	return 1
}

type outcomeKind int

const (
	outcomeExited outcomeKind = iota
	outcomeTimedOut
	outcomeCanceled
	outcomeSpawnFailed
)

// outcome is computed exactly once per member, when the child exits or
// fails to start.
type outcome struct {
	kind     outcomeKind
	exitCode *int
	signal   *string
	message  *string
	missing  bool
}

func (o outcome) state() State {
	switch o.kind {
	case outcomeTimedOut:
		return StateTimedOut
	case outcomeCanceled:
		return StateCanceled
	case outcomeSpawnFailed:
		if o.missing {
			return StateMissingCLI
		}
		return StateError
	}
	if o.exitCode != nil && *o.exitCode == 0 && o.signal == nil {
		return StateDone
	}
	return StateError
}

func classifyExit(state *os.ProcessState, timedOut bool, timeoutSec int) outcome {
	out := outcome{kind: outcomeExited}
	signal, sigterm := exitSignal(state)
	if signal != "" {
		out.signal = strPtr(signal)
	}
	if state.Exited() {
		out.exitCode = intPtr(state.ExitCode())
	}
	switch {
	case sigterm && timedOut:
		out.kind = outcomeTimedOut
		out.message = strPtr(fmt.Sprintf("Timed out after %ds", timeoutSec))
	case sigterm:
		out.kind = outcomeCanceled
		out.message = strPtr("Canceled")
	case signal != "":
		out.message = strPtr("Terminated by " + signal)
	case out.exitCode != nil && *out.exitCode != 0:
		out.message = strPtr(fmt.Sprintf("Exited with code %d", *out.exitCode))
	}
	return out
}

func spawnFailure(err error) outcome {
	return outcome{
		kind:    outcomeSpawnFailed,
		message: strPtr(err.Error()),
		missing: errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist),
	}
}

type worker struct {
	args     WorkerArgs
	opts     WorkerOptions
	log      *slog.Logger
	queuedAt string
}

// RunWorker runs one member's command to completion and records every
// lifecycle transition in its status file. The returned error is non-nil
// only when the arguments are malformed or a status write failed; the
// member's own failure is reported through the returned state. Cancelling
// ctx terminates the child, which is then recorded as canceled.
func RunWorker(ctx context.Context, args WorkerArgs, opts WorkerOptions) (State, error) {
	if err := args.validate(); err != nil {
		return StateError, err
	}
	w := &worker{
		args: args,
		opts: opts,
		log:  opts.logger().With("member", args.Member, "job", args.JobDir),
	}
	return w.run(ctx)
}

func (w *worker) run(ctx context.Context) (State, error) {
	paths := NewJobPaths(w.args.JobDir)
	w.queuedAt = formatTime(w.opts.now())
	if prev, err := ReadStatus(w.args.JobDir, w.args.Slug); err == nil && prev != nil && prev.QueuedAt != "" {
		w.queuedAt = prev.QueuedAt
	}
	if err := os.MkdirAll(paths.MemberDir(w.args.Slug), 0o755); err != nil {
		return StateError, fmt.Errorf("create member dir: %w", err)
	}
	if err := w.write(StatusRecord{
		Member:   w.args.Member,
		State:    StateQueued,
		QueuedAt: w.queuedAt,
		Command:  w.args.Command,
	}); err != nil {
		return StateError, err
	}

	argv, err := SplitCommand(w.args.Command)
	if err != nil {
		return w.finish(outcome{
			kind:    outcomeSpawnFailed,
			message: strPtr(fmt.Sprintf("Invalid command string: %v", err)),
		}, "", nil)
	}
	prompt, err := ReadPrompt(w.args.JobDir)
	if err != nil {
		return w.finish(spawnFailure(err), "", nil)
	}

	stdout, err := os.Create(paths.OutputFile(w.args.Slug))
	if err != nil {
		return w.finish(spawnFailure(err), "", nil)
	}
	stderr, err := os.Create(paths.ErrorFile(w.args.Slug))
	if err != nil {
		stdout.Close()
		return w.finish(spawnFailure(err), "", nil)
	}
	closeCaptures := func() {
		if err := stdout.Close(); err != nil {
			w.log.Warn("closing output capture", "error", err)
		}
		if err := stderr.Close(); err != nil {
			w.log.Warn("closing error capture", "error", err)
		}
	}

	cmd := exec.Command(argv[0], append(argv[1:], prompt)...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = w.opts.Env
	configureMemberProcess(cmd)
	if err := cmd.Start(); err != nil {
		closeCaptures()
		w.log.Info("member failed to start", "error", err)
		return w.finish(spawnFailure(err), "", nil)
	}

	pid := cmd.Process.Pid
	startedAt := formatTime(w.opts.now())
	if err := w.write(StatusRecord{
		Member:    w.args.Member,
		State:     StateRunning,
		QueuedAt:  w.queuedAt,
		StartedAt: startedAt,
		Command:   w.args.Command,
		PID:       intPtr(pid),
	}); err != nil {
		_ = terminateProcess(cmd.Process)
		_ = cmd.Wait()
		closeCaptures()
		return StateError, err
	}
	w.log.Debug("member started", "pid", pid)

	guard := &memberGuard{proc: cmd.Process, log: w.log}
	var timedOut atomic.Bool
	var timer *time.Timer
	if w.args.TimeoutSec > 0 {
		timer = time.AfterFunc(time.Duration(w.args.TimeoutSec)*time.Second, func() {
			timedOut.Store(true)
			guard.terminate()
		})
	}

	exited := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			guard.terminate()
		case <-exited:
		}
	}()
	// A non-zero exit is reported through ProcessState; Wait's error adds nothing.
	_ = cmd.Wait()
	guard.markExited()
	close(exited)
	if timer != nil {
		timer.Stop()
	}

	out := classifyExit(cmd.ProcessState, timedOut.Load(), w.args.TimeoutSec)
	closeCaptures()
	return w.finish(out, startedAt, intPtr(pid))
}

// memberGuard serializes termination requests with the reaping of the
// member so no signal is sent once its pid may have been reused.
type memberGuard struct {
	mu     sync.Mutex
	exited bool
	proc   *os.Process
	log    *slog.Logger
}

// terminate signals the member unless it has already been reaped. It
// reports whether a signal was sent.
func (g *memberGuard) terminate() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.exited {
		return false
	}
	if err := terminateProcess(g.proc); err != nil {
		g.log.Debug("terminating member", "pid", g.proc.Pid, "error", err)
		return false
	}
	return true
}

func (g *memberGuard) markExited() {
	g.mu.Lock()
	g.exited = true
	g.mu.Unlock()
}

func (w *worker) finish(out outcome, startedAt string, pid *int) (State, error) {
	state := out.state()
	record := StatusRecord{
		Member:     w.args.Member,
		State:      state,
		QueuedAt:   w.queuedAt,
		StartedAt:  startedAt,
		FinishedAt: formatTime(w.opts.now()),
		Command:    w.args.Command,
		PID:        pid,
		ExitCode:   out.exitCode,
		Signal:     out.signal,
		Message:    out.message,
	}
	if err := w.write(record); err != nil {
		return state, err
	}
	w.log.Info("member finished", "state", state)
	w.recordHistory(record)
	return state, nil
}

func (w *worker) write(record StatusRecord) error {
	return WriteStatus(w.args.JobDir, w.args.Slug, record)
}

func (w *worker) recordHistory(record StatusRecord) {
	if w.opts.HistoryPath == "" {
		return
	}
	entry := RunRecord{
		JobDir:     NewJobPaths(w.args.JobDir).Root,
		Member:     record.Member,
		Command:    record.Command,
		State:      record.State,
		ExitCode:   record.ExitCode,
		StartedAt:  record.StartedAt,
		FinishedAt: record.FinishedAt,
	}
	if record.Message != nil {
		entry.Message = *record.Message
	}
	if started, err := time.Parse(time.RFC3339Nano, record.StartedAt); err == nil {
		if finished, err := time.Parse(time.RFC3339Nano, record.FinishedAt); err == nil {
			entry.DurationMs = finished.Sub(started).Milliseconds()
		}
	}
	if meta, err := ReadJob(w.args.JobDir); err == nil {
		entry.JobID = meta.ID
		entry.PromptHash = meta.PromptHash
	}
	if err := AppendRunRecord(w.opts.HistoryPath, entry); err != nil {
		w.log.Warn("appending run history", "error", err)
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
