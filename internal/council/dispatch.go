package council

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// ErrInvalidRequest marks a dispatch request rejected before any file was
// written.
var ErrInvalidRequest = errors.New("invalid dispatch request")

type DispatchRequest struct {
	Prompt  string
	JobsDir string
	Members []Member

	ConfigPath                 string
	HostRole                   string
	ChairmanRole               string
	ExcludeChairmanFromMembers bool
	// TimeoutSec bounds each member's run; zero means no timeout.
	TimeoutSec int

	Logger *slog.Logger
	Now    func() time.Time
}

// Job is a dispatched job: its directory and the metadata written to it.
type Job struct {
	Dir  string
	Meta JobMeta
}

func (r DispatchRequest) validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("%w: prompt is empty", ErrInvalidRequest)
	}
	if r.JobsDir == "" {
		return fmt.Errorf("%w: jobs directory is empty", ErrInvalidRequest)
	}
	if len(r.Members) == 0 {
		return fmt.Errorf("%w: no members to dispatch", ErrInvalidRequest)
	}
	if r.TimeoutSec < 0 {
		return fmt.Errorf("%w: negative timeout %d", ErrInvalidRequest, r.TimeoutSec)
	}
	seen := map[string]string{}
	for i, m := range r.Members {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("%w: member %d has no name", ErrInvalidRequest, i)
		}
		if strings.TrimSpace(m.Command) == "" {
			return fmt.Errorf("%w: member %q has no command", ErrInvalidRequest, m.Name)
		}
		slug := SafeName(m.Name)
		if other, ok := seen[slug]; ok {
			return fmt.Errorf("%w: members %q and %q share directory %q", ErrInvalidRequest, other, m.Name, slug)
		}
		seen[slug] = m.Name
	}
	return nil
}

// PromptHash returns the hex blake3 digest recorded for a prompt.
func PromptHash(prompt string) string {
	sum := blake3.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

func newJobID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("council-%s-%s", now.UTC().Format("20060102-150405"), suffix)
}

// Dispatch creates a job directory for req and launches one worker per
// member. Requests are validated before the filesystem is touched. A member
// whose worker cannot be launched is recorded with a terminal status and
// the remaining members are still launched.
func Dispatch(ctx context.Context, req DispatchRequest, launcher Launcher) (*Job, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	log := req.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	now := time.Now
	if req.Now != nil {
		now = req.Now
	}

	jobsDir, err := filepath.Abs(req.JobsDir)
	if err != nil {
		return nil, fmt.Errorf("resolve jobs dir: %w", err)
	}
	if err := os.MkdirAll(jobsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create jobs dir: %w", err)
	}

	createdAt := now().UTC()
	meta := JobMeta{
		CreatedAt:    formatTime(createdAt),
		ConfigPath:   req.ConfigPath,
		HostRole:     req.HostRole,
		ChairmanRole: req.ChairmanRole,
		PromptHash:   PromptHash(req.Prompt),
		Settings: JobSettings{
			ExcludeChairmanFromMembers: req.ExcludeChairmanFromMembers,
		},
		Members: req.Members,
	}
	if req.TimeoutSec > 0 {
		meta.Settings.TimeoutSec = intPtr(req.TimeoutSec)
	}

	jobDir, err := createJobDir(jobsDir, createdAt, &meta)
	if err != nil {
		return nil, err
	}
	if err := writeSkeleton(jobDir, req.Prompt, meta); err != nil {
		return nil, err
	}
	job := &Job{Dir: jobDir, Meta: meta}
	log = log.With("job", meta.ID)

	paths := NewJobPaths(jobDir)
	for _, m := range req.Members {
		slug := SafeName(m.Name)
		if err := os.MkdirAll(paths.MemberDir(slug), 0o755); err != nil {
			return job, fmt.Errorf("create member dir %s: %w", slug, err)
		}
		queued := StatusRecord{
			Member:   m.Name,
			State:    StateQueued,
			QueuedAt: formatTime(now()),
			Command:  m.Command,
		}
		if err := WriteStatus(jobDir, slug, queued); err != nil {
			return job, err
		}

		args := WorkerArgs{
			JobDir:     jobDir,
			Member:     m.Name,
			Slug:       slug,
			Command:    m.Command,
			TimeoutSec: req.TimeoutSec,
		}
		if err := launcher.Launch(ctx, args); err != nil {
			log.Warn("worker launch failed", "member", m.Name, "error", err)
			failed := queued
			failed.State = StateError
			if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
				failed.State = StateMissingCLI
			}
			failed.FinishedAt = formatTime(now())
			failed.Message = strPtr(fmt.Sprintf("Failed to launch worker: %v", err))
			if err := WriteStatus(jobDir, slug, failed); err != nil {
				return job, err
			}
			continue
		}
		log.Debug("worker launched", "member", m.Name, "slug", slug)
	}
	return job, nil
}

// createJobDir claims a fresh directory under jobsDir and stores its id in
// meta. The random suffix makes a collision unlikely; a few retries cover it.
func createJobDir(jobsDir string, createdAt time.Time, meta *JobMeta) (string, error) {
	var lastErr error
	for range 5 {
		id := newJobID(createdAt)
		dir := filepath.Join(jobsDir, id)
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			meta.ID = id
			return dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("create job dir: %w", err)
		}
		lastErr = err
	}
	return "", fmt.Errorf("create job dir: %w", lastErr)
}

// writeSkeleton writes the members folder, prompt and job.json. On failure
// the whole job directory is removed so no half-written job is left.
func writeSkeleton(jobDir, prompt string, meta JobMeta) (err error) {
	defer func() {
		if err != nil {
			if rmErr := os.RemoveAll(jobDir); rmErr != nil {
				err = errors.Join(err, fmt.Errorf("remove job dir: %w", rmErr))
			}
		}
	}()
	paths := NewJobPaths(jobDir)
	if err := os.MkdirAll(paths.MembersDir(), 0o755); err != nil {
		return fmt.Errorf("create members dir: %w", err)
	}
	if err := writeFileAtomic(paths.PromptFile(), []byte(prompt)); err != nil {
		return fmt.Errorf("write prompt: %w", err)
	}
	if err := WriteJSONAtomic(paths.JobFile(), meta); err != nil {
		return fmt.Errorf("write job: %w", err)
	}
	return nil
}
