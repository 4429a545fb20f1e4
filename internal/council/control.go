package council

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
)

// ErrNotJobDir guards Clean against removing a directory that was not
// created by Dispatch.
var ErrNotJobDir = errors.New("not a council job directory")

type StoppedMember struct {
	Member string `json:"member"`
	PID    int    `json:"pid"`
}

type StopResult struct {
	JobDir  string          `json:"jobDir"`
	Stopped []StoppedMember `json:"stopped"`
}

// Stop sends SIGTERM to every running member with a known pid. Delivery
// failures are ignored; the worker records the outcome as canceled.
func Stop(jobDir string) (*StopResult, error) {
	paths := NewJobPaths(jobDir)
	slugs, err := memberSlugs(paths.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no members folder in %s", ErrJobNotFound, paths.Root)
		}
		return nil, fmt.Errorf("list members: %w", err)
	}

	result := &StopResult{JobDir: paths.Root, Stopped: []StoppedMember{}}
	for _, slug := range slugs {
		record, err := ReadStatus(paths.Root, slug)
		if err != nil || record == nil {
			continue
		}
		if record.State != StateRunning || record.PID == nil || *record.PID <= 0 {
			continue
		}
		if err := terminateMember(*record.PID); err != nil {
			continue
		}
		result.Stopped = append(result.Stopped, StoppedMember{Member: record.Member, PID: *record.PID})
	}
	sort.Slice(result.Stopped, func(i, j int) bool {
		return result.Stopped[i].Member < result.Stopped[j].Member
	})
	return result, nil
}

// Clean removes a job directory. An absent directory is not an error; an
// existing directory without job.json is refused.
func Clean(jobDir string) error {
	if jobDir == "" {
		return fmt.Errorf("clean: empty job directory")
	}
	paths := NewJobPaths(jobDir)
	info, err := os.Stat(paths.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("clean: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("clean: %w: %s is not a directory", ErrNotJobDir, paths.Root)
	}
	if _, err := os.Stat(paths.JobFile()); err != nil {
		return fmt.Errorf("clean: %w: %s", ErrNotJobDir, paths.Root)
	}
	if err := os.RemoveAll(paths.Root); err != nil {
		return fmt.Errorf("clean: %w", err)
	}
	return nil
}
