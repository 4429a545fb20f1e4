package council

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
)

// Counts tallies member states. Total counts every readable record.
type Counts struct {
	Total      int `json:"total"`
	Queued     int `json:"queued"`
	Running    int `json:"running"`
	Done       int `json:"done"`
	Error      int `json:"error"`
	MissingCLI int `json:"missing_cli"`
	TimedOut   int `json:"timed_out"`
	Canceled   int `json:"canceled"`
}

func (c *Counts) add(state State) {
	c.Total++
	switch state {
	case StateQueued:
		c.Queued++
	case StateRunning:
		c.Running++
	case StateDone:
		c.Done++
	case StateError:
		c.Error++
	case StateMissingCLI:
		c.MissingCLI++
	case StateTimedOut:
		c.TimedOut++
	case StateCanceled:
		c.Canceled++
	}
}

// TerminalCount is the number of members in any terminal state.
func (c Counts) TerminalCount() int {
	return c.Done + c.Error + c.MissingCLI + c.TimedOut + c.Canceled
}

type MemberSummary struct {
	Member     string  `json:"member"`
	State      State   `json:"state"`
	StartedAt  *string `json:"startedAt"`
	FinishedAt *string `json:"finishedAt"`
	ExitCode   *int    `json:"exitCode"`
	Message    *string `json:"message"`
}

// StatusPayload is the aggregated view of a job.
type StatusPayload struct {
	JobDir       string          `json:"jobDir"`
	ID           string          `json:"id"`
	ChairmanRole string          `json:"chairmanRole,omitempty"`
	OverallState State           `json:"overallState"`
	Counts       Counts          `json:"counts"`
	Members      []MemberSummary `json:"members"`
}

// ComputeStatus aggregates every member status of the job in jobDir. It
// never writes. Members whose status file is absent or unreadable are left
// out of the counts; a job without a members folder is ErrJobNotFound.
func ComputeStatus(jobDir string) (*StatusPayload, error) {
	paths := NewJobPaths(jobDir)
	meta, err := ReadJob(paths.Root)
	if err != nil {
		return nil, err
	}
	slugs, err := memberSlugs(paths.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no members folder in %s", ErrJobNotFound, paths.Root)
		}
		return nil, fmt.Errorf("list members: %w", err)
	}

	payload := &StatusPayload{
		JobDir:       paths.Root,
		ID:           meta.ID,
		ChairmanRole: meta.ChairmanRole,
		Members:      []MemberSummary{},
	}
	for _, slug := range slugs {
		record, err := ReadStatus(paths.Root, slug)
		if err != nil || record == nil {
			continue
		}
		payload.Counts.add(record.State)
		payload.Members = append(payload.Members, MemberSummary{
			Member:     record.Member,
			State:      record.State,
			StartedAt:  optional(record.StartedAt),
			FinishedAt: optional(record.FinishedAt),
			ExitCode:   record.ExitCode,
			Message:    record.Message,
		})
	}
	sort.SliceStable(payload.Members, func(i, j int) bool {
		return payload.Members[i].Member < payload.Members[j].Member
	})

	switch {
	case payload.Counts.Running > 0:
		payload.OverallState = StateRunning
	case payload.Counts.Queued > 0:
		payload.OverallState = StateQueued
	default:
		payload.OverallState = StateDone
	}
	return payload, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
