package council

import (
	"fmt"
	"os"
	"sort"
)

type MemberResult struct {
	Member   string  `json:"member"`
	State    State   `json:"state"`
	ExitCode *int    `json:"exitCode"`
	Message  *string `json:"message"`
	Output   string  `json:"output"`
	Stderr   string  `json:"stderr"`
}

type Results struct {
	JobDir  string         `json:"jobDir"`
	ID      *string        `json:"id"`
	Prompt  *string        `json:"prompt"`
	Members []MemberResult `json:"members"`
}

// CollectResults gathers each member's captured output. Unlike
// ComputeStatus it tolerates a missing job.json.
func CollectResults(jobDir string) (*Results, error) {
	paths := NewJobPaths(jobDir)
	if _, err := os.Stat(paths.Root); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, paths.Root)
	}
	results := &Results{JobDir: paths.Root, Members: []MemberResult{}}
	if meta, err := ReadJob(paths.Root); err == nil {
		results.ID = &meta.ID
	}
	if prompt, err := ReadPrompt(paths.Root); err == nil && prompt != "" {
		results.Prompt = &prompt
	}

	slugs, _ := memberSlugs(paths.Root)
	for _, slug := range slugs {
		record, err := ReadStatus(paths.Root, slug)
		if err != nil || record == nil {
			continue
		}
		results.Members = append(results.Members, MemberResult{
			Member:   record.Member,
			State:    record.State,
			ExitCode: record.ExitCode,
			Message:  record.Message,
			Output:   readFileOrEmpty(paths.OutputFile(slug)),
			Stderr:   readFileOrEmpty(paths.ErrorFile(slug)),
		})
	}
	sort.SliceStable(results.Members, func(i, j int) bool {
		return results.Members[i].Member < results.Members[j].Member
	})
	return results, nil
}
