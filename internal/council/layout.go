package council

import (
	"path/filepath"
	"regexp"
	"strings"
)

const (
	jobFileName    = "job.json"
	promptFileName = "prompt.txt"
	cursorFileName = ".wait_cursor"
	membersDirName = "members"
	statusFileName = "status.json"
	outputFileName = "output.txt"
	errorFileName  = "error.txt"

	defaultSlug = "member"
)

var (
	slugDisallowed = regexp.MustCompile(`[^a-z0-9_-]+`)
	slugAlnum      = regexp.MustCompile(`[a-z0-9]`)
)

// SafeName derives the filesystem slug used for a member's directory. Names
// without any letter or digit map to a fixed placeholder.
func SafeName(name string) string {
	cleaned := slugDisallowed.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	if !slugAlnum.MatchString(cleaned) {
		return defaultSlug
	}
	return cleaned
}

// JobPaths resolves the fixed file layout of a job directory.
type JobPaths struct {
	Root string
}

func NewJobPaths(jobDir string) JobPaths {
	if abs, err := filepath.Abs(jobDir); err == nil {
		jobDir = abs
	}
	return JobPaths{Root: jobDir}
}

func (p JobPaths) JobFile() string    { return filepath.Join(p.Root, jobFileName) }
func (p JobPaths) PromptFile() string { return filepath.Join(p.Root, promptFileName) }
func (p JobPaths) CursorFile() string { return filepath.Join(p.Root, cursorFileName) }
func (p JobPaths) MembersDir() string { return filepath.Join(p.Root, membersDirName) }

func (p JobPaths) MemberDir(slug string) string {
	return filepath.Join(p.Root, membersDirName, slug)
}

func (p JobPaths) StatusFile(slug string) string {
	return filepath.Join(p.MemberDir(slug), statusFileName)
}

func (p JobPaths) OutputFile(slug string) string {
	return filepath.Join(p.MemberDir(slug), outputFileName)
}

func (p JobPaths) ErrorFile(slug string) string {
	return filepath.Join(p.MemberDir(slug), errorFileName)
}
