package council

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrJobNotFound is returned when a job directory or its job.json is absent.
	ErrJobNotFound = errors.New("job not found")
)

// WriteJSONAtomic replaces path with the indented JSON encoding of v. The
// data goes to a uniquely named temporary file in the same directory which
// is then renamed over path, so concurrent readers see either the old or the
// new content.
func WriteJSONAtomic(path string, v any) error {
	if path == "" {
		return fmt.Errorf("path is empty")
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	tmp := fmt.Sprintf("%s.%d.%s.tmp", path, os.Getpid(), suffix)
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// WriteStatus replaces the status record of the member with the given slug.
func WriteStatus(jobDir, slug string, record StatusRecord) error {
	paths := NewJobPaths(jobDir)
	if err := WriteJSONAtomic(paths.StatusFile(slug), record); err != nil {
		return fmt.Errorf("write status %s: %w", slug, err)
	}
	return nil
}

// ReadStatus returns the member's current status record, or nil when no
// record has been written yet.
func ReadStatus(jobDir, slug string) (*StatusRecord, error) {
	path := NewJobPaths(jobDir).StatusFile(slug)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read status %s: %w", slug, err)
	}
	var record StatusRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parse status %s: %w", slug, err)
	}
	return &record, nil
}

// ReadJob loads job.json from jobDir.
func ReadJob(jobDir string) (*JobMeta, error) {
	path := NewJobPaths(jobDir).JobFile()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, path)
		}
		return nil, fmt.Errorf("read job: %w", err)
	}
	var meta JobMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse job %s: %w", path, err)
	}
	return &meta, nil
}

// ReadPrompt returns the dispatched prompt, or "" if prompt.txt is absent.
func ReadPrompt(jobDir string) (string, error) {
	data, err := os.ReadFile(NewJobPaths(jobDir).PromptFile())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read prompt: %w", err)
	}
	return string(data), nil
}

// memberSlugs lists the member directories present under members/.
func memberSlugs(jobDir string) ([]string, error) {
	entries, err := os.ReadDir(NewJobPaths(jobDir).MembersDir())
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			slugs = append(slugs, entry.Name())
		}
	}
	return slugs, nil
}

func readFileOrEmpty(path string) string {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return ""
	}
	return string(data)
}
