package council

import (
	"bufio"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// RunRecord is one line of the run history log, appended by a worker after
// its member reaches a terminal state.
type RunRecord struct {
	JobID      string `json:"job_id,omitempty"`
	JobDir     string `json:"job_dir"`
	Member     string `json:"member"`
	Command    string `json:"cmd"`
	State      State  `json:"state"`
	ExitCode   *int   `json:"exit_code"`
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at"`
	DurationMs int64  `json:"duration_ms"`
	PromptHash string `json:"prompt_hash,omitempty"`
	Message    string `json:"message,omitempty"`
}

var runLogMu sync.Mutex

// AppendRunRecord appends record as a single JSON line. Each line is written
// with one O_APPEND write so workers in separate processes can share a log.
func AppendRunRecord(path string, record RunRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return err
	}

	runLogMu.Lock()
	defer runLogMu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(line, '\n'))
	return err
}

// HistoryFilter narrows ReadRunHistory. Zero values match everything.
type HistoryFilter struct {
	Limit  int
	State  State
	Member string
}

// ReadRunHistory returns matching records newest first. Malformed lines are
// skipped; a missing log yields an empty list.
func ReadRunHistory(path string, filter HistoryFilter) ([]RunRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []RunRecord{}, nil
		}
		return nil, err
	}
	defer f.Close()

	records := []RunRecord{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec RunRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		if filter.State != "" && rec.State != filter.State {
			continue
		}
		if filter.Member != "" && !strings.EqualFold(rec.Member, filter.Member) {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if filter.Limit > 0 && len(records) > filter.Limit {
		records = records[len(records)-filter.Limit:]
	}
	slices.Reverse(records)
	return records, nil
}
