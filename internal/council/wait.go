package council

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	DefaultWaitInterval = 250 * time.Millisecond
	MinWaitInterval     = 50 * time.Millisecond
)

type WaitOptions struct {
	// Cursor is the caller's previous cursor; empty reads .wait_cursor.
	Cursor string
	// Bucket is an explicit bucket size, BucketAuto, or zero for the default.
	Bucket int
	// Interval between polls; raised to MinWaitInterval.
	Interval time.Duration
	// Timeout bounds the wait; zero waits until the cursor changes.
	Timeout time.Duration
	Logger  *slog.Logger
}

// WaitResult is the job status observed when Wait returned.
type WaitResult struct {
	*StatusPayload
	UI       UIPayload `json:"ui"`
	Cursor   string    `json:"cursor"`
	TimedOut bool      `json:"timedOut,omitempty"`
}

// Wait blocks until the job's cursor differs from the previous one, the
// timeout elapses or ctx is done. Without a usable previous cursor it
// returns immediately. Running out of time is reported through TimedOut,
// not as an error. The returned cursor is persisted to .wait_cursor.
func Wait(ctx context.Context, jobDir string, opts WaitOptions) (*WaitResult, error) {
	if opts.Timeout < 0 {
		return nil, fmt.Errorf("wait: negative timeout %s", opts.Timeout)
	}
	if opts.Bucket < BucketAuto {
		return nil, fmt.Errorf("wait: invalid bucket %d", opts.Bucket)
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultWaitInterval
	}
	interval = max(interval, MinWaitInterval)
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	paths := NewJobPaths(jobDir)
	raw := opts.Cursor
	if raw == "" {
		raw = strings.TrimSpace(readFileOrEmpty(paths.CursorFile()))
	}
	var prev *Cursor
	if c, err := ParseCursor(raw); err == nil {
		prev = &c
	} else if raw != "" {
		log.Debug("ignoring previous cursor", "cursor", raw, "error", err)
	}

	payload, err := ComputeStatus(paths.Root)
	if err != nil {
		return nil, err
	}
	bucket := ResolveBucketSize(opts.Bucket, prev, payload.Counts.Total)
	cur := CursorFor(payload, bucket)
	if prev == nil || cur != *prev {
		return finishWait(paths, payload, cur, false)
	}

	changes, stopWatch := watchMembers(paths, log)
	defer stopWatch()

	var deadline <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		timedOut := false
		select {
		case <-ctx.Done():
			timedOut = true
		case <-deadline:
			timedOut = true
		case <-ticker.C:
		case <-changes:
		}

		payload, err = ComputeStatus(paths.Root)
		if err != nil {
			return nil, err
		}
		cur = CursorFor(payload, bucket)
		if timedOut || cur != *prev {
			return finishWait(paths, payload, cur, timedOut && cur == *prev)
		}
	}
}

func finishWait(paths JobPaths, payload *StatusPayload, cur Cursor, timedOut bool) (*WaitResult, error) {
	if err := writeFileAtomic(paths.CursorFile(), []byte(cur.String())); err != nil {
		return nil, fmt.Errorf("persist cursor: %w", err)
	}
	return &WaitResult{
		StatusPayload: payload,
		UI:            BuildUI(payload),
		Cursor:        cur.String(),
		TimedOut:      timedOut,
	}, nil
}

// watchMembers reports status renames under the members directory as a
// wake-up hint. Polling still drives correctness, so a watcher that cannot
// be set up yields a nil channel.
func watchMembers(paths JobPaths, log *slog.Logger) (<-chan struct{}, func()) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Debug("fsnotify unavailable, polling only", "error", err)
		return nil, func() {}
	}
	dirs := []string{paths.MembersDir()}
	if slugs, err := memberSlugs(paths.Root); err == nil {
		for _, slug := range slugs {
			dirs = append(dirs, paths.MemberDir(slug))
		}
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			log.Debug("watch failed", "dir", dir, "error", err)
		}
	}

	hints := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(ev.Name, statusFileName) {
					continue
				}
				select {
				case hints <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Debug("watcher error", "error", err)
			}
		}
	}()
	return hints, func() {
		close(done)
		_ = watcher.Close()
	}
}
