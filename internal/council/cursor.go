package council

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidCursor is returned for cursor strings in neither known format.
var ErrInvalidCursor = errors.New("invalid wait cursor")

// BucketAuto asks ResolveBucketSize to derive the bucket from the member
// count even when a previous cursor carries one.
const BucketAuto = -1

// Cursor is a coarse fingerprint of job progress. Two cursors are equal when
// the job has not advanced by a visible amount.
type Cursor struct {
	Bucket   int
	Dispatch int
	Done     int
	IsDone   bool
}

// ParseCursor accepts "v2:<bucket>:<dispatch>:<done>:<0|1>" and the older
// "v1:<bucket>:<done>:<0|1>", which reads as dispatch 0.
func ParseCursor(s string) (Cursor, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	var c Cursor
	var fields []*int
	var flag string
	switch {
	case len(parts) == 5 && parts[0] == "v2":
		fields = []*int{&c.Bucket, &c.Dispatch, &c.Done}
		flag = parts[4]
	case len(parts) == 4 && parts[0] == "v1":
		fields = []*int{&c.Bucket, &c.Done}
		flag = parts[3]
	default:
		return Cursor{}, fmt.Errorf("%w: %q", ErrInvalidCursor, s)
	}
	for i, dst := range fields {
		n, err := strconv.Atoi(parts[i+1])
		if err != nil || n < 0 {
			return Cursor{}, fmt.Errorf("%w: %q", ErrInvalidCursor, s)
		}
		*dst = n
	}
	if c.Bucket == 0 {
		return Cursor{}, fmt.Errorf("%w: zero bucket in %q", ErrInvalidCursor, s)
	}
	c.IsDone = flag == "1"
	return c, nil
}

func (c Cursor) String() string {
	done := 0
	if c.IsDone {
		done = 1
	}
	return fmt.Sprintf("v2:%d:%d:%d:%d", c.Bucket, c.Dispatch, c.Done, done)
}

// ResolveBucketSize picks the bucket: an explicit positive size, else the
// previous cursor's, else one fifth of the members rounded up (minimum 1).
func ResolveBucketSize(explicit int, prev *Cursor, total int) int {
	if explicit > 0 {
		return explicit
	}
	if explicit != BucketAuto && prev != nil && prev.Bucket > 0 {
		return prev.Bucket
	}
	if total <= 0 {
		return 1
	}
	return max(1, (total+4)/5)
}

// CursorFor fingerprints payload using the given bucket size.
func CursorFor(payload *StatusPayload, bucket int) Cursor {
	if bucket <= 0 {
		bucket = 1
	}
	c := Cursor{
		Bucket: bucket,
		Done:   payload.Counts.TerminalCount() / bucket,
		IsDone: payload.OverallState == StateDone,
	}
	if payload.Counts.Queued == 0 && payload.Counts.Total > 0 {
		c.Dispatch = 1
	}
	return c
}
