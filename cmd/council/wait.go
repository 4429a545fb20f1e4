package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"agent-council/internal/council"
)

func runWait(args []string) int {
	fs := pflag.NewFlagSet("wait", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cursor := fs.String("cursor", "", "previous cursor")
	bucket := fs.String("bucket", "", "bucket size (auto|N)")
	intervalMs := fs.Int("interval-ms", int(council.DefaultWaitInterval/time.Millisecond), "poll interval in ms")
	timeoutMs := fs.Int("timeout-ms", 0, "give up after ms (0 waits until progress)")
	if err := fs.Parse(args); err != nil {
		return fail("wait", err)
	}
	jobDir, err := jobDirArg(fs.Args())
	if err != nil {
		return fail("wait", err)
	}
	opts, err := waitOptions(*cursor, *bucket, *intervalMs, *timeoutMs)
	if err != nil {
		return fail("wait", err)
	}
	opts.Logger = newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	result, err := council.Wait(ctx, jobDir, opts)
	if err != nil {
		return fail("wait", err)
	}
	printJSON(result)
	return 0
}

func waitOptions(cursor, bucket string, intervalMs, timeoutMs int) (council.WaitOptions, error) {
	opts := council.WaitOptions{Cursor: cursor}
	bucketSize, err := parseBucket(bucket)
	if err != nil {
		return opts, err
	}
	opts.Bucket = bucketSize
	if timeoutMs < 0 {
		return opts, fmt.Errorf("invalid --timeout-ms: %d", timeoutMs)
	}
	opts.Interval = max(time.Duration(intervalMs)*time.Millisecond, council.MinWaitInterval)
	opts.Timeout = time.Duration(timeoutMs) * time.Millisecond
	return opts, nil
}

func parseBucket(raw string) (int, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "":
		return 0, nil
	case "auto":
		return council.BucketAuto, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid --bucket: %s", raw)
	}
	return n, nil
}
