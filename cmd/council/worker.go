package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"agent-council/internal/council"
)

// runWorker is the hidden entry point ExecLauncher starts once per member.
func runWorker(args []string) int {
	workerArgs, err := council.ParseWorkerArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	state, err := council.RunWorker(ctx, workerArgs, council.WorkerOptions{
		Logger:      logger,
		HistoryPath: historyPath(),
	})
	if err != nil {
		logger.Error("worker failed", "member", workerArgs.Member, "error", err)
	}
	return council.WorkerExitCode(state, err)
}
