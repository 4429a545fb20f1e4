package main

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"agent-council/internal/council"
)

func runStop(args []string) int {
	fs := pflag.NewFlagSet("stop", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	jsonOut := fs.Bool("json", false, "output JSON")
	if err := fs.Parse(args); err != nil {
		return fail("stop", err)
	}
	jobDir, err := jobDirArg(fs.Args())
	if err != nil {
		return fail("stop", err)
	}

	result, err := council.Stop(jobDir)
	if err != nil {
		return fail("stop", err)
	}
	if *jsonOut {
		printJSON(result)
		return 0
	}
	if len(result.Stopped) == 0 {
		fmt.Println("stop: no running members")
		return 0
	}
	fmt.Println("stop: sent SIGTERM to running members")
	for _, m := range result.Stopped {
		fmt.Printf("- %s (pid %d)\n", m.Member, m.PID)
	}
	return 0
}
