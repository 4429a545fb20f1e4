package main

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"agent-council/internal/council"
)

func runClean(args []string) int {
	fs := pflag.NewFlagSet("clean", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return fail("clean", err)
	}
	jobDir, err := jobDirArg(fs.Args())
	if err != nil {
		return fail("clean", err)
	}
	if err := council.Clean(jobDir); err != nil {
		return fail("clean", err)
	}
	fmt.Printf("cleaned: %s\n", council.NewJobPaths(jobDir).Root)
	return 0
}
