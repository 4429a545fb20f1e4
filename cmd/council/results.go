package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"agent-council/internal/council"
)

func runResults(args []string) int {
	fs := pflag.NewFlagSet("results", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	jsonOut := fs.Bool("json", false, "output JSON")
	if err := fs.Parse(args); err != nil {
		return fail("results", err)
	}
	jobDir, err := jobDirArg(fs.Args())
	if err != nil {
		return fail("results", err)
	}

	results, err := council.CollectResults(jobDir)
	if err != nil {
		return fail("results", err)
	}
	if *jsonOut {
		printJSON(results)
		return 0
	}
	fmt.Print(renderResults(results, isTerminal(os.Stdout)))
	return 0
}

// renderResults prints each member's output, falling back to its stderr
// when the output is empty.
func renderResults(results *council.Results, styled bool) string {
	var sb strings.Builder
	for _, m := range results.Members {
		header := fmt.Sprintf("=== %s (%s) ===", m.Member, m.State)
		if styled {
			header = sectionStyle.Render("=== "+m.Member) + " " + stateStyle(m.State).Render("("+string(m.State)+")") + sectionStyle.Render(" ===")
		}
		sb.WriteString("\n" + header + "\n")
		if m.Message != nil {
			sb.WriteString(*m.Message + "\n")
		}
		sb.WriteString(m.Output)
		if m.Output == "" && m.Stderr != "" {
			sb.WriteString("\n" + m.Stderr)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
