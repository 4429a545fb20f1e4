package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"agent-council/internal/council"
)

func runStatus(args []string) int {
	fs := pflag.NewFlagSet("status", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	jsonOut := fs.Bool("json", false, "output JSON")
	textOut := fs.Bool("text", false, "one-line summary")
	checklist := fs.Bool("checklist", false, "checklist view")
	verbose := fs.Bool("verbose", false, "list members in text mode")
	if err := fs.Parse(args); err != nil {
		return fail("status", err)
	}
	jobDir, err := jobDirArg(fs.Args())
	if err != nil {
		return fail("status", err)
	}

	payload, err := council.ComputeStatus(jobDir)
	if err != nil {
		return fail("status", err)
	}

	switch {
	case *jsonOut:
		printJSON(payload)
	case *checklist:
		fmt.Print(renderChecklist(payload, isTerminal(os.Stdout)))
	case *textOut:
		fmt.Print(renderStatusText(payload, *verbose))
	case isTerminal(os.Stdout):
		fmt.Print(renderChecklist(payload, true))
	default:
		printJSON(payload)
	}
	return 0
}

func renderStatusText(payload *council.StatusPayload, verbose bool) string {
	var sb strings.Builder
	c := payload.Counts
	fmt.Fprintf(&sb, "members %d/%d done; running=%d queued=%d\n", c.TerminalCount(), c.Total, c.Running, c.Queued)
	if verbose {
		for _, m := range payload.Members {
			fmt.Fprintf(&sb, "- %s: %s%s\n", m.Member, m.State, exitSuffix(m.ExitCode))
		}
	}
	return sb.String()
}

func checklistMark(state council.State) string {
	switch {
	case state == council.StateDone:
		return "[x]"
	case state == council.StateRunning, state == council.StateQueued, state == "":
		return "[ ]"
	default:
		return "[!]"
	}
}

// renderChecklist prints one line per member. Styling is applied only for
// terminals so piped output stays plain.
func renderChecklist(payload *council.StatusPayload, styled bool) string {
	var sb strings.Builder
	c := payload.Counts
	header := "Agent Council"
	if payload.ID != "" {
		header += " (" + payload.ID + ")"
	}
	progress := fmt.Sprintf("Progress: %d/%d done  (running %d, queued %d)", c.TerminalCount(), c.Total, c.Running, c.Queued)
	if styled {
		sb.WriteString(titleStyle.Render(header) + "\n")
		sb.WriteString(labelStyle.Render(progress) + "\n")
		sb.WriteString(renderDivider(50) + "\n")
	} else {
		sb.WriteString(header + "\n" + progress + "\n")
	}
	for _, m := range payload.Members {
		if styled {
			line := fmt.Sprintf("%s %-20s %s", renderStateIcon(m.State), roleNameStyle.Render(m.Member), stateStyle(m.State).Render(string(m.State)))
			line += labelStyle.Render(exitSuffix(m.ExitCode))
			if m.Message != nil && m.State != council.StateDone {
				line += " " + pathStyle.Render(*m.Message)
			}
			sb.WriteString(line + "\n")
			continue
		}
		fmt.Fprintf(&sb, "%s %s - %s%s\n", checklistMark(m.State), m.Member, m.State, exitSuffix(m.ExitCode))
	}
	return sb.String()
}

func exitSuffix(code *int) string {
	if code == nil {
		return ""
	}
	return fmt.Sprintf(" (exit %d)", *code)
}
