package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"agent-council/internal/council"
)

func runHistory(args []string) int {
	fs := pflag.NewFlagSet("history", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	limit := fs.Int("limit", 20, "max records")
	state := fs.String("state", "", "filter by state")
	member := fs.String("member", "", "filter by member")
	jsonOut := fs.Bool("json", false, "output JSON")
	if err := fs.Parse(args); err != nil {
		return fail("history", err)
	}

	records, err := council.ReadRunHistory(historyPath(), council.HistoryFilter{
		Limit:  *limit,
		State:  council.State(strings.ToLower(*state)),
		Member: *member,
	})
	if err != nil {
		return fail("history", err)
	}

	if *jsonOut || !isTerminal(os.Stdout) {
		printJSON(map[string]interface{}{"runs": records})
		return 0
	}
	fmt.Print(renderHistory(records))
	return 0
}

func renderHistory(records []council.RunRecord) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Council Runs") + "\n")
	sb.WriteString(renderDivider(60) + "\n")
	if len(records) == 0 {
		sb.WriteString(labelStyle.Render("No runs recorded yet.") + "\n")
		return sb.String()
	}
	for _, rec := range records {
		when := rec.FinishedAt
		if t, err := time.Parse(time.RFC3339Nano, rec.FinishedAt); err == nil {
			when = t.Local().Format("2006-01-02 15:04:05")
		}
		duration := time.Duration(rec.DurationMs) * time.Millisecond
		line := fmt.Sprintf("%s %s %-12s %s %s",
			renderStateIcon(rec.State),
			labelStyle.Render(when),
			roleNameStyle.Render(rec.Member),
			stateStyle(rec.State).Render(fmt.Sprintf("%-10s", rec.State)),
			valueStyle.Render(duration.Round(time.Millisecond).String()),
		)
		if rec.JobID != "" {
			line += " " + pathStyle.Render(rec.JobID)
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}
