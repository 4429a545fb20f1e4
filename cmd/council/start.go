package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"agent-council/internal/council"
)

type startOptions struct {
	configPath      string
	chairman        string
	jobsDir         string
	timeout         int
	includeChairman bool
	excludeChairman bool
	excludeChanged  bool
	includeChanged  bool
}

func runStart(args []string) int {
	fs := pflag.NewFlagSet("start", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var opts startOptions
	fs.StringVar(&opts.configPath, "config", "", "config path")
	fs.StringVar(&opts.chairman, "chairman", "", "chairman role (auto|claude|codex|...)")
	fs.StringVar(&opts.jobsDir, "jobs-dir", "", "jobs directory")
	fs.IntVar(&opts.timeout, "timeout", 0, "per-member timeout in seconds")
	fs.BoolVar(&opts.includeChairman, "include-chairman", false, "keep the chairman as a member")
	fs.BoolVar(&opts.excludeChairman, "exclude-chairman", false, "drop the chairman from members")
	jsonOut := fs.Bool("json", false, "output JSON")
	fromStdin := fs.Bool("stdin", false, "read prompt from stdin")
	if err := fs.Parse(args); err != nil {
		return fail("start", err)
	}
	opts.excludeChanged = fs.Changed("exclude-chairman")
	opts.includeChanged = fs.Changed("include-chairman")

	prompt := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if *fromStdin {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fail("start", err)
		}
		prompt = string(data)
	}
	if strings.TrimSpace(prompt) == "" {
		return fail("start", fmt.Errorf("missing prompt"))
	}

	job, err := startJob(context.Background(), prompt, opts, council.ExecLauncher{})
	if err != nil {
		if job != nil {
			reportPartialJob(os.Stderr, job)
		}
		return fail("start", err)
	}

	if *jsonOut {
		printJSON(startPayload(job))
		return 0
	}
	if isTerminal(os.Stdout) {
		renderStartPretty(job)
		return 0
	}
	fmt.Println(job.Dir)
	return 0
}

// startJob resolves configuration and dispatches prompt to the selected
// members.
func startJob(ctx context.Context, prompt string, opts startOptions, launcher council.Launcher) (*council.Job, error) {
	configPath := resolveConfigPath(opts.configPath)
	cfg, err := loadCouncilConfig(configPath)
	if err != nil {
		return nil, err
	}
	hostRole := detectHostRole()
	chairman := resolveChairman(opts.chairman, cfg, hostRole)

	sel := memberSelection{chairman: chairman, includeChairman: opts.includeChairman}
	switch {
	case opts.excludeChanged:
		v := opts.excludeChairman
		sel.excludeOverride = &v
	case opts.includeChanged:
		v := !opts.includeChairman
		sel.excludeOverride = &v
	}
	members := selectMembers(cfg, sel)
	if len(members) == 0 {
		return nil, fmt.Errorf("no council members configured in %s", configPath)
	}

	logger := newLogger()
	return council.Dispatch(ctx, council.DispatchRequest{
		Prompt:                     prompt,
		JobsDir:                    resolveJobsDir(opts.jobsDir),
		Members:                    members,
		ConfigPath:                 configPath,
		HostRole:                   hostRole,
		ChairmanRole:               chairman,
		ExcludeChairmanFromMembers: sel.excludeChairman(cfg),
		TimeoutSec:                 effectiveTimeout(opts.timeout, cfg),
		Logger:                     logger,
	}, launcher)
}

// reportPartialJob names a job whose dispatch stopped after some members
// were already launched.
func reportPartialJob(w io.Writer, job *council.Job) {
	fmt.Fprintf(w, "start: job %s was created and may have running members: %s\n", job.Meta.ID, job.Dir)
}

func startPayload(job *council.Job) map[string]interface{} {
	payload, err := toMap(job.Meta)
	if err != nil {
		payload = map[string]interface{}{"id": job.Meta.ID}
	}
	payload["jobDir"] = job.Dir
	return payload
}

func renderStartPretty(job *council.Job) {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Agent Council") + "\n")
	sb.WriteString(labelStyle.Render("Job:      ") + valueStyle.Render(job.Meta.ID) + "\n")
	sb.WriteString(labelStyle.Render("Chairman: ") + roleNameStyle.Render(job.Meta.ChairmanRole) + "\n")
	if job.Meta.Settings.TimeoutSec != nil {
		sb.WriteString(labelStyle.Render("Timeout:  ") + valueStyle.Render(fmt.Sprintf("%ds", *job.Meta.Settings.TimeoutSec)) + "\n")
	}
	sb.WriteString("\n")
	for _, m := range job.Meta.Members {
		sb.WriteString(fmt.Sprintf("%s %s %s\n", iconArrow, memberLabel(m), pathStyle.Render(m.Command)))
	}
	sb.WriteString("\n" + pathStyle.Render(job.Dir) + "\n")
	fmt.Print(sb.String())
}

// memberLabel renders a member name with its configured emoji and color.
func memberLabel(m council.Member) string {
	style := roleNameStyle
	if m.Color != nil {
		if c, ok := memberColors[strings.ToUpper(*m.Color)]; ok {
			style = style.Foreground(c)
		}
	}
	label := m.Name
	if m.Emoji != nil {
		label = *m.Emoji + " " + label
	}
	return style.Render(label)
}

var memberColors = map[string]lipgloss.Color{
	"RED":     lipgloss.Color("196"),
	"GREEN":   lipgloss.Color("78"),
	"YELLOW":  lipgloss.Color("220"),
	"BLUE":    lipgloss.Color("33"),
	"MAGENTA": lipgloss.Color("170"),
	"CYAN":    lipgloss.Color("86"),
	"WHITE":   lipgloss.Color("252"),
}
