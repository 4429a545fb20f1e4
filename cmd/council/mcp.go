package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"

	"agent-council/internal/council"
)

// MCPStartInput for council-start
type MCPStartInput struct {
	Prompt          string `json:"prompt"`
	Config          string `json:"config,omitempty"`
	Chairman        string `json:"chairman,omitempty"`
	JobsDir         string `json:"jobs_dir,omitempty"`
	Timeout         int    `json:"timeout,omitempty"`
	IncludeChairman bool   `json:"include_chairman,omitempty"`
}

// MCPJobInput for tools that act on one job directory
type MCPJobInput struct {
	JobDir string `json:"job_dir"`
}

// MCPWaitInput for council-wait
type MCPWaitInput struct {
	JobDir     string `json:"job_dir"`
	Cursor     string `json:"cursor,omitempty"`
	Bucket     string `json:"bucket,omitempty"`
	IntervalMs int    `json:"interval_ms,omitempty"`
	TimeoutMs  int    `json:"timeout_ms,omitempty"`
}

// MCPHistoryInput for council-history
type MCPHistoryInput struct {
	Limit  int    `json:"limit,omitempty"`
	State  string `json:"state,omitempty"`
	Member string `json:"member,omitempty"`
}

// mcpWaitCap keeps a single tool call from outliving typical client timeouts.
const mcpWaitCap = 5 * time.Minute

func runMCP(args []string) int {
	fs := pflag.NewFlagSet("mcp", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return fail("mcp", err)
	}

	server := newMCPServer(council.ExecLauncher{})
	transport := mcp.NewStdioTransport()
	session, err := server.Connect(context.Background(), transport, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	if err := session.Wait(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

func newMCPServer(launcher council.Launcher) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "council-mcp-server",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name: "council-start",
		Description: `Dispatch a prompt to every configured council member. Returns immediately.

Parameters:
- prompt (required): The question for the council
- config: Config file path
- chairman: auto, claude, codex, ...
- jobs_dir: Directory that holds job directories
- timeout: Per-member timeout in seconds
- include_chairman: Keep the chairman as a member

Returns jobDir plus the job metadata.`,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input MCPStartInput) (*mcp.CallToolResult, map[string]interface{}, error) {
		return mcpStart(ctx, input, launcher)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name: "council-status",
		Description: `Aggregate member states of a job.

Parameters:
- job_dir (required): Job directory returned by council-start`,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input MCPJobInput) (*mcp.CallToolResult, map[string]interface{}, error) {
		return mcpStatus(input)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name: "council-wait",
		Description: `Block until the job makes visible progress, then return its status with a cursor.

Pass the returned cursor to the next call. Includes ui.codex.update_plan and
ui.claude.todo_write payloads for progress display.

Parameters:
- job_dir (required): Job directory
- cursor: Cursor from the previous call
- bucket: "auto" or a positive number of members per progress step
- interval_ms: Poll interval (default 250)
- timeout_ms: Give up after this long (default and cap 300000)`,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input MCPWaitInput) (*mcp.CallToolResult, map[string]interface{}, error) {
		return mcpWait(ctx, input)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name: "council-results",
		Description: `Collect each member's output and stderr.

Parameters:
- job_dir (required): Job directory`,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input MCPJobInput) (*mcp.CallToolResult, map[string]interface{}, error) {
		return mcpResults(input)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name: "council-stop",
		Description: `Send SIGTERM to every running member; they finish as canceled.

Parameters:
- job_dir (required): Job directory`,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input MCPJobInput) (*mcp.CallToolResult, map[string]interface{}, error) {
		if err := requireJobDir(input.JobDir); err != nil {
			return nil, nil, err
		}
		result, err := council.Stop(input.JobDir)
		if err != nil {
			return nil, nil, err
		}
		out, err := toMap(result)
		return nil, out, err
	})

	mcp.AddTool(server, &mcp.Tool{
		Name: "council-clean",
		Description: `Remove a job directory.

Parameters:
- job_dir (required): Job directory`,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input MCPJobInput) (*mcp.CallToolResult, map[string]interface{}, error) {
		if err := requireJobDir(input.JobDir); err != nil {
			return nil, nil, err
		}
		if err := council.Clean(input.JobDir); err != nil {
			return nil, nil, err
		}
		return nil, map[string]interface{}{"cleaned": council.NewJobPaths(input.JobDir).Root}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name: "council-history",
		Description: `List finished member runs, newest first.

Parameters:
- limit: Max records (default 20)
- state: Filter by terminal state
- member: Filter by member name`,
	}, func(ctx context.Context, req *mcp.CallToolRequest, input MCPHistoryInput) (*mcp.CallToolResult, map[string]interface{}, error) {
		limit := input.Limit
		if limit <= 0 {
			limit = 20
		}
		records, err := council.ReadRunHistory(historyPath(), council.HistoryFilter{
			Limit:  limit,
			State:  council.State(strings.ToLower(input.State)),
			Member: input.Member,
		})
		if err != nil {
			return nil, nil, err
		}
		out, err := toMap(map[string]interface{}{"runs": records})
		return nil, out, err
	})

	return server
}

func requireJobDir(jobDir string) error {
	if strings.TrimSpace(jobDir) == "" {
		return errors.New("job_dir is required")
	}
	return nil
}

func mcpStart(ctx context.Context, input MCPStartInput, launcher council.Launcher) (*mcp.CallToolResult, map[string]interface{}, error) {
	if strings.TrimSpace(input.Prompt) == "" {
		return nil, nil, errors.New("prompt is required")
	}
	opts := startOptions{
		configPath:      input.Config,
		chairman:        input.Chairman,
		jobsDir:         input.JobsDir,
		timeout:         input.Timeout,
		includeChairman: input.IncludeChairman,
		includeChanged:  input.IncludeChairman,
	}
	job, err := startJob(ctx, input.Prompt, opts, launcher)
	if err != nil {
		if job != nil {
			return nil, nil, fmt.Errorf("%w (job %s started in %s)", err, job.Meta.ID, job.Dir)
		}
		return nil, nil, err
	}
	return nil, startPayload(job), nil
}

func mcpStatus(input MCPJobInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	if err := requireJobDir(input.JobDir); err != nil {
		return nil, nil, err
	}
	payload, err := council.ComputeStatus(input.JobDir)
	if err != nil {
		return nil, nil, err
	}
	out, err := toMap(payload)
	return nil, out, err
}

func mcpWait(ctx context.Context, input MCPWaitInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	if err := requireJobDir(input.JobDir); err != nil {
		return nil, nil, err
	}
	intervalMs := input.IntervalMs
	if intervalMs <= 0 {
		intervalMs = int(council.DefaultWaitInterval / time.Millisecond)
	}
	timeoutMs := input.TimeoutMs
	if timeoutMs <= 0 || time.Duration(timeoutMs)*time.Millisecond > mcpWaitCap {
		timeoutMs = int(mcpWaitCap / time.Millisecond)
	}
	opts, err := waitOptions(input.Cursor, input.Bucket, intervalMs, timeoutMs)
	if err != nil {
		return nil, nil, err
	}
	result, err := council.Wait(ctx, input.JobDir, opts)
	if err != nil {
		return nil, nil, err
	}
	out, err := toMap(result)
	return nil, out, err
}

func mcpResults(input MCPJobInput) (*mcp.CallToolResult, map[string]interface{}, error) {
	if err := requireJobDir(input.JobDir); err != nil {
		return nil, nil, err
	}
	results, err := council.CollectResults(input.JobDir)
	if err != nil {
		return nil, nil, err
	}
	out, err := toMap(results)
	return nil, out, err
}
