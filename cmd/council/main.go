package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func main() {
	cmd, rest := resolveCommand(os.Args[1:])
	switch cmd {
	case "start":
		os.Exit(runStart(rest))
	case "status":
		os.Exit(runStatus(rest))
	case "wait":
		os.Exit(runWait(rest))
	case "results":
		os.Exit(runResults(rest))
	case "stop":
		os.Exit(runStop(rest))
	case "clean":
		os.Exit(runClean(rest))
	case "watch":
		os.Exit(runWatch(rest))
	case "history":
		os.Exit(runHistory(rest))
	case "mcp":
		os.Exit(runMCP(rest))
	case "worker":
		os.Exit(runWorker(rest))
	case "help":
		printHelp()
		os.Exit(0)
	default:
		printHelp()
		os.Exit(1)
	}
}

func resolveCommand(args []string) (string, []string) {
	subcommands := map[string]bool{
		"start":   true,
		"status":  true,
		"wait":    true,
		"results": true,
		"stop":    true,
		"clean":   true,
		"watch":   true,
		"history": true,
		"mcp":     true,
		"worker":  true,
		"help":    true,
	}

	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		if subcommands[args[0]] {
			return args[0], args[1:]
		}
	}

	alias := map[string]string{
		"council":         "",
		"council-mcp":     "mcp",
		"council-mcp.exe": "mcp",
	}

	exe := filepath.Base(os.Args[0])
	if mapped, ok := alias[exe]; ok && mapped != "" {
		return mapped, args
	}

	return "", args
}

func printHelp() {
	fmt.Print(`council

Usage:
  council <command> [options]

Commands:
  start [--config path] [--chairman auto|claude|codex|...] [--jobs-dir path]
        [--timeout sec] [--include-chairman|--exclude-chairman] [--json] "question"
  start --stdin            Read the prompt from stdin
  status [--json|--text|--checklist] [--verbose] <jobDir>
  wait [--cursor CURSOR] [--bucket auto|N] [--interval-ms N] [--timeout-ms N] <jobDir>
  results [--json] <jobDir>
  stop <jobDir>            Send SIGTERM to running members
  clean <jobDir>           Remove a job directory
  watch <jobDir>           Live progress view
  history [--limit N] [--state S] [--member M] [--json]
  mcp                      Run MCP server (stdio)

Environment:
  COUNCIL_HOME        Base directory (default ~/.council)
  COUNCIL_CONFIG      Config file path
  COUNCIL_JOBS_DIR    Jobs directory (default $COUNCIL_HOME/jobs)
  COUNCIL_CHAIRMAN    Chairman role override
  COUNCIL_HOST_ROLE   Host agent role (claude|codex)
  COUNCIL_LOG_LEVEL   debug|info|warn|error (default warn)
  COUNCIL_DEBUG       Enable debug logging

Aliases:
  council-mcp
`)
}
