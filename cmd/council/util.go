package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func councilHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return getenv("COUNCIL_HOME", filepath.Join(home, ".council"))
}

func historyPath() string {
	return filepath.Join(councilHome(), "runs", "run-history.jsonl")
}

func resolveJobsDir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return getenv("COUNCIL_JOBS_DIR", filepath.Join(councilHome(), "jobs"))
}

func pathExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// normalizeBool reads the loose booleans accepted in config files and flags.
// ok is false when value is not recognizably either.
func normalizeBool(value interface{}) (b bool, ok bool) {
	switch v := value.(type) {
	case nil:
		return false, false
	case bool:
		return v, true
	case int:
		return v != 0, v == 0 || v == 1
	}
	switch strings.ToLower(strings.TrimSpace(fmt.Sprint(value))) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	}
	return false, false
}

func printJSON(payload interface{}) {
	out, _ := json.MarshalIndent(payload, "", "  ")
	fmt.Println(string(out))
}

// toMap converts a typed payload into the generic map MCP tool results use.
func toMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func fail(cmd string, err error) int {
	fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
	return 1
}

// jobDirArg returns the single positional job directory of a command.
func jobDirArg(args []string) (string, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("missing jobDir")
	}
	if len(args) > 1 {
		return "", fmt.Errorf("unexpected arguments: %s", strings.Join(args[1:], " "))
	}
	return args[0], nil
}
