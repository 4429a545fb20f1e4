package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"agent-council/internal/council"
)

const configFileName = "council.config.yaml"

type CouncilConfig struct {
	Chairman ChairmanConfig
	Members  []MemberConfig
	Settings SettingsConfig
}

type ChairmanConfig struct {
	Role string `yaml:"role"`
}

type MemberConfig struct {
	Name    string `yaml:"name"`
	Command string `yaml:"command"`
	Emoji   string `yaml:"emoji"`
	Color   string `yaml:"color"`
}

type SettingsConfig struct {
	// ExcludeChairmanFromMembers holds a loose boolean; see normalizeBool.
	ExcludeChairmanFromMembers interface{} `yaml:"exclude_chairman_from_members"`
	Timeout                    int         `yaml:"timeout"`
}

func defaultCouncilConfig() CouncilConfig {
	return CouncilConfig{
		Chairman: ChairmanConfig{Role: "auto"},
		Members: []MemberConfig{
			{Name: "claude", Command: "claude -p", Emoji: "🧠", Color: "CYAN"},
			{Name: "codex", Command: "codex exec", Emoji: "🤖", Color: "BLUE"},
			{Name: "gemini", Command: "gemini", Emoji: "💎", Color: "GREEN"},
		},
		Settings: SettingsConfig{ExcludeChairmanFromMembers: true, Timeout: 120},
	}
}

func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("COUNCIL_CONFIG"); env != "" {
		return env
	}
	cwd, err := os.Getwd()
	if err == nil {
		local := filepath.Join(cwd, configFileName)
		if pathExists(local) {
			return local
		}
	}
	return filepath.Join(councilHome(), configFileName)
}

// loadCouncilConfig reads a YAML, JSON or JSONC config. Keys present in the
// file override the built-in defaults; a missing file yields the defaults.
func loadCouncilConfig(path string) (CouncilConfig, error) {
	cfg := defaultCouncilConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return cfg, fmt.Errorf("invalid config in %s: %w", path, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return cfg, fmt.Errorf("invalid config in %s: expected a mapping at the document root", path)
	}
	root := mappingValue(doc.Content[0], "council")
	if root == nil || isNull(root) {
		return cfg, fmt.Errorf("invalid config in %s: missing required top-level key 'council:'", path)
	}
	if root.Kind != yaml.MappingNode {
		return cfg, fmt.Errorf("invalid config in %s: 'council' must be a mapping", path)
	}

	if node := mappingValue(root, "chairman"); node != nil && !isNull(node) {
		if node.Kind != yaml.MappingNode {
			return cfg, fmt.Errorf("invalid config in %s: 'council.chairman' must be a mapping", path)
		}
		if err := node.Decode(&cfg.Chairman); err != nil {
			return cfg, fmt.Errorf("invalid config in %s: council.chairman: %w", path, err)
		}
	}
	if node := mappingValue(root, "members"); node != nil {
		if node.Kind != yaml.SequenceNode {
			return cfg, fmt.Errorf("invalid config in %s: 'council.members' must be a list", path)
		}
		var members []MemberConfig
		if err := node.Decode(&members); err != nil {
			return cfg, fmt.Errorf("invalid config in %s: council.members: %w", path, err)
		}
		cfg.Members = members
	}
	if node := mappingValue(root, "settings"); node != nil && !isNull(node) {
		if node.Kind != yaml.MappingNode {
			return cfg, fmt.Errorf("invalid config in %s: 'council.settings' must be a mapping", path)
		}
		if err := node.Decode(&cfg.Settings); err != nil {
			return cfg, fmt.Errorf("invalid config in %s: council.settings: %w", path, err)
		}
	}
	return cfg, nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

// detectHostRole reports which agent host launched the council.
func detectHostRole() string {
	if role := strings.ToLower(strings.TrimSpace(os.Getenv("COUNCIL_HOST_ROLE"))); role != "" {
		return role
	}
	exe, err := os.Executable()
	if err != nil {
		return "unknown"
	}
	normalized := filepath.ToSlash(exe)
	switch {
	case strings.Contains(normalized, "/.claude/"):
		return "claude"
	case strings.Contains(normalized, "/.codex/"):
		return "codex"
	}
	return "unknown"
}

func resolveChairman(explicit string, cfg CouncilConfig, hostRole string) string {
	role := explicit
	if role == "" {
		role = os.Getenv("COUNCIL_CHAIRMAN")
	}
	if role == "" {
		role = cfg.Chairman.Role
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if role != "" && role != "auto" {
		return role
	}
	if hostRole == "codex" {
		return "codex"
	}
	return "claude"
}

// memberSelection carries the start flags that decide which configured
// members take part.
type memberSelection struct {
	chairman        string
	includeChairman bool
	// excludeOverride is set when --exclude-chairman or --include-chairman
	// was given.
	excludeOverride *bool
}

func (s memberSelection) excludeChairman(cfg CouncilConfig) bool {
	if s.excludeOverride != nil {
		return *s.excludeOverride
	}
	if v, ok := normalizeBool(cfg.Settings.ExcludeChairmanFromMembers); ok {
		return v
	}
	return true
}

func selectMembers(cfg CouncilConfig, sel memberSelection) []council.Member {
	exclude := sel.excludeChairman(cfg)
	members := []council.Member{}
	for _, m := range cfg.Members {
		name := strings.TrimSpace(m.Name)
		command := strings.TrimSpace(m.Command)
		if name == "" || command == "" {
			continue
		}
		if exclude && !sel.includeChairman && strings.ToLower(name) == sel.chairman {
			continue
		}
		member := council.Member{Name: name, Command: command}
		if m.Emoji != "" {
			member.Emoji = &m.Emoji
		}
		if m.Color != "" {
			member.Color = &m.Color
		}
		members = append(members, member)
	}
	return members
}

func effectiveTimeout(flagValue int, cfg CouncilConfig) int {
	if flagValue > 0 {
		return flagValue
	}
	if cfg.Settings.Timeout > 0 {
		return cfg.Settings.Timeout
	}
	return 0
}
