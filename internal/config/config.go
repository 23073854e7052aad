// Package config loads and validates the layman configuration file.
//
// The file is TOML with a global [layman] table, per-workspace override
// tables, and an optional [[rules]] array:
//
//	[layman]
//	defaultLayout = "MasterStack"
//	excludeWorkspaces = ["10"]
//	masterWidth = 60
//
//	[workspace."3"]
//	defaultLayout = "Autotiling"
//
//	[[rules]]
//	matchAppID = "pavucontrol"
//	floating = true
//
// Any key in the [layman] or [workspace] tables that is not a daemon key is
// a layout option; resolution precedence is workspace table, then global
// table, then the layout's builtin default. Invalid values are rejected
// here, at load time, never mid-operation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// Daemon keys recognized in the [layman] table.
const (
	KeyDefaultLayout     = "defaultLayout"
	KeyExcludeWorkspaces = "excludeWorkspaces"
	KeyLogLevel          = "logLevel"
	KeyControlSocket     = "controlSocket"
)

// Layout option keys shared by the builtin layouts.
const (
	KeyMasterWidth       = "masterWidth"
	KeyStackLayout       = "stackLayout"
	KeyStackSide         = "stackSide"
	KeyVisibleStackLimit = "visibleStackLimit"
	KeyMasterCount       = "masterCount"
	KeyBalanceStacks     = "balanceStacks"
	KeyPairRules         = "pairRules"
)

// Rule is one [[rules]] entry. Matching fields are case-insensitive
// regexes; at least one must be set for the rule to ever match.
type Rule struct {
	MatchAppID       string `toml:"matchAppID"`
	MatchWindowClass string `toml:"matchWindowClass"`
	Exclude          bool   `toml:"exclude"`
	Floating         bool   `toml:"floating"`
	Workspace        string `toml:"workspace"`
	Position         string `toml:"position"`
}

// Config is the parsed and validated configuration document.
type Config struct {
	Global     map[string]any            `toml:"layman"`
	Workspaces map[string]map[string]any `toml:"workspace"`
	Rules      []Rule                    `toml:"rules"`
}

// DefaultPath returns ~/.config/layman/config.toml.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "layman", "config.toml")
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Global == nil {
		cfg.Global = map[string]any{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every table for malformed daemon keys, layout options and
// rules.
func (c *Config) Validate() error {
	if err := validateTable("layman", c.Global); err != nil {
		return err
	}
	names := make([]string, 0, len(c.Workspaces))
	for name := range c.Workspaces {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := validateTable("workspace."+name, c.Workspaces[name]); err != nil {
			return err
		}
	}
	for i, rule := range c.Rules {
		if rule.MatchAppID == "" && rule.MatchWindowClass == "" {
			return fmt.Errorf("rules[%d]: at least one of matchAppID or matchWindowClass is required", i)
		}
		for _, pattern := range []string{rule.MatchAppID, rule.MatchWindowClass} {
			if pattern == "" {
				continue
			}
			if _, err := regexp.Compile("(?i)" + pattern); err != nil {
				return fmt.Errorf("rules[%d]: invalid pattern %q: %v", i, pattern, err)
			}
		}
		switch rule.Position {
		case "", "master", "stack":
		default:
			return fmt.Errorf("rules[%d]: invalid position %q (want master or stack)", i, rule.Position)
		}
	}
	return nil
}

func validateTable(table string, values map[string]any) error {
	for key, value := range values {
		var err error
		switch key {
		case KeyDefaultLayout, KeyLogLevel, KeyControlSocket:
			err = wantString(value)
		case KeyExcludeWorkspaces:
			err = wantStringList(value)
		case KeyMasterWidth:
			err = wantIntBetween(value, 1, 99)
		case KeyStackLayout:
			err = wantOneOf(value, "splitv", "splith", "stacking", "tabbed")
		case KeyStackSide:
			err = wantOneOf(value, "left", "right")
		case KeyVisibleStackLimit:
			err = wantIntAtLeast(value, 0)
		case KeyMasterCount:
			err = wantIntAtLeast(value, 1)
		case KeyBalanceStacks:
			err = wantBool(value)
		case KeyPairRules:
			err = wantStringListTable(value)
		}
		if err != nil {
			return fmt.Errorf("[%s] %s: %w", table, key, err)
		}
	}
	return nil
}

func wantString(v any) error {
	if _, ok := v.(string); !ok {
		return fmt.Errorf("must be a string, got %T", v)
	}
	return nil
}

func wantStringList(v any) error {
	list, ok := v.([]any)
	if !ok {
		return fmt.Errorf("must be a list of strings, got %T", v)
	}
	for _, item := range list {
		if _, ok := item.(string); !ok {
			return fmt.Errorf("must be a list of strings, got element %T", item)
		}
	}
	return nil
}

func wantBool(v any) error {
	if _, ok := v.(bool); !ok {
		return fmt.Errorf("must be a boolean, got %T", v)
	}
	return nil
}

func wantStringListTable(v any) error {
	table, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("must be a table of string lists, got %T", v)
	}
	for key, value := range table {
		if err := wantStringList(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// asInt widens the numeric types TOML decoding can produce.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case int:
		return n, true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

func wantIntBetween(v any, min, max int) error {
	n, ok := asInt(v)
	if !ok || n < min || n > max {
		return fmt.Errorf("must be an integer between %d and %d, got %v", min, max, v)
	}
	return nil
}

func wantIntAtLeast(v any, min int) error {
	n, ok := asInt(v)
	if !ok || n < min {
		return fmt.Errorf("must be an integer >= %d, got %v", min, v)
	}
	return nil
}

func wantOneOf(v any, choices ...string) error {
	s, ok := v.(string)
	if ok {
		for _, choice := range choices {
			if s == choice {
				return nil
			}
		}
	}
	return fmt.Errorf("must be one of %v, got %v", choices, v)
}

// ForWorkspace resolves a single key with workspace-over-global precedence.
// Returns nil when neither table sets it.
func (c *Config) ForWorkspace(workspace, key string) any {
	if table, ok := c.Workspaces[workspace]; ok {
		if value, ok := table[key]; ok {
			return value
		}
	}
	if value, ok := c.Global[key]; ok {
		return value
	}
	return nil
}

// OptionsForWorkspace returns the merged flat option map for a workspace:
// global values overlaid with the workspace table. Daemon keys are left in;
// layout decoders ignore keys they do not know.
func (c *Config) OptionsForWorkspace(workspace string) map[string]any {
	merged := make(map[string]any, len(c.Global))
	for key, value := range c.Global {
		merged[key] = value
	}
	for key, value := range c.Workspaces[workspace] {
		merged[key] = value
	}
	return merged
}

// DefaultLayout resolves the layout name for a workspace, "none" if unset.
func (c *Config) DefaultLayout(workspace string) string {
	if v, ok := c.ForWorkspace(workspace, KeyDefaultLayout).(string); ok && v != "" {
		return v
	}
	return "none"
}

// IsExcluded reports whether events for the workspace should be ignored.
func (c *Config) IsExcluded(workspace string) bool {
	list, ok := c.Global[KeyExcludeWorkspaces].([]any)
	if !ok {
		return false
	}
	for _, item := range list {
		if name, ok := item.(string); ok && name == workspace {
			return true
		}
	}
	return false
}

// LogLevel returns the configured log level, empty if unset.
func (c *Config) LogLevel() string {
	v, _ := c.Global[KeyLogLevel].(string)
	return v
}

// ControlSocket returns the configured control socket path, empty if unset.
func (c *Config) ControlSocket() string {
	v, _ := c.Global[KeyControlSocket].(string)
	return v
}
