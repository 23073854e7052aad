// Package rules applies per-window behavior overrides before a window
// reaches its workspace's layout manager.
package rules

import (
	"fmt"
	"regexp"

	"github.com/mschulkind/layman/internal/config"
	"github.com/mschulkind/layman/internal/state"
)

// Actions is the merged outcome of every matching rule. Later rules
// override earlier ones field by field.
type Actions struct {
	// Exclude drops the window from layout management entirely.
	Exclude bool
	// Floating floats the window instead of tiling it.
	Floating bool
	// Workspace moves the window to the named workspace.
	Workspace string
	// Position is a placement hint for the layout manager: "master" or
	// "stack".
	Position string
}

type compiledRule struct {
	appID       *regexp.Regexp
	windowClass *regexp.Regexp
	actions     Actions
}

// Engine evaluates window rules against tree nodes.
type Engine struct {
	rules []compiledRule
}

// NewEngine compiles the configured rules. Patterns were syntax-checked at
// config load; a failure here still reports rather than panics.
func NewEngine(cfgRules []config.Rule) (*Engine, error) {
	engine := &Engine{}
	for i, r := range cfgRules {
		compiled := compiledRule{
			actions: Actions{
				Exclude:   r.Exclude,
				Floating:  r.Floating,
				Workspace: r.Workspace,
				Position:  r.Position,
			},
		}
		var err error
		if r.MatchAppID != "" {
			if compiled.appID, err = regexp.Compile("(?i)" + r.MatchAppID); err != nil {
				return nil, fmt.Errorf("rules[%d]: matchAppID: %w", i, err)
			}
		}
		if r.MatchWindowClass != "" {
			if compiled.windowClass, err = regexp.Compile("(?i)" + r.MatchWindowClass); err != nil {
				return nil, fmt.Errorf("rules[%d]: matchWindowClass: %w", i, err)
			}
		}
		if compiled.appID == nil && compiled.windowClass == nil {
			return nil, fmt.Errorf("rules[%d]: no match fields", i)
		}
		engine.rules = append(engine.rules, compiled)
	}
	return engine, nil
}

// Len returns the number of compiled rules.
func (e *Engine) Len() int {
	return len(e.rules)
}

// Evaluate merges the actions of every rule matching the window.
func (e *Engine) Evaluate(window *state.Node) Actions {
	var actions Actions
	for _, rule := range e.rules {
		if !rule.matches(window) {
			continue
		}
		if rule.actions.Exclude {
			actions.Exclude = true
		}
		if rule.actions.Floating {
			actions.Floating = true
		}
		if rule.actions.Workspace != "" {
			actions.Workspace = rule.actions.Workspace
		}
		if rule.actions.Position != "" {
			actions.Position = rule.actions.Position
		}
	}
	return actions
}

func (r compiledRule) matches(window *state.Node) bool {
	if window == nil {
		return false
	}
	if r.appID != nil && !r.appID.MatchString(window.AppID) {
		return false
	}
	if r.windowClass != nil && !r.windowClass.MatchString(window.WindowClass()) {
		return false
	}
	return true
}
