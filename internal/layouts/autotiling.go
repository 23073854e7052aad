package layouts

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/mschulkind/layman/internal/config"
	"github.com/mschulkind/layman/internal/state"
)

type autotilingOptions struct {
	DepthLimit int `mapstructure:"depthLimit"`
}

// Autotiling flips each window's split orientation to match its aspect
// ratio, the spiral-ish tiling people know from autotiling scripts. It is
// stateless: every decision is made from the window's current geometry.
type Autotiling struct {
	base
	depthLimit int
}

// NewAutotiling builds the autotiling layout.
func NewAutotiling(conn Commander, _ *state.Node, workspaceName string, cfg *config.Config) (Manager, error) {
	var opts autotilingOptions
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(cfg.OptionsForWorkspace(workspaceName)); err != nil {
		return nil, fmt.Errorf("autotiling options: %w", err)
	}
	if opts.DepthLimit < 0 {
		return nil, fmt.Errorf("invalid depthLimit %d, must be >= 0", opts.DepthLimit)
	}
	return &Autotiling{
		base:       newBase(conn, workspaceName, "autotiling"),
		depthLimit: opts.DepthLimit,
	}, nil
}

func (a *Autotiling) Name() string              { return "Autotiling" }
func (a *Autotiling) OverridesMoveBinds() bool  { return false }
func (a *Autotiling) OverridesFocusBinds() bool { return false }
func (a *Autotiling) SupportsFloating() bool    { return false }

func (a *Autotiling) WindowAdded(_, window *state.Node) error {
	a.switchSplit(window)
	return nil
}

func (a *Autotiling) WindowRemoved(_, _ *state.Node) error { return nil }

func (a *Autotiling) WindowFocused(_, window *state.Node) error {
	a.switchSplit(window)
	return nil
}

func (a *Autotiling) WindowMoved(_, window *state.Node) error {
	a.switchSplit(window)
	return nil
}

func (a *Autotiling) WindowFloating(_, _ *state.Node) error { return nil }

func (a *Autotiling) OnCommand(command string, _ *state.Node) error {
	a.logger.Debugf("ignoring command %q", command)
	return nil
}

// switchSplit orients the next split at the window by its aspect ratio.
// Wide and square windows split horizontally, tall ones vertically.
func (a *Autotiling) switchSplit(window *state.Node) {
	if a.isExcluded(window) {
		return
	}
	if a.depthLimit > 0 && containerDepth(window) > a.depthLimit {
		a.logger.Debugf("window %d beyond depth limit %d", window.ID, a.depthLimit)
		return
	}
	layout := "splith"
	if window.Rect.Height > window.Rect.Width {
		layout = "splitv"
	}
	if window.Parent != nil && window.Parent.Layout == layout {
		return
	}
	a.command("[con_id=%d] %s", window.ID, layout)
}

// containerDepth counts containers between the window and its workspace.
func containerDepth(window *state.Node) int {
	depth := 0
	for cur := window.Parent; cur != nil && cur.Type != "workspace"; cur = cur.Parent {
		depth++
	}
	return depth
}

func (a *Autotiling) DumpState() map[string]any {
	return map[string]any{
		"layout":     "Autotiling",
		"workspace":  a.workspaceName,
		"depthLimit": a.depthLimit,
	}
}
