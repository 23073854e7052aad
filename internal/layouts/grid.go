package layouts

import (
	"github.com/mschulkind/layman/internal/config"
	"github.com/mschulkind/layman/internal/state"
)

// Grid keeps the workspace roughly square: each new window lands in the
// largest existing container and splits it along its longer axis. Like
// Autotiling it carries no state of its own.
type Grid struct {
	base
}

// NewGrid builds the grid layout.
func NewGrid(conn Commander, _ *state.Node, workspaceName string, _ *config.Config) (Manager, error) {
	return &Grid{base: newBase(conn, workspaceName, "grid")}, nil
}

func (g *Grid) Name() string              { return "Grid" }
func (g *Grid) OverridesMoveBinds() bool  { return false }
func (g *Grid) OverridesFocusBinds() bool { return false }
func (g *Grid) SupportsFloating() bool    { return false }

func (g *Grid) WindowAdded(workspace, window *state.Node) error {
	if g.isExcluded(window) {
		return nil
	}
	largest := g.largestLeaf(workspace, window.ID)
	if largest != nil && window.Parent != nil && largest.Parent != nil &&
		window.Parent.ID != largest.Parent.ID {
		g.moveWindowTo(window.ID, largest.ID)
	}
	if largest != nil {
		g.switchSplit(largest)
	}
	return nil
}

func (g *Grid) WindowRemoved(_, _ *state.Node) error { return nil }

func (g *Grid) WindowFocused(_, window *state.Node) error {
	g.switchSplit(window)
	return nil
}

func (g *Grid) WindowMoved(_, window *state.Node) error {
	g.switchSplit(window)
	return nil
}

func (g *Grid) WindowFloating(_, _ *state.Node) error { return nil }

func (g *Grid) OnCommand(command string, _ *state.Node) error {
	g.logger.Debugf("ignoring command %q", command)
	return nil
}

// switchSplit splits the window along its longer axis.
func (g *Grid) switchSplit(window *state.Node) {
	if window == nil || window.Type != "con" {
		return
	}
	layout := "splith"
	if window.Rect.Height > window.Rect.Width {
		layout = "splitv"
	}
	g.command("[con_id=%d] %s", window.ID, layout)
}

// largestLeaf returns the tiled leaf with the largest area, skipping the
// window being placed.
func (g *Grid) largestLeaf(workspace *state.Node, skipID int64) *state.Node {
	if workspace == nil {
		return nil
	}
	var largest *state.Node
	largestArea := -1
	for _, leaf := range workspace.Leaves() {
		if leaf.ID == skipID {
			continue
		}
		area := leaf.Rect.Width * leaf.Rect.Height
		if area > largestArea {
			largest = leaf
			largestArea = area
		}
	}
	return largest
}

func (g *Grid) DumpState() map[string]any {
	return map[string]any{"layout": "Grid", "workspace": g.workspaceName}
}
