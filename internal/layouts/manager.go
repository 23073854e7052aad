// Package layouts contains the per-workspace layout managers and their
// registry.
//
// A layout manager owns the arrangement of one workspace. It receives the
// window lifecycle events the reconciliation loop routes to it and reacts by
// issuing compositor commands; it never blocks and never talks to the event
// stream itself.
package layouts

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mschulkind/layman/internal/config"
	"github.com/mschulkind/layman/internal/logging"
	"github.com/mschulkind/layman/internal/state"
)

// Commander executes compositor command strings. Implemented by ipc.Client;
// tests substitute a recorder.
type Commander interface {
	Command(command string) error
}

// Manager is the per-workspace layout strategy.
//
// Event methods return an error only for faults the reconciliation loop
// should recover from by rebuilding the manager. Compositor command
// failures are logged and swallowed, not returned.
type Manager interface {
	Name() string

	// Capabilities. When a manager does not override move or focus
	// binds, those commands pass through to the compositor untouched.
	OverridesMoveBinds() bool
	OverridesFocusBinds() bool
	// SupportsFloating managers receive WindowFloating; for the rest the
	// engine translates a floating toggle into a remove or add.
	SupportsFloating() bool

	WindowAdded(workspace, window *state.Node) error
	// WindowRemoved may be called with a nil workspace: closing the last
	// window of an unfocused workspace destroys the workspace container
	// before the event is processed.
	WindowRemoved(workspace, window *state.Node) error
	WindowFocused(workspace, window *state.Node) error
	WindowMoved(workspace, window *state.Node) error
	WindowFloating(workspace, window *state.Node) error

	OnCommand(command string, workspace *state.Node) error

	// DumpState reports internal state for the "dump" command.
	DumpState() map[string]any
}

// Factory builds a manager for one workspace. workspace is nil when the
// workspace does not exist in the tree yet.
type Factory func(conn Commander, workspace *state.Node, workspaceName string, cfg *config.Config) (Manager, error)

// NativeLayouts are compositor-native layout names that map to no manager;
// the engine applies them directly.
var NativeLayouts = map[string]bool{
	"splitv":   true,
	"splith":   true,
	"tabbed":   true,
	"stacking": true,
}

// Registry maps layout names to factories.
type Registry struct {
	factories map[string]Factory
	order     []string
}

// NewRegistry returns a registry with the builtin layouts registered.
func NewRegistry() *Registry {
	r := &Registry{factories: map[string]Factory{}}
	r.Register("Autotiling", NewAutotiling)
	r.Register("Grid", NewGrid)
	r.Register("MasterStack", NewMasterStack)
	r.Register("ThreeColumn", NewThreeColumn)
	r.Register("TabbedPairs", NewTabbedPairs)
	return r
}

// Register adds a factory under a layout name.
func (r *Registry) Register(name string, factory Factory) {
	if _, exists := r.factories[name]; !exists {
		r.order = append(r.order, name)
	}
	r.factories[name] = factory
}

// Names returns the registered layout names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// New constructs the named layout. Unknown names are an error, never a
// silent fallback.
func (r *Registry) New(name string, conn Commander, workspace *state.Node, workspaceName string, cfg *config.Config) (Manager, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown layout %q for workspace %s (available: %s)",
			name, workspaceName, strings.Join(r.order, ", "))
	}
	return factory(conn, workspace, workspaceName, cfg)
}

// base carries what every manager needs: the command connection and a
// per-workspace logger.
type base struct {
	conn          Commander
	workspaceName string
	logger        *logrus.Entry
}

func newBase(conn Commander, workspaceName, layout string) base {
	return base{
		conn:          conn,
		workspaceName: workspaceName,
		logger: logging.NewLogger("layouts."+strings.ToLower(layout)).
			WithField("workspace", workspaceName),
	}
}

// command runs one compositor command. Failures are already logged by the
// commander; managers treat them as fire-and-log.
func (b *base) command(format string, args ...any) {
	cmd := fmt.Sprintf(format, args...)
	if err := b.conn.Command(cmd); err != nil {
		b.logger.Debugf("command %q reported failure: %v", cmd, err)
	}
}

// moveWindowTo moves moveID adjacent to targetID using a temporary mark.
// The three steps go out as one batched round-trip.
func (b *base) moveWindowTo(moveID, targetID int64) {
	b.command("[con_id=%d] mark --add layman_move_target; [con_id=%d] move window to mark layman_move_target; [con_id=%d] unmark layman_move_target",
		targetID, moveID, targetID)
}

// swapWindowsByID swaps the two containers in place.
func (b *base) swapWindowsByID(firstID, secondID int64) {
	b.command("[con_id=%d] swap container with con_id %d", firstID, secondID)
}

// isExcluded reports whether a window should be skipped by layout logic:
// nil, non-window, floating, native-fullscreen, or inside a stacked/tabbed
// container.
func (b *base) isExcluded(window *state.Node) bool {
	if window == nil {
		return true
	}
	if window.Type != "con" {
		return true
	}
	if window.Workspace() == nil {
		return true
	}
	if window.IsFloating() {
		return true
	}
	if window.FullscreenMode == 1 {
		return true
	}
	if window.Parent != nil && (window.Parent.Layout == "stacked" || window.Parent.Layout == "tabbed") {
		return true
	}
	return false
}

// isFloatingNode reports whether the window is floating.
func isFloatingNode(window *state.Node) bool {
	return window != nil && window.IsFloating()
}
