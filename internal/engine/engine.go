package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/mschulkind/layman/internal/config"
	"github.com/mschulkind/layman/internal/ipc"
	"github.com/mschulkind/layman/internal/layouts"
	"github.com/mschulkind/layman/internal/logging"
	"github.com/mschulkind/layman/internal/rules"
	"github.com/mschulkind/layman/internal/state"
)

// Conn is the compositor connection the engine drives: commands out, tree
// snapshots in.
type Conn interface {
	layouts.Commander
	Tree() (*state.Node, error)
}

// WorkspaceState is everything the engine tracks per workspace. It is only
// ever touched by the consumer goroutine, so none of it is locked.
type WorkspaceState struct {
	manager    layouts.Manager
	layoutName string
	// windowIDs holds every window on the workspace, floating included.
	// Closed windows vanish from the tree before their close event
	// arrives, so this is how close events find their workspace.
	windowIDs    map[int64]struct{}
	isExcluded   bool
	focusHistory *FocusHistory

	// Fake fullscreen works with any layout, or none.
	fakeFullscreen         bool
	fakeFullscreenWindowID int64
	savedStackLayout       string
}

// Engine is the reconciliation loop. It consumes the notification queue as
// the sole mutator of all workspace state.
type Engine struct {
	conn       Conn
	registry   *layouts.Registry
	queue      *Queue
	configPath string
	cfg        *config.Config
	rules      *rules.Engine
	states     map[string]*WorkspaceState
	logger     *logrus.Entry
}

func New(conn Conn, cfg *config.Config, configPath string, queue *Queue) (*Engine, error) {
	ruleEngine, err := rules.NewEngine(cfg.Rules)
	if err != nil {
		return nil, err
	}
	return &Engine{
		conn:       conn,
		registry:   layouts.NewRegistry(),
		queue:      queue,
		configPath: configPath,
		cfg:        cfg,
		rules:      ruleEngine,
		states:     map[string]*WorkspaceState{},
		logger:     logging.NewLogger("engine"),
	}, nil
}

// Queue returns the engine's notification queue for producers.
func (e *Engine) Queue() *Queue {
	return e.queue
}

// Run seeds workspace state from the current tree and then consumes the
// queue until the context ends. Subscriptions must already be feeding the
// queue before Run is called so no event falls between the seed snapshot
// and the first receive.
func (e *Engine) Run(ctx context.Context) error {
	tree, err := e.conn.Tree()
	if err != nil {
		return fmt.Errorf("initial tree: %w", err)
	}
	for _, workspace := range tree.Workspaces() {
		e.initWorkspace(workspace)
	}

	e.logger.Info("layman started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-e.queue.C():
			e.processNotification(n)
		}
	}
}

func (e *Engine) processNotification(n Notification) {
	switch {
	case n.Event != nil:
		e.processEvent(n.Event)
	case n.Command != nil:
		result := e.onCommand(n.Command.Text)
		if n.Command.Reply != nil {
			n.Command.Reply <- result
		}
	default:
		e.logger.Error("empty notification")
	}
}

func (e *Engine) processEvent(event *ipc.Event) {
	switch event.Kind {
	case ipc.EventWorkspaceInit:
		if event.Current == nil {
			e.logger.Warn("workspace init event without workspace")
			return
		}
		e.logger.Debugf("handling workspace init for %s", event.Current.Name)
		e.initWorkspace(event.Current)
	case ipc.EventBindingRun:
		e.logger.Debugf("handling binding event for command %q", event.Command)
		e.onBinding(event.Command)
	default:
		e.processWindowEvent(event)
	}
}

// processWindowEvent resolves the event's window against a fresh tree. The
// container embedded in the event has no parent links, and the focused
// workspace is the wrong answer anyway: windows open on the workspace that
// was focused when their process started, not where focus is now.
func (e *Engine) processWindowEvent(event *ipc.Event) {
	if event.Container == nil {
		e.logger.Warn("window event without container")
		return
	}
	tree, err := e.conn.Tree()
	if err != nil {
		e.logger.Errorf("tree fetch for %s event: %v", event.Kind, err)
		return
	}
	window := tree.FindByID(event.Container.ID)
	var workspace *state.Node
	if window != nil {
		workspace = window.Workspace()
	}

	e.logger.Debugf("handling %s event for window id %d", event.Kind, event.Container.ID)
	switch event.Kind {
	case ipc.EventWindowNew:
		e.windowCreated(event, workspace, window)
	case ipc.EventWindowClose:
		e.windowClosed(event, tree, workspace)
	case ipc.EventWindowFocus:
		e.windowFocused(event, workspace, window)
	case ipc.EventWindowMove:
		e.windowMoved(event, tree, workspace, window)
	case ipc.EventWindowFloating:
		e.windowFloating(event, workspace, window)
	default:
		e.logger.Errorf("unexpected event kind %s", event.Kind)
	}
}

func (e *Engine) windowCreated(event *ipc.Event, workspace, window *state.Node) {
	if workspace == nil || window == nil {
		// The window may have appeared and disappeared before the tree
		// fetch. Nothing to reconcile.
		e.logger.Debug("no window found")
		return
	}

	wsState := e.workspaceState(workspace)
	wsState.windowIDs[window.ID] = struct{}{}
	e.logger.Debugf("adding window id %d to workspace %s", window.ID, workspace.Name)

	var position string
	if e.rules.Len() > 0 {
		actions := e.rules.Evaluate(window)
		switch {
		case actions.Exclude:
			e.logger.Debugf("window %d excluded by rule", window.ID)
			delete(wsState.windowIDs, window.ID)
			return
		case actions.Floating:
			e.logger.Debugf("window %d floated by rule", window.ID)
			e.command(fmt.Sprintf("[con_id=%d] floating enable", window.ID))
			return
		case actions.Workspace != "":
			e.logger.Debugf("window %d moved to workspace %s by rule", window.ID, actions.Workspace)
			e.command(fmt.Sprintf("[con_id=%d] move container to workspace %s", window.ID, actions.Workspace))
			return
		}
		position = actions.Position
	}

	e.handleWindowAdded(workspace, window)

	// A position hint places the new window after the manager has taken
	// it in. New windows get focus, which is what the manager commands
	// act on.
	if position != "" && wsState.manager != nil {
		cmd := "move to master"
		if position == "stack" {
			cmd = "move to index 1"
		}
		e.logger.Debugf("window %d placed at %s by rule", window.ID, position)
		e.guard(workspace, workspace.Name, func() error {
			return wsState.manager.OnCommand(cmd, workspace)
		})
	}
}

func (e *Engine) windowClosed(event *ipc.Event, tree *state.Node, workspace *state.Node) {
	var wsState *WorkspaceState
	var workspaceName string
	for name, s := range e.states {
		if _, ok := s.windowIDs[event.Container.ID]; ok {
			wsState = s
			workspaceName = name
			break
		}
	}
	if wsState == nil {
		// A window that came and went before we ever recorded it.
		e.logger.Debug("workspace not found for closed window")
		return
	}

	// The workspace container may be gone too when the last window of an
	// unfocused workspace closes.
	workspace = nil
	for _, w := range tree.Workspaces() {
		if w.Name == workspaceName {
			workspace = w
			break
		}
	}
	if workspace == nil {
		e.logger.Debugf("found workspace %s state for window id %d, but not its container", workspaceName, event.Container.ID)
	}

	delete(wsState.windowIDs, event.Container.ID)
	e.logger.Debugf("removing window id %d from workspace %s", event.Container.ID, workspaceName)
	wsState.focusHistory.Remove(event.Container.ID)

	if wsState.fakeFullscreen && wsState.fakeFullscreenWindowID == event.Container.ID {
		wsState.fakeFullscreen = false
		wsState.fakeFullscreenWindowID = 0
		wsState.savedStackLayout = ""
		e.logger.Debug("fake fullscreen window closed, exiting fake fullscreen")
	}

	e.handleWindowRemoved(workspace, workspaceName, event.Container)
}

func (e *Engine) windowFocused(event *ipc.Event, workspace, window *state.Node) {
	if workspace == nil || window == nil {
		e.logger.Debug("no workspace found")
		return
	}
	wsState := e.workspaceState(workspace)
	if wsState.isExcluded {
		e.logger.Debug("workspace excluded")
		return
	}

	// If focus moved again before the tree fetch completed, the event is
	// stale and acting on it would chase the wrong window.
	focused := workspace.FindFocused()
	if focused == nil || focused.ID != event.Container.ID {
		currentID := int64(0)
		if focused != nil {
			currentID = focused.ID
		}
		e.logger.Warnf("stale focus event: window %d no longer focused (current: %d), skipping", event.Container.ID, currentID)
		return
	}

	wsState.focusHistory.Push(window.ID)

	if wsState.manager != nil {
		e.logger.Debugf("calling WindowFocused for window id %d on workspace %s", window.ID, workspace.Name)
		e.guard(workspace, workspace.Name, func() error {
			return wsState.manager.WindowFocused(workspace, window)
		})
	}
}

func (e *Engine) windowMoved(event *ipc.Event, tree *state.Node, toWorkspace, window *state.Node) {
	if toWorkspace == nil || window == nil {
		// Likely closed right after moving.
		e.logger.Debug("window not found")
		return
	}
	toState := e.workspaceState(toWorkspace)

	var fromState *WorkspaceState
	var fromName string
	for name, s := range e.states {
		if _, ok := s.windowIDs[window.ID]; ok {
			fromState = s
			fromName = name
			break
		}
	}
	if fromState == nil {
		// First sighting of this window; treat the move as an add.
		e.logger.Debugf("move event for untracked window %d", window.ID)
		toState.windowIDs[window.ID] = struct{}{}
		e.handleWindowAdded(toWorkspace, window)
		return
	}

	if fromName == toWorkspace.Name {
		if fromState.manager != nil {
			e.logger.Debugf("calling WindowMoved for window id %d on workspace %s", window.ID, fromName)
			e.guard(toWorkspace, fromName, func() error {
				return fromState.manager.WindowMoved(toWorkspace, window)
			})
		}
		return
	}

	// Crossing workspaces: a remove on one side, an add on the other.
	var fromWorkspace *state.Node
	for _, w := range tree.Workspaces() {
		if w.Name == fromName {
			fromWorkspace = w
			break
		}
	}
	delete(fromState.windowIDs, window.ID)
	e.handleWindowRemoved(fromWorkspace, fromName, window)
	toState.windowIDs[window.ID] = struct{}{}
	e.handleWindowAdded(toWorkspace, window)
}

func (e *Engine) windowFloating(event *ipc.Event, workspace, window *state.Node) {
	if workspace == nil || window == nil {
		e.logger.Debug("window not found")
		return
	}
	wsState := e.workspaceState(workspace)
	if wsState.isExcluded {
		e.logger.Debug("workspace excluded")
		return
	}

	if wsState.manager != nil && wsState.manager.SupportsFloating() {
		e.logger.Debugf("calling WindowFloating for window id %d on workspace %s", window.ID, workspace.Name)
		e.guard(workspace, workspace.Name, func() error {
			return wsState.manager.WindowFloating(workspace, window)
		})
		return
	}

	if window.IsFloating() {
		e.handleWindowRemoved(workspace, workspace.Name, window)
	} else {
		e.handleWindowAdded(workspace, window)
	}
}

// onBinding handles a keybinding. Only bindings whose command starts with
// "nop layman" are ours; each semicolon-chained subcommand is handled in
// order, forwarding non-layman subcommands to the compositor untouched.
func (e *Engine) onBinding(command string) {
	command = strings.TrimSpace(command)
	if !strings.HasPrefix(command, "nop layman") {
		return
	}
	for _, sub := range strings.Split(command, ";") {
		sub = strings.TrimSpace(sub)
		if sub == "" {
			continue
		}
		if strings.HasPrefix(sub, "nop layman") {
			sub = strings.TrimSpace(strings.TrimPrefix(sub, "nop layman"))
			e.handleCommand(sub)
		} else {
			e.command(sub)
		}
	}
}

// onCommand handles a control request, one semicolon-chained subcommand at
// a time, and joins their results.
func (e *Engine) onCommand(command string) string {
	var results []string
	for _, sub := range strings.Split(command, ";") {
		sub = strings.TrimSpace(sub)
		if sub == "" {
			continue
		}
		if res := e.handleCommand(sub); res != "" {
			results = append(results, res)
		}
	}
	if len(results) == 0 {
		return "OK"
	}
	return strings.Join(results, "\n")
}

func (e *Engine) handleCommand(command string) string {
	switch command {
	case "reload":
		return e.reload()
	case "dump":
		return e.dumpInternalState()
	}

	workspace := e.findFocusedWorkspace()
	if workspace == nil || e.workspaceState(workspace).isExcluded {
		e.command(command)
		return fmt.Sprintf("Passed to compositor: %s", command)
	}
	wsState := e.workspaceState(workspace)

	if rest, ok := strings.CutPrefix(command, "layout "); ok {
		if name, ok := strings.CutPrefix(rest, "set "); ok {
			if err := e.setWorkspaceLayout(workspace, workspace.Name, name); err != nil {
				e.logger.Error(err)
				return err.Error()
			}
			return fmt.Sprintf("Layout set to %s", name)
		}
		if rest == "maximize" {
			e.toggleFakeFullscreen(workspace, wsState)
			return "Maximize toggled"
		}
		msg := fmt.Sprintf("Unknown layout command: %q", command)
		e.logger.Error(msg)
		return msg
	}

	if rest, ok := strings.CutPrefix(command, "window "); ok {
		if rest == "focus previous" {
			if prevID := wsState.focusHistory.Previous(); prevID != 0 {
				e.command(fmt.Sprintf("[con_id=%d] focus", prevID))
				return fmt.Sprintf("Focus previous: window %d", prevID)
			}
			e.logger.Debug("no previous window in focus history")
			return "No previous focus history"
		}
		if e.passesThrough(wsState, rest) {
			e.command(rest)
			e.logger.Debugf("handling bind %q for workspace %s", rest, workspace.Name)
			return ""
		}
		return e.dispatchToManager(workspace, wsState, rest)
	}

	if rest, ok := strings.CutPrefix(command, "stack "); ok {
		return e.dispatchToManager(workspace, wsState, rest)
	}

	if strings.HasPrefix(command, "master ") {
		// Passed whole: the manager distinguishes "master add" from
		// "master remove" itself.
		return e.dispatchToManager(workspace, wsState, command)
	}

	// Bare move and focus commands pass through when the manager does not
	// claim them.
	if e.passesThrough(wsState, command) {
		e.command(command)
		e.logger.Debugf("handling bind %q for workspace %s", command, workspace.Name)
		return ""
	}

	if wsState.manager == nil {
		e.logger.Debugf("no manager for workspace %s, ignoring", workspace.Name)
		return ""
	}
	e.guard(workspace, workspace.Name, func() error {
		return wsState.manager.OnCommand(command, workspace)
	})
	return ""
}

// passesThrough reports whether a move or focus command should go straight
// to the compositor instead of the layout manager.
func (e *Engine) passesThrough(wsState *WorkspaceState, command string) bool {
	if strings.HasPrefix(command, "move") {
		return wsState.manager == nil || !wsState.manager.OverridesMoveBinds()
	}
	if strings.HasPrefix(command, "focus") {
		return wsState.manager == nil || !wsState.manager.OverridesFocusBinds()
	}
	return false
}

func (e *Engine) dispatchToManager(workspace *state.Node, wsState *WorkspaceState, command string) string {
	if wsState.manager == nil {
		e.logger.Debugf("no manager for workspace %s, ignoring", workspace.Name)
		return fmt.Sprintf("No manager for workspace %s", workspace.Name)
	}
	e.logger.Debugf("calling manager for workspace %s", workspace.Name)
	e.guard(workspace, workspace.Name, func() error {
		return wsState.manager.OnCommand(command, workspace)
	})
	return fmt.Sprintf("Processed by %s: %s", wsState.manager.Name(), command)
}

func (e *Engine) reload() string {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		msg := fmt.Sprintf("Reload failed: %v", err)
		e.logger.Error(msg)
		return msg
	}
	ruleEngine, err := rules.NewEngine(cfg.Rules)
	if err != nil {
		msg := fmt.Sprintf("Reload failed: %v", err)
		e.logger.Error(msg)
		return msg
	}
	e.cfg = cfg
	e.rules = ruleEngine
	logging.Setup(cfg.LogLevel())
	e.logger.Info("reloaded layman config")
	return "Reloaded config"
}

// dumpInternalState renders all workspace and manager state as YAML.
func (e *Engine) dumpInternalState() string {
	workspaces := map[string]any{}
	for name, s := range e.states {
		ids := make([]int64, 0, len(s.windowIDs))
		for id := range s.windowIDs {
			ids = append(ids, id)
		}
		ws := map[string]any{
			"layoutName":     s.layoutName,
			"windowIds":      ids,
			"isExcluded":     s.isExcluded,
			"fakeFullscreen": s.fakeFullscreen,
			"focusHistory":   s.focusHistory.Entries(),
		}
		if s.manager != nil {
			ws["manager"] = s.manager.DumpState()
		}
		workspaces[name] = ws
	}
	dump := map[string]any{"workspaces": workspaces}

	out, err := yaml.Marshal(dump)
	if err != nil {
		e.logger.Errorf("state dump failed: %v", err)
		return fmt.Sprintf("Dump failed: %v", err)
	}
	e.logger.Debugf("dumping internal state:\n%s", out)
	return string(out)
}

// toggleFakeFullscreen shows only the focused window, keeping the bar
// visible, with any layout or none. Managers implement it via their own
// maximize; bare workspaces get a tabbed container and a saved layout to
// restore.
func (e *Engine) toggleFakeFullscreen(workspace *state.Node, wsState *WorkspaceState) {
	if wsState.fakeFullscreen {
		wsState.fakeFullscreen = false
		wsState.fakeFullscreenWindowID = 0

		if wsState.manager != nil {
			e.logger.Debug("restoring layout after fake fullscreen")
			e.guard(workspace, workspace.Name, func() error {
				return wsState.manager.OnCommand("maximize", workspace)
			})
		} else if wsState.savedStackLayout != "" {
			if id, ok := anyWindowID(wsState.windowIDs); ok {
				e.command(fmt.Sprintf("[con_id=%d] layout %s", id, wsState.savedStackLayout))
			}
			wsState.savedStackLayout = ""
		}
		e.logger.Debugf("exited fake fullscreen on workspace %s", workspace.Name)
		return
	}

	focused := workspace.FindFocused()
	if focused == nil {
		e.logger.Debug("no focused window for fake fullscreen")
		return
	}
	wsState.fakeFullscreenWindowID = focused.ID

	if wsState.manager != nil {
		e.logger.Debug("entering fake fullscreen via layout manager")
		e.guard(workspace, workspace.Name, func() error {
			return wsState.manager.OnCommand("maximize", workspace)
		})
	} else if id, ok := anyWindowID(wsState.windowIDs); ok {
		if parent := focused.Parent; parent != nil {
			wsState.savedStackLayout = parent.Layout
		}
		e.command(fmt.Sprintf("[con_id=%d] layout tabbed", id))
	}

	wsState.fakeFullscreen = true
	e.logger.Debugf("entered fake fullscreen on workspace %s", workspace.Name)
}

// initWorkspace creates state for a workspace seen for the first time and
// applies its configured default layout.
func (e *Engine) initWorkspace(workspace *state.Node) {
	if _, ok := e.states[workspace.Name]; ok {
		return
	}
	wsState := &WorkspaceState{
		layoutName:   "none",
		windowIDs:    map[int64]struct{}{},
		focusHistory: NewFocusHistory(),
		isExcluded:   e.cfg.IsExcluded(workspace.Name),
	}
	e.states[workspace.Name] = wsState

	for _, w := range workspace.Leaves() {
		wsState.windowIDs[w.ID] = struct{}{}
	}
	for _, w := range workspace.FloatingNodes {
		wsState.windowIDs[w.ID] = struct{}{}
	}
	e.logger.Debugf("workspace %s window ids: %v", workspace.Name, windowIDList(wsState.windowIDs))

	defaultLayout := e.cfg.DefaultLayout(workspace.Name)
	if defaultLayout != "" && !wsState.isExcluded {
		if err := e.setWorkspaceLayout(workspace, workspace.Name, defaultLayout); err != nil {
			e.logger.Error(err)
		}
	}
}

func (e *Engine) workspaceState(workspace *state.Node) *WorkspaceState {
	if s, ok := e.states[workspace.Name]; ok {
		return s
	}
	// Some workspaces appear in window events before their init event.
	e.initWorkspace(workspace)
	return e.states[workspace.Name]
}

// setWorkspaceLayout replaces the workspace's layout manager. An empty
// layoutName rebuilds the current layout from scratch, which is also how
// the engine recovers from a manager fault.
func (e *Engine) setWorkspaceLayout(workspace *state.Node, workspaceName, layoutName string) error {
	wsState, ok := e.states[workspaceName]
	if !ok {
		return fmt.Errorf("no state for workspace %s", workspaceName)
	}

	if layoutName == "" {
		layoutName = wsState.layoutName
	} else {
		wsState.layoutName = layoutName
	}

	if wsState.isExcluded {
		return fmt.Errorf("attempting to set layout for excluded workspace %s", workspaceName)
	}

	switch {
	case layoutName == "none":
		// No layout: the workspace stays under compositor control.
		wsState.manager = nil
	case layouts.NativeLayouts[layoutName]:
		wsState.manager = nil
		if workspace != nil {
			e.setNativeLayoutCommand(workspace)
		}
	default:
		manager, err := e.registry.New(layoutName, e.conn, workspace, workspaceName, e.cfg)
		if err != nil {
			return fmt.Errorf("workspace %s: %w", workspaceName, err)
		}
		wsState.manager = manager
	}

	e.logger.Debugf("initialized workspace %s with layout %s", workspaceName, layoutName)
	return nil
}

// setNativeLayoutCommand applies a compositor-native layout. It only works
// reliably on a workspace with exactly one window; otherwise it is skipped.
func (e *Engine) setNativeLayoutCommand(workspace *state.Node) {
	wsState := e.states[workspace.Name]
	if len(wsState.windowIDs) != 1 {
		e.logger.Debugf("workspace %s has %d windows, ignoring", workspace.Name, len(wsState.windowIDs))
		return
	}
	if wsState.layoutName != "" && wsState.manager == nil && wsState.layoutName != "none" {
		id, _ := anyWindowID(wsState.windowIDs)
		e.command(fmt.Sprintf("[con_id=%d] split none", id))
		e.command(fmt.Sprintf("[con_id=%d] layout %s", id, wsState.layoutName))
	} else {
		e.logger.Debugf("workspace %s has layout %s, ignoring", workspace.Name, wsState.layoutName)
	}
}

func (e *Engine) handleWindowAdded(workspace, window *state.Node) {
	wsState := e.workspaceState(workspace)
	if wsState.isExcluded {
		e.logger.Debug("workspace excluded")
		return
	}
	if wsState.manager != nil {
		e.logger.Debugf("calling WindowAdded for window id %d on workspace %s", window.ID, workspace.Name)
		e.guard(workspace, workspace.Name, func() error {
			return wsState.manager.WindowAdded(workspace, window)
		})
	} else {
		e.setNativeLayoutCommand(workspace)
	}
}

func (e *Engine) handleWindowRemoved(workspace *state.Node, workspaceName string, window *state.Node) {
	if workspaceName == "" && workspace != nil {
		workspaceName = workspace.Name
	}
	wsState, ok := e.states[workspaceName]
	if !ok {
		e.logger.Debugf("no state for workspace %s", workspaceName)
		return
	}
	if wsState.isExcluded {
		e.logger.Debug("workspace excluded")
		return
	}
	if wsState.manager != nil {
		e.logger.Debugf("calling WindowRemoved for window id %d on workspace %s", window.ID, workspaceName)
		e.guard(workspace, workspaceName, func() error {
			return wsState.manager.WindowRemoved(workspace, window)
		})
	} else if workspace != nil {
		e.setNativeLayoutCommand(workspace)
	}
}

// guard runs one manager call, converting panics and errors into a manager
// rebuild. One bad event must not take down the daemon or wedge the
// workspace.
func (e *Engine) guard(workspace *state.Node, workspaceName string, fn func() error) {
	faulted := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Errorf("layout manager panic on workspace %s: %v\n%s", workspaceName, r, debug.Stack())
				faulted = true
			}
		}()
		if err := fn(); err != nil {
			e.logger.Errorf("layout manager error on workspace %s: %v", workspaceName, err)
			faulted = true
		}
	}()
	if faulted {
		e.logger.Debugf("reloading layout manager for workspace %s after fault", workspaceName)
		if err := e.setWorkspaceLayout(workspace, workspaceName, ""); err != nil {
			e.logger.Error(err)
		}
	}
}

func (e *Engine) findFocusedWorkspace() *state.Node {
	tree, err := e.conn.Tree()
	if err != nil {
		e.logger.Errorf("tree fetch: %v", err)
		return nil
	}
	focused := tree.FindFocused()
	if focused == nil {
		return nil
	}
	if focused.Type == "workspace" {
		return focused
	}
	return focused.Workspace()
}

// command runs a compositor command and logs any failure.
func (e *Engine) command(command string) {
	if err := e.conn.Command(command); err != nil {
		e.logger.Errorf("command %q failed: %v", command, err)
	}
}

func anyWindowID(ids map[int64]struct{}) (int64, bool) {
	for id := range ids {
		return id, true
	}
	return 0, false
}

func windowIDList(ids map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out
}
