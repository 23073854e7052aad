package layouts

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/mschulkind/layman/internal/config"
	"github.com/mschulkind/layman/internal/state"
)

// TreeFetcher is implemented by commanders that can also query the live
// container tree. MasterStack needs a fresh look at the tree in the places
// where the compositor creates containers as a side effect of our own
// commands.
type TreeFetcher interface {
	Tree() (*state.Node, error)
}

// StackLayout is the arrangement of the stack container.
type StackLayout int

const (
	StackSplitV StackLayout = iota
	StackSplitH
	StackStacking
	StackTabbed
)

// Next cycles to the following stack layout.
func (s StackLayout) Next() StackLayout {
	switch s {
	case StackSplitV:
		return StackSplitH
	case StackSplitH:
		return StackStacking
	case StackStacking:
		return StackTabbed
	default:
		return StackSplitV
	}
}

func (s StackLayout) String() string {
	switch s {
	case StackSplitV:
		return "splitv"
	case StackSplitH:
		return "splith"
	case StackStacking:
		return "stacking"
	default:
		return "tabbed"
	}
}

func parseStackLayout(s string) (StackLayout, error) {
	switch s {
	case "", "splitv":
		return StackSplitV, nil
	case "splith":
		return StackSplitH, nil
	case "stacking":
		return StackStacking, nil
	case "tabbed":
		return StackTabbed, nil
	}
	return 0, fmt.Errorf("invalid stackLayout %q (want splitv, splith, stacking or tabbed)", s)
}

// Side is the screen side the stack occupies.
type Side int

const (
	SideRight Side = iota
	SideLeft
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

func parseSide(s string) (Side, error) {
	switch s {
	case "", "right":
		return SideRight, nil
	case "left":
		return SideLeft, nil
	}
	return 0, fmt.Errorf("invalid stackSide %q (want left or right)", s)
}

type masterStackOptions struct {
	MasterWidth       int    `mapstructure:"masterWidth"`
	StackLayout       string `mapstructure:"stackLayout"`
	StackSide         string `mapstructure:"stackSide"`
	VisibleStackLimit *int   `mapstructure:"visibleStackLimit"`
	MasterCount       int    `mapstructure:"masterCount"`
}

// MasterStack keeps one privileged master window beside an ordered stack.
//
// windowIDs is the authoritative order: index 0 is the master, the rest is
// the stack top to bottom. Once the stack outgrows visibleStackLimit the
// overflow lives in a collapsed substack container at the bottom.
type MasterStack struct {
	base

	windowIDs         []int64
	floatingWindowIDs map[int64]struct{}

	masterWidth       int
	stackLayout       StackLayout
	stackSide         Side
	visibleStackLimit int
	masterCount       int

	substackExists      bool
	lastFocusedWindowID int64
	maximized           bool

	// lastKnownMasterWidth is the master's pixel width observed on focus
	// and move events. At master-removal time the outgoing window's own
	// geometry may already be zeroed, so this is the value the promoted
	// master inherits; when it was never observed the configured
	// percentage applies instead.
	lastKnownMasterWidth      int
	masterWidthBeforeMaximize int
}

// NewMasterStack builds the layout and, when the workspace already has
// windows, runs the catch-up arrangement pass over the live tree.
func NewMasterStack(conn Commander, workspace *state.Node, workspaceName string, cfg *config.Config) (Manager, error) {
	opts := masterStackOptions{MasterWidth: 50, MasterCount: 1}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(cfg.OptionsForWorkspace(workspaceName)); err != nil {
		return nil, fmt.Errorf("masterstack options: %w", err)
	}
	if opts.MasterWidth <= 0 || opts.MasterWidth >= 100 {
		return nil, fmt.Errorf("invalid masterWidth %d, must be between 0 and 100 exclusive", opts.MasterWidth)
	}
	stackLayout, err := parseStackLayout(opts.StackLayout)
	if err != nil {
		return nil, err
	}
	stackSide, err := parseSide(opts.StackSide)
	if err != nil {
		return nil, err
	}
	limit := 3
	if opts.VisibleStackLimit != nil {
		limit = *opts.VisibleStackLimit
	}
	if limit < 0 {
		return nil, fmt.Errorf("invalid visibleStackLimit %d, must be a non-negative integer", limit)
	}
	if opts.MasterCount < 1 {
		return nil, fmt.Errorf("invalid masterCount %d, must be an integer >= 1", opts.MasterCount)
	}

	m := &MasterStack{
		base:              newBase(conn, workspaceName, "masterstack"),
		floatingWindowIDs: map[int64]struct{}{},
		masterWidth:       opts.MasterWidth,
		stackLayout:       stackLayout,
		stackSide:         stackSide,
		visibleStackLimit: limit,
		masterCount:       opts.MasterCount,
	}

	if workspace != nil {
		m.arrangeWindows(workspace)
		for _, floating := range workspace.FloatingNodes {
			m.floatingWindowIDs[floating.ID] = struct{}{}
		}
		m.logger.Debugf("floating window ids: %v", m.floatingIDList())
	}
	return m, nil
}

func (m *MasterStack) Name() string              { return "MasterStack" }
func (m *MasterStack) OverridesMoveBinds() bool  { return true }
func (m *MasterStack) OverridesFocusBinds() bool { return true }
func (m *MasterStack) SupportsFloating() bool    { return true }

// WindowAdded tracks floating windows and pushes tiled ones into the
// arrangement.
func (m *MasterStack) WindowAdded(workspace, window *state.Node) error {
	if isFloatingNode(window) {
		m.floatingWindowIDs[window.ID] = struct{}{}
		m.logger.Debugf("floating window ids: %v", m.floatingIDList())
		return nil
	}
	m.pushWindow(workspace, window, nil)
	m.logger.Debugf("added window id %d", window.ID)
	return nil
}

// WindowRemoved drops the window from tracking and repairs the
// arrangement.
func (m *MasterStack) WindowRemoved(workspace, window *state.Node) error {
	if isFloatingNode(window) {
		if _, ok := m.floatingWindowIDs[window.ID]; ok {
			delete(m.floatingWindowIDs, window.ID)
			m.logger.Debugf("floating window ids: %v", m.floatingIDList())
		} else {
			m.logger.Warnf("floating window id %d not tracked", window.ID)
		}
		return nil
	}
	m.popWindow(window)
	m.logger.Debugf("removed window id %d", window.ID)
	return nil
}

func (m *MasterStack) WindowFocused(workspace, window *state.Node) error {
	if isFloatingNode(window) {
		return nil
	}
	m.lastFocusedWindowID = window.ID
	m.updateMasterWidth(workspace, window)
	return nil
}

// WindowMoved refreshes the tracked master width. Sway emits no events for
// manual mouse resizes of tiled windows, so every move or focus on the
// workspace doubles as a chance to catch up with one.
func (m *MasterStack) WindowMoved(workspace, window *state.Node) error {
	if isFloatingNode(window) {
		return nil
	}
	m.updateMasterWidth(workspace, window)
	return nil
}

// WindowFloating transitions a window between the tiled arrangement and the
// floating set.
func (m *MasterStack) WindowFloating(workspace, window *state.Node) error {
	if isFloatingNode(window) {
		m.logger.Debugf("window id %d now floating", window.ID)
		m.popWindow(window)
		m.floatingWindowIDs[window.ID] = struct{}{}
	} else {
		m.logger.Debugf("window id %d no longer floating", window.ID)
		delete(m.floatingWindowIDs, window.ID)
		m.pushWindow(workspace, window, nil)
	}
	m.logger.Debugf("floating window ids: %v", m.floatingIDList())
	return nil
}

// updateMasterWidth records the master's current width from the tree.
func (m *MasterStack) updateMasterWidth(workspace, window *state.Node) {
	if len(m.windowIDs) == 0 {
		return
	}
	var master *state.Node
	if window != nil && window.ID == m.windowIDs[0] {
		master = window
	} else if workspace != nil {
		master = workspace.FindByID(m.windowIDs[0])
	}
	if master != nil && master.Rect.Width > 0 && master.Rect.Width != m.lastKnownMasterWidth {
		m.logger.Debugf("master width updated: %dpx -> %dpx", m.lastKnownMasterWidth, master.Rect.Width)
		m.lastKnownMasterWidth = master.Rect.Width
	}
}

// OnCommand dispatches a layout subcommand. Unknown commands are logged and
// ignored, never forwarded to the compositor.
func (m *MasterStack) OnCommand(command string, workspace *state.Node) error {
	m.logger.Debugf("received command %q with window ids %v", command, m.windowIDs)

	// Commands that do not require the focused window to be tracked.
	switch command {
	case "focus up":
		m.focusWindowRelative(workspace, -1)
		return nil
	case "focus down":
		m.focusWindowRelative(workspace, 1)
		return nil
	case "focus master":
		if len(m.windowIDs) == 0 {
			m.logger.Debugf("no windows, ignoring focus master")
			return nil
		}
		m.command("[con_id=%d] focus", m.windowIDs[0])
		return nil
	case "toggle":
		m.toggleStackLayout()
		return nil
	case "side toggle":
		m.toggleStackSide(workspace)
		return nil
	case "maximize":
		m.toggleMaximize(workspace)
		return nil
	case "master add":
		m.addMaster(workspace)
		return nil
	case "master remove":
		m.removeMaster(workspace)
		return nil
	}

	var focused *state.Node
	if workspace != nil {
		focused = workspace.FindFocused()
	}
	if focused == nil {
		m.logger.Debugf("no focused window, ignoring %q", command)
		return nil
	}
	if m.windowListIndex(focused.ID) < 0 {
		m.logger.Debugf("focused window %d not in tracked window ids %v, ignoring", focused.ID, m.windowIDs)
		return nil
	}

	switch command {
	case "move up":
		m.moveWindowRelative(focused, -1)
	case "move down":
		m.moveWindowRelative(focused, 1)
	case "move right":
		m.moveWindowHorizontally(workspace, focused, SideRight)
	case "move left":
		m.moveWindowHorizontally(workspace, focused, SideLeft)
	case "move to master":
		m.moveWindowToIndex(focused, 0)
	case "rotate cw":
		m.rotateWindows(workspace, rotateCW)
	case "rotate ccw":
		m.rotateWindows(workspace, rotateCCW)
	case "swap master":
		master := workspace.FindByID(m.windowIDs[0])
		if master == nil {
			m.logger.Warnf("master %d not found in tree", m.windowIDs[0])
			return nil
		}
		m.swapWindows(focused, master)
	default:
		if idx, ok := parseMoveToIndex(command); ok {
			if idx >= 0 && idx < len(m.windowIDs) {
				m.moveWindowToIndex(focused, idx)
			} else {
				m.logger.Debugf("index %d out of range", idx)
			}
			return nil
		}
		m.logger.Errorf("unknown command: %q", command)
	}
	return nil
}

// parseMoveToIndex matches "move to index <n>".
func parseMoveToIndex(command string) (int, bool) {
	var idx int
	if _, err := fmt.Sscanf(command, "move to index %d", &idx); err != nil {
		return 0, false
	}
	return idx, true
}

// setMasterWidth resizes the master to the configured percentage.
func (m *MasterStack) setMasterWidth() {
	if len(m.windowIDs) == 0 {
		return
	}
	m.command("[con_id=%d] resize set width %d ppt", m.windowIDs[0], m.masterWidth)
}

// removeExtraNesting flattens the split container the compositor wraps the
// master in while the first stack window is arranged. The tree is re-read
// because that container may not have existed when this event began.
func (m *MasterStack) removeExtraNesting(workspace *state.Node) {
	if len(m.windowIDs) == 0 {
		return
	}
	root := workspace
	if fetcher, ok := m.conn.(TreeFetcher); ok {
		if tree, err := fetcher.Tree(); err == nil {
			root = tree
		} else {
			m.logger.Debugf("tree fetch failed, using event snapshot: %v", err)
		}
	}
	if root == nil {
		return
	}
	master := root.FindByID(m.windowIDs[0])
	if master == nil {
		m.logger.Debugf("master %d not in tree; arrangement may have raced", m.windowIDs[0])
		return
	}
	parent := master.Parent
	if parent == nil || workspace == nil {
		return
	}
	if parent.ID != workspace.ID {
		m.command("[con_id=%d] split none", parent.ID)
	}
}

// arrangeWindows rebuilds the arrangement from the live tree. Used by the
// catch-up pass on construction; it must enumerate the tree exhaustively
// rather than trust any previous bookkeeping.
func (m *MasterStack) arrangeWindows(workspace *state.Node) {
	windows := workspace.Leaves()
	if len(windows) == 0 {
		return
	}

	// The focused window becomes the master.
	if focused := workspace.FindFocused(); focused != nil {
		for i, w := range windows {
			if w.ID == focused.ID {
				windows = append(windows[:i], windows[i+1:]...)
				windows = append([]*state.Node{focused}, windows...)
				break
			}
		}
	}

	m.logger.Debugf("arranging %d windows", len(windows))
	m.windowIDs = m.windowIDs[:0]
	var previous *state.Node
	for _, window := range windows {
		m.pushWindow(workspace, window, previous)
		previous = window
	}

	if actual := len(workspace.Leaves()); len(m.windowIDs) != actual {
		m.logger.Errorf("window count mismatch: arranged %d but workspace has %d leaves", len(m.windowIDs), actual)
	}

	m.removeExtraNesting(workspace)

	if m.masterCount > 1 && len(m.windowIDs) > m.masterCount {
		m.arrangeMultiMaster()
	}
}

// pushWindow inserts a window into the arrangement, immediately after
// positionAfter when given, else at the last focused window's slot.
func (m *MasterStack) pushWindow(workspace, window *state.Node, positionAfter *state.Node) {
	positionAtIndex := 0
	if positionAfter != nil {
		if afterIndex := m.windowListIndex(positionAfter.ID); afterIndex < 0 {
			m.logger.Debugf("positionAfter window %d not found in window ids", positionAfter.ID)
		} else {
			positionAtIndex = afterIndex + 1
		}
	} else if m.lastFocusedWindowID != 0 && workspace != nil {
		lastFocused := workspace.FindByID(m.lastFocusedWindowID)
		if lastFocused == nil {
			m.logger.Debugf("last focused window %d not found", m.lastFocusedWindowID)
		} else if lastFocusedIndex := m.windowListIndex(lastFocused.ID); lastFocusedIndex < 0 {
			m.logger.Debugf("last focused window %d not in window ids", m.lastFocusedWindowID)
		} else {
			positionAtIndex = lastFocusedIndex
		}
	}

	switch len(m.windowIDs) {
	case 0:
		m.logger.Debugf("too few windows to arrange")
	case 1:
		// Second window: create the master and the stack.
		var masterID, firstStackID int64
		if positionAtIndex == 0 {
			masterID, firstStackID = window.ID, m.windowIDs[0]
		} else {
			masterID, firstStackID = m.windowIDs[0], window.ID
		}
		if m.stackSide == SideLeft {
			m.command("[con_id=%d] splith", firstStackID)
			m.moveWindowTo(masterID, firstStackID)
		} else {
			m.command("[con_id=%d] splith", masterID)
			m.moveWindowTo(firstStackID, masterID)
		}
		m.command("[con_id=%d] splitv", firstStackID)
	default:
		switch {
		case positionAtIndex == 0:
			// New master.
			m.swapWindowsByID(window.ID, m.windowIDs[0])
			m.moveWindowTo(m.windowIDs[0], m.windowIDs[1])
			m.swapWindowsByID(m.windowIDs[0], m.windowIDs[1])
		case positionAtIndex == 1 ||
			(m.substackExists && positionAtIndex == m.visibleStackLimit):
			// New top of stack, or new top of substack.
			m.moveWindowTo(window.ID, m.windowIDs[positionAtIndex])
			m.swapWindowsByID(window.ID, m.windowIDs[positionAtIndex])
		default:
			m.moveWindowTo(window.ID, m.windowIDs[positionAtIndex-1])
		}
	}

	// A new visible-stack window pushes the last visible one down into the
	// substack.
	if m.substackExists && positionAtIndex < m.visibleStackLimit {
		lastVisible := m.windowIDs[m.visibleStackLimit-1]
		firstSubstack := m.windowIDs[m.visibleStackLimit]
		m.moveWindowTo(lastVisible, firstSubstack)
		m.swapWindowsByID(lastVisible, firstSubstack)
	}

	m.windowIDs = insertID(m.windowIDs, positionAtIndex, window.ID)
	m.logger.Debugf("window ids: %v", m.windowIDs)
	m.createSubstackIfNeeded()
	if len(m.windowIDs) == 2 {
		// The master and stack were just created; shape them.
		m.setStackLayout()
		m.setMasterWidth()
		m.removeExtraNesting(workspace)
	}
}

// popWindow removes a window from the arrangement and promotes or
// rebalances as needed.
func (m *MasterStack) popWindow(window *state.Node) {
	m.logger.Debugf("removing window id %d", window.ID)
	sourceIndex := m.windowListIndex(window.ID)
	if sourceIndex < 0 {
		m.logger.Warnf("window %d not found in window list; ignoring", window.ID)
		return
	}

	m.windowIDs = removeIDAt(m.windowIDs, sourceIndex)
	m.logger.Debugf("window ids: %v", m.windowIDs)

	if sourceIndex == 0 && len(m.windowIDs) >= 2 {
		// The master went away: the top of the stack takes its place.
		m.command("[con_id=%d] move %s", m.windowIDs[0], m.stackSide.Opposite())

		// The stack grew to full width while there was no master, so the
		// promoted one comes up at a default 50%. Restore the old
		// master's proportions: the outgoing window's geometry when it is
		// still valid, the tracked width otherwise, and only as a last
		// resort the configured percentage.
		if len(m.windowIDs) > 1 {
			switch {
			case window.Rect.Width > 0:
				m.command("[con_id=%d] resize set width %d px", m.windowIDs[0], window.Rect.Width)
			case m.lastKnownMasterWidth > 0:
				m.command("[con_id=%d] resize set width %d px", m.windowIDs[0], m.lastKnownMasterWidth)
			default:
				m.command("[con_id=%d] resize set width %d ppt", m.windowIDs[0], m.masterWidth)
			}
		}
	}

	if m.substackExists {
		// A removal from the master or visible stack frees a visible
		// slot; the top of the substack gets promoted into it.
		if m.visibleStackLimit >= 2 && sourceIndex < m.visibleStackLimit && len(m.windowIDs) >= m.visibleStackLimit {
			lastVisible := m.windowIDs[m.visibleStackLimit-2]
			firstSubstack := m.windowIDs[m.visibleStackLimit-1]
			m.moveWindowTo(firstSubstack, lastVisible)
		}
		if !m.shouldSubstackExist() {
			m.destroySubstackIfExists()
		}
	}

	if len(m.windowIDs) == 0 {
		// Back to a clean slate.
		m.lastKnownMasterWidth = 0
		m.substackExists = false
		m.maximized = false
		m.masterWidthBeforeMaximize = 0
	}
}

func (m *MasterStack) shouldSubstackExist() bool {
	return m.stackLayout == StackSplitV &&
		m.visibleStackLimit > 0 &&
		len(m.windowIDs) > m.visibleStackLimit
}

// setStackLayout applies the configured layout to the stack container.
func (m *MasterStack) setStackLayout() {
	if len(m.windowIDs) > 1 {
		m.command("[con_id=%d] layout %s", m.windowIDs[1], m.stackLayout)
	}
}

func (m *MasterStack) createSubstackIfNeeded() {
	if !m.shouldSubstackExist() || m.substackExists {
		return
	}
	firstSubstack := m.windowIDs[m.visibleStackLimit]
	m.command("[con_id=%d] splitv, layout stacking", firstSubstack)
	overflow := m.windowIDs[m.visibleStackLimit+1:]
	for i := len(overflow) - 1; i >= 0; i-- {
		m.moveWindowTo(overflow[i], firstSubstack)
	}
	m.substackExists = true
}

func (m *MasterStack) destroySubstackIfExists() {
	if !m.substackExists {
		return
	}
	lastVisible := m.windowIDs[m.visibleStackLimit-1]
	members := m.windowIDs[m.visibleStackLimit:]
	for i := len(members) - 1; i >= 0; i-- {
		m.moveWindowTo(members[i], lastVisible)
	}
	m.substackExists = false
}

// toggleStackLayout cycles the stack layout; the order of windowIDs never
// changes.
func (m *MasterStack) toggleStackLayout() {
	m.stackLayout = m.stackLayout.Next()
	if !m.maximized {
		m.destroySubstackIfExists()
		m.setStackLayout()
		m.createSubstackIfNeeded()
	}
	m.logger.Debugf("changed stackLayout to %s", m.stackLayout)
}

// toggleStackSide flips the stack to the other side of the master.
func (m *MasterStack) toggleStackSide(workspace *state.Node) {
	if len(m.windowIDs) >= 2 && workspace != nil {
		firstStack := workspace.FindByID(m.windowIDs[1])
		if firstStack == nil {
			m.logger.Warnf("first stack window %d not found in tree", m.windowIDs[1])
			return
		}
		stackParent := firstStack.Parent
		if stackParent == nil {
			m.logger.Warnf("first stack window %d has no parent", m.windowIDs[1])
			return
		}
		m.swapWindowsByID(m.windowIDs[0], stackParent.ID)

		// Swapping the containers swapped their widths too; size the
		// master back.
		if master := workspace.FindByID(m.windowIDs[0]); master != nil {
			m.command("[con_id=%d] resize set width %d px", master.ID, master.Rect.Width)
		}
	}
	m.stackSide = m.stackSide.Opposite()
}

// windowListIndex returns the position of a window id, -1 when untracked.
func (m *MasterStack) windowListIndex(id int64) int {
	for i, windowID := range m.windowIDs {
		if windowID == id {
			return i
		}
	}
	return -1
}

// moveWindowToIndex is the reordering primitive behind swap-master,
// move-up/down and move-to-master. Out-of-range targets are a no-op.
func (m *MasterStack) moveWindowToIndex(window *state.Node, targetIndex int) {
	if targetIndex < 0 || targetIndex >= len(m.windowIDs) {
		m.logger.Debugf("target index %d out of range for %d windows", targetIndex, len(m.windowIDs))
		return
	}
	if len(m.windowIDs) <= 1 {
		m.logger.Debugf("not enough windows to move any")
		return
	}
	sourceIndex := m.windowListIndex(window.ID)
	if sourceIndex < 0 {
		m.logger.Warnf("window %d not in window list", window.ID)
		return
	}
	if sourceIndex == targetIndex {
		m.logger.Debugf("noop move of window %d", window.ID)
		return
	}

	if m.maximized {
		m.moveWindowMaximized(window, sourceIndex, targetIndex)
	} else {
		skipRebalance := m.moveWindowNormal(window, sourceIndex, targetIndex)
		if m.substackExists && !skipRebalance {
			m.rebalanceSubstackAfterMove(window, sourceIndex, targetIndex)
		}
	}

	m.windowIDs = removeIDAt(m.windowIDs, sourceIndex)
	m.windowIDs = insertID(m.windowIDs, targetIndex, window.ID)
	m.logger.Debugf("window ids: %v", m.windowIDs)
	if !m.maximized {
		m.createSubstackIfNeeded()
	}
}

// moveWindowMaximized reorders inside the single tabbed group.
func (m *MasterStack) moveWindowMaximized(window *state.Node, sourceIndex, targetIndex int) {
	if targetIndex == 0 {
		m.moveWindowTo(window.ID, m.windowIDs[0])
		m.swapWindowsByID(window.ID, m.windowIDs[0])
		return
	}
	moveTarget := targetIndex
	if targetIndex < sourceIndex {
		moveTarget = targetIndex - 1
	}
	m.moveWindowTo(window.ID, m.windowIDs[moveTarget])
}

// moveWindowNormal classifies the move by its source/target pair and issues
// the matching command sequence. Reports whether substack rebalancing
// should be skipped.
func (m *MasterStack) moveWindowNormal(window *state.Node, sourceIndex, targetIndex int) bool {
	masterID := m.windowIDs[0]
	topOfStackID := m.windowIDs[1]

	switch {
	case (sourceIndex == 0 && targetIndex == 1) || (sourceIndex == 1 && targetIndex == 0):
		// Master and top of stack swap in place.
		m.swapWindowsByID(masterID, topOfStackID)
	case sourceIndex == 0:
		// Master moving deeper into the stack.
		m.swapWindowsByID(topOfStackID, masterID)
		m.moveWindowTo(masterID, m.windowIDs[targetIndex])
	case targetIndex == 0:
		// Stack window becoming master.
		m.swapWindowsByID(masterID, m.windowIDs[sourceIndex])
		m.moveWindowTo(masterID, m.windowIDs[1])
		m.swapWindowsByID(masterID, m.windowIDs[1])
	case sourceIndex-targetIndex == 1 || targetIndex-sourceIndex == 1:
		// Neighbors: a plain swap keeps the substack balanced.
		m.swapWindowsByID(m.windowIDs[sourceIndex], m.windowIDs[targetIndex])
		return true
	case targetIndex == 1:
		// Moving to the top of the stack from deeper in it.
		m.moveWindowTo(m.windowIDs[sourceIndex], topOfStackID)
		m.swapWindowsByID(m.windowIDs[sourceIndex], topOfStackID)
	case m.substackExists && targetIndex == m.visibleStackLimit && sourceIndex > m.visibleStackLimit:
		// Becoming top of the substack from within it.
		m.moveWindowTo(window.ID, m.windowIDs[targetIndex])
		m.swapWindowsByID(window.ID, m.windowIDs[targetIndex])
	default:
		anchor := targetIndex
		if sourceIndex > targetIndex {
			anchor = targetIndex - 1
		}
		m.moveWindowTo(window.ID, m.windowIDs[anchor])
	}
	return false
}

// rebalanceSubstackAfterMove promotes or demotes exactly the windows that
// crossed the visibleStackLimit boundary, nothing more.
func (m *MasterStack) rebalanceSubstackAfterMove(window *state.Node, sourceIndex, targetIndex int) {
	if sourceIndex >= m.visibleStackLimit && targetIndex < m.visibleStackLimit {
		// The window left the substack; a visible window takes its slot.
		lastVisible := m.windowIDs[m.visibleStackLimit-1]
		firstSubstack := m.windowIDs[m.visibleStackLimit]
		if firstSubstack == window.ID {
			if m.visibleStackLimit+1 >= len(m.windowIDs) {
				// The mover was the substack's only member, so the
				// emptied container dissolved with it. It is rebuilt
				// once the bookkeeping settles.
				m.substackExists = false
				return
			}
			firstSubstack = m.windowIDs[m.visibleStackLimit+1]
		}
		m.moveWindowTo(lastVisible, firstSubstack)
		m.swapWindowsByID(lastVisible, firstSubstack)
	}
	if sourceIndex < m.visibleStackLimit && targetIndex >= m.visibleStackLimit {
		// The window entered the substack; its top is promoted out.
		lastVisible := m.windowIDs[m.visibleStackLimit-1]
		firstSubstack := m.windowIDs[m.visibleStackLimit]
		m.moveWindowTo(firstSubstack, lastVisible)
	}
}

// moveWindowRelative moves a window up or down the list, wrapping around.
func (m *MasterStack) moveWindowRelative(window *state.Node, delta int) {
	sourceIndex := m.windowListIndex(window.ID)
	if sourceIndex < 0 {
		m.logger.Warnf("window %d not in window list", window.ID)
		return
	}
	targetIndex := (sourceIndex + delta + len(m.windowIDs)) % len(m.windowIDs)
	m.moveWindowToIndex(window, targetIndex)
}

type rotateDirection int

const (
	rotateCW rotateDirection = iota
	rotateCCW
)

// rotateWindows shifts the whole arrangement by one slot. A clockwise
// rotation followed by a counter-clockwise one is an exact identity.
func (m *MasterStack) rotateWindows(workspace *state.Node, direction rotateDirection) {
	if len(m.windowIDs) <= 1 || workspace == nil {
		return
	}
	if (m.stackSide == SideLeft && direction == rotateCW) ||
		(m.stackSide == SideRight && direction == rotateCCW) {
		master := workspace.FindByID(m.windowIDs[0])
		if master == nil {
			m.logger.Warnf("master %d not found in tree", m.windowIDs[0])
			return
		}
		m.moveWindowToIndex(master, len(m.windowIDs)-1)
	} else {
		last := workspace.FindByID(m.windowIDs[len(m.windowIDs)-1])
		if last == nil {
			m.logger.Warnf("window %d not found in tree", m.windowIDs[len(m.windowIDs)-1])
			return
		}
		m.moveWindowToIndex(last, 0)
	}
}

// swapWindows exchanges two tracked windows in place.
func (m *MasterStack) swapWindows(source, target *state.Node) {
	if len(m.windowIDs) == 0 || source.ID == target.ID {
		return
	}
	sourceIndex := m.windowListIndex(source.ID)
	if sourceIndex < 0 {
		m.logger.Warnf("window %d not in window list", source.ID)
		return
	}
	targetIndex := m.windowListIndex(target.ID)
	if targetIndex < 0 {
		m.logger.Warnf("window %d not in window list", target.ID)
		return
	}
	m.swapWindowsByID(source.ID, target.ID)
	m.windowIDs[sourceIndex], m.windowIDs[targetIndex] = m.windowIDs[targetIndex], m.windowIDs[sourceIndex]
	m.logger.Debugf("window ids: %v", m.windowIDs)
}

// moveWindowHorizontally maps a left/right move onto the arrangement, which
// depends on the stack layout and side.
func (m *MasterStack) moveWindowHorizontally(workspace, window *state.Node, toSide Side) {
	if len(m.windowIDs) < 2 {
		return
	}
	sourceIndex := m.windowListIndex(window.ID)
	if sourceIndex < 0 {
		m.logger.Warnf("window %d not in window list", window.ID)
		return
	}
	isMaster := window.ID == m.windowIDs[0]

	switch {
	case m.maximized:
		m.moveHorizontalMaximized(window, sourceIndex, toSide)
	case m.stackLayout == StackTabbed || m.stackLayout == StackSplitH:
		m.moveHorizontalInHorizontalStack(workspace, window, sourceIndex, isMaster, toSide)
	default:
		m.moveHorizontalInVerticalStack(window, isMaster, toSide)
	}
}

func (m *MasterStack) moveHorizontalMaximized(window *state.Node, sourceIndex int, toSide Side) {
	targetIndex := sourceIndex - 1
	if toSide == SideRight {
		targetIndex = sourceIndex + 1
	}
	targetIndex = (targetIndex + len(m.windowIDs)) % len(m.windowIDs)
	m.moveWindowToIndex(window, targetIndex)
}

func (m *MasterStack) moveHorizontalInHorizontalStack(workspace, window *state.Node, sourceIndex int, isMaster bool, toSide Side) {
	if m.stackSide == SideLeft {
		// Master towards the stack, or bottom of stack away from it:
		// both wrap around to a master/bottom swap.
		if (m.stackSide == toSide && isMaster) ||
			(m.stackSide != toSide && sourceIndex+1 == len(m.windowIDs)) {
			master := workspace.FindByID(m.windowIDs[0])
			bottom := workspace.FindByID(m.windowIDs[len(m.windowIDs)-1])
			if master == nil || bottom == nil {
				m.logger.Warnf("master or bottom of stack missing from tree")
				return
			}
			m.swapWindows(master, bottom)
			return
		}
		// Master away from the stack, or top of stack towards it: no
		// room to move.
		if (isMaster && m.stackSide != toSide) ||
			(sourceIndex == 1 && m.stackSide == toSide) {
			return
		}
	}
	delta := 1
	if toSide == SideLeft {
		delta = -1
	}
	m.moveWindowRelative(window, delta)
}

func (m *MasterStack) moveHorizontalInVerticalStack(window *state.Node, isMaster bool, toSide Side) {
	if m.stackSide == toSide && isMaster {
		m.moveWindowToIndex(window, 1)
	} else if m.stackSide != toSide && !isMaster {
		m.moveWindowToIndex(window, 0)
	}
}

// focusWindowRelative focuses the window above or below the last focused
// one, wrapping around.
func (m *MasterStack) focusWindowRelative(workspace *state.Node, delta int) {
	if m.lastFocusedWindowID == 0 {
		m.logger.Debugf("no last focused window, ignoring focus command")
		return
	}
	if workspace == nil || workspace.FindByID(m.lastFocusedWindowID) == nil {
		m.logger.Debugf("last focused window %d not found in tree", m.lastFocusedWindowID)
		return
	}
	sourceIndex := m.windowListIndex(m.lastFocusedWindowID)
	if sourceIndex < 0 {
		m.logger.Warnf("window %d not in window list", m.lastFocusedWindowID)
		return
	}
	targetIndex := (sourceIndex + delta + len(m.windowIDs)) % len(m.windowIDs)
	m.command("[con_id=%d] focus", m.windowIDs[targetIndex])
}

// toggleMaximize renders the whole workspace as one tabbed group and back.
// Double-toggle restores the exact prior order and master width.
func (m *MasterStack) toggleMaximize(workspace *state.Node) {
	if len(m.windowIDs) >= 2 && workspace != nil {
		if !m.maximized {
			// The master width is lost once everything is tabbed, so
			// capture it for the way back.
			if master := workspace.FindByID(m.windowIDs[0]); master != nil {
				m.masterWidthBeforeMaximize = master.Rect.Width
			}
			m.destroySubstackIfExists()
			m.moveWindowTo(m.windowIDs[0], m.windowIDs[1])
			m.swapWindowsByID(m.windowIDs[0], m.windowIDs[1])
			m.command("[con_id=%d] layout tabbed", m.windowIDs[0])
		} else {
			m.command("[con_id=%d] layout splitv", m.windowIDs[0])
			m.createSubstackIfNeeded()
			m.command("[con_id=%d] move %s", m.windowIDs[0], m.stackSide.Opposite())
			m.command("[con_id=%d] resize set width %d px", m.windowIDs[0], m.masterWidthBeforeMaximize)
			m.setStackLayout()
		}
	}
	m.maximized = !m.maximized
	if m.maximized {
		m.logger.Debugf("maximized")
	} else {
		m.logger.Debugf("unmaximized")
	}
}

// addMaster grows the master area by one window.
func (m *MasterStack) addMaster(workspace *state.Node) {
	if m.masterCount >= len(m.windowIDs) {
		m.logger.Debugf("cannot add more masters than windows")
		return
	}
	m.masterCount++
	m.logger.Debugf("master count increased to %d", m.masterCount)
	if workspace != nil {
		m.arrangeWindows(workspace)
	}
}

// removeMaster shrinks the master area by one window.
func (m *MasterStack) removeMaster(workspace *state.Node) {
	if m.masterCount <= 1 {
		m.logger.Debugf("cannot have fewer than 1 master")
		return
	}
	m.masterCount--
	m.logger.Debugf("master count decreased to %d", m.masterCount)
	if workspace != nil {
		m.arrangeWindows(workspace)
	}
}

// masterIDs returns the first masterCount window ids.
func (m *MasterStack) masterIDs() []int64 {
	if m.masterCount >= len(m.windowIDs) {
		return append([]int64(nil), m.windowIDs...)
	}
	return append([]int64(nil), m.windowIDs[:m.masterCount]...)
}

// arrangeMultiMaster stacks the master windows vertically in the master
// area.
func (m *MasterStack) arrangeMultiMaster() {
	masters := m.masterIDs()
	if len(masters) <= 1 {
		return
	}
	m.command("[con_id=%d] splitv", masters[0])
	for i := 1; i < len(masters); i++ {
		m.moveWindowTo(masters[i], masters[i-1])
	}
	m.logger.Debugf("arranged %d masters vertically", len(masters))
}

func (m *MasterStack) floatingIDList() []int64 {
	out := make([]int64, 0, len(m.floatingWindowIDs))
	for id := range m.floatingWindowIDs {
		out = append(out, id)
	}
	return out
}

func (m *MasterStack) DumpState() map[string]any {
	return map[string]any{
		"layout":               "MasterStack",
		"workspace":            m.workspaceName,
		"windowIds":            append([]int64(nil), m.windowIDs...),
		"floatingWindowIds":    m.floatingIDList(),
		"masterWidth":          m.masterWidth,
		"stackLayout":          m.stackLayout.String(),
		"stackSide":            m.stackSide.String(),
		"visibleStackLimit":    m.visibleStackLimit,
		"masterCount":          m.masterCount,
		"substackExists":       m.substackExists,
		"maximized":            m.maximized,
		"lastKnownMasterWidth": m.lastKnownMasterWidth,
	}
}

func insertID(ids []int64, index int, id int64) []int64 {
	ids = append(ids, 0)
	copy(ids[index+1:], ids[index:])
	ids[index] = id
	return ids
}

func removeIDAt(ids []int64, index int) []int64 {
	return append(ids[:index], ids[index+1:]...)
}
