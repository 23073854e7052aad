package layouts

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/mschulkind/layman/internal/config"
	"github.com/mschulkind/layman/internal/state"
)

type threeColumnOptions struct {
	MasterWidth   int    `mapstructure:"masterWidth"`
	StackLayout   string `mapstructure:"stackLayout"`
	BalanceStacks *bool  `mapstructure:"balanceStacks"`
}

// ThreeColumn centers the master window between two side stacks, the
// ThreeColMid arrangement known from XMonad.
//
// New windows alternate between the right and left stacks while
// balanceStacks is on; with it off they all land on the right. Unlike
// MasterStack the arrangement is rebuilt from the bookkeeping on every
// change rather than patched incrementally.
type ThreeColumn struct {
	base

	// masterID is zero while the workspace is empty.
	masterID          int64
	leftStack         []int64
	rightStack        []int64
	floatingWindowIDs map[int64]struct{}

	masterWidth   int
	stackLayout   StackLayout
	balanceStacks bool

	lastFocusedWindowID int64
	maximized           bool
}

// NewThreeColumn builds the layout and, when the workspace already has
// windows, distributes them into the three columns.
func NewThreeColumn(conn Commander, workspace *state.Node, workspaceName string, cfg *config.Config) (Manager, error) {
	opts := threeColumnOptions{MasterWidth: 50}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(cfg.OptionsForWorkspace(workspaceName)); err != nil {
		return nil, fmt.Errorf("threecolumn options: %w", err)
	}
	if opts.MasterWidth <= 0 || opts.MasterWidth >= 100 {
		return nil, fmt.Errorf("invalid masterWidth %d, must be between 0 and 100 exclusive", opts.MasterWidth)
	}
	stackLayout, err := parseStackLayout(opts.StackLayout)
	if err != nil {
		return nil, err
	}
	balance := true
	if opts.BalanceStacks != nil {
		balance = *opts.BalanceStacks
	}

	t := &ThreeColumn{
		base:              newBase(conn, workspaceName, "threecolumn"),
		floatingWindowIDs: map[int64]struct{}{},
		masterWidth:       opts.MasterWidth,
		stackLayout:       stackLayout,
		balanceStacks:     balance,
	}

	if workspace != nil {
		t.arrangeExisting(workspace)
		for _, floating := range workspace.FloatingNodes {
			t.floatingWindowIDs[floating.ID] = struct{}{}
		}
	}
	return t, nil
}

func (t *ThreeColumn) Name() string              { return "ThreeColumn" }
func (t *ThreeColumn) OverridesMoveBinds() bool  { return true }
func (t *ThreeColumn) OverridesFocusBinds() bool { return true }
func (t *ThreeColumn) SupportsFloating() bool    { return true }

func (t *ThreeColumn) WindowAdded(workspace, window *state.Node) error {
	if isFloatingNode(window) {
		t.floatingWindowIDs[window.ID] = struct{}{}
		return nil
	}
	t.addWindow(workspace, window)
	return nil
}

func (t *ThreeColumn) WindowRemoved(workspace, window *state.Node) error {
	if isFloatingNode(window) {
		if _, ok := t.floatingWindowIDs[window.ID]; ok {
			delete(t.floatingWindowIDs, window.ID)
		} else {
			t.logger.Warnf("floating window id %d not tracked", window.ID)
		}
		return nil
	}
	t.removeWindow(workspace, window)
	return nil
}

func (t *ThreeColumn) WindowFocused(workspace, window *state.Node) error {
	if isFloatingNode(window) {
		return nil
	}
	t.lastFocusedWindowID = window.ID
	return nil
}

func (t *ThreeColumn) WindowMoved(_, _ *state.Node) error { return nil }

func (t *ThreeColumn) WindowFloating(workspace, window *state.Node) error {
	if isFloatingNode(window) {
		t.removeWindow(workspace, window)
		t.floatingWindowIDs[window.ID] = struct{}{}
	} else {
		delete(t.floatingWindowIDs, window.ID)
		t.addWindow(workspace, window)
	}
	return nil
}

func (t *ThreeColumn) OnCommand(command string, workspace *state.Node) error {
	var focused *state.Node
	if workspace != nil {
		focused = workspace.FindFocused()
	}
	if focused == nil && command != "balance" {
		t.logger.Debugf("no focused window, ignoring %q", command)
		return nil
	}

	switch command {
	case "move left":
		t.moveToColumn(workspace, focused, columnLeft)
	case "move right":
		t.moveToColumn(workspace, focused, columnRight)
	case "move to master":
		t.moveToColumn(workspace, focused, columnMaster)
	case "move up":
		t.moveWithinColumn(focused, -1)
	case "move down":
		t.moveWithinColumn(focused, 1)
	case "focus left":
		t.focusColumn(focused, -1)
	case "focus right":
		t.focusColumn(focused, 1)
	case "focus up":
		t.focusWithinColumn(focused, -1)
	case "focus down":
		t.focusWithinColumn(focused, 1)
	case "focus master":
		t.focusMaster()
	case "swap master":
		t.swapWithMaster(focused)
	case "rotate cw":
		t.rotate(workspace, 1)
	case "rotate ccw":
		t.rotate(workspace, -1)
	case "toggle":
		t.toggleStackLayout()
	case "maximize":
		t.toggleMaximize(workspace)
	case "balance":
		t.balance(workspace)
	default:
		t.logger.Errorf("unknown command: %q", command)
	}
	return nil
}

// column names a window's place in the arrangement.
type column string

const (
	columnLeft   column = "left"
	columnMaster column = "master"
	columnRight  column = "right"
)

// allWindowIDs lists the arrangement left to right: left stack, master,
// right stack.
func (t *ThreeColumn) allWindowIDs() []int64 {
	out := append([]int64(nil), t.leftStack...)
	if t.masterID != 0 {
		out = append(out, t.masterID)
	}
	return append(out, t.rightStack...)
}

func (t *ThreeColumn) windowColumn(id int64) (column, bool) {
	if id == t.masterID && id != 0 {
		return columnMaster, true
	}
	if indexOfID(t.leftStack, id) >= 0 {
		return columnLeft, true
	}
	if indexOfID(t.rightStack, id) >= 0 {
		return columnRight, true
	}
	return "", false
}

func (t *ThreeColumn) addWindow(workspace, window *state.Node) {
	if t.masterID == 0 {
		t.masterID = window.ID
		t.logger.Debugf("window %d is the master", window.ID)
		return
	}
	if t.balanceStacks && len(t.rightStack) > len(t.leftStack) {
		t.leftStack = append(t.leftStack, window.ID)
		t.logger.Debugf("window %d joins the left stack", window.ID)
	} else {
		t.rightStack = append(t.rightStack, window.ID)
		t.logger.Debugf("window %d joins the right stack", window.ID)
	}
	t.arrange(workspace)
}

func (t *ThreeColumn) removeWindow(workspace, window *state.Node) {
	col, ok := t.windowColumn(window.ID)
	if !ok {
		t.logger.Warnf("window %d not found in any column", window.ID)
		return
	}
	switch col {
	case columnMaster:
		// Promote from the right stack first, then the left.
		switch {
		case len(t.rightStack) > 0:
			t.masterID = t.rightStack[0]
			t.rightStack = t.rightStack[1:]
			t.logger.Debugf("promoted %d from the right stack to master", t.masterID)
		case len(t.leftStack) > 0:
			t.masterID = t.leftStack[0]
			t.leftStack = t.leftStack[1:]
			t.logger.Debugf("promoted %d from the left stack to master", t.masterID)
		default:
			t.masterID = 0
		}
	case columnLeft:
		t.leftStack = removeID(t.leftStack, window.ID)
	case columnRight:
		t.rightStack = removeID(t.rightStack, window.ID)
	}
	if workspace != nil && t.masterID != 0 {
		t.arrange(workspace)
	}
}

// arrangeExisting distributes the windows already on the workspace, focused
// one first as the master.
func (t *ThreeColumn) arrangeExisting(workspace *state.Node) {
	var windows []*state.Node
	for _, w := range workspace.Leaves() {
		if !isFloatingNode(w) {
			windows = append(windows, w)
		}
	}
	if len(windows) == 0 {
		return
	}

	if focused := workspace.FindFocused(); focused != nil {
		for i, w := range windows {
			if w.ID == focused.ID {
				windows = append(windows[:i], windows[i+1:]...)
				windows = append([]*state.Node{focused}, windows...)
				break
			}
		}
	}
	t.masterID = windows[0].ID
	for _, w := range windows[1:] {
		if t.balanceStacks && len(t.rightStack) > len(t.leftStack) {
			t.leftStack = append(t.leftStack, w.ID)
		} else {
			t.rightStack = append(t.rightStack, w.ID)
		}
	}
	t.arrange(workspace)
}

// arrange rebuilds the three-column structure from the bookkeeping.
func (t *ThreeColumn) arrange(workspace *state.Node) {
	if t.masterID == 0 {
		return
	}
	total := len(t.allWindowIDs())
	if total <= 1 {
		return
	}

	if total == 2 {
		var otherID int64
		if len(t.leftStack) > 0 {
			otherID = t.leftStack[0]
		} else if len(t.rightStack) > 0 {
			otherID = t.rightStack[0]
		} else {
			return
		}
		t.command("[con_id=%d] split none", t.masterID)
		t.command("[con_id=%d] splith", t.masterID)
		t.moveWindowTo(otherID, t.masterID)
		t.command("[con_id=%d] resize set width %d ppt", t.masterID, t.masterWidth)
		return
	}

	t.command("[con_id=%d] split none", t.masterID)
	t.command("[con_id=%d] splith", t.masterID)
	for _, id := range t.rightStack {
		t.moveWindowTo(id, t.masterID)
	}
	for _, id := range t.leftStack {
		t.moveWindowTo(id, t.masterID)
		t.command("[con_id=%d] move left", id)
	}
	if len(t.leftStack) > 0 {
		t.command("[con_id=%d] layout %s", t.leftStack[0], t.stackLayout)
	}
	if len(t.rightStack) > 0 {
		t.command("[con_id=%d] layout %s", t.rightStack[0], t.stackLayout)
	}
	t.command("[con_id=%d] resize set width %d ppt", t.masterID, t.masterWidth)
	t.command("[con_id=%d] focus", t.masterID)
}

// moveToColumn moves the focused window to another column and rebuilds.
func (t *ThreeColumn) moveToColumn(workspace, window *state.Node, target column) {
	if window == nil {
		return
	}
	current, ok := t.windowColumn(window.ID)
	if !ok || current == target {
		return
	}

	switch current {
	case columnLeft:
		t.leftStack = removeID(t.leftStack, window.ID)
	case columnRight:
		t.rightStack = removeID(t.rightStack, window.ID)
	}

	switch target {
	case columnMaster:
		// The old master retreats to the side the window did not come
		// from, keeping the columns populated.
		oldMaster := t.masterID
		t.masterID = window.ID
		if oldMaster != 0 {
			if current == columnLeft {
				t.rightStack = append([]int64{oldMaster}, t.rightStack...)
			} else {
				t.leftStack = append([]int64{oldMaster}, t.leftStack...)
			}
		}
	case columnLeft:
		if current == columnMaster {
			t.promoteNextMaster()
		}
		t.leftStack = append(t.leftStack, window.ID)
	case columnRight:
		if current == columnMaster {
			t.promoteNextMaster()
		}
		t.rightStack = append(t.rightStack, window.ID)
	}
	t.arrange(workspace)
}

func (t *ThreeColumn) promoteNextMaster() {
	switch {
	case len(t.rightStack) > 0:
		t.masterID = t.rightStack[0]
		t.rightStack = t.rightStack[1:]
	case len(t.leftStack) > 0:
		t.masterID = t.leftStack[0]
		t.leftStack = t.leftStack[1:]
	default:
		t.masterID = 0
	}
}

// moveWithinColumn swaps the window with its neighbor in the same stack,
// wrapping around.
func (t *ThreeColumn) moveWithinColumn(window *state.Node, direction int) {
	if window == nil {
		return
	}
	col, ok := t.windowColumn(window.ID)
	if !ok || col == columnMaster {
		return
	}
	stack := t.rightStack
	if col == columnLeft {
		stack = t.leftStack
	}
	idx := indexOfID(stack, window.ID)
	if idx < 0 {
		return
	}
	newIdx := (idx + direction + len(stack)) % len(stack)
	if newIdx == idx {
		return
	}
	stack[idx], stack[newIdx] = stack[newIdx], stack[idx]
	t.swapWindowsByID(stack[idx], stack[newIdx])
}

func (t *ThreeColumn) swapWithMaster(window *state.Node) {
	if window == nil || t.masterID == 0 || window.ID == t.masterID {
		return
	}
	col, ok := t.windowColumn(window.ID)
	if !ok {
		return
	}
	oldMaster := t.masterID
	t.masterID = window.ID
	switch col {
	case columnLeft:
		t.leftStack[indexOfID(t.leftStack, window.ID)] = oldMaster
	case columnRight:
		t.rightStack[indexOfID(t.rightStack, window.ID)] = oldMaster
	}
	t.swapWindowsByID(window.ID, oldMaster)
}

// rotate shifts the whole arrangement one slot clockwise or counter-
// clockwise and redistributes the columns.
func (t *ThreeColumn) rotate(workspace *state.Node, direction int) {
	all := t.allWindowIDs()
	if len(all) <= 1 {
		return
	}
	var rotated []int64
	if direction > 0 {
		rotated = append([]int64{all[len(all)-1]}, all[:len(all)-1]...)
	} else {
		rotated = append(append([]int64(nil), all[1:]...), all[0])
	}
	t.redistribute(rotated)
	t.arrange(workspace)
}

// redistribute refills the columns from a flat left-to-right ordering,
// keeping the previous column sizes.
func (t *ThreeColumn) redistribute(ids []int64) {
	if len(ids) == 0 {
		t.masterID = 0
		t.leftStack = nil
		t.rightStack = nil
		return
	}
	leftCount := len(t.leftStack)
	if leftCount >= len(ids) {
		leftCount = 0
	}
	t.masterID = ids[leftCount]
	t.leftStack = append([]int64(nil), ids[:leftCount]...)
	t.rightStack = append([]int64(nil), ids[leftCount+1:]...)
}

// focusColumn focuses the first window of the adjacent column, wrapping
// left-master-right.
func (t *ThreeColumn) focusColumn(focused *state.Node, direction int) {
	if focused == nil {
		return
	}
	current, ok := t.windowColumn(focused.ID)
	if !ok {
		return
	}
	columns := []column{columnLeft, columnMaster, columnRight}
	currentIdx := 0
	for i, c := range columns {
		if c == current {
			currentIdx = i
			break
		}
	}
	target := columns[(currentIdx+direction+3)%3]
	if id := t.firstInColumn(target); id != 0 {
		t.command("[con_id=%d] focus", id)
	}
}

func (t *ThreeColumn) focusWithinColumn(window *state.Node, direction int) {
	if window == nil {
		return
	}
	col, ok := t.windowColumn(window.ID)
	if !ok || col == columnMaster {
		return
	}
	stack := t.rightStack
	if col == columnLeft {
		stack = t.leftStack
	}
	idx := indexOfID(stack, window.ID)
	if idx < 0 {
		return
	}
	t.command("[con_id=%d] focus", stack[(idx+direction+len(stack))%len(stack)])
}

func (t *ThreeColumn) focusMaster() {
	if t.masterID != 0 {
		t.command("[con_id=%d] focus", t.masterID)
	}
}

func (t *ThreeColumn) firstInColumn(col column) int64 {
	switch col {
	case columnMaster:
		return t.masterID
	case columnLeft:
		if len(t.leftStack) > 0 {
			return t.leftStack[0]
		}
	case columnRight:
		if len(t.rightStack) > 0 {
			return t.rightStack[0]
		}
	}
	return 0
}

// toggleStackLayout cycles both side stacks to the next layout.
func (t *ThreeColumn) toggleStackLayout() {
	t.stackLayout = t.stackLayout.Next()
	if len(t.leftStack) > 0 {
		t.command("[con_id=%d] layout %s", t.leftStack[0], t.stackLayout)
	}
	if len(t.rightStack) > 0 {
		t.command("[con_id=%d] layout %s", t.rightStack[0], t.stackLayout)
	}
	t.logger.Debugf("stack layout set to %s", t.stackLayout)
}

// toggleMaximize tabs everything into one group; toggling back rebuilds
// the columns.
func (t *ThreeColumn) toggleMaximize(workspace *state.Node) {
	all := t.allWindowIDs()
	if len(all) == 0 {
		return
	}
	if t.maximized {
		t.arrange(workspace)
		t.maximized = false
		t.logger.Debugf("unmaximized")
	} else {
		t.command("[con_id=%d] layout tabbed", all[0])
		t.maximized = true
		t.logger.Debugf("maximized")
	}
}

// balance deals the combined stacks back out alternately, right first.
func (t *ThreeColumn) balance(workspace *state.Node) {
	combined := append(append([]int64(nil), t.leftStack...), t.rightStack...)
	t.leftStack = nil
	t.rightStack = nil
	for i, id := range combined {
		if i%2 == 0 {
			t.rightStack = append(t.rightStack, id)
		} else {
			t.leftStack = append(t.leftStack, id)
		}
	}
	t.arrange(workspace)
	t.logger.Debugf("rebalanced stacks")
}

func (t *ThreeColumn) DumpState() map[string]any {
	return map[string]any{
		"layout":        "ThreeColumn",
		"workspace":     t.workspaceName,
		"masterId":      t.masterID,
		"leftStack":     append([]int64(nil), t.leftStack...),
		"rightStack":    append([]int64(nil), t.rightStack...),
		"masterWidth":   t.masterWidth,
		"stackLayout":   t.stackLayout.String(),
		"balanceStacks": t.balanceStacks,
		"maximized":     t.maximized,
	}
}

func indexOfID(ids []int64, id int64) int {
	for i, candidate := range ids {
		if candidate == id {
			return i
		}
	}
	return -1
}

func removeID(ids []int64, id int64) []int64 {
	idx := indexOfID(ids, id)
	if idx < 0 {
		return ids
	}
	return removeIDAt(ids, idx)
}
