package layouts

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/mschulkind/layman/internal/config"
	"github.com/mschulkind/layman/internal/state"
)

type tabbedPairsOptions struct {
	PairRules map[string][]string `mapstructure:"pairRules"`
}

// windowPair is a tab group of two. The primary is the window that was
// there first; the tab container is built on it.
type windowPair struct {
	primary   int64
	secondary int64
}

// TabbedPairs groups windows into two-window tab containers laid out side
// by side, an editor-plus-terminal style arrangement.
//
// Pairs form two ways: the "pair" command marks the focused window as the
// pending partner for the next new window, and pairRules matches new
// windows to compatible unpaired ones by application class. Matching is a
// case-insensitive substring test in both directions.
type TabbedPairs struct {
	base

	pairs             []windowPair
	unpaired          []int64
	floatingWindowIDs map[int64]struct{}

	// focusedPairIndex is -1 while focus is outside any pair.
	focusedPairIndex int
	// pendingPairID is the window awaiting a manual partner, zero if none.
	pendingPairID int64
	maximized     bool

	pairRules map[string][]string
}

// NewTabbedPairs builds the layout; windows already on the workspace are
// auto-paired by class where the rules allow.
func NewTabbedPairs(conn Commander, workspace *state.Node, workspaceName string, cfg *config.Config) (Manager, error) {
	var opts tabbedPairsOptions
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &opts,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(cfg.OptionsForWorkspace(workspaceName)); err != nil {
		return nil, fmt.Errorf("tabbedpairs options: %w", err)
	}

	t := &TabbedPairs{
		base:              newBase(conn, workspaceName, "tabbedpairs"),
		floatingWindowIDs: map[int64]struct{}{},
		focusedPairIndex:  -1,
		pairRules:         opts.PairRules,
	}

	if workspace != nil {
		t.arrangeExisting(workspace)
		for _, floating := range workspace.FloatingNodes {
			t.floatingWindowIDs[floating.ID] = struct{}{}
		}
	}
	return t, nil
}

func (t *TabbedPairs) Name() string              { return "TabbedPairs" }
func (t *TabbedPairs) OverridesMoveBinds() bool  { return true }
func (t *TabbedPairs) OverridesFocusBinds() bool { return true }
func (t *TabbedPairs) SupportsFloating() bool    { return true }

func (t *TabbedPairs) WindowAdded(workspace, window *state.Node) error {
	if isFloatingNode(window) {
		t.floatingWindowIDs[window.ID] = struct{}{}
		return nil
	}

	if t.pendingPairID != 0 && t.pendingPairID != window.ID {
		primary := t.pendingPairID
		t.pendingPairID = 0
		t.unpaired = removeID(t.unpaired, primary)
		if idx := t.pairIndexOf(primary); idx >= 0 {
			t.logger.Warnf("pending window %d got paired elsewhere, dropping it", primary)
			t.unpaired = append(t.unpaired, window.ID)
			t.arrange(workspace)
			return nil
		}
		t.createPair(primary, window.ID)
		return nil
	}

	if partner := t.findAutoPartner(window); partner != 0 {
		t.unpaired = removeID(t.unpaired, partner)
		t.createPair(partner, window.ID)
		return nil
	}

	t.unpaired = append(t.unpaired, window.ID)
	t.arrange(workspace)
	return nil
}

func (t *TabbedPairs) WindowRemoved(workspace, window *state.Node) error {
	if isFloatingNode(window) {
		if _, ok := t.floatingWindowIDs[window.ID]; ok {
			delete(t.floatingWindowIDs, window.ID)
			return nil
		}
	}
	t.dropWindow(workspace, window.ID)
	return nil
}

func (t *TabbedPairs) WindowFocused(workspace, window *state.Node) error {
	if isFloatingNode(window) {
		return nil
	}
	t.focusedPairIndex = t.pairIndexOf(window.ID)
	return nil
}

func (t *TabbedPairs) WindowMoved(_, _ *state.Node) error { return nil }

func (t *TabbedPairs) WindowFloating(workspace, window *state.Node) error {
	if isFloatingNode(window) {
		t.dropWindow(workspace, window.ID)
		t.floatingWindowIDs[window.ID] = struct{}{}
	} else {
		delete(t.floatingWindowIDs, window.ID)
		return t.WindowAdded(workspace, window)
	}
	return nil
}

func (t *TabbedPairs) OnCommand(command string, workspace *state.Node) error {
	var focused *state.Node
	if workspace != nil {
		focused = workspace.FindFocused()
	}
	if focused == nil {
		t.logger.Debugf("no focused window, ignoring %q", command)
		return nil
	}

	switch command {
	case "focus left":
		t.focusPair(-1)
	case "focus right":
		t.focusPair(1)
	case "focus up", "focus down":
		t.focusWithinPair(focused)
	case "move left":
		t.movePair(workspace, focused, -1)
	case "move right":
		t.movePair(workspace, focused, 1)
	case "pair":
		t.startManualPair(focused)
	case "unpair":
		t.breakPair(workspace, focused)
	case "maximize":
		t.toggleMaximize(workspace)
	default:
		t.logger.Errorf("unknown command: %q", command)
	}
	return nil
}

// dropWindow removes the window from the bookkeeping, orphaning its
// partner into the unpaired list if it had one.
func (t *TabbedPairs) dropWindow(workspace *state.Node, id int64) {
	if t.pendingPairID == id {
		t.pendingPairID = 0
	}
	if idx := t.pairIndexOf(id); idx >= 0 {
		pair := t.pairs[idx]
		remaining := pair.primary
		if remaining == id {
			remaining = pair.secondary
		}
		t.pairs = append(t.pairs[:idx], t.pairs[idx+1:]...)
		t.unpaired = append(t.unpaired, remaining)
		if t.focusedPairIndex >= len(t.pairs) {
			t.focusedPairIndex = len(t.pairs) - 1
		}
		t.logger.Debugf("pair broken by close, window %d is unpaired", remaining)
	} else {
		t.unpaired = removeID(t.unpaired, id)
	}
	if workspace != nil {
		t.arrange(workspace)
	}
}

// windowClass is the matching key: Wayland app_id when set, X11 class
// otherwise.
func windowClass(window *state.Node) string {
	if window.AppID != "" {
		return window.AppID
	}
	return window.WindowClass()
}

// findAutoPartner looks for an unpaired window whose class the rules pair
// with the new window's class. Classes come from a fresh tree fetch since
// the bookkeeping only holds ids.
func (t *TabbedPairs) findAutoPartner(window *state.Node) int64 {
	if len(t.pairRules) == 0 || len(t.unpaired) == 0 {
		return 0
	}
	class := strings.ToLower(windowClass(window))
	if class == "" {
		return 0
	}
	var partnerClasses []string
	for ruleClass, partners := range t.pairRules {
		if strings.Contains(class, strings.ToLower(ruleClass)) {
			partnerClasses = append(partnerClasses, partners...)
		}
	}
	if len(partnerClasses) == 0 {
		return 0
	}

	fetcher, ok := t.conn.(TreeFetcher)
	if !ok {
		return 0
	}
	tree, err := fetcher.Tree()
	if err != nil {
		t.logger.Errorf("fetching tree for pair matching: %v", err)
		return 0
	}
	for _, id := range t.unpaired {
		candidate := tree.FindByID(id)
		if candidate == nil {
			continue
		}
		candidateClass := strings.ToLower(windowClass(candidate))
		if candidateClass == "" {
			continue
		}
		for _, partner := range partnerClasses {
			if strings.Contains(candidateClass, strings.ToLower(partner)) {
				return id
			}
		}
	}
	return 0
}

// createPair builds a tab container on the primary and moves the secondary
// into it.
func (t *TabbedPairs) createPair(primaryID, secondaryID int64) {
	t.pairs = append(t.pairs, windowPair{primary: primaryID, secondary: secondaryID})
	t.command("[con_id=%d] split none", primaryID)
	t.command("[con_id=%d] layout tabbed", primaryID)
	t.moveWindowTo(secondaryID, primaryID)
	t.logger.Debugf("paired %d with %d", primaryID, secondaryID)
}

// startManualPair marks the focused window as the partner for the next new
// window. Repeating the command on the same window cancels it.
func (t *TabbedPairs) startManualPair(focused *state.Node) {
	if t.pairIndexOf(focused.ID) >= 0 {
		t.logger.Errorf("window %d is already paired", focused.ID)
		return
	}
	if t.pendingPairID == focused.ID {
		t.pendingPairID = 0
		t.logger.Debugf("pending pair cancelled")
		return
	}
	t.pendingPairID = focused.ID
	t.logger.Debugf("window %d awaits a partner", focused.ID)
}

// breakPair dissolves the focused window's pair; both members become
// unpaired.
func (t *TabbedPairs) breakPair(workspace *state.Node, focused *state.Node) {
	idx := t.pairIndexOf(focused.ID)
	if idx < 0 {
		t.logger.Debugf("window %d is not paired", focused.ID)
		return
	}
	pair := t.pairs[idx]
	t.pairs = append(t.pairs[:idx], t.pairs[idx+1:]...)
	t.unpaired = append(t.unpaired, pair.primary, pair.secondary)
	t.focusedPairIndex = -1
	t.arrange(workspace)
}

// focusPair cycles focus across the pairs, landing on the primary.
func (t *TabbedPairs) focusPair(direction int) {
	if len(t.pairs) == 0 {
		return
	}
	idx := t.focusedPairIndex
	if idx < 0 {
		idx = 0
	} else {
		idx = (idx + direction + len(t.pairs)) % len(t.pairs)
	}
	t.focusedPairIndex = idx
	t.command("[con_id=%d] focus", t.pairs[idx].primary)
}

// focusWithinPair flips focus to the other tab of the focused window's
// pair.
func (t *TabbedPairs) focusWithinPair(focused *state.Node) {
	idx := t.pairIndexOf(focused.ID)
	if idx < 0 {
		return
	}
	pair := t.pairs[idx]
	other := pair.primary
	if focused.ID == pair.primary {
		other = pair.secondary
	}
	t.command("[con_id=%d] focus", other)
}

// movePair swaps the focused window's pair with its neighbor in the row.
func (t *TabbedPairs) movePair(workspace, focused *state.Node, direction int) {
	idx := t.pairIndexOf(focused.ID)
	if idx < 0 || len(t.pairs) < 2 {
		return
	}
	newIdx := (idx + direction + len(t.pairs)) % len(t.pairs)
	if newIdx == idx {
		return
	}
	t.pairs[idx], t.pairs[newIdx] = t.pairs[newIdx], t.pairs[idx]
	t.focusedPairIndex = newIdx
	t.arrange(workspace)
}

// toggleMaximize tabs the whole workspace into one group; toggling back
// rebuilds the pair row.
func (t *TabbedPairs) toggleMaximize(workspace *state.Node) {
	all := t.allWindowIDs()
	if len(all) == 0 {
		return
	}
	if t.maximized {
		t.arrange(workspace)
	} else {
		t.command("[con_id=%d] layout tabbed", all[0])
		t.maximized = true
	}
}

// allWindowIDs flattens the arrangement left to right: paired windows in
// pair order, then the unpaired ones.
func (t *TabbedPairs) allWindowIDs() []int64 {
	var out []int64
	for _, pair := range t.pairs {
		out = append(out, pair.primary, pair.secondary)
	}
	return append(out, t.unpaired...)
}

func (t *TabbedPairs) pairIndexOf(id int64) int {
	for i, pair := range t.pairs {
		if pair.primary == id || pair.secondary == id {
			return i
		}
	}
	return -1
}

// arrangeExisting pairs up windows already on the workspace by class and
// builds the row.
func (t *TabbedPairs) arrangeExisting(workspace *state.Node) {
	var windows []*state.Node
	for _, w := range workspace.Leaves() {
		if !isFloatingNode(w) {
			windows = append(windows, w)
		}
	}
	if len(windows) == 0 {
		return
	}

	remaining := append([]*state.Node(nil), windows...)
	for len(remaining) > 0 {
		first := remaining[0]
		remaining = remaining[1:]
		partnerIdx := -1
		class := strings.ToLower(windowClass(first))
		if class != "" {
			for ruleClass, partners := range t.pairRules {
				if !strings.Contains(class, strings.ToLower(ruleClass)) {
					continue
				}
				for i, candidate := range remaining {
					candidateClass := strings.ToLower(windowClass(candidate))
					if candidateClass == "" {
						continue
					}
					for _, partner := range partners {
						if strings.Contains(candidateClass, strings.ToLower(partner)) {
							partnerIdx = i
							break
						}
					}
					if partnerIdx >= 0 {
						break
					}
				}
				if partnerIdx >= 0 {
					break
				}
			}
		}
		if partnerIdx >= 0 {
			t.pairs = append(t.pairs, windowPair{primary: first.ID, secondary: remaining[partnerIdx].ID})
			remaining = append(remaining[:partnerIdx], remaining[partnerIdx+1:]...)
		} else {
			t.unpaired = append(t.unpaired, first.ID)
		}
	}
	t.arrange(workspace)
}

// arrange rebuilds the row of tab groups from the bookkeeping.
func (t *TabbedPairs) arrange(workspace *state.Node) {
	all := t.allWindowIDs()
	if len(all) == 0 {
		return
	}
	first := all[0]
	t.command("[con_id=%d] split none", first)
	t.command("[con_id=%d] splith", first)
	for _, id := range all[1:] {
		t.moveWindowTo(id, first)
	}
	for _, pair := range t.pairs {
		t.command("[con_id=%d] split none", pair.primary)
		t.command("[con_id=%d] layout tabbed", pair.primary)
		t.moveWindowTo(pair.secondary, pair.primary)
	}
	t.maximized = false
}

func (t *TabbedPairs) DumpState() map[string]any {
	pairs := make([][]int64, 0, len(t.pairs))
	for _, pair := range t.pairs {
		pairs = append(pairs, []int64{pair.primary, pair.secondary})
	}
	return map[string]any{
		"layout":           "TabbedPairs",
		"workspace":        t.workspaceName,
		"pairs":            pairs,
		"unpaired":         append([]int64(nil), t.unpaired...),
		"focusedPairIndex": t.focusedPairIndex,
		"pendingPairId":    t.pendingPairID,
	}
}
