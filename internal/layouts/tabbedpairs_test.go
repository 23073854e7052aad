package layouts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mschulkind/layman/internal/config"
	"github.com/mschulkind/layman/internal/state"
)

func newTestTabbedPairs(t *testing.T, conn *fakeConn, ws *state.Node, opts map[string]any) *TabbedPairs {
	t.Helper()
	cfg := &config.Config{Global: opts}
	m, err := NewTabbedPairs(conn, ws, "1", cfg)
	require.NoError(t, err)
	return m.(*TabbedPairs)
}

func editorTerminalRules() map[string]any {
	return map[string]any{
		"pairRules": map[string]any{"nvim": []any{"code"}},
	}
}

func addTabbedPairsWindow(t *testing.T, m *TabbedPairs, ws *state.Node, id int64, appID string) *state.Node {
	t.Helper()
	w := testWindow(id, 400, 800)
	w.AppID = appID
	w.Parent = ws
	ws.Nodes = append(ws.Nodes, w)
	require.NoError(t, m.WindowAdded(ws, w))
	return w
}

func TestTabbedPairsAutoPairsByClassRule(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	conn.tree = ws
	m := newTestTabbedPairs(t, conn, ws, editorTerminalRules())

	addTabbedPairsWindow(t, m, ws, 1, "code-oss")
	require.Equal(t, []int64{1}, m.unpaired)

	conn.reset()
	addTabbedPairsWindow(t, m, ws, 2, "nvim")

	assert.Equal(t, []windowPair{{primary: 1, secondary: 2}}, m.pairs)
	assert.Empty(t, m.unpaired)
	assert.True(t, conn.contains("[con_id=1] layout tabbed"))
	assert.True(t, conn.contains("[con_id=1] mark --add layman_move_target; [con_id=2] move window to mark layman_move_target; [con_id=1] unmark layman_move_target"))
}

func TestTabbedPairsRuleMatchIsSubstringAndCaseInsensitive(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	conn.tree = ws
	m := newTestTabbedPairs(t, conn, ws, editorTerminalRules())

	addTabbedPairsWindow(t, m, ws, 1, "VSCode")
	addTabbedPairsWindow(t, m, ws, 2, "Nvim-Qt")

	assert.Equal(t, []windowPair{{primary: 1, secondary: 2}}, m.pairs)
}

func TestTabbedPairsUnmatchedWindowsStayUnpaired(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	conn.tree = ws
	m := newTestTabbedPairs(t, conn, ws, editorTerminalRules())

	addTabbedPairsWindow(t, m, ws, 1, "browser")
	addTabbedPairsWindow(t, m, ws, 2, "mail")

	assert.Empty(t, m.pairs)
	assert.Equal(t, []int64{1, 2}, m.unpaired)
}

func TestTabbedPairsManualPairCommand(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	m := newTestTabbedPairs(t, conn, ws, nil)
	w1 := addTabbedPairsWindow(t, m, ws, 1, "browser")
	addTabbedPairsWindow(t, m, ws, 2, "mail")

	focusWindow(ws, w1)
	require.NoError(t, m.OnCommand("pair", ws))
	assert.Equal(t, int64(1), m.pendingPairID)

	addTabbedPairsWindow(t, m, ws, 3, "notes")

	assert.Equal(t, []windowPair{{primary: 1, secondary: 3}}, m.pairs)
	assert.Equal(t, []int64{2}, m.unpaired)
	assert.Zero(t, m.pendingPairID)
}

func TestTabbedPairsPairCommandTogglesPending(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	m := newTestTabbedPairs(t, conn, ws, nil)
	w1 := addTabbedPairsWindow(t, m, ws, 1, "browser")

	focusWindow(ws, w1)
	require.NoError(t, m.OnCommand("pair", ws))
	require.Equal(t, int64(1), m.pendingPairID)

	require.NoError(t, m.OnCommand("pair", ws))
	assert.Zero(t, m.pendingPairID)
}

func TestTabbedPairsUnpairDissolvesPair(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	conn.tree = ws
	m := newTestTabbedPairs(t, conn, ws, editorTerminalRules())
	w1 := addTabbedPairsWindow(t, m, ws, 1, "code-oss")
	addTabbedPairsWindow(t, m, ws, 2, "nvim")
	require.Len(t, m.pairs, 1)

	focusWindow(ws, w1)
	conn.reset()
	require.NoError(t, m.OnCommand("unpair", ws))

	assert.Empty(t, m.pairs)
	assert.Equal(t, []int64{1, 2}, m.unpaired)
	assert.True(t, conn.contains("[con_id=1] splith"))
}

func TestTabbedPairsClosingOneWindowOrphansThePartner(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	conn.tree = ws
	m := newTestTabbedPairs(t, conn, ws, editorTerminalRules())
	addTabbedPairsWindow(t, m, ws, 1, "code-oss")
	w2 := addTabbedPairsWindow(t, m, ws, 2, "nvim")
	require.Len(t, m.pairs, 1)

	require.NoError(t, m.WindowRemoved(ws, w2))

	assert.Empty(t, m.pairs)
	assert.Equal(t, []int64{1}, m.unpaired)
}

func TestTabbedPairsClosingPendingWindowClearsIt(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	m := newTestTabbedPairs(t, conn, ws, nil)
	w1 := addTabbedPairsWindow(t, m, ws, 1, "browser")

	focusWindow(ws, w1)
	require.NoError(t, m.OnCommand("pair", ws))
	require.NoError(t, m.WindowRemoved(ws, w1))

	assert.Zero(t, m.pendingPairID)
	assert.Empty(t, m.unpaired)
}

func TestTabbedPairsFocusCyclesAcrossPairs(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	conn.tree = ws
	m := newTestTabbedPairs(t, conn, ws, editorTerminalRules())
	w1 := addTabbedPairsWindow(t, m, ws, 1, "code-a")
	addTabbedPairsWindow(t, m, ws, 2, "nvim-a")
	addTabbedPairsWindow(t, m, ws, 3, "code-b")
	addTabbedPairsWindow(t, m, ws, 4, "nvim-b")
	require.Len(t, m.pairs, 2)

	focusWindow(ws, w1)
	require.NoError(t, m.WindowFocused(ws, w1))
	conn.reset()

	require.NoError(t, m.OnCommand("focus right", ws))
	assert.True(t, conn.contains("[con_id=3] focus"))

	conn.reset()
	require.NoError(t, m.OnCommand("focus right", ws))
	assert.True(t, conn.contains("[con_id=1] focus"))
}

func TestTabbedPairsFocusUpDownTogglesWithinPair(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	conn.tree = ws
	m := newTestTabbedPairs(t, conn, ws, editorTerminalRules())
	w1 := addTabbedPairsWindow(t, m, ws, 1, "code-oss")
	w2 := addTabbedPairsWindow(t, m, ws, 2, "nvim")

	focusWindow(ws, w1)
	conn.reset()
	require.NoError(t, m.OnCommand("focus down", ws))
	assert.True(t, conn.contains("[con_id=2] focus"))

	focusWindow(ws, w2)
	conn.reset()
	require.NoError(t, m.OnCommand("focus up", ws))
	assert.True(t, conn.contains("[con_id=1] focus"))
}

func TestTabbedPairsMovePairSwapsRowOrder(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	conn.tree = ws
	m := newTestTabbedPairs(t, conn, ws, editorTerminalRules())
	w1 := addTabbedPairsWindow(t, m, ws, 1, "code-a")
	addTabbedPairsWindow(t, m, ws, 2, "nvim-a")
	addTabbedPairsWindow(t, m, ws, 3, "code-b")
	addTabbedPairsWindow(t, m, ws, 4, "nvim-b")

	focusWindow(ws, w1)
	conn.reset()
	require.NoError(t, m.OnCommand("move right", ws))

	assert.Equal(t, []windowPair{{primary: 3, secondary: 4}, {primary: 1, secondary: 2}}, m.pairs)
	assert.True(t, conn.contains("[con_id=3] splith"))
}

func TestTabbedPairsMaximizeToggles(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	conn.tree = ws
	m := newTestTabbedPairs(t, conn, ws, editorTerminalRules())
	w1 := addTabbedPairsWindow(t, m, ws, 1, "code-oss")
	addTabbedPairsWindow(t, m, ws, 2, "nvim")

	focusWindow(ws, w1)
	conn.reset()
	require.NoError(t, m.OnCommand("maximize", ws))
	assert.True(t, m.maximized)
	assert.True(t, conn.contains("[con_id=1] layout tabbed"))

	conn.reset()
	require.NoError(t, m.OnCommand("maximize", ws))
	assert.False(t, m.maximized)
	assert.True(t, conn.contains("[con_id=1] splith"))
}

func TestTabbedPairsExistingWindowsPairedOnStart(t *testing.T) {
	conn := &fakeConn{}
	editor := testWindow(1, 400, 800)
	editor.AppID = "nvim"
	terminal := testWindow(2, 400, 800)
	terminal.AppID = "code-oss"
	extra := testWindow(3, 400, 800)
	extra.AppID = "browser"
	ws := testWorkspace("1", editor, terminal, extra)
	conn.tree = ws

	m := newTestTabbedPairs(t, conn, ws, editorTerminalRules())

	assert.Equal(t, []windowPair{{primary: 1, secondary: 2}}, m.pairs)
	assert.Equal(t, []int64{3}, m.unpaired)
}

func TestTabbedPairsFocusTracksPairIndex(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	conn.tree = ws
	m := newTestTabbedPairs(t, conn, ws, editorTerminalRules())
	addTabbedPairsWindow(t, m, ws, 1, "code-oss")
	w2 := addTabbedPairsWindow(t, m, ws, 2, "nvim")
	w3 := addTabbedPairsWindow(t, m, ws, 3, "browser")

	require.NoError(t, m.WindowFocused(ws, w2))
	assert.Equal(t, 0, m.focusedPairIndex)

	require.NoError(t, m.WindowFocused(ws, w3))
	assert.Equal(t, -1, m.focusedPairIndex)
}

func TestTabbedPairsFloatingWindowsIgnored(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	m := newTestTabbedPairs(t, conn, ws, nil)
	addTabbedPairsWindow(t, m, ws, 1, "browser")

	floating := testWindow(9, 400, 300)
	floating.Type = "floating_con"
	require.NoError(t, m.WindowAdded(ws, floating))

	assert.Equal(t, []int64{1}, m.unpaired)
	assert.Contains(t, m.floatingWindowIDs, int64(9))
}

func TestTabbedPairsDumpState(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	conn.tree = ws
	m := newTestTabbedPairs(t, conn, ws, editorTerminalRules())
	addTabbedPairsWindow(t, m, ws, 1, "code-oss")
	addTabbedPairsWindow(t, m, ws, 2, "nvim")
	addTabbedPairsWindow(t, m, ws, 3, "browser")

	got := m.DumpState()
	assert.Equal(t, "TabbedPairs", got["layout"])
	assert.Equal(t, [][]int64{{1, 2}}, got["pairs"])
	assert.Equal(t, []int64{3}, got["unpaired"])
}
