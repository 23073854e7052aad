package layouts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mschulkind/layman/internal/config"
	"github.com/mschulkind/layman/internal/state"
)

func newTestThreeColumn(t *testing.T, conn *fakeConn, ws *state.Node, opts map[string]any) *ThreeColumn {
	t.Helper()
	cfg := &config.Config{Global: opts}
	m, err := NewThreeColumn(conn, ws, "1", cfg)
	require.NoError(t, err)
	return m.(*ThreeColumn)
}

func addThreeColumnWindows(t *testing.T, m *ThreeColumn, ws *state.Node, n int) []*state.Node {
	t.Helper()
	var windows []*state.Node
	for i := 1; i <= n; i++ {
		w := testWindow(int64(i), 400, 800)
		w.Parent = ws
		ws.Nodes = append(ws.Nodes, w)
		windows = append(windows, w)
		require.NoError(t, m.WindowAdded(ws, w))
	}
	return windows
}

func TestThreeColumnFirstWindowBecomesMaster(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	m := newTestThreeColumn(t, conn, ws, nil)

	addThreeColumnWindows(t, m, ws, 1)

	assert.Equal(t, int64(1), m.masterID)
	assert.Empty(t, conn.commands)
}

func TestThreeColumnBalancesNewWindowsAcrossStacks(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	m := newTestThreeColumn(t, conn, ws, nil)

	addThreeColumnWindows(t, m, ws, 4)

	assert.Equal(t, int64(1), m.masterID)
	assert.Equal(t, []int64{3}, m.leftStack)
	assert.Equal(t, []int64{2, 4}, m.rightStack)
}

func TestThreeColumnUnbalancedFillsRightStack(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	m := newTestThreeColumn(t, conn, ws, map[string]any{"balanceStacks": false})

	addThreeColumnWindows(t, m, ws, 4)

	assert.Empty(t, m.leftStack)
	assert.Equal(t, []int64{2, 3, 4}, m.rightStack)
}

func TestThreeColumnArrangeBuildsColumns(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	m := newTestThreeColumn(t, conn, ws, nil)

	conn.reset()
	addThreeColumnWindows(t, m, ws, 3)

	// Left member is moved beside the master and then pushed one column
	// left; stack heads get the stack layout.
	assert.True(t, conn.contains("[con_id=1] split none"))
	assert.True(t, conn.contains("[con_id=1] splith"))
	assert.True(t, conn.contains("[con_id=3] move left"))
	assert.True(t, conn.contains("[con_id=3] layout splitv"))
	assert.True(t, conn.contains("[con_id=2] layout splitv"))
	assert.True(t, conn.contains("[con_id=1] resize set width 50 ppt"))
	assert.True(t, conn.contains("[con_id=1] focus"))
	assert.Equal(t, int64(1), m.masterID)
}

func TestThreeColumnMasterRemovalPromotesFromRightFirst(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	m := newTestThreeColumn(t, conn, ws, nil)
	windows := addThreeColumnWindows(t, m, ws, 4)

	require.NoError(t, m.WindowRemoved(ws, windows[0]))

	assert.Equal(t, int64(2), m.masterID)
	assert.Equal(t, []int64{3}, m.leftStack)
	assert.Equal(t, []int64{4}, m.rightStack)
}

func TestThreeColumnMoveToMasterPushesOldMasterToOppositeSide(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	m := newTestThreeColumn(t, conn, ws, nil)
	windows := addThreeColumnWindows(t, m, ws, 4)

	// Window 3 sits in the left stack; promoting it sends the old master
	// to the right.
	focusWindow(ws, windows[2])
	require.NoError(t, m.OnCommand("move to master", ws))

	assert.Equal(t, int64(3), m.masterID)
	assert.Empty(t, m.leftStack)
	assert.Equal(t, []int64{1, 2, 4}, m.rightStack)
}

func TestThreeColumnMoveWithinColumnSwaps(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	m := newTestThreeColumn(t, conn, ws, nil)
	windows := addThreeColumnWindows(t, m, ws, 4)

	focusWindow(ws, windows[1])
	conn.reset()
	require.NoError(t, m.OnCommand("move down", ws))

	assert.Equal(t, []int64{4, 2}, m.rightStack)
	assert.True(t, conn.contains("[con_id=4] swap container with con_id 2"))
}

func TestThreeColumnSwapMasterExchangesBookkeepingAndWindows(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	m := newTestThreeColumn(t, conn, ws, nil)
	windows := addThreeColumnWindows(t, m, ws, 4)

	focusWindow(ws, windows[2])
	conn.reset()
	require.NoError(t, m.OnCommand("swap master", ws))

	assert.Equal(t, int64(3), m.masterID)
	assert.Equal(t, []int64{1}, m.leftStack)
	assert.True(t, conn.contains("[con_id=3] swap container with con_id 1"))
}

func TestThreeColumnRotateRoundTrip(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	m := newTestThreeColumn(t, conn, ws, nil)
	windows := addThreeColumnWindows(t, m, ws, 4)

	focusWindow(ws, windows[0])
	require.NoError(t, m.OnCommand("rotate cw", ws))

	assert.Equal(t, int64(3), m.masterID)
	assert.Equal(t, []int64{4}, m.leftStack)
	assert.Equal(t, []int64{1, 2}, m.rightStack)

	require.NoError(t, m.OnCommand("rotate ccw", ws))

	assert.Equal(t, int64(1), m.masterID)
	assert.Equal(t, []int64{3}, m.leftStack)
	assert.Equal(t, []int64{2, 4}, m.rightStack)
}

func TestThreeColumnFocusColumnCycles(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	m := newTestThreeColumn(t, conn, ws, nil)
	windows := addThreeColumnWindows(t, m, ws, 4)

	focusWindow(ws, windows[0])
	conn.reset()
	require.NoError(t, m.OnCommand("focus right", ws))
	assert.True(t, conn.contains("[con_id=2] focus"))

	conn.reset()
	require.NoError(t, m.OnCommand("focus left", ws))
	assert.True(t, conn.contains("[con_id=3] focus"))

	// From the left stack another step left wraps around to the right.
	focusWindow(ws, windows[2])
	conn.reset()
	require.NoError(t, m.OnCommand("focus left", ws))
	assert.True(t, conn.contains("[con_id=2] focus"))
}

func TestThreeColumnFocusWithinColumnWraps(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	m := newTestThreeColumn(t, conn, ws, nil)
	windows := addThreeColumnWindows(t, m, ws, 5)

	// Right stack is [2, 4]; focus down from the bottom wraps to the top.
	focusWindow(ws, windows[3])
	conn.reset()
	require.NoError(t, m.OnCommand("focus down", ws))
	assert.True(t, conn.contains("[con_id=2] focus"))
}

func TestThreeColumnBalanceRedistributesStacks(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	m := newTestThreeColumn(t, conn, ws, map[string]any{"balanceStacks": false})
	addThreeColumnWindows(t, m, ws, 5)

	require.Empty(t, m.leftStack)
	require.NoError(t, m.OnCommand("balance", ws))

	assert.Equal(t, []int64{3, 5}, m.leftStack)
	assert.Equal(t, []int64{2, 4}, m.rightStack)
}

func TestThreeColumnMaximizeTogglesTabbed(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	m := newTestThreeColumn(t, conn, ws, nil)
	windows := addThreeColumnWindows(t, m, ws, 3)

	focusWindow(ws, windows[0])
	conn.reset()
	require.NoError(t, m.OnCommand("maximize", ws))
	assert.True(t, m.maximized)
	assert.True(t, conn.contains("[con_id=3] layout tabbed"))

	conn.reset()
	require.NoError(t, m.OnCommand("maximize", ws))
	assert.False(t, m.maximized)
	assert.True(t, conn.contains("[con_id=1] splith"))
}

func TestThreeColumnToggleChangesStackLayout(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	m := newTestThreeColumn(t, conn, ws, nil)
	windows := addThreeColumnWindows(t, m, ws, 3)

	focusWindow(ws, windows[0])
	conn.reset()
	require.NoError(t, m.OnCommand("toggle", ws))

	assert.Equal(t, StackSplitH, m.stackLayout)
	assert.True(t, conn.contains("[con_id=3] layout splith"))
	assert.True(t, conn.contains("[con_id=2] layout splith"))
}

func TestThreeColumnFloatingWindowsIgnored(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	m := newTestThreeColumn(t, conn, ws, nil)
	addThreeColumnWindows(t, m, ws, 2)

	floating := testWindow(9, 400, 300)
	floating.Type = "floating_con"
	require.NoError(t, m.WindowAdded(ws, floating))

	assert.Equal(t, []int64{2}, m.rightStack)
	assert.Contains(t, m.floatingWindowIDs, int64(9))
}

func TestThreeColumnExistingWindowsDistributedOnStart(t *testing.T) {
	conn := &fakeConn{}
	w1 := testWindow(1, 400, 800)
	w2 := testWindow(2, 400, 800)
	w3 := testWindow(3, 400, 800)
	ws := testWorkspace("1", w1, w2, w3)
	focusWindow(ws, w2)

	m := newTestThreeColumn(t, conn, ws, nil)

	// The focused window takes the master slot.
	assert.Equal(t, int64(2), m.masterID)
	assert.ElementsMatch(t, []int64{1, 3}, append(append([]int64(nil), m.leftStack...), m.rightStack...))
}

func TestThreeColumnRejectsBadMasterWidth(t *testing.T) {
	conn := &fakeConn{}
	cfg := &config.Config{Global: map[string]any{"masterWidth": 120}}
	_, err := NewThreeColumn(conn, nil, "1", cfg)
	assert.Error(t, err)
}

func TestThreeColumnDumpState(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	m := newTestThreeColumn(t, conn, ws, nil)
	addThreeColumnWindows(t, m, ws, 3)

	got := m.DumpState()
	assert.Equal(t, "ThreeColumn", got["layout"])
	assert.Equal(t, int64(1), got["masterId"])
	assert.Equal(t, []int64{3}, got["leftStack"])
	assert.Equal(t, []int64{2}, got["rightStack"])
	assert.Equal(t, true, got["balanceStacks"])
}
