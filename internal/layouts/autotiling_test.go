package layouts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mschulkind/layman/internal/config"
	"github.com/mschulkind/layman/internal/state"
)

func newTestAutotiling(t *testing.T, conn *fakeConn, ws *state.Node, opts map[string]any) *Autotiling {
	t.Helper()
	cfg := &config.Config{Global: opts}
	m, err := NewAutotiling(conn, ws, "1", cfg)
	require.NoError(t, err)
	return m.(*Autotiling)
}

func TestAutotilingTallWindowSplitsVertically(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	a := newTestAutotiling(t, conn, ws, nil)
	w := testWindow(1, 400, 800)
	w.Parent = ws
	ws.Nodes = append(ws.Nodes, w)

	require.NoError(t, a.WindowAdded(ws, w))

	assert.Equal(t, []string{"[con_id=1] splitv"}, conn.commands)
}

func TestAutotilingWideWindowSplitsHorizontally(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	ws.Layout = "splitv"
	a := newTestAutotiling(t, conn, ws, nil)
	w := testWindow(1, 800, 400)
	w.Parent = ws
	ws.Nodes = append(ws.Nodes, w)

	require.NoError(t, a.WindowAdded(ws, w))

	assert.Equal(t, []string{"[con_id=1] splith"}, conn.commands)
}

func TestAutotilingSquareWindowSplitsHorizontally(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	ws.Layout = "splitv"
	a := newTestAutotiling(t, conn, ws, nil)
	w := testWindow(1, 600, 600)
	w.Parent = ws
	ws.Nodes = append(ws.Nodes, w)

	require.NoError(t, a.WindowAdded(ws, w))

	assert.True(t, conn.contains("[con_id=1] splith"))
}

func TestAutotilingSkipsWhenParentAlreadyMatches(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	a := newTestAutotiling(t, conn, ws, nil)
	w := testWindow(1, 800, 400)
	w.Parent = ws
	ws.Nodes = append(ws.Nodes, w)

	require.NoError(t, a.WindowAdded(ws, w))

	assert.Empty(t, conn.commands)
}

func TestAutotilingFocusAndMoveAlsoSwitchSplit(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	a := newTestAutotiling(t, conn, ws, nil)
	w := testWindow(1, 400, 800)
	w.Parent = ws
	ws.Nodes = append(ws.Nodes, w)

	require.NoError(t, a.WindowFocused(ws, w))
	assert.Equal(t, []string{"[con_id=1] splitv"}, conn.commands)

	conn.reset()
	require.NoError(t, a.WindowMoved(ws, w))
	assert.Equal(t, []string{"[con_id=1] splitv"}, conn.commands)
}

func TestAutotilingDepthLimit(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	outer := &state.Node{ID: 10, Type: "con", Layout: "splith", Parent: ws}
	inner := &state.Node{ID: 11, Type: "con", Layout: "splith", Parent: outer}
	ws.Nodes = append(ws.Nodes, outer)
	outer.Nodes = append(outer.Nodes, inner)
	w := testWindow(1, 400, 800)
	w.Parent = inner
	inner.Nodes = append(inner.Nodes, w)

	limited := newTestAutotiling(t, conn, ws, map[string]any{"depthLimit": 1})
	require.NoError(t, limited.WindowAdded(ws, w))
	assert.Empty(t, conn.commands)

	// A zero limit means unlimited depth.
	unlimited := newTestAutotiling(t, conn, ws, nil)
	require.NoError(t, unlimited.WindowAdded(ws, w))
	assert.Equal(t, []string{"[con_id=1] splitv"}, conn.commands)
}

func TestAutotilingIgnoresFloatingWindows(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	a := newTestAutotiling(t, conn, ws, nil)
	w := testWindow(1, 400, 800)
	w.Floating = "user_on"
	w.Parent = ws
	ws.Nodes = append(ws.Nodes, w)

	require.NoError(t, a.WindowAdded(ws, w))

	assert.Empty(t, conn.commands)
}

func TestAutotilingIgnoresCommands(t *testing.T) {
	conn := &fakeConn{}
	ws := testWorkspace("1")
	a := newTestAutotiling(t, conn, ws, nil)

	require.NoError(t, a.OnCommand("move up", ws))

	assert.Empty(t, conn.commands)
}

func TestAutotilingRejectsNegativeDepthLimit(t *testing.T) {
	cfg := &config.Config{Global: map[string]any{"depthLimit": -1}}
	_, err := NewAutotiling(&fakeConn{}, testWorkspace("1"), "1", cfg)
	assert.Error(t, err)
}

func TestAutotilingDumpState(t *testing.T) {
	a := newTestAutotiling(t, &fakeConn{}, testWorkspace("1"), map[string]any{"depthLimit": 2})

	got := a.DumpState()

	assert.Equal(t, "Autotiling", got["layout"])
	assert.Equal(t, 2, got["depthLimit"])
}
