package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// treeFixture is a trimmed GET_TREE reply: one output, two workspaces, a
// nested split and a floating window.
const treeFixture = `{
  "id": 1,
  "name": "root",
  "type": "root",
  "layout": "splith",
  "focus": [5],
  "nodes": [
    {
      "id": 5,
      "name": "eDP-1",
      "type": "output",
      "layout": "output",
      "focus": [10],
      "nodes": [
        {
          "id": 10,
          "name": "1",
          "type": "workspace",
          "layout": "splith",
          "focus": [20],
          "nodes": [
            {
              "id": 20,
              "name": "term",
              "type": "con",
              "layout": "splith",
              "app_id": "foot",
              "focused": true,
              "rect": {"x": 0, "y": 0, "width": 960, "height": 1080},
              "nodes": []
            },
            {
              "id": 21,
              "name": "stack",
              "type": "con",
              "layout": "splitv",
              "focus": [22],
              "nodes": [
                {
                  "id": 22,
                  "name": "editor",
                  "type": "con",
                  "layout": "splith",
                  "app_id": "code",
                  "rect": {"x": 960, "y": 0, "width": 960, "height": 540},
                  "nodes": []
                },
                {
                  "id": 23,
                  "name": "legacy",
                  "type": "con",
                  "layout": "splith",
                  "window_properties": {"class": "Gimp"},
                  "rect": {"x": 960, "y": 540, "width": 960, "height": 540},
                  "nodes": []
                }
              ]
            }
          ],
          "floating_nodes": [
            {
              "id": 30,
              "name": "volume",
              "type": "floating_con",
              "app_id": "pavucontrol",
              "nodes": []
            }
          ]
        },
        {
          "id": 11,
          "name": "2",
          "type": "workspace",
          "layout": "splith",
          "nodes": []
        }
      ]
    }
  ]
}`

func decodeFixture(t *testing.T) *Node {
	t.Helper()
	tree, err := DecodeTree([]byte(treeFixture))
	require.NoError(t, err)
	return tree
}

func TestDecodeTreeLinksParents(t *testing.T) {
	tree := decodeFixture(t)

	editor := tree.FindByID(22)
	require.NotNil(t, editor)
	require.NotNil(t, editor.Parent)
	assert.Equal(t, int64(21), editor.Parent.ID)

	floating := tree.FindByID(30)
	require.NotNil(t, floating)
	require.NotNil(t, floating.Parent)
	assert.Equal(t, int64(10), floating.Parent.ID)
}

func TestWorkspaces(t *testing.T) {
	tree := decodeFixture(t)

	workspaces := tree.Workspaces()
	require.Len(t, workspaces, 2)
	assert.Equal(t, "1", workspaces[0].Name)
	assert.Equal(t, "2", workspaces[1].Name)
}

func TestLeavesSkipFloatingAndContainers(t *testing.T) {
	tree := decodeFixture(t)
	ws := tree.FindByID(10)
	require.NotNil(t, ws)

	leaves := ws.Leaves()
	var ids []int64
	for _, leaf := range leaves {
		ids = append(ids, leaf.ID)
	}
	assert.Equal(t, []int64{20, 22, 23}, ids)
}

func TestFindFocusedFollowsChain(t *testing.T) {
	tree := decodeFixture(t)

	focused := tree.FindFocused()
	require.NotNil(t, focused)
	assert.Equal(t, int64(20), focused.ID)
}

func TestFindFocusedDeadEnd(t *testing.T) {
	tree := decodeFixture(t)
	ws := tree.FindByID(11)
	require.NotNil(t, ws)

	assert.Nil(t, ws.FindFocused())
}

func TestWorkspaceWalksUp(t *testing.T) {
	tree := decodeFixture(t)

	editor := tree.FindByID(22)
	require.NotNil(t, editor)
	ws := editor.Workspace()
	require.NotNil(t, ws)
	assert.Equal(t, "1", ws.Name)

	// Nodes above the workspace level have none.
	assert.Nil(t, tree.FindByID(5).Workspace())
}

func TestWindowClass(t *testing.T) {
	tree := decodeFixture(t)

	assert.Equal(t, "Gimp", tree.FindByID(23).WindowClass())
	assert.Empty(t, tree.FindByID(22).WindowClass())
}

func TestIsFloating(t *testing.T) {
	tree := decodeFixture(t)

	assert.True(t, tree.FindByID(30).IsFloating())
	assert.False(t, tree.FindByID(20).IsFloating())

	// i3 reports floating on the node itself instead of a type.
	i3Style := &Node{Type: "con", Floating: "user_on"}
	assert.True(t, i3Style.IsFloating())
	assert.False(t, (&Node{Type: "con", Floating: "auto_off"}).IsFloating())
}

func TestDecodeTreeRejectsGarbage(t *testing.T) {
	_, err := DecodeTree([]byte("not json"))
	assert.Error(t, err)
}
