// Package state models the i3/Sway container tree as returned by GET_TREE.
//
// The tree is fetched fresh for every processed event rather than cached, so
// a Node is always a point-in-time snapshot; holding one across events is a
// bug in the caller.
package state

import (
	"encoding/json"
	"strings"
)

// Rect is a container geometry in pixels.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Node is a single container in the tree. Parent links are populated during
// decoding; they are not part of the wire format.
type Node struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	Layout         string  `json:"layout"`
	Rect           Rect    `json:"rect"`
	Focused        bool    `json:"focused"`
	Focus          []int64 `json:"focus"`
	FullscreenMode int     `json:"fullscreen_mode"`
	Floating       string  `json:"floating"`
	AppID          string  `json:"app_id"`
	Nodes          []*Node `json:"nodes"`
	FloatingNodes  []*Node `json:"floating_nodes"`

	WindowProperties struct {
		Class string `json:"class"`
	} `json:"window_properties"`

	Parent *Node `json:"-"`
}

// DecodeTree unmarshals a GET_TREE payload and links parent pointers.
func DecodeTree(data []byte) (*Node, error) {
	var root Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	linkParents(&root)
	return &root, nil
}

func linkParents(n *Node) {
	for _, child := range n.Nodes {
		child.Parent = n
		linkParents(child)
	}
	for _, child := range n.FloatingNodes {
		child.Parent = n
		linkParents(child)
	}
}

// WindowClass returns the X11 class, if any.
func (n *Node) WindowClass() string {
	return n.WindowProperties.Class
}

// IsFloating reports whether the node is a floating container, by Sway's
// container type or i3's floating attribute.
func (n *Node) IsFloating() bool {
	return n.Type == "floating_con" || strings.Contains(n.Floating, "on")
}

// Workspaces returns every workspace container in the tree.
func (n *Node) Workspaces() []*Node {
	var out []*Node
	n.walk(func(c *Node) bool {
		if c.Type == "workspace" {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Leaves returns the tiled leaf windows below n in depth-first order.
// Floating containers are not leaves.
func (n *Node) Leaves() []*Node {
	var out []*Node
	var visit func(c *Node)
	visit = func(c *Node) {
		if len(c.Nodes) == 0 {
			if c.Type == "con" {
				out = append(out, c)
			}
			return
		}
		for _, child := range c.Nodes {
			visit(child)
		}
	}
	for _, child := range n.Nodes {
		visit(child)
	}
	return out
}

// FindByID returns the node with the given container id, or nil.
func (n *Node) FindByID(id int64) *Node {
	var found *Node
	n.walk(func(c *Node) bool {
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindFocused follows the focus chain below n and returns the focused
// window, or nil if the chain dead-ends.
func (n *Node) FindFocused() *Node {
	cur := n
	for {
		if cur.Focused {
			return cur
		}
		if len(cur.Focus) == 0 {
			return nil
		}
		next := childByID(cur, cur.Focus[0])
		if next == nil {
			return nil
		}
		cur = next
	}
}

// Workspace returns the workspace the node belongs to, or nil for nodes
// above the workspace level.
func (n *Node) Workspace() *Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == "workspace" {
			return cur
		}
	}
	return nil
}

func childByID(n *Node, id int64) *Node {
	for _, c := range n.Nodes {
		if c.ID == id {
			return c
		}
	}
	for _, c := range n.FloatingNodes {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// walk visits every node depth-first until fn returns false.
func (n *Node) walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Nodes {
		if !c.walk(fn) {
			return false
		}
	}
	for _, c := range n.FloatingNodes {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}
