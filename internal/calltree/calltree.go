package calltree

import (
	"time"

	"github.com/callscope/callscope/internal/errorutil"
)

// NodeID addresses a node inside a Tree's arena. IDs are stable for the
// lifetime of the tree and are invalidated by Reset.
type NodeID int

// Root is the ID of the root node of every Tree.
const Root NodeID = 0

type node struct {
	name     string
	parent   NodeID
	children []NodeID
	index    map[string]NodeID

	total time.Duration
	count int
}

// Tree is a calling-context tree: every node stands for a unique call path,
// so the same caller name reached through two different parents aggregates
// into two distinct nodes. A cursor tracks the current position; Entry
// advances it one level down, MoveToParent retracts it one level up.
//
// Nodes live in a flat arena and are addressed by NodeID, with the root at
// index 0. Parent links are indices, so ascent is O(1) without raw
// back-pointers into the arena.
type Tree struct {
	nodes  []node
	cursor NodeID
}

func New() *Tree {
	t := new(Tree)
	t.Reset()
	return t
}

// Entry finds the child of the cursor node with the given name, creating it
// with an empty payload if absent, and moves the cursor to it.
func (t *Tree) Entry(name string) NodeID {
	if id, ok := t.nodes[t.cursor].index[name]; ok {
		t.cursor = id
		return id
	}
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{
		name:   name,
		parent: t.cursor,
		index:  make(map[string]NodeID),
	})
	cur := &t.nodes[t.cursor]
	cur.children = append(cur.children, id)
	cur.index[name] = id
	t.cursor = id
	return id
}

// Cursor returns the ID of the node at the current position. It is never
// invalid; a fresh or reset tree has the cursor on Root.
func (t *Tree) Cursor() NodeID {
	return t.cursor
}

// MoveToParent retracts the cursor one level. Retracting past the root means
// the caller lost track of its start/end pairing.
func (t *Tree) MoveToParent() error {
	if t.cursor == Root {
		return errorutil.ErrCursorAtRoot
	}
	t.cursor = t.nodes[t.cursor].parent
	return nil
}

// Record aggregates one completed call into a node's payload.
func (t *Tree) Record(id NodeID, elapsed time.Duration) {
	n := &t.nodes[id]
	n.total += elapsed
	n.count++
}

// Reset discards every node and starts over with a bare root, cursor on it.
func (t *Tree) Reset() {
	t.nodes = []node{{index: make(map[string]NodeID)}}
	t.cursor = Root
}

// Children returns a node's children in the order they were first entered.
// The returned slice is owned by the tree.
func (t *Tree) Children(id NodeID) []NodeID {
	return t.nodes[id].children
}

func (t *Tree) Parent(id NodeID) NodeID {
	return t.nodes[id].parent
}

func (t *Tree) Name(id NodeID) string {
	return t.nodes[id].name
}

func (t *Tree) TotalTime(id NodeID) time.Duration {
	return t.nodes[id].total
}

func (t *Tree) CallCount(id NodeID) int {
	return t.nodes[id].count
}

// Len returns the number of nodes in the tree, root included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Depth returns how many levels the cursor sits below the root.
func (t *Tree) Depth() int {
	depth := 0
	for id := t.cursor; id != Root; id = t.nodes[id].parent {
		depth++
	}
	return depth
}
