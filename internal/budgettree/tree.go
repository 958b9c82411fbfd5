// Package budgettree holds the in-memory view of a budget item forest.
//
// Nodes live in a flat arena keyed by id and point at their parent by id.
// Child lists are rebuilt by index lookup, never by nesting objects, so a
// tree can be rebuilt cheaply from a single table scan and never forms
// cyclic object graphs.
package budgettree

import (
	"sort"
)

// Node is one entry of the arena.
type Node[T any] struct {
	ID       string
	ParentID *string
	Order    int
	Value    T
}

// Tree is an ordered forest built from a flat node list.
type Tree[T any] struct {
	nodes    map[string]*Node[T]
	children map[string][]string
	roots    []string
}

// Build indexes nodes into a forest. Nodes whose parent is absent from the
// input are treated as roots. Siblings are ordered by Order, then ID.
func Build[T any](nodes []Node[T]) *Tree[T] {
	t := &Tree[T]{
		nodes:    make(map[string]*Node[T], len(nodes)),
		children: make(map[string][]string),
	}
	for i := range nodes {
		n := nodes[i]
		t.nodes[n.ID] = &n
	}
	for _, n := range t.nodes {
		if n.ParentID != nil {
			if _, ok := t.nodes[*n.ParentID]; ok {
				t.children[*n.ParentID] = append(t.children[*n.ParentID], n.ID)
				continue
			}
		}
		t.roots = append(t.roots, n.ID)
	}
	for id := range t.children {
		t.sortIDs(t.children[id])
	}
	t.sortIDs(t.roots)
	return t
}

func (t *Tree[T]) sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := t.nodes[ids[i]], t.nodes[ids[j]]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})
}

// Len returns the number of nodes.
func (t *Tree[T]) Len() int { return len(t.nodes) }

// Node looks up a node by id.
func (t *Tree[T]) Node(id string) (*Node[T], bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Roots returns the ids of the top-level nodes in order.
func (t *Tree[T]) Roots() []string { return t.roots }

// Children returns the ordered child ids of id.
func (t *Tree[T]) Children(id string) []string { return t.children[id] }

// Subtree returns id followed by all its descendants in depth-first,
// order-respecting sequence. It returns nil if id is unknown.
func (t *Tree[T]) Subtree(id string) []*Node[T] {
	if _, ok := t.nodes[id]; !ok {
		return nil
	}
	var out []*Node[T]
	t.walk(id, func(n *Node[T]) { out = append(out, n) })
	return out
}

// Walk visits every node of the forest depth-first, roots in order.
func (t *Tree[T]) Walk(fn func(n *Node[T])) {
	for _, id := range t.roots {
		t.walk(id, fn)
	}
}

func (t *Tree[T]) walk(id string, fn func(n *Node[T])) {
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(t.nodes[cur])
		kids := t.children[cur]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
}

// Contains reports whether candidate is ancestorID itself or one of its
// descendants. It walks parent links upward from candidate.
func (t *Tree[T]) Contains(ancestorID, candidate string) bool {
	seen := make(map[string]bool)
	cur, ok := t.nodes[candidate]
	for ok {
		if cur.ID == ancestorID {
			return true
		}
		if seen[cur.ID] || cur.ParentID == nil {
			return false
		}
		seen[cur.ID] = true
		cur, ok = t.nodes[*cur.ParentID]
	}
	return false
}

// Height returns the number of levels in the subtree rooted at id,
// 1 for a leaf and 0 for an unknown id.
func (t *Tree[T]) Height(id string) int {
	if _, ok := t.nodes[id]; !ok {
		return 0
	}
	best := 0
	for _, child := range t.children[id] {
		if h := t.Height(child); h > best {
			best = h
		}
	}
	return best + 1
}
