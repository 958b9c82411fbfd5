package budgettree

import "github.com/shopspring/decimal"

// Totals carries the rolled-up figures of one node.
type Totals struct {
	Target decimal.Decimal
	Actual decimal.Decimal
}

// DirectFunc yields a node's own target and actual, before children are added.
type DirectFunc[T any] func(n *Node[T]) Totals

// Rollup computes subtree totals for every node reachable from id:
// total(n) = direct(n) + Σ total(child). Results are memoized in the returned
// map for the lifetime of the call only.
func Rollup[T any](t *Tree[T], id string, direct DirectFunc[T]) map[string]Totals {
	memo := make(map[string]Totals)
	if _, ok := t.nodes[id]; ok {
		t.rollup(id, direct, memo)
	}
	return memo
}

// RollupAll computes totals for every node of the forest.
func RollupAll[T any](t *Tree[T], direct DirectFunc[T]) map[string]Totals {
	memo := make(map[string]Totals, len(t.nodes))
	for _, id := range t.roots {
		t.rollup(id, direct, memo)
	}
	return memo
}

func (t *Tree[T]) rollup(id string, direct DirectFunc[T], memo map[string]Totals) Totals {
	if got, ok := memo[id]; ok {
		return got
	}
	total := direct(t.nodes[id])
	for _, child := range t.children[id] {
		sub := t.rollup(child, direct, memo)
		total.Target = total.Target.Add(sub.Target)
		total.Actual = total.Actual.Add(sub.Actual)
	}
	memo[id] = total
	return total
}
