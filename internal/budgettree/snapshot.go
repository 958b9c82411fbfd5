package budgettree

import (
	"github.com/shopspring/decimal"

	"anggaran/internal/models"
)

// FromItems builds a tree over template items.
func FromItems(items []models.Item) *Tree[models.Item] {
	nodes := make([]Node[models.Item], 0, len(items))
	for _, it := range items {
		nodes = append(nodes, Node[models.Item]{ID: it.ID, ParentID: it.ParentID, Order: it.Order, Value: it})
	}
	return Build(nodes)
}

// FromEntries builds a tree over a period's frozen budget entries, keyed by item id.
func FromEntries(entries []models.BudgetEntry) *Tree[models.BudgetEntry] {
	nodes := make([]Node[models.BudgetEntry], 0, len(entries))
	for _, e := range entries {
		nodes = append(nodes, Node[models.BudgetEntry]{ID: e.ItemID, ParentID: e.ParentItemID, Order: e.Order, Value: e})
	}
	return Build(nodes)
}

// Snapshot copies the template tree into budget entries for periodID.
//
// An item is adopted when it is active, its category is listed in
// activeCategories, and every ancestor is active too; deactivating a node
// therefore hides its whole subtree. Entries come out in depth-first order
// and keep the template's parent, level and sibling order.
func Snapshot(items []models.Item, activeCategories map[string]bool, periodID string) []models.BudgetEntry {
	tree := FromItems(items)
	entries := make([]models.BudgetEntry, 0, len(items))

	var visit func(id string)
	visit = func(id string) {
		n, _ := tree.Node(id)
		it := n.Value
		if !it.IsActive || !activeCategories[it.CategoryID] {
			return
		}
		entries = append(entries, models.BudgetEntry{
			PeriodID:        periodID,
			ItemID:          it.ID,
			ParentItemID:    copyString(it.ParentID),
			CategoryID:      it.CategoryID,
			Code:            it.Code,
			Name:            it.Name,
			Level:           it.Level,
			Order:           it.Order,
			TargetFrequency: copyInt(it.TargetFrequency),
			UnitLabel:       copyString(it.UnitLabel),
			UnitAmount:      copyDecimal(it.UnitAmount),
			TotalTarget:     copyDecimal(it.TotalTarget),
		})
		for _, child := range tree.Children(id) {
			visit(child)
		}
	}
	for _, root := range tree.Roots() {
		visit(root)
	}
	return entries
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
