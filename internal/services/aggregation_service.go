package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"anggaran/internal/budgettree"
	apperrors "anggaran/internal/errors"
	"anggaran/internal/models"
)

// aggregationService computes rollups on read. Nothing is cached between
// calls; each call rebuilds the period tree and memoizes only within itself.
type aggregationService struct {
	db *gorm.DB
}

// NewAggregationService creates a new AggregationServicer.
func NewAggregationService(db *gorm.DB) AggregationServicer {
	return &aggregationService{db: db}
}

// RollupTarget returns the item's own total target plus the rolled-up
// targets of its children in the period snapshot.
func (s *aggregationService) RollupTarget(periodID, itemID string) (decimal.Decimal, error) {
	nodes, err := s.RollupSubtree(periodID, itemID)
	if err != nil {
		return decimal.Zero, err
	}
	return nodes[0].TargetTotal, nil
}

// RollupActual returns the item's non-voided transaction sum plus the
// rolled-up actuals of its children in the period snapshot.
func (s *aggregationService) RollupActual(periodID, itemID string) (decimal.Decimal, error) {
	nodes, err := s.RollupSubtree(periodID, itemID)
	if err != nil {
		return decimal.Zero, err
	}
	return nodes[0].ActualTotal, nil
}

// RollupSubtree returns the item's entry first, followed by its descendants
// depth-first, each carrying both totals. Only the subtree is read, one
// query per level.
func (s *aggregationService) RollupSubtree(periodID, itemID string) ([]EntryRollup, error) {
	if _, err := findPeriod(s.db, periodID); err != nil {
		return nil, err
	}
	root, err := findAdoptedEntry(s.db, periodID, itemID)
	if err != nil {
		return nil, err
	}
	entries, err := subtreeEntries(s.db, root)
	if err != nil {
		return nil, err
	}
	itemIDs := make([]string, 0, len(entries))
	for _, e := range entries {
		itemIDs = append(itemIDs, e.ItemID)
	}
	actuals, err := sumsByItem(s.db, periodID, itemIDs)
	if err != nil {
		return nil, err
	}

	tree := budgettree.FromEntries(entries)
	totals := budgettree.Rollup(tree, itemID, directTotals(actuals))
	nodes := tree.Subtree(itemID)
	out := make([]EntryRollup, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, annotate(n.Value, totals[n.ID]))
	}
	return out, nil
}

// subtreeEntries collects root and every snapshot descendant, walking the
// frozen parent links breadth-first.
func subtreeEntries(db *gorm.DB, root *models.BudgetEntry) ([]models.BudgetEntry, error) {
	entries := []models.BudgetEntry{*root}
	frontier := []string{root.ItemID}
	for len(frontier) > 0 {
		var children []models.BudgetEntry
		if err := db.Where("period_id = ? AND parent_item_id IN ?", root.PeriodID, frontier).
			Find(&children).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		frontier = make([]string, 0, len(children))
		for _, c := range children {
			entries = append(entries, c)
			frontier = append(frontier, c.ItemID)
		}
	}
	return entries, nil
}

// RollupTree annotates every entry of the period, optionally limited to one
// category, in depth-first tree order.
func (s *aggregationService) RollupTree(periodID string, categoryID *string) ([]EntryRollup, error) {
	tree, actuals, err := s.load(periodID, categoryID)
	if err != nil {
		return nil, err
	}

	totals := budgettree.RollupAll(tree, directTotals(actuals))
	out := make([]EntryRollup, 0, tree.Len())
	tree.Walk(func(n *budgettree.Node[models.BudgetEntry]) {
		out = append(out, annotate(n.Value, totals[n.ID]))
	})
	return out, nil
}

func (s *aggregationService) load(periodID string, categoryID *string) (*budgettree.Tree[models.BudgetEntry], map[string]decimal.Decimal, error) {
	if _, err := findPeriod(s.db, periodID); err != nil {
		return nil, nil, err
	}

	query := s.db.Where("period_id = ?", periodID)
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}
	var entries []models.BudgetEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	actuals, err := sumsByItem(s.db, periodID, nil)
	if err != nil {
		return nil, nil, err
	}
	return budgettree.FromEntries(entries), actuals, nil
}

// sumsByItem returns the non-voided transaction total per item in the
// period, limited to itemIDs when given. Amounts are added in Go so totals
// stay exact on every driver.
func sumsByItem(db *gorm.DB, periodID string, itemIDs []string) (map[string]decimal.Decimal, error) {
	query := db.Model(&models.Transaction{}).
		Select("item_id, amount").
		Where("period_id = ? AND voided_at IS NULL", periodID)
	if itemIDs != nil {
		query = query.Where("item_id IN ?", itemIDs)
	}
	var rows []struct {
		ItemID string
		Amount decimal.Decimal
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	sums := make(map[string]decimal.Decimal)
	for _, r := range rows {
		sums[r.ItemID] = sums[r.ItemID].Add(r.Amount)
	}
	return sums, nil
}

func directTotals(actuals map[string]decimal.Decimal) budgettree.DirectFunc[models.BudgetEntry] {
	return func(n *budgettree.Node[models.BudgetEntry]) budgettree.Totals {
		target := decimal.Zero
		if n.Value.TotalTarget != nil {
			target = *n.Value.TotalTarget
		}
		return budgettree.Totals{Target: target, Actual: actuals[n.ID]}
	}
}

func annotate(entry models.BudgetEntry, totals budgettree.Totals) EntryRollup {
	return EntryRollup{
		BudgetEntry: entry,
		TargetTotal: totals.Target,
		ActualTotal: totals.Actual,
	}
}
