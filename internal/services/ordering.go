package services

import (
	"gorm.io/gorm"

	apperrors "anggaran/internal/errors"
	"anggaran/internal/models"
)

// Sibling orders are dense from 1 within a parent key and backed by the
// unique index on (parent_key, sort_order). Shifts go through negative
// values first so no intermediate state collides with that index.

// maxSiblingOrder returns the highest order under parentKey, 0 when empty.
func maxSiblingOrder(tx *gorm.DB, parentKey string) (int, error) {
	var highest int
	row := tx.Model(&models.Item{}).
		Select("COALESCE(MAX(sort_order), 0)").
		Where("parent_key = ?", parentKey).
		Row()
	if err := row.Scan(&highest); err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return highest, nil
}

// shiftSiblings adds delta to the order of every sibling under parentKey
// whose order lies in [from, to]. A to of 0 leaves the range open.
func shiftSiblings(tx *gorm.DB, parentKey string, from, to, delta int) error {
	scope := tx.Model(&models.Item{}).Where("parent_key = ? AND sort_order >= ?", parentKey, from)
	if to > 0 {
		scope = scope.Where("sort_order <= ?", to)
	}
	if err := scope.UpdateColumn("sort_order", gorm.Expr("-(sort_order + ?)", delta)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.Model(&models.Item{}).
		Where("parent_key = ? AND sort_order < 0", parentKey).
		UpdateColumn("sort_order", gorm.Expr("-sort_order")).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// closeGap pulls every sibling after removed one slot up.
func closeGap(tx *gorm.DB, parentKey string, removed int) error {
	return shiftSiblings(tx, parentKey, removed+1, 0, -1)
}

// parkItem moves an item to order 0, which is never a valid sibling order,
// so its slot can be reused while siblings shift around it.
func parkItem(tx *gorm.DB, itemID string) error {
	if err := tx.Model(&models.Item{}).Where("id = ?", itemID).UpdateColumn("sort_order", 0).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// reposition moves a parked item from order `from` to order `to` among its
// siblings, shifting the items in between.
func reposition(tx *gorm.DB, parentKey string, from, to int) error {
	switch {
	case to < from:
		return shiftSiblings(tx, parentKey, to, from-1, 1)
	case to > from:
		return shiftSiblings(tx, parentKey, from+1, to, -1)
	}
	return nil
}
