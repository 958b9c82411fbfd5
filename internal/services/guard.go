package services

import (
	"fmt"

	"gorm.io/gorm"

	apperrors "anggaran/internal/errors"
)

// dependentQuery counts the rows of one model that reference the entity
// about to be deleted.
type dependentQuery struct {
	label string
	model interface{}
	where string
	args  []interface{}
}

func dependents(label string, model interface{}, where string, args ...interface{}) dependentQuery {
	return dependentQuery{label: label, model: model, where: where, args: args}
}

// assertNoDependents fails with sentinel as soon as any query finds a row.
// It runs on tx so the check and the delete share one transaction.
func assertNoDependents(tx *gorm.DB, sentinel *apperrors.AppError, queries ...dependentQuery) error {
	for _, q := range queries {
		var count int64
		if err := tx.Model(q.model).Where(q.where, q.args...).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.WithMessage(sentinel, fmt.Sprintf("%s: %d %s still reference it", sentinel.Message, count, q.label))
		}
	}
	return nil
}
