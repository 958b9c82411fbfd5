package models

import (
	"time"

	"anggaran/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for all tables. Rows are never soft-deleted
// through gorm; deactivation and voiding are explicit columns on each model.
type Base struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}
