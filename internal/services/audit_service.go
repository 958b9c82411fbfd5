package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"anggaran/internal/logger"
	"anggaran/internal/models"
)

type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log appends one row to the audit trail. A failed write is logged and
// swallowed: the mutation it describes has already committed.
func (s *auditService) Log(actor, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	log := logger.Named("audit")

	entry := &models.AuditLog{
		Actor:        actor,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      encodeChanges(changes, action),
	}
	if err := s.db.Create(entry).Error; err != nil {
		log.Errorw("failed to record audit entry",
			"error", err,
			"actor", actor,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
		return
	}
	log.Debugw("audit", "actor", actor, "action", action, "resource_id", resourceID)
}

// encodeChanges renders the change set as JSON. Empty sets store nothing.
func encodeChanges(changes map[string]any, action string) string {
	if len(changes) == 0 {
		return ""
	}
	data, err := json.Marshal(changes)
	if err != nil {
		logger.Named("audit").Warnw("unencodable audit changes", "error", err, "action", action)
		return "{}"
	}
	return string(data)
}
