package models

// AuditLog records administrative mutations of the budget for traceability.
type AuditLog struct {
	Base
	Actor        string `gorm:"type:varchar(100);not null;index" json:"actor"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resourceType"`
	ResourceID   string `gorm:"type:varchar(36)" json:"resourceId"`
	IPAddress    string `json:"ipAddress"`
	Changes      string `json:"changes,omitempty"`
}
