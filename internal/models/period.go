package models

import "time"

// PeriodStatus is the lifecycle state of a budget period.
type PeriodStatus string

const (
	PeriodStatusDraft  PeriodStatus = "DRAFT"
	PeriodStatusActive PeriodStatus = "ACTIVE"
	PeriodStatusClosed PeriodStatus = "CLOSED"
)

// Next returns the only status s may move to, and false for the terminal state.
func (s PeriodStatus) Next() (PeriodStatus, bool) {
	switch s {
	case PeriodStatusDraft:
		return PeriodStatusActive, true
	case PeriodStatusActive:
		return PeriodStatusClosed, true
	}
	return "", false
}

// Period is a bounded fiscal window with its own budget snapshot.
type Period struct {
	Base
	Name        string       `gorm:"type:varchar(150);not null" json:"name"`
	Year        int          `gorm:"not null;index" json:"year"`
	StartDate   time.Time    `gorm:"not null" json:"startDate"`
	EndDate     time.Time    `gorm:"not null" json:"endDate"`
	Status      PeriodStatus `gorm:"type:varchar(10);not null;default:DRAFT;index" json:"status"`
	IsActive    bool         `gorm:"not null;default:true" json:"isActive"`
	ActivatedAt *time.Time   `json:"activatedAt,omitempty"`
	ClosedAt    *time.Time   `json:"closedAt,omitempty"`
}

// Contains reports whether date falls inside the period, compared by calendar day.
func (p *Period) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(p.StartDate)) && !d.After(DateOnly(p.EndDate))
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
