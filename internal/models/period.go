package models

import "time"

// PeriodStatus represents the lifecycle state of a period.
type PeriodStatus string

const (
	PeriodStatusDraft  PeriodStatus = "draft"
	PeriodStatusActive PeriodStatus = "active"
	PeriodStatusClosed PeriodStatus = "closed"
)

// Period is a date range in which budget data is gathered and reported.
// Date ranges never overlap within a budget and at most one period is
// active at a time. Status moves draft -> active -> closed, never backward.
type Period struct {
	Base
	BudgetID         string       `gorm:"type:uuid;not null;uniqueIndex:uq_periods_budget_name" json:"budget_id"`
	Name             string       `gorm:"size:128;not null;uniqueIndex:uq_periods_budget_name" json:"name"`
	Status           PeriodStatus `gorm:"not null;default:'draft'" json:"status"`
	DateStart        time.Time    `gorm:"not null" json:"date_start"`
	DateEnd          time.Time    `gorm:"not null" json:"date_end"`
	PreviousPeriodID *string      `gorm:"type:uuid" json:"previous_period_id,omitempty"`

	// Relationships
	Budget         Budget  `gorm:"foreignKey:BudgetID" json:"-"`
	PreviousPeriod *Period `gorm:"foreignKey:PreviousPeriodID" json:"-"`
}

// Contains reports whether the given date falls within the period's
// boundary-inclusive date range.
func (p *Period) Contains(date time.Time) bool {
	return !date.Before(p.DateStart) && !date.After(p.DateEnd)
}
