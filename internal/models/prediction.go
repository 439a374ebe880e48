package models

// ExpensePrediction is a planned-value row for a category within a period.
// InitialPlan stays null while the period is draft and is frozen to the
// current plan when the period activates. A row without a category is the
// per-deposit "uncategorized slack" prediction created with the period.
type ExpensePrediction struct {
	Base
	PeriodID    string  `gorm:"type:uuid;not null;uniqueIndex:uq_predictions_period_category,where:category_id IS NOT NULL;uniqueIndex:uq_predictions_uncategorized,where:category_id IS NULL" json:"period_id"`
	DepositID   string  `gorm:"type:uuid;not null;uniqueIndex:uq_predictions_uncategorized,where:category_id IS NULL" json:"deposit_id"`
	CategoryID  *string `gorm:"type:uuid;uniqueIndex:uq_predictions_period_category,where:category_id IS NOT NULL" json:"category_id,omitempty"`
	InitialPlan *int64  `gorm:"type:bigint;check:initial_plan_gte_0,initial_plan >= 0" json:"initial_plan,omitempty"`
	CurrentPlan int64   `gorm:"type:bigint;not null;check:current_plan_gte_0,current_plan >= 0" json:"current_plan"`
	Description string  `gorm:"size:255" json:"description"`

	// Relationships
	Period   Period            `gorm:"foreignKey:PeriodID;constraint:OnDelete:CASCADE" json:"-"`
	Deposit  Entity            `gorm:"foreignKey:DepositID" json:"-"`
	Category *TransferCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"-"`
}
