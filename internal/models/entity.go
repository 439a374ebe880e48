package models

// Entity represents a transfer actor (payer or receiver). A deposit is an
// entity flagged with IsDeposit - a value-holding account rather than an
// external counterparty. The flag is a runtime discriminator, not a separate
// type.
type Entity struct {
	Base
	BudgetID    string `gorm:"type:uuid;not null;uniqueIndex:uq_entities_budget_name" json:"budget_id"`
	Name        string `gorm:"size:128;not null;uniqueIndex:uq_entities_budget_name" json:"name"`
	Description string `gorm:"size:255" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`
	IsDeposit   bool   `gorm:"not null;default:false;uniqueIndex:uq_entities_budget_name" json:"is_deposit"`

	Budget Budget `gorm:"foreignKey:BudgetID" json:"-"`
}
