package models

// Budget is the top-level container owning periods, entities, categories,
// transfers and predictions. Every other entity transitively belongs to
// exactly one Budget.
type Budget struct {
	Base
	OwnerID     string `gorm:"type:uuid;not null;uniqueIndex:uq_budgets_owner_name" json:"owner_id"`
	Name        string `gorm:"not null;uniqueIndex:uq_budgets_owner_name" json:"name"`
	Description string `json:"description"`
	Currency    string `gorm:"size:3;not null" json:"currency"`

	// Relationships
	Owner      User           `gorm:"foreignKey:OwnerID" json:"-"`
	Members    []BudgetMember `gorm:"foreignKey:BudgetID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Periods    []Period       `gorm:"foreignKey:BudgetID;constraint:OnDelete:CASCADE" json:"-"`
	Entities   []Entity       `gorm:"foreignKey:BudgetID;constraint:OnDelete:CASCADE" json:"-"`
	Categories []TransferCategory `gorm:"foreignKey:BudgetID;constraint:OnDelete:CASCADE" json:"-"`
}

// BudgetMember links a user to a budget. The budget owner always has a
// membership row, created in the same transaction as the budget.
type BudgetMember struct {
	Base
	BudgetID string `gorm:"type:uuid;not null;uniqueIndex:uq_budget_members" json:"budget_id"`
	UserID   string `gorm:"type:uuid;not null;uniqueIndex:uq_budget_members" json:"user_id"`

	User User `gorm:"foreignKey:UserID" json:"user"`
}
