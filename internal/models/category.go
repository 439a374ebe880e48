package models

// CategoryType represents the type of a transfer category.
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// CategoryPriority is the priority tier of a transfer category. Each tier is
// valid for exactly one category type; the pairing is enforced by a database
// CHECK constraint and pre-validated in the service layer.
type CategoryPriority int

const (
	PriorityRegular       CategoryPriority = 1
	PriorityIrregular     CategoryPriority = 2
	PriorityMostImportant CategoryPriority = 3
	PriorityDebts         CategoryPriority = 4
	PrioritySavings       CategoryPriority = 5
	PriorityOthers        CategoryPriority = 6

	// Reserved tiers backing the generated legs of deposit-to-deposit
	// transfers. Not user-assignable and hidden from category listings.
	PriorityDepositIncome  CategoryPriority = 7
	PriorityDepositExpense CategoryPriority = 8
)

// IncomePriorities returns the priority tiers valid for income categories.
func IncomePriorities() []CategoryPriority {
	return []CategoryPriority{PriorityRegular, PriorityIrregular, PriorityDepositIncome}
}

// ExpensePriorities returns the priority tiers valid for expense categories.
func ExpensePriorities() []CategoryPriority {
	return []CategoryPriority{PriorityMostImportant, PriorityDebts, PrioritySavings, PriorityOthers, PriorityDepositExpense}
}

// ReservedPriorities returns the tiers reserved for generated deposit transfers.
func ReservedPriorities() []CategoryPriority {
	return []CategoryPriority{PriorityDepositIncome, PriorityDepositExpense}
}

// Reserved reports whether the priority is one of the reserved deposit tiers.
func (p CategoryPriority) Reserved() bool {
	return p == PriorityDepositIncome || p == PriorityDepositExpense
}

// ValidFor reports whether the priority belongs to the valid subset for the
// given category type.
func (p CategoryPriority) ValidFor(categoryType CategoryType) bool {
	var set []CategoryPriority
	switch categoryType {
	case CategoryTypeIncome:
		set = IncomePriorities()
	case CategoryTypeExpense:
		set = ExpensePriorities()
	}
	for _, candidate := range set {
		if candidate == p {
			return true
		}
	}
	return false
}

// TransferCategory groups transfers by income/expense type and priority tier.
// A category with an owner is personal; without one it is common to all
// budget members. Personal and common categories may share a name, enforced
// by two partial unique indexes.
type TransferCategory struct {
	Base
	BudgetID     string           `gorm:"type:uuid;not null;uniqueIndex:uq_categories_personal,where:owner_id IS NOT NULL;uniqueIndex:uq_categories_common,where:owner_id IS NULL" json:"budget_id"`
	CategoryType CategoryType     `gorm:"not null;uniqueIndex:uq_categories_personal,where:owner_id IS NOT NULL;uniqueIndex:uq_categories_common,where:owner_id IS NULL" json:"category_type"`
	Name         string           `gorm:"size:128;not null;uniqueIndex:uq_categories_personal,where:owner_id IS NOT NULL;uniqueIndex:uq_categories_common,where:owner_id IS NULL" json:"name"`
	OwnerID      *string          `gorm:"type:uuid;uniqueIndex:uq_categories_personal,where:owner_id IS NOT NULL" json:"owner_id,omitempty"`
	DepositID    *string          `gorm:"type:uuid" json:"deposit_id,omitempty"`
	Description  string           `gorm:"size:255" json:"description"`
	IsActive     bool             `gorm:"default:true" json:"is_active"`
	Priority     CategoryPriority `gorm:"not null;check:categories_priority_matches_type,(category_type = 'income' AND priority IN (1,2,7)) OR (category_type = 'expense' AND priority IN (3,4,5,6,8))" json:"priority"`

	// Relationships
	Budget  Budget  `gorm:"foreignKey:BudgetID" json:"-"`
	Owner   *User   `gorm:"foreignKey:OwnerID" json:"-"`
	Deposit *Entity `gorm:"foreignKey:DepositID" json:"-"`
}
