package models

import "time"

// TransferType discriminates income and expense ledger lines. Type-specific
// validation branches on this tag; there is no subclassing.
type TransferType string

const (
	TransferTypeIncome  TransferType = "income"
	TransferTypeExpense TransferType = "expense"
)

// Transfer is a ledger entry moving value between an entity and a deposit
// within a period. The most constraint-heavy entity in the system: value and
// entity/deposit distinctness are backed by CHECK constraints, everything
// else is validated transactionally in the service layer.
//
// An expense whose entity is itself a deposit represents money moving between
// two deposits; it carries a generated mirrored income on the counterparty
// deposit, linked through MirrorTransferID.
type Transfer struct {
	Base
	BudgetID         string       `gorm:"type:uuid;not null;index" json:"budget_id"`
	PeriodID         string       `gorm:"type:uuid;not null" json:"period_id"`
	EntityID         string       `gorm:"type:uuid;not null" json:"entity_id"`
	DepositID        string       `gorm:"type:uuid;not null;check:transfers_entity_not_deposit,entity_id <> deposit_id" json:"deposit_id"`
	CategoryID       string       `gorm:"type:uuid;not null" json:"category_id"`
	TransferType     TransferType `gorm:"not null" json:"transfer_type"`
	Name             string       `gorm:"size:255;not null" json:"name"`
	Description      string       `gorm:"size:255" json:"description"`
	Value            int64        `gorm:"type:bigint;not null;check:transfers_value_gt_0,value > 0" json:"value"`
	Date             time.Time    `gorm:"not null" json:"date"`
	MirrorTransferID *string      `gorm:"type:uuid" json:"mirror_transfer_id,omitempty"`

	// Relationships
	Period         Period           `gorm:"foreignKey:PeriodID;constraint:OnDelete:RESTRICT" json:"-"`
	Entity         Entity           `gorm:"foreignKey:EntityID;constraint:OnDelete:RESTRICT" json:"-"`
	Deposit        Entity           `gorm:"foreignKey:DepositID;constraint:OnDelete:RESTRICT" json:"-"`
	Category       TransferCategory `gorm:"foreignKey:CategoryID;constraint:OnDelete:RESTRICT" json:"-"`
	MirrorTransfer *Transfer        `gorm:"foreignKey:MirrorTransferID" json:"-"`
}
