package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "budgetbook/internal/errors"
	"budgetbook/internal/models"
	"budgetbook/internal/pagination"
)

// transferService validates and persists ledger transfers, including the
// generated mirror income leg of deposit-to-deposit expenses.
type transferService struct {
	db *gorm.DB
}

// NewTransferService creates a new TransferServicer.
func NewTransferService(db *gorm.DB) TransferServicer {
	return &transferService{db: db}
}

// transferRefs bundles the resolved referenced records of a transfer write.
type transferRefs struct {
	period   models.Period
	entity   models.Entity
	deposit  models.Entity
	category models.TransferCategory
}

// resolveRefs loads and cross-validates every record a transfer references.
// Validation order mirrors the client-facing precedence: value, distinctness,
// existence, budget coherence, period state, date range, deposit flag,
// category coherence.
func (s *transferService) resolveRefs(db *gorm.DB, budgetID string, transferType models.TransferType, in TransferInput) (*transferRefs, error) {
	if in.Value <= 0 {
		return nil, apperrors.ErrTransferValue
	}
	if in.EntityID == in.DepositID {
		return nil, apperrors.ErrSameEntityAndDeposit
	}

	refs := &transferRefs{}
	if err := db.First(&refs.period, "id = ?", in.PeriodID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := db.First(&refs.entity, "id = ?", in.EntityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEntityNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := db.First(&refs.deposit, "id = ?", in.DepositID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDepositNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := db.First(&refs.category, "id = ?", in.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if refs.period.BudgetID != budgetID || refs.entity.BudgetID != budgetID ||
		refs.deposit.BudgetID != budgetID || refs.category.BudgetID != budgetID {
		return nil, apperrors.ErrBudgetMismatch
	}
	if refs.period.Status == models.PeriodStatusClosed {
		return nil, apperrors.ErrPeriodClosed
	}
	if !refs.period.Contains(in.Date) {
		return nil, apperrors.ErrDateNotInPeriod
	}
	if !refs.deposit.IsDeposit {
		return nil, apperrors.ErrNotADeposit
	}
	if refs.category.Priority.Reserved() {
		return nil, apperrors.ErrReservedPriority
	}
	if models.CategoryType(transferType) != refs.category.CategoryType {
		return nil, apperrors.ErrCategoryTypeMismatch
	}
	if refs.category.DepositID != nil && *refs.category.DepositID != in.DepositID {
		return nil, apperrors.ErrCategoryDepositHolder
	}
	return refs, nil
}

// needsMirror reports whether the write represents money moving between two
// deposits, which carries a generated income leg on the source entity.
func needsMirror(transferType models.TransferType, refs *transferRefs) bool {
	return transferType == models.TransferTypeExpense && refs.entity.IsDeposit
}

// buildMirror assembles the generated income leg: entity and deposit swapped,
// category set to the budget's reserved deposit income category.
func (s *transferService) buildMirror(tx *gorm.DB, budgetID string, original *models.Transfer) (*models.Transfer, error) {
	var incomeCategory models.TransferCategory
	err := tx.Where("budget_id = ? AND priority = ?", budgetID, models.PriorityDepositIncome).
		First(&incomeCategory).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrDepositIncomeCatMissing
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &models.Transfer{
		BudgetID:     budgetID,
		PeriodID:     original.PeriodID,
		EntityID:     original.DepositID,
		DepositID:    original.EntityID,
		CategoryID:   incomeCategory.ID,
		TransferType: models.TransferTypeIncome,
		Name:         original.Name,
		Description:  original.Description,
		Value:        original.Value,
		Date:         original.Date,
	}, nil
}

// CreateTransfer validates and persists a transfer. A deposit-to-deposit
// expense and its mirror income are committed in one transaction; neither leg
// is ever visible without the other.
func (s *transferService) CreateTransfer(userID, budgetID string, transferType models.TransferType, in TransferInput) (*models.Transfer, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}

	var transfer *models.Transfer
	err := s.db.Transaction(func(tx *gorm.DB) error {
		refs, err := s.resolveRefs(tx, budgetID, transferType, in)
		if err != nil {
			return err
		}

		transfer = &models.Transfer{
			BudgetID:     budgetID,
			PeriodID:     in.PeriodID,
			EntityID:     in.EntityID,
			DepositID:    in.DepositID,
			CategoryID:   in.CategoryID,
			TransferType: transferType,
			Name:         in.Name,
			Description:  in.Description,
			Value:        in.Value,
			Date:         in.Date,
		}
		if err := tx.Create(transfer).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if !needsMirror(transferType, refs) {
			return nil
		}
		mirror, err := s.buildMirror(tx, budgetID, transfer)
		if err != nil {
			return err
		}
		mirror.MirrorTransferID = &transfer.ID
		if err := tx.Create(mirror).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		transfer.MirrorTransferID = &mirror.ID
		if err := tx.Model(transfer).Update("mirror_transfer_id", mirror.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// GetBudgetTransfers returns a paginated, filtered list of the budget's
// transfers, generated mirror legs included.
func (s *transferService) GetBudgetTransfers(userID, budgetID string, page pagination.PageRequest, filter TransferFilter) (*pagination.PageResponse[models.Transfer], error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.Transfer{}).Where("budget_id = ?", budgetID)
	if filter.TransferType != nil {
		base = base.Where("transfer_type = ?", *filter.TransferType)
	}
	if filter.PeriodID != nil {
		base = base.Where("period_id = ?", *filter.PeriodID)
	}
	if filter.EntityID != nil {
		base = base.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.DepositID != nil {
		base = base.Where("deposit_id = ?", *filter.DepositID)
	}
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.DateAfter != nil {
		base = base.Where("date >= ?", *filter.DateAfter)
	}
	if filter.DateBefore != nil {
		base = base.Where("date <= ?", *filter.DateBefore)
	}
	if filter.MinValue != nil {
		base = base.Where("value >= ?", *filter.MinValue)
	}
	if filter.MaxValue != nil {
		base = base.Where("value <= ?", *filter.MaxValue)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ordering := pagination.OrderBy(filter.Ordering, map[string]string{
		"date": "date", "value": "value", "name": "name", "created_at": "created_at",
	}, "date DESC, created_at DESC")

	var transfers []models.Transfer
	if err := base.Scopes(pagination.Paginate(page), ordering).Find(&transfers).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transfers, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTransferByID returns a transfer by ID within the budget.
func (s *transferService) GetTransferByID(userID, budgetID, transferID string) (*models.Transfer, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}
	return s.getTransfer(s.db, budgetID, transferID)
}

func (s *transferService) getTransfer(db *gorm.DB, budgetID, transferID string) (*models.Transfer, error) {
	var transfer models.Transfer
	if err := db.Where("id = ? AND budget_id = ?", transferID, budgetID).First(&transfer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransferNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transfer, nil
}

// isGeneratedMirror reports whether the transfer is a generated income leg.
// Generated legs are managed through their originating expense and cannot be
// written to directly.
func (s *transferService) isGeneratedMirror(transfer *models.Transfer) (bool, error) {
	if transfer.TransferType != models.TransferTypeIncome || transfer.MirrorTransferID == nil {
		return false, nil
	}
	var category models.TransferCategory
	if err := s.db.First(&category, "id = ?", transfer.CategoryID).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category.Priority == models.PriorityDepositIncome, nil
}

// UpdateTransfer applies a full-field update after re-running every create
// validation. The mirror leg is updated, created or removed in the same
// transaction as the change that affects it.
func (s *transferService) UpdateTransfer(userID, budgetID, transferID string, in TransferInput) (*models.Transfer, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}
	transfer, err := s.getTransfer(s.db, budgetID, transferID)
	if err != nil {
		return nil, err
	}
	generated, err := s.isGeneratedMirror(transfer)
	if err != nil {
		return nil, err
	}
	if generated {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Generated mirror transfer cannot be modified directly.")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		refs, err := s.resolveRefs(tx, budgetID, transfer.TransferType, in)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"period_id":   in.PeriodID,
			"entity_id":   in.EntityID,
			"deposit_id":  in.DepositID,
			"category_id": in.CategoryID,
			"name":        in.Name,
			"description": in.Description,
			"value":       in.Value,
			"date":        in.Date,
		}
		if err := tx.Model(transfer).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		mirrorNeeded := needsMirror(transfer.TransferType, refs)
		switch {
		case mirrorNeeded && transfer.MirrorTransferID != nil:
			mirrorUpdates := map[string]interface{}{
				"period_id":   in.PeriodID,
				"entity_id":   in.DepositID,
				"deposit_id":  in.EntityID,
				"name":        in.Name,
				"description": in.Description,
				"value":       in.Value,
				"date":        in.Date,
			}
			if err := tx.Model(&models.Transfer{}).
				Where("id = ?", *transfer.MirrorTransferID).
				Updates(mirrorUpdates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		case mirrorNeeded:
			mirror, err := s.buildMirror(tx, budgetID, transfer)
			if err != nil {
				return err
			}
			mirror.MirrorTransferID = &transfer.ID
			if err := tx.Create(mirror).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			transfer.MirrorTransferID = &mirror.ID
			if err := tx.Model(transfer).Update("mirror_transfer_id", mirror.ID).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		case transfer.MirrorTransferID != nil:
			mirrorID := *transfer.MirrorTransferID
			transfer.MirrorTransferID = nil
			if err := tx.Model(transfer).Update("mirror_transfer_id", nil).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := tx.Delete(&models.Transfer{}, "id = ?", mirrorID).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.getTransfer(s.db, budgetID, transferID)
}

// DeleteTransfer deletes a transfer together with its mirror leg.
func (s *transferService) DeleteTransfer(userID, budgetID, transferID string) error {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return err
	}
	transfer, err := s.getTransfer(s.db, budgetID, transferID)
	if err != nil {
		return err
	}
	generated, err := s.isGeneratedMirror(transfer)
	if err != nil {
		return err
	}
	if generated {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Generated mirror transfer cannot be deleted directly.")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.deleteWithMirror(tx, transfer)
	})
}

func (s *transferService) deleteWithMirror(tx *gorm.DB, transfer *models.Transfer) error {
	if transfer.MirrorTransferID != nil {
		mirrorID := *transfer.MirrorTransferID
		if err := tx.Model(transfer).Update("mirror_transfer_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&models.Transfer{}, "id = ?", mirrorID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	if err := tx.Delete(transfer).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// BulkDeleteTransfers deletes the given transfers in one transaction. Every
// ID must resolve to a transfer in the budget or nothing is deleted.
func (s *transferService) BulkDeleteTransfers(userID, budgetID string, ids []string) error {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return err
	}
	if len(ids) == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "No transfer ids provided.")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var transfers []models.Transfer
		if err := tx.Where("budget_id = ? AND id IN ?", budgetID, ids).Find(&transfers).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(transfers) != len(ids) {
			return apperrors.ErrTransferNotFound
		}
		for i := range transfers {
			generated, err := s.isGeneratedMirror(&transfers[i])
			if err != nil {
				return err
			}
			if generated {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "Generated mirror transfer cannot be deleted directly.")
			}
		}
		for i := range transfers {
			if err := s.deleteWithMirror(tx, &transfers[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// CopyTransfers duplicates the given transfers through the full create path,
// so copies are revalidated and deposit-to-deposit copies regenerate their
// own mirror legs. Returns the new transfer IDs.
func (s *transferService) CopyTransfers(userID, budgetID string, ids []string) ([]string, error) {
	if _, err := requireBudgetMember(s.db, userID, budgetID); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "No transfer ids provided.")
	}

	var originals []models.Transfer
	if err := s.db.Where("budget_id = ? AND id IN ?", budgetID, ids).Find(&originals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(originals) != len(ids) {
		return nil, apperrors.ErrTransferNotFound
	}
	for i := range originals {
		generated, err := s.isGeneratedMirror(&originals[i])
		if err != nil {
			return nil, err
		}
		if generated {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Generated mirror transfer cannot be copied directly.")
		}
	}

	newIDs := make([]string, 0, len(originals))
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range originals {
			original := originals[i]
			in := TransferInput{
				Name:        original.Name,
				Description: original.Description,
				Value:       original.Value,
				Date:        original.Date,
				PeriodID:    original.PeriodID,
				EntityID:    original.EntityID,
				DepositID:   original.DepositID,
				CategoryID:  original.CategoryID,
			}

			refs, err := s.resolveRefs(tx, budgetID, original.TransferType, in)
			if err != nil {
				return err
			}

			copied := &models.Transfer{
				BudgetID:     budgetID,
				PeriodID:     in.PeriodID,
				EntityID:     in.EntityID,
				DepositID:    in.DepositID,
				CategoryID:   in.CategoryID,
				TransferType: original.TransferType,
				Name:         in.Name,
				Description:  in.Description,
				Value:        in.Value,
				Date:         in.Date,
			}
			if err := tx.Create(copied).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if needsMirror(original.TransferType, refs) {
				mirror, err := s.buildMirror(tx, budgetID, copied)
				if err != nil {
					return err
				}
				mirror.MirrorTransferID = &copied.ID
				if err := tx.Create(mirror).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
				if err := tx.Model(copied).Update("mirror_transfer_id", mirror.ID).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
			}
			newIDs = append(newIDs, copied.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newIDs, nil
}
